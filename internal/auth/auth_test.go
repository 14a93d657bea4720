package auth

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLookupCredentialFromEnv(t *testing.T) {
	const testKey = "test-api-key-12345"

	t.Setenv("GEMINI_API_KEY", testKey)
	t.Setenv("API_KEY", "")

	cred := LookupCredential()
	key, ok := cred.Get()
	if !ok {
		t.Fatal("expected credential to be present")
	}
	if key != testKey {
		t.Errorf("expected key %q, got %q", testKey, key)
	}
	if cred.Source() != "GEMINI_API_KEY" {
		t.Errorf("expected source GEMINI_API_KEY, got %q", cred.Source())
	}
}

func TestLookupCredentialFallsBackToAPIKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("API_KEY", "legacy-key")

	cred := LookupCredential()
	if key, _ := cred.Get(); key != "legacy-key" {
		t.Errorf("expected legacy-key, got %q", key)
	}
	if cred.Source() != "API_KEY" {
		t.Errorf("expected source API_KEY, got %q", cred.Source())
	}
}

func TestLookupCredentialNoSource(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("API_KEY", "")
	t.Setenv("HOME", t.TempDir())

	cred := LookupCredential()
	if cred.Present() {
		t.Error("expected absent credential when no source is available")
	}
}

func TestCredentialNeverPrintsKey(t *testing.T) {
	cred := NewCredential("super-secret", "GEMINI_API_KEY")
	if strings.Contains(cred.String(), "super-secret") {
		t.Errorf("String() leaked the key: %s", cred.String())
	}
	if got := (Credential{}).String(); got != "<none>" {
		t.Errorf("zero Credential String() = %q, want <none>", got)
	}
}

func TestNewCredentialBlankIsAbsent(t *testing.T) {
	for _, key := range []string{"", "   ", "\n"} {
		if NewCredential(key, "test").Present() {
			t.Errorf("NewCredential(%q) should be absent", key)
		}
	}
}

func TestGetCredentialPath(t *testing.T) {
	path, err := getCredentialPath()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	home, _ := os.UserHomeDir()
	expected := filepath.Join(home, ".auralens", "credentials.gpg")

	if path != expected {
		t.Errorf("expected path %q, got %q", expected, path)
	}
}

func TestGetFromGPGFileNotFound(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	_, err := getFromGPG()
	if err == nil {
		t.Error("expected error when credentials file does not exist")
	}
}
