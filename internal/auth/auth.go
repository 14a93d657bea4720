// Package auth resolves the Gemini API credential and optionally probes it.
//
// The credential is read once, at startup, and handed to the generator as an explicit
// value. Absence is a normal state represented by a zero Credential, not an error, so
// the generator can refuse to make a network call without inspecting error text.
package auth

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

const (
	credentialDir  = ".auralens"
	credentialFile = "credentials.gpg"
)

// apiKeyEnvVars are checked in order. API_KEY is still accepted from older deployments.
var apiKeyEnvVars = []string{"GEMINI_API_KEY", "API_KEY"}

// Credential is an optional API key. The zero value is an absent credential.
type Credential struct {
	value  string
	source string
}

// NewCredential wraps key as a present credential. A blank key yields an absent one.
func NewCredential(key, source string) Credential {
	key = strings.TrimSpace(key)
	if key == "" {
		return Credential{}
	}
	return Credential{value: key, source: source}
}

// Get returns the key and whether it is present.
func (c Credential) Get() (string, bool) {
	return c.value, c.value != ""
}

// Present reports whether a key is configured.
func (c Credential) Present() bool {
	return c.value != ""
}

// Source names where the key came from (environment variable name or "gpg").
func (c Credential) Source() string {
	return c.source
}

// String never reveals the key.
func (c Credential) String() string {
	if !c.Present() {
		return "<none>"
	}
	return "<redacted:" + c.source + ">"
}

// LookupCredential retrieves the Gemini API key from available sources.
// Priority order:
//  1. GEMINI_API_KEY environment variable
//  2. API_KEY environment variable
//  3. GPG-encrypted file at ~/.auralens/credentials.gpg
//
// An absent key is returned as a zero Credential.
func LookupCredential() Credential {
	if cred := EnvCredential(); cred.Present() {
		log.Debug().Str("source", cred.Source()).Msg("Using API key from environment variable")
		return cred
	}

	key, err := getFromGPG()
	if err == nil && key != "" {
		log.Debug().Msg("Using API key from GPG encrypted file")
		return NewCredential(key, "gpg")
	}

	log.Debug().Err(err).Msg("No API key configured")
	return Credential{}
}

// EnvCredential reads only the environment variables, never the GPG file.
func EnvCredential() Credential {
	for _, name := range apiKeyEnvVars {
		if cred := NewCredential(os.Getenv(name), name); cred.Present() {
			return cred
		}
	}
	return Credential{}
}

// getFromGPG decrypts the API key from the GPG-encrypted credentials file.
func getFromGPG() (string, error) {
	credPath, err := getCredentialPath()
	if err != nil {
		return "", err
	}

	if _, err := os.Stat(credPath); os.IsNotExist(err) {
		return "", fmt.Errorf("GPG credentials file not found at %s", credPath)
	}

	log.Debug().Str("file", credPath).Msg("Decrypting GPG credentials")

	args := []string{"--decrypt", "--quiet"}

	passphrasePath, err := getPassphrasePath()
	if err == nil {
		fi, statErr := os.Stat(passphrasePath)
		if statErr == nil {
			// Passphrase file must be owner-only.
			mode := fi.Mode().Perm()
			if mode&0077 != 0 {
				log.Warn().
					Str("passphrase_file", passphrasePath).
					Str("permissions", fmt.Sprintf("%04o", mode)).
					Msg("Passphrase file has insecure permissions (should be 0600); skipping")
			} else {
				log.Debug().Str("passphrase_file", passphrasePath).Msg("Using passphrase file for GPG decryption")
				args = append(args, "--pinentry-mode", "loopback", "--passphrase-file", passphrasePath)
			}
		}
	}

	args = append(args, credPath)
	cmd := exec.Command("gpg", args...)
	output, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return "", fmt.Errorf("GPG decryption failed: %s", string(exitErr.Stderr))
		}
		return "", fmt.Errorf("GPG decryption failed: %w", err)
	}

	return strings.TrimSpace(string(output)), nil
}

// getCredentialPath returns the full path to the credentials file.
func getCredentialPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return filepath.Join(home, credentialDir, credentialFile), nil
}

// getPassphrasePath returns the path to the GPG passphrase file next to the
// executable, falling back to the working directory during development.
func getPassphrasePath() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to get executable path: %w", err)
	}

	passphrasePath := filepath.Join(filepath.Dir(exe), ".gpg-passphrase")
	if _, err := os.Stat(passphrasePath); err == nil {
		return passphrasePath, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}

	return filepath.Join(cwd, ".gpg-passphrase"), nil
}
