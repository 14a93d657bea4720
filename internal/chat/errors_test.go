package chat

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"google.golang.org/genai"
	"pgregory.net/rapid"

	"github.com/fpang/auralens/internal/filehandler"
)

func TestNormalizeErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"json envelope", `{"error":{"message":"quota exceeded"}}`, "quota exceeded"},
		{"json with whitespace", "  \n{\"error\":{\"code\":429,\"message\":\"Resource exhausted\"}}", "Resource exhausted"},
		{"json invalid key", `{"error":{"code":400,"message":"API key not valid. Please pass a valid API key.","status":"INVALID_ARGUMENT"}}`, MsgInvalidCredential},
		{"json missing message", `{"error":{"code":500}}`, `{"error":{"code":500}}`},
		{"json wrong shape", `{"detail":"nope"}`, `{"detail":"nope"}`},
		{"broken json", `{"error":`, `{"error":`},
		{"reason code", `rpc error: reason API_KEY_INVALID for project`, MsgInvalidCredential},
		{"plain message", "deadline exceeded", "deadline exceeded"},
		{"empty", "", MsgGenericFailure},
		{"blank", "  \t", MsgGenericFailure},
		{"case sensitive", "api key not valid", "api key not valid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeErrorMessage(tt.raw); got != tt.want {
				t.Errorf("NormalizeErrorMessage(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestNormalizeErrorMessageInvalidKeyMarker(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		prefix := rapid.StringMatching(`[a-zA-Z0-9 :,.()-]{0,40}`).Draw(rt, "prefix")
		suffix := rapid.StringMatching(`[a-zA-Z0-9 :,.()-]{0,40}`).Draw(rt, "suffix")
		marker := rapid.SampledFrom(invalidCredentialMarkers).Draw(rt, "marker")

		got := NormalizeErrorMessage(prefix + marker + suffix)
		if got != MsgInvalidCredential {
			rt.Fatalf("got %q", got)
		}
		if again := NormalizeErrorMessage(got); again != got {
			rt.Fatalf("not stable: %q -> %q", got, again)
		}
	})
}

func TestNormalizeErrorMessageNeverBlank(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		raw := rapid.String().Draw(rt, "raw")
		if got := NormalizeErrorMessage(raw); strings.TrimSpace(got) == "" {
			rt.Fatalf("blank message for %q", raw)
		}
	})
}

func TestMessageOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"missing credential", MissingCredentialError{}, MsgMissingCredential},
		{"empty result", &EmptyResultError{Text: "I cannot do that"}, MsgEmptyResult},
		{"io error", &filehandler.IOError{Name: "a.jpg", Err: errors.New("EIO")}, MsgProcessingFailure},
		{"transport", &TransportError{Err: errors.New("connection reset")}, "connection reset"},
		{"transport without cause", &TransportError{}, ""},
		{"api error", &TransportError{Err: &genai.APIError{Code: 403, Message: "permission denied"}}, "permission denied"},
		{"http error", &TransportError{Err: &HTTPError{StatusCode: 429, Body: `{"error":{"message":"slow down"}}`}}, `{"error":{"message":"slow down"}}`},
		{"wrapped", fmt.Errorf("outer: %w", errors.New("inner")), "outer: inner"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MessageOf(tt.err); got != tt.want {
				t.Errorf("MessageOf() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHTTPErrorMessage(t *testing.T) {
	if got := (&HTTPError{StatusCode: 503}).Error(); got != "API returned status 503" {
		t.Errorf("empty body: %q", got)
	}
	if got := (&HTTPError{StatusCode: 400, Body: " {\"a\":1}\n"}).Error(); got != `{"a":1}` {
		t.Errorf("body: %q", got)
	}
}

func TestOutcome(t *testing.T) {
	ok := Success("data:image/png;base64,QUJD")
	if !ok.Succeeded() || ok.ImageURL() != "data:image/png;base64,QUJD" || ok.Message() != "" {
		t.Errorf("unexpected success outcome: %+v", ok)
	}

	failed := Failure("")
	if failed.Succeeded() || failed.ImageURL() != "" || failed.Message() != MsgGenericFailure {
		t.Errorf("unexpected failure outcome: %+v", failed)
	}
}
