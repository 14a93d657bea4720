package chat

import (
	"encoding/json"
	"errors"
	"strings"

	"google.golang.org/genai"

	"github.com/fpang/auralens/internal/filehandler"
)

// User-facing messages. Everything that crosses the package boundary is one of these
// or the backend's own message text.
const (
	MsgMissingCredential = "API Key is missing. Please check your environment variables."
	MsgEmptyResult       = "No image data found in response."
	MsgInvalidCredential = "Invalid API Key. Please check your environment configuration."
	MsgGenericFailure    = "Failed to generate image."
	MsgProcessingFailure = "Something went wrong while processing your image."
)

// Markers the backend uses when it rejects a key.
var invalidCredentialMarkers = []string{"API key not valid", "API_KEY_INVALID"}

// MissingCredentialError is returned when no API key was configured.
type MissingCredentialError struct{}

func (MissingCredentialError) Error() string { return MsgMissingCredential }

// EmptyResultError is returned when the backend answered without an image part.
type EmptyResultError struct {
	// Text is whatever text the model returned instead, if any.
	Text string
}

func (e *EmptyResultError) Error() string { return MsgEmptyResult }

// TransportError wraps a failure reported by the backend call itself.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func (e *TransportError) Unwrap() error { return e.Err }

// MessageOf picks the raw message text of err, before normalization.
func MessageOf(err error) string {
	if err == nil {
		return ""
	}

	var ioErr *filehandler.IOError
	if errors.As(err, &ioErr) {
		return MsgProcessingFailure
	}

	var apiErr *genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}

	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		if transportErr.Err == nil {
			return ""
		}
		return transportErr.Err.Error()
	}

	return err.Error()
}

type errorEnvelope struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// NormalizeErrorMessage turns a raw failure message into the text shown to the user.
//
// A message that looks like a JSON document is parsed as {"error":{"message":...}} and the
// inner message used when present. A message naming an invalid key is replaced with
// MsgInvalidCredential. A blank message becomes MsgGenericFailure.
func NormalizeErrorMessage(raw string) string {
	msg := raw

	if strings.HasPrefix(strings.TrimSpace(msg), "{") {
		var env errorEnvelope
		if err := json.Unmarshal([]byte(strings.TrimSpace(msg)), &env); err == nil && env.Error.Message != "" {
			msg = env.Error.Message
		}
	}

	if isInvalidCredential(msg) {
		return MsgInvalidCredential
	}

	if strings.TrimSpace(msg) == "" {
		return MsgGenericFailure
	}
	return msg
}

func isInvalidCredential(msg string) bool {
	for _, marker := range invalidCredentialMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
