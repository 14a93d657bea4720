package auth

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/fpang/auralens/internal/metrics"
	"google.golang.org/genai"
)

type fakeProber struct {
	resp  *genai.GenerateContentResponse
	err   error
	calls int
	model string
}

func (f *fakeProber) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.calls++
	f.model = model
	return f.resp, f.err
}

func quietMetrics(t *testing.T) {
	t.Helper()
	prev := metrics.SetOutput(io.Discard)
	t.Cleanup(func() { metrics.SetOutput(prev) })
}

func TestValidateAPIKeyNoCredentialSkipsCall(t *testing.T) {
	p := &fakeProber{}
	err := ValidateAPIKey(context.Background(), Credential{}, p)

	if got := StatusOf(err); got != StatusMissing {
		t.Fatalf("StatusOf() = %v, want missing", got)
	}
	if p.calls != 0 {
		t.Errorf("expected no API call, got %d", p.calls)
	}
}

func TestValidateAPIKeySuccess(t *testing.T) {
	quietMetrics(t)
	p := &fakeProber{resp: &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: genai.NewContentFromText("hello", genai.RoleModel)}},
	}}

	if err := ValidateAPIKey(context.Background(), NewCredential("k", "test"), p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.calls != 1 || p.model != ProbeModel {
		t.Errorf("calls = %d model = %q, want 1 call to %s", p.calls, p.model, ProbeModel)
	}
}

func TestValidateAPIKeyEmptyResponse(t *testing.T) {
	quietMetrics(t)
	p := &fakeProber{resp: &genai.GenerateContentResponse{}}

	err := ValidateAPIKey(context.Background(), NewCredential("k", "test"), p)
	if got := StatusOf(err); got != StatusUnknown {
		t.Fatalf("StatusOf() = %v, want unknown", got)
	}
}

func TestValidateAPIKeyWrapsCause(t *testing.T) {
	quietMetrics(t)
	cause := &genai.APIError{Code: 403, Message: "forbidden"}
	err := ValidateAPIKey(context.Background(), NewCredential("k", "test"), &fakeProber{err: cause})

	if !errors.Is(err, cause) {
		t.Error("probe error should wrap the API error")
	}
	if !strings.HasPrefix(err.Error(), "API key was rejected: ") {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Status
	}{
		{"invalid key text", errors.New("API key not valid. Please pass a valid API key."), StatusRejected},
		{"invalid key code", errors.New("reason: API_KEY_INVALID"), StatusRejected},
		{"quota", errors.New("Resource exhausted: quota"), StatusThrottled},
		{"network", errors.New("dial tcp: no such host"), StatusUnreachable},
		{"other", errors.New("something odd"), StatusUnknown},
		{"api 400", &genai.APIError{Code: 400, Message: "bad"}, StatusRejected},
		{"api 403", &genai.APIError{Code: 403, Message: "forbidden"}, StatusRejected},
		{"api 429", &genai.APIError{Code: 429, Message: "slow down"}, StatusThrottled},
		{"api 503", &genai.APIError{Code: 503, Message: "unavailable"}, StatusUnreachable},
		{"api 418", &genai.APIError{Code: 418, Message: "teapot"}, StatusUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classify(tt.err); got != tt.want {
				t.Errorf("classify(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestStatusOf(t *testing.T) {
	if got := StatusOf(nil); got != StatusOK {
		t.Errorf("StatusOf(nil) = %v", got)
	}
	if got := StatusOf(errors.New("plain")); got != StatusUnknown {
		t.Errorf("StatusOf(plain) = %v", got)
	}
	if got := Status(99).String(); got != "unknown" {
		t.Errorf("Status(99).String() = %q", got)
	}
}
