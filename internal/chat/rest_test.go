package chat

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fpang/auralens/internal/auth"
)

func TestRESTClientGenerate(t *testing.T) {
	var gotPath, gotKey string
	var gotBody geminiRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotBody)

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":"done"},{"inlineData":{"mimeType":"image/png","data":"QUJD"}}]}}]}`)
	}))
	defer srv.Close()

	g, err := NewGeminiGenerator(context.Background(), testConfig(), BackendOptions{Transport: TransportREST, BaseURL: srv.URL})
	require.NoError(t, err)

	out := g.Generate(context.Background(), mustPayload(t, []byte("ABC"), "image/jpeg"))

	require.True(t, out.Succeeded(), out.Message())
	assert.Equal(t, "data:image/png;base64,QUJD", out.ImageURL())
	assert.Equal(t, "/models/test-model:generateContent", gotPath)
	assert.Equal(t, "test-key", gotKey)

	require.Len(t, gotBody.Contents, 1)
	parts := gotBody.Contents[0].Parts
	require.Len(t, parts, 2)
	assert.Equal(t, "user", gotBody.Contents[0].Role)
	assert.Equal(t, "image/jpeg", parts[0].InlineData.MIMEType)
	assert.Equal(t, "QUJD", parts[0].InlineData.Data)
	assert.Equal(t, "make it glow", parts[1].Text)
}

func TestRESTClientErrorBodies(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{
			name:    "invalid key",
			status:  http.StatusBadRequest,
			body:    `{"error":{"code":400,"message":"API key not valid. Please pass a valid API key.","status":"INVALID_ARGUMENT","details":[{"reason":"API_KEY_INVALID"}]}}`,
			wantMsg: MsgInvalidCredential,
		},
		{
			name:    "quota",
			status:  http.StatusTooManyRequests,
			body:    `{"error":{"code":429,"message":"quota exceeded","status":"RESOURCE_EXHAUSTED"}}`,
			wantMsg: "quota exceeded",
		},
		{
			name:    "html gateway page",
			status:  http.StatusBadGateway,
			body:    "<html>Bad Gateway</html>",
			wantMsg: "<html>Bad Gateway</html>",
		},
		{
			name:    "empty body",
			status:  http.StatusServiceUnavailable,
			wantMsg: "API returned status 503",
		},
		{
			name:    "error in ok body",
			status:  http.StatusOK,
			body:    `{"error":{"code":500,"message":"internal"}}`,
			wantMsg: "internal",
		},
		{
			name:    "no image",
			status:  http.StatusOK,
			body:    `{"candidates":[{"content":{"parts":[{"text":"sorry"}]}}]}`,
			wantMsg: MsgEmptyResult,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			g := NewGenerator(NewRESTClient("k", srv.URL+"/", nil), testConfig())
			out := g.Generate(context.Background(), mustPayload(t, []byte("x"), "image/png"))

			assert.False(t, out.Succeeded())
			assert.Equal(t, tt.wantMsg, out.Message())
		})
	}
}

func TestRESTClientBadImageData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"candidates":[{"content":{"parts":[{"inlineData":{"mimeType":"image/png","data":"!!!"}}]}}]}`)
	}))
	defer srv.Close()

	_, err := NewRESTClient("k", srv.URL, nil).GenerateContent(context.Background(), "m", nil, nil)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "decode image data"))
}

func TestNewGeminiGeneratorWithoutCredential(t *testing.T) {
	g, err := NewGeminiGenerator(context.Background(), Config{APIKey: auth.Credential{}}, BackendOptions{})
	require.NoError(t, err)
	assert.Equal(t, MsgMissingCredential, g.Generate(context.Background(), mustPayload(t, []byte("x"), "image/png")).Message())
}

func TestParseTransport(t *testing.T) {
	tests := []struct {
		in      string
		want    Transport
		wantErr bool
	}{
		{"", TransportSDK, false},
		{"sdk", TransportSDK, false},
		{" REST ", TransportREST, false},
		{"grpc", "", true},
	}
	for _, tt := range tests {
		got, err := ParseTransport(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		assert.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}
