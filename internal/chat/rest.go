package chat

// rest.go provides a REST API client for the Gemini image models. It speaks the same
// generateContent operation as the SDK, so the generator can run over either transport.

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

// DefaultBaseURL is the Gemini REST API base URL.
const DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// RESTClient calls generateContent over plain HTTP.
type RESTClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewRESTClient creates a REST client. An empty baseURL selects DefaultBaseURL and a nil
// httpClient selects one without a timeout.
func NewRESTClient(apiKey, baseURL string, httpClient *http.Client) *RESTClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &RESTClient{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// HTTPError is a non-200 answer from the API. Its message is the response body, which
// for Gemini is a {"error":{...}} document.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if body := strings.TrimSpace(e.Body); body != "" {
		return body
	}
	return fmt.Sprintf("API returned status %d", e.StatusCode)
}

// --- REST API request/response types ---

type geminiRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text       string          `json:"text,omitempty"`
	InlineData *geminiBlobData `json:"inlineData,omitempty"`
}

type geminiGenerationConfig struct {
	ResponseModalities []string `json:"responseModalities,omitempty"`
}

type geminiBlobData struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"` // base64 encoded
}

type geminiResponse struct {
	Candidates []geminiCandidate `json:"candidates"`
	Error      *geminiError      `json:"error,omitempty"`
}

type geminiCandidate struct {
	Content geminiContent `json:"content"`
}

type geminiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// GenerateContent implements ContentGenerator.
func (c *RESTClient) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	startTime := time.Now()

	req := geminiRequest{Contents: toRESTContents(contents)}
	if config != nil && len(config.ResponseModalities) > 0 {
		req.GenerationConfig = &geminiGenerationConfig{ResponseModalities: config.ResponseModalities}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	log.Debug().
		Str("model", model).
		Int("request_bytes", len(body)).
		Msg("Sending generateContent request")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		log.Error().
			Int("status", resp.StatusCode).
			Str("body", truncateString(string(respBody), 500)).
			Msg("Gemini API returned error")
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var geminiResp geminiResponse
	if err := json.Unmarshal(respBody, &geminiResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if geminiResp.Error != nil {
		return nil, &HTTPError{StatusCode: geminiResp.Error.Code, Body: string(respBody)}
	}

	out, err := fromRESTResponse(geminiResp)
	if err != nil {
		return nil, err
	}

	log.Debug().
		Int("candidates", len(out.Candidates)).
		Dur("duration", time.Since(startTime)).
		Msg("generateContent complete")

	return out, nil
}

func toRESTContents(contents []*genai.Content) []geminiContent {
	out := make([]geminiContent, 0, len(contents))
	for _, content := range contents {
		if content == nil {
			continue
		}
		rc := geminiContent{Role: content.Role}
		for _, part := range content.Parts {
			if part == nil {
				continue
			}
			if part.InlineData != nil {
				rc.Parts = append(rc.Parts, geminiPart{
					InlineData: &geminiBlobData{
						MIMEType: part.InlineData.MIMEType,
						Data:     base64.StdEncoding.EncodeToString(part.InlineData.Data),
					},
				})
			}
			if part.Text != "" {
				rc.Parts = append(rc.Parts, geminiPart{Text: part.Text})
			}
		}
		out = append(out, rc)
	}
	return out
}

func fromRESTResponse(resp geminiResponse) (*genai.GenerateContentResponse, error) {
	out := &genai.GenerateContentResponse{}
	for _, candidate := range resp.Candidates {
		content := &genai.Content{Role: candidate.Content.Role}
		for _, part := range candidate.Content.Parts {
			switch {
			case part.InlineData != nil:
				decoded, err := base64.StdEncoding.DecodeString(part.InlineData.Data)
				if err != nil {
					return nil, fmt.Errorf("failed to decode image data: %w", err)
				}
				content.Parts = append(content.Parts, &genai.Part{
					InlineData: &genai.Blob{MIMEType: part.InlineData.MIMEType, Data: decoded},
				})
			case part.Text != "":
				content.Parts = append(content.Parts, &genai.Part{Text: part.Text})
			}
		}
		out.Candidates = append(out.Candidates, &genai.Candidate{Content: content})
	}
	return out, nil
}
