package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

// Transport selects how the generator reaches the Gemini API.
type Transport string

const (
	// TransportSDK uses google.golang.org/genai.
	TransportSDK Transport = "sdk"
	// TransportREST uses RESTClient.
	TransportREST Transport = "rest"
)

// ParseTransport maps a configuration value to a Transport. Empty selects TransportSDK.
func ParseTransport(s string) (Transport, error) {
	switch Transport(strings.ToLower(strings.TrimSpace(s))) {
	case "", TransportSDK:
		return TransportSDK, nil
	case TransportREST:
		return TransportREST, nil
	default:
		return "", fmt.Errorf("unknown transport %q (want %q or %q)", s, TransportSDK, TransportREST)
	}
}

// BackendOptions controls how NewGeminiGenerator builds its backend.
type BackendOptions struct {
	Transport Transport
	// BaseURL overrides the API endpoint, mainly for tests and proxies.
	BaseURL string
}

// NewGeminiClient creates a genai client for the Gemini Developer API.
func NewGeminiClient(ctx context.Context, apiKey, baseURL string) (*genai.Client, error) {
	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return client, nil
}

// NewBackend creates the ContentGenerator for apiKey over the chosen transport.
func NewBackend(ctx context.Context, apiKey string, opts BackendOptions) (ContentGenerator, error) {
	switch opts.Transport {
	case "", TransportSDK:
		client, err := NewGeminiClient(ctx, apiKey, opts.BaseURL)
		if err != nil {
			return nil, err
		}
		return client.Models, nil
	case TransportREST:
		return NewRESTClient(apiKey, opts.BaseURL, nil), nil
	default:
		return nil, fmt.Errorf("unknown transport %q", opts.Transport)
	}
}

// NewGeminiGenerator builds a Generator talking to the real API. No backend is created
// when cfg.APIKey is absent; the generator then fails every call with the
// missing-credential message.
func NewGeminiGenerator(ctx context.Context, cfg Config, opts BackendOptions) (*Generator, error) {
	key, ok := cfg.APIKey.Get()
	if !ok {
		log.Warn().Msg("No Gemini API key configured, generation will fail until one is set")
		return NewGenerator(nil, cfg), nil
	}

	backend, err := NewBackend(ctx, key, opts)
	if err != nil {
		return nil, err
	}

	g := NewGenerator(backend, cfg)
	log.Info().
		Str("model", g.Model()).
		Str("transport", string(opts.Transport)).
		Str("credential", cfg.APIKey.String()).
		Msg("Gemini generator ready")
	return g, nil
}
