package chat

import (
	"context"
	"errors"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"

	"github.com/fpang/auralens/internal/assets"
	"github.com/fpang/auralens/internal/auth"
	"github.com/fpang/auralens/internal/filehandler"
)

// ContentGenerator is the one backend operation the generator needs.
// *genai.Models and *RESTClient both satisfy it.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Result labels passed to Observer.
const (
	ResultSuccess           = "success"
	ResultMissingCredential = "missing_credential"
	ResultInvalidCredential = "invalid_credential"
	ResultEmptyResult       = "empty_result"
	ResultError             = "error"
)

// Observer is notified once per Generate call.
type Observer interface {
	ObserveGeneration(result string, d time.Duration)
}

// Observers fans one observation out to several observers.
type Observers []Observer

// ObserveGeneration implements Observer.
func (obs Observers) ObserveGeneration(result string, d time.Duration) {
	for _, o := range obs {
		if o != nil {
			o.ObserveGeneration(result, d)
		}
	}
}

// Config is read once when the generator is built.
type Config struct {
	// APIKey authenticates backend calls. An absent credential fails every call
	// before any network activity.
	APIKey auth.Credential
	// Model defaults to GetModelName().
	Model string
	// StylePrompt defaults to assets.StylePrompt().
	StylePrompt string
	// Observer is optional.
	Observer Observer
}

// Generator turns an encoded photo into its ethereal light rendition.
// It holds no per-call state and may be invoked concurrently.
type Generator struct {
	backend ContentGenerator
	cfg     Config
}

// NewGenerator builds a generator over backend. backend may be nil when cfg.APIKey
// is absent since it is never reached in that case.
func NewGenerator(backend ContentGenerator, cfg Config) *Generator {
	if cfg.Model == "" {
		cfg.Model = GetModelName()
	}
	if cfg.StylePrompt == "" {
		cfg.StylePrompt = assets.StylePrompt()
	}
	if !IsImageModel(cfg.Model) {
		log.Warn().Str("model", cfg.Model).Msg("Model is not a known image model; results may contain no image")
	}
	return &Generator{backend: backend, cfg: cfg}
}

// Model returns the model identifier sent with every request.
func (g *Generator) Model() string {
	return g.cfg.Model
}

// CredentialPresent reports whether an API key was configured.
func (g *Generator) CredentialPresent() bool {
	return g.cfg.APIKey.Present()
}

// Generate sends the photo and the style prompt to the model in one request and
// returns the first image it produces. Every failure is folded into the Outcome's
// message; no error escapes.
func (g *Generator) Generate(ctx context.Context, payload filehandler.EncodedPayload) Outcome {
	start := time.Now()

	imageURL, err := g.generate(ctx, payload)
	if err == nil {
		g.observe(ResultSuccess, start)
		log.Info().
			Str("model", g.cfg.Model).
			Dur("duration", time.Since(start)).
			Msg("Ethereal light image generated")
		return Success(imageURL)
	}

	msg := NormalizeErrorMessage(MessageOf(err))
	g.observe(resultLabel(err, msg), start)
	log.Error().
		Err(err).
		Str("model", g.cfg.Model).
		Str("message", msg).
		Dur("duration", time.Since(start)).
		Msg("Image generation failed")
	return Failure(msg)
}

func (g *Generator) generate(ctx context.Context, payload filehandler.EncodedPayload) (string, error) {
	if !g.cfg.APIKey.Present() {
		return "", MissingCredentialError{}
	}
	if g.backend == nil {
		return "", &TransportError{Err: errors.New("no backend configured")}
	}

	data, err := payload.Bytes()
	if err != nil {
		return "", &filehandler.IOError{Err: err}
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			{InlineData: &genai.Blob{MIMEType: payload.MediaType(), Data: data}},
			{Text: g.cfg.StylePrompt},
		}, genai.RoleUser),
	}

	log.Debug().
		Str("model", g.cfg.Model).
		Str("media_type", payload.MediaType()).
		Int("image_bytes", len(data)).
		Str("prompt_version", assets.StylePromptVersion).
		Msg("Sending photo to Gemini")

	resp, err := g.backend.GenerateContent(ctx, g.cfg.Model, contents, nil)
	if err != nil {
		return "", &TransportError{Err: err}
	}

	imageURL, err := extractImage(resp)
	if err != nil {
		var empty *EmptyResultError
		if errors.As(err, &empty) && empty.Text != "" {
			log.Warn().Str("text", truncateString(empty.Text, 200)).Msg("Model answered with text only")
		}
		return "", err
	}
	return imageURL, nil
}

func (g *Generator) observe(result string, start time.Time) {
	if g.cfg.Observer != nil {
		g.cfg.Observer.ObserveGeneration(result, time.Since(start))
	}
}

func resultLabel(err error, msg string) string {
	var missing MissingCredentialError
	var empty *EmptyResultError
	switch {
	case errors.As(err, &missing):
		return ResultMissingCredential
	case errors.As(err, &empty):
		return ResultEmptyResult
	case msg == MsgInvalidCredential:
		return ResultInvalidCredential
	default:
		return ResultError
	}
}

// truncateString cuts s to at most maxLen bytes, appending "..." if truncated. The cut
// backs off to a rune boundary so the result stays valid UTF-8.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
