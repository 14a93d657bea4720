package cli

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/fpang/auralens/internal/auth"
	"github.com/fpang/auralens/internal/chat"
	"github.com/fpang/auralens/internal/config"
)

// InitGenerator builds the generator from cfg. When validate is set and a key is
// configured, the key is checked with a minimal API call first and a bad key exits
// fatally. A missing key is not fatal: every generation then reports it.
func InitGenerator(ctx context.Context, cfg config.Config, validate bool, obs chat.Observer) *chat.Generator {
	key, ok := cfg.Credential.Get()
	if !ok {
		log.Warn().Msg("No API key configured. Set GEMINI_API_KEY or store it in ~/.auralens/credentials.gpg")
		return chat.NewGenerator(nil, cfg.ChatConfig(obs))
	}

	backend, err := chat.NewBackend(ctx, key, cfg.BackendOptions())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create Gemini client")
	}

	if validate {
		if err := auth.ValidateAPIKey(ctx, cfg.Credential, backend); err != nil {
			HandleValidationError(err)
		}
		log.Info().Msg("API key validation complete - ready for operations")
	}

	return chat.NewGenerator(backend, cfg.ChatConfig(obs))
}
