// Package config resolves runtime settings once at startup from .env files and the
// process environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/fpang/auralens/internal/auth"
	"github.com/fpang/auralens/internal/chat"
	"github.com/fpang/auralens/internal/session"
)

// DefaultPort is the HTTP port used when PORT is unset.
const DefaultPort = 8080

// dotenvFiles are loaded in order; variables already set are never overridden.
var dotenvFiles = []string{".env.local", ".env"}

// Config holds every setting the binaries need.
type Config struct {
	Credential  auth.Credential
	Model       string
	Transport   chat.Transport
	BaseURL     string
	Port        int
	SessionTTL  time.Duration
	MaxSessions int
}

// Load reads .env files that exist, then resolves every setting from the environment.
func Load() (Config, error) {
	for _, f := range dotenvFiles {
		if err := godotenv.Load(f); err == nil {
			log.Debug().Str("file", f).Msg("Loaded environment file")
		} else if !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return FromEnv()
}

// FromEnv resolves settings from the process environment only.
func FromEnv() (Config, error) {
	transport, err := chat.ParseTransport(os.Getenv("AURALENS_TRANSPORT"))
	if err != nil {
		return Config{}, err
	}

	port, err := intEnv("PORT", DefaultPort)
	if err != nil {
		return Config{}, err
	}
	maxSessions, err := intEnv("AURALENS_MAX_SESSIONS", session.DefaultMaxSessions)
	if err != nil {
		return Config{}, err
	}
	ttl, err := durationEnv("AURALENS_SESSION_TTL", session.DefaultTTL)
	if err != nil {
		return Config{}, err
	}

	return Config{
		Credential:  auth.LookupCredential(),
		Model:       chat.GetModelName(),
		Transport:   transport,
		BaseURL:     os.Getenv("AURALENS_BASE_URL"),
		Port:        port,
		SessionTTL:  ttl,
		MaxSessions: maxSessions,
	}, nil
}

// ChatConfig converts the settings into a chat.Config.
func (c Config) ChatConfig(obs chat.Observer) chat.Config {
	return chat.Config{APIKey: c.Credential, Model: c.Model, Observer: obs}
}

// BackendOptions converts the settings into chat.BackendOptions.
func (c Config) BackendOptions() chat.BackendOptions {
	return chat.BackendOptions{Transport: c.Transport, BaseURL: c.BaseURL}
}

// Addr returns the listen address for Port.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func intEnv(name string, def int) (int, error) {
	v := os.Getenv(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", name, v)
	}
	return n, nil
}

func durationEnv(name string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(name)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s must be a positive duration, got %q", name, v)
	}
	return d, nil
}
