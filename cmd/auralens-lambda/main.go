// Package main runs the AuraLens HTTP API on AWS Lambda behind API Gateway (HTTP API).
//
// The API key is read from SSM Parameter Store at cold start unless GEMINI_API_KEY is
// set. Generation metrics go to CloudWatch through EMF lines on stdout.
//
// Endpoints:
//
//	GET    /api/health                health check
//	POST   /api/generate              photo in, relit photo out, in one request
//	POST   /api/sessions              create a session
//	GET    /api/sessions/{id}         poll a session
//	POST   /api/sessions/{id}/upload  start a generation
//	POST   /api/sessions/{id}/retry   retry the last failed photo
//	POST   /api/sessions/{id}/reset   discard the session's state
//	DELETE /api/sessions/{id}         drop a session
package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/awslabs/aws-lambda-go-api-proxy/httpadapter"
	"github.com/rs/zerolog/log"

	"github.com/fpang/auralens/internal/chat"
	"github.com/fpang/auralens/internal/config"
	"github.com/fpang/auralens/internal/lambdaboot"
	"github.com/fpang/auralens/internal/logging"
	"github.com/fpang/auralens/internal/metrics"
	"github.com/fpang/auralens/internal/server"
	"github.com/fpang/auralens/internal/session"
)

// version is overridden by -ldflags "-X main.version=..." at build.
var version = "dev"

// newHandler runs the cold start: the API key from SSM, settings from the environment,
// the generator and the HTTP routes.
func newHandler(ctx context.Context, params lambdaboot.ParameterGetter, initStart time.Time) (http.Handler, error) {
	if err := lambdaboot.LoadGeminiKey(ctx, params); err != nil {
		return nil, err
	}

	cfg, err := config.FromEnv()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	gen, err := chat.NewGeminiGenerator(ctx, cfg.ChatConfig(metrics.EMFObserver{Model: cfg.Model}), cfg.BackendOptions())
	if err != nil {
		return nil, err
	}

	srv := server.New(server.Options{
		Generator:         gen,
		Store:             session.NewStore(gen, cfg.MaxSessions, cfg.SessionTTL),
		Model:             gen.Model(),
		Version:           version,
		CredentialPresent: gen.CredentialPresent(),
	})

	startup := lambdaboot.Startup("auralens-lambda", initStart)
	startup.Version = version
	startup.Features = map[string]bool{"credential": gen.CredentialPresent()}
	startup.Settings = map[string]string{"model": gen.Model(), "transport": string(cfg.Transport)}
	startup.Log()

	return srv.Handler(), nil
}

func main() {
	initStart := time.Now()
	logging.Init()
	ctx := context.Background()

	clients, err := lambdaboot.InitAWS(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("AWS bootstrap failed")
	}
	handler, err := newHandler(ctx, clients.SSM, initStart)
	if err != nil {
		log.Fatal().Err(err).Msg("Cold start failed")
	}

	adapter := httpadapter.NewV2(handler)
	lambda.Start(adapter.ProxyWithContext)
}
