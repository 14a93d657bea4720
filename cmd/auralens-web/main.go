package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fpang/auralens/internal/chat"
	"github.com/fpang/auralens/internal/cli"
	"github.com/fpang/auralens/internal/config"
	"github.com/fpang/auralens/internal/logging"
	"github.com/fpang/auralens/internal/metrics"
	"github.com/fpang/auralens/internal/server"
	"github.com/fpang/auralens/internal/session"
)

// version is overridden by -ldflags "-X main.version=..." at build.
var version = "dev"

// CLI flags
var (
	portFlag     int
	modelFlag    string
	validateFlag bool
	emfFlag      bool
)

var rootCmd = &cobra.Command{
	Use:   "auralens-web",
	Short: "Web UI for ethereal light photo generation",
	Long: `AuraLens Web starts a local web server with a drag-and-drop page: upload a
photo, wait while Gemini relights it, then compare before and after.

Examples:
  auralens-web
  auralens-web --port 9090
  auralens-web --model gemini-3-pro-image-preview`,
	Run: runMain,
}

func init() {
	rootCmd.Flags().IntVar(&portFlag, "port", 0, "Port to listen on (default: $PORT or 8080)")
	rootCmd.Flags().StringVarP(&modelFlag, "model", "m", "", "Gemini model to use (default: $GEMINI_MODEL or "+chat.DefaultImageModel+")")
	rootCmd.Flags().BoolVar(&validateFlag, "validate", true, "Check the API key at startup")
	rootCmd.Flags().BoolVar(&emfFlag, "emf", false, "Also write CloudWatch EMF metric lines to stdout (containers shipping logs to CloudWatch)")
}

// generationObserver always feeds the Prometheus registry; with emf set, every
// observation is also written as an EMF line.
func generationObserver(reg prometheus.Registerer, model string, emf bool) chat.Observer {
	collector := metrics.NewGenerationCollector(reg)
	if !emf {
		return collector
	}
	return chat.Observers{collector, metrics.EMFObserver{Model: model}}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runMain(cmd *cobra.Command, args []string) {
	initStart := time.Now()
	logging.Init()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	if portFlag != 0 {
		cfg.Port = portFlag
	}
	if modelFlag != "" {
		cfg.Model = modelFlag
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	gen := cli.InitGenerator(context.Background(), cfg, validateFlag, generationObserver(reg, cfg.Model, emfFlag))

	srv := server.New(server.Options{
		Generator:         gen,
		Store:             session.NewStore(gen, cfg.MaxSessions, cfg.SessionTTL),
		Metrics:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		Static:            true,
		Model:             gen.Model(),
		Version:           version,
		CredentialPresent: gen.CredentialPresent(),
	})

	httpSrv := &http.Server{
		Handler:      srv.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 180 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ln, err := net.Listen("tcp", cfg.Addr())
	if err != nil {
		log.Fatal().Err(err).Str("addr", cfg.Addr()).Msg("Failed to listen")
	}

	logging.Startup{
		Name:         "auralens-web",
		Version:      version,
		InitDuration: time.Since(initStart),
		Features:     map[string]bool{"credential": gen.CredentialPresent(), "validate": validateFlag, "emf": emfFlag},
		Settings: map[string]string{
			"model":      gen.Model(),
			"transport":  string(cfg.Transport),
			"sessionTTL": cfg.SessionTTL.String(),
			"addr":       cfg.Addr(),
		},
	}.Log()
	fmt.Printf("\n  AuraLens: http://localhost:%d\n\n", cfg.Port)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	if err := serveUntilSignal(httpSrv, ln, sigCh, 10*time.Second); err != nil {
		log.Fatal().Err(err).Msg("Server failed")
	}
	srv.Wait()
}

// serveUntilSignal serves on ln until a value arrives on stop, then drains in-flight
// requests for up to grace. It returns once draining has finished, not when the
// listener closes.
func serveUntilSignal(httpSrv *http.Server, ln net.Listener, stop <-chan os.Signal, grace time.Duration) error {
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		<-stop
		log.Info().Msg("Shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), grace)
		defer cancel()
		if err := httpSrv.Shutdown(ctx); err != nil {
			log.Warn().Err(err).Msg("Shutdown did not complete cleanly")
		}
	}()

	if err := httpSrv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-drained
	return nil
}
