package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fpang/auralens/internal/cli"
	"github.com/fpang/auralens/internal/config"
	"github.com/fpang/auralens/internal/logging"
)

// version is overridden by -ldflags "-X main.version=..." at build.
var version = "dev"

var modelFlag string

var rootCmd = &cobra.Command{
	Use:   "auralens-mcp",
	Short: "MCP server exposing the ethereal light transformation as a tool",
	Long: `AuraLens MCP speaks the Model Context Protocol over stdio and offers one tool,
ethereal_light, which relights a photo given by path or base64 content.

Logs go to stderr; stdout carries the protocol.

Examples:
  auralens-mcp
  auralens-mcp --model gemini-3-pro-image-preview`,
	Run: runMain,
}

func init() {
	rootCmd.Flags().StringVarP(&modelFlag, "model", "m", "", "Gemini model to use (default: $GEMINI_MODEL)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runMain(cmd *cobra.Command, args []string) {
	logging.Init()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	if modelFlag != "" {
		cfg.Model = modelFlag
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gen := cli.InitGenerator(ctx, cfg, false, nil)

	server := mcp.NewServer(&mcp.Implementation{Name: "auralens", Version: version}, nil)
	(&tool{gen: gen}).register(server)

	log.Info().Str("model", gen.Model()).Bool("credential", gen.CredentialPresent()).Msg("MCP server listening on stdio")
	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
		log.Fatal().Err(err).Msg("MCP server failed")
	}
}
