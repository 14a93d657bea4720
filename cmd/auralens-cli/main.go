package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fpang/auralens/internal/chat"
	"github.com/fpang/auralens/internal/cli"
	"github.com/fpang/auralens/internal/config"
	"github.com/fpang/auralens/internal/filehandler"
	"github.com/fpang/auralens/internal/logging"
	"github.com/fpang/auralens/internal/session"
)

// CLI flags
var (
	outputFlag    string
	modelFlag     string
	transportFlag string
	validateFlag  bool
)

var rootCmd = &cobra.Command{
	Use:   "auralens [photo]",
	Short: "Infuse a photo with ethereal, cinematic light",
	Long: `AuraLens sends a photo to Gemini together with a fixed "ethereal light" style
instruction and saves the transformed image as PNG next to the original.

Without a photo argument a file dialog opens; when no dialog is available the
path is read from the terminal.

Examples:
  auralens portrait.jpg
  auralens beach.heic -o beach-glow.png
  auralens --model gemini-3-pro-image-preview street.webp
  auralens  # Interactive mode - opens a file picker`,
	Args: cobra.MaximumNArgs(1),
	Run:  runMain,
}

func init() {
	rootCmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Where to write the result (default: <photo>.ethereal.png)")
	rootCmd.Flags().StringVarP(&modelFlag, "model", "m", "", "Gemini model to use (default: $GEMINI_MODEL or "+chat.DefaultImageModel+")")
	rootCmd.Flags().StringVar(&transportFlag, "transport", "", "API transport: sdk or rest (default: $AURALENS_TRANSPORT or sdk)")
	rootCmd.Flags().BoolVar(&validateFlag, "validate", false, "Check the API key with a minimal call before sending the photo")
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
	if transportFlag != "" {
		if cfg.Transport, err = chat.ParseTransport(transportFlag); err != nil {
			log.Fatal().Err(err).Msg("Invalid --transport")
		}
	}

	photoPath, err := cli.PickPhoto(args)
	if err != nil {
		if errors.Is(err, cli.ErrNoPhoto) {
			fmt.Println("No photo selected.")
			return
		}
		log.Fatal().Err(err).Msg("Failed to select photo")
	}
	photoPath, err = cli.ResolvePhotoPath(photoPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Cannot use photo")
	}

	candidate, err := filehandler.LoadUploadCandidate(photoPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load photo")
	}
	printMetadata(photoPath)

	ctx := context.Background()
	gen := cli.InitGenerator(ctx, cfg, validateFlag, nil)

	fmt.Printf("Weaving light into %s (%s)...\n", candidate.Name, gen.Model())
	start := time.Now()

	snap, err := session.New("cli", gen).SelectFile(ctx, candidate)
	if err != nil {
		var valErr *filehandler.ValidationError
		if errors.As(err, &valErr) {
			fmt.Fprintln(os.Stderr, valErr.Message)
			os.Exit(1)
		}
		log.Fatal().Err(err).Msg("Failed to start generation")
	}

	if snap.State != session.Succeeded {
		fmt.Fprintf(os.Stderr, "Generation Failed: %s\n", snap.Error)
		if snap.Hint != "" {
			fmt.Fprintln(os.Stderr, snap.Hint)
		}
		os.Exit(1)
	}

	out := outputFlag
	if out == "" {
		out = cli.DefaultOutputPath(photoPath)
	}
	info, err := cli.SaveDataURL(snap.ProcessedURL, out)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to save result")
	}

	fmt.Printf("Saved %s (%s) in %s\n", out, info, cli.FormatDurationShort(time.Since(start)))
}

func printMetadata(path string) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()

	meta, err := filehandler.ExtractImageMetadata(f)
	if err != nil {
		log.Debug().Err(err).Msg("No readable metadata")
		return
	}
	for _, line := range meta.Summary() {
		fmt.Println("  " + line)
	}
}
