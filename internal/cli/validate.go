package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/fpang/auralens/internal/auth"
)

// ResolvePhotoPath checks that the path exists and is a regular file, then returns
// the absolute path.
func ResolvePhotoPath(p string) (string, error) {
	info, err := os.Stat(p)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("file not found: %s", p)
		}
		return "", fmt.Errorf("failed to access %s: %w", p, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("path is a directory, not a photo: %s", p)
	}

	if abs, err := filepath.Abs(p); err == nil {
		p = abs
	}
	return p, nil
}

var probeAdvice = map[auth.Status]string{
	auth.StatusMissing:     "No API key configured. Set GEMINI_API_KEY or store it in ~/.auralens/credentials.gpg",
	auth.StatusRejected:    "The API key was rejected. Check the key in Google AI Studio and try again",
	auth.StatusUnreachable: "The Gemini API could not be reached. Check your internet connection",
	auth.StatusThrottled:   "API quota exceeded. Try again later or check your usage limits",
}

// ProbeAdvice turns a failed key probe into a line of guidance for the user.
func ProbeAdvice(err error) string {
	if advice, ok := probeAdvice[auth.StatusOf(err)]; ok {
		return advice
	}
	return "API key validation failed"
}

// HandleValidationError logs the probe failure with guidance and exits.
func HandleValidationError(err error) {
	log.Fatal().Err(err).Str("status", auth.StatusOf(err).String()).Msg(ProbeAdvice(err))
}
