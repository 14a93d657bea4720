package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ncruces/zenity"
	"github.com/rs/zerolog/log"
)

// ErrNoPhoto is returned when the user dismissed the picker or entered nothing.
var ErrNoPhoto = errors.New("no photo selected")

// photoPatterns mirror filehandler.SupportedImageExtensions.
var photoPatterns = []string{"*.jpg", "*.jpeg", "*.png", "*.webp", "*.heic", "*.heif"}

// PickPhoto returns the photo to process: the first argument if given, otherwise the
// native file dialog, otherwise a path typed on stdin when no dialog is available.
func PickPhoto(args []string) (string, error) {
	if len(args) > 0 && args[0] != "" {
		return args[0], nil
	}

	selected, err := zenity.SelectFile(
		zenity.Title("Select a photo"),
		zenity.FileFilters{
			{Name: "Photos", Patterns: photoPatterns, CaseFold: true},
		},
	)
	switch {
	case err == nil:
		return selected, nil
	case errors.Is(err, zenity.ErrCanceled):
		return "", ErrNoPhoto
	default:
		log.Debug().Err(err).Msg("File dialog unavailable, falling back to prompt")
		return PromptForPath(os.Stdin, os.Stdout)
	}
}

// PromptForPath asks for a photo path on w and reads one line from r.
func PromptForPath(r io.Reader, w io.Writer) (string, error) {
	fmt.Fprint(w, "Photo path: ")

	input, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read input: %w", err)
	}

	input = strings.Trim(strings.TrimSpace(input), `"'`)
	if input == "" {
		return "", ErrNoPhoto
	}
	return input, nil
}
