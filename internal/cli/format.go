package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fpang/auralens/internal/filehandler"
)

// FormatDurationShort formats a duration in a short format (M:SS or H:MM:SS).
func FormatDurationShort(d time.Duration) string {
	totalSeconds := int(d.Seconds())
	hours := totalSeconds / 3600
	minutes := (totalSeconds % 3600) / 60
	seconds := totalSeconds % 60

	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}

// DefaultOutputPath places the result next to the input: photo.jpg -> photo.ethereal.png.
func DefaultOutputPath(input string) string {
	ext := filepath.Ext(input)
	return strings.TrimSuffix(input, ext) + ".ethereal.png"
}

// SaveDataURL decodes an image data URL and writes its bytes to path.
func SaveDataURL(dataURL, path string) (filehandler.ImageInfo, error) {
	_, data, err := filehandler.ParseDataURL(dataURL)
	if err != nil {
		return filehandler.ImageInfo{}, err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return filehandler.ImageInfo{}, fmt.Errorf("failed to write %s: %w", path, err)
	}
	return filehandler.DescribeImage(data), nil
}
