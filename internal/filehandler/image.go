package filehandler

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg" // register JPEG decoder for image.DecodeConfig
	_ "image/png"  // register PNG decoder for image.DecodeConfig
	"io"
	"strings"
	"time"

	"github.com/evanoberholster/imagemeta"
	"github.com/rs/zerolog/log"
	_ "golang.org/x/image/webp" // register WebP decoder for image.DecodeConfig
)

// ImageInfo describes one side of the before/after comparison.
type ImageInfo struct {
	MediaType string
	Width     int
	Height    int
	Bytes     int
}

// HasDimensions reports whether the pixel size could be read.
func (i ImageInfo) HasDimensions() bool {
	return i.Width > 0 && i.Height > 0
}

// String renders e.g. "image/png 1024x1024, 1.2 MB".
func (i ImageInfo) String() string {
	size := formatBytes(i.Bytes)
	if !i.HasDimensions() {
		return fmt.Sprintf("%s, %s", i.MediaType, size)
	}
	return fmt.Sprintf("%s %dx%d, %s", i.MediaType, i.Width, i.Height, size)
}

// DescribeImage reads the header of an encoded image. JPEG, PNG and WebP report their
// pixel size; HEIC has no pure Go decoder, so only its media type and length are known.
func DescribeImage(data []byte) ImageInfo {
	info := ImageInfo{MediaType: DetectMIMEType(data), Bytes: len(data)}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		log.Debug().Err(err).Str("mime_type", info.MediaType).Msg("Image dimensions unavailable")
		return info
	}
	info.Width = cfg.Width
	info.Height = cfg.Height
	return info
}

func formatBytes(n int) string {
	switch {
	case n >= 1024*1024:
		return fmt.Sprintf("%.1f MB", float64(n)/(1024*1024))
	case n >= 1024:
		return fmt.Sprintf("%.1f KB", float64(n)/1024)
	default:
		return fmt.Sprintf("%d B", n)
	}
}

// ImageMetadata contains EXIF metadata extracted from the original photo.
// It is shown next to the comparison so the user can confirm which photo was used.
//
// evanoberholster/imagemeta handles HEIC (BMFF container), JPEG, TIFF, and degrades
// gracefully on PNG/WebP, reading only the metadata blocks rather than the full image.
type ImageMetadata struct {
	// GPS coordinates (converted from EXIF Rational format to float64)
	Latitude  float64
	Longitude float64
	HasGPS    bool

	DateTaken time.Time
	HasDate   bool

	CameraMake  string
	CameraModel string
}

// ExtractImageMetadata extracts EXIF metadata from an encoded image.
//
// Date fallback chain: DateTimeOriginal > CreateDate > ModifyDate.
func ExtractImageMetadata(r io.ReadSeeker) (*ImageMetadata, error) {
	exifData, err := imagemeta.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode EXIF metadata: %w", err)
	}

	metadata := &ImageMetadata{}

	gps := exifData.GPS
	if gps.Latitude() != 0 || gps.Longitude() != 0 {
		metadata.Latitude = gps.Latitude()
		metadata.Longitude = gps.Longitude()
		metadata.HasGPS = true
	}

	if !exifData.DateTimeOriginal().IsZero() {
		metadata.DateTaken = exifData.DateTimeOriginal()
		metadata.HasDate = true
	} else if !exifData.CreateDate().IsZero() {
		metadata.DateTaken = exifData.CreateDate()
		metadata.HasDate = true
	} else if !exifData.ModifyDate().IsZero() {
		metadata.DateTaken = exifData.ModifyDate()
		metadata.HasDate = true
	}

	metadata.CameraMake = strings.TrimSpace(exifData.Make)
	metadata.CameraModel = strings.TrimSpace(exifData.Model)

	log.Debug().
		Bool("has_gps", metadata.HasGPS).
		Bool("has_date", metadata.HasDate).
		Msg("Image metadata extraction complete")

	return metadata, nil
}

// Summary formats the metadata as short "label: value" lines for terminal output.
// Missing fields are omitted; an empty slice means nothing useful was found.
func (m *ImageMetadata) Summary() []string {
	var lines []string

	if camera := strings.TrimSpace(m.CameraMake + " " + m.CameraModel); camera != "" {
		lines = append(lines, "Camera: "+camera)
	}
	if m.HasDate {
		lines = append(lines, "Taken: "+m.DateTaken.Format("Monday, January 2, 2006 3:04 PM"))
	}
	if m.HasGPS {
		lines = append(lines, fmt.Sprintf("Location: %.6f, %.6f", m.Latitude, m.Longitude))
	}

	return lines
}
