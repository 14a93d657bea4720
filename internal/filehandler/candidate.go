package filehandler

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

// sniffLen is how many leading bytes are read to detect a media type.
const sniffLen = 3072

// UploadCandidate is a photo selected by the user, before validation and encoding.
// It is ephemeral: it lives for one request (and its retries) and is then discarded.
type UploadCandidate struct {
	// Name is a display name, usually the original file name.
	Name string
	// MediaType is the declared media type, e.g. "image/jpeg".
	MediaType string
	// Size is the byte length of the content.
	Size int64

	open func() (io.ReadCloser, error)
}

// NewUploadCandidate wraps in-memory bytes. The slice is not copied and must not be
// modified afterwards.
func NewUploadCandidate(name string, data []byte, mediaType string) UploadCandidate {
	return UploadCandidate{
		Name:      name,
		MediaType: mediaType,
		Size:      int64(len(data)),
		open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// NewReaderCandidate wraps content that is read lazily. open is called once per Encode,
// so a retry reads the content again.
func NewReaderCandidate(name, mediaType string, size int64, open func() (io.ReadCloser, error)) UploadCandidate {
	return UploadCandidate{Name: name, MediaType: mediaType, Size: size, open: open}
}

// LoadUploadCandidate builds a candidate for a file on disk. The media type comes from
// the extension when it is known, otherwise from the file's leading bytes.
// The content itself is read only when the candidate is encoded.
func LoadUploadCandidate(filePath string) (UploadCandidate, error) {
	log.Debug().Str("path", filePath).Msg("Loading photo")

	info, err := os.Stat(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return UploadCandidate{}, fmt.Errorf("file not found: %s", filePath)
		}
		return UploadCandidate{}, fmt.Errorf("failed to stat file: %w", err)
	}
	if info.IsDir() {
		return UploadCandidate{}, fmt.Errorf("path is a directory, not a file: %s", filePath)
	}

	var mimeType string
	if ext := strings.ToLower(filepath.Ext(filePath)); IsImage(ext) {
		mimeType = SupportedImageExtensions[ext]
	} else {
		if mimeType, err = sniffFile(filePath); err != nil {
			return UploadCandidate{}, err
		}
		log.Debug().Str("path", filePath).Str("mime_type", mimeType).Msg("Media type sniffed from content")
	}

	log.Info().
		Str("path", filePath).
		Str("mime_type", mimeType).
		Int64("size_bytes", info.Size()).
		Msg("Photo loaded")

	return NewReaderCandidate(filepath.Base(filePath), mimeType, info.Size(), func() (io.ReadCloser, error) {
		return os.Open(filePath)
	}), nil
}

func sniffFile(filePath string) (string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	return DetectMIMEType(head[:n]), nil
}
