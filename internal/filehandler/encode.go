package filehandler

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
)

// IOError reports that the candidate's content could not be read.
type IOError struct {
	Name string
	Err  error
}

func (e *IOError) Error() string {
	if e.Name == "" {
		return "failed to read upload: " + e.Err.Error()
	}
	return fmt.Sprintf("failed to read %s: %v", e.Name, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// EncodedPayload is the base64 body of a photo paired with its media type. It never
// carries a data URL header, and its fields cannot change after creation.
type EncodedPayload struct {
	data      string
	mediaType string
}

// NewEncodedPayload wraps base64 content that was encoded elsewhere. A data URL header,
// if present, is stripped; the remainder must be valid standard base64.
func NewEncodedPayload(b64, mediaType string) (EncodedPayload, error) {
	body := strings.TrimSpace(StripDataURLPrefix(b64))
	if _, err := base64.StdEncoding.DecodeString(body); err != nil {
		return EncodedPayload{}, fmt.Errorf("invalid base64 payload: %w", err)
	}
	return EncodedPayload{data: body, mediaType: mediaType}, nil
}

// Data returns the base64 body.
func (p EncodedPayload) Data() string { return p.data }

// MediaType returns the media type of the original bytes.
func (p EncodedPayload) MediaType() string { return p.mediaType }

// Bytes decodes the body into a fresh slice.
func (p EncodedPayload) Bytes() ([]byte, error) {
	return base64.StdEncoding.DecodeString(p.data)
}

// DataURL renders the payload as a displayable image reference.
func (p EncodedPayload) DataURL() string {
	return DataURL(p.mediaType, p.data)
}

// Encode reads the candidate's content and encodes it as standard base64.
// Any failure to open or read the content is returned as *IOError.
func Encode(ctx context.Context, c UploadCandidate) (EncodedPayload, error) {
	if err := ctx.Err(); err != nil {
		return EncodedPayload{}, &IOError{Name: c.Name, Err: err}
	}
	if c.open == nil {
		return EncodedPayload{}, &IOError{Name: c.Name, Err: errors.New("no content")}
	}

	rc, err := c.open()
	if err != nil {
		return EncodedPayload{}, &IOError{Name: c.Name, Err: err}
	}
	defer rc.Close()

	var sb strings.Builder
	if c.Size > 0 {
		sb.Grow(base64.StdEncoding.EncodedLen(int(c.Size)))
	}
	enc := base64.NewEncoder(base64.StdEncoding, &sb)
	if _, err := io.Copy(enc, rc); err != nil {
		return EncodedPayload{}, &IOError{Name: c.Name, Err: err}
	}
	if err := enc.Close(); err != nil {
		return EncodedPayload{}, &IOError{Name: c.Name, Err: err}
	}

	return EncodedPayload{data: sb.String(), mediaType: c.MediaType}, nil
}
