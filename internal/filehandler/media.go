// Package filehandler normalizes a user-selected photo into a transport-ready payload.
//
// The flow is: build an UploadCandidate (bytes, declared media type, length), Validate
// it against the size and type policy, then Encode it into an immutable base64
// EncodedPayload. Nothing here talks to the network.
package filehandler

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// MaxUploadSizeBytes is the largest photo accepted for generation (10 MB).
const MaxUploadSizeBytes int64 = 10 * 1024 * 1024

// SupportedImageMIMETypes lists the media types accepted for generation, in display order.
var SupportedImageMIMETypes = []string{"image/jpeg", "image/png", "image/webp", "image/heic"}

// SupportedImageExtensions maps file extensions to media types for files picked from disk.
// It is wider than SupportedImageMIMETypes on purpose: a .gif is recognised here and then
// rejected by Validate with a message naming the accepted types.
var SupportedImageExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".heic": "image/heic",
	".heif": "image/heif",
}

// IsImage reports whether ext is listed in SupportedImageExtensions. The match ignores case.
func IsImage(ext string) bool {
	_, ok := SupportedImageExtensions[strings.ToLower(ext)]
	return ok
}

// DetectMIMEType sniffs a media type from the first bytes of content. The standard
// library answers first; when it gives up, mimetype takes over, which is what
// recognises HEIC. Parameters such as charset are dropped.
func DetectMIMEType(head []byte) string {
	if len(head) == 0 {
		return "application/octet-stream"
	}
	mt := http.DetectContentType(head)
	if mt == "application/octet-stream" {
		mt = mimetype.Detect(head).String()
	}
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	return mt
}

// dataURLBase64Marker separates the header of a base64 data URL from its body.
const dataURLBase64Marker = ";base64,"

// DataURL builds a directly displayable image reference from a base64 body.
func DataURL(mediaType, b64 string) string {
	return "data:" + mediaType + dataURLBase64Marker + b64
}

// ParseDataURL splits a base64 data URL into its media type and decoded bytes.
func ParseDataURL(url string) (string, []byte, error) {
	if !strings.HasPrefix(url, "data:") {
		return "", nil, fmt.Errorf("not a data URL")
	}
	header, body, ok := strings.Cut(strings.TrimPrefix(url, "data:"), dataURLBase64Marker)
	if !ok {
		return "", nil, fmt.Errorf("data URL is not base64 encoded")
	}
	data, err := base64.StdEncoding.DecodeString(body)
	if err != nil {
		return "", nil, fmt.Errorf("failed to decode data URL body: %w", err)
	}
	return header, data, nil
}

// StripDataURLPrefix returns only the payload body of a data URL. Input without a
// "data:...;base64," header is returned unchanged.
func StripDataURLPrefix(s string) string {
	if !strings.HasPrefix(s, "data:") {
		return s
	}
	if _, body, ok := strings.Cut(s, ","); ok {
		return body
	}
	return s
}
