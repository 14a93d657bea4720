package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/fpang/auralens/internal/filehandler"
)

// uploadField is the multipart field carrying the photo.
const uploadField = "file"

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Warn().Err(err).Msg("Failed to write JSON response")
	}
}

func httpError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// readUpload extracts the photo from a multipart request. Oversize bodies come back as
// a size *filehandler.ValidationError so callers report them like any other rejection.
func readUpload(w http.ResponseWriter, r *http.Request) (filehandler.UploadCandidate, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			return filehandler.UploadCandidate{}, filehandler.NewSizeError(filehandler.MaxUploadSizeBytes)
		}
		return filehandler.UploadCandidate{}, errMissingFile
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return filehandler.UploadCandidate{}, &filehandler.IOError{Name: header.Filename, Err: err}
	}

	mediaType := strings.TrimSpace(header.Header.Get("Content-Type"))
	if mediaType == "" || mediaType == "application/octet-stream" {
		head := data
		if len(head) > 3072 {
			head = head[:3072]
		}
		mediaType = filehandler.DetectMIMEType(head)
	}

	log.Debug().
		Str("file", header.Filename).
		Str("media_type", mediaType).
		Int("size_bytes", len(data)).
		Msg("Upload received")

	return filehandler.NewUploadCandidate(header.Filename, data, mediaType), nil
}

var errMissingFile = errors.New(`multipart field "file" is required`)
