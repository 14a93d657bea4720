package filehandler

import (
	"fmt"
	"slices"
	"strings"
)

// Constraint names the policy rule a candidate violated.
type Constraint string

const (
	ConstraintMediaType Constraint = "media_type"
	ConstraintSize      Constraint = "size"
)

// ValidationError reports a candidate rejected before any network activity.
type ValidationError struct {
	Constraint Constraint
	Message    string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Validate checks a candidate against the upload policy. It returns nil when the
// candidate is accepted, otherwise a *ValidationError naming the violated constraint.
// The media type is checked first and must match an allowed entry exactly.
func Validate(c UploadCandidate, maxSizeBytes int64, allowed []string) error {
	if !slices.Contains(allowed, c.MediaType) {
		return &ValidationError{
			Constraint: ConstraintMediaType,
			Message:    fmt.Sprintf("Unsupported file type. Please upload %s.", describeTypes(allowed)),
		}
	}

	if c.Size > maxSizeBytes {
		return NewSizeError(maxSizeBytes)
	}

	return nil
}

// NewSizeError is the ValidationError for content larger than maxSizeBytes. Callers that
// stop reading early use it to report oversize content without knowing its full length.
func NewSizeError(maxSizeBytes int64) *ValidationError {
	return &ValidationError{
		Constraint: ConstraintSize,
		Message:    fmt.Sprintf("File size exceeds %s limit.", describeLimit(maxSizeBytes)),
	}
}

// ValidateDefault applies MaxUploadSizeBytes and SupportedImageMIMETypes.
func ValidateDefault(c UploadCandidate) error {
	return Validate(c, MaxUploadSizeBytes, SupportedImageMIMETypes)
}

// describeTypes renders "image/jpeg, image/png" as "jpeg, png".
func describeTypes(types []string) string {
	names := make([]string, 0, len(types))
	for _, t := range types {
		if _, sub, ok := strings.Cut(t, "/"); ok {
			names = append(names, sub)
		} else {
			names = append(names, t)
		}
	}
	return strings.Join(names, ", ")
}

func describeLimit(n int64) string {
	const mb = 1024 * 1024
	if n > 0 && n%mb == 0 {
		return fmt.Sprintf("%dMB", n/mb)
	}
	return fmt.Sprintf("%d bytes", n)
}
