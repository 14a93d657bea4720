package filehandler

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"pgregory.net/rapid"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name           string
		mediaType      string
		size           int64
		wantConstraint Constraint
		wantMessage    string
	}{
		{"jpeg within limit", "image/jpeg", 1024, "", ""},
		{"heic at limit", "image/heic", MaxUploadSizeBytes, "", ""},
		{"empty png", "image/png", 0, "", ""},
		{"gif rejected", "image/gif", 10, ConstraintMediaType, "Unsupported file type. Please upload jpeg, png, webp, heic."},
		{"case sensitive", "IMAGE/JPEG", 10, ConstraintMediaType, "Unsupported file type. Please upload jpeg, png, webp, heic."},
		{"one byte over", "image/webp", MaxUploadSizeBytes + 1, ConstraintSize, "File size exceeds 10MB limit."},
		{"type checked first", "video/mp4", MaxUploadSizeBytes * 2, ConstraintMediaType, "Unsupported file type. Please upload jpeg, png, webp, heic."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := UploadCandidate{MediaType: tt.mediaType, Size: tt.size}
			err := ValidateDefault(c)

			if tt.wantConstraint == "" {
				if err != nil {
					t.Fatalf("expected acceptance, got %v", err)
				}
				return
			}

			var valErr *ValidationError
			if !errors.As(err, &valErr) {
				t.Fatalf("expected *ValidationError, got %v", err)
			}
			if valErr.Constraint != tt.wantConstraint {
				t.Errorf("Constraint = %q, want %q", valErr.Constraint, tt.wantConstraint)
			}
			if valErr.Message != tt.wantMessage {
				t.Errorf("Message = %q, want %q", valErr.Message, tt.wantMessage)
			}
		})
	}
}

func TestValidateLimitNotWholeMegabytes(t *testing.T) {
	err := Validate(UploadCandidate{MediaType: "image/png", Size: 1500}, 1000, []string{"image/png"})
	if err == nil || err.Error() != "File size exceeds 1000 bytes limit." {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidateRejectsUnlistedTypes(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		mt := rapid.StringMatching(`[a-z]{1,8}/[a-z0-9.+-]{1,12}`).Draw(rt, "mediaType")
		if slices.Contains(SupportedImageMIMETypes, mt) {
			rt.Skip("drew an allowed type")
		}
		size := rapid.Int64Range(0, MaxUploadSizeBytes).Draw(rt, "size")

		err := ValidateDefault(UploadCandidate{MediaType: mt, Size: size})
		if err == nil {
			rt.Fatalf("expected rejection for %q", mt)
		}
		for _, allowed := range []string{"jpeg", "png", "webp", "heic"} {
			if !strings.Contains(err.Error(), allowed) {
				rt.Fatalf("message %q does not name %q", err.Error(), allowed)
			}
		}
	})
}

func TestValidateAcceptsAllowedWithinLimit(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		mt := rapid.SampledFrom(SupportedImageMIMETypes).Draw(rt, "mediaType")
		size := rapid.Int64Range(0, MaxUploadSizeBytes).Draw(rt, "size")

		if err := ValidateDefault(UploadCandidate{MediaType: mt, Size: size}); err != nil {
			rt.Fatalf("expected acceptance for %s/%d, got %v", mt, size, err)
		}
	})
}
