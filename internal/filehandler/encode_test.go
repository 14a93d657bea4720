package filehandler

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"io"
	"strings"
	"testing"

	"pgregory.net/rapid"
)

func TestEncodeRoundTrip(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		data := rapid.SliceOfN(rapid.Byte(), 0, 4096).Draw(rt, "data")

		p, err := Encode(context.Background(), NewUploadCandidate("photo", data, "image/png"))
		if err != nil {
			rt.Fatalf("Encode: %v", err)
		}
		if strings.HasPrefix(p.Data(), "data:") {
			rt.Fatalf("payload carries a data URL prefix: %q", p.Data())
		}

		decoded, err := base64.StdEncoding.DecodeString(p.Data())
		if err != nil {
			rt.Fatalf("payload is not valid base64: %v", err)
		}
		if !bytes.Equal(decoded, data) {
			rt.Fatalf("round trip mismatch: got %d bytes, want %d", len(decoded), len(data))
		}
	})
}

func TestEncodeKeepsMediaType(t *testing.T) {
	p, err := Encode(context.Background(), NewUploadCandidate("a.webp", []byte("ABC"), "image/webp"))
	if err != nil {
		t.Fatal(err)
	}
	if p.MediaType() != "image/webp" {
		t.Errorf("MediaType() = %q", p.MediaType())
	}
	if p.Data() != "QUJD" {
		t.Errorf("Data() = %q, want QUJD", p.Data())
	}
	if p.DataURL() != "data:image/webp;base64,QUJD" {
		t.Errorf("DataURL() = %q", p.DataURL())
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("disk on fire") }

func TestEncodeReadFailure(t *testing.T) {
	tests := []struct {
		name string
		c    UploadCandidate
	}{
		{
			name: "open fails",
			c: NewReaderCandidate("broken.jpg", "image/jpeg", 10, func() (io.ReadCloser, error) {
				return nil, errors.New("permission denied")
			}),
		},
		{
			name: "read fails",
			c: NewReaderCandidate("corrupt.jpg", "image/jpeg", 10, func() (io.ReadCloser, error) {
				return io.NopCloser(failingReader{}), nil
			}),
		},
		{
			name: "no content",
			c:    UploadCandidate{Name: "empty", MediaType: "image/jpeg"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Encode(context.Background(), tt.c)
			var ioErr *IOError
			if !errors.As(err, &ioErr) {
				t.Fatalf("expected *IOError, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.c.Name) {
				t.Errorf("error %q should name the file", err)
			}
		})
	}
}

func TestEncodeCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Encode(ctx, NewUploadCandidate("x", []byte("x"), "image/png"))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestNewEncodedPayload(t *testing.T) {
	p, err := NewEncodedPayload("data:image/jpeg;base64,QUJD", "image/jpeg")
	if err != nil {
		t.Fatalf("NewEncodedPayload: %v", err)
	}
	if p.Data() != "QUJD" {
		t.Errorf("Data() = %q, want QUJD", p.Data())
	}
	b, err := p.Bytes()
	if err != nil || string(b) != "ABC" {
		t.Errorf("Bytes() = (%q, %v)", b, err)
	}

	if _, err := NewEncodedPayload("not base64!", "image/jpeg"); err == nil {
		t.Error("expected error for invalid base64")
	}
}
