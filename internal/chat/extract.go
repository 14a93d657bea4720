package chat

import (
	"encoding/base64"
	"strings"

	"google.golang.org/genai"

	"github.com/fpang/auralens/internal/filehandler"
)

// outputMediaType is the media type of every generated image. The image models only emit PNG.
const outputMediaType = "image/png"

// partKind discriminates the fields a response part may carry.
type partKind int

const (
	partUnknown partKind = iota
	partText
	partInlineImage
)

func (k partKind) String() string {
	switch k {
	case partText:
		return "text"
	case partInlineImage:
		return "inline_image"
	default:
		return "unknown"
	}
}

func kindOf(p *genai.Part) partKind {
	switch {
	case p == nil:
		return partUnknown
	case p.InlineData != nil && len(p.InlineData.Data) > 0:
		return partInlineImage
	case p.Text != "":
		return partText
	default:
		return partUnknown
	}
}

// extractImage returns the first inline image of the first candidate as a PNG data URL.
// It returns *EmptyResultError when that candidate carries no image.
func extractImage(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil || resp.Candidates[0].Content == nil {
		return "", &EmptyResultError{}
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		switch kindOf(part) {
		case partInlineImage:
			b64 := base64.StdEncoding.EncodeToString(part.InlineData.Data)
			return filehandler.DataURL(outputMediaType, b64), nil
		case partText:
			text.WriteString(part.Text)
		case partUnknown:
		}
	}

	return "", &EmptyResultError{Text: text.String()}
}
