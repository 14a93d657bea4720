package assets

import (
	_ "embed"
	"strings"
)

//go:embed prompts/ethereal-light.txt
var stylePromptFile string

// StylePromptVersion identifies the revision of the style instruction. Bump it whenever
// prompts/ethereal-light.txt changes so logs and metrics can tell results apart.
const StylePromptVersion = "ethereal-light/v1"

// StylePrompt returns the ethereal lighting instruction sent alongside every photo,
// with surrounding whitespace trimmed.
func StylePrompt() string {
	return strings.TrimSpace(stylePromptFile)
}
