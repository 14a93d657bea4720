package chat

import (
	"os"
	"slices"
	"strings"
)

// Image-capable Gemini models. Only models that can return inline image parts are
// useful here; a text model answers the style prompt with prose and every run ends in
// an EmptyResultError.
const (
	ModelGemini25FlashImage = "gemini-2.5-flash-image"
	ModelGemini3ProImage    = "gemini-3-pro-image-preview"
)

// DefaultImageModel is used when GEMINI_MODEL is unset.
const DefaultImageModel = ModelGemini25FlashImage

// KnownImageModels lists the models the transformation has been tuned against.
var KnownImageModels = []string{ModelGemini25FlashImage, ModelGemini3ProImage}

// GetModelName returns GEMINI_MODEL, or DefaultImageModel when it is blank.
func GetModelName() string {
	if env := strings.TrimSpace(os.Getenv("GEMINI_MODEL")); env != "" {
		return env
	}
	return DefaultImageModel
}

// IsImageModel reports whether model is one of KnownImageModels or, for newer
// releases, carries "-image" in its ID.
func IsImageModel(model string) bool {
	return slices.Contains(KnownImageModels, model) || strings.Contains(model, "-image")
}
