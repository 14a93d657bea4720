package chat

// Outcome is the result of one generation: either a displayable image reference or a
// user-facing error message, never both.
type Outcome struct {
	imageURL string
	message  string
	ok       bool
}

// Success builds a successful outcome carrying a data URL.
func Success(imageURL string) Outcome {
	return Outcome{imageURL: imageURL, ok: true}
}

// Failure builds a failed outcome. An empty message becomes MsgGenericFailure.
func Failure(message string) Outcome {
	if message == "" {
		message = MsgGenericFailure
	}
	return Outcome{message: message}
}

// Succeeded reports whether the outcome carries an image.
func (o Outcome) Succeeded() bool { return o.ok }

// ImageURL returns the generated image as a data URL, or "" on failure.
func (o Outcome) ImageURL() string { return o.imageURL }

// Message returns the user-facing error message, or "" on success.
func (o Outcome) Message() string { return o.message }
