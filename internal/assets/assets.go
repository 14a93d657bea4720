// Package assets provides embedded static assets for the application.
//
// Prompt templates are stored as text files under prompts/ and embedded at compile time,
// so a prompt change is a reviewed file change rather than an edit buried in Go source.
package assets
