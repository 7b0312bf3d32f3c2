// Package llm wraps the generative-text backend behind a small client
// interface, a middleware chain and a typed adapter.
package llm

import (
	"context"
)

// Image is an inline binary part sent alongside the prompt.
type Image struct {
	MIMEType string
	Data     []byte
}

// Request is one generation call.
type Request struct {
	System      string
	Prompt      string
	Images      []Image
	JSON        bool
	Temperature *float32
}

// LLMClient is the raw backend. Generate returns the model's text output.
type LLMClient interface {
	Name() string
	Generate(ctx context.Context, req Request) (string, error)
	Close() error
}

// Temperature is a convenience for Request.Temperature.
func Temperature(t float32) *float32 { return &t }
