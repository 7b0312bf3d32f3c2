package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	genai "google.golang.org/genai"
)

// Config selects the Gemini model and credentials.
type Config struct {
	APIKey   string
	Model    string
	Endpoint string
}

// GeminiClient is a thin wrapper around the official genai client.
type GeminiClient struct {
	cli   *genai.Client
	model string
}

func NewGeminiClient(ctx context.Context, cfg Config) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini: api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.5-pro"
	}
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: cfg.Endpoint},
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: new client: %w", err)
	}
	return &GeminiClient{cli: cli, model: cfg.Model}, nil
}

func (g *GeminiClient) Name() string { return "Gemini:" + g.model }
func (g *GeminiClient) Close() error { return nil }

// Generate sends images first, then the prompt text, as one user turn.
func (g *GeminiClient) Generate(ctx context.Context, req Request) (string, error) {
	parts := make([]*genai.Part, 0, len(req.Images)+1)
	for _, img := range req.Images {
		parts = append(parts, genai.NewPartFromBytes(img.Data, img.MIMEType))
	}
	parts = append(parts, genai.NewPartFromText(req.Prompt))

	conf := &genai.GenerateContentConfig{Temperature: req.Temperature}
	if req.System != "" {
		conf.SystemInstruction = genai.NewContentFromParts([]*genai.Part{genai.NewPartFromText(req.System)}, genai.RoleUser)
	}
	if req.JSON {
		conf.ResponseMIMEType = "application/json"
	}

	resp, err := g.cli.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}, conf)
	if err != nil {
		return "", classifyGeminiError(err)
	}
	return resp.Text(), nil
}

// Client errors other than throttling will fail the same way on retry.
func classifyGeminiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
			return NewPermanentError(err)
		}
	}
	return err
}
