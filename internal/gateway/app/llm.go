package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"speckit/internal/gateway/config"
	"speckit/internal/llm"
)

const retryBaseDelay = 500 * time.Millisecond

// initLLM returns the backend adapter, or a nil adapter in mock mode.
func initLLM(ctx context.Context, cfg config.LLMConfig) (*llm.Adapter, llm.LLMClient, error) {
	if cfg.Mock() {
		log.Printf("llm: no API key configured, running in mock mode delay=%s", cfg.MockDelay)
		return nil, nil, nil
	}
	gemini, err := llm.NewGeminiClient(ctx, llm.Config{
		APIKey:   cfg.APIKey,
		Model:    cfg.Model,
		Endpoint: cfg.Endpoint,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize llm: %w", err)
	}
	client := llm.Wrap(gemini,
		llm.RateLimit(cfg.RPS, cfg.Burst),
		llm.Retry(cfg.Retries, retryBaseDelay),
		llm.WithLogging(log.Default()),
		llm.WithHooks(),
	)
	log.Printf("llm: using %s", client.Name())
	return llm.NewAdapter(client), client, nil
}
