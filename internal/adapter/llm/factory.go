package llm

import (
	"log/slog"
	"time"
)

// ModeMock selects the mock client.
const ModeMock = "MOCK"

// NewLLMClient returns a MockClient when mode is ModeMock and a real Client
// otherwise.
func NewLLMClient(mode, baseURL, apiKey string, timeout time.Duration, logger *slog.Logger) LLMClient {
	if mode == ModeMock {
		logger.Info("mock mode detected, using mock LLM client")
		return NewMockClient()
	}
	return NewClient(baseURL, apiKey, timeout)
}
