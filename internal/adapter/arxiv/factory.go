package arxiv

import (
	"log/slog"
	"time"
)

// ModeMock selects the mock client.
const ModeMock = "MOCK"

// NewArxivClient returns a MockClient when mode is ModeMock and a real Client
// otherwise. Downloads go to storageDir; an empty storageDir disables them.
func NewArxivClient(mode, baseURL string, timeout time.Duration, storageDir string, logger *slog.Logger) ArxivClient {
	library := NewLibrary(storageDir)
	if mode == ModeMock {
		logger.Info("mock mode detected, using mock arXiv client")
		return NewMockClient(library)
	}
	return NewClient(baseURL, timeout, library)
}
