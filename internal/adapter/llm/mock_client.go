package llm

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// MockClient answers without a network. Requests whose system prompt asks
// for a classification get a keyword-based intent; everything else gets a
// canned answer echoing the question.
type MockClient struct{}

// NewMockClient creates a new mock LLM client.
func NewMockClient() *MockClient {
	return &MockClient{}
}

// CreateChatCompletion returns a mock response.
func (m *MockClient) CreateChatCompletion(ctx context.Context, req *ChatCompletionRequest) (*ChatCompletionResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	content := m.generateMockResponse(req)
	return &ChatCompletionResponse{
		ID:    fmt.Sprintf("mock-chatcmpl-%d", time.Now().UnixNano()),
		Model: req.Model,
		Choices: []Choice{{
			Message:      &ChatMessage{Role: "assistant", Content: content},
			FinishReason: "stop",
		}},
		Usage: &Usage{CompletionTokens: len(content) / 4},
	}, nil
}

func (m *MockClient) generateMockResponse(req *ChatCompletionRequest) string {
	var system, lastUser string
	for _, msg := range req.Messages {
		switch msg.Role {
		case "system":
			system = msg.Content
		case "user":
			lastUser = msg.Content
		}
	}

	if strings.Contains(strings.ToLower(system), "classify") {
		return string(KeywordIntent(lastUser))
	}
	if lastUser == "" {
		return "[MOCK] This is a mock response from the LLM client."
	}
	return fmt.Sprintf("[MOCK] Received your message: %q. This is a mock response.", truncate(lastUser, 100))
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
