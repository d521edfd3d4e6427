// Package client talks to the research assistant over HTTP and drives a
// stream.View from the streamed reply.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/xiaot623/scholar/internal/domain"
	"github.com/xiaot623/scholar/internal/frame"
	"github.com/xiaot623/scholar/internal/stream"
)

// maxErrorBody caps how much of a failed response is read for its message.
const maxErrorBody = 4096

// Client is an HTTP client for the assistant.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger handed to stream sessions.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// New creates a client for baseURL. The default http.Client has no
// timeout; callers bound requests through the context.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{},
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Stream sends message and renders the streamed reply on view. The returned
// session is always terminal; its Outcome and Err describe how the exchange
// ended. The error is non-nil only for transport failures.
func (c *Client) Stream(ctx context.Context, conversationID, message string, view stream.View) (*stream.Session, error) {
	session := stream.NewSession(view, c.logger)
	session.Start()

	resp, err := c.post(ctx, "/agent/stream", newRequest(conversationID, message), "text/event-stream")
	if err != nil {
		te := &stream.TransportError{Err: err}
		session.Fail(te)
		return session, te
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		te := &stream.TransportError{StatusCode: resp.StatusCode, Err: errors.New(errorMessage(resp))}
		session.Fail(te)
		return session, te
	}
	return session, session.Consume(ctx, resp.Body)
}

// Ask sends message through the non-streaming endpoint.
func (c *Client) Ask(ctx context.Context, conversationID, message string) (*domain.AgentResponse, error) {
	resp, err := c.post(ctx, "/agent", newRequest(conversationID, message), mimeJSON)
	if err != nil {
		return nil, &stream.TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &stream.TransportError{StatusCode: resp.StatusCode, Err: errors.New(errorMessage(resp))}
	}
	var out domain.AgentResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &out, nil
}

// RenderAnswer shows a non-streaming answer on view with the same rules as a
// streamed response frame, including the blank-answer placeholder.
func RenderAnswer(view stream.View, resp *domain.AgentResponse, logger *slog.Logger) *stream.Dispatcher {
	d := stream.NewDispatcher(view, logger)
	d.Begin()
	d.Apply(frame.Response{Response: resp.Response, Intent: string(resp.Intent), Plan: resp.Plan})
	return d
}

// Messages returns the latest messages of a conversation.
func (c *Client) Messages(ctx context.Context, conversationID string, limit int) ([]domain.Message, error) {
	url := fmt.Sprintf("%s/v1/conversations/%s/messages?limit=%d", c.baseURL, conversationID, limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &stream.TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &stream.TransportError{StatusCode: resp.StatusCode, Err: errors.New(errorMessage(resp))}
	}
	var out struct {
		Messages []domain.Message `json:"messages"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode messages: %w", err)
	}
	return out.Messages, nil
}

const mimeJSON = "application/json"

func newRequest(conversationID, message string) domain.AgentRequest {
	return domain.AgentRequest{
		ConversationHash: conversationID,
		CustomerMessage:  message,
		RequestTimestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

func (c *Client) post(ctx context.Context, path string, body interface{}, accept string) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", accept)
	return c.httpClient.Do(req)
}

// errorMessage extracts {"error": "..."} from a failed response, falling
// back to the status text.
func errorMessage(resp *http.Response) string {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var body domain.ErrorResponse
	if err := json.Unmarshal(data, &body); err == nil && body.Error != "" {
		return body.Error
	}
	if text := strings.TrimSpace(string(data)); text != "" {
		return text
	}
	return http.StatusText(resp.StatusCode)
}
