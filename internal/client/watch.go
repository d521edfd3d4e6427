package client

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/xiaot623/scholar/internal/frame"
)

// WatchURL returns the WebSocket URL for watchers of conversationID.
func (c *Client) WatchURL(conversationID string) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("parse server url: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws"
	u.RawQuery = url.Values{"conversation_id": {conversationID}}.Encode()
	return u.String(), nil
}

// Watch calls fn for every frame broadcast to conversationID until ctx is
// done or the server closes the socket. Payloads that fail to decode are
// skipped.
func (c *Client) Watch(ctx context.Context, conversationID string, fn func(frame.Frame)) error {
	addr, err := c.WatchURL(conversationID)
	if err != nil {
		return err
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, addr, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("read: %w", err)
		}
		f, err := frame.Decode(string(data))
		if err != nil {
			if errors.Is(err, frame.ErrMalformedFrame) {
				c.logger.Debug("dropping malformed watch payload", "error", err)
				continue
			}
			return err
		}
		fn(f)
	}
}
