package channel

import (
	"context"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
)

// Conn is the subset of *websocket.Conn a session uses.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetReadLimit(limit int64)
	SetPongHandler(h func(appData string) error)
	Close() error
}

// Dialer opens connections to the server.
type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

// WebsocketDialer dials with gorilla/websocket.
type WebsocketDialer struct {
	Dialer *websocket.Dialer
}

// NewWebsocketDialer returns a dialer honoring the handshake timeout in cfg.
func NewWebsocketDialer(cfg Config) *WebsocketDialer {
	return &WebsocketDialer{Dialer: &websocket.Dialer{
		Proxy:            websocket.DefaultDialer.Proxy,
		HandshakeTimeout: cfg.HandshakeTimeout,
		ReadBufferSize:   4096,
		WriteBufferSize:  1024,
	}}
}

func (d *WebsocketDialer) Dial(ctx context.Context, url string) (Conn, error) {
	conn, resp, err := d.Dialer.DialContext(ctx, url, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("failed to dial %s (status %d): %w", url, resp.StatusCode, err)
		}
		return nil, fmt.Errorf("failed to dial %s: %w", url, err)
	}
	return conn, nil
}
