package channel

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

// DefaultReconnectDelay is the constant wait between a session ending and
// the next dial. There is no backoff.
const DefaultReconnectDelay = 500 * time.Millisecond

// EndpointPath is where the server accepts websocket upgrades.
const EndpointPath = "/ws"

// ErrUnsupportedScheme is returned for page URLs that are not http(s) or ws(s).
var ErrUnsupportedScheme = errors.New("unsupported page url scheme")

// Config holds channel settings.
type Config struct {
	URL              string
	ReconnectDelay   time.Duration
	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
	// ReadTimeout bounds the silence tolerated from the server. Zero disables it.
	ReadTimeout time.Duration
	// PingInterval zero disables keepalive pings.
	PingInterval   time.Duration
	SendBuffer     int
	MaxMessageSize int64
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		ReconnectDelay:   DefaultReconnectDelay,
		HandshakeTimeout: 5 * time.Second,
		WriteTimeout:     10 * time.Second,
		ReadTimeout:      60 * time.Second,
		PingInterval:     30 * time.Second,
		SendBuffer:       256,
		MaxMessageSize:   1 << 20,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.ReconnectDelay <= 0 {
		c.ReconnectDelay = d.ReconnectDelay
	}
	if c.HandshakeTimeout <= 0 {
		c.HandshakeTimeout = d.HandshakeTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = d.WriteTimeout
	}
	if c.SendBuffer <= 0 {
		c.SendBuffer = d.SendBuffer
	}
	return c
}

// EndpointFromPage derives the websocket endpoint from the URL of the page
// hosting the client: same host, ws for http and wss for https, path /ws.
func EndpointFromPage(page string) (string, error) {
	u, err := url.Parse(page)
	if err != nil {
		return "", fmt.Errorf("failed to parse page url: %w", err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("page url %q has no host", page)
	}

	endpoint := url.URL{Scheme: u.Scheme, Host: u.Host, Path: EndpointPath}
	return endpoint.String(), nil
}
