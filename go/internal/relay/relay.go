package relay

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/mcdev12/autokat/go/internal/protocol"
	"github.com/mcdev12/autokat/go/internal/store"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// Header names set on every mirrored message.
const (
	HeaderVersion = "Autokat-Version"
	HeaderPhase   = "Autokat-Phase"
)

// Config holds NATS settings for the spectator mirror.
type Config struct {
	URL           string
	ClientID      string
	SubjectPrefix string
	MaxReconnects int
	ReconnectWait time.Duration
}

// DefaultConfig returns the mirror settings used when only a URL is given.
func DefaultConfig() Config {
	return Config{
		URL:           nats.DefaultURL,
		SubjectPrefix: "autokat",
		MaxReconnects: -1,
		ReconnectWait: 2 * time.Second,
	}
}

// Subject returns the subject a client's snapshots are published on.
func (c Config) Subject() string {
	prefix := c.SubjectPrefix
	if prefix == "" {
		prefix = "autokat"
	}
	return fmt.Sprintf("%s.%s.state", prefix, c.ClientID)
}

// Publisher is the part of *nats.Conn the relay needs.
type Publisher interface {
	PublishMsg(m *nats.Msg) error
}

// Relay mirrors every snapshot the store installs to NATS so spectator
// screens can follow a client. Failures are logged and never reach the
// render path.
type Relay struct {
	pub     Publisher
	subject string
	conn    *nats.Conn

	published atomic.Uint64
	failed    atomic.Uint64
}

// Connect dials NATS and returns a relay publishing on cfg.Subject().
func Connect(cfg Config) (*Relay, error) {
	opts := []nats.Option{
		nats.Name("autokat-client-" + cfg.ClientID),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	r := New(nc, cfg.Subject())
	r.conn = nc
	return r, nil
}

// New creates a relay over an existing publisher.
func New(pub Publisher, subject string) *Relay {
	return &Relay{pub: pub, subject: subject}
}

// Run publishes every installed entry until ctx is cancelled or the store
// closes.
func (r *Relay) Run(ctx context.Context, s *store.Store) error {
	sub := s.Subscribe()
	defer sub.Close()

	log.Info().Str("subject", r.subject).Msg("spectator relay started")
	for {
		select {
		case <-ctx.Done():
			return nil
		case e, ok := <-sub.C():
			if !ok {
				return nil
			}
			r.publish(e)
		}
	}
}

func (r *Relay) publish(e store.Entry) {
	data, err := protocol.EncodeState(e.Snapshot)
	if err != nil {
		r.failed.Add(1)
		log.Error().Err(err).Uint64("version", e.Version).Msg("failed to encode snapshot for relay")
		return
	}

	msg := &nats.Msg{
		Subject: r.subject,
		Data:    data,
		Header:  nats.Header{},
	}
	msg.Header.Set(HeaderVersion, strconv.FormatUint(e.Version, 10))
	msg.Header.Set(HeaderPhase, string(e.Snapshot.Phase()))

	if err := r.pub.PublishMsg(msg); err != nil {
		r.failed.Add(1)
		log.Warn().Err(err).Str("subject", r.subject).Msg("failed to publish snapshot")
		return
	}
	r.published.Add(1)
}

// Published returns how many snapshots were handed to NATS.
func (r *Relay) Published() uint64 { return r.published.Load() }

// Failed returns how many snapshots could not be mirrored.
func (r *Relay) Failed() uint64 { return r.failed.Load() }

// Close drains the NATS connection if the relay owns one.
func (r *Relay) Close() {
	if r.conn == nil {
		return
	}
	if err := r.conn.Drain(); err != nil {
		log.Warn().Err(err).Msg("failed to drain NATS connection")
		r.conn.Close()
	}
}
