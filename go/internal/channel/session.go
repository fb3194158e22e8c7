package channel

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/mcdev12/autokat/go/internal/protocol"
	"github.com/rs/zerolog/log"
)

var errDropped = errors.New("session dropped")

// session is one live connection. It ends exactly once, whichever of the
// reader, the writer or the owner notices first.
type session struct {
	id   string
	ch   *Channel
	conn Conn
	send chan []byte

	done chan struct{}
	once sync.Once
	err  error
	wg   sync.WaitGroup
}

func newSession(ch *Channel, conn Conn) *session {
	return &session{
		id:   uuid.New().String(),
		ch:   ch,
		conn: conn,
		send: make(chan []byte, ch.cfg.SendBuffer),
		done: make(chan struct{}),
	}
}

func (s *session) start() {
	s.wg.Add(2)
	go s.writePump()
	go s.readPump()
}

func (s *session) wait() { s.wg.Wait() }

func (s *session) close(err error) {
	s.once.Do(func() {
		s.err = err
		close(s.done)
		s.conn.Close()
	})
}

func (s *session) closed() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

func (s *session) enqueue(data []byte) bool {
	if s.closed() {
		return false
	}
	select {
	case s.send <- data:
		return true
	default:
		log.Debug().Str("session_id", s.id).Msg("send buffer full, dropping message")
		return false
	}
}

func (s *session) extendReadDeadline() {
	if s.ch.cfg.ReadTimeout > 0 {
		s.conn.SetReadDeadline(time.Now().Add(s.ch.cfg.ReadTimeout))
	}
}

// writePump drains the send queue and keeps the connection alive with pings.
func (s *session) writePump() {
	defer s.wg.Done()

	var pings <-chan time.Time
	if s.ch.cfg.PingInterval > 0 {
		ticker := s.ch.clock.NewTicker(s.ch.cfg.PingInterval)
		defer ticker.Stop()
		pings = ticker.Chan()
	}

	for {
		select {
		case <-s.done:
			return

		case message := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(s.ch.cfg.WriteTimeout))
			if err := s.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error().Err(err).Str("session_id", s.id).Msg("failed to write message to websocket")
				s.close(fmt.Errorf("write: %w", err))
				return
			}
			s.ch.counters.sent.Add(1)

		case <-pings:
			s.conn.SetWriteDeadline(time.Now().Add(s.ch.cfg.WriteTimeout))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Error().Err(err).Str("session_id", s.id).Msg("failed to send ping")
				s.close(fmt.Errorf("ping: %w", err))
				return
			}
		}
	}
}

// readPump decodes server frames and hands them to the handler in receipt
// order. Undecodable messages are skipped; the connection stays up.
func (s *session) readPump() {
	defer s.wg.Done()

	if s.ch.cfg.MaxMessageSize > 0 {
		s.conn.SetReadLimit(s.ch.cfg.MaxMessageSize)
	}
	s.extendReadDeadline()
	s.conn.SetPongHandler(func(string) error {
		s.extendReadDeadline()
		return nil
	})

	for {
		_, message, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) && !s.closed() {
				log.Warn().Err(err).Str("session_id", s.id).Msg("unexpected websocket close")
			}
			s.close(fmt.Errorf("read: %w", err))
			return
		}
		s.extendReadDeadline()

		frame, err := protocol.DecodeServer(message)
		if err != nil {
			s.ch.counters.decodeErrors.Add(1)
			log.Warn().
				Err(err).
				Str("session_id", s.id).
				Int("bytes", len(message)).
				Msg("failed to decode server frame, skipping")
			continue
		}
		if u, ok := frame.(protocol.UnknownFrame); ok {
			s.ch.counters.unknown.Add(1)
			log.Debug().Str("session_id", s.id).Str("type", string(u.Tag)).Msg("ignoring unknown frame")
			continue
		}

		// a superseded session delivers nothing more
		if s.closed() {
			return
		}
		s.ch.counters.frames.Add(1)
		s.ch.handler.HandleFrame(frame)
	}
}
