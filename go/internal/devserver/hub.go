package devserver

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/autokat/go/internal/protocol"
	"github.com/rs/zerolog/log"
)

// CommandHandler receives commands decoded from any connection.
type CommandHandler interface {
	Handle(protocol.Command)
}

// Hub tracks display connections and fans every frame out to all of them.
type Hub struct {
	conns map[*Connection]bool
	mu    sync.RWMutex

	upgrader websocket.Upgrader
	config   HubConfig
	commands CommandHandler
	clock    clockwork.Clock

	broadcastCh chan []byte

	broadcasts   atomic.Uint64
	commandsSeen atomic.Uint64
	badCommands  atomic.Uint64
	evicted      atomic.Uint64
}

// Connection is one display client.
type Connection struct {
	ID          string
	Conn        *websocket.Conn
	Send        chan []byte
	Hub         *Hub
	ConnectedAt time.Time
}

// HubConfig holds websocket settings for display connections.
type HubConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	SendBuffer      int
	CheckOrigin     func(r *http.Request) bool
}

// HubStats is served on /ws/stats.
type HubStats struct {
	Connections int    `json:"total_connections"`
	Broadcasts  uint64 `json:"broadcasts"`
	Commands    uint64 `json:"commands"`
	BadCommands uint64 `json:"bad_commands"`
	Evicted     uint64 `json:"evicted"`
}

// DefaultHubConfig returns the settings used by the dev server.
func DefaultHubConfig() HubConfig {
	return HubConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  4096,
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		SendBuffer:      64,
		CheckOrigin: func(r *http.Request) bool {
			// displays are served from anywhere on the local network
			return true
		},
	}
}

// NewHub creates a hub that passes client commands to commands. Pings and
// connection ages follow clock; socket deadlines always use wall time.
func NewHub(config HubConfig, commands CommandHandler, clock clockwork.Clock) *Hub {
	return &Hub{
		conns: make(map[*Connection]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config:      config,
		commands:    commands,
		clock:       clock,
		broadcastCh: make(chan []byte, 256),
	}
}

// Start fans queued frames out until ctx is done, then closes every
// connection.
func (h *Hub) Start(ctx context.Context) {
	log.Info().Msg("hub started")

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			log.Info().Msg("hub shutting down")
			return
		case data := <-h.broadcastCh:
			h.handleBroadcast(data)
		}
	}
}

// Broadcast queues an encoded frame for every connection.
func (h *Hub) Broadcast(data []byte) {
	select {
	case h.broadcastCh <- data:
	default:
		log.Warn().Msg("broadcast channel full, dropping frame")
	}
}

// Upgrade turns an HTTP request into a display connection.
func (h *Hub) Upgrade(w http.ResponseWriter, r *http.Request) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("failed to upgrade connection: %w", err)
	}

	c := &Connection{
		ID:          uuid.New().String(),
		Conn:        conn,
		Send:        make(chan []byte, h.config.SendBuffer),
		Hub:         h,
		ConnectedAt: h.clock.Now(),
	}
	h.register(c)

	go c.writePump()
	go c.readPump()

	log.Info().
		Str("connection_id", c.ID).
		Str("remote_addr", r.RemoteAddr).
		Msg("display connected")
	return nil
}

func (h *Hub) register(c *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[c] = true

	log.Debug().
		Str("connection_id", c.ID).
		Int("total_connections", len(h.conns)).
		Msg("connection registered")
}

func (h *Hub) unregister(c *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.conns[c]; !ok {
		return
	}
	delete(h.conns, c)
	close(c.Send)

	log.Info().
		Str("connection_id", c.ID).
		Dur("connected_for", h.clock.Since(c.ConnectedAt)).
		Msg("connection unregistered")
}

func (h *Hub) handleBroadcast(data []byte) {
	var slow []*Connection

	// Send is only closed under the write lock
	h.mu.RLock()
	for c := range h.conns {
		select {
		case c.Send <- data:
		default:
			slow = append(slow, c)
		}
	}
	n := len(h.conns)
	h.mu.RUnlock()

	for _, c := range slow {
		log.Warn().Str("connection_id", c.ID).Msg("connection send buffer full, closing connection")
		h.evicted.Add(1)
		h.unregister(c)
		c.Conn.Close()
	}

	h.broadcasts.Add(1)
	log.Trace().Int("connections", n).Int("bytes", len(data)).Msg("frame broadcasted")
}

func (h *Hub) closeAll() {
	h.mu.RLock()
	conns := make([]*Connection, 0, len(h.conns))
	for c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	for _, c := range conns {
		h.unregister(c)
	}
}

// Stats returns connection and traffic counters.
func (h *Hub) Stats() HubStats {
	h.mu.RLock()
	n := len(h.conns)
	h.mu.RUnlock()

	return HubStats{
		Connections: n,
		Broadcasts:  h.broadcasts.Load(),
		Commands:    h.commandsSeen.Load(),
		BadCommands: h.badCommands.Load(),
		Evicted:     h.evicted.Load(),
	}
}

func (c *Connection) writePump() {
	ticker := c.Hub.clock.NewTicker(c.Hub.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
		c.Hub.unregister(c)
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Hub.config.WriteTimeout))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error().Err(err).Str("connection_id", c.ID).Msg("failed to write message to websocket")
				return
			}

		case <-ticker.Chan():
			c.Conn.SetWriteDeadline(time.Now().Add(c.Hub.config.WriteTimeout))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Error().Err(err).Str("connection_id", c.ID).Msg("failed to send ping")
				return
			}
		}
	}
}

func (c *Connection) readPump() {
	defer func() {
		c.Hub.unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(c.Hub.config.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.Hub.config.ReadTimeout))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.Hub.config.ReadTimeout))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().Err(err).Str("connection_id", c.ID).Msg("unexpected websocket close error")
			}
			return
		}
		c.Conn.SetReadDeadline(time.Now().Add(c.Hub.config.ReadTimeout))
		c.handleClientMessage(message)
	}
}

func (c *Connection) handleClientMessage(message []byte) {
	cmd, err := protocol.DecodeCommand(message)
	if err != nil {
		c.Hub.badCommands.Add(1)
		log.Warn().Err(err).Str("connection_id", c.ID).Msg("failed to decode client command")
		return
	}
	c.Hub.commandsSeen.Add(1)
	log.Trace().Str("connection_id", c.ID).Str("type", string(cmd.CommandType())).Msg("received client command")
	if c.Hub.commands != nil {
		c.Hub.commands.Handle(cmd)
	}
}
