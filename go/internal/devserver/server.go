package devserver

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/autokat/go/internal/channel"
	"github.com/mcdev12/autokat/go/internal/protocol"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

// Server drives the engine on a fixed tick and serves displays.
type Server struct {
	engine   *Engine
	hub      *Hub
	clock    clockwork.Clock
	scenario Scenario
}

// NewServer wires an engine and a hub together.
func NewServer(sc Scenario, clock clockwork.Clock, hubCfg HubConfig) *Server {
	engine := NewEngine(sc, WithEngineClock(clock))
	return &Server{
		engine:   engine,
		hub:      NewHub(hubCfg, engine, clock),
		clock:    clock,
		scenario: sc,
	}
}

func (s *Server) Engine() *Engine { return s.engine }
func (s *Server) Hub() *Hub       { return s.hub }

// Run broadcasts one state frame per tick until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	go s.hub.Start(ctx)

	ticker := s.clock.NewTicker(s.scenario.Tick)
	defer ticker.Stop()

	log.Info().Dur("tick", s.scenario.Tick).Msg("game loop started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("game loop stopped")
			return nil
		case <-ticker.Chan():
			s.tick()
		}
	}
}

func (s *Server) tick() {
	data, err := protocol.EncodeStateFrame(s.engine.Step())
	if err != nil {
		log.Error().Err(err).Msg("failed to encode state frame")
		return
	}
	s.hub.Broadcast(data)
}

// Handler returns the routes behind CORS and h2c.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(channel.EndpointPath, s.handleConnection)
	mux.HandleFunc("/ws/stats", s.handleStats)
	mux.HandleFunc("/reload", s.handleReload)
	mux.HandleFunc("/calibration/reset", s.handleCalibrationReset)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	c := cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
		},
		AllowedOrigins: []string{"*"},
		AllowedHeaders: []string{"*"},
	})
	return h2c.NewHandler(c.Handler(mux), &http2.Server{})
}

func (s *Server) handleConnection(w http.ResponseWriter, r *http.Request) {
	// the upgrader has already answered the request on failure
	if err := s.hub.Upgrade(w, r); err != nil {
		log.Error().Err(err).Str("remote_addr", r.RemoteAddr).Msg("failed to upgrade websocket connection")
	}
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(struct {
		HubStats
		Phase string `json:"phase"`
	}{s.hub.Stats(), string(s.engine.Phase())}); err != nil {
		log.Error().Err(err).Msg("failed to write stats")
	}
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.hub.Broadcast(protocol.EncodeReload())
	log.Info().Int("connections", s.hub.Stats().Connections).Msg("reload broadcast")
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleCalibrationReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.engine.ResetCalibration()
	log.Info().Msg("calibration reset")
	w.WriteHeader(http.StatusAccepted)
}
