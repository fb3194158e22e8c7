package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/autokat/go/internal/channel"
	"github.com/mcdev12/autokat/go/internal/game"
	"github.com/mcdev12/autokat/go/internal/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeState(t *testing.T, raw string) protocol.StateFrame {
	t.Helper()
	f, err := protocol.DecodeServer([]byte(raw))
	require.NoError(t, err)
	return f.(protocol.StateFrame)
}

func testClient(t *testing.T, fc clockwork.Clock, opts ...Option) *Client {
	t.Helper()
	cfg := DefaultConfig()
	cfg.PageURL = "http://arena.test:8000/?debug=1&color=green"
	cfg.ClientID = "test-client"
	c, err := New(cfg, append([]Option{WithClock(fc)}, opts...)...)
	require.NoError(t, err)
	return c
}

func TestClient_StateFrameIsApplied(t *testing.T) {
	fc := clockwork.NewFakeClock()
	c := testClient(t, fc)

	c.HandleFrame(decodeState(t, `{"type":"state","time":10,"state":{"name":"countdown","start_at":13,
		"playing_state":{"name":"playing","team_name":"Swift Herons","scores":[],"max_lives":3}},
		"debug":{"red_position":[1,2],"green_position":[30,40]}}`))

	fc.Advance(500 * time.Millisecond)
	f := c.Frame()
	assert.Equal(t, uint64(1), f.Entry.Version)
	assert.Equal(t, game.PhaseCountdown, f.View.Phase)
	assert.Equal(t, 3, f.View.CountdownDigit)
	assert.Equal(t, "Swift Herons", f.View.Arena.TeamName)
	assert.Equal(t, game.Point{30, 40}, f.Marker)
	assert.Equal(t, game.ColorGreen, f.Color)
	assert.True(t, f.Overlay)
	assert.Equal(t, channel.Closed, f.Connection)
}

func TestClient_ReloadDiscardsState(t *testing.T) {
	fc := clockwork.NewFakeClock()
	hooked := 0
	c := testClient(t, fc, WithReloadHook(func() { hooked++ }))

	c.HandleFrame(decodeState(t, `{"type":"state","time":99,"state":{"name":"game_over","scores":[5],
		"team_name":"Swift Herons"},"calibration":{"top_left":[3,4]}}`))
	c.Input().KeyDown('c')
	c.Input().KeyDown('m')
	fc.Advance(3 * time.Second)
	require.Equal(t, game.PhaseGameOver, c.Frame().View.Phase)
	require.InDelta(t, 3.0, c.Frame().Tick.Seconds(), 1e-9)

	c.HandleFrame(protocol.ReloadFrame{})

	f := c.Frame()
	assert.Equal(t, game.DefaultSnapshot(), f.Entry.Snapshot)
	assert.Equal(t, uint64(2), f.Entry.Version)
	assert.Equal(t, 0, f.Entry.Snapshot.Calibration.Len())
	assert.Equal(t, game.PhasePlaying, f.View.Phase)
	assert.Equal(t, 0.0, f.Tick.Seconds())
	assert.True(t, f.Overlay)
	assert.Equal(t, game.ColorGreen, f.Color)
	assert.Equal(t, 1, hooked)
	assert.Equal(t, uint64(1), c.Reloads())
}

func TestClient_PointerWhileClosedIsDropped(t *testing.T) {
	c := testClient(t, clockwork.NewFakeClock())

	assert.NotPanics(t, func() { c.Input().PointerMoved(100, 200) })
	assert.Equal(t, uint64(1), c.Channel().Stats().DroppedSends)
}

func TestNew_RejectsBadPageURL(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PageURL = "file:///tmp/index.html"
	_, err := New(cfg)
	assert.ErrorIs(t, err, channel.ErrUnsupportedScheme)
}

func TestClient_RunAgainstServer(t *testing.T) {
	upgrader := websocket.Upgrader{}
	commands := make(chan []byte, 4)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ws" {
			http.NotFound(w, r)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		frame := `{"type":"state","time":1,"state":{"name":"playing","team_name":"Calm Moles","scores":[2],"max_lives":3},
			"calibration":{"bottom_right":[900,700]}}`
		if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
			return
		}
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			commands <- msg
		}
	}))
	defer srv.Close()

	cfg := DefaultConfig()
	cfg.PageURL = srv.URL + "/?color=red"
	c, err := New(cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	require.Eventually(t, func() bool {
		return c.Frame().View.TeamName() == "Calm Moles"
	}, 2*time.Second, 5*time.Millisecond)
	require.Equal(t, channel.Open, c.Channel().State())
	assert.Equal(t, 1, c.Store().Snapshot().Calibration.Len())

	c.Input().KeyDown('s')
	select {
	case msg := <-commands:
		assert.JSONEq(t, `{"type":"calibration","corner":"bottom_right"}`, string(msg))
	case <-time.After(2 * time.Second):
		t.Fatal("server never received the calibration command")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("client did not stop")
	}
}

func TestLoadConfig_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.yaml")
	yml := strings.Join([]string{
		"page_url: http://arena.local:8000/?debug=1",
		"reconnect_delay: 750ms",
		"headless: true",
		"client_id: kiosk-1",
	}, "\n")
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o600))

	t.Setenv("AUTOKAT_RECONNECT_DELAY", "250ms")
	t.Setenv("AUTOKAT_NATS_URL", "nats://nats.local:4222")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "http://arena.local:8000/?debug=1", cfg.PageURL)
	assert.Equal(t, 250*time.Millisecond, cfg.ReconnectDelay)
	assert.True(t, cfg.Headless)
	assert.Equal(t, "kiosk-1", cfg.ClientID)
	assert.Equal(t, "nats://nats.local:4222", cfg.NATSURL)

	endpoint, err := cfg.Endpoint()
	require.NoError(t, err)
	assert.Equal(t, "ws://arena.local:8000/ws", endpoint)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
