package store

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/autokat/go/internal/game"
	"github.com/mcdev12/autokat/go/internal/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeState(t *testing.T, raw string) protocol.StateFrame {
	t.Helper()
	frame, err := protocol.DecodeServer([]byte(raw))
	require.NoError(t, err)
	sf, ok := frame.(protocol.StateFrame)
	require.True(t, ok, "expected state frame, got %T", frame)
	return sf
}

func TestStore_InitialValueIsDefaultSnapshot(t *testing.T) {
	s := New(clockwork.NewFakeClock())

	e := s.Current()
	assert.Equal(t, uint64(0), e.Version)
	assert.Equal(t, game.DefaultSnapshot(), e.Snapshot)
}

func TestStore_NoFieldBleedAcrossFrames(t *testing.T) {
	s := New(clockwork.NewFakeClock())

	s.Apply(decodeState(t, `{"type":"state","time":1,"state":{"name":"playing","scores":[1],"max_lives":3,
		"ball":{"position":[1,1],"velocity":[2,2],"radius":5}}}`))
	require.Equal(t, game.PhasePlaying, s.Snapshot().Phase())

	e := s.Apply(decodeState(t, `{"type":"state","time":2,"state":{"name":"game_over","scores":[1,2],
		"team_name":"Night Owls","to_intro_at":22,"top_highscores":[],"my_highscore":{"team_name":"Night Owls","score":2},
		"my_highscore_index":0}}`))

	assert.Equal(t, uint64(2), e.Version)
	assert.Equal(t, game.PhaseGameOver, e.Snapshot.Phase())
	over, ok := e.Snapshot.State.(game.GameOver)
	require.True(t, ok, "expected GameOver payload only, got %T", e.Snapshot.State)
	assert.Equal(t, []int{1, 2}, over.Scores)
	assert.Equal(t, 2.0, e.Snapshot.ServerTime)

	// no arena or ball of the previous frame is reachable from a game over snapshot
	_, isPlaying := e.Snapshot.State.(game.Playing)
	assert.False(t, isPlaying)
}

func TestStore_ExposesFrameN(t *testing.T) {
	s := New(clockwork.NewFakeClock())

	var last protocol.StateFrame
	for i, raw := range []string{
		`{"type":"state","time":1,"state":{"name":"intro","playing_state":{"name":"playing","team_name":"x"},"team_name":"A"}}`,
		`{"type":"state","time":2,"state":{"name":"countdown","start_at":7,"playing_state":{"name":"playing","team_name":"A"}}}`,
		`{"type":"state","time":3,"state":{"name":"playing","team_name":"A","scores":[0],"max_lives":3}}`,
	} {
		last = decodeState(t, raw)
		e := s.Apply(last)
		assert.Equal(t, uint64(i+1), e.Version)
	}
	assert.Equal(t, last.Snapshot, s.Snapshot())
}

func TestStore_CalibrationIsMonotonic(t *testing.T) {
	s := New(clockwork.NewFakeClock())

	s.Apply(decodeState(t, `{"type":"state","state":{"name":"playing"},"calibration":{"top_left":[11,12]}}`))
	s.Apply(decodeState(t, `{"type":"state","state":{"name":"playing"},"calibration":{"top_right":[1001,13]}}`))

	cal := s.Snapshot().Calibration
	tl, ok := cal.Get(game.CornerTopLeft)
	require.True(t, ok)
	assert.Equal(t, game.Point{11, 12}, tl)
	tr, ok := cal.Get(game.CornerTopRight)
	require.True(t, ok)
	assert.Equal(t, game.Point{1001, 13}, tr)

	// a frame without calibration keeps both
	s.Apply(decodeState(t, `{"type":"state","state":{"name":"playing"}}`))
	assert.Equal(t, 2, s.Snapshot().Calibration.Len())
}

func TestStore_ExplicitCalibrationReset(t *testing.T) {
	s := New(clockwork.NewFakeClock())

	s.Apply(decodeState(t, `{"type":"state","state":{"name":"playing"},"calibration":{"top_left":[11,12]}}`))
	s.Apply(decodeState(t, `{"type":"state","state":{"name":"playing"},"calibration":null}`))

	assert.Equal(t, 0, s.Snapshot().Calibration.Len())
}

func TestStore_ClampsScoresToMaxLives(t *testing.T) {
	s := New(clockwork.NewFakeClock())

	e := s.Replace(game.Snapshot{State: game.Countdown{
		Playing: game.Playing{Scores: []int{1, 2, 3, 4, 5}, MaxLives: 2},
	}})

	cd := e.Snapshot.State.(game.Countdown)
	assert.Equal(t, []int{1, 2}, cd.Playing.Scores)
	assert.LessOrEqual(t, len(cd.Playing.Scores), cd.Playing.MaxLives)
}

func TestStore_Reset(t *testing.T) {
	s := New(clockwork.NewFakeClock())
	s.Apply(decodeState(t, `{"type":"state","state":{"name":"game_over","scores":[3]},"calibration":{"top_left":[1,1]}}`))

	e := s.Reset()
	assert.Equal(t, uint64(2), e.Version)
	assert.Equal(t, game.DefaultSnapshot(), e.Snapshot)
}

func TestStore_InstalledAtUsesClock(t *testing.T) {
	fc := clockwork.NewFakeClock()
	s := New(fc)

	fc.Advance(2 * time.Second)
	e := s.Replace(game.DefaultSnapshot())
	assert.Equal(t, fc.Now(), e.InstalledAt)
}

func TestSubscription_DeliversLatest(t *testing.T) {
	s := New(clockwork.NewFakeClock())
	sub := s.Subscribe()
	defer sub.Close()

	s.Replace(game.DefaultSnapshot())
	s.Replace(game.DefaultSnapshot())
	s.Replace(game.DefaultSnapshot())

	select {
	case e := <-sub.C():
		assert.Equal(t, uint64(3), e.Version)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for entry")
	}

	select {
	case e := <-sub.C():
		t.Fatalf("expected coalesced delivery, got extra entry %d", e.Version)
	default:
	}
}

func TestSubscription_CloseStopsDelivery(t *testing.T) {
	s := New(clockwork.NewFakeClock())
	sub := s.Subscribe()
	sub.Close()

	s.Replace(game.DefaultSnapshot())
	_, ok := <-sub.C()
	assert.False(t, ok)

	// closing twice is harmless
	sub.Close()
	s.Close()
	late := s.Subscribe()
	_, ok = <-late.C()
	assert.False(t, ok)
}
