package protocol

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/mcdev12/autokat/go/internal/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const playingJSON = `{
	"name": "playing",
	"red_light": [312, 384],
	"green_light": [712, 384],
	"ball": {"position": [500, 300], "velocity": [100, -50], "radius": 30},
	"red_cone": [[312, 384], [0, 0], [0, 768], [312, 384]],
	"green_cone": [[712, 384], [1024, 0], [1024, 768], [712, 384]],
	"pillar": {"position": [512, 384], "radius": 25, "forbidden_radius": 100},
	"team_name": "Fuzzy Otters",
	"scores": [3, 1],
	"max_lives": 3,
	"demo_mode": false
}`

func stateFrame(state string, extra string) []byte {
	return []byte(`{"type":"state","state":` + state + `,"debug":{"red_position":[1,2],"green_position":[3,4]},"time":12.5` + extra + `}`)
}

func TestDecodeServer_Playing(t *testing.T) {
	frame, err := DecodeServer(stateFrame(playingJSON, `,"calibration":{"top_left":[5,6],"top_right":null}`))
	require.NoError(t, err)

	sf, ok := frame.(StateFrame)
	require.True(t, ok, "expected StateFrame, got %T", frame)
	assert.False(t, sf.ResetCalibration)

	snap := sf.Snapshot
	assert.Equal(t, game.PhasePlaying, snap.Phase())
	assert.Equal(t, 12.5, snap.ServerTime)
	assert.Equal(t, game.Point{1, 2}, snap.Debug.RedPosition)
	assert.Equal(t, game.Point{3, 4}, snap.Debug.GreenPosition)

	p := snap.State.(game.Playing)
	require.NotNil(t, p.Ball)
	assert.Equal(t, 30.0, p.Ball.Radius)
	assert.Equal(t, game.Point{100, -50}, p.Ball.Velocity)
	assert.Equal(t, 100.0, p.Pillar.ForbiddenRadius)
	assert.Len(t, p.RedCone, 4)
	assert.Equal(t, "Fuzzy Otters", p.TeamName)
	assert.Equal(t, []int{3, 1}, p.Scores)

	tl, ok := snap.Calibration.Get(game.CornerTopLeft)
	require.True(t, ok)
	assert.Equal(t, game.Point{5, 6}, tl)
	_, ok = snap.Calibration.Get(game.CornerTopRight)
	assert.False(t, ok)
}

func TestDecodeServer_CountdownNestsPlaying(t *testing.T) {
	frame, err := DecodeServer(stateFrame(`{"name":"countdown","start_at":15,"playing_state":`+playingJSON+`}`, ""))
	require.NoError(t, err)

	cd, ok := frame.(StateFrame).Snapshot.State.(game.Countdown)
	require.True(t, ok)
	assert.Equal(t, 15.0, cd.StartAt)
	assert.Equal(t, 2.5, cd.TimeLeft)
	assert.Equal(t, "Fuzzy Otters", cd.Playing.TeamName)
}

func TestDecodeServer_Intro(t *testing.T) {
	intro := `{"name":"intro","playing_state":` + playingJSON + `,"team_name":"Brave Moles",
		"red_start_box":[[146,237],[146,530],[438,530],[438,237],[146,237]],
		"green_start_box":[[585,237],[585,530],[877,530],[877,237],[585,237]],
		"in_red_start_box":true,"in_green_start_box":false}`
	frame, err := DecodeServer(stateFrame(intro, ""))
	require.NoError(t, err)

	st, ok := frame.(StateFrame).Snapshot.State.(game.Intro)
	require.True(t, ok)
	assert.Equal(t, "Brave Moles", st.TeamName)
	assert.True(t, st.InRedStartBox)
	assert.False(t, st.InGreenStartBox)
	assert.Len(t, st.GreenStartBox, 5)
	assert.Equal(t, game.Point{312, 384}, st.Playing.RedLight)
}

func TestDecodeServer_GameOver(t *testing.T) {
	over := `{"name":"game_over","scores":[4,9,2],"team_name":"Brave Moles","to_intro_at":40,
		"top_highscores":[{"team_name":"a","score":12},{"team_name":"Brave Moles","score":9}],
		"my_highscore":{"team_name":"Brave Moles","score":9},"my_highscore_index":1}`
	frame, err := DecodeServer(stateFrame(over, ""))
	require.NoError(t, err)

	st, ok := frame.(StateFrame).Snapshot.State.(game.GameOver)
	require.True(t, ok)
	assert.Equal(t, 40.0, st.ToIntroAt)
	assert.Equal(t, 1, st.MyHighscoreIndex)
	assert.Equal(t, 9, st.BestScore())
	assert.Len(t, st.Highscores, 2)
}

func TestDecodeServer_NullCalibrationIsReset(t *testing.T) {
	frame, err := DecodeServer(stateFrame(playingJSON, `,"calibration":null`))
	require.NoError(t, err)
	assert.True(t, frame.(StateFrame).ResetCalibration)

	frame, err = DecodeServer(stateFrame(playingJSON, ""))
	require.NoError(t, err)
	assert.False(t, frame.(StateFrame).ResetCalibration)
}

func TestDecodeServer_ReloadAndUnknown(t *testing.T) {
	frame, err := DecodeServer([]byte(`{"type":"reload"}`))
	require.NoError(t, err)
	assert.Equal(t, ReloadFrame{}, frame)

	frame, err = DecodeServer([]byte(`{"type":"confetti","amount":9000}`))
	require.NoError(t, err)
	assert.Equal(t, UnknownFrame{Tag: "confetti"}, frame)
}

func TestDecodeServer_Errors(t *testing.T) {
	_, err := DecodeServer([]byte(`{"type":`))
	assert.True(t, errors.Is(err, ErrMalformed))

	_, err = DecodeServer([]byte(`{"type":"state"}`))
	assert.True(t, errors.Is(err, ErrMalformed))

	_, err = DecodeServer(stateFrame(`{"name":"halftime"}`, ""))
	assert.True(t, errors.Is(err, ErrUnknownPhase))

	_, err = DecodeServer(stateFrame(`{"name":"playing","red_cone":[[0,0],[1,1]]}`, ""))
	assert.True(t, errors.Is(err, game.ErrInvalidPolygon))
}

func TestEncodeState_DecodesBack(t *testing.T) {
	snap := game.Snapshot{
		State: game.Countdown{
			StartAt:  20,
			TimeLeft: 3,
			Playing: game.Playing{
				RedLight: game.Point{1, 1},
				RedCone:  game.Polygon{{0, 0}, {1, 0}, {0, 1}},
				Scores:   []int{0},
				MaxLives: 3,
			},
		},
		Calibration: game.Calibration{}.With(game.CornerBottomRight, game.Point{1000, 700}),
		ServerTime:  17,
	}
	data, err := EncodeState(snap)
	require.NoError(t, err)

	frame, err := DecodeServer(data)
	require.NoError(t, err)
	assert.Equal(t, snap, frame.(StateFrame).Snapshot)
}

func TestEncodeStateFrame_Reset(t *testing.T) {
	snap := game.DefaultSnapshot()
	snap.Calibration = snap.Calibration.With(game.CornerTopLeft, game.Point{1, 2})

	data, err := EncodeStateFrame(StateFrame{Snapshot: snap, ResetCalibration: true})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"calibration":null`)

	frame, err := DecodeServer(data)
	require.NoError(t, err)
	sf := frame.(StateFrame)
	assert.True(t, sf.ResetCalibration)
	assert.Equal(t, 0, sf.Snapshot.Calibration.Len())
}

func TestEncodeCommand(t *testing.T) {
	data, err := EncodeCommand(Pointer{Position: game.Point{10, 20}, Color: game.ColorGreen})
	require.NoError(t, err)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "pointer", got["type"])
	assert.Equal(t, []interface{}{10.0, 20.0}, got["position"])
	assert.Equal(t, "green", got["color"])

	data, err = EncodeCommand(Calibration{Corner: game.CornerTopRight})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"calibration","corner":"top_right"}`, string(data))
}

func TestDecodeCommand(t *testing.T) {
	cmd, err := DecodeCommand([]byte(`{"type":"pointer","position":[4,5],"color":"red"}`))
	require.NoError(t, err)
	assert.Equal(t, Pointer{Position: game.Point{4, 5}, Color: game.ColorRed}, cmd)

	cmd, err = DecodeCommand([]byte(`{"type":"calibration","corner":"bottom_left"}`))
	require.NoError(t, err)
	assert.Equal(t, Calibration{Corner: game.CornerBottomLeft}, cmd)

	_, err = DecodeCommand([]byte(`{"type":"calibration","corner":"center"}`))
	assert.True(t, errors.Is(err, ErrMalformed))

	_, err = DecodeCommand([]byte(`{"type":"jump"}`))
	assert.True(t, errors.Is(err, ErrUnknownCommand))
}
