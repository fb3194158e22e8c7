package devserver

import (
	"testing"

	"github.com/mcdev12/autokat/go/internal/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPillar() game.Pillar {
	return game.Pillar{Position: screenCenter, Radius: 25, ForbiddenRadius: 100}
}

func TestCone(t *testing.T) {
	light := game.Point{312, 384}
	c := cone(light, testPillar())

	require.Len(t, c, 4)
	assert.Equal(t, light, c[0])
	assert.Equal(t, light, c[3])
	assert.NoError(t, c.Validate())

	assert.True(t, c.Contains(screenCenter))
	assert.True(t, c.Contains(game.Point{900, 400}))
	assert.False(t, c.Contains(game.Point{100, 384}))
}

func TestMoveLight(t *testing.T) {
	pillar := testPillar()

	tests := []struct {
		name    string
		light   game.Point
		target  game.Point
		maxStep float64
		want    game.Point
	}{
		{name: "truncated step", light: game.Point{100, 384}, target: game.Point{400, 384}, maxStep: 50, want: game.Point{150, 384}},
		{name: "reaches target", light: game.Point{100, 100}, target: game.Point{120, 100}, maxStep: 50, want: game.Point{120, 100}},
		{name: "pushed out of forbidden radius", light: game.Point{400, 384}, target: game.Point{500, 384}, maxStep: 1000, want: game.Point{412, 384}},
		{name: "on the pillar", light: game.Point{300, 384}, target: screenCenter, maxStep: 1000, want: game.Point{612, 384}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := moveLight(tt.light, tt.target, tt.maxStep, pillar)
			assert.InDelta(t, tt.want.X(), got.X(), 1e-9)
			assert.InDelta(t, tt.want.Y(), got.Y(), 1e-9)
		})
	}
}

func TestFold(t *testing.T) {
	tests := []struct {
		name  string
		x     float64
		wantX float64
		wantV float64
	}{
		{name: "inside", x: 500, wantX: 500, wantV: 5},
		{name: "past the far wall", x: 1050, wantX: 938, wantV: -5},
		{name: "past the near wall", x: -10, wantX: 70, wantV: -5},
		{name: "two bounces", x: 1050 + 964, wantX: 1050 + 964 - 1928, wantV: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, v := fold(tt.x, 30, 994, 5)
			assert.InDelta(t, tt.wantX, x, 1e-9)
			assert.Equal(t, tt.wantV, v)
		})
	}
}

func TestBallStaysOnScreen(t *testing.T) {
	v := game.Point{420, -310}
	for elapsed := 0.0; elapsed < 60; elapsed += 0.7 {
		b := ballAt(v, 30, elapsed)
		assert.GreaterOrEqual(t, b.Position.X(), 30.0)
		assert.LessOrEqual(t, b.Position.X(), float64(game.ScreenWidth-30))
		assert.GreaterOrEqual(t, b.Position.Y(), 30.0)
		assert.LessOrEqual(t, b.Position.Y(), float64(game.ScreenHeight-30))
	}
}
