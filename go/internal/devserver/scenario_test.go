package devserver

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mcdev12/autokat/go/internal/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadScenario(t *testing.T) {
	path := writeScenario(t, `
tick: 50ms
round: 30s
max_lives: 5
pillar:
  radius: 40
highscores:
  - team_name: Swift Otters
    score: 42
`)

	sc, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, 50*time.Millisecond, sc.Tick)
	assert.Equal(t, 30*time.Second, sc.Round)
	assert.Equal(t, 5, sc.MaxLives)
	assert.Equal(t, 40.0, sc.Pillar.Radius)
	assert.Equal(t, 100.0, sc.Pillar.ForbiddenRadius)
	assert.Equal(t, DefaultScenario().Countdown, sc.Countdown)
	assert.Equal(t, []game.Highscore{{TeamName: "Swift Otters", Score: 42}}, sc.Highscores)
}

func TestLoadScenario_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "zero tick", body: "tick: 0s"},
		{name: "no lives", body: "max_lives: 0"},
		{name: "no animals", body: "animals: []"},
		{name: "not yaml", body: "tick: [1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadScenario(writeScenario(t, tt.body))
			assert.Error(t, err)
		})
	}

	_, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadScenario_Default(t *testing.T) {
	sc, err := LoadScenario("")
	require.NoError(t, err)
	assert.Equal(t, DefaultScenario(), sc)
	assert.NoError(t, sc.Validate())
}
