package game

import "sort"

// Highscore is one ranked team result.
type Highscore struct {
	TeamName string `json:"team_name" yaml:"team_name"`
	Score    int    `json:"score" yaml:"score"`
}

// Highscores keeps results sorted descending by score. Ties keep insertion
// order, so a new equal score ranks below the existing ones.
type Highscores struct {
	entries []Highscore
}

// NewHighscores ranks the given entries.
func NewHighscores(entries []Highscore) *Highscores {
	h := &Highscores{entries: append([]Highscore(nil), entries...)}
	sort.SliceStable(h.entries, func(i, j int) bool {
		return h.entries[i].Score > h.entries[j].Score
	})
	return h
}

// Add inserts a result and returns it with its zero-based rank.
func (h *Highscores) Add(teamName string, score int) (Highscore, int) {
	entry := Highscore{TeamName: teamName, Score: score}
	idx := sort.Search(len(h.entries), func(i int) bool {
		return h.entries[i].Score < score
	})
	h.entries = append(h.entries, Highscore{})
	copy(h.entries[idx+1:], h.entries[idx:])
	h.entries[idx] = entry
	return entry, idx
}

// Top returns at most n entries from the top of the ranking.
func (h *Highscores) Top(n int) []Highscore {
	if n > len(h.entries) {
		n = len(h.entries)
	}
	return append([]Highscore(nil), h.entries[:n]...)
}

func (h *Highscores) Len() int { return len(h.entries) }
