package phase

import "github.com/mcdev12/autokat/go/internal/game"

// DefaultTableSize is how many highscore rows the game over screen lists.
const DefaultTableSize = 10

// HighscoreRow is one line of the game over table.
type HighscoreRow struct {
	// Rank is one-based; zero for the ellipsis row.
	Rank     int
	Entry    game.Highscore
	Mine     bool
	Ellipsis bool
}

// HighscoreRows lists the top n entries, marking this client's row. When
// this client ranks below the table, an ellipsis and its own row follow.
func HighscoreRows(g game.GameOver, n int) []HighscoreRow {
	if n <= 0 {
		n = DefaultTableSize
	}
	top := g.Highscores
	if len(top) > n {
		top = top[:n]
	}

	rows := make([]HighscoreRow, 0, len(top)+2)
	for i, hs := range top {
		rows = append(rows, HighscoreRow{Rank: i + 1, Entry: hs, Mine: i == g.MyHighscoreIndex})
	}
	if g.MyHighscoreIndex > n {
		rows = append(rows, HighscoreRow{Ellipsis: true})
	}
	if g.MyHighscoreIndex+1 > n {
		rows = append(rows, HighscoreRow{Rank: g.MyHighscoreIndex + 1, Entry: g.MyHighscore, Mine: true})
	}
	return rows
}
