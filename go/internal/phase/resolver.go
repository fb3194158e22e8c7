package phase

import (
	"math"
	"time"

	"github.com/mcdev12/autokat/go/internal/game"
)

// View is the active presentation mode and exactly the payload that mode
// needs. It is recomputed on every read and never cached.
type View struct {
	Phase game.Phase

	// Arena is the scene rendered beneath Intro and Countdown overlays, and
	// the whole scene while Playing. Nil during GameOver.
	Arena *game.Playing

	Countdown *game.Countdown
	Intro     *game.Intro
	GameOver  *game.GameOver

	// ServerNow estimates the server clock at the moment of this read.
	ServerNow float64
	// CountdownDigit is the whole seconds left before play starts.
	CountdownDigit int
	// ToIntroIn is the seconds left before game over returns to intro.
	ToIntroIn float64
}

// Resolve selects the active mode for snap. elapsed is the wall time since
// the snapshot was installed; a stalled renderer passes a small elapsed and
// still gets the value implied by the snapshot itself.
func Resolve(snap game.Snapshot, elapsed time.Duration) View {
	if elapsed < 0 {
		elapsed = 0
	}
	v := View{
		Phase:     snap.Phase(),
		ServerNow: snap.ServerTime + elapsed.Seconds(),
	}

	switch st := snap.State.(type) {
	case game.Playing:
		v.Arena = &st
	case game.Countdown:
		v.Countdown = &st
		v.Arena = &st.Playing
		v.CountdownDigit = int(math.Max(0, math.Ceil(st.StartAt-v.ServerNow)))
	case game.Intro:
		v.Intro = &st
		v.Arena = &st.Playing
	case game.GameOver:
		v.GameOver = &st
		v.ToIntroIn = math.Max(0, st.ToIntroAt-v.ServerNow)
	default:
		p := game.DefaultSnapshot().State.(game.Playing)
		v.Phase = game.PhasePlaying
		v.Arena = &p
	}
	return v
}

// TeamName returns the team name shown in the current mode.
func (v View) TeamName() string {
	switch {
	case v.GameOver != nil:
		return v.GameOver.TeamName
	case v.Intro != nil:
		return v.Intro.TeamName
	case v.Arena != nil:
		return v.Arena.TeamName
	}
	return ""
}

// Hue is the game over background color cycle in degrees for tick seconds.
func Hue(tick float64) float64 {
	return math.Mod(tick*200, 360)
}
