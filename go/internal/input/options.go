package input

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/mcdev12/autokat/go/internal/game"
)

// Options are the per-page settings carried in the page URL query.
type Options struct {
	// Debug shows the calibration overlay from the start.
	Debug bool
	// Color is the marker the pointer drives.
	Color game.Color
}

// DefaultOptions drives the red marker with the overlay hidden.
func DefaultOptions() Options {
	return Options{Color: game.ColorRed}
}

// ParseOptions reads ?debug and ?color. An unknown color falls back to red.
func ParseOptions(q url.Values) Options {
	opts := DefaultOptions()
	if q.Has("debug") {
		switch strings.ToLower(q.Get("debug")) {
		case "0", "false", "no", "off":
		default:
			opts.Debug = true
		}
	}
	if c, err := game.ParseColor(strings.ToLower(q.Get("color"))); err == nil {
		opts.Color = c
	}
	return opts
}

// OptionsFromPage parses the query of a page URL.
func OptionsFromPage(page string) (Options, error) {
	u, err := url.Parse(page)
	if err != nil {
		return DefaultOptions(), fmt.Errorf("failed to parse page url: %w", err)
	}
	return ParseOptions(u.Query()), nil
}
