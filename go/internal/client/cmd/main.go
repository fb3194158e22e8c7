package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/joho/godotenv"
	"github.com/mcdev12/autokat/go/internal/client"
	"github.com/mcdev12/autokat/go/internal/game"
	"github.com/mcdev12/autokat/go/internal/relay"
	"github.com/mcdev12/autokat/go/internal/render"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("could not load .env file")
	}

	cfg, err := client.NewConfigFromEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.ClientID == "" {
		cfg.ClientID = uuid.New().String()
	}
	opts := []client.Option{client.WithReloadHook(reexec)}

	var mirror *relay.Relay
	if cfg.NATSURL != "" {
		relayCfg := relay.DefaultConfig()
		relayCfg.URL = cfg.NATSURL
		relayCfg.ClientID = cfg.ClientID
		mirror, err = relay.Connect(relayCfg)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect spectator relay")
		}
		defer mirror.Close()
		opts = append(opts, client.WithRelay(mirror))
	}

	c, err := client.New(cfg, opts...)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create client")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := c.Run(ctx); err != nil {
			log.Error().Err(err).Msg("client stopped")
		}
	}()

	if cfg.Headless {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		sig := <-sigChan
		log.Info().Str("signal", sig.String()).Msg("received shutdown signal")
	} else {
		ebiten.SetWindowSize(game.ScreenWidth, game.ScreenHeight)
		ebiten.SetWindowTitle("autokat")
		if err := ebiten.RunGame(render.New(c)); err != nil {
			log.Error().Err(err).Msg("renderer stopped")
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		log.Warn().Msg("client did not stop in time")
	}
	log.Info().Msg("client shutdown complete")
}

// reexec replaces the process with a fresh copy of itself, the way a page
// reload starts the client over.
func reexec() {
	exe, err := os.Executable()
	if err != nil {
		log.Error().Err(err).Msg("failed to locate executable for reload")
		return
	}
	log.Info().Str("executable", exe).Msg("reloading")
	if err := syscall.Exec(exe, os.Args, os.Environ()); err != nil {
		log.Error().Err(err).Msg("failed to reload")
	}
}
