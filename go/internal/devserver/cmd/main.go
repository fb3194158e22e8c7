package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/autokat/go/internal/devserver"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("could not load .env file")
	}

	cfg := devserver.NewConfigFromEnv()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	scenario, err := cfg.Scenario()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load scenario")
	}

	srv := devserver.NewServer(scenario, clockwork.NewRealClock(), devserver.DefaultHubConfig())
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: srv.Handler(),
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		if err := srv.Run(ctx); err != nil {
			log.Error().Err(err).Msg("game loop failed")
		}
	}()

	go func() {
		log.Info().
			Str("addr", server.Addr).
			Str("scenario", cfg.ScenarioPath).
			Dur("tick", scenario.Tick).
			Msg("dev server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	// hijacked websocket connections are closed by the hub, not by Shutdown
	cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}
	<-loopDone

	log.Info().Msg("dev server shutdown complete")
}
