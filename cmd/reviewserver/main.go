package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/esheagren/pluck-sub000/config"
	"github.com/esheagren/pluck-sub000/internal/reviewserver"
	"github.com/esheagren/pluck-sub000/internal/srs"
	"github.com/esheagren/pluck-sub000/internal/stores"
)

const (
	GracefulShutdownTimeout = 10 * time.Second
)

func main() {
	cfg := &config.Config{}
	if err := cfg.Load(os.Args[1:]); err != nil {
		log.Fatal().Err(err).Msg("could not load config")
	}

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	}
	log.Info().Interface("config", cfg).Msg("started-with-config")

	opts, err := cfg.SchedulerOptions()
	if err != nil {
		log.Fatal().Err(err).Msg("bad scheduler options")
	}
	sched, err := srs.NewScheduler(opts)
	if err != nil {
		log.Fatal().Err(err).Msg("bad scheduler options")
	}

	var store stores.CardStore
	if cfg.DBURI != "" {
		if err := stores.MigrateUp(cfg.MigrationsPath, cfg.DBURI); err != nil {
			log.Fatal().Err(err).Msg("could not run migrations")
		}
		pg, err := stores.OpenPostgres(context.Background(), cfg.DBURI)
		if err != nil {
			log.Fatal().Err(err).Msg("could not open postgres store")
		}
		defer pg.Close()
		store = pg
	} else {
		sq, err := stores.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			log.Fatal().Err(err).Msg("could not open sqlite store")
		}
		defer sq.Close()
		store = sq
	}

	server := reviewserver.NewServer(store, sched, cfg.SessionConfig())

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: server.Handler(),
	}
	idleConnsClosed := make(chan struct{})

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		// We received an interrupt signal, shut down.
		log.Info().Msg("got quit signal...")
		ctx, cancel := context.WithTimeout(context.Background(), GracefulShutdownTimeout)

		if err := srv.Shutdown(ctx); err != nil {
			// Error from closing listeners, or context timeout:
			log.Error().Msgf("HTTP server Shutdown: %v", err)
		}
		cancel()
		close(idleConnsClosed)
	}()

	log.Info().Str("addr", cfg.Addr).Msg("listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("")
	}
	<-idleConnsClosed
	log.Info().Msg("server gracefully shutting down")
}
