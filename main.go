package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wavesurvival/internal/logging"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := LoadConfig(args)
	if err != nil {
		return err
	}
	log := logging.Setup(cfg.LogLevel)

	db, err := OpenDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database %s: %w", cfg.DBPath, err)
	}
	defer db.Close()

	activity := NewActivity(db, log)
	defer activity.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hub := NewLeaderboardHub(cfg.LeaderboardTTL, activity, log)
	go hub.Run(ctx)

	mux := SetupRoutes(&Server{
		Config: cfg,
		Hub:    hub,
		API:    &API{db: db, auth: NewAuth(db, cfg.JWTSecret, log), activity: activity, log: log},
	})
	server := &http.Server{Addr: cfg.Addr(), Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	errc := make(chan error, 1)
	go func() {
		log.Info("server starting", "addr", cfg.Addr(), "db", cfg.DBPath, "ttl", cfg.LeaderboardTTL)
		if cfg.StaticDir != "" {
			log.Info("serving static files", "dir", cfg.StaticDir)
		}
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
