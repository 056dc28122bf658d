// Package main is the entry point for the edge sync service: the
// small multi-tenant HTTP service that stores each user's encrypted
// configuration blob and mediates conflict-free replacement between
// their devices. It never sees plaintext; every blob it stores is an
// opaque, client-encrypted envelope.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/laurenceputra/goal-portfolio-viewer-sub002/internal/config"
	"github.com/laurenceputra/goal-portfolio-viewer-sub002/internal/database"
	"github.com/laurenceputra/goal-portfolio-viewer-sub002/internal/modules/syncservice"
	"github.com/laurenceputra/goal-portfolio-viewer-sub002/pkg/logger"
)

func main() {
	cfg, err := config.LoadService()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("failed to load sync service configuration")
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.DevMode})
	log.Info().Msg("starting sync service")
	if cfg.DevMode {
		log.Warn().Msg("running in dev mode, do not expose this instance to the internet")
	}

	db, err := database.New(database.Config{
		Path:    fmt.Sprintf("%s/sync.db", cfg.DataDir),
		Profile: database.ProfileDurable,
		Name:    "sync-service",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open sync service database")
	}
	defer db.Close()

	store, err := syncservice.NewStore(db, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize sync service store")
	}

	srv := syncservice.New(syncservice.Config{
		Log:         log,
		Store:       store,
		SigningKey:  []byte(cfg.JWTSecret),
		Port:        cfg.Port,
		CORSOrigins: strings.Join(cfg.CORSOrigins, ","),
		DevMode:     cfg.DevMode,
		AccessTTL:   time.Duration(cfg.AccessTTLMin) * time.Minute,
		RefreshTTL:  time.Duration(cfg.RefreshTTLDays) * 24 * time.Hour,
	})

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("sync service failed")
		}
	}()
	log.Info().Int("port", cfg.Port).Msg("sync service started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down sync service")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("sync service forced to shutdown")
	}
}
