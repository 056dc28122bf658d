// Package main is the entry point for the overlay agent: the local
// process that watches a browser session's portfolio-platform traffic,
// builds a privacy-preserving analytics view over it, and optionally
// keeps targets/tags in sync across devices via the edge sync service.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	"github.com/laurenceputra/goal-portfolio-viewer-sub002/internal/config"
	"github.com/laurenceputra/goal-portfolio-viewer-sub002/internal/database"
	"github.com/laurenceputra/goal-portfolio-viewer-sub002/internal/modules/agent"
	"github.com/laurenceputra/goal-portfolio-viewer-sub002/internal/modules/configstore"
	"github.com/laurenceputra/goal-portfolio-viewer-sub002/internal/modules/interception"
	"github.com/laurenceputra/goal-portfolio-viewer-sub002/internal/modules/performance"
	"github.com/laurenceputra/goal-portfolio-viewer-sub002/internal/modules/syncclient"
	"github.com/laurenceputra/goal-portfolio-viewer-sub002/internal/scheduler"
	"github.com/laurenceputra/goal-portfolio-viewer-sub002/pkg/logger"
)

// platformABaseURL is the BFF host the performance client issues its
// per-goal time-series requests against.
const platformABaseURL = "https://bff.prod.silver.endowus.com"

func main() {
	cfg, err := config.LoadAgent()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("failed to load agent configuration")
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.DevMode})
	log.Info().Msg("starting overlay agent")

	db, err := database.New(database.Config{
		Path:    fmt.Sprintf("%s/agent.db", cfg.DataDir),
		Profile: database.ProfileStandard,
		Name:    "overlay-agent",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open local config database")
	}
	defer db.Close()

	store, err := configstore.New(db, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize config store")
	}

	// Transport is the Go-native analogue of patching fetch/XMLHttpRequest
	// on the host page: every outbound request this process issues
	// through it is inspected for the five known endpoints, and its
	// captured Authorization/client-id/device-id headers are what lets
	// performance.Client make authenticated BFF requests of its own.
	transport := interception.NewTransport(nil, log)
	collector := agent.NewCollector(log)
	stopCapture, err := transport.Start(collector.OnPayload)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to start capture port")
	}
	defer stopCapture()

	httpClient := &http.Client{Transport: transport}
	perfClient := performance.NewClient(httpClient, platformABaseURL, transport.Auth())
	perfCache := performance.NewCache(store)
	perfQueue := performance.NewQueue(rate.Every(time.Duration(cfg.PerformanceDelayMs)*time.Millisecond), 64)
	defer perfQueue.Close()
	refresher := agent.NewRefresher(collector, perfClient, perfCache, perfQueue, log)

	sched := scheduler.New(log)
	if err := sched.AddJob("@every 1m", refresher); err != nil {
		log.Error().Err(err).Msg("failed to register performance refresh job")
	}

	var syncController *syncclient.Controller
	deviceID, err := syncclient.EnsureDeviceID(store)
	if err != nil {
		log.Error().Err(err).Msg("failed to resolve device id, sync disabled for this run")
	} else if passphrase, err := resolvePassphrase(store); err != nil {
		log.Warn().Err(err).Msg("no sync passphrase available, sync disabled for this run")
	} else {
		userID, uerr := resolveSyncUserID(store)
		if uerr != nil {
			log.Error().Err(uerr).Msg("no sync user id configured, sync disabled for this run")
		} else {
			syncHTTPClient := &http.Client{Timeout: 30 * time.Second}
			syncClient := syncclient.NewClient(syncHTTPClient, cfg.SyncServiceURL, store, passphrase)
			syncController = syncclient.NewController(syncClient, userID, deviceID, log)
			syncController.OnError(func(err error) {
				log.Warn().Err(err).Msg("sync operation failed")
			})
			if err := syncController.StartAutoSync(sched, time.Duration(cfg.AutoSyncMinutes)*time.Minute); err != nil {
				log.Error().Err(err).Msg("failed to register auto-sync job")
			}
		}
	}

	sched.Start()
	defer sched.Stop()
	if syncController != nil {
		defer syncController.Stop()
	}

	handler := agent.NewHandler(collector, store, syncController, log)
	srv := agent.New(agent.Config{Log: log, Handler: handler, Port: cfg.Port})

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("overlay agent API failed")
		}
	}()
	log.Info().Int("port", cfg.Port).Msg("overlay agent API started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down overlay agent")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("overlay agent API forced to shutdown")
	}
}

// resolvePassphrase resolves the passphrase used to derive the
// end-to-end encryption key for synced envelopes. A device that
// opted to "remember" it keeps it in the local config store (the same
// trust boundary as every other local setting); otherwise it must be
// supplied via SYNC_PASSPHRASE for this run, and is persisted only if
// SYNC_REMEMBER_PASSPHRASE=true is also set.
func resolvePassphrase(store *configstore.Store) (string, error) {
	remembered, err := store.Get(configstore.KeySyncRememberKey)
	if err != nil {
		return "", err
	}
	if remembered != nil && *remembered == "true" {
		saved, err := store.Get(configstore.KeySyncMasterKey)
		if err != nil {
			return "", err
		}
		if saved != nil && *saved != "" {
			return *saved, nil
		}
	}

	passphrase := os.Getenv("SYNC_PASSPHRASE")
	if passphrase == "" {
		return "", fmt.Errorf("SYNC_PASSPHRASE is not set")
	}
	if os.Getenv("SYNC_REMEMBER_PASSPHRASE") == "true" {
		if err := store.Set(configstore.KeySyncMasterKey, passphrase); err != nil {
			return "", err
		}
		if err := store.Set(configstore.KeySyncRememberKey, "true"); err != nil {
			return "", err
		}
	}
	return passphrase, nil
}

// resolveSyncUserID returns the persisted sync user id, falling back
// to SYNC_USER_ID on first run and persisting it for subsequent runs.
func resolveSyncUserID(store *configstore.Store) (string, error) {
	saved, err := store.Get(configstore.KeySyncUserID)
	if err != nil {
		return "", err
	}
	if saved != nil && *saved != "" {
		return *saved, nil
	}

	userID := os.Getenv("SYNC_USER_ID")
	if userID == "" {
		return "", fmt.Errorf("SYNC_USER_ID is not set")
	}
	if err := store.Set(configstore.KeySyncUserID, userID); err != nil {
		return "", err
	}
	return userID, nil
}
