// Package main is the entry point for the anniversary planner server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/anniversary-planner/backend/internal/api"
	"github.com/anniversary-planner/backend/internal/api/middleware"
	"github.com/anniversary-planner/backend/internal/config"
	"github.com/anniversary-planner/backend/internal/logging"
	"github.com/anniversary-planner/backend/internal/media"
	"github.com/anniversary-planner/backend/internal/session"
	"github.com/anniversary-planner/backend/internal/state"
	"github.com/anniversary-planner/backend/internal/statesync"
	"github.com/anniversary-planner/backend/internal/storage"
	"github.com/anniversary-planner/backend/internal/storage/models"
	"github.com/anniversary-planner/backend/internal/suggest"
	"github.com/anniversary-planner/backend/internal/websocket"
)

// version is set at build time via -ldflags "-X main.version=x.y.z".
var version = "dev"

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration: %v\n", err)
		os.Exit(2)
	}

	// Health check mode for Docker HEALTHCHECK
	if cfg.HealthCheck {
		if err := runHealthCheck(cfg.Addr); err != nil {
			fmt.Fprintf(os.Stderr, "health check failed: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	if envVer := os.Getenv("VERSION"); envVer != "" {
		version = envVer
	}

	log := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	log.Info().Str("version", version).Str("storage", cfg.Storage).Msg("starting anniversary planner")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := storage.OpenDB(ctx, filepath.Join(cfg.DataDir, "anniversary-planner.db"))
	if err != nil {
		return err
	}
	log.Info().Str("path", db.Path()).Msg("database ready")

	store, err := openStore(ctx, cfg, db, log)
	if err != nil {
		db.Close()
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Warn().Err(err).Msg("closing state store")
		}
		// The SQLite snapshot store owns the connection.
		if cfg.Storage != config.StorageSQLite {
			db.Close()
		}
	}()

	hub := websocket.NewHub(log)
	events := websocket.NewEventBroadcaster(hub, log)

	container := state.New(models.AppState{})
	container.Subscribe(func(ch state.Change) {
		if ch.Kind == state.KindReplaced {
			return
		}
		events.BroadcastStateChanged(string(ch.Kind), ch.Revision, ch.Unsaved)
	})

	manager := statesync.NewManager(container, store, log, statesync.Options{
		Key:      cfg.StateKey,
		Origin:   uuid.NewString(),
		Interval: cfg.SyncInterval,
		Events:   events,
	})
	source := manager.Load(ctx)
	log.Info().Str("source", string(source)).Msg("initial state loaded")
	if err := manager.Start(ctx); err != nil {
		return err
	}

	objects, uploadDir, err := openObjectStore(ctx, cfg)
	if err != nil {
		return err
	}
	if closer, ok := objects.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	suggestions := suggest.New(suggest.Options{
		BaseURL: cfg.OpenAIBaseURL,
		APIKey:  cfg.OpenAIAPIKey,
		Model:   cfg.OpenAIModel,
	}, log)
	if !suggestions.Enabled() {
		log.Info().Msg("no OpenAI key configured, suggestions return placeholders")
	}

	sessions := &middleware.Sessions{
		Gate:     session.NewGate(cfg.PlannerCode, cfg.GuestCode),
		Registry: session.NewRegistry(),
		Roster:   container.Guests,
	}

	router := api.NewRouter(api.Deps{
		Log:            log,
		DB:             db,
		Hub:            hub,
		Container:      container,
		Sync:           manager,
		Sessions:       sessions,
		Objects:        objects,
		Uploads:        storage.NewUploadRepository(db),
		Suggest:        suggestions,
		UploadDir:      uploadDir,
		StaticDir:      cfg.StaticDir,
		AllowedOrigins: cfg.AllowedOrigins,
	})

	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		log.Info().Str("addr", cfg.Addr).Msg("server listening")
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("server shutdown")
		}
		if err := manager.Stop(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("final sync failed, unsaved changes were lost")
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info().Msg("server stopped")
	return nil
}

// openStore picks the shared state backend.
func openStore(ctx context.Context, cfg *config.Config, db *storage.DB, log zerolog.Logger) (storage.Store, error) {
	switch cfg.Storage {
	case config.StorageRedis:
		return storage.NewRedisStore(ctx, log, cfg.RedisAddr, cfg.RedisChannel)
	case config.StorageMemory:
		log.Warn().Msg("memory storage: state is lost on restart and not shared between processes")
		return storage.NewMemoryStore(), nil
	default:
		return storage.NewSnapshotRepository(db, log, cfg.PollInterval), nil
	}
}

// openObjectStore returns the upload backend and, for local storage, the
// directory to expose at /uploads/.
func openObjectStore(ctx context.Context, cfg *config.Config) (media.ObjectStore, string, error) {
	if cfg.UploadBackend == config.UploadGCS {
		gcs, err := media.NewGCSStore(ctx, cfg.GCSBucket, cfg.PublicBaseURL, media.ClientOptions(cfg.GCSCredentialsFile)...)
		if err != nil {
			return nil, "", err
		}
		return gcs, "", nil
	}

	local, err := media.NewLocalStore(cfg.UploadDir, "/uploads")
	if err != nil {
		return nil, "", err
	}
	return local, local.Dir(), nil
}

// runHealthCheck performs a health check against the running server.
func runHealthCheck(addr string) error {
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get("http://localhost" + addr + "/api/health")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return nil
}
