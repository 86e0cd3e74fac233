package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Jonnydevp/FitPose/internal/analysis"
	"github.com/Jonnydevp/FitPose/internal/clientinfo"
	"github.com/Jonnydevp/FitPose/internal/config"
	"github.com/Jonnydevp/FitPose/internal/database"
	"github.com/Jonnydevp/FitPose/internal/geoip"
	"github.com/Jonnydevp/FitPose/internal/history"
	"github.com/Jonnydevp/FitPose/internal/ratelimit"
	"github.com/Jonnydevp/FitPose/internal/server"
	"github.com/Jonnydevp/FitPose/internal/session"
	"github.com/Jonnydevp/FitPose/internal/storage"
	"github.com/Jonnydevp/FitPose/web"
)

const (
	evictionInterval  = time.Minute
	retentionInterval = time.Hour
	limiterCleanup    = 5 * time.Minute
)

func runServe(cmd *cobra.Command, envFile string) error {
	cfg, err := loadConfig(envFile)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return serve(ctx, cfg)
}

func serve(ctx context.Context, cfg *config.Config) error {
	bgCtx, cancelBackground := context.WithCancel(context.Background())
	defer cancelBackground()

	analyzer, err := buildAnalyzer(ctx, bgCtx, cfg)
	if err != nil {
		return err
	}

	srvCfg := server.Config{
		StaticFS:   web.StaticFS(),
		BaseURL:    cfg.BaseURL,
		TrustProxy: cfg.TrustProxy,
	}

	var recorder *history.Recorder
	if cfg.HistoryEnabled() {
		db, err := connectDatabase(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()

		store := history.NewStore(db.Pool)
		recorder = history.NewRecorder(store)
		recorder.Start(bgCtx)
		srvCfg.History = store
		srvCfg.Pinger = db.Pool
	}

	geo := geoip.Open(cfg.GeoIPPath)
	defer func() { _ = geo.Close() }()
	describer := clientinfo.NewDescriber(geo, []byte(cfg.Session.IPHashKey))

	registry := session.NewRegistry(func(s *session.Session) *analysis.Controller {
		opts := []analysis.Option{analysis.WithTimeout(cfg.Analysis.Timeout)}
		if recorder != nil {
			opts = append(opts, analysis.WithObserver(recorder.Observer(s.ID, s.Client)))
		}
		return analysis.NewController(analyzer, opts...)
	}, cfg.Session.IdleTTL)
	registry.StartEvictionLoop(bgCtx, evictionInterval)
	srvCfg.Sessions = session.NewManager(registry, cfg.Session.Secret, cfg.Session.SecureCookies, describer)

	srvCfg.UploadLimiter = ratelimit.NewLimiter("upload", cfg.RateLimit.UploadPerSecond, cfg.RateLimit.UploadBurst)
	srvCfg.APILimiter = ratelimit.NewLimiter("api", cfg.RateLimit.APIPerSecond, cfg.RateLimit.APIBurst)
	srvCfg.UploadLimiter.StartCleanup(bgCtx, limiterCleanup)
	srvCfg.APILimiter.StartCleanup(bgCtx, limiterCleanup)

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           server.New(srvCfg),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.ReadTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("fitpose listening",
			"addr", httpServer.Addr,
			"mode", cfg.Analysis.Mode,
			"analysis_url", cfg.Analysis.BaseURL(),
			"history", cfg.HistoryEnabled(),
			"archive", cfg.Archive.Enabled,
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}

		registry.Close()
		cancelBackground()
		if recorder != nil {
			recorder.Wait()
		}
		slog.Info("shutdown complete")
		return nil
	})
	return g.Wait()
}

// buildAnalyzer returns the service client, wrapped by the archive when
// archiving is enabled.
func buildAnalyzer(ctx, bgCtx context.Context, cfg *config.Config) (analysis.Analyzer, error) {
	client := analysis.NewClient(cfg.Analysis.BaseURL(), cfg.Analysis.Timeout)
	if !cfg.Archive.Enabled {
		return client, nil
	}

	store, err := storage.New(ctx, storage.Config{
		Endpoint:  cfg.Storage.Endpoint,
		Bucket:    cfg.Storage.Bucket,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		Region:    cfg.Storage.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("storage initialization failed: %w", err)
	}
	setupCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := store.EnsureBucket(setupCtx); err != nil {
		return nil, fmt.Errorf("storage bucket check failed: %w", err)
	}
	slog.Info("storage bucket ready", "bucket", store.Bucket())

	analysis.StartRetentionLoop(bgCtx, store, cfg.Archive.Retention, retentionInterval)
	return analysis.NewArchiver(client, store), nil
}

func connectDatabase(ctx context.Context, databaseURL string) (*database.DB, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	db, err := database.Connect(connectCtx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	if err := db.Migrate(databaseURL); err != nil {
		db.Close()
		return nil, fmt.Errorf("database migration failed: %w", err)
	}
	slog.Info("database migrations applied")
	return db, nil
}
