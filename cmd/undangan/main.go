// Package main is the entry point for the invitation platform server.
// It loads configuration, connects to services, sets up routing, and runs
// the HTTP server and the wish hub until a shutdown signal arrives.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"undangan/internal/cache"
	"undangan/internal/config"
	"undangan/internal/content"
	"undangan/internal/database"
	"undangan/internal/engine"
	"undangan/internal/handlers"
	"undangan/internal/middleware"
	"undangan/internal/render"
	"undangan/internal/router"
	"undangan/internal/session"
	"undangan/internal/storage"
	"undangan/internal/store"
	"undangan/internal/wishes"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration from environment variables and .env.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		return err
	}

	// Structured logger: text in development, JSON everywhere else.
	var handler slog.Handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	if cfg.IsDev() {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	slog.SetDefault(slog.New(handler))

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
		"root_domain", cfg.RootDomain,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to PostgreSQL.
	db, err := database.Connect(ctx, cfg.DSN())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		return err
	}
	defer db.Close()

	// Run pending migrations.
	version, err := database.Migrate(ctx, db)
	if err != nil {
		slog.Error("failed to run migrations", "error", err)
		return err
	}
	slog.Info("database schema ready", "version", version)

	// Create the admin account and starter template on first start.
	if err := database.Seed(ctx, db, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		slog.Error("failed to seed database", "error", err)
		return err
	}

	// Connect to Valkey (page cache + session store).
	valkeyClient, err := cache.ConnectValkey(ctx, cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
	if err != nil {
		slog.Error("failed to connect to valkey", "error", err)
		return err
	}
	defer valkeyClient.Close()

	// Outside development, cookies are HTTPS-only and HSTS is sent.
	secure := !cfg.IsDev()
	sessionStore := session.NewStore(valkeyClient, secure)
	pageCache := cache.NewPageCache(valkeyClient, cfg.PageCacheTTL)

	// Media goes to S3 when configured, otherwise to local disk served
	// under /uploads.
	var (
		backend storage.Backend
		uploads http.Handler
	)
	if cfg.S3Enabled() {
		s3, err := storage.NewS3(storage.S3Config{
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Bucket:    cfg.S3Bucket,
			PublicURL: cfg.S3PublicURL,
		})
		if err == nil {
			err = s3.Check(ctx)
		}
		if err != nil {
			slog.Error("failed to initialize S3 storage", "error", err)
			return err
		}
		backend = s3
		slog.Info("s3 storage connected", "endpoint", cfg.S3Endpoint, "bucket", cfg.S3Bucket)
	} else {
		local, err := storage.NewLocalDisk(cfg.UploadDir)
		if err != nil {
			slog.Error("failed to initialize upload directory", "error", err, "dir", cfg.UploadDir)
			return err
		}
		backend, uploads = local, local.Handler()
		slog.Warn("s3 storage not configured, storing uploads on local disk", "dir", cfg.UploadDir)
	}

	renderer, err := render.New()
	if err != nil {
		slog.Error("failed to initialize page renderer", "error", err)
		return err
	}

	// Initialize data stores.
	userStore := store.NewUserStore(db)
	templateStore := store.NewTemplateStore(db)
	tierStore := store.NewTierStore(db)
	invoiceStore := store.NewInvoiceStore(db)
	guestStore := store.NewGuestStore(db)
	rsvpStore := store.NewRSVPStore(db)
	mediaStore := store.NewMediaStore(db)
	cacheLogStore := store.NewCacheLogStore(db)

	eng := engine.New(content.NewSelector(templateStore, invoiceStore))
	hub := wishes.NewHub()

	assetMaxAge := int(cfg.AssetMaxAge / time.Second)
	scheme := "http"
	if secure {
		scheme = "https"
	}

	public := handlers.NewPublic(eng, guestStore, rsvpStore, renderer, pageCache, assetMaxAge)

	h := router.New(router.Deps{
		Sessions:    sessionStore,
		RSVPLimiter: middleware.NewRateLimiter(cfg.RSVPPerMinute, time.Minute),
		Public:      public,
		GuestAPI:    handlers.NewGuestAPI(invoiceStore, rsvpStore, hub, renderer, pageCache),
		Auth:        handlers.NewAuth(sessionStore, userStore),
		Admin:       handlers.NewAdmin(templateStore, tierStore, invoiceStore, guestStore, eng, public, pageCache, cacheLogStore, cfg.RootDomain, scheme),
		Media:       handlers.NewMedia(mediaStore, backend),
		Uploads:     uploads,
		RootDomain:  cfg.RootDomain,
		CORSOrigins: cfg.CORSOrigins,
		Secure:      secure,
	})

	// Create the HTTP server with sensible timeouts. WriteTimeout is left
	// unset because wish sockets stay open.
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return hub.Run(gctx) })
	g.Go(func() error {
		pruneCacheLog(gctx, cacheLogStore, cfg.CacheLogRetention)
		return nil
	})
	g.Go(func() error {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down")

		// Give active requests up to 30 seconds to complete.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	slog.Info("server stopped gracefully")
	return nil
}

// pruneCacheLog trims the invalidation log once at startup and then daily
// until ctx ends.
func pruneCacheLog(ctx context.Context, s *store.CacheLogStore, keep time.Duration) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()
	for {
		n, err := s.Prune(ctx, time.Now().Add(-keep))
		switch {
		case err != nil && ctx.Err() == nil:
			slog.Warn("cache log prune failed", "error", err)
		case n > 0:
			slog.Info("cache log pruned", "deleted", n)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
