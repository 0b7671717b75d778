package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/modplast83/MPBF-S-sub000/internal/audit"
	"github.com/modplast83/MPBF-S-sub000/internal/auth"
	"github.com/modplast83/MPBF-S-sub000/internal/config"
	"github.com/modplast83/MPBF-S-sub000/internal/database"
	"github.com/modplast83/MPBF-S-sub000/internal/lifecycle"
	"github.com/modplast83/MPBF-S-sub000/internal/logging"
	"github.com/modplast83/MPBF-S-sub000/internal/models"
	"github.com/modplast83/MPBF-S-sub000/internal/server"
	"github.com/modplast83/MPBF-S-sub000/internal/storage"
)

// housekeepingInterval is how often expired sessions and old audit entries
// are purged.
const housekeepingInterval = time.Hour

func main() {
	configPath := flag.String("config", "", "Path to a config file (default ./config.yaml when present)")
	flag.Parse()

	// A missing .env is fine; the environment and config file still apply.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	log := logging.New(cfg.Log.Level)
	code, err := run(cfg, log)
	if err != nil {
		log.Error("server stopped", zap.Error(err))
	}
	_ = log.Sync()
	os.Exit(code)
}

// run serves until a signal or a restart request arrives and returns the
// process exit code.
func run(cfg *config.Config, log *zap.Logger) (int, error) {
	db, err := database.Open(cfg.DB.Path)
	if err != nil {
		return 1, fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	app := server.NewApp(cfg, storage.New(db), log)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := bootstrap(ctx, app); err != nil {
		return 1, err
	}
	go housekeeping(ctx, app)

	proxies, err := audit.ParseTrustedProxies(cfg.HTTP.TrustedProxies)
	if err != nil {
		return 1, err
	}
	handler := server.Chain(newMux(app),
		server.RealIP(proxies),
		server.Logging(log),
		server.Recover(log),
		server.SecurityHeaders,
		server.CORS(cfg.CORS.Origins),
		server.RateLimit(server.NewRateLimiter(), cfg.RateLimit.LoginPerMinute, cfg.RateLimit.APIPerMinute),
		server.Gzip,
	)
	srv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", cfg.HTTP.Addr), zap.String("db", cfg.DB.Path))
		errc <- srv.ListenAndServe()
	}()

	code := 0
	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return 1, err
		}
	case <-ctx.Done():
		log.Info("shutting down")
	case <-app.Lifecycle.Done():
		reason, _ := app.Lifecycle.Reason()
		log.Info("restart requested", zap.String("reason", reason))
		code = lifecycle.RestartExitCode
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("graceful shutdown", zap.Error(err))
	}
	return code, nil
}

// bootstrap seeds the administrator and the permission modules, then loads
// the permission cache.
func bootstrap(ctx context.Context, app *server.App) error {
	hash, err := auth.HashPassword(app.Config.Admin.Password)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	admin := &models.User{
		Username: app.Config.Admin.Username,
		Password: hash,
		Name:     "Administrator",
		IsAdmin:  true,
		IsActive: true,
	}
	created, err := app.Store.EnsureUser(ctx, admin)
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	if created {
		app.Log.Info("created administrator account", zap.String("username", admin.Username))
	}

	if err := auth.SeedModules(ctx, app.Store); err != nil {
		return fmt.Errorf("seed modules: %w", err)
	}
	return app.Perms.Refresh(ctx, app.Store)
}

func housekeeping(ctx context.Context, app *server.App) {
	ticker := time.NewTicker(housekeepingInterval)
	defer ticker.Stop()
	for {
		if n, err := app.Store.PurgeExpiredSessions(ctx); err != nil {
			app.Log.Warn("purge sessions", zap.Error(err))
		} else if n > 0 {
			app.Log.Debug("purged sessions", zap.Int64("count", n))
		}
		if n, err := app.Audit.Cleanup(ctx, audit.DefaultRetention); err != nil {
			app.Log.Warn("audit cleanup", zap.Error(err))
		} else if n > 0 {
			app.Log.Info("pruned audit log", zap.Int64("count", n))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
