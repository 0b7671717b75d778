package server

import (
	"go.uber.org/zap"

	"github.com/modplast83/MPBF-S-sub000/internal/audit"
	"github.com/modplast83/MPBF-S-sub000/internal/auth"
	"github.com/modplast83/MPBF-S-sub000/internal/config"
	"github.com/modplast83/MPBF-S-sub000/internal/database"
	"github.com/modplast83/MPBF-S-sub000/internal/lifecycle"
	"github.com/modplast83/MPBF-S-sub000/internal/sms"
	"github.com/modplast83/MPBF-S-sub000/internal/storage"
	"github.com/modplast83/MPBF-S-sub000/internal/websocket"
)

// App holds shared dependencies for the application. Handler packages embed
// it and add what only they need.
type App struct {
	Store     *storage.Store
	Hub       *websocket.Hub
	Perms     *auth.PermCache
	Audit     *audit.Logger
	SMS       *sms.Service
	Backups   *database.Backups
	Lifecycle *lifecycle.Supervisor
	Log       *zap.Logger
	Config    *config.Config
}

// NewApp wires the shared dependencies around an open store.
func NewApp(cfg *config.Config, store *storage.Store, log *zap.Logger) *App {
	hub := websocket.NewHub(log)
	return &App{
		Store:   store,
		Hub:     hub,
		Perms:   auth.NewPermCache(),
		Audit:   audit.New(store, hub, log),
		SMS:     sms.NewService(store, sms.NewProvider(cfg.SMS, log), log),
		Backups: &database.Backups{
			DB:        store.DB(),
			Dir:       cfg.Backup.Dir,
			DBPath:    cfg.DB.Path,
			Retention: cfg.Backup.Retention,
		},
		Lifecycle: lifecycle.New(),
		Log:       log,
		Config:    cfg,
	}
}
