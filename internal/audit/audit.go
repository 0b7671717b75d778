package audit

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/modplast83/MPBF-S-sub000/internal/auth"
	"github.com/modplast83/MPBF-S-sub000/internal/models"
	"github.com/modplast83/MPBF-S-sub000/internal/websocket"
)

// Action constants.
const (
	ActionCreate  = "CREATE"
	ActionUpdate  = "UPDATE"
	ActionDelete  = "DELETE"
	ActionExport  = "EXPORT"
	ActionLogin   = "LOGIN"
	ActionLogout  = "LOGOUT"
	ActionBackup  = "BACKUP"
	ActionRestore = "RESTORE"
	ActionImport  = "IMPORT"
)

// DefaultRetention is how long audit entries are kept.
const DefaultRetention = 365 * 24 * time.Hour

// Store is the persistence the audit logger needs.
type Store interface {
	InsertAuditLog(ctx context.Context, e *models.AuditLog) error
	DeleteAuditLogsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Logger writes audit entries and announces changes on the live hub.
type Logger struct {
	store Store
	hub   *websocket.Hub
	log   *zap.Logger
}

// New creates an audit Logger. hub may be nil.
func New(store Store, hub *websocket.Hub, log *zap.Logger) *Logger {
	if log == nil {
		log = zap.NewNop()
	}
	return &Logger{store: store, hub: hub, log: log.Named("audit")}
}

// Record stores an audit entry for the user in ctx. Failures are logged and
// never returned: an audit problem must not fail the mutation it describes.
func (l *Logger) Record(ctx context.Context, action, module string, recordID any, summary string) {
	if l == nil {
		return
	}
	id := fmt.Sprint(recordID)
	e := &models.AuditLog{
		Username: auth.Username(ctx),
		Action:   action,
		Module:   module,
		RecordID: id,
		Summary:  summary,
	}
	if err := l.store.InsertAuditLog(ctx, e); err != nil {
		l.log.Error("insert audit log", zap.String("module", module), zap.String("record_id", id), zap.Error(err))
	} else {
		l.log.Info(summary,
			zap.String("user", e.Username),
			zap.String("action", action),
			zap.String("module", module),
			zap.String("record_id", id))
	}

	switch action {
	case ActionCreate, ActionUpdate, ActionDelete:
		if l.hub != nil {
			l.hub.BroadcastChange(module, action, recordID)
		}
	}
}

// Export records a data export.
func (l *Logger) Export(ctx context.Context, module, format string, rows int) {
	l.Record(ctx, ActionExport, module, "", fmt.Sprintf("Exported %d records from %s as %s", rows, module, format))
}

// Cleanup deletes entries older than retention.
func (l *Logger) Cleanup(ctx context.Context, retention time.Duration) (int64, error) {
	if retention <= 0 {
		retention = DefaultRetention
	}
	n, err := l.store.DeleteAuditLogsBefore(ctx, time.Now().Add(-retention))
	if err != nil {
		return 0, fmt.Errorf("cleanup audit log: %w", err)
	}
	if n > 0 {
		l.log.Info("purged audit entries", zap.Int64("rows", n))
	}
	return n, nil
}
