package admin

import (
	"errors"
	"net/http"
	"os"
	"strconv"

	"go.uber.org/zap"

	"github.com/modplast83/MPBF-S-sub000/internal/audit"
	"github.com/modplast83/MPBF-S-sub000/internal/auth"
	"github.com/modplast83/MPBF-S-sub000/internal/database"
	"github.com/modplast83/MPBF-S-sub000/internal/metrics"
	"github.com/modplast83/MPBF-S-sub000/internal/response"
)

// RestoreRequest is the body of POST /api/database/restore.
type RestoreRequest struct {
	Filename string `json:"filename" validate:"required"`
}

// backupErr maps backup file errors to 400, 404 or 500.
func (h *Handler) backupErr(w http.ResponseWriter, action string, err error) {
	switch {
	case errors.Is(err, database.ErrInvalidFilename):
		response.Err(w, "Invalid filename", http.StatusBadRequest)
	case errors.Is(err, database.ErrBackupNotFound):
		response.NotFound(w, "Backup")
	case errors.Is(err, database.ErrCorruptBackup):
		response.Err(w, "Backup file is not a valid database", http.StatusBadRequest)
	default:
		response.Internal(w, h.Log, "Failed to "+action, err)
	}
}

// CreateBackup writes a snapshot of the database.
func (h *Handler) CreateBackup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	filename, err := h.Backups.Create(ctx)
	if err != nil {
		metrics.Backups.WithLabelValues("error").Inc()
		response.Internal(w, h.Log, "Backup failed", err)
		return
	}
	metrics.Backups.WithLabelValues("ok").Inc()
	h.Audit.Record(ctx, audit.ActionBackup, auth.ModuleSystem, filename, "Created backup "+filename)
	response.Created(w, map[string]string{"message": "Backup created", "filename": filename})
}

func (h *Handler) ListBackups(w http.ResponseWriter, r *http.Request) {
	list, err := h.Backups.List()
	if err != nil {
		response.Internal(w, h.Log, "Failed to list backups", err)
		return
	}
	response.OK(w, list)
}

// DownloadBackup streams one backup file as an attachment.
func (h *Handler) DownloadBackup(w http.ResponseWriter, r *http.Request) {
	filename := r.PathValue("filename")
	path, err := h.Backups.Path(filename)
	if err != nil {
		h.backupErr(w, "open backup", err)
		return
	}
	f, err := os.Open(path)
	if err != nil {
		response.Internal(w, h.Log, "Failed to open backup", err)
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		response.Internal(w, h.Log, "Failed to open backup", err)
		return
	}
	h.Audit.Export(r.Context(), auth.ModuleSystem, "db", 1)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", strconv.FormatInt(info.Size(), 10))
	http.ServeContent(w, r, filename, info.ModTime(), f)
}

func (h *Handler) DeleteBackup(w http.ResponseWriter, r *http.Request) {
	filename := r.PathValue("filename")
	if err := h.Backups.Delete(filename); err != nil {
		h.backupErr(w, "delete backup", err)
		return
	}
	h.Audit.Record(r.Context(), audit.ActionDelete, auth.ModuleSystem, filename, "Deleted backup "+filename)
	response.NoContent(w)
}

// RestoreBackup closes the database, moves a backup into its place and asks
// the process to restart so the store reopens the restored file.
func (h *Handler) RestoreBackup(w http.ResponseWriter, r *http.Request) {
	var req RestoreRequest
	if !response.Decode(w, r, &req) {
		return
	}
	if _, err := h.Backups.Path(req.Filename); err != nil {
		h.backupErr(w, "restore backup", err)
		return
	}
	ctx := r.Context()
	// Record before the file is replaced, or the entry lands in the old database.
	h.Audit.Record(ctx, audit.ActionRestore, auth.ModuleSystem, req.Filename, "Restoring backup "+req.Filename)
	if err := h.Backups.Restore(ctx, req.Filename); err != nil {
		h.backupErr(w, "restore backup", err)
		return
	}
	h.Log.Warn("database restored, restarting", zap.String("filename", req.Filename), zap.String("user", auth.Username(ctx)))
	h.Lifecycle.RequestRestart("restore " + req.Filename)
	response.OK(w, map[string]any{
		"message":  "Database restored from " + req.Filename + ". The server is restarting.",
		"restart":  true,
		"filename": req.Filename,
	})
}
