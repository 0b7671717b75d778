package admin

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"runtime"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/modplast83/MPBF-S-sub000/internal/audit"
	"github.com/modplast83/MPBF-S-sub000/internal/auth"
	"github.com/modplast83/MPBF-S-sub000/internal/demo"
	"github.com/modplast83/MPBF-S-sub000/internal/handlers/common"
	"github.com/modplast83/MPBF-S-sub000/internal/importer"
	"github.com/modplast83/MPBF-S-sub000/internal/response"
	"github.com/modplast83/MPBF-S-sub000/internal/validation"
)

// ServerStatus handles GET /api/system/server-status.
func (h *Handler) ServerStatus(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	dbStatus := "ok"
	if err := h.Store.Ping(r.Context()); err != nil {
		h.Log.Error("database ping", zap.Error(err))
		status, dbStatus = "degraded", "unreachable"
	}
	out := map[string]any{
		"status":            status,
		"database":          dbStatus,
		"started_at":        h.started.Format(time.RFC3339),
		"uptime_seconds":    int64(time.Since(h.started).Seconds()),
		"go_version":        runtime.Version(),
		"goroutines":        runtime.NumGoroutine(),
		"websocket_clients": h.Hub.Count(),
		"restart_pending":   h.Lifecycle.Pending(),
	}
	if h.Lifecycle.Pending() {
		reason, at := h.Lifecycle.Reason()
		out["restart_reason"] = reason
		out["restart_requested_at"] = at.Format(time.RFC3339)
	}
	response.OK(w, out)
}

// Restart asks the process to drain and exit for its supervisor.
func (h *Handler) Restart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.Lifecycle.RequestRestart("requested by " + auth.Username(ctx)) {
		response.Err(w, "Restart already pending", http.StatusConflict)
		return
	}
	h.Audit.Record(ctx, audit.ActionUpdate, auth.ModuleSystem, "restart", "Requested server restart")
	response.JSON(w, http.StatusAccepted, map[string]any{"message": "Server is restarting", "restart": true})
}

// AuditLogs handles GET /api/audit-logs?module=&limit=.
func (h *Handler) AuditLogs(w http.ResponseWriter, r *http.Request) {
	module := r.URL.Query().Get("module")
	list, err := h.Store.ListAuditLogs(r.Context(), module, common.QueryInt(r, "limit", 100))
	if err != nil {
		response.Internal(w, h.Log, "Failed to get audit logs", err)
		return
	}
	response.OK(w, list)
}

// ImportRequest is the JSON form of POST /api/import-csv.
type ImportRequest struct {
	EntityType string `json:"entity_type" validate:"required"`
	CSVData    string `json:"csv_data" validate:"required"`
}

// importSource reads the entity type and CSV body from either a multipart
// upload (field "file") or a JSON body. It writes the 400 itself.
func (h *Handler) importSource(w http.ResponseWriter, r *http.Request) (string, io.Reader, func(), bool) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		var req ImportRequest
		if !response.Decode(w, r, &req) {
			return "", nil, nil, false
		}
		return req.EntityType, strings.NewReader(req.CSVData), func() {}, true
	}

	r.Body = http.MaxBytesReader(w, r.Body, validation.MaxUploadSize+1<<20)
	if err := r.ParseMultipartForm(validation.MaxUploadSize); err != nil {
		response.Err(w, "Invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return "", nil, nil, false
	}
	ve := &validation.ValidationErrors{}
	entityType := strings.TrimSpace(r.FormValue("entity_type"))
	validation.RequireField(ve, "entity_type", entityType)
	file, header, err := r.FormFile("file")
	if err != nil {
		ve.Add("file", "is required")
	} else {
		validation.ValidateUpload(ve, header.Filename, header.Size, ".csv", ".txt")
	}
	if ve.HasErrors() {
		if file != nil {
			file.Close()
		}
		response.Invalid(w, ve)
		return "", nil, nil, false
	}
	return entityType, file, func() { file.Close() }, true
}

// ImportCSV handles POST /api/import-csv. Rows are applied one by one, so
// a bad row fails alone and is reported with its line number.
func (h *Handler) ImportCSV(w http.ResponseWriter, r *http.Request) {
	entityType, src, done, ok := h.importSource(w, r)
	if !ok {
		return
	}
	defer done()
	ctx := r.Context()
	res, err := importer.New(h.Store, h.Log).Import(ctx, entityType, src)
	switch {
	case errors.Is(err, importer.ErrUnknownEntity), errors.Is(err, importer.ErrNoRows), errors.Is(err, importer.ErrMalformed):
		response.Err(w, err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		response.Internal(w, h.Log, "Import failed", err)
		return
	}
	h.Audit.Record(ctx, audit.ActionImport, auth.ModuleSystem, entityType,
		fmt.Sprintf("Imported %s: %d created, %d updated, %d failed", entityType, res.Created, res.Updated, res.Failed))
	response.OK(w, res)
}

// InitDemoData seeds the demo dataset. Existing records are kept.
func (h *Handler) InitDemoData(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	res, err := demo.Seed(ctx, h.Store, h.Log)
	if err != nil {
		response.Internal(w, h.Log, "Failed to initialize demo data", err)
		return
	}
	total := 0
	for _, n := range res.Created {
		total += n
	}
	h.Audit.Record(ctx, audit.ActionCreate, auth.ModuleSystem, "demo", fmt.Sprintf("Seeded %d demo records", total))
	response.OK(w, map[string]any{"message": "Demo data initialized", "created": res.Created, "skipped": res.Skipped})
}
