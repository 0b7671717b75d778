// Package admin serves authentication, user and access management,
// database backups, CSV import, demo data and system control.
package admin

import (
	"net/http"
	"time"

	"github.com/modplast83/MPBF-S-sub000/internal/handlers/common"
	"github.com/modplast83/MPBF-S-sub000/internal/server"
)

// Handler holds dependencies for admin handlers.
type Handler struct {
	*server.App
	started time.Time
}

func New(app *server.App) *Handler {
	return &Handler{App: app, started: time.Now()}
}

func (h *Handler) checkSection(w http.ResponseWriter, r *http.Request, id *string) bool {
	if id == nil {
		return true
	}
	_, err := h.Store.GetSection(r.Context(), *id)
	return common.Found(w, h.Log, "Section", err)
}
