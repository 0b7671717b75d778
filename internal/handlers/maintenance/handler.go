// Package maintenance serves machine maintenance requests, the actions
// taken against them and the preventive maintenance schedule.
package maintenance

import (
	"net/http"

	"github.com/modplast83/MPBF-S-sub000/internal/handlers/common"
	"github.com/modplast83/MPBF-S-sub000/internal/server"
)

// Handler holds dependencies for maintenance handlers.
type Handler struct {
	*server.App
}

func New(app *server.App) *Handler {
	return &Handler{App: app}
}

func (h *Handler) checkMachine(w http.ResponseWriter, r *http.Request, id string) bool {
	_, err := h.Store.GetMachine(r.Context(), id)
	return common.Found(w, h.Log, "Machine", err)
}

func (h *Handler) checkUsers(w http.ResponseWriter, r *http.Request, ids ...*int64) bool {
	for _, id := range ids {
		if id == nil {
			continue
		}
		if _, err := h.Store.GetUser(r.Context(), *id); !common.Found(w, h.Log, "User", err) {
			return false
		}
	}
	return true
}
