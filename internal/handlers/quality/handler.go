// Package quality serves quality checks and what follows from them:
// corrective actions, violations and the penalties assigned for them.
package quality

import (
	"net/http"

	"github.com/modplast83/MPBF-S-sub000/internal/handlers/common"
	"github.com/modplast83/MPBF-S-sub000/internal/server"
)

// Handler holds dependencies for quality handlers.
type Handler struct {
	*server.App
}

func New(app *server.App) *Handler {
	return &Handler{App: app}
}

// checkUsers looks up each non-nil user id in order.
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
