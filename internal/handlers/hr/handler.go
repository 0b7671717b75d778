// Package hr serves time attendance, employee-of-the-month awards, HR
// violations and complaints.
package hr

import (
	"net/http"

	"github.com/modplast83/MPBF-S-sub000/internal/auth"
	"github.com/modplast83/MPBF-S-sub000/internal/handlers/common"
	"github.com/modplast83/MPBF-S-sub000/internal/server"
)

// Handler holds dependencies for HR handlers.
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

// currentUser returns the session user's id, or 0 outside a session.
func currentUser(r *http.Request) int64 {
	if id := auth.UserID(r.Context()); id != nil {
		return *id
	}
	return 0
}
