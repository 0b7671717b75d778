// Package notifications serves SMS messages, templates and notification
// rules, and the endpoints that send messages on demand.
package notifications

import (
	"github.com/modplast83/MPBF-S-sub000/internal/server"
)

// Handler holds dependencies for notification handlers.
type Handler struct {
	*server.App
}

func New(app *server.App) *Handler {
	return &Handler{App: app}
}
