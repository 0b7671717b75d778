// Package engineering serves plate pricing: the parameters the quote
// formula reads and the quotes calculated from them.
package engineering

import (
	"github.com/modplast83/MPBF-S-sub000/internal/server"
)

// Handler holds dependencies for engineering handlers.
type Handler struct {
	*server.App
}

func New(app *server.App) *Handler {
	return &Handler{App: app}
}
