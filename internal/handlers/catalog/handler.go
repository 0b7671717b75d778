// Package catalog serves the product catalog and plant layout: categories,
// items, sections, machines and master batches.
package catalog

import (
	"github.com/modplast83/MPBF-S-sub000/internal/server"
)

// Handler holds dependencies for catalog handlers.
type Handler struct {
	*server.App
}

func New(app *server.App) *Handler {
	return &Handler{App: app}
}
