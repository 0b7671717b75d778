// Package inventory serves raw-material stock and everything that moves it:
// material mixes, goods receipts and ABA mix configurations.
package inventory

import (
	"net/http"

	"github.com/modplast83/MPBF-S-sub000/internal/handlers/common"
	"github.com/modplast83/MPBF-S-sub000/internal/server"
)

// Handler holds dependencies for inventory handlers.
type Handler struct {
	*server.App
}

func New(app *server.App) *Handler {
	return &Handler{App: app}
}

// checkRawMaterials looks up each raw material id in order; the first
// missing one writes the 404.
func (h *Handler) checkRawMaterials(w http.ResponseWriter, r *http.Request, ids ...int64) bool {
	for _, id := range ids {
		if _, err := h.Store.GetRawMaterial(r.Context(), id); !common.Found(w, h.Log, "Raw material", err) {
			return false
		}
	}
	return true
}
