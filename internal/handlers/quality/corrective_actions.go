package quality

import (
	"fmt"
	"net/http"

	"github.com/modplast83/MPBF-S-sub000/internal/audit"
	"github.com/modplast83/MPBF-S-sub000/internal/auth"
	"github.com/modplast83/MPBF-S-sub000/internal/handlers/common"
	"github.com/modplast83/MPBF-S-sub000/internal/models"
	"github.com/modplast83/MPBF-S-sub000/internal/response"
)

func (h *Handler) ListCorrectiveActions(w http.ResponseWriter, r *http.Request) {
	list, err := h.Store.ListCorrectiveActions(r.Context())
	if err != nil {
		response.Internal(w, h.Log, "Failed to get corrective actions", err)
		return
	}
	response.OK(w, list)
}

func (h *Handler) GetCorrectiveAction(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathID(w, r, "id")
	if !ok {
		return
	}
	a, err := h.Store.GetCorrectiveAction(r.Context(), id)
	if !common.Found(w, h.Log, "Corrective action", err) {
		return
	}
	response.OK(w, a)
}

// CorrectiveActionsByCheck handles GET /api/corrective-actions/quality-check/{id}.
func (h *Handler) CorrectiveActionsByCheck(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathID(w, r, "id")
	if !ok {
		return
	}
	list, err := h.Store.ListCorrectiveActionsByCheck(r.Context(), id)
	if err != nil {
		response.Internal(w, h.Log, "Failed to get corrective actions", err)
		return
	}
	response.OK(w, list)
}

func (h *Handler) checkCorrectiveRefs(w http.ResponseWriter, r *http.Request, a *models.CorrectiveAction) bool {
	if _, err := h.Store.GetQualityCheck(r.Context(), a.QualityCheckID); !common.Found(w, h.Log, "Quality check", err) {
		return false
	}
	return h.checkUsers(w, r, a.ImplementedBy, a.VerifiedBy)
}

func (h *Handler) CreateCorrectiveAction(w http.ResponseWriter, r *http.Request) {
	var a models.CorrectiveAction
	if !response.Decode(w, r, &a) {
		return
	}
	if !h.checkCorrectiveRefs(w, r, &a) {
		return
	}
	ctx := r.Context()
	if err := h.Store.CreateCorrectiveAction(ctx, &a); err != nil {
		response.StoreErr(w, h.Log, "Corrective action", "create corrective action", err)
		return
	}
	h.Audit.Record(ctx, audit.ActionCreate, auth.ModuleQuality, a.ID,
		fmt.Sprintf("Opened corrective action for quality check %d", a.QualityCheckID))
	response.Created(w, a)
}

func (h *Handler) UpdateCorrectiveAction(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathID(w, r, "id")
	if !ok {
		return
	}
	var a models.CorrectiveAction
	if !common.DecodeUpdate(w, r, &a, func() { a.ID = id }) {
		return
	}
	ctx := r.Context()
	existing, err := h.Store.GetCorrectiveAction(ctx, id)
	if !common.Found(w, h.Log, "Corrective action", err) {
		return
	}
	if !h.checkCorrectiveRefs(w, r, &a) {
		return
	}
	if a.Status == "" {
		a.Status = existing.Status
	}
	if err := h.Store.UpdateCorrectiveAction(ctx, &a); err != nil {
		response.StoreErr(w, h.Log, "Corrective action", "update corrective action", err)
		return
	}
	h.Audit.Record(ctx, audit.ActionUpdate, auth.ModuleQuality, id,
		fmt.Sprintf("Corrective action %d now %s", id, a.Status))
	response.OK(w, a)
}

func (h *Handler) DeleteCorrectiveAction(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathID(w, r, "id")
	if !ok {
		return
	}
	ctx := r.Context()
	if err := h.Store.DeleteCorrectiveAction(ctx, id); err != nil {
		response.StoreErr(w, h.Log, "Corrective action", "delete corrective action", err)
		return
	}
	h.Audit.Record(ctx, audit.ActionDelete, auth.ModuleQuality, id, fmt.Sprintf("Deleted corrective action %d", id))
	response.NoContent(w)
}
