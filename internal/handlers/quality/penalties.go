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

func (h *Handler) ListPenalties(w http.ResponseWriter, r *http.Request) {
	list, err := h.Store.ListQualityPenalties(r.Context())
	if err != nil {
		response.Internal(w, h.Log, "Failed to get quality penalties", err)
		return
	}
	response.OK(w, list)
}

func (h *Handler) GetPenalty(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathID(w, r, "id")
	if !ok {
		return
	}
	p, err := h.Store.GetQualityPenalty(r.Context(), id)
	if !common.Found(w, h.Log, "Quality penalty", err) {
		return
	}
	response.OK(w, p)
}

// PenaltiesByViolation handles GET /api/quality-penalties/violation/{id}.
func (h *Handler) PenaltiesByViolation(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathID(w, r, "id")
	if !ok {
		return
	}
	list, err := h.Store.ListQualityPenaltiesByViolation(r.Context(), id)
	if err != nil {
		response.Internal(w, h.Log, "Failed to get quality penalties", err)
		return
	}
	response.OK(w, list)
}

func (h *Handler) checkPenaltyRefs(w http.ResponseWriter, r *http.Request, p *models.QualityPenalty) bool {
	if _, err := h.Store.GetQualityViolation(r.Context(), p.ViolationID); !common.Found(w, h.Log, "Quality violation", err) {
		return false
	}
	return h.checkUsers(w, r, &p.AssignedTo, &p.AssignedBy)
}

// CreatePenalty records the session user as the assigner unless the body
// names one.
func (h *Handler) CreatePenalty(w http.ResponseWriter, r *http.Request) {
	var p models.QualityPenalty
	if !response.Decode(w, r, &p) {
		return
	}
	if p.AssignedBy == 0 {
		p.AssignedBy = currentUser(r)
	}
	if !h.checkPenaltyRefs(w, r, &p) {
		return
	}
	ctx := r.Context()
	if err := h.Store.CreateQualityPenalty(ctx, &p); err != nil {
		response.StoreErr(w, h.Log, "Quality penalty", "create quality penalty", err)
		return
	}
	h.Audit.Record(ctx, audit.ActionCreate, auth.ModuleQuality, p.ID,
		fmt.Sprintf("Assigned %s penalty to user %d for violation %d", p.PenaltyType, p.AssignedTo, p.ViolationID))
	response.Created(w, p)
}

func (h *Handler) UpdatePenalty(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathID(w, r, "id")
	if !ok {
		return
	}
	var p models.QualityPenalty
	if !common.DecodeUpdate(w, r, &p, func() { p.ID = id }) {
		return
	}
	ctx := r.Context()
	existing, err := h.Store.GetQualityPenalty(ctx, id)
	if !common.Found(w, h.Log, "Quality penalty", err) {
		return
	}
	if p.AssignedBy == 0 {
		p.AssignedBy = existing.AssignedBy
	}
	if !h.checkPenaltyRefs(w, r, &p) {
		return
	}
	if p.Status == "" {
		p.Status = existing.Status
	}
	if p.Currency == "" {
		p.Currency = existing.Currency
	}
	if err := h.Store.UpdateQualityPenalty(ctx, &p); err != nil {
		response.StoreErr(w, h.Log, "Quality penalty", "update quality penalty", err)
		return
	}
	h.Audit.Record(ctx, audit.ActionUpdate, auth.ModuleQuality, id, fmt.Sprintf("Penalty %d now %s", id, p.Status))
	response.OK(w, p)
}

func (h *Handler) DeletePenalty(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathID(w, r, "id")
	if !ok {
		return
	}
	ctx := r.Context()
	if err := h.Store.DeleteQualityPenalty(ctx, id); err != nil {
		response.StoreErr(w, h.Log, "Quality penalty", "delete quality penalty", err)
		return
	}
	h.Audit.Record(ctx, audit.ActionDelete, auth.ModuleQuality, id, fmt.Sprintf("Deleted penalty %d", id))
	response.NoContent(w)
}
