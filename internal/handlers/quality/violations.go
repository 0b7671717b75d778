package quality

import (
	"fmt"
	"net/http"
	"time"

	"github.com/modplast83/MPBF-S-sub000/internal/audit"
	"github.com/modplast83/MPBF-S-sub000/internal/auth"
	"github.com/modplast83/MPBF-S-sub000/internal/handlers/common"
	"github.com/modplast83/MPBF-S-sub000/internal/models"
	"github.com/modplast83/MPBF-S-sub000/internal/response"
)

// currentUser returns the session user's id, or 0 outside a session.
func currentUser(r *http.Request) int64 {
	if id := auth.UserID(r.Context()); id != nil {
		return *id
	}
	return 0
}

func (h *Handler) ListViolations(w http.ResponseWriter, r *http.Request) {
	list, err := h.Store.ListQualityViolations(r.Context())
	if err != nil {
		response.Internal(w, h.Log, "Failed to get quality violations", err)
		return
	}
	response.OK(w, list)
}

func (h *Handler) GetViolation(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathID(w, r, "id")
	if !ok {
		return
	}
	v, err := h.Store.GetQualityViolation(r.Context(), id)
	if !common.Found(w, h.Log, "Quality violation", err) {
		return
	}
	response.OK(w, v)
}

func (h *Handler) checkViolationRefs(w http.ResponseWriter, r *http.Request, v *models.QualityViolation) bool {
	if v.QualityCheckID != nil {
		if _, err := h.Store.GetQualityCheck(r.Context(), *v.QualityCheckID); !common.Found(w, h.Log, "Quality check", err) {
			return false
		}
	}
	return h.checkUsers(w, r, &v.ReportedBy)
}

// CreateViolation defaults the reporter to the session user.
func (h *Handler) CreateViolation(w http.ResponseWriter, r *http.Request) {
	var v models.QualityViolation
	if !common.DecodeUpdate(w, r, &v, func() {
		if v.ReportedBy == 0 {
			v.ReportedBy = currentUser(r)
		}
	}) {
		return
	}
	if !h.checkViolationRefs(w, r, &v) {
		return
	}
	ctx := r.Context()
	if err := h.Store.CreateQualityViolation(ctx, &v); err != nil {
		response.StoreErr(w, h.Log, "Quality violation", "create quality violation", err)
		return
	}
	h.Audit.Record(ctx, audit.ActionCreate, auth.ModuleQuality, v.ID,
		fmt.Sprintf("Reported %s %s violation", v.Severity, v.ViolationType))
	response.Created(w, v)
}

// UpdateViolation stamps resolved_date the first time the violation is
// resolved or closed.
func (h *Handler) UpdateViolation(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathID(w, r, "id")
	if !ok {
		return
	}
	var v models.QualityViolation
	if !common.DecodeUpdate(w, r, &v, func() { v.ID = id }) {
		return
	}
	ctx := r.Context()
	existing, err := h.Store.GetQualityViolation(ctx, id)
	if !common.Found(w, h.Log, "Quality violation", err) {
		return
	}
	if !h.checkViolationRefs(w, r, &v) {
		return
	}
	if v.Status == "" {
		v.Status = existing.Status
	}
	if v.ReportDate == "" {
		v.ReportDate = existing.ReportDate
	}
	if v.ResolvedDate == "" {
		v.ResolvedDate = existing.ResolvedDate
	}
	if (v.Status == "resolved" || v.Status == "closed") && v.ResolvedDate == "" {
		v.ResolvedDate = time.Now().Format(models.TimeLayout)
	}
	if err := h.Store.UpdateQualityViolation(ctx, &v); err != nil {
		response.StoreErr(w, h.Log, "Quality violation", "update quality violation", err)
		return
	}
	h.Audit.Record(ctx, audit.ActionUpdate, auth.ModuleQuality, id, fmt.Sprintf("Violation %d now %s", id, v.Status))
	response.OK(w, v)
}

func (h *Handler) DeleteViolation(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathID(w, r, "id")
	if !ok {
		return
	}
	ctx := r.Context()
	if err := h.Store.DeleteQualityViolation(ctx, id); err != nil {
		response.StoreErr(w, h.Log, "Quality violation", "delete quality violation", err)
		return
	}
	h.Audit.Record(ctx, audit.ActionDelete, auth.ModuleQuality, id, fmt.Sprintf("Deleted violation %d", id))
	response.NoContent(w)
}
