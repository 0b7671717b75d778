package hr

import (
	"fmt"
	"net/http"

	"github.com/modplast83/MPBF-S-sub000/internal/audit"
	"github.com/modplast83/MPBF-S-sub000/internal/auth"
	"github.com/modplast83/MPBF-S-sub000/internal/handlers/common"
	"github.com/modplast83/MPBF-S-sub000/internal/models"
	"github.com/modplast83/MPBF-S-sub000/internal/response"
)

func (h *Handler) ListViolations(w http.ResponseWriter, r *http.Request) {
	list, err := h.Store.ListHrViolations(r.Context())
	if err != nil {
		response.Internal(w, h.Log, "Failed to get HR violations", err)
		return
	}
	response.OK(w, list)
}

func (h *Handler) GetViolation(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathID(w, r, "id")
	if !ok {
		return
	}
	v, err := h.Store.GetHrViolation(r.Context(), id)
	if !common.Found(w, h.Log, "HR violation", err) {
		return
	}
	response.OK(w, v)
}

// ViolationsByUser handles GET /api/hr-violations/user/{userId}.
func (h *Handler) ViolationsByUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.PathID(w, r, "userId")
	if !ok {
		return
	}
	ctx := r.Context()
	if _, err := h.Store.GetUser(ctx, userID); !common.Found(w, h.Log, "User", err) {
		return
	}
	list, err := h.Store.ListHrViolationsByUser(ctx, userID)
	if err != nil {
		response.Internal(w, h.Log, "Failed to get HR violations", err)
		return
	}
	response.OK(w, list)
}

// CreateViolation records the session user as the reporter.
func (h *Handler) CreateViolation(w http.ResponseWriter, r *http.Request) {
	var v models.HrViolation
	if !response.Decode(w, r, &v) {
		return
	}
	if !h.checkUsers(w, r, &v.UserID) {
		return
	}
	ctx := r.Context()
	v.ReportedBy = currentUser(r)
	if err := h.Store.CreateHrViolation(ctx, &v); err != nil {
		response.StoreErr(w, h.Log, "HR violation", "create HR violation", err)
		return
	}
	h.Audit.Record(ctx, audit.ActionCreate, auth.ModuleHR, v.ID,
		fmt.Sprintf("Recorded %s %s violation for user %d", v.Severity, v.ViolationType, v.UserID))
	response.Created(w, v)
}

func (h *Handler) UpdateViolation(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathID(w, r, "id")
	if !ok {
		return
	}
	var v models.HrViolation
	if !common.DecodeUpdate(w, r, &v, func() { v.ID = id }) {
		return
	}
	ctx := r.Context()
	existing, err := h.Store.GetHrViolation(ctx, id)
	if !common.Found(w, h.Log, "HR violation", err) {
		return
	}
	if !h.checkUsers(w, r, &v.UserID) {
		return
	}
	v.ReportedBy = existing.ReportedBy
	if v.Status == "" {
		v.Status = existing.Status
	}
	if v.Date == "" {
		v.Date = existing.Date
	}
	if err := h.Store.UpdateHrViolation(ctx, &v); err != nil {
		response.StoreErr(w, h.Log, "HR violation", "update HR violation", err)
		return
	}
	h.Audit.Record(ctx, audit.ActionUpdate, auth.ModuleHR, id, fmt.Sprintf("HR violation %d now %s", id, v.Status))
	response.OK(w, v)
}

func (h *Handler) DeleteViolation(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathID(w, r, "id")
	if !ok {
		return
	}
	ctx := r.Context()
	if err := h.Store.DeleteHrViolation(ctx, id); err != nil {
		response.StoreErr(w, h.Log, "HR violation", "delete HR violation", err)
		return
	}
	h.Audit.Record(ctx, audit.ActionDelete, auth.ModuleHR, id, fmt.Sprintf("Deleted HR violation %d", id))
	response.NoContent(w)
}
