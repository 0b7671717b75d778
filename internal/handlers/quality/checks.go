package quality

import (
	"fmt"
	"net/http"

	"github.com/modplast83/MPBF-S-sub000/internal/audit"
	"github.com/modplast83/MPBF-S-sub000/internal/auth"
	"github.com/modplast83/MPBF-S-sub000/internal/handlers/common"
	"github.com/modplast83/MPBF-S-sub000/internal/response"
)

func (h *Handler) ListChecks(w http.ResponseWriter, r *http.Request) {
	list, err := h.Store.ListQualityChecks(r.Context())
	if err != nil {
		response.Internal(w, h.Log, "Failed to get quality checks", err)
		return
	}
	response.OK(w, toViews(list))
}

func (h *Handler) GetCheck(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathID(w, r, "id")
	if !ok {
		return
	}
	c, err := h.Store.GetQualityCheck(r.Context(), id)
	if !common.Found(w, h.Log, "Quality check", err) {
		return
	}
	response.OK(w, toView(c))
}

// ChecksByRoll handles GET /api/quality-checks/roll/{rollId}.
func (h *Handler) ChecksByRoll(w http.ResponseWriter, r *http.Request) {
	rollID, ok := common.PathString(w, r, "rollId")
	if !ok {
		return
	}
	list, err := h.Store.ListQualityChecksByRoll(r.Context(), rollID)
	if err != nil {
		response.Internal(w, h.Log, "Failed to get quality checks", err)
		return
	}
	response.OK(w, toViews(list))
}

// ChecksByJobOrder handles GET /api/quality-checks/job-order/{jobOrderId}.
func (h *Handler) ChecksByJobOrder(w http.ResponseWriter, r *http.Request) {
	jobOrderID, ok := common.PathID(w, r, "jobOrderId")
	if !ok {
		return
	}
	list, err := h.Store.ListQualityChecksByJobOrder(r.Context(), jobOrderID)
	if err != nil {
		response.Internal(w, h.Log, "Failed to get quality checks", err)
		return
	}
	response.OK(w, toViews(list))
}

// resolveCheckRefs looks up the check type, roll, job order and inspector in
// that order. A check on a roll inherits the roll's job order.
func (h *Handler) resolveCheckRefs(w http.ResponseWriter, r *http.Request, v *QualityCheckView) bool {
	ctx := r.Context()
	if _, err := h.Store.GetQualityCheckType(ctx, v.CheckTypeID); !common.Found(w, h.Log, "Quality check type", err) {
		return false
	}
	if v.RollID != nil && *v.RollID != "" {
		roll, err := h.Store.GetRoll(ctx, *v.RollID)
		if !common.Found(w, h.Log, "Roll", err) {
			return false
		}
		if v.JobOrderID == nil {
			v.JobOrderID = &roll.JobOrderID
		} else if *v.JobOrderID != roll.JobOrderID {
			response.Err(w, fmt.Sprintf("Roll %s belongs to job order %d", roll.ID, roll.JobOrderID), http.StatusBadRequest)
			return false
		}
	}
	if v.JobOrderID != nil {
		if _, err := h.Store.GetJobOrder(ctx, *v.JobOrderID); !common.Found(w, h.Log, "Job order", err) {
			return false
		}
	}
	return h.checkUsers(w, r, v.PerformedBy)
}

func (h *Handler) CreateCheck(w http.ResponseWriter, r *http.Request) {
	var v QualityCheckView
	if !response.Decode(w, r, &v) {
		return
	}
	ctx := r.Context()
	if v.PerformedBy == nil {
		v.PerformedBy = auth.UserID(ctx)
	}
	if !h.resolveCheckRefs(w, r, &v) {
		return
	}
	row := toRow(v)
	if err := h.Store.CreateQualityCheck(ctx, &row); err != nil {
		response.StoreErr(w, h.Log, "Quality check", "create quality check", err)
		return
	}
	h.Audit.Record(ctx, audit.ActionCreate, auth.ModuleQuality, row.ID,
		fmt.Sprintf("Quality check %s: %s", row.CheckTypeID, row.Status))
	response.Created(w, toView(row))
}

func (h *Handler) UpdateCheck(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathID(w, r, "id")
	if !ok {
		return
	}
	var v QualityCheckView
	if !common.DecodeUpdate(w, r, &v, func() { v.ID = id }) {
		return
	}
	ctx := r.Context()
	existing, err := h.Store.GetQualityCheck(ctx, id)
	if !common.Found(w, h.Log, "Quality check", err) {
		return
	}
	if !h.resolveCheckRefs(w, r, &v) {
		return
	}
	if v.Timestamp == "" {
		v.Timestamp = existing.CheckedAt
	}
	row := toRow(v)
	if err := h.Store.UpdateQualityCheck(ctx, &row); err != nil {
		response.StoreErr(w, h.Log, "Quality check", "update quality check", err)
		return
	}
	h.Audit.Record(ctx, audit.ActionUpdate, auth.ModuleQuality, id,
		fmt.Sprintf("Quality check %d now %s", id, row.Status))
	response.OK(w, toView(row))
}

func (h *Handler) DeleteCheck(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathID(w, r, "id")
	if !ok {
		return
	}
	ctx := r.Context()
	if err := h.Store.DeleteQualityCheck(ctx, id); err != nil {
		response.StoreErr(w, h.Log, "Quality check", "delete quality check", err)
		return
	}
	h.Audit.Record(ctx, audit.ActionDelete, auth.ModuleQuality, id, fmt.Sprintf("Deleted quality check %d", id))
	response.NoContent(w)
}
