package quality

import (
	"net/http"

	"github.com/modplast83/MPBF-S-sub000/internal/audit"
	"github.com/modplast83/MPBF-S-sub000/internal/auth"
	"github.com/modplast83/MPBF-S-sub000/internal/handlers/common"
	"github.com/modplast83/MPBF-S-sub000/internal/models"
	"github.com/modplast83/MPBF-S-sub000/internal/response"
)

func (h *Handler) ListCheckTypes(w http.ResponseWriter, r *http.Request) {
	list, err := h.Store.ListQualityCheckTypes(r.Context())
	if err != nil {
		response.Internal(w, h.Log, "Failed to get quality check types", err)
		return
	}
	response.OK(w, list)
}

func (h *Handler) GetCheckType(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathString(w, r, "id")
	if !ok {
		return
	}
	ct, err := h.Store.GetQualityCheckType(r.Context(), id)
	if !common.Found(w, h.Log, "Quality check type", err) {
		return
	}
	response.OK(w, ct)
}

func (h *Handler) CreateCheckType(w http.ResponseWriter, r *http.Request) {
	var ct models.QualityCheckType
	if !response.Decode(w, r, &ct) {
		return
	}
	ctx := r.Context()
	if err := h.Store.CreateQualityCheckType(ctx, &ct); err != nil {
		response.StoreErr(w, h.Log, "Quality check type", "create quality check type", err)
		return
	}
	h.Audit.Record(ctx, audit.ActionCreate, auth.ModuleQuality, ct.ID, "Created check type "+ct.Name+" for "+ct.TargetStage)
	response.Created(w, ct)
}

func (h *Handler) UpdateCheckType(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathString(w, r, "id")
	if !ok {
		return
	}
	var ct models.QualityCheckType
	if !common.DecodeUpdate(w, r, &ct, func() { ct.ID = id }) {
		return
	}
	ctx := r.Context()
	if err := h.Store.UpdateQualityCheckType(ctx, &ct); err != nil {
		response.StoreErr(w, h.Log, "Quality check type", "update quality check type", err)
		return
	}
	h.Audit.Record(ctx, audit.ActionUpdate, auth.ModuleQuality, id, "Updated check type "+ct.Name)
	response.OK(w, ct)
}

func (h *Handler) DeleteCheckType(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathString(w, r, "id")
	if !ok {
		return
	}
	ctx := r.Context()
	if err := h.Store.DeleteQualityCheckType(ctx, id); err != nil {
		response.StoreErr(w, h.Log, "Quality check type", "delete quality check type", err)
		return
	}
	h.Audit.Record(ctx, audit.ActionDelete, auth.ModuleQuality, id, "Deleted check type "+id)
	response.NoContent(w)
}
