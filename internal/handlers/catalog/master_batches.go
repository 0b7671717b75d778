package catalog

import (
	"net/http"

	"github.com/modplast83/MPBF-S-sub000/internal/audit"
	"github.com/modplast83/MPBF-S-sub000/internal/auth"
	"github.com/modplast83/MPBF-S-sub000/internal/handlers/common"
	"github.com/modplast83/MPBF-S-sub000/internal/models"
	"github.com/modplast83/MPBF-S-sub000/internal/response"
)

func (h *Handler) ListMasterBatches(w http.ResponseWriter, r *http.Request) {
	list, err := h.Store.ListMasterBatches(r.Context())
	if err != nil {
		response.Internal(w, h.Log, "Failed to get master batches", err)
		return
	}
	response.OK(w, list)
}

func (h *Handler) GetMasterBatch(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathString(w, r, "id")
	if !ok {
		return
	}
	mb, err := h.Store.GetMasterBatch(r.Context(), id)
	if !common.Found(w, h.Log, "Master batch", err) {
		return
	}
	response.OK(w, mb)
}

func (h *Handler) CreateMasterBatch(w http.ResponseWriter, r *http.Request) {
	var mb models.MasterBatch
	if !response.Decode(w, r, &mb) {
		return
	}
	ctx := r.Context()
	if err := h.Store.CreateMasterBatch(ctx, &mb); err != nil {
		response.StoreErr(w, h.Log, "Master batch", "create master batch", err)
		return
	}
	h.Audit.Record(ctx, audit.ActionCreate, auth.ModuleMasterBatches, mb.ID, "Created master batch "+mb.Name)
	response.Created(w, mb)
}

func (h *Handler) UpdateMasterBatch(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathString(w, r, "id")
	if !ok {
		return
	}
	var mb models.MasterBatch
	if !common.DecodeUpdate(w, r, &mb, func() { mb.ID = id }) {
		return
	}
	ctx := r.Context()
	if err := h.Store.UpdateMasterBatch(ctx, &mb); err != nil {
		response.StoreErr(w, h.Log, "Master batch", "update master batch", err)
		return
	}
	h.Audit.Record(ctx, audit.ActionUpdate, auth.ModuleMasterBatches, id, "Updated master batch "+mb.Name)
	response.OK(w, mb)
}

func (h *Handler) DeleteMasterBatch(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathString(w, r, "id")
	if !ok {
		return
	}
	ctx := r.Context()
	if err := h.Store.DeleteMasterBatch(ctx, id); err != nil {
		response.StoreErr(w, h.Log, "Master batch", "delete master batch", err)
		return
	}
	h.Audit.Record(ctx, audit.ActionDelete, auth.ModuleMasterBatches, id, "Deleted master batch "+id)
	response.NoContent(w)
}
