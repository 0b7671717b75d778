package manufacturing

import (
	"fmt"
	"net/http"

	"github.com/modplast83/MPBF-S-sub000/internal/audit"
	"github.com/modplast83/MPBF-S-sub000/internal/auth"
	"github.com/modplast83/MPBF-S-sub000/internal/handlers/common"
	"github.com/modplast83/MPBF-S-sub000/internal/models"
	"github.com/modplast83/MPBF-S-sub000/internal/response"
)

func (h *Handler) ListFinalProducts(w http.ResponseWriter, r *http.Request) {
	list, err := h.Store.ListFinalProducts(r.Context())
	if err != nil {
		response.Internal(w, h.Log, "Failed to get final products", err)
		return
	}
	response.OK(w, list)
}

func (h *Handler) GetFinalProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathID(w, r, "id")
	if !ok {
		return
	}
	fp, err := h.Store.GetFinalProduct(r.Context(), id)
	if !common.Found(w, h.Log, "Final product", err) {
		return
	}
	response.OK(w, fp)
}

func (h *Handler) CreateFinalProduct(w http.ResponseWriter, r *http.Request) {
	var fp models.FinalProduct
	if !response.Decode(w, r, &fp) {
		return
	}
	ctx := r.Context()
	if _, err := h.Store.GetJobOrder(ctx, fp.JobOrderID); !common.Found(w, h.Log, "Job order", err) {
		return
	}
	if err := h.Store.CreateFinalProduct(ctx, &fp); err != nil {
		response.StoreErr(w, h.Log, "Final product", "create final product", err)
		return
	}
	h.Audit.Record(ctx, audit.ActionCreate, auth.ModuleFinalProducts, fp.ID,
		fmt.Sprintf("Recorded %.2f finished for job order %d", fp.Quantity, fp.JobOrderID))
	response.Created(w, fp)
}

func (h *Handler) UpdateFinalProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathID(w, r, "id")
	if !ok {
		return
	}
	var fp models.FinalProduct
	if !common.DecodeUpdate(w, r, &fp, func() { fp.ID = id }) {
		return
	}
	ctx := r.Context()
	existing, err := h.Store.GetFinalProduct(ctx, id)
	if !common.Found(w, h.Log, "Final product", err) {
		return
	}
	if _, err := h.Store.GetJobOrder(ctx, fp.JobOrderID); !common.Found(w, h.Log, "Job order", err) {
		return
	}
	if fp.Status == "" {
		fp.Status = existing.Status
	}
	if fp.CompletedDate == "" {
		fp.CompletedDate = existing.CompletedDate
	}
	if err := h.Store.UpdateFinalProduct(ctx, &fp); err != nil {
		response.StoreErr(w, h.Log, "Final product", "update final product", err)
		return
	}
	h.Audit.Record(ctx, audit.ActionUpdate, auth.ModuleFinalProducts, id, fmt.Sprintf("Updated final product %d", id))
	response.OK(w, fp)
}

func (h *Handler) DeleteFinalProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathID(w, r, "id")
	if !ok {
		return
	}
	ctx := r.Context()
	if err := h.Store.DeleteFinalProduct(ctx, id); err != nil {
		response.StoreErr(w, h.Log, "Final product", "delete final product", err)
		return
	}
	h.Audit.Record(ctx, audit.ActionDelete, auth.ModuleFinalProducts, id, fmt.Sprintf("Deleted final product %d", id))
	response.NoContent(w)
}
