package inventory

import (
	"fmt"
	"net/http"

	"github.com/modplast83/MPBF-S-sub000/internal/audit"
	"github.com/modplast83/MPBF-S-sub000/internal/auth"
	"github.com/modplast83/MPBF-S-sub000/internal/handlers/common"
	"github.com/modplast83/MPBF-S-sub000/internal/models"
	"github.com/modplast83/MPBF-S-sub000/internal/response"
)

func (h *Handler) ListMaterialInputs(w http.ResponseWriter, r *http.Request) {
	list, err := h.Store.ListMaterialInputs(r.Context())
	if err != nil {
		response.Internal(w, h.Log, "Failed to get material inputs", err)
		return
	}
	response.OK(w, list)
}

func (h *Handler) GetMaterialInput(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathID(w, r, "id")
	if !ok {
		return
	}
	in, err := h.Store.GetMaterialInput(r.Context(), id)
	if !common.Found(w, h.Log, "Material input", err) {
		return
	}
	response.OK(w, in)
}

// CreateMaterialInput records a goods receipt and adds each line to stock.
func (h *Handler) CreateMaterialInput(w http.ResponseWriter, r *http.Request) {
	var in models.MaterialInput
	if !response.Decode(w, r, &in) {
		return
	}
	ctx := r.Context()
	total := 0.0
	for _, it := range in.Items {
		if !h.checkRawMaterials(w, r, it.RawMaterialID) {
			return
		}
		total += it.Quantity
	}
	if in.UserID == nil {
		in.UserID = auth.UserID(ctx)
	}
	if err := h.Store.CreateMaterialInput(ctx, &in); err != nil {
		response.StoreErr(w, h.Log, "Material input", "create material input", err)
		return
	}
	h.Audit.Record(ctx, audit.ActionCreate, auth.ModuleMaterialInputs, in.ID,
		fmt.Sprintf("Received %d lines (%.2f total) into stock", len(in.Items), total))
	response.Created(w, in)
}

// DeleteMaterialInput reverses the receipt. Material already consumed by a
// mix makes the reversal fail with 400.
func (h *Handler) DeleteMaterialInput(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathID(w, r, "id")
	if !ok {
		return
	}
	ctx := r.Context()
	if err := h.Store.DeleteMaterialInput(ctx, id); err != nil {
		response.StoreErr(w, h.Log, "Material input", "delete material input", err)
		return
	}
	h.Audit.Record(ctx, audit.ActionDelete, auth.ModuleMaterialInputs, id, fmt.Sprintf("Reversed material input %d", id))
	response.NoContent(w)
}
