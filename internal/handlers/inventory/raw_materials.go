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

func (h *Handler) ListRawMaterials(w http.ResponseWriter, r *http.Request) {
	list, err := h.Store.ListRawMaterials(r.Context())
	if err != nil {
		response.Internal(w, h.Log, "Failed to get raw materials", err)
		return
	}
	response.OK(w, list)
}

func (h *Handler) GetRawMaterial(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathID(w, r, "id")
	if !ok {
		return
	}
	m, err := h.Store.GetRawMaterial(r.Context(), id)
	if !common.Found(w, h.Log, "Raw material", err) {
		return
	}
	response.OK(w, m)
}

func (h *Handler) CreateRawMaterial(w http.ResponseWriter, r *http.Request) {
	var m models.RawMaterial
	if !response.Decode(w, r, &m) {
		return
	}
	ctx := r.Context()
	if err := h.Store.CreateRawMaterial(ctx, &m); err != nil {
		response.StoreErr(w, h.Log, "Raw material", "create raw material", err)
		return
	}
	h.Audit.Record(ctx, audit.ActionCreate, auth.ModuleRawMaterials, m.ID,
		fmt.Sprintf("Created raw material %s (%.2f %s)", m.Name, m.Quantity, m.Unit))
	response.Created(w, m)
}

func (h *Handler) UpdateRawMaterial(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathID(w, r, "id")
	if !ok {
		return
	}
	var m models.RawMaterial
	if !common.DecodeUpdate(w, r, &m, func() { m.ID = id }) {
		return
	}
	ctx := r.Context()
	if err := h.Store.UpdateRawMaterial(ctx, &m); err != nil {
		response.StoreErr(w, h.Log, "Raw material", "update raw material", err)
		return
	}
	h.Audit.Record(ctx, audit.ActionUpdate, auth.ModuleRawMaterials, id,
		fmt.Sprintf("Updated raw material %s: %.2f %s on hand", m.Name, m.Quantity, m.Unit))
	response.OK(w, m)
}

func (h *Handler) DeleteRawMaterial(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathID(w, r, "id")
	if !ok {
		return
	}
	ctx := r.Context()
	if err := h.Store.DeleteRawMaterial(ctx, id); err != nil {
		response.StoreErr(w, h.Log, "Raw material", "delete raw material", err)
		return
	}
	h.Audit.Record(ctx, audit.ActionDelete, auth.ModuleRawMaterials, id, fmt.Sprintf("Deleted raw material %d", id))
	response.NoContent(w)
}
