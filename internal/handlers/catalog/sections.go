package catalog

import (
	"net/http"

	"github.com/modplast83/MPBF-S-sub000/internal/audit"
	"github.com/modplast83/MPBF-S-sub000/internal/auth"
	"github.com/modplast83/MPBF-S-sub000/internal/handlers/common"
	"github.com/modplast83/MPBF-S-sub000/internal/models"
	"github.com/modplast83/MPBF-S-sub000/internal/response"
)

func (h *Handler) ListSections(w http.ResponseWriter, r *http.Request) {
	list, err := h.Store.ListSections(r.Context())
	if err != nil {
		response.Internal(w, h.Log, "Failed to get sections", err)
		return
	}
	response.OK(w, list)
}

func (h *Handler) GetSection(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathString(w, r, "id")
	if !ok {
		return
	}
	sec, err := h.Store.GetSection(r.Context(), id)
	if !common.Found(w, h.Log, "Section", err) {
		return
	}
	response.OK(w, sec)
}

// SectionMachines handles GET /api/sections/{id}/machines.
func (h *Handler) SectionMachines(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathString(w, r, "id")
	if !ok {
		return
	}
	ctx := r.Context()
	if _, err := h.Store.GetSection(ctx, id); !common.Found(w, h.Log, "Section", err) {
		return
	}
	machines, err := h.Store.ListMachinesBySection(ctx, id)
	if err != nil {
		response.Internal(w, h.Log, "Failed to get machines", err)
		return
	}
	response.OK(w, machines)
}

func (h *Handler) CreateSection(w http.ResponseWriter, r *http.Request) {
	var sec models.Section
	if !response.Decode(w, r, &sec) {
		return
	}
	ctx := r.Context()
	if err := h.Store.CreateSection(ctx, &sec); err != nil {
		response.StoreErr(w, h.Log, "Section", "create section", err)
		return
	}
	h.Audit.Record(ctx, audit.ActionCreate, auth.ModuleSections, sec.ID, "Created section "+sec.Name)
	response.Created(w, sec)
}

func (h *Handler) UpdateSection(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathString(w, r, "id")
	if !ok {
		return
	}
	var sec models.Section
	if !common.DecodeUpdate(w, r, &sec, func() { sec.ID = id }) {
		return
	}
	ctx := r.Context()
	if err := h.Store.UpdateSection(ctx, &sec); err != nil {
		response.StoreErr(w, h.Log, "Section", "update section", err)
		return
	}
	h.Audit.Record(ctx, audit.ActionUpdate, auth.ModuleSections, id, "Updated section "+sec.Name)
	response.OK(w, sec)
}

func (h *Handler) DeleteSection(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathString(w, r, "id")
	if !ok {
		return
	}
	ctx := r.Context()
	if err := h.Store.DeleteSection(ctx, id); err != nil {
		response.StoreErr(w, h.Log, "Section", "delete section", err)
		return
	}
	h.Audit.Record(ctx, audit.ActionDelete, auth.ModuleSections, id, "Deleted section "+id)
	response.NoContent(w)
}
