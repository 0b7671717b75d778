package catalog

import (
	"net/http"

	"github.com/modplast83/MPBF-S-sub000/internal/audit"
	"github.com/modplast83/MPBF-S-sub000/internal/auth"
	"github.com/modplast83/MPBF-S-sub000/internal/handlers/common"
	"github.com/modplast83/MPBF-S-sub000/internal/models"
	"github.com/modplast83/MPBF-S-sub000/internal/response"
)

func (h *Handler) ListMachines(w http.ResponseWriter, r *http.Request) {
	list, err := h.Store.ListMachines(r.Context())
	if err != nil {
		response.Internal(w, h.Log, "Failed to get machines", err)
		return
	}
	response.OK(w, list)
}

func (h *Handler) GetMachine(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathString(w, r, "id")
	if !ok {
		return
	}
	m, err := h.Store.GetMachine(r.Context(), id)
	if !common.Found(w, h.Log, "Machine", err) {
		return
	}
	response.OK(w, m)
}

// checkSection verifies an optional section reference.
func (h *Handler) checkSection(w http.ResponseWriter, r *http.Request, sectionID *string) bool {
	if sectionID == nil || *sectionID == "" {
		return true
	}
	_, err := h.Store.GetSection(r.Context(), *sectionID)
	return common.Found(w, h.Log, "Section", err)
}

func (h *Handler) CreateMachine(w http.ResponseWriter, r *http.Request) {
	var m models.Machine
	if !response.Decode(w, r, &m) {
		return
	}
	if !h.checkSection(w, r, m.SectionID) {
		return
	}
	ctx := r.Context()
	if err := h.Store.CreateMachine(ctx, &m); err != nil {
		response.StoreErr(w, h.Log, "Machine", "create machine", err)
		return
	}
	h.Audit.Record(ctx, audit.ActionCreate, auth.ModuleMachines, m.ID, "Created machine "+m.Name)
	response.Created(w, m)
}

func (h *Handler) UpdateMachine(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathString(w, r, "id")
	if !ok {
		return
	}
	var m models.Machine
	if !common.DecodeUpdate(w, r, &m, func() { m.ID = id }) {
		return
	}
	ctx := r.Context()
	if _, err := h.Store.GetMachine(ctx, id); !common.Found(w, h.Log, "Machine", err) {
		return
	}
	if !h.checkSection(w, r, m.SectionID) {
		return
	}
	if err := h.Store.UpdateMachine(ctx, &m); err != nil {
		response.StoreErr(w, h.Log, "Machine", "update machine", err)
		return
	}
	h.Audit.Record(ctx, audit.ActionUpdate, auth.ModuleMachines, id, "Updated machine "+m.Name)
	response.OK(w, m)
}

func (h *Handler) DeleteMachine(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathString(w, r, "id")
	if !ok {
		return
	}
	ctx := r.Context()
	if err := h.Store.DeleteMachine(ctx, id); err != nil {
		response.StoreErr(w, h.Log, "Machine", "delete machine", err)
		return
	}
	h.Audit.Record(ctx, audit.ActionDelete, auth.ModuleMachines, id, "Deleted machine "+id)
	response.NoContent(w)
}
