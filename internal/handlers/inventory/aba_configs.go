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

func (h *Handler) ListAbaConfigs(w http.ResponseWriter, r *http.Request) {
	list, err := h.Store.ListAbaMaterialConfigs(r.Context())
	if err != nil {
		response.Internal(w, h.Log, "Failed to get ABA material configs", err)
		return
	}
	response.OK(w, list)
}

func (h *Handler) GetAbaConfig(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathID(w, r, "id")
	if !ok {
		return
	}
	c, err := h.Store.GetAbaMaterialConfig(r.Context(), id)
	if !common.Found(w, h.Log, "ABA material config", err) {
		return
	}
	response.OK(w, c)
}

func (h *Handler) CreateAbaConfig(w http.ResponseWriter, r *http.Request) {
	var c models.AbaMaterialConfig
	if !response.Decode(w, r, &c) {
		return
	}
	ctx := r.Context()
	c.CreatedBy = auth.UserID(ctx)
	if err := h.Store.CreateAbaMaterialConfig(ctx, &c); err != nil {
		response.StoreErr(w, h.Log, "ABA material config", "create ABA material config", err)
		return
	}
	h.Audit.Record(ctx, audit.ActionCreate, auth.ModuleAbaConfigs, c.ID, "Created ABA config "+c.Name)
	response.Created(w, c)
}

func (h *Handler) UpdateAbaConfig(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathID(w, r, "id")
	if !ok {
		return
	}
	var c models.AbaMaterialConfig
	if !common.DecodeUpdate(w, r, &c, func() { c.ID = id }) {
		return
	}
	ctx := r.Context()
	existing, err := h.Store.GetAbaMaterialConfig(ctx, id)
	if !common.Found(w, h.Log, "ABA material config", err) {
		return
	}
	c.CreatedBy = existing.CreatedBy
	c.CreatedAt = existing.CreatedAt
	if err := h.Store.UpdateAbaMaterialConfig(ctx, &c); err != nil {
		response.StoreErr(w, h.Log, "ABA material config", "update ABA material config", err)
		return
	}
	h.Audit.Record(ctx, audit.ActionUpdate, auth.ModuleAbaConfigs, id, "Updated ABA config "+c.Name)
	response.OK(w, c)
}

// SetDefaultAbaConfig handles POST /api/aba-material-configs/{id}/default.
func (h *Handler) SetDefaultAbaConfig(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathID(w, r, "id")
	if !ok {
		return
	}
	ctx := r.Context()
	if err := h.Store.SetDefaultAbaMaterialConfig(ctx, id); err != nil {
		response.StoreErr(w, h.Log, "ABA material config", "set default ABA material config", err)
		return
	}
	c, err := h.Store.GetAbaMaterialConfig(ctx, id)
	if !common.Found(w, h.Log, "ABA material config", err) {
		return
	}
	h.Audit.Record(ctx, audit.ActionUpdate, auth.ModuleAbaConfigs, id, fmt.Sprintf("ABA config %s is now the default", c.Name))
	response.OK(w, c)
}

func (h *Handler) DeleteAbaConfig(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathID(w, r, "id")
	if !ok {
		return
	}
	ctx := r.Context()
	if err := h.Store.DeleteAbaMaterialConfig(ctx, id); err != nil {
		response.StoreErr(w, h.Log, "ABA material config", "delete ABA material config", err)
		return
	}
	h.Audit.Record(ctx, audit.ActionDelete, auth.ModuleAbaConfigs, id, fmt.Sprintf("Deleted ABA config %d", id))
	response.NoContent(w)
}
