package catalog

import (
	"net/http"

	"github.com/modplast83/MPBF-S-sub000/internal/audit"
	"github.com/modplast83/MPBF-S-sub000/internal/auth"
	"github.com/modplast83/MPBF-S-sub000/internal/handlers/common"
	"github.com/modplast83/MPBF-S-sub000/internal/models"
	"github.com/modplast83/MPBF-S-sub000/internal/response"
)

func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	list, err := h.Store.ListItems(r.Context())
	if err != nil {
		response.Internal(w, h.Log, "Failed to get items", err)
		return
	}
	response.OK(w, list)
}

func (h *Handler) GetItem(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathString(w, r, "id")
	if !ok {
		return
	}
	it, err := h.Store.GetItem(r.Context(), id)
	if !common.Found(w, h.Log, "Item", err) {
		return
	}
	response.OK(w, it)
}

func (h *Handler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var it models.Item
	if !response.Decode(w, r, &it) {
		return
	}
	ctx := r.Context()
	if _, err := h.Store.GetCategory(ctx, it.CategoryID); !common.Found(w, h.Log, "Category", err) {
		return
	}
	if err := h.Store.CreateItem(ctx, &it); err != nil {
		response.StoreErr(w, h.Log, "Item", "create item", err)
		return
	}
	h.Audit.Record(ctx, audit.ActionCreate, auth.ModuleItems, it.ID, "Created item "+it.Name)
	response.Created(w, it)
}

func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathString(w, r, "id")
	if !ok {
		return
	}
	var it models.Item
	if !common.DecodeUpdate(w, r, &it, func() { it.ID = id }) {
		return
	}
	ctx := r.Context()
	if _, err := h.Store.GetItem(ctx, id); !common.Found(w, h.Log, "Item", err) {
		return
	}
	if _, err := h.Store.GetCategory(ctx, it.CategoryID); !common.Found(w, h.Log, "Category", err) {
		return
	}
	if err := h.Store.UpdateItem(ctx, &it); err != nil {
		response.StoreErr(w, h.Log, "Item", "update item", err)
		return
	}
	h.Audit.Record(ctx, audit.ActionUpdate, auth.ModuleItems, id, "Updated item "+it.Name)
	response.OK(w, it)
}

func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathString(w, r, "id")
	if !ok {
		return
	}
	ctx := r.Context()
	if err := h.Store.DeleteItem(ctx, id); err != nil {
		response.StoreErr(w, h.Log, "Item", "delete item", err)
		return
	}
	h.Audit.Record(ctx, audit.ActionDelete, auth.ModuleItems, id, "Deleted item "+id)
	response.NoContent(w)
}
