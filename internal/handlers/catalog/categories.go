package catalog

import (
	"net/http"

	"github.com/modplast83/MPBF-S-sub000/internal/audit"
	"github.com/modplast83/MPBF-S-sub000/internal/auth"
	"github.com/modplast83/MPBF-S-sub000/internal/handlers/common"
	"github.com/modplast83/MPBF-S-sub000/internal/models"
	"github.com/modplast83/MPBF-S-sub000/internal/response"
)

func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	list, err := h.Store.ListCategories(r.Context())
	if err != nil {
		response.Internal(w, h.Log, "Failed to get categories", err)
		return
	}
	response.OK(w, list)
}

func (h *Handler) GetCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathString(w, r, "id")
	if !ok {
		return
	}
	c, err := h.Store.GetCategory(r.Context(), id)
	if !common.Found(w, h.Log, "Category", err) {
		return
	}
	response.OK(w, c)
}

// CategoryItems handles GET /api/categories/{id}/items.
func (h *Handler) CategoryItems(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathString(w, r, "id")
	if !ok {
		return
	}
	ctx := r.Context()
	if _, err := h.Store.GetCategory(ctx, id); !common.Found(w, h.Log, "Category", err) {
		return
	}
	items, err := h.Store.ListItemsByCategory(ctx, id)
	if err != nil {
		response.Internal(w, h.Log, "Failed to get items", err)
		return
	}
	response.OK(w, items)
}

func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var c models.Category
	if !response.Decode(w, r, &c) {
		return
	}
	ctx := r.Context()
	taken, err := h.Store.CategoryCodeTaken(ctx, c.Code, c.ID)
	if !common.Unique(w, h.Log, "Category code already exists", taken, err) {
		return
	}
	if err := h.Store.CreateCategory(ctx, &c); err != nil {
		response.StoreErr(w, h.Log, "Category", "create category", err)
		return
	}
	h.Audit.Record(ctx, audit.ActionCreate, auth.ModuleCategories, c.ID, "Created category "+c.Name)
	response.Created(w, c)
}

func (h *Handler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathString(w, r, "id")
	if !ok {
		return
	}
	var c models.Category
	if !common.DecodeUpdate(w, r, &c, func() { c.ID = id }) {
		return
	}
	ctx := r.Context()
	if _, err := h.Store.GetCategory(ctx, id); !common.Found(w, h.Log, "Category", err) {
		return
	}
	taken, err := h.Store.CategoryCodeTaken(ctx, c.Code, id)
	if !common.Unique(w, h.Log, "Category code already exists", taken, err) {
		return
	}
	if err := h.Store.UpdateCategory(ctx, &c); err != nil {
		response.StoreErr(w, h.Log, "Category", "update category", err)
		return
	}
	h.Audit.Record(ctx, audit.ActionUpdate, auth.ModuleCategories, id, "Updated category "+c.Name)
	response.OK(w, c)
}

func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathString(w, r, "id")
	if !ok {
		return
	}
	ctx := r.Context()
	if err := h.Store.DeleteCategory(ctx, id); err != nil {
		response.StoreErr(w, h.Log, "Category", "delete category", err)
		return
	}
	h.Audit.Record(ctx, audit.ActionDelete, auth.ModuleCategories, id, "Deleted category "+id)
	response.NoContent(w)
}
