package admin

import (
	"fmt"
	"net/http"

	"github.com/modplast83/MPBF-S-sub000/internal/audit"
	"github.com/modplast83/MPBF-S-sub000/internal/auth"
	"github.com/modplast83/MPBF-S-sub000/internal/handlers/common"
	"github.com/modplast83/MPBF-S-sub000/internal/models"
	"github.com/modplast83/MPBF-S-sub000/internal/response"
)

// ModuleRequest is the body of module create and update. A missing
// is_active means active.
type ModuleRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	DisplayName string `json:"display_name" validate:"required,max=255"`
	Description string `json:"description" validate:"max=1000"`
	Category    string `json:"category" validate:"max=100"`
	Route       string `json:"route" validate:"max=255"`
	IsActive    *bool  `json:"is_active"`
}

func (req ModuleRequest) module(id int64) models.Module {
	return models.Module{
		ID:          id,
		Name:        req.Name,
		DisplayName: req.DisplayName,
		Description: req.Description,
		Category:    req.Category,
		Route:       req.Route,
		IsActive:    req.IsActive == nil || *req.IsActive,
	}
}

// PermissionRequest is the body of permission create and update. A missing
// is_active means active.
type PermissionRequest struct {
	SectionID string `json:"section_id" validate:"required"`
	ModuleID  int64  `json:"module_id" validate:"required"`
	CanView   bool   `json:"can_view"`
	CanCreate bool   `json:"can_create"`
	CanEdit   bool   `json:"can_edit"`
	CanDelete bool   `json:"can_delete"`
	IsActive  *bool  `json:"is_active"`
}

func (req PermissionRequest) permission(id int64) models.Permission {
	return models.Permission{
		ID:        id,
		SectionID: req.SectionID,
		ModuleID:  req.ModuleID,
		CanView:   req.CanView,
		CanCreate: req.CanCreate,
		CanEdit:   req.CanEdit,
		CanDelete: req.CanDelete,
		IsActive:  req.IsActive == nil || *req.IsActive,
	}
}

func (h *Handler) ListModules(w http.ResponseWriter, r *http.Request) {
	list, err := h.Store.ListModules(r.Context())
	if err != nil {
		response.Internal(w, h.Log, "Failed to get modules", err)
		return
	}
	response.OK(w, list)
}

func (h *Handler) GetModule(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathID(w, r, "id")
	if !ok {
		return
	}
	m, err := h.Store.GetModule(r.Context(), id)
	if !common.Found(w, h.Log, "Module", err) {
		return
	}
	response.OK(w, m)
}

func (h *Handler) CreateModule(w http.ResponseWriter, r *http.Request) {
	var req ModuleRequest
	if !response.Decode(w, r, &req) {
		return
	}
	ctx := r.Context()
	m := req.module(0)
	if err := h.Store.CreateModule(ctx, &m); err != nil {
		response.StoreErr(w, h.Log, "Module", "create module", err)
		return
	}
	h.RefreshPermissions(ctx)
	h.Audit.Record(ctx, audit.ActionCreate, auth.ModuleAccess, m.ID, "Created module "+m.Name)
	response.Created(w, m)
}

func (h *Handler) UpdateModule(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathID(w, r, "id")
	if !ok {
		return
	}
	var req ModuleRequest
	if !response.Decode(w, r, &req) {
		return
	}
	ctx := r.Context()
	m := req.module(id)
	if err := h.Store.UpdateModule(ctx, &m); err != nil {
		response.StoreErr(w, h.Log, "Module", "update module", err)
		return
	}
	h.RefreshPermissions(ctx)
	h.Audit.Record(ctx, audit.ActionUpdate, auth.ModuleAccess, id, fmt.Sprintf("Updated module %s (active=%t)", m.Name, m.IsActive))
	response.OK(w, m)
}

func (h *Handler) DeleteModule(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathID(w, r, "id")
	if !ok {
		return
	}
	ctx := r.Context()
	if err := h.Store.DeleteModule(ctx, id); err != nil {
		response.StoreErr(w, h.Log, "Module", "delete module", err)
		return
	}
	h.RefreshPermissions(ctx)
	h.Audit.Record(ctx, audit.ActionDelete, auth.ModuleAccess, id, fmt.Sprintf("Deleted module %d", id))
	response.NoContent(w)
}

func (h *Handler) ListPermissions(w http.ResponseWriter, r *http.Request) {
	list, err := h.Store.ListPermissions(r.Context())
	if err != nil {
		response.Internal(w, h.Log, "Failed to get permissions", err)
		return
	}
	response.OK(w, list)
}

func (h *Handler) GetPermission(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathID(w, r, "id")
	if !ok {
		return
	}
	p, err := h.Store.GetPermission(r.Context(), id)
	if !common.Found(w, h.Log, "Permission", err) {
		return
	}
	response.OK(w, p)
}

// PermissionsBySection handles GET /api/permissions/section/{sectionId}.
func (h *Handler) PermissionsBySection(w http.ResponseWriter, r *http.Request) {
	sectionID, ok := common.PathString(w, r, "sectionId")
	if !ok {
		return
	}
	if !h.checkSection(w, r, &sectionID) {
		return
	}
	list, err := h.Store.ListPermissionsBySection(r.Context(), sectionID)
	if err != nil {
		response.Internal(w, h.Log, "Failed to get permissions", err)
		return
	}
	response.OK(w, list)
}

func (h *Handler) checkPermissionRefs(w http.ResponseWriter, r *http.Request, p models.Permission) bool {
	if !h.checkSection(w, r, &p.SectionID) {
		return false
	}
	_, err := h.Store.GetModule(r.Context(), p.ModuleID)
	return common.Found(w, h.Log, "Module", err)
}

// CreatePermission grants a section access to a module. One row per
// section and module.
func (h *Handler) CreatePermission(w http.ResponseWriter, r *http.Request) {
	var req PermissionRequest
	if !response.Decode(w, r, &req) {
		return
	}
	p := req.permission(0)
	if !h.checkPermissionRefs(w, r, p) {
		return
	}
	ctx := r.Context()
	if err := h.Store.CreatePermission(ctx, &p); err != nil {
		response.StoreErr(w, h.Log, "Permission", "create permission", err)
		return
	}
	h.RefreshPermissions(ctx)
	h.Audit.Record(ctx, audit.ActionCreate, auth.ModuleAccess, p.ID,
		fmt.Sprintf("Granted section %s on module %d", p.SectionID, p.ModuleID))
	response.Created(w, p)
}

func (h *Handler) UpdatePermission(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathID(w, r, "id")
	if !ok {
		return
	}
	var req PermissionRequest
	if !response.Decode(w, r, &req) {
		return
	}
	ctx := r.Context()
	if _, err := h.Store.GetPermission(ctx, id); !common.Found(w, h.Log, "Permission", err) {
		return
	}
	p := req.permission(id)
	if !h.checkPermissionRefs(w, r, p) {
		return
	}
	if err := h.Store.UpdatePermission(ctx, &p); err != nil {
		response.StoreErr(w, h.Log, "Permission", "update permission", err)
		return
	}
	h.RefreshPermissions(ctx)
	h.Audit.Record(ctx, audit.ActionUpdate, auth.ModuleAccess, id,
		fmt.Sprintf("Section %s on module %d: view=%t create=%t edit=%t delete=%t",
			p.SectionID, p.ModuleID, p.CanView, p.CanCreate, p.CanEdit, p.CanDelete))
	response.OK(w, p)
}

func (h *Handler) DeletePermission(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathID(w, r, "id")
	if !ok {
		return
	}
	ctx := r.Context()
	if err := h.Store.DeletePermission(ctx, id); err != nil {
		response.StoreErr(w, h.Log, "Permission", "delete permission", err)
		return
	}
	h.RefreshPermissions(ctx)
	h.Audit.Record(ctx, audit.ActionDelete, auth.ModuleAccess, id, fmt.Sprintf("Revoked permission %d", id))
	response.NoContent(w)
}
