package admin

import (
	"fmt"
	"net/http"

	"github.com/modplast83/MPBF-S-sub000/internal/audit"
	"github.com/modplast83/MPBF-S-sub000/internal/auth"
	"github.com/modplast83/MPBF-S-sub000/internal/handlers/common"
	"github.com/modplast83/MPBF-S-sub000/internal/models"
	"github.com/modplast83/MPBF-S-sub000/internal/response"
	"github.com/modplast83/MPBF-S-sub000/internal/validation"
)

// UserRequest is the body of user create and update. Password is required
// on create and optional on update.
type UserRequest struct {
	Username  string  `json:"username" validate:"required,min=3,max=100"`
	Password  string  `json:"password"`
	Name      string  `json:"name" validate:"max=255"`
	Email     string  `json:"email" validate:"omitempty,email"`
	Phone     string  `json:"phone" validate:"max=50"`
	IsAdmin   bool    `json:"is_admin"`
	IsActive  *bool   `json:"is_active"`
	SectionID *string `json:"section_id" validate:"omitempty,max=50"`
}

func (req UserRequest) user(id int64) models.User {
	u := models.User{
		ID:        id,
		Username:  req.Username,
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		IsAdmin:   req.IsAdmin,
		IsActive:  true,
		SectionID: req.SectionID,
	}
	if req.IsActive != nil {
		u.IsActive = *req.IsActive
	}
	return u
}

// hashPassword checks the password policy and hashes it. It writes the 400
// itself.
func (h *Handler) hashPassword(w http.ResponseWriter, password string) (string, bool) {
	if err := auth.ValidatePasswordStrength(password); err != nil {
		ve := &validation.ValidationErrors{}
		ve.Add("password", err.Error())
		response.Invalid(w, ve)
		return "", false
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		response.Internal(w, h.Log, "Failed to hash password", err)
		return "", false
	}
	return hash, true
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	list, err := h.Store.ListUsers(r.Context())
	if err != nil {
		response.Internal(w, h.Log, "Failed to get users", err)
		return
	}
	response.OK(w, list)
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathID(w, r, "id")
	if !ok {
		return
	}
	u, err := h.Store.GetUser(r.Context(), id)
	if !common.Found(w, h.Log, "User", err) {
		return
	}
	response.OK(w, u)
}

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req UserRequest
	if !response.Decode(w, r, &req) {
		return
	}
	if !h.checkSection(w, r, req.SectionID) {
		return
	}
	ctx := r.Context()
	taken, err := h.Store.UsernameTaken(ctx, req.Username, 0)
	if !common.Unique(w, h.Log, "Username already exists", taken, err) {
		return
	}
	hash, ok := h.hashPassword(w, req.Password)
	if !ok {
		return
	}
	u := req.user(0)
	u.Password = hash
	if err := h.Store.CreateUser(ctx, &u); err != nil {
		response.StoreErr(w, h.Log, "User", "create user", err)
		return
	}
	h.Audit.Record(ctx, audit.ActionCreate, auth.ModuleUsers, u.ID, "Created user "+u.Username)
	response.Created(w, u)
}

// UpdateUser rewrites the profile. Deactivating a user ends their sessions.
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathID(w, r, "id")
	if !ok {
		return
	}
	var req UserRequest
	if !response.Decode(w, r, &req) {
		return
	}
	ctx := r.Context()
	existing, err := h.Store.GetUser(ctx, id)
	if !common.Found(w, h.Log, "User", err) {
		return
	}
	if !h.checkSection(w, r, req.SectionID) {
		return
	}
	taken, err := h.Store.UsernameTaken(ctx, req.Username, id)
	if !common.Unique(w, h.Log, "Username already exists", taken, err) {
		return
	}
	u := req.user(id)
	if req.IsActive == nil {
		u.IsActive = existing.IsActive
	}
	u.CreatedAt = existing.CreatedAt
	if req.Password != "" {
		if u.Password, ok = h.hashPassword(w, req.Password); !ok {
			return
		}
	}
	if err := h.Store.UpdateUser(ctx, &u); err != nil {
		response.StoreErr(w, h.Log, "User", "update user", err)
		return
	}
	if !u.IsActive || req.Password != "" {
		if err := h.Store.DeleteUserSessions(ctx, id); err != nil {
			response.Internal(w, h.Log, "Failed to end user sessions", err)
			return
		}
	}
	h.Audit.Record(ctx, audit.ActionUpdate, auth.ModuleUsers, id, fmt.Sprintf("Updated user %s (active=%t)", u.Username, u.IsActive))
	response.OK(w, u)
}

func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := common.PathID(w, r, "id")
	if !ok {
		return
	}
	ctx := r.Context()
	if me := auth.UserID(ctx); me != nil && *me == id {
		response.Err(w, "Cannot delete your own account", http.StatusBadRequest)
		return
	}
	if err := h.Store.DeleteUser(ctx, id); err != nil {
		response.StoreErr(w, h.Log, "User", "delete user", err)
		return
	}
	h.Audit.Record(ctx, audit.ActionDelete, auth.ModuleUsers, id, fmt.Sprintf("Deleted user %d", id))
	response.NoContent(w)
}
