package admin

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/modplast83/MPBF-S-sub000/internal/audit"
	"github.com/modplast83/MPBF-S-sub000/internal/auth"
	"github.com/modplast83/MPBF-S-sub000/internal/metrics"
	"github.com/modplast83/MPBF-S-sub000/internal/models"
	"github.com/modplast83/MPBF-S-sub000/internal/response"
	"github.com/modplast83/MPBF-S-sub000/internal/storage"
)

// LoginRequest is the body of POST /api/login.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// SessionResponse describes the signed-in user and what their section may do.
type SessionResponse struct {
	User        models.User         `json:"user"`
	Permissions map[string][]string `json:"permissions"`
	Token       string              `json:"token,omitempty"`
}

func (h *Handler) sessionResponse(u models.User) SessionResponse {
	res := SessionResponse{User: u, Permissions: map[string][]string{}}
	switch {
	case u.IsAdmin:
		for _, m := range auth.DefaultModules {
			res.Permissions[m.Name] = auth.AllActions
		}
	case u.SectionID != nil:
		res.Permissions = h.Perms.SectionPermissions(*u.SectionID)
	}
	return res
}

// Login authenticates a user and starts a session. Repeated failures lock
// the account for a while.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !response.Decode(w, r, &req) {
		return
	}
	ctx := r.Context()

	locked, err := auth.IsAccountLocked(ctx, h.Store, req.Username)
	if err != nil {
		response.Internal(w, h.Log, "Failed to check account lock", err)
		return
	}
	if locked {
		metrics.LoginAttempts.WithLabelValues("locked").Inc()
		response.Err(w, "Account temporarily locked due to too many failed login attempts. Try again later.", http.StatusForbidden)
		return
	}

	u, err := h.Store.GetUserByUsername(ctx, req.Username)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		response.Internal(w, h.Log, "Failed to load user", err)
		return
	}
	if err != nil || !auth.CheckPassword(u.Password, req.Password) {
		if err == nil {
			if err := auth.RecordFailure(ctx, h.Store, req.Username); err != nil {
				h.Log.Warn("record failed login", zap.String("username", req.Username), zap.Error(err))
			}
		}
		metrics.LoginAttempts.WithLabelValues("invalid").Inc()
		response.Err(w, auth.ErrInvalidCredentials.Error(), http.StatusUnauthorized)
		return
	}
	if !u.IsActive {
		metrics.LoginAttempts.WithLabelValues("inactive").Inc()
		response.Err(w, "Account deactivated", http.StatusForbidden)
		return
	}

	if err := h.Store.ResetFailedLogins(ctx, u.Username); err != nil {
		h.Log.Warn("reset failed logins", zap.Error(err))
	}
	if err := h.Store.SetLastLogin(ctx, u.ID); err != nil {
		h.Log.Warn("set last login", zap.Error(err))
	}
	token, err := h.StartSession(ctx, w, u.ID)
	if err != nil {
		response.Internal(w, h.Log, "Failed to create session", err)
		return
	}
	metrics.LoginAttempts.WithLabelValues("success").Inc()
	h.Audit.Record(auth.WithUser(ctx, u), audit.ActionLogin, auth.ModuleUsers, u.ID, "Signed in from "+audit.ClientIP(r))

	res := h.sessionResponse(u)
	res.Token = token
	response.OK(w, res)
}

// Logout ends the current session. It succeeds without a session too.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	su, _, ok := h.CurrentUser(r)
	if err := h.EndSession(w, r); err != nil {
		h.Log.Warn("end session", zap.Error(err))
	}
	if ok {
		h.Audit.Record(auth.WithUser(r.Context(), su.User), audit.ActionLogout, auth.ModuleUsers, su.ID, "Signed out")
	}
	response.OK(w, map[string]string{"message": "Logged out"})
}

// Me handles GET /api/user.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.UserFrom(r.Context())
	response.OK(w, h.sessionResponse(u))
}

// AuthDebug reports how the request's session resolves without requiring
// one.
func (h *Handler) AuthDebug(w http.ResponseWriter, r *http.Request) {
	_, cookieErr := r.Cookie(h.Config.Session.CookieName)
	out := map[string]any{
		"authenticated": false,
		"has_cookie":    cookieErr == nil,
		"has_bearer":    r.Header.Get("Authorization") != "",
		"cache_updated": h.Perms.Updated(),
		"session_ttl":   h.Config.Session.TTL.String(),
		"idle_timeout":  h.Config.Session.IdleTimeout.String(),
	}
	if su, _, ok := h.CurrentUser(r); ok {
		out["authenticated"] = true
		out["user_id"] = su.ID
		out["username"] = su.Username
		out["is_admin"] = su.IsAdmin
		out["section_id"] = su.SectionID
		out["expires_at"] = su.ExpiresAt
		out["last_activity"] = su.LastActivity
		out["permissions"] = h.sessionResponse(su.User).Permissions
	}
	response.OK(w, out)
}
