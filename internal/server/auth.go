package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/modplast83/MPBF-S-sub000/internal/auth"
	"github.com/modplast83/MPBF-S-sub000/internal/models"
	"github.com/modplast83/MPBF-S-sub000/internal/response"
	"github.com/modplast83/MPBF-S-sub000/internal/storage"
)

// sessionToken returns the session token from the cookie or a Bearer header.
func (a *App) sessionToken(r *http.Request) string {
	if c, err := r.Cookie(a.Config.Session.CookieName); err == nil && c.Value != "" {
		return c.Value
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return ""
}

func (a *App) setCookie(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     a.Config.Session.CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   a.Config.Session.Secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  expires,
	})
}

// StartSession creates a session for userID and sets the session cookie.
func (a *App) StartSession(ctx context.Context, w http.ResponseWriter, userID int64) (string, error) {
	if _, err := a.Store.PurgeExpiredSessions(ctx); err != nil {
		a.Log.Warn("purge expired sessions", zap.Error(err))
	}
	token := uuid.NewString()
	expires := time.Now().Add(a.Config.Session.TTL)
	if err := a.Store.CreateSession(ctx, token, userID, expires); err != nil {
		return "", err
	}
	a.setCookie(w, token, expires)
	return token, nil
}

// EndSession deletes the request's session, if any, and clears the cookie.
func (a *App) EndSession(w http.ResponseWriter, r *http.Request) error {
	var err error
	if token := a.sessionToken(r); token != "" {
		err = a.Store.DeleteSession(r.Context(), token)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     a.Config.Session.CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
	return err
}

// CurrentUser resolves the request's session without enforcing anything.
// Expired, idle or deactivated sessions report false.
func (a *App) CurrentUser(r *http.Request) (storage.SessionUser, string, bool) {
	token := a.sessionToken(r)
	if token == "" {
		return storage.SessionUser{}, "", false
	}
	su, err := a.Store.GetSessionUser(r.Context(), token)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			a.Log.Error("load session", zap.Error(err))
		}
		return su, token, false
	}
	if !su.IsActive {
		return su, token, false
	}
	if idle := a.Config.Session.IdleTimeout; idle > 0 && su.LastActivity != "" {
		last, err := time.ParseInLocation(models.TimeLayout, su.LastActivity, time.Local)
		if err == nil && time.Since(last) > idle {
			_ = a.Store.DeleteSession(r.Context(), token)
			return su, token, false
		}
	}
	return su, token, true
}

// RequireAuth rejects requests without a live session with 401. The session
// expiry slides forward on every authenticated request.
func (a *App) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		su, token, ok := a.CurrentUser(r)
		if !ok {
			response.Err(w, "Not authenticated", http.StatusUnauthorized)
			return
		}

		expires := time.Now().Add(a.Config.Session.TTL)
		if err := a.Store.TouchSession(r.Context(), token, expires); err != nil {
			a.Log.Warn("touch session", zap.Error(err))
		} else if _, err := r.Cookie(a.Config.Session.CookieName); err == nil {
			a.setCookie(w, token, expires)
		}

		next(w, r.WithContext(auth.WithUser(r.Context(), su.User)))
	}
}

// RequirePermission rejects authenticated users whose section lacks
// module/action with 403. Administrators always pass.
func (a *App) RequirePermission(module, action string, next http.HandlerFunc) http.HandlerFunc {
	return a.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		u, _ := auth.UserFrom(r.Context())
		if !a.Perms.Allowed(u, module, action) {
			response.Err(w, "Permission denied", http.StatusForbidden)
			return
		}
		next(w, r)
	})
}

// RequireAdmin allows only administrators.
func (a *App) RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return a.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		u, _ := auth.UserFrom(r.Context())
		if !u.IsAdmin {
			response.Err(w, "Administrator access required", http.StatusForbidden)
			return
		}
		next(w, r)
	})
}

// RefreshPermissions reloads the permission cache, logging failures.
func (a *App) RefreshPermissions(ctx context.Context) {
	if err := a.Perms.Refresh(ctx, a.Store); err != nil {
		a.Log.Error("refresh permission cache", zap.Error(err))
	}
}
