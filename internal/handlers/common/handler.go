// Package common holds helpers shared by every handler package plus the
// cross-cutting read endpoints: reports and the user dashboard.
package common

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/modplast83/MPBF-S-sub000/internal/response"
	"github.com/modplast83/MPBF-S-sub000/internal/server"
	"github.com/modplast83/MPBF-S-sub000/internal/storage"
	"github.com/modplast83/MPBF-S-sub000/internal/validation"
)

// Handler serves the report and dashboard routes.
type Handler struct {
	*server.App
}

func New(app *server.App) *Handler {
	return &Handler{App: app}
}

// PathID parses the integer path value name. It writes a 400 and returns
// false when the value is not a positive integer.
func PathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		response.Err(w, "Invalid "+name, http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// PathString returns the trimmed string path value name, writing a 400 when
// it is empty.
func PathString(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	v := strings.TrimSpace(r.PathValue(name))
	if v == "" {
		response.Err(w, "Invalid "+name, http.StatusBadRequest)
		return "", false
	}
	return v, true
}

// Found checks the error of a lookup. A missing record writes a 404 naming
// entity; any other error writes a 500.
func Found(w http.ResponseWriter, log *zap.Logger, entity string, err error) bool {
	switch {
	case err == nil:
		return true
	case errors.Is(err, storage.ErrNotFound):
		response.NotFound(w, entity)
	default:
		response.Internal(w, log, "Failed to load "+strings.ToLower(entity), err)
	}
	return false
}

// Unique writes a 409 when taken is true and a 500 when err is set.
func Unique(w http.ResponseWriter, log *zap.Logger, msg string, taken bool, err error) bool {
	if err != nil {
		response.Internal(w, log, "Failed to check uniqueness", err)
		return false
	}
	if taken {
		response.Err(w, msg, http.StatusConflict)
		return false
	}
	return true
}

// QueryInt reads an integer query parameter, falling back to def when it is
// missing or malformed.
func QueryInt(r *http.Request, name string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil {
		return def
	}
	return v
}

// DecodeUpdate decodes the body into v, runs set to copy path values onto
// it, then validates. It writes the 400 itself.
func DecodeUpdate(w http.ResponseWriter, r *http.Request, v any, set func()) bool {
	if err := response.DecodeBody(w, r, v); err != nil {
		response.Err(w, err.Error(), http.StatusBadRequest)
		return false
	}
	if set != nil {
		set()
	}
	if ve := validation.Struct(v); ve != nil {
		response.Invalid(w, ve)
		return false
	}
	return true
}
