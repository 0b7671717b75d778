package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/modplast83/MPBF-S-sub000/internal/storage"
	"github.com/modplast83/MPBF-S-sub000/internal/validation"
)

// ErrorBody is the shape of every error response.
type ErrorBody struct {
	Message string                       `json:"message"`
	Errors  []validation.ValidationError `json:"errors,omitempty"`
	Error   string                       `json:"error,omitempty"`
}

// MaxBodyBytes caps request bodies decoded by DecodeBody.
const MaxBodyBytes = 5 << 20

// JSON writes data with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// OK writes data with 200.
func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, data)
}

// Created writes data with 201.
func Created(w http.ResponseWriter, data any) {
	JSON(w, http.StatusCreated, data)
}

// NoContent writes an empty 204.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// Err writes a JSON error response with the given message and HTTP status code.
func Err(w http.ResponseWriter, msg string, code int) {
	JSON(w, code, ErrorBody{Message: msg})
}

// Invalid writes a 400 with itemized field errors.
func Invalid(w http.ResponseWriter, ve *validation.ValidationErrors) {
	JSON(w, http.StatusBadRequest, ErrorBody{Message: "Validation failed", Errors: ve.Errors})
}

// NotFound writes a 404 naming the missing entity.
func NotFound(w http.ResponseWriter, entity string) {
	Err(w, entity+" not found", http.StatusNotFound)
}

// Internal logs err and writes a 500 carrying its text.
func Internal(w http.ResponseWriter, log *zap.Logger, msg string, err error) {
	log.Error(msg, zap.Error(err))
	JSON(w, http.StatusInternalServerError, ErrorBody{Message: msg, Error: err.Error()})
}

// StoreErr maps a storage error to its status. entity names the record for
// 404 and 409 messages, and action describes the operation for 500s.
func StoreErr(w http.ResponseWriter, log *zap.Logger, entity, action string, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		NotFound(w, entity)
	case errors.Is(err, storage.ErrReferenced):
		Err(w, fmt.Sprintf("%s is referenced by other records and cannot be changed", entity), http.StatusConflict)
	case errors.Is(err, storage.ErrConflict):
		Err(w, fmt.Sprintf("%s already exists", entity), http.StatusConflict)
	case errors.Is(err, storage.ErrInsufficientStock), errors.Is(err, storage.ErrInvalidQuantity):
		JSON(w, http.StatusBadRequest, ErrorBody{Message: err.Error()})
	default:
		Internal(w, log, "Failed to "+action, err)
	}
}

// DecodeBody decodes a JSON request body into v, rejecting unknown fields
// and trailing data. The error is safe to show to the client.
func DecodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	if r.Body == nil {
		return errors.New("request body is required")
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	if dec.More() {
		return errors.New("invalid JSON body: unexpected trailing data")
	}
	return nil
}

// Decode reads the body into v and validates it. It writes the 400 itself
// and reports whether the handler should continue.
func Decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := DecodeBody(w, r, v); err != nil {
		Err(w, err.Error(), http.StatusBadRequest)
		return false
	}
	if ve := validation.Struct(v); ve != nil {
		Invalid(w, ve)
		return false
	}
	return true
}
