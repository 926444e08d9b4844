// Package endpoints contains the HTTP endpoints for the folio API. Each
// endpoint declares its route and a cobra command that calls it, so every
// operation is usable from both HTTP and the CLI.
package endpoints

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"

	"github.com/jackzampolin/folio/internal/api"
	"github.com/jackzampolin/folio/internal/store"
	"github.com/jackzampolin/folio/internal/svcctx"
)

// validate checks request payload structs. Shared; validator instances cache
// struct metadata.
var validate = validator.New()

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// ErrorResponse is a standard error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// requestUserID extracts the authenticated user from the X-User-ID header.
// Authentication itself happens upstream (gateway); folio trusts the header
// and scopes every query by it.
func requestUserID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	raw := r.Header.Get("X-User-ID")
	if raw == "" {
		writeError(w, http.StatusUnauthorized, "X-User-ID header is required")
		return 0, false
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		writeError(w, http.StatusUnauthorized, "invalid X-User-ID header")
		return 0, false
	}
	return uint(id), true
}

// pathID parses the {id} path segment.
func pathID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	raw := r.PathValue("id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		writeError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return uint(id), true
}

// resolveOwnedEbook loads an ebook and enforces ownership. Accessing another
// user's ebook is forbidden, not hidden.
func resolveOwnedEbook(w http.ResponseWriter, r *http.Request, userID, ebookID uint) (*store.Ebook, bool) {
	s := svcctx.StoreFrom(r.Context())
	e, err := s.GetEbook(r.Context(), ebookID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "ebook not found")
		} else {
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return nil, false
	}
	if e.UserID != userID {
		writeError(w, http.StatusForbidden, "ebook belongs to another user")
		return nil, false
	}
	return e, true
}

// resolveOwnedSchedule loads a schedule and enforces ownership.
func resolveOwnedSchedule(w http.ResponseWriter, r *http.Request, userID, scheduleID uint) (*store.Schedule, bool) {
	s := svcctx.StoreFrom(r.Context())
	sched, err := s.GetSchedule(r.Context(), scheduleID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "schedule not found")
		} else {
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return nil, false
	}
	if sched.UserID != userID {
		writeError(w, http.StatusForbidden, "schedule belongs to another user")
		return nil, false
	}
	return sched, true
}

// decodeBody decodes a JSON request body and validates it.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	if err := validate.Struct(v); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

// newClient builds an API client for CLI commands, carrying the --user flag
// when set.
func newClient(cmd *cobra.Command, getServerURL func() string) *api.Client {
	c := api.NewClient(getServerURL())
	if user, err := cmd.Flags().GetString("user"); err == nil && user != "" {
		c = c.WithUser(user)
	}
	return c
}
