package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"spence/internal/auth"
	"spence/internal/core"
)

// respondJSON writes v with the given status. A nil v writes just the status.
func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Response encode failed", "error", err)
	}
}

type errorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// writeError maps the domain error taxonomy onto HTTP statuses. Anything
// unrecognized is a 500 with a generic body so internals never leak.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *core.ValidationError
	switch {
	case errors.As(err, &ve):
		respondJSON(w, http.StatusBadRequest, errorBody{Error: "validation failed", Fields: ve.Fields})
	case errors.Is(err, core.ErrNotFound):
		respondJSON(w, http.StatusNotFound, errorBody{Error: "not found"})
	case errors.Is(err, core.ErrEmailTaken):
		respondJSON(w, http.StatusUnauthorized, errorBody{Error: "email already in use"})
	case errors.Is(err, core.ErrInvalidCredentials):
		respondJSON(w, http.StatusUnauthorized, errorBody{Error: "invalid email or password"})
	case errors.Is(err, auth.ErrInvalidToken):
		respondJSON(w, http.StatusUnauthorized, errorBody{Error: "invalid or expired token"})
	default:
		slog.ErrorContext(r.Context(), "Request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err)
		respondJSON(w, http.StatusInternalServerError, errorBody{Error: "internal server error"})
	}
}

// decodeJSON decodes the request body into dst, rejecting unknown fields.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return &core.ValidationError{Fields: map[string]string{"body": "malformed request body"}}
	}
	return nil
}

// userID pulls the authenticated user id out of the request context. The
// auth middleware guarantees it is present on protected routes.
func userID(r *http.Request) (int64, error) {
	id, ok := auth.UserID(r.Context())
	if !ok {
		return 0, auth.ErrInvalidToken
	}
	return id, nil
}
