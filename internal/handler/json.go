package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/shiftly-dev/shiftly/backend/internal/domain"
)

type envelope map[string]any

func (h *Handler) logInternalServerError(r *http.Request, err error) {
	slog.Error("internal server error", "method", r.Method, "path", r.URL.Path, "error", err)
}

// readJSON decodes the request body into v. An empty body leaves v untouched.
func (h *Handler) readJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, h.config.Server.MaxBodyBytes)

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesError *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return nil
		case errors.As(err, &maxBytesError):
			return domain.Errorf(domain.ErrInvalidArgument, "Request body too large")
		default:
			return domain.Errorf(domain.ErrInvalidArgument, "Invalid JSON body")
		}
	}

	return nil
}

// readValidJSON decodes the request body and validates it against its struct tags.
func (h *Handler) readValidJSON(w http.ResponseWriter, r *http.Request, v any) error {
	if err := h.readJSON(w, r, v); err != nil {
		return err
	}
	return h.validate.Struct(v)
}

func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logInternalServerError(r, err)
	}
}

func (h *Handler) errorResponse(w http.ResponseWriter, r *http.Request, err error) {
	var domainErr *domain.Error
	var validationErrors validator.ValidationErrors

	switch {
	case errors.As(err, &validationErrors):
		h.writeJSON(w, r, http.StatusBadRequest, envelope{"message": validationErrors[0].Translate(h.translator)})
	case errors.As(err, &domainErr):
		h.writeJSON(w, r, statusOf(domainErr.Kind), envelope{"message": domainErr.Message})
	default:
		h.internalServerError(w, r, err)
	}
}

func (h *Handler) internalServerError(w http.ResponseWriter, r *http.Request, err error) {
	h.logInternalServerError(r, err)
	h.writeJSON(w, r, http.StatusInternalServerError, envelope{"message": "Server error"})
}

func statusOf(kind error) int {
	switch kind {
	case domain.ErrInvalidArgument, domain.ErrInvalidState:
		return http.StatusBadRequest
	case domain.ErrUnauthorized:
		return http.StatusUnauthorized
	case domain.ErrForbidden:
		return http.StatusForbidden
	case domain.ErrNotFound:
		return http.StatusNotFound
	case domain.ErrConflict:
		return http.StatusConflict
	case domain.ErrTooManyRequests:
		return http.StatusTooManyRequests
	}
	return http.StatusInternalServerError
}
