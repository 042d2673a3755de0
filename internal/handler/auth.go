package handler

import (
	"net/http"

	"github.com/shiftly-dev/shiftly/backend/internal/service"
)

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email" validate:"required,email"`
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
		Role     string `json:"role"`
	}

	if err := h.readValidJSON(w, r, &req); err != nil {
		h.errorResponse(w, r, err)
		return
	}

	user, token, err := h.service.Register(r.Context(), service.RegisterInput{
		Email:    req.Email,
		Username: req.Username,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		h.errorResponse(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusCreated, envelope{"user": user, "token": token})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		EmailOrUsername string `json:"emailOrUsername" validate:"required"`
		Password        string `json:"password" validate:"required"`
	}

	if err := h.readValidJSON(w, r, &req); err != nil {
		h.errorResponse(w, r, err)
		return
	}

	user, token, err := h.service.Login(r.Context(), req.EmailOrUsername, req.Password)
	if err != nil {
		h.errorResponse(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, envelope{"user": user, "token": token})
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, envelope{"user": identity(r.Context())})
}
