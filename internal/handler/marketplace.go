package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) ListOpenShifts(w http.ResponseWriter, r *http.Request) {
	shifts, err := h.service.ListOpenShifts(r.Context(), identity(r.Context()))
	if err != nil {
		h.errorResponse(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, envelope{"shifts": shifts})
}

func (h *Handler) Apply(w http.ResponseWriter, r *http.Request) {
	app, err := h.service.Apply(r.Context(), identity(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.errorResponse(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusCreated, envelope{"application": app})
}

func (h *Handler) ListApplicants(w http.ResponseWriter, r *http.Request) {
	applicants, err := h.service.ListApplicants(r.Context(), identity(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.errorResponse(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, envelope{"applicants": applicants})
}

func (h *Handler) Assign(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ApplicationID string `json:"applicationId"`
	}

	if err := h.readJSON(w, r, &req); err != nil {
		h.errorResponse(w, r, err)
		return
	}

	assignment, err := h.service.Assign(r.Context(), identity(r.Context()), chi.URLParam(r, "id"), req.ApplicationID)
	if err != nil {
		h.errorResponse(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, assignment)
}
