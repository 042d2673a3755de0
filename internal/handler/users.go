package handler

import (
	"net/http"
)

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	includeBosses := r.URL.Query().Get("includeBosses") == "true"

	users, err := h.service.ListUsers(r.Context(), includeBosses)
	if err != nil {
		h.errorResponse(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, envelope{"users": users})
}
