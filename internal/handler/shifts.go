package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shiftly-dev/shiftly/backend/internal/domain"
	"github.com/shiftly-dev/shiftly/backend/internal/service"
)

func (h *Handler) CreateShift(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Business  string  `json:"business" validate:"required"`
		RoleName  string  `json:"roleName" validate:"required"`
		Date      string  `json:"date" validate:"required"`
		StartTime string  `json:"startTime" validate:"required"`
		EndTime   string  `json:"endTime" validate:"required"`
		Pay       *string `json:"pay"`
		WorkerID  *string `json:"workerId"`
		Status    string  `json:"status"`
	}

	if err := h.readValidJSON(w, r, &req); err != nil {
		h.errorResponse(w, r, err)
		return
	}

	shift, err := h.service.CreateShift(r.Context(), identity(r.Context()), service.CreateShiftInput{
		Business:  req.Business,
		RoleName:  req.RoleName,
		Date:      req.Date,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Pay:       req.Pay,
		WorkerID:  req.WorkerID,
		Status:    req.Status,
	})
	if err != nil {
		h.errorResponse(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusCreated, envelope{"shift": shift})
}

func (h *Handler) ListManagerShifts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	shifts, err := h.service.ListManagerShifts(r.Context(), identity(r.Context()), query.Get("from"), query.Get("to"))
	if err != nil {
		h.errorResponse(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, envelope{"shifts": shifts})
}

func (h *Handler) ListMyShifts(w http.ResponseWriter, r *http.Request) {
	shifts, err := h.service.ListWorkerShifts(r.Context(), identity(r.Context()))
	if err != nil {
		h.errorResponse(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, envelope{"shifts": shifts})
}

func (h *Handler) GetShift(w http.ResponseWriter, r *http.Request) {
	shift, err := h.service.GetShift(r.Context(), identity(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.errorResponse(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, envelope{"shift": shift})
}

func (h *Handler) UpdateShift(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Business  *string                 `json:"business"`
		RoleName  *string                 `json:"roleName"`
		Date      *string                 `json:"date"`
		StartTime *string                 `json:"startTime"`
		EndTime   *string                 `json:"endTime"`
		Pay       domain.Optional[string] `json:"pay"`
		Status    *string                 `json:"status"`
		WorkerID  domain.Optional[string] `json:"workerId"`
	}

	if err := h.readJSON(w, r, &req); err != nil {
		h.errorResponse(w, r, err)
		return
	}

	shift, err := h.service.UpdateShift(r.Context(), identity(r.Context()), chi.URLParam(r, "id"), service.UpdateShiftInput{
		Business:  req.Business,
		RoleName:  req.RoleName,
		Date:      req.Date,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Pay:       req.Pay,
		Status:    req.Status,
		WorkerID:  req.WorkerID,
	})
	if err != nil {
		h.errorResponse(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, envelope{"shift": shift})
}

func (h *Handler) DeleteShift(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteShift(r.Context(), identity(r.Context()), chi.URLParam(r, "id")); err != nil {
		h.errorResponse(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, envelope{"ok": true})
}
