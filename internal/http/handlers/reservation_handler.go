package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tixhive/auth-api/internal/domain"
	"github.com/tixhive/auth-api/internal/http/middleware"
	"github.com/tixhive/auth-api/internal/http/response"
	"github.com/tixhive/auth-api/internal/service"
)

// ReservationHandler serves ticket reservation codes for authenticated
// buyers. Mounted behind the buyer role gate.
type ReservationHandler struct {
	Reservations service.ReservationService
}

func NewReservationHandler(reservations service.ReservationService) *ReservationHandler {
	return &ReservationHandler{Reservations: reservations}
}

func (h *ReservationHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/code", h.createCode)
	r.Post("/resolve", h.resolveCode)
	return r
}

func (h *ReservationHandler) createCode(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.SubjectID(r)
	if !ok {
		response.Unauthorized(w, "missing subject")
		return
	}

	var req domain.ReservationCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	code, rows, err := h.Reservations.CreateReservationCode(r.Context(), userID, &req)
	if err != nil {
		response.MapError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusCreated, map[string]any{
		"code":         code,
		"reservations": rows,
	})
}

func (h *ReservationHandler) resolveCode(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.SubjectID(r)
	if !ok {
		response.Unauthorized(w, "missing subject")
		return
	}

	var req domain.ResolveReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	rows, err := h.Reservations.ResolveReservationCode(r.Context(), userID, req.Code)
	if err != nil {
		response.MapError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, map[string]any{"reservations": rows})
}
