package handler

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"studiobook/internal/reservations/service"
	httputil "studiobook/pkg/http"
	"studiobook/pkg/logger"
	"studiobook/pkg/model"
)

type ReservationHandler struct {
	service service.ReservationService
	log     *logger.Logger
}

func NewReservationHandler(service service.ReservationService, log *logger.Logger) *ReservationHandler {
	return &ReservationHandler{
		service: service,
		log:     log,
	}
}

type SlotCheckResponse struct {
	Available bool `json:"available"`
}

func (h *ReservationHandler) Submit(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.ReservationRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "Submit", err)
		return
	}

	reservation, err := h.service.Submit(r.Context(), &req, httputil.Actor(r))
	if err != nil {
		h.writeError(w, "Submit", err)
		return
	}

	if err := httputil.WriteCreated(w, reservation); err != nil {
		h.log.Error("failed to write created response", "handler", "Submit", "operation", "WriteCreated", "error", err)
	}
}

func (h *ReservationHandler) CreateByAdmin(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.ReservationRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "CreateByAdmin", err)
		return
	}

	reservation, err := h.service.CreateByAdmin(r.Context(), &req, httputil.Actor(r))
	if err != nil {
		h.writeError(w, "CreateByAdmin", err)
		return
	}

	if err := httputil.WriteCreated(w, reservation); err != nil {
		h.log.Error("failed to write created response", "handler", "CreateByAdmin", "operation", "WriteCreated", "error", err)
	}
}

func (h *ReservationHandler) CheckSlot(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.SlotCheckRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "CheckSlot", err)
		return
	}

	if err := h.service.ValidateAndCheckSlot(r.Context(), &req); err != nil {
		h.writeError(w, "CheckSlot", err)
		return
	}

	if err := httputil.WriteSuccess(w, SlotCheckResponse{Available: true}); err != nil {
		h.log.Error("failed to write success response", "handler", "CheckSlot", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ReservationHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	reservation, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, reservation); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ReservationHandler) History(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	entries, err := h.service.History(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "History", err)
		return
	}

	if err := httputil.WriteSuccess(w, entries); err != nil {
		h.log.Error("failed to write success response", "handler", "History", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ReservationHandler) Transition(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req model.TransitionRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "Transition", err)
		return
	}

	reservation, err := h.service.TransitionReservation(r.Context(), ps.ByName("id"), &req, httputil.Actor(r))
	if err != nil {
		h.writeError(w, "Transition", err)
		return
	}

	if err := httputil.WriteSuccess(w, reservation); err != nil {
		h.log.Error("failed to write success response", "handler", "Transition", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ReservationHandler) Reschedule(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req model.ScheduleRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "Reschedule", err)
		return
	}

	reservation, err := h.service.RescheduleReservation(r.Context(), ps.ByName("id"), &req, httputil.Actor(r))
	if err != nil {
		h.writeError(w, "Reschedule", err)
		return
	}

	if err := httputil.WriteSuccess(w, reservation); err != nil {
		h.log.Error("failed to write success response", "handler", "Reschedule", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ReservationHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *ReservationHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/reservations", h.Submit)
	router.POST("/api/v1/reservations/check", h.CheckSlot)
	router.GET("/api/v1/reservations/id/:id", h.GetByID)
	router.GET("/api/v1/reservations/id/:id/history", h.History)
	router.POST("/api/v1/reservations/id/:id/transition", h.Transition)
	router.PATCH("/api/v1/reservations/id/:id/schedule", h.Reschedule)
	router.POST("/api/v1/admin/reservations", h.CreateByAdmin)
}
