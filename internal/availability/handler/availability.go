package handler

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"studiobook/internal/availability/service"
	apperrors "studiobook/pkg/errors"
	httputil "studiobook/pkg/http"
	"studiobook/pkg/logger"
	"studiobook/pkg/model"
)

type AvailabilityHandler struct {
	service service.AvailabilityService
	log     *logger.Logger
}

func NewAvailabilityHandler(service service.AvailabilityService, log *logger.Logger) *AvailabilityHandler {
	return &AvailabilityHandler{
		service: service,
		log:     log,
	}
}

func (h *AvailabilityHandler) GetSlots(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	date := r.URL.Query().Get("date")
	if date == "" {
		h.writeError(w, "GetSlots", apperrors.InvalidInput("date parameter is required"))
		return
	}

	duration, err := httputil.QueryInt(r, "duration", 0)
	if err != nil {
		h.writeError(w, "GetSlots", err)
		return
	}

	slots, err := h.service.GetAvailableSlots(r.Context(), date, duration)
	if err != nil {
		h.writeError(w, "GetSlots", err)
		return
	}

	if err := httputil.WriteSuccess(w, slots); err != nil {
		h.log.Error("failed to write success response", "handler", "GetSlots", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AvailabilityHandler) GetConfig(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := httputil.WriteSuccess(w, h.service.GetConfig(r.Context())); err != nil {
		h.log.Error("failed to write success response", "handler", "GetConfig", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AvailabilityHandler) UpdateConfig(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var update model.AvailabilityConfigUpdate
	if err := httputil.DecodeJSON(r, &update); err != nil {
		h.writeError(w, "UpdateConfig", err)
		return
	}

	saved, err := h.service.UpdateConfig(r.Context(), &update, httputil.Actor(r))
	if err != nil {
		h.writeError(w, "UpdateConfig", err)
		return
	}

	if err := httputil.WriteSuccess(w, saved); err != nil {
		h.log.Error("failed to write success response", "handler", "UpdateConfig", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AvailabilityHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *AvailabilityHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/availability", h.GetSlots)
	router.GET("/api/v1/availability/config", h.GetConfig)
	router.PUT("/api/v1/availability/config", h.UpdateConfig)
}
