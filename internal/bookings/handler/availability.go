package handler

import (
	"net/http"
	"strconv"

	"roomio/internal/bookings/service"
	apperrors "roomio/pkg/errors"
	httputil "roomio/pkg/http"
	"roomio/pkg/logger"
	"roomio/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type AvailabilityHandler struct {
	service service.BookingService
	log     *logger.Logger
}

func NewAvailabilityHandler(service service.BookingService, log *logger.Logger) *AvailabilityHandler {
	return &AvailabilityHandler{
		service: service,
		log:     log,
	}
}

// Check answers whether a single room is free for an interval. The answer is
// advisory for callers; Create re-checks under the room lock before writing.
func (h *AvailabilityHandler) Check(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	roomID := r.URL.Query().Get("room_id")
	if roomID == "" {
		h.writeError(w, "Check", apperrors.InvalidInput("missing required parameter: room_id"))
		return
	}

	interval, err := h.extractInterval(r)
	if err != nil {
		h.writeError(w, "Check", err)
		return
	}

	free, err := h.service.CheckAvailability(r.Context(), roomID, interval, r.URL.Query().Get("exclude_booking_id"))
	if err != nil {
		h.writeError(w, "Check", err)
		return
	}

	if err := httputil.WriteSuccess(w, map[string]any{
		"room_id":    roomID,
		"start_time": interval.Start,
		"end_time":   interval.End,
		"available":  free,
	}); err != nil {
		h.log.Error("failed to write success response", "handler", "Check", "error", err)
	}
}

// SearchRooms lists bookable rooms free for the whole interval, optionally
// narrowed by room type and minimum capacity.
func (h *AvailabilityHandler) SearchRooms(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	interval, err := h.extractInterval(r)
	if err != nil {
		h.writeError(w, "SearchRooms", err)
		return
	}

	filter := model.RoomFilter{
		Type: model.RoomType(r.URL.Query().Get("room_type")),
	}
	if s := r.URL.Query().Get("min_capacity"); s != "" {
		minCapacity, err := strconv.Atoi(s)
		if err != nil || minCapacity < 0 {
			h.writeError(w, "SearchRooms", apperrors.InvalidInput("invalid min_capacity parameter: "+s))
			return
		}
		filter.MinCapacity = minCapacity
	}

	rooms, err := h.service.SearchAvailableRooms(r.Context(), interval, filter)
	if err != nil {
		h.writeError(w, "SearchRooms", err)
		return
	}

	if err := httputil.WriteSuccess(w, rooms); err != nil {
		h.log.Error("failed to write success response", "handler", "SearchRooms", "error", err)
	}
}

func (h *AvailabilityHandler) extractInterval(r *http.Request) (model.Interval, error) {
	start, err := httputil.ExtractTimeParam(r, "start_time", true)
	if err != nil {
		return model.Interval{}, err
	}
	end, err := httputil.ExtractTimeParam(r, "end_time", true)
	if err != nil {
		return model.Interval{}, err
	}

	interval, err := model.NewInterval(*start, *end)
	if err != nil {
		return model.Interval{}, apperrors.InvalidInput("start_time must be before end_time")
	}
	return interval, nil
}

func (h *AvailabilityHandler) writeError(w http.ResponseWriter, handlerName string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handlerName, "error", writeErr)
	}
}

func (h *AvailabilityHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/availability", h.Check)
	router.GET("/api/v1/availability/rooms", h.SearchRooms)
}
