package handler

import (
	"net/http"

	"reservo/internal/bookings/service"
	apperrors "reservo/pkg/errors"
	httputil "reservo/pkg/http"
	"reservo/pkg/logger"
	"reservo/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type BookingHandler struct {
	service service.BookingService
	log     *logger.Logger
}

func NewBookingHandler(service service.BookingService, log *logger.Logger) *BookingHandler {
	return &BookingHandler{
		service: service,
		log:     log,
	}
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requester, err := httputil.ExtractRequester(r)
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}
	var req model.BookingRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	booking, err := h.service.CreateBooking(r.Context(), &req, requester)
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, booking); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *BookingHandler) CheckAvailability(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requester, err := httputil.ExtractRequester(r)
	if err != nil {
		h.writeError(w, "CheckAvailability", err)
		return
	}
	var req model.AvailabilityRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "CheckAvailability", err)
		return
	}

	availability, err := h.service.CheckAvailability(r.Context(), &req, requester)
	if err != nil {
		h.writeError(w, "CheckAvailability", err)
		return
	}

	if err := httputil.WriteSuccess(w, availability); err != nil {
		h.log.Error("failed to write success response", "handler", "CheckAvailability", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	booking, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) Search(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "Search", err)
		return
	}
	from, err := httputil.ParseTimeParam(r, "from")
	if err != nil {
		h.writeError(w, "Search", err)
		return
	}
	to, err := httputil.ParseTimeParam(r, "to")
	if err != nil {
		h.writeError(w, "Search", err)
		return
	}
	if (from == nil) != (to == nil) {
		h.writeError(w, "Search", apperrors.InvalidInput("from and to must be given together"))
		return
	}
	var window *model.Interval
	if from != nil {
		window = &model.Interval{Start: *from, End: *to}
	}

	bookings, total, err := h.service.SearchByResource(r.Context(), r.URL.Query().Get("resource_id"), window, limit, offset)
	if err != nil {
		h.writeError(w, "Search", err)
		return
	}

	if err := httputil.WritePaginated(w, bookings, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "Search", "operation", "WritePaginated", "error", err)
	}
}

func (h *BookingHandler) Approve(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.act(w, r, "Approve", func(requester model.Requester) (*model.Booking, error) {
		return h.service.Approve(r.Context(), ps.ByName("id"), requester)
	})
}

func (h *BookingHandler) Reject(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req model.RejectRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "Reject", err)
		return
	}
	h.act(w, r, "Reject", func(requester model.Requester) (*model.Booking, error) {
		return h.service.Reject(r.Context(), ps.ByName("id"), requester, req.Reason)
	})
}

func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req model.CancelRequest
	if r.ContentLength != 0 {
		if err := httputil.DecodeJSON(r, &req); err != nil {
			h.writeError(w, "Cancel", err)
			return
		}
	}
	h.act(w, r, "Cancel", func(requester model.Requester) (*model.Booking, error) {
		return h.service.Cancel(r.Context(), ps.ByName("id"), requester, req.Reason)
	})
}

func (h *BookingHandler) Occupancy(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req model.OccupancyRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "Occupancy", err)
		return
	}
	h.act(w, r, "Occupancy", func(requester model.Requester) (*model.Booking, error) {
		return h.service.TransitionOccupancy(r.Context(), ps.ByName("id"), requester, req.Status)
	})
}

func (h *BookingHandler) act(w http.ResponseWriter, r *http.Request, name string, fn func(model.Requester) (*model.Booking, error)) {
	requester, err := httputil.ExtractRequester(r)
	if err != nil {
		h.writeError(w, name, err)
		return
	}
	booking, err := fn(requester)
	if err != nil {
		h.writeError(w, name, err)
		return
	}
	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", name, "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) writeError(w http.ResponseWriter, name string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", name, "operation", "WriteError", "error", writeErr)
	}
}

func (h *BookingHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/bookings", h.Create)
	router.GET("/api/v1/bookings/search", h.Search)
	router.GET("/api/v1/bookings/id/:id", h.GetByID)
	router.POST("/api/v1/bookings/id/:id/approve", h.Approve)
	router.POST("/api/v1/bookings/id/:id/reject", h.Reject)
	router.POST("/api/v1/bookings/id/:id/cancel", h.Cancel)
	router.POST("/api/v1/bookings/id/:id/occupancy", h.Occupancy)
	router.POST("/api/v1/availability", h.CheckAvailability)
}
