package handler

import (
	"net/http"

	"reservo/internal/keys/service"
	httputil "reservo/pkg/http"
	"reservo/pkg/logger"
	"reservo/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type KeyHandler struct {
	service service.KeyService
	log     *logger.Logger
}

func NewKeyHandler(service service.KeyService, log *logger.Logger) *KeyHandler {
	return &KeyHandler{
		service: service,
		log:     log,
	}
}

func (h *KeyHandler) CheckOut(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	requester, err := httputil.ExtractRequester(r)
	if err != nil {
		h.writeError(w, "CheckOut", err)
		return
	}
	var req model.CheckOutRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "CheckOut", err)
		return
	}

	tx, err := h.service.CheckOutKey(r.Context(), ps.ByName("key_id"), &req, requester)
	if err != nil {
		h.writeError(w, "CheckOut", err)
		return
	}

	if err := httputil.WriteCreated(w, tx); err != nil {
		h.log.Error("failed to write created response", "handler", "CheckOut", "operation", "WriteCreated", "error", err)
	}
}

func (h *KeyHandler) CheckIn(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	requester, err := httputil.ExtractRequester(r)
	if err != nil {
		h.writeError(w, "CheckIn", err)
		return
	}

	tx, err := h.service.CheckInKey(r.Context(), ps.ByName("id"), requester)
	if err != nil {
		h.writeError(w, "CheckIn", err)
		return
	}

	if err := httputil.WriteSuccess(w, tx); err != nil {
		h.log.Error("failed to write success response", "handler", "CheckIn", "operation", "WriteSuccess", "error", err)
	}
}

func (h *KeyHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	view, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, view); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *KeyHandler) ListOverdue(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, _, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "ListOverdue", err)
		return
	}

	views, err := h.service.ListOverdue(r.Context(), limit)
	if err != nil {
		h.writeError(w, "ListOverdue", err)
		return
	}

	if err := httputil.WriteSuccess(w, views); err != nil {
		h.log.Error("failed to write success response", "handler", "ListOverdue", "operation", "WriteSuccess", "error", err)
	}
}

func (h *KeyHandler) writeError(w http.ResponseWriter, name string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", name, "operation", "WriteError", "error", writeErr)
	}
}

func (h *KeyHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/keys/:key_id/checkout", h.CheckOut)
	router.GET("/api/v1/key-transactions/overdue", h.ListOverdue)
	router.GET("/api/v1/key-transactions/id/:id", h.GetByID)
	router.POST("/api/v1/key-transactions/id/:id/checkin", h.CheckIn)
}
