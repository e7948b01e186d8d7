package handler

import (
	"net/http"
	"strconv"

	"reservo/internal/resources/service"
	apperrors "reservo/pkg/errors"
	httputil "reservo/pkg/http"
	"reservo/pkg/logger"
	"reservo/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type ResourceHandler struct {
	service service.ResourceService
	log     *logger.Logger
}

func NewResourceHandler(service service.ResourceService, log *logger.Logger) *ResourceHandler {
	return &ResourceHandler{
		service: service,
		log:     log,
	}
}

func (h *ResourceHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requester, err := httputil.ExtractRequester(r)
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}
	var resource model.Resource
	if err := httputil.DecodeJSON(r, &resource); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := h.service.Create(r.Context(), &resource, requester); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, resource); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *ResourceHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "List", err)
		return
	}

	resources, total, err := h.service.List(r.Context(), r.URL.Query().Get("category"), limit, offset)
	if err != nil {
		h.writeError(w, "List", err)
		return
	}

	if err := httputil.WritePaginated(w, resources, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "List", "operation", "WritePaginated", "error", err)
	}
}

func (h *ResourceHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	resource, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	h.respond(w, "GetByID", resource, err)
}

func (h *ResourceHandler) SetStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	requester, err := httputil.ExtractRequester(r)
	if err != nil {
		h.writeError(w, "SetStatus", err)
		return
	}
	var req model.ResourceStatusUpdate
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "SetStatus", err)
		return
	}

	resource, err := h.service.SetStatus(r.Context(), ps.ByName("id"), req.Status, requester)
	h.respond(w, "SetStatus", resource, err)
}

func (h *ResourceHandler) ReportIssue(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	requester, err := httputil.ExtractRequester(r)
	if err != nil {
		h.writeError(w, "ReportIssue", err)
		return
	}
	var req model.IssueReport
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "ReportIssue", err)
		return
	}

	issue, err := h.service.ReportIssue(r.Context(), ps.ByName("id"), &req, requester)
	if err != nil {
		h.writeError(w, "ReportIssue", err)
		return
	}

	if err := httputil.WriteCreated(w, issue); err != nil {
		h.log.Error("failed to write created response", "handler", "ReportIssue", "operation", "WriteCreated", "error", err)
	}
}

func (h *ResourceHandler) ListIssues(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	openOnly := false
	if s := r.URL.Query().Get("open"); s != "" {
		v, err := strconv.ParseBool(s)
		if err != nil {
			h.writeError(w, "ListIssues", apperrors.InvalidInput("invalid open parameter: "+s))
			return
		}
		openOnly = v
	}

	issues, err := h.service.ListIssues(r.Context(), ps.ByName("id"), openOnly)
	h.respond(w, "ListIssues", issues, err)
}

func (h *ResourceHandler) UpdateIssueStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	requester, err := httputil.ExtractRequester(r)
	if err != nil {
		h.writeError(w, "UpdateIssueStatus", err)
		return
	}
	var req model.IssueStatusUpdate
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "UpdateIssueStatus", err)
		return
	}

	issue, err := h.service.UpdateIssueStatus(r.Context(), ps.ByName("id"), req.Status, requester)
	h.respond(w, "UpdateIssueStatus", issue, err)
}

func (h *ResourceHandler) ListTimetable(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	entries, err := h.service.ListTimetable(r.Context(), ps.ByName("id"))
	h.respond(w, "ListTimetable", entries, err)
}

func (h *ResourceHandler) UpsertTimetableEntry(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requester, err := httputil.ExtractRequester(r)
	if err != nil {
		h.writeError(w, "UpsertTimetableEntry", err)
		return
	}
	var entry model.TimetableEntry
	if err := httputil.DecodeJSON(r, &entry); err != nil {
		h.writeError(w, "UpsertTimetableEntry", err)
		return
	}

	err = h.service.UpsertTimetableEntry(r.Context(), &entry, requester)
	h.respond(w, "UpsertTimetableEntry", entry, err)
}

func (h *ResourceHandler) DeleteTimetableEntry(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	requester, err := httputil.ExtractRequester(r)
	if err != nil {
		h.writeError(w, "DeleteTimetableEntry", err)
		return
	}
	if err := h.service.DeleteTimetableEntry(r.Context(), ps.ByName("id"), requester); err != nil {
		h.writeError(w, "DeleteTimetableEntry", err)
		return
	}
	httputil.WriteNoContent(w)
}

func (h *ResourceHandler) respond(w http.ResponseWriter, name string, data any, err error) {
	if err != nil {
		h.writeError(w, name, err)
		return
	}
	if err := httputil.WriteSuccess(w, data); err != nil {
		h.log.Error("failed to write success response", "handler", name, "operation", "WriteSuccess", "error", err)
	}
}

func (h *ResourceHandler) writeError(w http.ResponseWriter, name string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", name, "operation", "WriteError", "error", writeErr)
	}
}

func (h *ResourceHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/resources", h.Create)
	router.GET("/api/v1/resources", h.List)
	router.GET("/api/v1/resources/id/:id", h.GetByID)
	router.POST("/api/v1/resources/id/:id/status", h.SetStatus)
	router.POST("/api/v1/resources/id/:id/issues", h.ReportIssue)
	router.GET("/api/v1/resources/id/:id/issues", h.ListIssues)
	router.GET("/api/v1/resources/id/:id/timetable", h.ListTimetable)
	router.POST("/api/v1/issues/id/:id/status", h.UpdateIssueStatus)
	router.PUT("/api/v1/timetable", h.UpsertTimetableEntry)
	router.DELETE("/api/v1/timetable/id/:id", h.DeleteTimetableEntry)
}
