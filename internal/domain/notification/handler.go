package notification

import (
	"log/slog"
	"net/http"

	"medinotify/internal/common"
	"medinotify/internal/middleware"

	"github.com/gin-gonic/gin"
)

// Handler handles HTTP requests for the notification domain.
type Handler struct {
	service *Service
}

// NewHandler creates a new notification handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Send handles POST /api/v1/notifications/send
// Dispatch is synchronous; the response carries one result per channel attempt.
func (h *Handler) Send(c *gin.Context) {
	var req SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Error(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	outcome, err := h.service.Send(c.Request.Context(), &req)
	if err != nil {
		slog.Error("notification send failed",
			"error", err,
			"kind", req.Kind,
			"appointment_id", req.AppointmentID,
			"request_id", middleware.GetRequestID(c),
		)
		common.HandleError(c, err)
		return
	}

	common.Success(c, http.StatusOK, outcome)
}

// ScheduleReminder handles POST /api/v1/reminders
func (h *Handler) ScheduleReminder(c *gin.Context) {
	var req ScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Error(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	result, err := h.service.ScheduleReminder(c.Request.Context(), &req)
	if err != nil {
		slog.Error("reminder scheduling failed",
			"error", err,
			"appointment_id", req.AppointmentID,
			"request_id", middleware.GetRequestID(c),
		)
		common.HandleError(c, err)
		return
	}

	status := http.StatusCreated
	if result.AlreadyScheduled {
		status = http.StatusOK
	}
	common.Success(c, status, result)
}

// CancelReminders handles DELETE /api/v1/reminders/:appointment_id
func (h *Handler) CancelReminders(c *gin.Context) {
	appointmentID := c.Param("appointment_id")

	n, err := h.service.CancelReminders(c.Request.Context(), appointmentID)
	if err != nil {
		common.HandleError(c, err)
		return
	}

	common.Success(c, http.StatusOK, gin.H{
		"appointment_id": appointmentID,
		"cancelled":      n,
	})
}

// ListLogs handles GET /api/v1/logs
func (h *Handler) ListLogs(c *gin.Context) {
	var filter LogFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		common.Error(c, http.StatusBadRequest, "invalid query parameters: "+err.Error())
		return
	}

	resp, err := h.service.ListLogs(c.Request.Context(), filter)
	if err != nil {
		common.HandleError(c, err)
		return
	}

	common.Success(c, http.StatusOK, resp)
}

// GetLog handles GET /api/v1/logs/:id
func (h *Handler) GetLog(c *gin.Context) {
	id := c.Param("id")

	entry, err := h.service.GetLog(c.Request.Context(), id)
	if err != nil {
		common.HandleError(c, err)
		return
	}

	common.Success(c, http.StatusOK, entry)
}

// ListTemplates handles GET /api/v1/templates
func (h *Handler) ListTemplates(c *gin.Context) {
	templates, err := h.service.ListTemplates(c.Request.Context())
	if err != nil {
		common.HandleError(c, err)
		return
	}

	common.Success(c, http.StatusOK, templates)
}

// CreateTemplate handles POST /api/v1/templates
func (h *Handler) CreateTemplate(c *gin.Context) {
	var req TemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Error(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	tmpl, err := h.service.CreateTemplate(c.Request.Context(), &req)
	if err != nil {
		common.HandleError(c, err)
		return
	}

	common.Success(c, http.StatusCreated, tmpl)
}

// UpdateTemplate handles PUT /api/v1/templates/:id
func (h *Handler) UpdateTemplate(c *gin.Context) {
	var req TemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Error(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	tmpl, err := h.service.UpdateTemplate(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		common.HandleError(c, err)
		return
	}

	common.Success(c, http.StatusOK, tmpl)
}

// DeleteTemplate handles DELETE /api/v1/templates/:id
func (h *Handler) DeleteTemplate(c *gin.Context) {
	if err := h.service.DeleteTemplate(c.Request.Context(), c.Param("id")); err != nil {
		common.HandleError(c, err)
		return
	}

	common.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// RegisterRoutes registers notification routes to the given router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/notifications/send", h.Send)

	rg.POST("/reminders", h.ScheduleReminder)
	rg.DELETE("/reminders/:appointment_id", h.CancelReminders)

	rg.GET("/logs", h.ListLogs)
	rg.GET("/logs/:id", h.GetLog)

	rg.GET("/templates", h.ListTemplates)
	rg.POST("/templates", h.CreateTemplate)
	rg.PUT("/templates/:id", h.UpdateTemplate)
	rg.DELETE("/templates/:id", h.DeleteTemplate)
}
