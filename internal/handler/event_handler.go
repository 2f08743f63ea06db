package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/acu-apex/holistic-gpa-api/internal/models"
	"github.com/acu-apex/holistic-gpa-api/internal/service"
	appErrors "github.com/acu-apex/holistic-gpa-api/pkg/errors"
	"github.com/acu-apex/holistic-gpa-api/pkg/response"
)

// EventHandler exposes event template and instance endpoints.
type EventHandler struct {
	events *service.EventService
}

// NewEventHandler constructs EventHandler.
func NewEventHandler(events *service.EventService) *EventHandler {
	return &EventHandler{events: events}
}

// List godoc
// @Summary List event instances
// @Tags Events
// @Produce json
// @Param companyId query string false "Scope to a company"
// @Param type query string false "Filter by submission type"
// @Param active query bool false "Only active instances"
// @Success 200 {object} response.Envelope
// @Router /events [get]
func (h *EventHandler) List(c *gin.Context) {
	var filter models.EventInstanceFilter
	filter.CompanyID = c.Query("companyId")
	filter.SubmissionType = models.SubmissionType(c.Query("type"))
	filter.ActiveOnly = c.DefaultQuery("active", "true") == "true"

	instances, err := h.events.ListInstances(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, instances, nil)
}

// CreateRecurring godoc
// @Summary Create a recurring event template
// @Tags Events
// @Accept json
// @Produce json
// @Param payload body service.CreateRecurringEventRequest true "Template payload"
// @Success 201 {object} response.Envelope
// @Router /events/recurring [post]
func (h *EventHandler) CreateRecurring(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.CreateRecurringEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	event, err := h.events.CreateRecurring(c.Request.Context(), claims.UserID, claims.Role, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, event)
}

// CreateAdHoc godoc
// @Summary Create a one-off event instance
// @Tags Events
// @Accept json
// @Produce json
// @Param payload body service.CreateAdHocEventRequest true "Event payload"
// @Success 201 {object} response.Envelope
// @Router /events [post]
func (h *EventHandler) CreateAdHoc(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.CreateAdHocEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	instance, err := h.events.CreateAdHoc(c.Request.Context(), claims.UserID, claims.Role, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, instance)
}

// GenerateRequest bounds the instance generation window.
type GenerateRequest struct {
	Until time.Time `json:"until" binding:"required"`
}

// Generate godoc
// @Summary Generate instances for recurring templates
// @Tags Events
// @Accept json
// @Produce json
// @Param payload body GenerateRequest true "Generation window"
// @Success 200 {object} response.Envelope
// @Router /events/generate [post]
func (h *EventHandler) Generate(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	created, err := h.events.GenerateInstances(c.Request.Context(), time.Now().UTC(), req.Until)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"created": created}, nil)
}

// Deactivate godoc
// @Summary Stop an event instance from accepting submissions
// @Tags Events
// @Produce json
// @Param id path string true "Event instance ID"
// @Success 204 "No Content"
// @Router /events/{id} [delete]
func (h *EventHandler) Deactivate(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.events.Deactivate(c.Request.Context(), claims.Role, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
