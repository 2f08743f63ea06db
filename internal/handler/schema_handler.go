package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/acu-apex/holistic-gpa-api/internal/schema"
	"github.com/acu-apex/holistic-gpa-api/pkg/response"
)

// SchemaHandler exposes the submission contract registry.
type SchemaHandler struct {
	registry *schema.Registry
}

// NewSchemaHandler constructs SchemaHandler.
func NewSchemaHandler(registry *schema.Registry) *SchemaHandler {
	return &SchemaHandler{registry: registry}
}

// Contracts godoc
// @Summary List submission types and their payload contracts
// @Tags Submissions
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /submission-types [get]
func (h *SchemaHandler) Contracts(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.registry.Contracts(), nil)
}
