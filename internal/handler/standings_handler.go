package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/acu-apex/holistic-gpa-api/internal/service"
	appErrors "github.com/acu-apex/holistic-gpa-api/pkg/errors"
	"github.com/acu-apex/holistic-gpa-api/pkg/export"
	"github.com/acu-apex/holistic-gpa-api/pkg/response"
)

// StandingsHandler exposes company standings and student score endpoints.
type StandingsHandler struct {
	scoring        *service.ScoringService
	csvExporter    *export.CSVExporter
	pdfExporter    *export.PDFExporter
	exportsEnabled bool
}

// NewStandingsHandler constructs StandingsHandler.
func NewStandingsHandler(scoring *service.ScoringService, exportsEnabled bool) *StandingsHandler {
	return &StandingsHandler{
		scoring:        scoring,
		csvExporter:    export.NewCSVExporter(),
		pdfExporter:    export.NewPDFExporter(),
		exportsEnabled: exportsEnabled,
	}
}

func yearQuery(c *gin.Context) int {
	year, err := strconv.Atoi(c.Query("year"))
	if err != nil {
		return 0
	}
	return year
}

// Standings godoc
// @Summary Ranked company standings
// @Tags Standings
// @Produce json
// @Param year query int false "Academic year"
// @Success 200 {object} response.Envelope
// @Router /standings [get]
func (h *StandingsHandler) Standings(c *gin.Context) {
	standings, err := h.scoring.GetCompanyStandings(c.Request.Context(), yearQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, standings, nil)
}

// Export godoc
// @Summary Export company standings
// @Tags Standings
// @Produce text/csv
// @Produce application/pdf
// @Param year query int false "Academic year"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Router /standings/export [get]
func (h *StandingsHandler) Export(c *gin.Context) {
	if !h.exportsEnabled {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "exports are disabled"))
		return
	}

	year := yearQuery(c)
	dataset, err := h.scoring.StandingsDataset(c.Request.Context(), year)
	if err != nil {
		response.Error(c, err)
		return
	}

	filename := fmt.Sprintf("standings-%d", h.scoring.Year(year))
	switch c.DefaultQuery("format", "csv") {
	case "csv":
		raw, err := h.csvExporter.Render(dataset)
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv"))
			return
		}
		c.Header("Content-Disposition", "attachment; filename="+filename+".csv")
		c.Data(http.StatusOK, "text/csv", raw)
	case "pdf":
		title := fmt.Sprintf("Company Standings %d", h.scoring.Year(year))
		raw, err := h.pdfExporter.Render(dataset, title)
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf"))
			return
		}
		c.Header("Content-Disposition", "attachment; filename="+filename+".pdf")
		c.Data(http.StatusOK, "application/pdf", raw)
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf"))
	}
}

// StudentGPA godoc
// @Summary A student's holistic GPA and category breakdown
// @Tags Students
// @Produce json
// @Param id path string true "Student ID"
// @Param year query int false "Academic year"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/holistic-gpa [get]
func (h *StandingsHandler) StudentGPA(c *gin.Context) {
	score, err := h.scoring.GetStudentHolisticGPA(c.Request.Context(), c.Param("id"), yearQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, score, nil)
}

// StudentHistory godoc
// @Summary A student's score snapshots over time
// @Tags Students
// @Produce json
// @Param id path string true "Student ID"
// @Param year query int false "Academic year"
// @Param limit query int false "Max snapshots"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/holistic-gpa/history [get]
func (h *StandingsHandler) StudentHistory(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	history, err := h.scoring.GetStudentHistory(c.Request.Context(), c.Param("id"), yearQuery(c), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, history, nil)
}
