package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acu-apex/holistic-gpa-api/internal/models"
	"github.com/acu-apex/holistic-gpa-api/internal/service"
)

type fakeSubmissionReader struct {
	byStudent []models.Submission
}

func (f *fakeSubmissionReader) ListApprovedByStudent(context.Context, string, int) ([]models.Submission, error) {
	return f.byStudent, nil
}

func (f *fakeSubmissionReader) ListApprovedByCompany(context.Context, string, int) (map[string][]models.Submission, error) {
	return nil, nil
}

type fakeRoster struct {
	students map[string]*models.Student
}

func (f *fakeRoster) ListActive(context.Context) ([]models.Company, error) { return nil, nil }

func (f *fakeRoster) GetStudent(_ context.Context, id string) (*models.Student, error) {
	student, ok := f.students[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return student, nil
}

func (f *fakeRoster) ListActiveMembers(context.Context, string) ([]models.Student, error) {
	return nil, nil
}

type fakeSnapshots struct {
	latest []models.LatestCompanySnapshot
}

func (f *fakeSnapshots) AppendStudentSnapshot(context.Context, *models.StudentScoreSnapshot) error {
	return nil
}

func (f *fakeSnapshots) AppendCompanySnapshot(context.Context, *models.CompanyGPASnapshot) error {
	return nil
}

func (f *fakeSnapshots) LatestCompanySnapshots(context.Context, int) ([]models.LatestCompanySnapshot, error) {
	return f.latest, nil
}

func (f *fakeSnapshots) StudentSnapshotHistory(context.Context, string, int, int) ([]models.StudentScoreSnapshot, error) {
	return nil, nil
}

func newStandingsFixture(t *testing.T, exportsEnabled bool) *StandingsHandler {
	t.Helper()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	snapshots := &fakeSnapshots{latest: []models.LatestCompanySnapshot{
		{
			CompanyID:       "co-2",
			CompanyName:     "Bravo",
			HolisticGPA:     3.10,
			Breakdown:       models.Breakdown{},
			CalculationDate: now,
		},
		{
			CompanyID:       "co-1",
			CompanyName:     "Alpha",
			HolisticGPA:     3.75,
			Breakdown:       models.Breakdown{},
			CalculationDate: now,
		},
	}}
	roster := &fakeRoster{students: map[string]*models.Student{
		"st-1": {ID: "st-1", UserID: "u-1", CohortYear: 2026, IsActive: true},
	}}

	scoring := service.NewScoringService(&fakeSubmissionReader{}, roster, snapshots, nil, nil, nil, service.ScoringConfig{AcademicYear: 2026})
	return NewStandingsHandler(scoring, exportsEnabled)
}

func TestStandingsHandlerRanksByGPA(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newStandingsFixture(t, true)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/standings", nil)

	handler.Standings(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data []models.CompanyStanding `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 2)
	assert.Equal(t, 1, envelope.Data[0].Rank)
	assert.Equal(t, "Alpha", envelope.Data[0].CompanyName)
	assert.Equal(t, 2, envelope.Data[1].Rank)
	assert.Equal(t, "Bravo", envelope.Data[1].CompanyName)
}

func TestStandingsHandlerExportCSV(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newStandingsFixture(t, true)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/standings/export?format=csv&year=2026", nil)

	handler.Export(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "attachment; filename=standings-2026.csv", rec.Header().Get("Content-Disposition"))
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "Alpha"))
	assert.True(t, strings.Contains(body, "3.75"))
}

func TestStandingsHandlerExportDisabled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newStandingsFixture(t, false)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/standings/export", nil)

	handler.Export(c)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestStandingsHandlerExportRejectsUnknownFormat(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newStandingsFixture(t, true)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/standings/export?format=xlsx", nil)

	handler.Export(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStandingsHandlerStudentGPAUnknownStudent(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newStandingsFixture(t, true)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/students/st-missing/holistic-gpa", nil)
	c.Params = gin.Params{{Key: "id", Value: "st-missing"}}

	handler.StudentGPA(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStandingsHandlerStudentGPAComputesLive(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newStandingsFixture(t, true)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/students/st-1/holistic-gpa?year=2026", nil)
	c.Params = gin.Params{{Key: "id", Value: "st-1"}}

	handler.StudentGPA(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data models.StudentScore `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "st-1", envelope.Data.StudentID)
	assert.Equal(t, 2026, envelope.Data.AcademicYear)
}
