package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acu-apex/holistic-gpa-api/internal/middleware"
	"github.com/acu-apex/holistic-gpa-api/internal/models"
	"github.com/acu-apex/holistic-gpa-api/internal/service"
)

type fakeApprovalStore struct {
	pending  []models.PendingSubmission
	byID     map[string]*models.Submission
	lastList models.PendingFilter
}

func (f *fakeApprovalStore) GetByID(_ context.Context, id string) (*models.Submission, error) {
	submission, ok := f.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return submission, nil
}

func (f *fakeApprovalStore) ListPending(_ context.Context, filter models.PendingFilter) ([]models.PendingSubmission, int, error) {
	f.lastList = filter
	return f.pending, len(f.pending), nil
}

func (f *fakeApprovalStore) UpdateStatusIfPending(_ context.Context, id string, status models.ApprovalStatus, points float64, decidedBy string, note *string) (bool, error) {
	submission, ok := f.byID[id]
	if !ok || submission.ApprovalStatus != models.StatusPending {
		return false, nil
	}
	submission.ApprovalStatus = status
	submission.PointsGranted = &points
	submission.ApprovedBy = &decidedBy
	submission.ApprovalNote = note
	now := time.Now().UTC()
	submission.DecidedAt = &now
	return true, nil
}

func (f *fakeApprovalStore) GetStudent(_ context.Context, id string) (*models.Student, error) {
	return &models.Student{ID: id, IsActive: true}, nil
}

func (f *fakeApprovalStore) GetStudentByUser(_ context.Context, userID string) (*models.Student, error) {
	return &models.Student{ID: "st-1", UserID: userID, IsActive: true}, nil
}

func (f *fakeApprovalStore) TriggerCompanyRecalc(context.Context, string, int) {}

func newApprovalHandler(store *fakeApprovalStore) *SubmissionHandler {
	approvals := service.NewApprovalService(store, store, store, nil, nil, nil)
	return NewSubmissionHandler(nil, approvals)
}

func staffClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "staff-1", Role: models.RoleStaff}
}

func TestSubmissionHandlerSubmitRequiresAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewSubmissionHandler(nil, nil)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/submissions", nil)

	handler.Submit(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSubmissionHandlerListPendingParsesFilters(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := &fakeApprovalStore{pending: []models.PendingSubmission{}}
	handler := newApprovalHandler(store)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/submissions/pending?companyId=co-1&type=attendance&page=2&limit=10", nil)
	c.Set(middleware.ContextUserKey, staffClaims())

	handler.ListPending(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "co-1", store.lastList.CompanyID)
	assert.Equal(t, models.TypeAttendance, store.lastList.SubmissionType)
	assert.Equal(t, 2, store.lastList.Page)
	assert.Equal(t, 10, store.lastList.PageSize)
}

func TestSubmissionHandlerApproveDecidesOnce(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := &fakeApprovalStore{byID: map[string]*models.Submission{
		"sub-1": {ID: "sub-1", StudentID: "st-1", ApprovalStatus: models.StatusPending},
	}}
	handler := newApprovalHandler(store)

	body := `{"points": 3.5}`
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/submissions/sub-1/approve", bytes.NewBufferString(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: "sub-1"}}
	c.Set(middleware.ContextUserKey, staffClaims())

	handler.Approve(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data models.Submission `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, models.StatusApproved, envelope.Data.ApprovalStatus)

	rec2 := httptest.NewRecorder()
	c2, _ := gin.CreateTestContext(rec2)
	c2.Request = httptest.NewRequest(http.MethodPost, "/submissions/sub-1/approve", bytes.NewBufferString(body))
	c2.Request.Header.Set("Content-Type", "application/json")
	c2.Params = gin.Params{{Key: "id", Value: "sub-1"}}
	c2.Set(middleware.ContextUserKey, staffClaims())

	handler.Approve(c2)

	assert.Equal(t, http.StatusConflict, rec2.Code)
}

func TestSubmissionHandlerRejectWithoutBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := &fakeApprovalStore{byID: map[string]*models.Submission{
		"sub-1": {ID: "sub-1", StudentID: "st-1", ApprovalStatus: models.StatusPending},
	}}
	handler := newApprovalHandler(store)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/submissions/sub-1/reject", nil)
	c.Params = gin.Params{{Key: "id", Value: "sub-1"}}
	c.Set(middleware.ContextUserKey, staffClaims())

	handler.Reject(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data models.Submission `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, models.StatusRejected, envelope.Data.ApprovalStatus)
}
