package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acu-apex/holistic-gpa-api/internal/models"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	return sqlxdb, mock, func() {
		db.Close()
	}
}

func strPtr(s string) *string { return &s }

func TestCreateSubmissionInserts(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSubmissionRepository(db)

	mock.ExpectExec("INSERT INTO submissions").WillReturnResult(sqlmock.NewResult(1, 1))

	submission := &models.Submission{
		StudentID:      "st-1",
		EventID:        strPtr("ev-1"),
		SubmittedBy:    "u-1",
		SubmissionType: models.TypeAttendance,
		Payload:        models.RawPayload(`{"status":"present"}`),
		ApprovalStatus: models.StatusPending,
	}
	inserted, err := repo.Create(context.Background(), submission)
	require.NoError(t, err)
	assert.True(t, inserted)
	assert.NotEmpty(t, submission.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateSubmissionDuplicatePairIsNotInserted(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSubmissionRepository(db)

	mock.ExpectExec("INSERT INTO submissions").WillReturnResult(sqlmock.NewResult(0, 0))

	submission := &models.Submission{
		StudentID:      "st-1",
		EventID:        strPtr("ev-1"),
		SubmittedBy:    "u-1",
		SubmissionType: models.TypeAttendance,
		Payload:        models.RawPayload(`{"status":"present"}`),
		ApprovalStatus: models.StatusPending,
	}
	inserted, err := repo.Create(context.Background(), submission)
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusIfPendingWins(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSubmissionRepository(db)

	mock.ExpectExec("UPDATE submissions").
		WillReturnResult(sqlmock.NewResult(0, 1))

	updated, err := repo.UpdateStatusIfPending(context.Background(), "sub-1", models.StatusApproved, 4.0, "staff-1", nil)
	require.NoError(t, err)
	assert.True(t, updated)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusIfPendingLosesWhenAlreadyDecided(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSubmissionRepository(db)

	mock.ExpectExec("UPDATE submissions").
		WillReturnResult(sqlmock.NewResult(0, 0))

	updated, err := repo.UpdateStatusIfPending(context.Background(), "sub-1", models.StatusRejected, 0, "staff-1", strPtr("duplicate entry"))
	require.NoError(t, err)
	assert.False(t, updated)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetSubmissionByID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSubmissionRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "student_id", "event_id", "submitted_by", "submission_type", "payload", "notes",
		"approval_status", "points_granted", "approved_by", "approval_note", "decided_at", "created_at", "updated_at"}).
		AddRow("sub-1", "st-1", "ev-1", "u-1", string(models.TypeAttendance), []byte(`{"status":"present"}`), nil,
			string(models.StatusPending), nil, nil, nil, nil, now, now)
	mock.ExpectQuery("SELECT (.+) FROM submissions WHERE id = \\$1").
		WithArgs("sub-1").
		WillReturnRows(rows)

	submission, err := repo.GetByID(context.Background(), "sub-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, submission.ApprovalStatus)
	assert.Equal(t, "ev-1", *submission.EventID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListPendingFiltersByCompany(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSubmissionRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "student_id", "event_id", "submitted_by", "submission_type", "payload", "notes",
		"approval_status", "points_granted", "approved_by", "approval_note", "decided_at", "created_at", "updated_at",
		"student_name", "company_id", "company_name", "event_name"}).
		AddRow("sub-1", "st-1", "ev-1", "u-1", string(models.TypeCommunityService), []byte(`{}`), nil,
			string(models.StatusPending), nil, nil, nil, nil, now, now,
			"Ada Park", "co-1", "Alpha", "Chapel")
	mock.ExpectQuery(regexp.QuoteMeta("st.company_id = $1")).
		WithArgs("co-1").
		WillReturnRows(rows)

	countRows := sqlmock.NewRows([]string{"count"}).AddRow(1)
	mock.ExpectQuery("SELECT COUNT\\(\\*\\)").
		WithArgs("co-1").
		WillReturnRows(countRows)

	pending, total, err := repo.ListPending(context.Background(), models.PendingFilter{CompanyID: "co-1"})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, "Ada Park", pending[0].StudentName)
	assert.Equal(t, "Alpha", *pending[0].CompanyName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListApprovedByCompanyGroupsByStudent(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSubmissionRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "student_id", "event_id", "submitted_by", "submission_type", "payload", "notes",
		"approval_status", "points_granted", "approved_by", "approval_note", "decided_at", "created_at", "updated_at"}).
		AddRow("sub-1", "st-1", "ev-1", "u-1", string(models.TypeAttendance), []byte(`{"status":"present"}`), nil,
			string(models.StatusApproved), 4.0, "staff-1", nil, now, now, now).
		AddRow("sub-2", "st-1", "ev-2", "u-1", string(models.TypeAttendance), []byte(`{"status":"absent"}`), nil,
			string(models.StatusApproved), 0.0, "staff-1", nil, now, now, now).
		AddRow("sub-3", "st-2", nil, "u-2", string(models.TypeCommunityService), []byte(`{}`), nil,
			string(models.StatusApproved), 3.0, "staff-1", nil, now, now, now)
	mock.ExpectQuery("SELECT (.+) FROM submissions").
		WithArgs("co-1", 2025).
		WillReturnRows(rows)

	grouped, err := repo.ListApprovedByCompany(context.Background(), "co-1", 2025)
	require.NoError(t, err)
	assert.Len(t, grouped, 2)
	assert.Len(t, grouped["st-1"], 2)
	assert.Len(t, grouped["st-2"], 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}
