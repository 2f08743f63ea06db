package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/acu-apex/holistic-gpa-api/internal/models"
)

const submissionColumns = `id, student_id, event_id, submitted_by, submission_type, payload, notes,
approval_status, points_granted, approved_by, approval_note, decided_at, created_at, updated_at`

// SubmissionRepository manages persistence for event submissions.
type SubmissionRepository struct {
	db *sqlx.DB
}

// NewSubmissionRepository constructs a new repository.
func NewSubmissionRepository(db *sqlx.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

// Create inserts a submission. Event-bound rows rely on the partial unique
// index over (event_id, student_id); the insert is a single conditional
// statement so concurrent attempts for the same pair resolve to exactly one
// row. Returns false without error when the row already existed.
func (r *SubmissionRepository) Create(ctx context.Context, submission *models.Submission) (bool, error) {
	if submission.ID == "" {
		submission.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if submission.CreatedAt.IsZero() {
		submission.CreatedAt = now
	}
	submission.UpdatedAt = now

	query := `INSERT INTO submissions (id, student_id, event_id, submitted_by, submission_type, payload, notes,
approval_status, points_granted, approved_by, approval_note, decided_at, created_at, updated_at)
VALUES (:id, :student_id, :event_id, :submitted_by, :submission_type, :payload, :notes,
:approval_status, :points_granted, :approved_by, :approval_note, :decided_at, :created_at, :updated_at)
ON CONFLICT (event_id, student_id) WHERE event_id IS NOT NULL DO NOTHING`

	res, err := r.db.NamedExecContext(ctx, query, submission)
	if err != nil {
		return false, fmt.Errorf("create submission: %w", err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("create submission rows affected: %w", err)
	}
	return inserted == 1, nil
}

// GetByID fetches a single submission.
func (r *SubmissionRepository) GetByID(ctx context.Context, id string) (*models.Submission, error) {
	var submission models.Submission
	query := fmt.Sprintf("SELECT %s FROM submissions WHERE id = $1", submissionColumns)
	if err := r.db.GetContext(ctx, &submission, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get submission %s: %w", id, err)
	}
	return &submission, nil
}

// GetByEventAndStudent fetches the submission for an (event, student) pair.
func (r *SubmissionRepository) GetByEventAndStudent(ctx context.Context, eventID, studentID string) (*models.Submission, error) {
	var submission models.Submission
	query := fmt.Sprintf("SELECT %s FROM submissions WHERE event_id = $1 AND student_id = $2", submissionColumns)
	if err := r.db.GetContext(ctx, &submission, query, eventID, studentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get submission for event %s student %s: %w", eventID, studentID, err)
	}
	return &submission, nil
}

// ListPending returns the staff approval queue with student metadata.
func (r *SubmissionRepository) ListPending(ctx context.Context, filter models.PendingFilter) ([]models.PendingSubmission, int, error) {
	base := `FROM submissions s
JOIN students st ON st.id = s.student_id
JOIN users u ON u.id = st.user_id
LEFT JOIN companies c ON c.id = st.company_id
LEFT JOIN event_instances e ON e.id = s.event_id`
	where := []string{"s.approval_status = 'pending'"}
	args := []interface{}{}
	if filter.CompanyID != "" {
		where = append(where, fmt.Sprintf("st.company_id = $%d", len(args)+1))
		args = append(args, filter.CompanyID)
	}
	if filter.CreatedBy != "" {
		where = append(where, fmt.Sprintf("s.submitted_by = $%d", len(args)+1))
		args = append(args, filter.CreatedBy)
	}
	if filter.SubmissionType != "" {
		where = append(where, fmt.Sprintf("s.submission_type = $%d", len(args)+1))
		args = append(args, filter.SubmissionType)
	}
	whereClause := strings.Join(where, " AND ")
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size
	query := fmt.Sprintf(`SELECT s.id, s.student_id, s.event_id, s.submitted_by, s.submission_type, s.payload, s.notes,
s.approval_status, s.points_granted, s.approved_by, s.approval_note, s.decided_at, s.created_at, s.updated_at,
u.first_name || ' ' || u.last_name AS student_name, st.company_id, c.name AS company_name, e.name AS event_name
%s WHERE %s ORDER BY s.created_at DESC LIMIT %d OFFSET %d`, base, whereClause, size, offset)
	var pending []models.PendingSubmission
	if err := r.db.SelectContext(ctx, &pending, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list pending submissions: %w", err)
	}
	countQuery := fmt.Sprintf("SELECT COUNT(*) %s WHERE %s", base, whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count pending submissions: %w", err)
	}
	return pending, total, nil
}

// UpdateStatusIfPending transitions a submission out of pending as a single
// conditional update, so two staff racing on the same submission cannot both
// win. Returns false without error when the row was not pending (or absent).
func (r *SubmissionRepository) UpdateStatusIfPending(ctx context.Context, id string, status models.ApprovalStatus, points float64, decidedBy string, note *string) (bool, error) {
	now := time.Now().UTC()
	query := `UPDATE submissions
SET approval_status = $2, points_granted = $3, approved_by = $4, approval_note = $5, decided_at = $6, updated_at = $6
WHERE id = $1 AND approval_status = 'pending'`
	res, err := r.db.ExecContext(ctx, query, id, status, points, decidedBy, note, now)
	if err != nil {
		return false, fmt.Errorf("update submission %s status: %w", id, err)
	}
	updated, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update submission status rows affected: %w", err)
	}
	return updated == 1, nil
}

// ListApprovedByStudent returns a student's approved submissions for an
// academic year, the aggregator's input set.
func (r *SubmissionRepository) ListApprovedByStudent(ctx context.Context, studentID string, year int) ([]models.Submission, error) {
	query := fmt.Sprintf(`SELECT %s FROM submissions
WHERE student_id = $1 AND approval_status = 'approved' AND EXTRACT(YEAR FROM created_at) = $2
ORDER BY created_at`, submissionColumns)
	var submissions []models.Submission
	if err := r.db.SelectContext(ctx, &submissions, query, studentID, year); err != nil {
		return nil, fmt.Errorf("list approved submissions for student %s: %w", studentID, err)
	}
	return submissions, nil
}

// ListApprovedByCompany returns approved submissions for every active member
// of a company in an academic year, keyed by student.
func (r *SubmissionRepository) ListApprovedByCompany(ctx context.Context, companyID string, year int) (map[string][]models.Submission, error) {
	query := fmt.Sprintf(`SELECT %s FROM submissions
WHERE approval_status = 'approved' AND EXTRACT(YEAR FROM created_at) = $2
AND student_id IN (SELECT id FROM students WHERE company_id = $1 AND is_active = TRUE)
ORDER BY student_id, created_at`, submissionColumns)
	var submissions []models.Submission
	if err := r.db.SelectContext(ctx, &submissions, query, companyID, year); err != nil {
		return nil, fmt.Errorf("list approved submissions for company %s: %w", companyID, err)
	}
	grouped := make(map[string][]models.Submission)
	for _, s := range submissions {
		grouped[s.StudentID] = append(grouped[s.StudentID], s)
	}
	return grouped, nil
}
