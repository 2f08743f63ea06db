package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/acu-apex/holistic-gpa-api/internal/models"
)

// ScoreRepository persists score snapshots. Both tables are append-only:
// recalculation inserts a new row and readers take the latest by
// calculation date, so history is never rewritten.
type ScoreRepository struct {
	db *sqlx.DB
}

// NewScoreRepository creates a new instance of ScoreRepository.
func NewScoreRepository(db *sqlx.DB) *ScoreRepository {
	return &ScoreRepository{db: db}
}

// AppendStudentSnapshot inserts an immutable student score row.
func (r *ScoreRepository) AppendStudentSnapshot(ctx context.Context, snapshot *models.StudentScoreSnapshot) error {
	if snapshot.ID == "" {
		snapshot.ID = uuid.NewString()
	}
	if snapshot.CalculationDate.IsZero() {
		snapshot.CalculationDate = time.Now().UTC()
	}

	const query = `INSERT INTO student_score_snapshots (id, student_id, academic_year, holistic_gpa, breakdown, calculation_date)
VALUES (:id, :student_id, :academic_year, :holistic_gpa, :breakdown, :calculation_date)`
	if _, err := r.db.NamedExecContext(ctx, query, snapshot); err != nil {
		return fmt.Errorf("append student score snapshot: %w", err)
	}
	return nil
}

// AppendCompanySnapshot inserts an immutable company score row.
func (r *ScoreRepository) AppendCompanySnapshot(ctx context.Context, snapshot *models.CompanyGPASnapshot) error {
	if snapshot.ID == "" {
		snapshot.ID = uuid.NewString()
	}
	if snapshot.CalculationDate.IsZero() {
		snapshot.CalculationDate = time.Now().UTC()
	}

	const query = `INSERT INTO company_gpa_snapshots (id, company_id, academic_year, holistic_gpa, breakdown, calculation_date)
VALUES (:id, :company_id, :academic_year, :holistic_gpa, :breakdown, :calculation_date)`
	if _, err := r.db.NamedExecContext(ctx, query, snapshot); err != nil {
		return fmt.Errorf("append company gpa snapshot: %w", err)
	}
	return nil
}

// LatestStudentSnapshot returns the newest snapshot for a student and year.
func (r *ScoreRepository) LatestStudentSnapshot(ctx context.Context, studentID string, year int) (*models.StudentScoreSnapshot, error) {
	const query = `SELECT id, student_id, academic_year, holistic_gpa, breakdown, calculation_date
FROM student_score_snapshots WHERE student_id = $1 AND academic_year = $2
ORDER BY calculation_date DESC LIMIT 1`
	var snapshot models.StudentScoreSnapshot
	if err := r.db.GetContext(ctx, &snapshot, query, studentID, year); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("latest snapshot for student %s: %w", studentID, err)
	}
	return &snapshot, nil
}

// StudentSnapshotHistory returns a student's snapshots for a year, newest
// first, capped at limit.
func (r *ScoreRepository) StudentSnapshotHistory(ctx context.Context, studentID string, year, limit int) ([]models.StudentScoreSnapshot, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	query := fmt.Sprintf(`SELECT id, student_id, academic_year, holistic_gpa, breakdown, calculation_date
FROM student_score_snapshots WHERE student_id = $1 AND academic_year = $2
ORDER BY calculation_date DESC LIMIT %d`, limit)
	var snapshots []models.StudentScoreSnapshot
	if err := r.db.SelectContext(ctx, &snapshots, query, studentID, year); err != nil {
		return nil, fmt.Errorf("snapshot history for student %s: %w", studentID, err)
	}
	return snapshots, nil
}

// LatestCompanySnapshots returns, for every active company, its newest
// snapshot in the year plus the GPA of the snapshot before it. Companies
// with no snapshot yet are included with a zero GPA so standings always
// cover the full roster.
func (r *ScoreRepository) LatestCompanySnapshots(ctx context.Context, year int) ([]models.LatestCompanySnapshot, error) {
	const query = `SELECT c.id AS company_id, c.name AS company_name,
COALESCE(latest.holistic_gpa, 0) AS holistic_gpa,
COALESCE(latest.breakdown, '{}') AS breakdown,
COALESCE(latest.calculation_date, c.created_at) AS calculation_date,
previous.holistic_gpa AS previous_gpa
FROM companies c
LEFT JOIN LATERAL (
	SELECT holistic_gpa, breakdown, calculation_date
	FROM company_gpa_snapshots
	WHERE company_id = c.id AND academic_year = $1
	ORDER BY calculation_date DESC LIMIT 1
) latest ON TRUE
LEFT JOIN LATERAL (
	SELECT holistic_gpa
	FROM company_gpa_snapshots
	WHERE company_id = c.id AND academic_year = $1
	ORDER BY calculation_date DESC LIMIT 1 OFFSET 1
) previous ON TRUE
WHERE c.is_active = TRUE`
	var snapshots []models.LatestCompanySnapshot
	if err := r.db.SelectContext(ctx, &snapshots, query, year); err != nil {
		return nil, fmt.Errorf("latest company snapshots: %w", err)
	}
	return snapshots, nil
}
