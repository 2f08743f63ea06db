package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/acu-apex/holistic-gpa-api/internal/models"
)

// CompanyRepository provides database access for companies and their rosters.
type CompanyRepository struct {
	db *sqlx.DB
}

// NewCompanyRepository creates a new instance of CompanyRepository.
func NewCompanyRepository(db *sqlx.DB) *CompanyRepository {
	return &CompanyRepository{db: db}
}

// GetByID returns a company by identifier.
func (r *CompanyRepository) GetByID(ctx context.Context, id string) (*models.Company, error) {
	const query = `SELECT id, name, is_active, created_at, updated_at FROM companies WHERE id = $1 LIMIT 1`
	var company models.Company
	if err := r.db.GetContext(ctx, &company, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get company %s: %w", id, err)
	}
	return &company, nil
}

// ListActive returns all active companies ordered by name.
func (r *CompanyRepository) ListActive(ctx context.Context) ([]models.Company, error) {
	const query = `SELECT id, name, is_active, created_at, updated_at FROM companies WHERE is_active = TRUE ORDER BY name`
	var companies []models.Company
	if err := r.db.SelectContext(ctx, &companies, query); err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	return companies, nil
}

// GetStudent returns a student row by identifier.
func (r *CompanyRepository) GetStudent(ctx context.Context, id string) (*models.Student, error) {
	const query = `SELECT id, user_id, company_id, company_role, cohort_year, is_active, created_at, updated_at FROM students WHERE id = $1 LIMIT 1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get student %s: %w", id, err)
	}
	return &student, nil
}

// GetStudentByUser returns the student row linked to a user account.
func (r *CompanyRepository) GetStudentByUser(ctx context.Context, userID string) (*models.Student, error) {
	const query = `SELECT id, user_id, company_id, company_role, cohort_year, is_active, created_at, updated_at FROM students WHERE user_id = $1 LIMIT 1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get student for user %s: %w", userID, err)
	}
	return &student, nil
}

// ListActiveMembers returns the active students of a company.
func (r *CompanyRepository) ListActiveMembers(ctx context.Context, companyID string) ([]models.Student, error) {
	const query = `SELECT id, user_id, company_id, company_role, cohort_year, is_active, created_at, updated_at
FROM students WHERE company_id = $1 AND is_active = TRUE ORDER BY created_at`
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, companyID); err != nil {
		return nil, fmt.Errorf("list members of company %s: %w", companyID, err)
	}
	return students, nil
}
