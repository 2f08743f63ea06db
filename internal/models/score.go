package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Category is one of the four holistic pillars.
type Category string

const (
	CategorySpiritual    Category = "spiritual"
	CategoryProfessional Category = "professional"
	CategoryAcademic     Category = "academic"
	CategoryTeam         Category = "team"
)

// Categories lists the pillars in their canonical order.
func Categories() []Category {
	return []Category{CategorySpiritual, CategoryProfessional, CategoryAcademic, CategoryTeam}
}

// Breakdown maps category keys to normalized sub-scores on the 0-4 scale.
// Stored as jsonb.
type Breakdown map[Category]float64

// Value implements driver.Valuer.
func (b Breakdown) Value() (driver.Value, error) {
	if b == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(b)
}

// Scan implements sql.Scanner.
func (b *Breakdown) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	case nil:
		*b = nil
		return nil
	default:
		return fmt.Errorf("unsupported breakdown source %T", src)
	}
	return json.Unmarshal(raw, b)
}

// StudentScore is the computed holistic result for one student.
type StudentScore struct {
	StudentID    string    `json:"student_id"`
	AcademicYear int       `json:"academic_year"`
	HolisticGPA  float64   `json:"holistic_gpa"`
	Breakdown    Breakdown `json:"breakdown"`
	CalculatedAt time.Time `json:"calculated_at"`
}

// StudentScoreSnapshot is an appended, immutable student score row.
type StudentScoreSnapshot struct {
	ID              string    `db:"id" json:"id"`
	StudentID       string    `db:"student_id" json:"student_id"`
	AcademicYear    int       `db:"academic_year" json:"academic_year"`
	HolisticGPA     float64   `db:"holistic_gpa" json:"holistic_gpa"`
	Breakdown       Breakdown `db:"breakdown" json:"breakdown"`
	CalculationDate time.Time `db:"calculation_date" json:"calculation_date"`
}

// CompanyGPASnapshot is an appended, immutable company score row. The
// current value for a company is the latest row by calculation date.
type CompanyGPASnapshot struct {
	ID              string    `db:"id" json:"id"`
	CompanyID       string    `db:"company_id" json:"company_id"`
	AcademicYear    int       `db:"academic_year" json:"academic_year"`
	HolisticGPA     float64   `db:"holistic_gpa" json:"holistic_gpa"`
	Breakdown       Breakdown `db:"breakdown" json:"breakdown"`
	CalculationDate time.Time `db:"calculation_date" json:"calculation_date"`
}

// CompanyStanding is one row of the ranked company list. Delta compares the
// latest snapshot against the previous one when available.
type CompanyStanding struct {
	Rank            int       `json:"rank"`
	CompanyID       string    `json:"company_id"`
	CompanyName     string    `json:"company_name"`
	HolisticGPA     float64   `json:"holistic_gpa"`
	Breakdown       Breakdown `json:"breakdown"`
	CalculationDate time.Time `json:"calculation_date"`
	Delta           *float64  `json:"delta,omitempty"`
}

// LatestCompanySnapshot pairs a company with its most recent snapshot and
// the one before it, for ranking and trend computation.
type LatestCompanySnapshot struct {
	CompanyID       string    `db:"company_id"`
	CompanyName     string    `db:"company_name"`
	HolisticGPA     float64   `db:"holistic_gpa"`
	Breakdown       Breakdown `db:"breakdown"`
	CalculationDate time.Time `db:"calculation_date"`
	PreviousGPA     *float64  `db:"previous_gpa"`
}
