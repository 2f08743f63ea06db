package models

import "time"

// EventCadence controls how often instances are generated from a template.
type EventCadence string

const (
	CadenceWeekly  EventCadence = "weekly"
	CadenceMonthly EventCadence = "monthly"
)

// Valid returns true when the cadence is a supported value.
func (c EventCadence) Valid() bool {
	switch c {
	case CadenceWeekly, CadenceMonthly:
		return true
	default:
		return false
	}
}

// EventType distinguishes how an instance came to exist.
type EventType string

const (
	EventRoutine EventType = "routine"
	EventAdHoc   EventType = "ad_hoc"
)

// RecurringEvent is a template from which scheduled instances are generated.
type RecurringEvent struct {
	ID              string         `db:"id" json:"id"`
	Name            string         `db:"name" json:"name"`
	Description     *string        `db:"description" json:"description,omitempty"`
	SubmissionType  SubmissionType `db:"submission_type" json:"submission_type"`
	Cadence         EventCadence   `db:"cadence" json:"cadence"`
	RequiredCompany *string        `db:"required_company" json:"required_company,omitempty"`
	IsActive        bool           `db:"is_active" json:"is_active"`
	CreatedBy       string         `db:"created_by" json:"created_by"`
	CreatedAt       time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at" json:"updated_at"`
}

// EventInstance is a concrete, dated occurrence that submissions reference.
type EventInstance struct {
	ID               string         `db:"id" json:"id"`
	RecurringEventID *string        `db:"recurring_event_id" json:"recurring_event_id,omitempty"`
	Name             string         `db:"name" json:"name"`
	Description      *string        `db:"description" json:"description,omitempty"`
	EventType        EventType      `db:"event_type" json:"event_type"`
	SubmissionType   SubmissionType `db:"submission_type" json:"submission_type"`
	RequiredCompany  *string        `db:"required_company" json:"required_company,omitempty"`
	DueDate          *time.Time     `db:"due_date" json:"due_date,omitempty"`
	IsActive         bool           `db:"is_active" json:"is_active"`
	CreatedBy        string         `db:"created_by" json:"created_by"`
	CreatedAt        time.Time      `db:"created_at" json:"created_at"`
}

// EventInstanceFilter scopes instance listings.
type EventInstanceFilter struct {
	CompanyID      string
	SubmissionType SubmissionType
	ActiveOnly     bool
	DueAfter       *time.Time
	DueBefore      *time.Time
}
