package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// SubmissionType discriminates the shape of a submission payload.
type SubmissionType string

const (
	TypeAttendance          SubmissionType = "attendance"
	TypeSmallGroup          SubmissionType = "small_group"
	TypeDreamTeam           SubmissionType = "dream_team"
	TypeCommunityService    SubmissionType = "community_service"
	TypeCredentials         SubmissionType = "credentials"
	TypeJobPromotion        SubmissionType = "job_promotion"
	TypeTeamParticipation   SubmissionType = "team_participation"
	TypeGBEParticipation    SubmissionType = "gbe_participation"
	TypeCompanyTeamBuilding SubmissionType = "company_team_building"
	TypeLionsGames          SubmissionType = "lions_games"

	// Legacy categories. Their contracts stay registered so historical
	// payloads keep decoding, but no current caller routes to them.
	TypeAcademic      SubmissionType = "academic"
	TypeSpiritual     SubmissionType = "spiritual"
	TypeProfessional  SubmissionType = "professional"
	TypeTeamMeeting   SubmissionType = "team_meeting"
	TypeLeaderMeeting SubmissionType = "leader_meeting"
	TypeFellowFriday  SubmissionType = "fellow_friday"
)

// ApprovalStatus is the lifecycle state of a submission.
type ApprovalStatus string

const (
	StatusPending  ApprovalStatus = "pending"
	StatusApproved ApprovalStatus = "approved"
	StatusRejected ApprovalStatus = "rejected"
)

// Valid returns true when the status is a supported value.
func (s ApprovalStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	default:
		return false
	}
}

// Terminal reports whether the status admits no further transitions.
func (s ApprovalStatus) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Payload is the type-specific portion of a submission, one implementation
// per SubmissionType.
type Payload interface {
	SubmissionType() SubmissionType
}

// RawPayload stores the validated payload JSON in a jsonb column.
type RawPayload json.RawMessage

// Value implements driver.Valuer.
func (p RawPayload) Value() (driver.Value, error) {
	if len(p) == 0 {
		return []byte("{}"), nil
	}
	return []byte(p), nil
}

// Scan implements sql.Scanner.
func (p *RawPayload) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		*p = append((*p)[0:0], v...)
		return nil
	case string:
		*p = RawPayload(v)
		return nil
	case nil:
		*p = nil
		return nil
	default:
		return fmt.Errorf("unsupported payload source %T", src)
	}
}

// MarshalJSON renders the stored payload as-is.
func (p RawPayload) MarshalJSON() ([]byte, error) {
	if len(p) == 0 {
		return []byte("null"), nil
	}
	return p, nil
}

// UnmarshalJSON stores the raw bytes.
func (p *RawPayload) UnmarshalJSON(data []byte) error {
	*p = append((*p)[0:0], data...)
	return nil
}

// Submission records a student's claimed qualifying activity. EventID is
// null for non-routine submissions (service hours, credentials, promotions),
// which carry no per-event uniqueness constraint.
type Submission struct {
	ID             string         `db:"id" json:"id"`
	StudentID      string         `db:"student_id" json:"student_id"`
	EventID        *string        `db:"event_id" json:"event_id,omitempty"`
	SubmittedBy    string         `db:"submitted_by" json:"submitted_by"`
	SubmissionType SubmissionType `db:"submission_type" json:"submission_type"`
	Payload        RawPayload     `db:"payload" json:"payload"`
	Notes          *string        `db:"notes" json:"notes,omitempty"`
	ApprovalStatus ApprovalStatus `db:"approval_status" json:"approval_status"`
	PointsGranted  *float64       `db:"points_granted" json:"points_granted,omitempty"`
	ApprovedBy     *string        `db:"approved_by" json:"approved_by,omitempty"`
	ApprovalNote   *string        `db:"approval_note" json:"approval_note,omitempty"`
	DecidedAt      *time.Time     `db:"decided_at" json:"decided_at,omitempty"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updated_at"`
}

// PendingSubmission extends a pending row with reviewer-facing metadata.
type PendingSubmission struct {
	Submission
	StudentName string  `db:"student_name" json:"student_name"`
	CompanyID   *string `db:"company_id" json:"company_id,omitempty"`
	CompanyName *string `db:"company_name" json:"company_name,omitempty"`
	EventName   *string `db:"event_name" json:"event_name,omitempty"`
}

// PendingFilter scopes the staff approval queue.
type PendingFilter struct {
	CompanyID      string
	CreatedBy      string
	SubmissionType SubmissionType
	Page           int
	PageSize       int
}
