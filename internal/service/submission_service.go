package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/acu-apex/holistic-gpa-api/internal/models"
	appErrors "github.com/acu-apex/holistic-gpa-api/pkg/errors"
)

// autoApproveNote marks rows the system approved without staff review.
const autoApproveNote = "auto-approval for monthly check-in"

// autoApproved lists the submission types that skip the approval queue.
// Monthly self-reported checks carry no evidence for staff to weigh.
var autoApproved = map[models.SubmissionType]bool{
	models.TypeSmallGroup: true,
	models.TypeDreamTeam:  true,
}

type payloadValidator interface {
	Validate(t models.SubmissionType, raw []byte) (models.Payload, error)
}

type submissionCreator interface {
	Create(ctx context.Context, submission *models.Submission) (bool, error)
	GetByID(ctx context.Context, id string) (*models.Submission, error)
}

type eventInstanceReader interface {
	GetInstance(ctx context.Context, id string) (*models.EventInstance, error)
}

type studentReader interface {
	GetStudent(ctx context.Context, id string) (*models.Student, error)
	GetStudentByUser(ctx context.Context, userID string) (*models.Student, error)
}

type companyRecalcTrigger interface {
	TriggerCompanyRecalc(ctx context.Context, companyID string, year int)
}

// SubmitRequest describes a new submission. EventID is set for routine,
// event-bound submissions and omitted for self-reported ones.
type SubmitRequest struct {
	StudentID      string                `json:"student_id" validate:"required"`
	EventID        *string               `json:"event_id,omitempty"`
	SubmissionType models.SubmissionType `json:"submission_type" validate:"required"`
	Payload        json.RawMessage       `json:"payload" validate:"required"`
	Notes          *string               `json:"notes,omitempty"`
}

// SubmissionService accepts new submissions: payload validation, the
// auto-approval policy, and the conditional insert that enforces one row
// per (event, student).
type SubmissionService struct {
	payloads  payloadValidator
	store     submissionCreator
	events    eventInstanceReader
	students  studentReader
	scoring   companyRecalcTrigger
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSubmissionService constructs a SubmissionService.
func NewSubmissionService(payloads payloadValidator, store submissionCreator, events eventInstanceReader, students studentReader, scoring companyRecalcTrigger, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *SubmissionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubmissionService{
		payloads:  payloads,
		store:     store,
		events:    events,
		students:  students,
		scoring:   scoring,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
	}
}

// Submit validates and records a submission on behalf of submittedBy.
// Event-bound rows are rejected with DUPLICATE_SUBMISSION when the
// (event, student) pair already has one; the insert itself is the guard, so
// concurrent submits cannot both land.
func (s *SubmissionService) Submit(ctx context.Context, submittedBy string, req SubmitRequest) (*models.Submission, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid submission payload")
	}

	student, err := s.students.GetStudent(ctx, req.StudentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if !student.IsActive {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "student is inactive")
	}

	if req.EventID != nil {
		event, err := s.events.GetInstance(ctx, *req.EventID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
		}
		if !event.IsActive {
			return nil, appErrors.Clone(appErrors.ErrValidation, "event is no longer accepting submissions")
		}
		if event.SubmissionType != req.SubmissionType {
			return nil, appErrors.Clone(appErrors.ErrValidation, "submission type does not match the event")
		}
		if event.RequiredCompany != nil && (student.CompanyID == nil || *student.CompanyID != *event.RequiredCompany) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "event is scoped to another company")
		}
	}

	payload, err := s.payloads.Validate(req.SubmissionType, req.Payload)
	if err != nil {
		return nil, err
	}

	submission := &models.Submission{
		StudentID:      req.StudentID,
		EventID:        req.EventID,
		SubmittedBy:    submittedBy,
		SubmissionType: req.SubmissionType,
		Payload:        models.RawPayload(req.Payload),
		Notes:          req.Notes,
		ApprovalStatus: models.StatusPending,
	}

	if autoApproved[req.SubmissionType] {
		now := time.Now().UTC()
		points := autoApprovePoints(payload)
		note := autoApproveNote
		submission.ApprovalStatus = models.StatusApproved
		submission.PointsGranted = &points
		submission.ApprovedBy = &submittedBy
		submission.ApprovalNote = &note
		submission.DecidedAt = &now
	}

	inserted, err := s.store.Create(ctx, submission)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store submission")
	}
	if !inserted {
		return nil, appErrors.Clone(appErrors.ErrDuplicateSubmission, "")
	}

	s.metrics.RecordSubmissionCreated(submission.SubmissionType, submission.ApprovalStatus)
	s.logger.Info("submission recorded",
		zap.String("submission_id", submission.ID),
		zap.String("student_id", submission.StudentID),
		zap.String("type", string(submission.SubmissionType)),
		zap.String("status", string(submission.ApprovalStatus)))

	if submission.ApprovalStatus == models.StatusApproved && student.CompanyID != nil {
		s.scoring.TriggerCompanyRecalc(ctx, *student.CompanyID, submission.CreatedAt.Year())
	}
	return submission, nil
}

// autoApprovePoints grants full credit for an involved check and zero for a
// not-involved one.
func autoApprovePoints(payload models.Payload) float64 {
	status := models.NotInvolved
	switch p := payload.(type) {
	case *models.SmallGroupPayload:
		status = p.Status
	case *models.DreamTeamPayload:
		status = p.Status
	}
	if status == models.Involved {
		return maxGPA
	}
	return 0
}
