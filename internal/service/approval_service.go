package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/acu-apex/holistic-gpa-api/internal/models"
	appErrors "github.com/acu-apex/holistic-gpa-api/pkg/errors"
)

type approvalStore interface {
	GetByID(ctx context.Context, id string) (*models.Submission, error)
	ListPending(ctx context.Context, filter models.PendingFilter) ([]models.PendingSubmission, int, error)
	UpdateStatusIfPending(ctx context.Context, id string, status models.ApprovalStatus, points float64, decidedBy string, note *string) (bool, error)
}

// ApproveRequest carries the staff decision for an approval.
type ApproveRequest struct {
	Points *float64 `json:"points" validate:"required,gte=0"`
	Note   *string  `json:"note,omitempty"`
}

// RejectRequest carries the optional reason for a rejection.
type RejectRequest struct {
	Reason *string `json:"reason,omitempty"`
}

// ApprovalService drives the pending -> approved|rejected workflow. Both
// transitions ride a single conditional update, so a submission can be
// decided exactly once no matter how many staff act on it concurrently.
type ApprovalService struct {
	store     approvalStore
	students  studentReader
	scoring   companyRecalcTrigger
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewApprovalService constructs an ApprovalService.
func NewApprovalService(store approvalStore, students studentReader, scoring companyRecalcTrigger, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *ApprovalService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ApprovalService{
		store:     store,
		students:  students,
		scoring:   scoring,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
	}
}

// ListPending returns the staff approval queue with pagination metadata.
func (s *ApprovalService) ListPending(ctx context.Context, actorRole models.UserRole, filter models.PendingFilter) ([]models.PendingSubmission, *models.Pagination, error) {
	if !actorRole.StaffLevel() {
		return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "staff role required")
	}
	pending, total, err := s.store.ListPending(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list pending submissions")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 50
	}
	return pending, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Approve grants points to a pending submission and triggers the owning
// company's recalculation.
func (s *ApprovalService) Approve(ctx context.Context, id, actorID string, actorRole models.UserRole, req ApproveRequest) (*models.Submission, error) {
	if !actorRole.StaffLevel() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "staff role required")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid approval payload")
	}

	submission, err := s.decide(ctx, id, models.StatusApproved, *req.Points, actorID, req.Note)
	if err != nil {
		return nil, err
	}

	s.metrics.RecordDecision(models.StatusApproved)
	s.logger.Info("submission approved",
		zap.String("submission_id", id),
		zap.String("approved_by", actorID),
		zap.Float64("points", *req.Points))

	if student, err := s.students.GetStudent(ctx, submission.StudentID); err == nil && student.CompanyID != nil {
		s.scoring.TriggerCompanyRecalc(ctx, *student.CompanyID, submission.CreatedAt.Year())
	} else if err != nil {
		s.logger.Warn("could not resolve company for recalculation",
			zap.String("student_id", submission.StudentID), zap.Error(err))
	}
	return submission, nil
}

// Reject closes a pending submission with zero points. Rejections never
// trigger recalculation.
func (s *ApprovalService) Reject(ctx context.Context, id, actorID string, actorRole models.UserRole, req RejectRequest) (*models.Submission, error) {
	if !actorRole.StaffLevel() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "staff role required")
	}

	submission, err := s.decide(ctx, id, models.StatusRejected, 0, actorID, req.Reason)
	if err != nil {
		return nil, err
	}

	s.metrics.RecordDecision(models.StatusRejected)
	s.logger.Info("submission rejected",
		zap.String("submission_id", id),
		zap.String("rejected_by", actorID))
	return submission, nil
}

// decide runs the conditional transition and maps a lost race to the right
// error: NOT_FOUND when the row does not exist, ALREADY_PROCESSED when it
// was decided first by someone else.
func (s *ApprovalService) decide(ctx context.Context, id string, status models.ApprovalStatus, points float64, actorID string, note *string) (*models.Submission, error) {
	updated, err := s.store.UpdateStatusIfPending(ctx, id, status, points, actorID, note)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update submission")
	}
	if !updated {
		if _, err := s.store.GetByID(ctx, id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "submission not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submission")
		}
		return nil, appErrors.Clone(appErrors.ErrAlreadyProcessed, "")
	}

	submission, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submission")
	}
	return submission, nil
}
