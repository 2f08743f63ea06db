package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/acu-apex/holistic-gpa-api/internal/models"
	"github.com/acu-apex/holistic-gpa-api/internal/schema"
	appErrors "github.com/acu-apex/holistic-gpa-api/pkg/errors"
)

type eventStore interface {
	CreateRecurring(ctx context.Context, event *models.RecurringEvent) error
	ListActiveRecurring(ctx context.Context) ([]models.RecurringEvent, error)
	CreateInstance(ctx context.Context, instance *models.EventInstance) (bool, error)
	GetInstance(ctx context.Context, id string) (*models.EventInstance, error)
	ListInstances(ctx context.Context, filter models.EventInstanceFilter) ([]models.EventInstance, error)
	DeactivateInstance(ctx context.Context, id string) error
}

type contractLookup interface {
	Lookup(t models.SubmissionType) (schema.Contract, bool)
}

// CreateRecurringEventRequest describes a new recurring template.
type CreateRecurringEventRequest struct {
	Name            string                `json:"name" validate:"required,min=1"`
	Description     *string               `json:"description,omitempty"`
	SubmissionType  models.SubmissionType `json:"submission_type" validate:"required"`
	Cadence         models.EventCadence   `json:"cadence" validate:"required,oneof=weekly monthly"`
	RequiredCompany *string               `json:"required_company,omitempty"`
}

// CreateAdHocEventRequest describes a one-off event instance.
type CreateAdHocEventRequest struct {
	Name            string                `json:"name" validate:"required,min=1"`
	Description     *string               `json:"description,omitempty"`
	SubmissionType  models.SubmissionType `json:"submission_type" validate:"required"`
	RequiredCompany *string               `json:"required_company,omitempty"`
	DueDate         *time.Time            `json:"due_date,omitempty"`
}

// EventService manages recurring event templates and their instances.
type EventService struct {
	store     eventStore
	contracts contractLookup
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEventService constructs an EventService.
func NewEventService(store eventStore, contracts contractLookup, validate *validator.Validate, logger *zap.Logger) *EventService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventService{store: store, contracts: contracts, validator: validate, logger: logger}
}

// CreateRecurring registers a recurring event template.
func (s *EventService) CreateRecurring(ctx context.Context, actorID string, actorRole models.UserRole, req CreateRecurringEventRequest) (*models.RecurringEvent, error) {
	if !actorRole.StaffLevel() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "staff role required")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid recurring event payload")
	}
	if _, ok := s.contracts.Lookup(req.SubmissionType); !ok {
		return nil, appErrors.Clone(appErrors.ErrUnknownSubmission, "")
	}

	event := &models.RecurringEvent{
		Name:            req.Name,
		Description:     req.Description,
		SubmissionType:  req.SubmissionType,
		Cadence:         req.Cadence,
		RequiredCompany: req.RequiredCompany,
		IsActive:        true,
		CreatedBy:       actorID,
	}
	if err := s.store.CreateRecurring(ctx, event); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create recurring event")
	}
	s.logger.Info("recurring event created",
		zap.String("event_id", event.ID),
		zap.String("cadence", string(event.Cadence)))
	return event, nil
}

// CreateAdHoc registers a one-off event instance.
func (s *EventService) CreateAdHoc(ctx context.Context, actorID string, actorRole models.UserRole, req CreateAdHocEventRequest) (*models.EventInstance, error) {
	if !actorRole.StaffLevel() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "staff role required")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid event payload")
	}
	if _, ok := s.contracts.Lookup(req.SubmissionType); !ok {
		return nil, appErrors.Clone(appErrors.ErrUnknownSubmission, "")
	}

	instance := &models.EventInstance{
		Name:            req.Name,
		Description:     req.Description,
		EventType:       models.EventAdHoc,
		SubmissionType:  req.SubmissionType,
		RequiredCompany: req.RequiredCompany,
		DueDate:         req.DueDate,
		IsActive:        true,
		CreatedBy:       actorID,
	}
	if _, err := s.store.CreateInstance(ctx, instance); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create event")
	}
	s.logger.Info("ad hoc event created", zap.String("event_id", instance.ID))
	return instance, nil
}

// ListInstances returns event instances for the caller's scope.
func (s *EventService) ListInstances(ctx context.Context, filter models.EventInstanceFilter) ([]models.EventInstance, error) {
	instances, err := s.store.ListInstances(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list events")
	}
	return instances, nil
}

// Deactivate stops an instance from accepting submissions.
func (s *EventService) Deactivate(ctx context.Context, actorRole models.UserRole, id string) error {
	if !actorRole.StaffLevel() {
		return appErrors.Clone(appErrors.ErrForbidden, "staff role required")
	}
	if _, err := s.store.GetInstance(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}
	if err := s.store.DeactivateInstance(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate event")
	}
	return nil
}

// GenerateInstances materialises dated instances for every active template
// from `from` up to `until`. Weekly templates get one instance per week,
// monthly one per calendar month. The insert conflicts away duplicates, so
// the window can be re-run safely.
func (s *EventService) GenerateInstances(ctx context.Context, from, until time.Time) (int, error) {
	if !until.After(from) {
		return 0, appErrors.Clone(appErrors.ErrValidation, "generation window is empty")
	}

	templates, err := s.store.ListActiveRecurring(ctx)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load recurring events")
	}

	created := 0
	for _, template := range templates {
		for _, due := range scheduleDates(template.Cadence, from, until) {
			dueDate := due
			instance := &models.EventInstance{
				RecurringEventID: &template.ID,
				Name:             fmt.Sprintf("%s (%s)", template.Name, due.Format("2006-01-02")),
				Description:      template.Description,
				EventType:        models.EventRoutine,
				SubmissionType:   template.SubmissionType,
				RequiredCompany:  template.RequiredCompany,
				DueDate:          &dueDate,
				IsActive:         true,
				CreatedBy:        template.CreatedBy,
			}
			inserted, err := s.store.CreateInstance(ctx, instance)
			if err != nil {
				return created, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate event instance")
			}
			if inserted {
				created++
			}
		}
	}
	s.logger.Info("event instances generated",
		zap.Int("created", created),
		zap.Time("from", from),
		zap.Time("until", until))
	return created, nil
}

// scheduleDates enumerates due dates in (from, until] for a cadence.
func scheduleDates(cadence models.EventCadence, from, until time.Time) []time.Time {
	var dates []time.Time
	switch cadence {
	case models.CadenceWeekly:
		for due := from.AddDate(0, 0, 7); !due.After(until); due = due.AddDate(0, 0, 7) {
			dates = append(dates, due)
		}
	case models.CadenceMonthly:
		for due := from.AddDate(0, 1, 0); !due.After(until); due = due.AddDate(0, 1, 0) {
			dates = append(dates, due)
		}
	}
	return dates
}
