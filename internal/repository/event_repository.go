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

const eventInstanceColumns = `id, recurring_event_id, name, description, event_type, submission_type,
required_company, due_date, is_active, created_by, created_at`

// EventRepository provides database access for recurring event templates and
// their concrete instances.
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository creates a new instance of EventRepository.
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

// CreateRecurring inserts a recurring event template.
func (r *EventRepository) CreateRecurring(ctx context.Context, event *models.RecurringEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if event.CreatedAt.IsZero() {
		event.CreatedAt = now
	}
	event.UpdatedAt = now

	const query = `INSERT INTO recurring_events (id, name, description, submission_type, cadence, required_company, is_active, created_by, created_at, updated_at)
VALUES (:id, :name, :description, :submission_type, :cadence, :required_company, :is_active, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, event); err != nil {
		return fmt.Errorf("create recurring event: %w", err)
	}
	return nil
}

// ListActiveRecurring returns all active templates.
func (r *EventRepository) ListActiveRecurring(ctx context.Context) ([]models.RecurringEvent, error) {
	const query = `SELECT id, name, description, submission_type, cadence, required_company, is_active, created_by, created_at, updated_at
FROM recurring_events WHERE is_active = TRUE ORDER BY name`
	var events []models.RecurringEvent
	if err := r.db.SelectContext(ctx, &events, query); err != nil {
		return nil, fmt.Errorf("list recurring events: %w", err)
	}
	return events, nil
}

// CreateInstance inserts an event instance. Generation is idempotent per
// (recurring_event_id, due_date): re-running a window does not duplicate
// instances. Returns false without error when the instance already existed.
func (r *EventRepository) CreateInstance(ctx context.Context, instance *models.EventInstance) (bool, error) {
	if instance.ID == "" {
		instance.ID = uuid.NewString()
	}
	if instance.CreatedAt.IsZero() {
		instance.CreatedAt = time.Now().UTC()
	}

	query := fmt.Sprintf(`INSERT INTO event_instances (%s)
VALUES (:id, :recurring_event_id, :name, :description, :event_type, :submission_type,
:required_company, :due_date, :is_active, :created_by, :created_at)
ON CONFLICT (recurring_event_id, due_date) WHERE recurring_event_id IS NOT NULL DO NOTHING`, eventInstanceColumns)

	res, err := r.db.NamedExecContext(ctx, query, instance)
	if err != nil {
		return false, fmt.Errorf("create event instance: %w", err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("create event instance rows affected: %w", err)
	}
	return inserted == 1, nil
}

// GetInstance returns an event instance by identifier.
func (r *EventRepository) GetInstance(ctx context.Context, id string) (*models.EventInstance, error) {
	query := fmt.Sprintf("SELECT %s FROM event_instances WHERE id = $1 LIMIT 1", eventInstanceColumns)
	var instance models.EventInstance
	if err := r.db.GetContext(ctx, &instance, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get event instance %s: %w", id, err)
	}
	return &instance, nil
}

// ListInstances returns event instances matching the filter, newest first.
func (r *EventRepository) ListInstances(ctx context.Context, filter models.EventInstanceFilter) ([]models.EventInstance, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	if filter.ActiveOnly {
		where = append(where, "is_active = TRUE")
	}
	if filter.CompanyID != "" {
		where = append(where, fmt.Sprintf("(required_company IS NULL OR required_company = $%d)", len(args)+1))
		args = append(args, filter.CompanyID)
	}
	if filter.SubmissionType != "" {
		where = append(where, fmt.Sprintf("submission_type = $%d", len(args)+1))
		args = append(args, filter.SubmissionType)
	}
	if filter.DueAfter != nil {
		where = append(where, fmt.Sprintf("due_date >= $%d", len(args)+1))
		args = append(args, *filter.DueAfter)
	}
	if filter.DueBefore != nil {
		where = append(where, fmt.Sprintf("due_date <= $%d", len(args)+1))
		args = append(args, *filter.DueBefore)
	}

	query := fmt.Sprintf("SELECT %s FROM event_instances WHERE %s ORDER BY due_date DESC NULLS LAST, created_at DESC",
		eventInstanceColumns, strings.Join(where, " AND "))
	var instances []models.EventInstance
	if err := r.db.SelectContext(ctx, &instances, query, args...); err != nil {
		return nil, fmt.Errorf("list event instances: %w", err)
	}
	return instances, nil
}

// DeactivateInstance marks an instance inactive so it stops accepting
// submissions without losing history.
func (r *EventRepository) DeactivateInstance(ctx context.Context, id string) error {
	const query = `UPDATE event_instances SET is_active = FALSE WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("deactivate event instance %s: %w", id, err)
	}
	return nil
}
