package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/acu-apex/holistic-gpa-api/internal/models"
	appErrors "github.com/acu-apex/holistic-gpa-api/pkg/errors"
	"github.com/acu-apex/holistic-gpa-api/pkg/export"
	"github.com/acu-apex/holistic-gpa-api/pkg/jobs"
)

const recalcJobType = "company_recalc"

type approvedSubmissionReader interface {
	ListApprovedByStudent(ctx context.Context, studentID string, year int) ([]models.Submission, error)
	ListApprovedByCompany(ctx context.Context, companyID string, year int) (map[string][]models.Submission, error)
}

type rosterReader interface {
	ListActive(ctx context.Context) ([]models.Company, error)
	GetStudent(ctx context.Context, id string) (*models.Student, error)
	ListActiveMembers(ctx context.Context, companyID string) ([]models.Student, error)
}

type snapshotStore interface {
	AppendStudentSnapshot(ctx context.Context, snapshot *models.StudentScoreSnapshot) error
	AppendCompanySnapshot(ctx context.Context, snapshot *models.CompanyGPASnapshot) error
	LatestCompanySnapshots(ctx context.Context, year int) ([]models.LatestCompanySnapshot, error)
	StudentSnapshotHistory(ctx context.Context, studentID string, year, limit int) ([]models.StudentScoreSnapshot, error)
}

type standingsCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

type recalcEnqueuer interface {
	Enqueue(job jobs.Job) error
}

// ScoringConfig tunes the aggregation pipeline.
type ScoringConfig struct {
	AcademicYear      int
	StandingsCacheTTL time.Duration
}

// ScoringService computes holistic GPAs from approved submissions, appends
// immutable score snapshots, and serves the ranked company standings.
type ScoringService struct {
	submissions approvedSubmissionReader
	roster      rosterReader
	snapshots   snapshotStore
	cache       standingsCache
	trigger     recalcEnqueuer
	metrics     *MetricsService
	logger      *zap.Logger
	config      ScoringConfig
}

// NewScoringService constructs a ScoringService.
func NewScoringService(submissions approvedSubmissionReader, roster rosterReader, snapshots snapshotStore, cache standingsCache, metrics *MetricsService, logger *zap.Logger, config ScoringConfig) *ScoringService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.AcademicYear == 0 {
		config.AcademicYear = time.Now().UTC().Year()
	}
	if config.StandingsCacheTTL <= 0 {
		config.StandingsCacheTTL = 5 * time.Minute
	}
	return &ScoringService{
		submissions: submissions,
		roster:      roster,
		snapshots:   snapshots,
		cache:       cache,
		metrics:     metrics,
		logger:      logger,
		config:      config,
	}
}

// AttachQueue wires the background queue that carries recalculation jobs.
// Until attached, triggers fall back to synchronous recalculation.
func (s *ScoringService) AttachQueue(queue recalcEnqueuer) {
	s.trigger = queue
}

// Year resolves a requested academic year, defaulting to the configured one.
func (s *ScoringService) Year(requested int) int {
	if requested > 0 {
		return requested
	}
	return s.config.AcademicYear
}

// TriggerCompanyRecalc schedules a recalculation for one company. Jobs are
// keyed by company so bursts of approvals collapse into a single run.
func (s *ScoringService) TriggerCompanyRecalc(ctx context.Context, companyID string, year int) {
	if companyID == "" {
		return
	}
	year = s.Year(year)
	if s.trigger == nil {
		if err := s.RecalculateCompany(ctx, companyID, year); err != nil {
			s.logger.Error("synchronous company recalculation failed",
				zap.String("company_id", companyID), zap.Error(err))
		}
		return
	}
	job := jobs.Job{
		Type:    recalcJobType,
		Key:     companyID + ":" + strconv.Itoa(year),
		Payload: recalcPayload{CompanyID: companyID, Year: year},
	}
	if err := s.trigger.Enqueue(job); err != nil {
		s.logger.Error("failed to enqueue company recalculation",
			zap.String("company_id", companyID), zap.Error(err))
	}
}

type recalcPayload struct {
	CompanyID string
	Year      int
}

// HandleRecalcJob is the queue handler for recalculation jobs.
func (s *ScoringService) HandleRecalcJob(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(recalcPayload)
	if !ok {
		return fmt.Errorf("unexpected payload for job %s", job.Type)
	}
	return s.RecalculateCompany(ctx, payload.CompanyID, payload.Year)
}

// RecalculateCompany recomputes every active member's holistic GPA from
// their approved submissions, appends student snapshots, then appends one
// company snapshot averaging the member scalars. Prior snapshots are never
// touched; the standings cache is invalidated so readers pick up the new row.
func (s *ScoringService) RecalculateCompany(ctx context.Context, companyID string, year int) error {
	year = s.Year(year)
	started := time.Now()

	members, err := s.roster.ListActiveMembers(ctx, companyID)
	if err != nil {
		return fmt.Errorf("load members of company %s: %w", companyID, err)
	}
	if len(members) == 0 {
		s.logger.Info("skipping recalculation for empty company", zap.String("company_id", companyID))
		return nil
	}

	grouped, err := s.submissions.ListApprovedByCompany(ctx, companyID, year)
	if err != nil {
		return fmt.Errorf("load approved submissions for company %s: %w", companyID, err)
	}

	calculatedAt := time.Now().UTC()
	var gpaTotal float64
	breakdownTotals := make(map[models.Category]float64)
	for _, member := range members {
		holistic, breakdown := computeStudentScore(grouped[member.ID])
		gpaTotal += holistic
		for category, score := range breakdown {
			breakdownTotals[category] += score
		}
		if err := s.snapshots.AppendStudentSnapshot(ctx, &models.StudentScoreSnapshot{
			StudentID:       member.ID,
			AcademicYear:    year,
			HolisticGPA:     holistic,
			Breakdown:       breakdown,
			CalculationDate: calculatedAt,
		}); err != nil {
			return fmt.Errorf("append snapshot for student %s: %w", member.ID, err)
		}
	}

	companyBreakdown := make(models.Breakdown, len(models.Categories()))
	for _, category := range models.Categories() {
		companyBreakdown[category] = breakdownTotals[category] / float64(len(members))
	}
	companyGPA := clampGPA(gpaTotal / float64(len(members)))

	if err := s.snapshots.AppendCompanySnapshot(ctx, &models.CompanyGPASnapshot{
		CompanyID:       companyID,
		AcademicYear:    year,
		HolisticGPA:     companyGPA,
		Breakdown:       companyBreakdown,
		CalculationDate: calculatedAt,
	}); err != nil {
		return fmt.Errorf("append snapshot for company %s: %w", companyID, err)
	}

	if s.cache != nil {
		if err := s.cache.DeleteByPattern(ctx, standingsCachePattern); err != nil {
			s.logger.Warn("failed to invalidate standings cache", zap.Error(err))
		}
	}
	s.metrics.RecordRecalculation(time.Since(started))
	s.logger.Info("company recalculated",
		zap.String("company_id", companyID),
		zap.Int("year", year),
		zap.Float64("holistic_gpa", companyGPA),
		zap.Int("members", len(members)))
	return nil
}

const (
	standingsCacheKeyPrefix = "standings:"
	standingsCachePattern   = "standings:*"
)

// GetCompanyStandings returns the ranked company list for a year, serving
// from cache when warm.
func (s *ScoringService) GetCompanyStandings(ctx context.Context, year int) ([]models.CompanyStanding, error) {
	year = s.Year(year)
	cacheKey := standingsCacheKeyPrefix + strconv.Itoa(year)

	if s.cache != nil {
		var cached []models.CompanyStanding
		lookupStart := time.Now()
		err := s.cache.Get(ctx, cacheKey, &cached)
		s.metrics.RecordCacheOperation(err == nil, time.Since(lookupStart))
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("standings cache read failed", zap.Error(err))
		}
	}

	snapshots, err := s.snapshots.LatestCompanySnapshots(ctx, year)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load company snapshots")
	}
	standings := rankStandings(snapshots)

	if s.cache != nil {
		writeStart := time.Now()
		if err := s.cache.Set(ctx, cacheKey, standings, s.config.StandingsCacheTTL); err != nil {
			s.logger.Warn("standings cache write failed", zap.Error(err))
		}
		s.metrics.ObserveCacheWrite(time.Since(writeStart))
	}
	return standings, nil
}

// GetStudentHolisticGPA computes a student's current holistic GPA and
// breakdown live from their approved submissions.
func (s *ScoringService) GetStudentHolisticGPA(ctx context.Context, studentID string, year int) (*models.StudentScore, error) {
	year = s.Year(year)
	if _, err := s.roster.GetStudent(ctx, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	submissions, err := s.submissions.ListApprovedByStudent(ctx, studentID, year)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load approved submissions")
	}
	holistic, breakdown := computeStudentScore(submissions)
	return &models.StudentScore{
		StudentID:    studentID,
		AcademicYear: year,
		HolisticGPA:  holistic,
		Breakdown:    breakdown,
		CalculatedAt: time.Now().UTC(),
	}, nil
}

// GetStudentHistory lists a student's score snapshots, newest first.
func (s *ScoringService) GetStudentHistory(ctx context.Context, studentID string, year, limit int) ([]models.StudentScoreSnapshot, error) {
	year = s.Year(year)
	if _, err := s.roster.GetStudent(ctx, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	history, err := s.snapshots.StudentSnapshotHistory(ctx, studentID, year, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load score history")
	}
	return history, nil
}

// StandingsDataset shapes the current standings into an exportable table.
func (s *ScoringService) StandingsDataset(ctx context.Context, year int) (export.Dataset, error) {
	standings, err := s.GetCompanyStandings(ctx, year)
	if err != nil {
		return export.Dataset{}, err
	}

	headers := []string{"Rank", "Company", "Holistic GPA", "Spiritual", "Professional", "Academic", "Team", "Calculated"}
	rows := make([]map[string]string, 0, len(standings))
	for _, standing := range standings {
		rows = append(rows, map[string]string{
			"Rank":         strconv.Itoa(standing.Rank),
			"Company":      standing.CompanyName,
			"Holistic GPA": strconv.FormatFloat(standing.HolisticGPA, 'f', 2, 64),
			"Spiritual":    strconv.FormatFloat(standing.Breakdown[models.CategorySpiritual], 'f', 2, 64),
			"Professional": strconv.FormatFloat(standing.Breakdown[models.CategoryProfessional], 'f', 2, 64),
			"Academic":     strconv.FormatFloat(standing.Breakdown[models.CategoryAcademic], 'f', 2, 64),
			"Team":         strconv.FormatFloat(standing.Breakdown[models.CategoryTeam], 'f', 2, 64),
			"Calculated":   standing.CalculationDate.UTC().Format(time.RFC3339),
		})
	}
	return export.Dataset{Headers: headers, Rows: rows}, nil
}
