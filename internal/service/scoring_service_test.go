package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/acu-apex/holistic-gpa-api/internal/models"
	appErrors "github.com/acu-apex/holistic-gpa-api/pkg/errors"
)

type mockApprovedReader struct {
	byStudent map[string][]models.Submission
	byCompany map[string]map[string][]models.Submission
}

func (m *mockApprovedReader) ListApprovedByStudent(ctx context.Context, studentID string, year int) ([]models.Submission, error) {
	return m.byStudent[studentID], nil
}

func (m *mockApprovedReader) ListApprovedByCompany(ctx context.Context, companyID string, year int) (map[string][]models.Submission, error) {
	if grouped, ok := m.byCompany[companyID]; ok {
		return grouped, nil
	}
	return map[string][]models.Submission{}, nil
}

type mockRoster struct {
	companies []models.Company
	students  map[string]models.Student
	members   map[string][]models.Student
}

func (m *mockRoster) ListActive(ctx context.Context) ([]models.Company, error) {
	return m.companies, nil
}

func (m *mockRoster) GetStudent(ctx context.Context, id string) (*models.Student, error) {
	if s, ok := m.students[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockRoster) ListActiveMembers(ctx context.Context, companyID string) ([]models.Student, error) {
	return m.members[companyID], nil
}

type mockSnapshotStore struct {
	studentSnapshots []models.StudentScoreSnapshot
	companySnapshots []models.CompanyGPASnapshot
	latest           []models.LatestCompanySnapshot
	history          map[string][]models.StudentScoreSnapshot
}

func (m *mockSnapshotStore) AppendStudentSnapshot(ctx context.Context, snapshot *models.StudentScoreSnapshot) error {
	m.studentSnapshots = append(m.studentSnapshots, *snapshot)
	return nil
}

func (m *mockSnapshotStore) AppendCompanySnapshot(ctx context.Context, snapshot *models.CompanyGPASnapshot) error {
	m.companySnapshots = append(m.companySnapshots, *snapshot)
	return nil
}

func (m *mockSnapshotStore) LatestCompanySnapshots(ctx context.Context, year int) ([]models.LatestCompanySnapshot, error) {
	return m.latest, nil
}

func (m *mockSnapshotStore) StudentSnapshotHistory(ctx context.Context, studentID string, year, limit int) ([]models.StudentScoreSnapshot, error) {
	return m.history[studentID], nil
}

type mockStandingsCache struct {
	values      map[string][]byte
	invalidated []string
	sets        int
}

func (m *mockStandingsCache) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *mockStandingsCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if m.values == nil {
		m.values = make(map[string][]byte)
	}
	m.values[key] = raw
	m.sets++
	return nil
}

func (m *mockStandingsCache) DeleteByPattern(ctx context.Context, pattern string) error {
	m.invalidated = append(m.invalidated, pattern)
	m.values = nil
	return nil
}

func newScoringFixture() (*ScoringService, *mockSnapshotStore, *mockStandingsCache) {
	company := "co-1"
	submissions := &mockApprovedReader{
		byStudent: map[string][]models.Submission{
			"st-1": {
				approvedSubmission(models.TypeAttendance, `{"status":"present"}`, ptsOf(4)),
				approvedSubmission(models.TypeSmallGroup, `{"status":"involved"}`, ptsOf(4)),
			},
		},
		byCompany: map[string]map[string][]models.Submission{
			"co-1": {
				"st-1": {
					approvedSubmission(models.TypeAttendance, `{"status":"present"}`, ptsOf(4)),
				},
				// st-2 has no approved submissions and scores zero.
			},
		},
	}
	roster := &mockRoster{
		companies: []models.Company{{ID: "co-1", Name: "Alpha", IsActive: true}},
		students: map[string]models.Student{
			"st-1": {ID: "st-1", UserID: "u-1", CompanyID: &company, IsActive: true},
			"st-2": {ID: "st-2", UserID: "u-2", CompanyID: &company, IsActive: true},
		},
		members: map[string][]models.Student{
			"co-1": {
				{ID: "st-1", CompanyID: &company, IsActive: true},
				{ID: "st-2", CompanyID: &company, IsActive: true},
			},
		},
	}
	snapshots := &mockSnapshotStore{history: map[string][]models.StudentScoreSnapshot{}}
	cache := &mockStandingsCache{}
	svc := NewScoringService(submissions, roster, snapshots, cache, nil, zap.NewNop(), ScoringConfig{AcademicYear: 2025})
	return svc, snapshots, cache
}

func TestRecalculateCompanyAppendsSnapshots(t *testing.T) {
	svc, snapshots, cache := newScoringFixture()

	err := svc.RecalculateCompany(context.Background(), "co-1", 2025)
	require.NoError(t, err)

	require.Len(t, snapshots.studentSnapshots, 2)
	require.Len(t, snapshots.companySnapshots, 1)

	// st-1: spiritual 4, others 0 -> holistic 1. st-2: all zero.
	var st1 models.StudentScoreSnapshot
	for _, snapshot := range snapshots.studentSnapshots {
		if snapshot.StudentID == "st-1" {
			st1 = snapshot
		}
	}
	assert.InDelta(t, 1.0, st1.HolisticGPA, 1e-9)
	assert.InDelta(t, 4.0, st1.Breakdown[models.CategorySpiritual], 1e-9)

	company := snapshots.companySnapshots[0]
	assert.Equal(t, "co-1", company.CompanyID)
	assert.Equal(t, 2025, company.AcademicYear)
	assert.InDelta(t, 0.5, company.HolisticGPA, 1e-9)
	assert.InDelta(t, 2.0, company.Breakdown[models.CategorySpiritual], 1e-9)

	assert.Equal(t, []string{standingsCachePattern}, cache.invalidated)
}

func TestRecalculateCompanySkipsEmptyRoster(t *testing.T) {
	svc, snapshots, _ := newScoringFixture()

	err := svc.RecalculateCompany(context.Background(), "co-empty", 2025)
	require.NoError(t, err)
	assert.Empty(t, snapshots.studentSnapshots)
	assert.Empty(t, snapshots.companySnapshots)
}

func TestGetCompanyStandingsCachesResult(t *testing.T) {
	svc, snapshots, cache := newScoringFixture()
	date := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	snapshots.latest = []models.LatestCompanySnapshot{
		{CompanyID: "co-1", CompanyName: "Alpha", HolisticGPA: 3.2, Breakdown: models.Breakdown{}, CalculationDate: date},
		{CompanyID: "co-2", CompanyName: "Bravo", HolisticGPA: 3.8, Breakdown: models.Breakdown{}, CalculationDate: date},
	}

	standings, err := svc.GetCompanyStandings(context.Background(), 2025)
	require.NoError(t, err)
	require.Len(t, standings, 2)
	assert.Equal(t, "Bravo", standings[0].CompanyName)
	assert.Equal(t, 1, standings[0].Rank)
	assert.Equal(t, 1, cache.sets)

	// Second read is served from cache: changing the store has no effect.
	snapshots.latest = nil
	cached, err := svc.GetCompanyStandings(context.Background(), 2025)
	require.NoError(t, err)
	assert.Equal(t, standings, cached)
	assert.Equal(t, 1, cache.sets)
}

func TestGetStudentHolisticGPAComputesLive(t *testing.T) {
	svc, _, _ := newScoringFixture()

	score, err := svc.GetStudentHolisticGPA(context.Background(), "st-1", 2025)
	require.NoError(t, err)
	assert.Equal(t, "st-1", score.StudentID)
	assert.Equal(t, 2025, score.AcademicYear)
	// Attendance and small group both land in spiritual: (4+4)/2 = 4,
	// holistic = 4/4 pillars = 1.
	assert.InDelta(t, 1.0, score.HolisticGPA, 1e-9)
	assert.InDelta(t, 4.0, score.Breakdown[models.CategorySpiritual], 1e-9)
}

func TestGetStudentHolisticGPAUnknownStudent(t *testing.T) {
	svc, _, _ := newScoringFixture()

	_, err := svc.GetStudentHolisticGPA(context.Background(), "st-missing", 2025)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestYearDefaultsToConfigured(t *testing.T) {
	svc, _, _ := newScoringFixture()
	assert.Equal(t, 2025, svc.Year(0))
	assert.Equal(t, 2024, svc.Year(2024))
}

func TestStandingsDatasetShape(t *testing.T) {
	svc, snapshots, _ := newScoringFixture()
	snapshots.latest = []models.LatestCompanySnapshot{
		{CompanyID: "co-1", CompanyName: "Alpha", HolisticGPA: 3.25,
			Breakdown: models.Breakdown{models.CategorySpiritual: 4, models.CategoryTeam: 2.5},
			CalculationDate: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)},
	}

	dataset, err := svc.StandingsDataset(context.Background(), 2025)
	require.NoError(t, err)
	require.Len(t, dataset.Rows, 1)
	assert.Equal(t, "1", dataset.Rows[0]["Rank"])
	assert.Equal(t, "Alpha", dataset.Rows[0]["Company"])
	assert.Equal(t, "3.25", dataset.Rows[0]["Holistic GPA"])
	assert.Equal(t, "2.50", dataset.Rows[0]["Team"])
}
