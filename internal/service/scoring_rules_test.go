package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acu-apex/holistic-gpa-api/internal/models"
)

func approvedSubmission(t models.SubmissionType, payload string, points *float64) models.Submission {
	return models.Submission{
		SubmissionType: t,
		Payload:        models.RawPayload(payload),
		ApprovalStatus: models.StatusApproved,
		PointsGranted:  points,
	}
}

func ptsOf(v float64) *float64 { return &v }

func TestAttendanceScoreExcludesExcused(t *testing.T) {
	rows := []models.Submission{
		approvedSubmission(models.TypeAttendance, `{"status":"present"}`, ptsOf(4)),
		approvedSubmission(models.TypeAttendance, `{"status":"present"}`, ptsOf(4)),
		approvedSubmission(models.TypeAttendance, `{"status":"absent"}`, ptsOf(0)),
		approvedSubmission(models.TypeAttendance, `{"status":"excused"}`, ptsOf(0)),
	}
	score, ok := attendanceScore(rows)
	require.True(t, ok)
	assert.InDelta(t, 4.0*2.0/3.0, score, 1e-9)
}

func TestAttendanceScoreAllExcusedIsNotScoreable(t *testing.T) {
	rows := []models.Submission{
		approvedSubmission(models.TypeAttendance, `{"status":"excused"}`, ptsOf(0)),
	}
	_, ok := attendanceScore(rows)
	assert.False(t, ok)
}

func TestCommunityServiceScoreAppliesCaps(t *testing.T) {
	// 10h on one day caps at 8; 5h on another day stays; total 13 caps at 12.
	rows := []models.Submission{
		approvedSubmission(models.TypeCommunityService, `{"hours":10,"date_of_service":"2025-02-01"}`, ptsOf(4)),
		approvedSubmission(models.TypeCommunityService, `{"hours":5,"date_of_service":"2025-03-01"}`, ptsOf(4)),
	}
	score, ok := communityServiceScore(rows)
	require.True(t, ok)
	assert.InDelta(t, 4.0, score, 1e-9)
}

func TestCommunityServiceScoreSameDaySubmissionsShareDailyCap(t *testing.T) {
	rows := []models.Submission{
		approvedSubmission(models.TypeCommunityService, `{"hours":6,"date_of_service":"2025-02-01"}`, ptsOf(4)),
		approvedSubmission(models.TypeCommunityService, `{"hours":6,"date_of_service":"2025-02-01"}`, ptsOf(4)),
	}
	score, ok := communityServiceScore(rows)
	require.True(t, ok)
	assert.InDelta(t, 8.0/12.0*4.0, score, 1e-9)
}

func TestMonthlyCheckScoreCountsInvolvement(t *testing.T) {
	rows := []models.Submission{
		approvedSubmission(models.TypeSmallGroup, `{"status":"involved"}`, ptsOf(4)),
		approvedSubmission(models.TypeSmallGroup, `{"status":"not_involved"}`, ptsOf(0)),
	}
	score, ok := monthlyCheckScore(rows)
	require.True(t, ok)
	assert.InDelta(t, 2.0, score, 1e-9)
}

func TestRatingScoreRescalesFiveToFour(t *testing.T) {
	rows := []models.Submission{
		approvedSubmission(models.TypeGBEParticipation, `{"points":5}`, ptsOf(5)),
		approvedSubmission(models.TypeGBEParticipation, `{"points":3}`, ptsOf(3)),
	}
	score, ok := ratingScore(rows)
	require.True(t, ok)
	assert.InDelta(t, 4.0/5.0*4.0, score, 1e-9)
}

func TestPointsScoreClampsToScale(t *testing.T) {
	rows := []models.Submission{
		approvedSubmission(models.TypeLionsGames, `{"assigned_points":9}`, ptsOf(9)),
	}
	score, ok := pointsScore(rows)
	require.True(t, ok)
	assert.Equal(t, 4.0, score)
}

func TestComputeStudentScoreBuildsFullBreakdown(t *testing.T) {
	submissions := []models.Submission{
		approvedSubmission(models.TypeAttendance, `{"status":"present"}`, ptsOf(4)),
		approvedSubmission(models.TypeSmallGroup, `{"status":"involved"}`, ptsOf(4)),
		approvedSubmission(models.TypeCredentials, `{"credential_name":"x"}`, ptsOf(2)),
	}
	holistic, breakdown := computeStudentScore(submissions)

	require.Len(t, breakdown, 4)
	// Spiritual averages attendance (4) and small group (4).
	assert.InDelta(t, 4.0, breakdown[models.CategorySpiritual], 1e-9)
	assert.InDelta(t, 2.0, breakdown[models.CategoryProfessional], 1e-9)
	assert.Equal(t, 0.0, breakdown[models.CategoryAcademic])
	assert.Equal(t, 0.0, breakdown[models.CategoryTeam])
	assert.InDelta(t, 6.0/4.0, holistic, 1e-9)
}

func TestComputeStudentScoreEmptyIsZero(t *testing.T) {
	holistic, breakdown := computeStudentScore(nil)
	assert.Equal(t, 0.0, holistic)
	require.Len(t, breakdown, 4)
	for _, category := range models.Categories() {
		assert.Equal(t, 0.0, breakdown[category])
	}
}

func TestComputeStudentScoreIsDeterministic(t *testing.T) {
	submissions := []models.Submission{
		approvedSubmission(models.TypeAttendance, `{"status":"present"}`, ptsOf(4)),
		approvedSubmission(models.TypeCommunityService, `{"hours":4,"date_of_service":"2025-02-01"}`, ptsOf(4)),
		approvedSubmission(models.TypeGBEParticipation, `{"points":3}`, ptsOf(3)),
	}
	firstGPA, firstBreakdown := computeStudentScore(submissions)
	for i := 0; i < 20; i++ {
		gpa, breakdown := computeStudentScore(submissions)
		require.Equal(t, firstGPA, gpa)
		require.Equal(t, firstBreakdown, breakdown)
	}
}

func TestRankStandingsBreaksTiesByName(t *testing.T) {
	date := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	prev := 3.0
	snapshots := []models.LatestCompanySnapshot{
		{CompanyID: "c-bravo", CompanyName: "Bravo", HolisticGPA: 3.5, CalculationDate: date},
		{CompanyID: "c-alpha", CompanyName: "Alpha", HolisticGPA: 3.5, CalculationDate: date, PreviousGPA: &prev},
		{CompanyID: "c-delta", CompanyName: "Delta", HolisticGPA: 3.9, CalculationDate: date},
	}

	standings := rankStandings(snapshots)
	require.Len(t, standings, 3)
	assert.Equal(t, []string{"Delta", "Alpha", "Bravo"}, []string{standings[0].CompanyName, standings[1].CompanyName, standings[2].CompanyName})
	assert.Equal(t, 1, standings[0].Rank)
	assert.Equal(t, 2, standings[1].Rank)
	assert.Equal(t, 3, standings[2].Rank)

	require.NotNil(t, standings[1].Delta)
	assert.InDelta(t, 0.5, *standings[1].Delta, 1e-9)
	assert.Nil(t, standings[0].Delta)
}

func TestRankStandingsSameInputSameOutput(t *testing.T) {
	date := time.Now().UTC()
	snapshots := []models.LatestCompanySnapshot{
		{CompanyID: "c1", CompanyName: "Juniper", HolisticGPA: 2.5, CalculationDate: date},
		{CompanyID: "c2", CompanyName: "Aspen", HolisticGPA: 2.5, CalculationDate: date},
		{CompanyID: "c3", CompanyName: "Cedar", HolisticGPA: 2.5, CalculationDate: date},
	}
	first := rankStandings(snapshots)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, rankStandings(snapshots))
	}
}
