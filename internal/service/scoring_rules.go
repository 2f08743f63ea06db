package service

import (
	"encoding/json"
	"math"
	"sort"

	"github.com/acu-apex/holistic-gpa-api/internal/models"
)

const (
	maxGPA float64 = 4.0

	serviceDailyCapHours  float64 = 8
	serviceYearlyCapHours float64 = 12

	ratingScaleMax float64 = 5
)

// categoryOf maps every submission type into its pillar.
var categoryOf = map[models.SubmissionType]models.Category{
	models.TypeAttendance:   models.CategorySpiritual,
	models.TypeSmallGroup:   models.CategorySpiritual,
	models.TypeDreamTeam:    models.CategorySpiritual,
	models.TypeSpiritual:    models.CategorySpiritual,
	models.TypeCredentials:  models.CategoryProfessional,
	models.TypeJobPromotion: models.CategoryProfessional,
	models.TypeGBEParticipation: models.CategoryProfessional,
	models.TypeProfessional:     models.CategoryProfessional,
	models.TypeAcademic:         models.CategoryAcademic,
	models.TypeCommunityService: models.CategoryTeam,
	models.TypeTeamParticipation:   models.CategoryTeam,
	models.TypeCompanyTeamBuilding: models.CategoryTeam,
	models.TypeLionsGames:          models.CategoryTeam,
	models.TypeTeamMeeting:         models.CategoryTeam,
	models.TypeLeaderMeeting:       models.CategoryTeam,
	models.TypeFellowFriday:        models.CategoryTeam,
}

func clampGPA(v float64) float64 {
	return math.Max(0, math.Min(maxGPA, v))
}

// subcategoryScore reduces one submission type's approved rows to a 0-4 score.
// The second return is false when the rows carry no scoreable signal, so the
// subcategory is left out of its category average instead of counting as zero.
func subcategoryScore(submissionType models.SubmissionType, rows []models.Submission) (float64, bool) {
	switch submissionType {
	case models.TypeAttendance, models.TypeTeamMeeting, models.TypeLeaderMeeting, models.TypeFellowFriday:
		return attendanceScore(rows)
	case models.TypeSmallGroup, models.TypeDreamTeam:
		return monthlyCheckScore(rows)
	case models.TypeCommunityService:
		return communityServiceScore(rows)
	case models.TypeGBEParticipation, models.TypeCompanyTeamBuilding:
		return ratingScore(rows)
	default:
		// Staff-assigned point types: credentials, promotions, lions games
		// and the dormant pillar categories.
		return pointsScore(rows)
	}
}

// attendanceScore is the present fraction on a 0-4 scale. Excused rows are
// excluded from the denominator.
func attendanceScore(rows []models.Submission) (float64, bool) {
	var present, countable int
	for _, row := range rows {
		var payload struct {
			Status models.AttendanceStatus `json:"status"`
		}
		if err := json.Unmarshal([]byte(row.Payload), &payload); err != nil {
			continue
		}
		switch payload.Status {
		case models.AttendancePresent:
			present++
			countable++
		case models.AttendanceAbsent:
			countable++
		}
	}
	if countable == 0 {
		return 0, false
	}
	return clampGPA(float64(present) / float64(countable) * maxGPA), true
}

// monthlyCheckScore is the involved fraction of monthly checks on a 0-4
// scale. A check counts as involved when it was approved with points.
func monthlyCheckScore(rows []models.Submission) (float64, bool) {
	if len(rows) == 0 {
		return 0, false
	}
	involved := 0
	for _, row := range rows {
		if row.PointsGranted != nil && *row.PointsGranted > 0 {
			involved++
		}
	}
	return clampGPA(float64(involved) / float64(len(rows)) * maxGPA), true
}

// communityServiceScore caps hours at 8 per service day and 12 per year,
// then scales the capped total onto 0-4.
func communityServiceScore(rows []models.Submission) (float64, bool) {
	if len(rows) == 0 {
		return 0, false
	}
	perDay := make(map[string]float64)
	for _, row := range rows {
		var payload struct {
			Hours         float64 `json:"hours"`
			DateOfService string  `json:"date_of_service"`
		}
		if err := json.Unmarshal([]byte(row.Payload), &payload); err != nil {
			continue
		}
		perDay[payload.DateOfService] += payload.Hours
	}
	var total float64
	for _, hours := range perDay {
		total += math.Min(hours, serviceDailyCapHours)
	}
	total = math.Min(total, serviceYearlyCapHours)
	return clampGPA(total / serviceYearlyCapHours * maxGPA), true
}

// ratingScore averages staff-assigned 0-5 ratings and rescales onto 0-4.
func ratingScore(rows []models.Submission) (float64, bool) {
	var sum float64
	var count int
	for _, row := range rows {
		if row.PointsGranted == nil {
			continue
		}
		sum += *row.PointsGranted
		count++
	}
	if count == 0 {
		return 0, false
	}
	return clampGPA(sum / float64(count) / ratingScaleMax * maxGPA), true
}

// pointsScore averages staff-assigned points, clamped onto 0-4.
func pointsScore(rows []models.Submission) (float64, bool) {
	var sum float64
	var count int
	for _, row := range rows {
		if row.PointsGranted == nil {
			continue
		}
		sum += *row.PointsGranted
		count++
	}
	if count == 0 {
		return 0, false
	}
	return clampGPA(sum / float64(count)), true
}

// computeStudentScore reduces a student's approved submissions to the four
// pillar scores and the holistic scalar. A pillar with no scoreable
// subcategories contributes zero, so the holistic GPA is always the mean
// over all four pillars.
func computeStudentScore(submissions []models.Submission) (float64, models.Breakdown) {
	byType := make(map[models.SubmissionType][]models.Submission)
	for _, s := range submissions {
		byType[s.SubmissionType] = append(byType[s.SubmissionType], s)
	}

	categorySums := make(map[models.Category]float64)
	categoryCounts := make(map[models.Category]int)
	for submissionType, rows := range byType {
		category, ok := categoryOf[submissionType]
		if !ok {
			continue
		}
		score, scoreable := subcategoryScore(submissionType, rows)
		if !scoreable {
			continue
		}
		categorySums[category] += score
		categoryCounts[category]++
	}

	breakdown := make(models.Breakdown, len(models.Categories()))
	var total float64
	for _, category := range models.Categories() {
		var score float64
		if categoryCounts[category] > 0 {
			score = clampGPA(categorySums[category] / float64(categoryCounts[category]))
		}
		breakdown[category] = score
		total += score
	}
	holistic := clampGPA(total / float64(len(models.Categories())))
	return holistic, breakdown
}

// rankStandings orders latest snapshots into the published standings:
// holistic GPA descending, ties broken by company name ascending so equal
// inputs always produce identical output.
func rankStandings(snapshots []models.LatestCompanySnapshot) []models.CompanyStanding {
	ordered := make([]models.LatestCompanySnapshot, len(snapshots))
	copy(ordered, snapshots)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].HolisticGPA != ordered[j].HolisticGPA {
			return ordered[i].HolisticGPA > ordered[j].HolisticGPA
		}
		return ordered[i].CompanyName < ordered[j].CompanyName
	})

	standings := make([]models.CompanyStanding, 0, len(ordered))
	for i, snapshot := range ordered {
		standing := models.CompanyStanding{
			Rank:            i + 1,
			CompanyID:       snapshot.CompanyID,
			CompanyName:     snapshot.CompanyName,
			HolisticGPA:     snapshot.HolisticGPA,
			Breakdown:       snapshot.Breakdown,
			CalculationDate: snapshot.CalculationDate,
		}
		if snapshot.PreviousGPA != nil {
			delta := snapshot.HolisticGPA - *snapshot.PreviousGPA
			standing.Delta = &delta
		}
		standings = append(standings, standing)
	}
	return standings
}
