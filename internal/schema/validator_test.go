package schema

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acu-apex/holistic-gpa-api/internal/models"
	appErrors "github.com/acu-apex/holistic-gpa-api/pkg/errors"
)

func validPayloads() map[models.SubmissionType]map[string]interface{} {
	return map[models.SubmissionType]map[string]interface{}{
		models.TypeAttendance:        {"status": "present"},
		models.TypeSmallGroup:        {"status": "involved"},
		models.TypeDreamTeam:         {"status": "not_involved"},
		models.TypeCommunityService:  {"hours": 4.5, "organization": "City Shelter", "supervisor_name": "Dana Reyes", "supervisor_contact": "dana@cityshelter.org", "description": "Sorted donations for the winter drive", "date_of_service": "2025-02-15"},
		models.TypeCredentials:       {"credential_name": "ServSafe", "granting_organization": "NRA", "date_of_credential": "2025-01-20"},
		models.TypeJobPromotion:      {"promotion_title": "Shift Lead", "organization": "Campus Cafe", "supervisor_name": "Mike Tran", "supervisor_contact": "mike@campuscafe.com", "description": "Promoted to shift lead after one semester", "date_of_promotion": "2025-03-01"},
		models.TypeTeamParticipation: {"team_type": "chapel_team", "date_of_participation": "2025-02-01"},
		models.TypeGBEParticipation:  {"points": 4.0},
		models.TypeCompanyTeamBuilding: {"points": 3.0},
		models.TypeLionsGames:          {"assigned_points": 7.0},
		models.TypeTeamMeeting:         {"status": "present"},
		models.TypeLeaderMeeting:       {"status": "excused"},
		models.TypeFellowFriday:        {"status": "absent"},
		models.TypeAcademic:            {"points": 3.5},
		models.TypeSpiritual:           {"points": 2.0},
		models.TypeProfessional:        {"points": 1.0},
	}
}

func mustJSON(t *testing.T, v interface{}) []byte {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return raw
}

func TestRegistryValidPayloadsValidate(t *testing.T) {
	registry := NewRegistry()
	for submissionType, payload := range validPayloads() {
		contract, ok := registry.Lookup(submissionType)
		require.True(t, ok, "missing contract for %s", submissionType)
		require.Equal(t, submissionType, contract.Type)

		typed, err := registry.Validate(submissionType, mustJSON(t, payload))
		require.NoError(t, err, "type %s", submissionType)
		require.Equal(t, submissionType, typed.SubmissionType())
	}
}

func TestRegistryMissingRequiredFieldNamesField(t *testing.T) {
	registry := NewRegistry()
	for submissionType, payload := range validPayloads() {
		contract, ok := registry.Lookup(submissionType)
		require.True(t, ok)

		for _, required := range contract.RequiredFields() {
			partial := make(map[string]interface{}, len(payload))
			for k, v := range payload {
				partial[k] = v
			}
			delete(partial, required)

			_, err := registry.Validate(submissionType, mustJSON(t, partial))
			require.Error(t, err, "type %s field %s", submissionType, required)

			appErr := appErrors.FromError(err)
			require.Equal(t, appErrors.ErrValidation.Code, appErr.Code)

			found := false
			for _, fe := range appErr.Fields {
				if fe.Field == required {
					found = true
					break
				}
			}
			assert.True(t, found, "type %s: missing %s not reported, got %+v", submissionType, required, appErr.Fields)
		}
	}
}

func TestRegistryUnknownType(t *testing.T) {
	registry := NewRegistry()
	_, err := registry.Validate("karaoke_night", []byte(`{}`))
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.Equal(t, appErrors.ErrUnknownSubmission.Code, appErr.Code)
	assert.Empty(t, appErr.Fields)
}

func TestRegistryHoursOutOfBounds(t *testing.T) {
	registry := NewRegistry()
	payload := validPayloads()[models.TypeCommunityService]
	payload["hours"] = 30.0

	_, err := registry.Validate(models.TypeCommunityService, mustJSON(t, payload))
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.Len(t, appErr.Fields, 1)
	assert.Equal(t, "hours", appErr.Fields[0].Field)
	assert.Contains(t, appErr.Fields[0].Message, "24")

	payload["hours"] = -1.0
	_, err = registry.Validate(models.TypeCommunityService, mustJSON(t, payload))
	require.Error(t, err)
	appErr = appErrors.FromError(err)
	require.Len(t, appErr.Fields, 1)
	assert.Equal(t, "hours", appErr.Fields[0].Field)
	assert.Contains(t, appErr.Fields[0].Message, "at least 0")
}

func TestRegistryMalformedFormats(t *testing.T) {
	registry := NewRegistry()

	payload := validPayloads()[models.TypeCommunityService]
	payload["supervisor_contact"] = "not-an-email"
	_, err := registry.Validate(models.TypeCommunityService, mustJSON(t, payload))
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.Len(t, appErr.Fields, 1)
	assert.Equal(t, "supervisor_contact", appErr.Fields[0].Field)
	assert.Contains(t, appErr.Fields[0].Message, "email")

	payload = validPayloads()[models.TypeCredentials]
	payload["date_of_credential"] = "01/20/2025"
	_, err = registry.Validate(models.TypeCredentials, mustJSON(t, payload))
	require.Error(t, err)
	appErr = appErrors.FromError(err)
	require.Len(t, appErr.Fields, 1)
	assert.Equal(t, "date_of_credential", appErr.Fields[0].Field)
	assert.Contains(t, appErr.Fields[0].Message, "YYYY-MM-DD")
}

func TestRegistryRejectsFutureParticipation(t *testing.T) {
	registry := NewRegistry()
	payload := validPayloads()[models.TypeTeamParticipation]
	payload["date_of_participation"] = time.Now().AddDate(0, 0, 7).Format("2006-01-02")

	_, err := registry.Validate(models.TypeTeamParticipation, mustJSON(t, payload))
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.Len(t, appErr.Fields, 1)
	assert.Equal(t, "date_of_participation", appErr.Fields[0].Field)
	assert.Contains(t, appErr.Fields[0].Message, "future")
}

func TestRegistryEnumViolations(t *testing.T) {
	registry := NewRegistry()

	_, err := registry.Validate(models.TypeAttendance, []byte(`{"status":"late"}`))
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.Len(t, appErr.Fields, 1)
	assert.Equal(t, "status", appErr.Fields[0].Field)

	_, err = registry.Validate(models.TypeTeamParticipation, []byte(`{"team_type":"soccer_team","date_of_participation":"2025-02-01"}`))
	require.Error(t, err)
	appErr = appErrors.FromError(err)
	require.Len(t, appErr.Fields, 1)
	assert.Equal(t, "team_type", appErr.Fields[0].Field)
}

func TestRegistryDescriptionTooShort(t *testing.T) {
	registry := NewRegistry()
	payload := validPayloads()[models.TypeCommunityService]
	payload["description"] = "short"

	_, err := registry.Validate(models.TypeCommunityService, mustJSON(t, payload))
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	require.Len(t, appErr.Fields, 1)
	assert.Equal(t, "description", appErr.Fields[0].Field)
	assert.Contains(t, appErr.Fields[0].Message, "10")
}

func TestRegistryDormantContractsStayRegistered(t *testing.T) {
	registry := NewRegistry()
	dormant := 0
	for _, contract := range registry.Contracts() {
		if contract.Dormant {
			dormant++
		}
	}
	assert.Equal(t, 6, dormant)
}
