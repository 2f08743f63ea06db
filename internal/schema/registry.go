package schema

import (
	"encoding/json"

	"github.com/acu-apex/holistic-gpa-api/internal/models"
)

// FieldRule documents one field of a submission contract.
type FieldRule struct {
	Name       string `json:"name"`
	Kind       string `json:"kind"`
	Required   bool   `json:"required"`
	Constraint string `json:"constraint,omitempty"`
}

// Contract enumerates the structural requirements for a submission type.
// Contracts are immutable at runtime: adding a type means registering a new
// contract, never mutating one, so historical payloads keep validating.
type Contract struct {
	Type    models.SubmissionType `json:"type"`
	Dormant bool                  `json:"dormant,omitempty"`
	Fields  []FieldRule           `json:"fields"`
}

// RequiredFields lists the names of all required fields.
func (c Contract) RequiredFields() []string {
	var names []string
	for _, f := range c.Fields {
		if f.Required {
			names = append(names, f.Name)
		}
	}
	return names
}

type entry struct {
	contract Contract
	decode   func([]byte) (models.Payload, error)
}

func decodeInto[T models.Payload](raw []byte, target T) (models.Payload, error) {
	if err := json.Unmarshal(raw, &target); err != nil {
		return nil, err
	}
	return target, nil
}

func buildEntries() map[models.SubmissionType]entry {
	entries := map[models.SubmissionType]entry{
		models.TypeAttendance: {
			contract: Contract{
				Type: models.TypeAttendance,
				Fields: []FieldRule{
					{Name: "status", Kind: "string", Required: true, Constraint: "one of present, absent, excused"},
					{Name: "location", Kind: "string"},
				},
			},
			decode: func(raw []byte) (models.Payload, error) {
				var p models.AttendancePayload
				return decodeInto(raw, &p)
			},
		},
		models.TypeSmallGroup: {
			contract: Contract{
				Type: models.TypeSmallGroup,
				Fields: []FieldRule{
					{Name: "status", Kind: "string", Required: true, Constraint: "one of involved, not_involved"},
				},
			},
			decode: func(raw []byte) (models.Payload, error) {
				var p models.SmallGroupPayload
				return decodeInto(raw, &p)
			},
		},
		models.TypeDreamTeam: {
			contract: Contract{
				Type: models.TypeDreamTeam,
				Fields: []FieldRule{
					{Name: "status", Kind: "string", Required: true, Constraint: "one of involved, not_involved"},
				},
			},
			decode: func(raw []byte) (models.Payload, error) {
				var p models.DreamTeamPayload
				return decodeInto(raw, &p)
			},
		},
		models.TypeCommunityService: {
			contract: Contract{
				Type: models.TypeCommunityService,
				Fields: []FieldRule{
					{Name: "hours", Kind: "number", Required: true, Constraint: "between 0 and 24"},
					{Name: "organization", Kind: "string", Required: true},
					{Name: "supervisor_name", Kind: "string", Required: true},
					{Name: "supervisor_contact", Kind: "string", Required: true, Constraint: "email"},
					{Name: "description", Kind: "string", Required: true, Constraint: "at least 10 characters"},
					{Name: "photos", Kind: "string[]"},
					{Name: "date_of_service", Kind: "string", Required: true, Constraint: "ISO date YYYY-MM-DD"},
				},
			},
			decode: func(raw []byte) (models.Payload, error) {
				var p models.CommunityServicePayload
				return decodeInto(raw, &p)
			},
		},
		models.TypeCredentials: {
			contract: Contract{
				Type: models.TypeCredentials,
				Fields: []FieldRule{
					{Name: "credential_name", Kind: "string", Required: true},
					{Name: "granting_organization", Kind: "string", Required: true},
					{Name: "description", Kind: "string", Constraint: "at least 10 characters"},
					{Name: "photos", Kind: "string[]"},
					{Name: "date_of_credential", Kind: "string", Required: true, Constraint: "ISO date YYYY-MM-DD"},
					{Name: "assigned_points", Kind: "number", Constraint: "at least 0, set by staff on approval"},
				},
			},
			decode: func(raw []byte) (models.Payload, error) {
				var p models.CredentialsPayload
				return decodeInto(raw, &p)
			},
		},
		models.TypeJobPromotion: {
			contract: Contract{
				Type: models.TypeJobPromotion,
				Fields: []FieldRule{
					{Name: "promotion_title", Kind: "string", Required: true},
					{Name: "organization", Kind: "string", Required: true},
					{Name: "supervisor_name", Kind: "string", Required: true},
					{Name: "supervisor_contact", Kind: "string", Required: true, Constraint: "email"},
					{Name: "description", Kind: "string", Required: true, Constraint: "at least 10 characters"},
					{Name: "photos", Kind: "string[]"},
					{Name: "date_of_promotion", Kind: "string", Required: true, Constraint: "ISO date YYYY-MM-DD"},
					{Name: "assigned_points", Kind: "number", Constraint: "at least 0, set by staff on approval"},
				},
			},
			decode: func(raw []byte) (models.Payload, error) {
				var p models.JobPromotionPayload
				return decodeInto(raw, &p)
			},
		},
		models.TypeTeamParticipation: {
			contract: Contract{
				Type: models.TypeTeamParticipation,
				Fields: []FieldRule{
					{Name: "team_type", Kind: "string", Required: true, Constraint: "one of fellow_friday_team, chapel_team"},
					{Name: "date_of_participation", Kind: "string", Required: true, Constraint: "ISO date YYYY-MM-DD, not in the future"},
					{Name: "photos", Kind: "string[]"},
				},
			},
			decode: func(raw []byte) (models.Payload, error) {
				var p models.TeamParticipationPayload
				return decodeInto(raw, &p)
			},
		},
		models.TypeGBEParticipation: {
			contract: Contract{
				Type: models.TypeGBEParticipation,
				Fields: []FieldRule{
					{Name: "points", Kind: "number", Required: true, Constraint: "between 0 and 5, staff-assigned"},
				},
			},
			decode: func(raw []byte) (models.Payload, error) {
				var p models.GBEParticipationPayload
				return decodeInto(raw, &p)
			},
		},
		models.TypeCompanyTeamBuilding: {
			contract: Contract{
				Type: models.TypeCompanyTeamBuilding,
				Fields: []FieldRule{
					{Name: "points", Kind: "number", Required: true, Constraint: "between 0 and 5, staff-assigned"},
				},
			},
			decode: func(raw []byte) (models.Payload, error) {
				var p models.CompanyTeamBuildingPayload
				return decodeInto(raw, &p)
			},
		},
		models.TypeLionsGames: {
			contract: Contract{
				Type: models.TypeLionsGames,
				Fields: []FieldRule{
					{Name: "assigned_points", Kind: "number", Required: true, Constraint: "at least 0, staff-assigned"},
				},
			},
			decode: func(raw []byte) (models.Payload, error) {
				var p models.LionsGamesPayload
				return decodeInto(raw, &p)
			},
		},
	}

	for _, legacy := range []models.SubmissionType{models.TypeTeamMeeting, models.TypeLeaderMeeting, models.TypeFellowFriday} {
		kind := legacy
		entries[kind] = entry{
			contract: Contract{
				Type:    kind,
				Dormant: true,
				Fields: []FieldRule{
					{Name: "status", Kind: "string", Required: true, Constraint: "one of present, absent, excused"},
				},
			},
			decode: func(raw []byte) (models.Payload, error) {
				p := models.LegacyAttendancePayload{Kind: kind}
				return decodeInto(raw, &p)
			},
		}
	}

	for _, legacy := range []models.SubmissionType{models.TypeAcademic, models.TypeSpiritual, models.TypeProfessional} {
		kind := legacy
		entries[kind] = entry{
			contract: Contract{
				Type:    kind,
				Dormant: true,
				Fields: []FieldRule{
					{Name: "points", Kind: "number", Required: true, Constraint: "at least 0"},
				},
			},
			decode: func(raw []byte) (models.Payload, error) {
				p := models.LegacyPointsPayload{Kind: kind}
				return decodeInto(raw, &p)
			},
		}
	}

	return entries
}
