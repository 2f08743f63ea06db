package models

// AttendanceStatus enumerates attendance results for routine events.
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "present"
	AttendanceAbsent  AttendanceStatus = "absent"
	AttendanceExcused AttendanceStatus = "excused"
)

// InvolvementStatus enumerates monthly check answers.
type InvolvementStatus string

const (
	Involved    InvolvementStatus = "involved"
	NotInvolved InvolvementStatus = "not_involved"
)

// TeamType enumerates cross-company teams.
type TeamType string

const (
	FellowFridayTeam TeamType = "fellow_friday_team"
	ChapelTeam       TeamType = "chapel_team"
)

// AttendancePayload records presence at a routine event.
type AttendancePayload struct {
	Status   AttendanceStatus `json:"status" validate:"required,oneof=present absent excused"`
	Location string           `json:"location,omitempty" validate:"omitempty"`
}

func (AttendancePayload) SubmissionType() SubmissionType { return TypeAttendance }

// SmallGroupPayload is the small-group monthly check.
type SmallGroupPayload struct {
	Status InvolvementStatus `json:"status" validate:"required,oneof=involved not_involved"`
}

func (SmallGroupPayload) SubmissionType() SubmissionType { return TypeSmallGroup }

// DreamTeamPayload is the dream-team monthly check.
type DreamTeamPayload struct {
	Status InvolvementStatus `json:"status" validate:"required,oneof=involved not_involved"`
}

func (DreamTeamPayload) SubmissionType() SubmissionType { return TypeDreamTeam }

// CommunityServicePayload is a self-reported service entry. Hours are capped
// downstream by the aggregator; the contract only bounds a single day.
type CommunityServicePayload struct {
	Hours             *float64 `json:"hours" validate:"required,gte=0,lte=24"`
	Organization      string   `json:"organization" validate:"required,min=1"`
	SupervisorName    string   `json:"supervisor_name" validate:"required,min=1"`
	SupervisorContact string   `json:"supervisor_contact" validate:"required,email"`
	Description       string   `json:"description" validate:"required,min=10"`
	Photos            []string `json:"photos,omitempty" validate:"omitempty,dive,min=1"`
	DateOfService     string   `json:"date_of_service" validate:"required,isodate"`
}

func (CommunityServicePayload) SubmissionType() SubmissionType { return TypeCommunityService }

// CredentialsPayload is a self-reported credential or certification.
type CredentialsPayload struct {
	CredentialName       string   `json:"credential_name" validate:"required,min=1"`
	GrantingOrganization string   `json:"granting_organization" validate:"required,min=1"`
	Description          string   `json:"description,omitempty" validate:"omitempty,min=10"`
	Photos               []string `json:"photos,omitempty" validate:"omitempty,dive,min=1"`
	DateOfCredential     string   `json:"date_of_credential" validate:"required,isodate"`
	AssignedPoints       *float64 `json:"assigned_points,omitempty" validate:"omitempty,gte=0"`
}

func (CredentialsPayload) SubmissionType() SubmissionType { return TypeCredentials }

// JobPromotionPayload is a self-reported job promotion.
type JobPromotionPayload struct {
	PromotionTitle    string   `json:"promotion_title" validate:"required,min=1"`
	Organization      string   `json:"organization" validate:"required,min=1"`
	SupervisorName    string   `json:"supervisor_name" validate:"required,min=1"`
	SupervisorContact string   `json:"supervisor_contact" validate:"required,email"`
	Description       string   `json:"description" validate:"required,min=10"`
	Photos            []string `json:"photos,omitempty" validate:"omitempty,dive,min=1"`
	DateOfPromotion   string   `json:"date_of_promotion" validate:"required,isodate"`
	AssignedPoints    *float64 `json:"assigned_points,omitempty" validate:"omitempty,gte=0"`
}

func (JobPromotionPayload) SubmissionType() SubmissionType { return TypeJobPromotion }

// TeamParticipationPayload records participation in a cross-company team.
type TeamParticipationPayload struct {
	TeamType            TeamType `json:"team_type" validate:"required,oneof=fellow_friday_team chapel_team"`
	DateOfParticipation string   `json:"date_of_participation" validate:"required,isodate,notfuture"`
	Photos              []string `json:"photos,omitempty" validate:"omitempty,dive,min=1"`
}

func (TeamParticipationPayload) SubmissionType() SubmissionType { return TypeTeamParticipation }

// GBEParticipationPayload carries a staff-assigned engagement rating.
type GBEParticipationPayload struct {
	Points *float64 `json:"points" validate:"required,gte=0,lte=5"`
}

func (GBEParticipationPayload) SubmissionType() SubmissionType { return TypeGBEParticipation }

// CompanyTeamBuildingPayload carries a staff-assigned engagement rating.
type CompanyTeamBuildingPayload struct {
	Points *float64 `json:"points" validate:"required,gte=0,lte=5"`
}

func (CompanyTeamBuildingPayload) SubmissionType() SubmissionType { return TypeCompanyTeamBuilding }

// LionsGamesPayload carries staff-assigned involvement points.
type LionsGamesPayload struct {
	AssignedPoints *float64 `json:"assigned_points" validate:"required,gte=0"`
}

func (LionsGamesPayload) SubmissionType() SubmissionType { return TypeLionsGames }

// LegacyAttendancePayload backs the dormant meeting-style categories
// (team_meeting, leader_meeting, fellow_friday).
type LegacyAttendancePayload struct {
	Kind   SubmissionType   `json:"-"`
	Status AttendanceStatus `json:"status" validate:"required,oneof=present absent excused"`
}

func (p LegacyAttendancePayload) SubmissionType() SubmissionType { return p.Kind }

// LegacyPointsPayload backs the dormant pillar categories
// (academic, spiritual, professional).
type LegacyPointsPayload struct {
	Kind   SubmissionType `json:"-"`
	Points *float64       `json:"points" validate:"required,gte=0"`
}

func (p LegacyPointsPayload) SubmissionType() SubmissionType { return p.Kind }
