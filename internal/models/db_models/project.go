package db_models

import "github.com/google/uuid"

type ProjectStatus string

const (
	ProjectRequested  ProjectStatus = "requested"
	ProjectQuoted     ProjectStatus = "quoted"
	ProjectAccepted   ProjectStatus = "accepted"
	ProjectInProgress ProjectStatus = "in_progress"
	ProjectCompleted  ProjectStatus = "completed"
	ProjectValidated  ProjectStatus = "validated"
	ProjectReviewed   ProjectStatus = "reviewed"
	ProjectCancelled  ProjectStatus = "cancelled"
	ProjectDisputed   ProjectStatus = "disputed"
)

var projectTransitions = map[ProjectStatus][]ProjectStatus{
	ProjectRequested:  {ProjectQuoted, ProjectAccepted, ProjectCancelled},
	ProjectQuoted:     {ProjectAccepted, ProjectCancelled},
	ProjectAccepted:   {ProjectInProgress},
	ProjectInProgress: {ProjectCompleted, ProjectDisputed},
	ProjectCompleted:  {ProjectValidated, ProjectDisputed},
	ProjectValidated:  {ProjectReviewed},
	ProjectDisputed:   {ProjectInProgress, ProjectCompleted},
}

// CanTransition reports whether a project may move from one status to another.
func CanTransition(from, to ProjectStatus) bool {
	for _, next := range projectTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// OpenForQuotes reports whether quotes may still be submitted or accepted.
func (s ProjectStatus) OpenForQuotes() bool {
	return s == ProjectRequested || s == ProjectQuoted
}

type Project struct {
	BaseModel
	ClientID       uuid.UUID  `gorm:"type:uuid;index;not null"`
	ProfessionalID *uuid.UUID `gorm:"type:uuid;index"`
	SubscriptionID *uuid.UUID `gorm:"type:uuid"`

	WorkType            string  `gorm:"type:varchar(64);index;not null"`
	SurfaceArea         float64 `gorm:"not null"`
	Description         string  `gorm:"type:text"`
	Location            string
	PropertyType        string
	SpecialRequirements string `gorm:"type:text"`

	Status          ProjectStatus `gorm:"type:varchar(16);index;not null"`
	Published       bool          `gorm:"not null;default:false;index"`
	AcceptedQuoteID *uuid.UUID    `gorm:"type:uuid"`
	AgreedPrice     *float64      `gorm:"type:numeric(12,2)"`
}
