package models

import "time"

// ParticipantType restricts which experience divisions may enter a contest
// built from the template.
type ParticipantType string

const (
	ParticipantTypePro    ParticipantType = "pro"
	ParticipantTypeJunior ParticipantType = "junior"
	ParticipantTypeBoth   ParticipantType = "both"
)

// Allows reports whether a participant of the given division may enter.
func (t ParticipantType) Allows(category ExperienceCategory) bool {
	switch t {
	case ParticipantTypePro:
		return category == CategoryPro
	case ParticipantTypeJunior:
		return category == CategoryJunior
	default:
		return true
	}
}

// NominationTemplate is a reusable contest definition with its judged criteria.
type NominationTemplate struct {
	ID              string          `db:"id" json:"id"`
	Name            string          `db:"name" json:"name"`
	Description     *string         `db:"description" json:"description,omitempty"`
	ParticipantType ParticipantType `db:"participant_type" json:"participant_type"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
	Criteria        []Criterion     `json:"criteria,omitempty"`
}

// CreateTemplateRequest defines a new contest template.
type CreateTemplateRequest struct {
	Name            string          `json:"name" validate:"required,max=255"`
	Description     *string         `json:"description"`
	ParticipantType ParticipantType `json:"participant_type" validate:"required,oneof=pro junior both"`
	CriterionIDs    []string        `json:"criterion_ids" validate:"required,min=1,dive,uuid4"`
}

// UpdateTemplateRequest edits a template and replaces its criterion set.
type UpdateTemplateRequest struct {
	Name            *string          `json:"name" validate:"omitempty,max=255"`
	Description     *string          `json:"description"`
	ParticipantType *ParticipantType `json:"participant_type" validate:"omitempty,oneof=pro junior both"`
	CriterionIDs    []string         `json:"criterion_ids" validate:"omitempty,min=1,dive,uuid4"`
}

// CreateCriterionRequest defines a new judged dimension.
type CreateCriterionRequest struct {
	Name      string `json:"name" validate:"required,max=255"`
	MaxScore  int    `json:"max_score" validate:"omitempty,min=1,max=100"`
	SortOrder int    `json:"sort_order" validate:"omitempty,min=0"`
}

// UpdateCriterionRequest edits a criterion.
type UpdateCriterionRequest struct {
	Name      *string `json:"name" validate:"omitempty,max=255"`
	MaxScore  *int    `json:"max_score" validate:"omitempty,min=1,max=100"`
	SortOrder *int    `json:"sort_order" validate:"omitempty,min=0"`
}

// Criterion is one judged dimension. MaxScore is nominal: the engine only
// enforces non-negative integers.
type Criterion struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	MaxScore  int       `db:"max_score" json:"max_score"`
	SortOrder int       `db:"sort_order" json:"sort_order"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
