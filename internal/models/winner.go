package models

import "time"

// Winner is the authoritative persisted outcome of winner resolution.
// Unique per (contest, category, place); only place 1 is written by the
// engine although the schema admits 1–3.
type Winner struct {
	ID                 string             `db:"id" json:"id"`
	ParticipationID    string             `db:"participation_id" json:"participation_id"`
	TimeSlotID         string             `db:"time_slot_id" json:"time_slot_id"`
	ExperienceCategory ExperienceCategory `db:"experience_category" json:"experience_category"`
	Place              int                `db:"place" json:"place"`
	CreatedAt          time.Time          `db:"created_at" json:"created_at"`
}

// AssignWinnerRequest resolves the winner of one category in a contest.
// ParticipationID picks the winner among tied entries; it may be omitted
// when the top score is unambiguous.
type AssignWinnerRequest struct {
	Category        ExperienceCategory `json:"category" validate:"required,oneof=pro junior"`
	ParticipationID *string            `json:"participation_id" validate:"omitempty,uuid4"`
}

// WinnerResolution is the outcome returned to the operator after an
// assignment: the persisted winner (nil when the group scored zero) and the
// participations tied at the top score.
type WinnerResolution struct {
	Winner   *Winner  `json:"winner,omitempty"`
	MaxScore float64  `json:"max_score"`
	TiedIDs  []string `json:"tied_ids,omitempty"`
	Cleared  bool     `json:"cleared"`
}
