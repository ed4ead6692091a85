package models

import "time"

// Score is one judge's rating of one participation on one criterion.
// Unique per (judge, participation, criterion): re-submitting overwrites.
type Score struct {
	ID              string    `db:"id" json:"id"`
	JudgeID         string    `db:"judge_id" json:"judge_id"`
	ParticipationID string    `db:"participation_id" json:"participation_id"`
	CriterionID     string    `db:"criterion_id" json:"criterion_id"`
	Value           int       `db:"value" json:"value"`
	ScoredAt        time.Time `db:"scored_at" json:"scored_at"`
}

// RecordScoreRequest submits one score for one criterion of one entry.
type RecordScoreRequest struct {
	ParticipationID string `json:"participation_id" validate:"required,uuid4"`
	CriterionID     string `json:"criterion_id" validate:"required,uuid4"`
	Value           int    `json:"value" validate:"min=0"`
}

// SubmitScoresRequest submits a judge's full sheet for one entry in one call.
type SubmitScoresRequest struct {
	ParticipationID string         `json:"participation_id" validate:"required,uuid4"`
	Scores          map[string]int `json:"scores" validate:"required,min=1"`
}

// JudgeAverage is one judge's view of one participation: the raw scores per
// criterion and their mean. Average is nil when the judge has not scored the
// participation at all; missing criteria shrink the denominator instead of
// counting as zero.
type JudgeAverage struct {
	JudgeID      string         `json:"judge_id"`
	Judge        *User          `json:"judge,omitempty"`
	PerCriterion map[string]int `json:"per_criterion"`
	Average      *float64       `json:"average,omitempty"`
}

// ParticipationAggregate is the computed standing of one participation in a
// contest: the two-level mean used for ranking. FinalScore is 0 when no judge
// has scored the participation.
type ParticipationAggregate struct {
	ParticipationID string             `json:"participation_id"`
	EntryNumber     int                `json:"entry_number"`
	User            *User              `json:"user,omitempty"`
	PerJudge        []JudgeAverage     `json:"per_judge"`
	FinalScore      float64            `json:"final_score"`
	ConfirmedPlace  *int               `json:"confirmed_place,omitempty"`
	Tied            bool               `json:"tied"`
	Category        ExperienceCategory `json:"category"`
}

// JudgeSheet is the judge-facing scoring view of a contest: the ordered
// criteria, the judge's existing scores, the participations already fully
// scored by this judge, and a running per-participation average.
type JudgeSheet struct {
	Contest         *TimeSlot            `json:"contest"`
	Criteria        []Criterion          `json:"criteria"`
	Participations  []Participation      `json:"participations"`
	Scores          map[string]map[string]int `json:"scores"`
	FullyScored     []string             `json:"fully_scored"`
	RunningAverages map[string]*float64  `json:"running_averages"`
	JudgingOpen     bool                 `json:"judging_open"`
}

// JudgeWorkload splits a judge's assigned contests by completion of that
// judge's own expected scores (participants × criteria).
type JudgeWorkload struct {
	Pending []TimeSlot `json:"pending"`
	Judged  []TimeSlot `json:"judged"`
}
