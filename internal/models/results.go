package models

import "time"

// ContestResults holds the ranked, category-split standings of one contest.
type ContestResults struct {
	Contest  TimeSlot                 `json:"contest"`
	Criteria []Criterion              `json:"criteria"`
	Pro      []ParticipationAggregate `json:"pro"`
	Junior   []ParticipationAggregate `json:"junior"`
}

// DayResults groups contest standings under one festival day.
type DayResults struct {
	Day      EventDay         `json:"day"`
	Contests []ContestResults `json:"contests"`
}

// ResultsReport is the full day-grouped report consumed by organizers.
type ResultsReport struct {
	FestivalID  string       `json:"festival_id,omitempty"`
	GeneratedAt time.Time    `json:"generated_at"`
	Days        []DayResults `json:"days"`
}

// ResultsScope selects which contests a report covers. Zero value means all.
type ResultsScope struct {
	FestivalID string `json:"festival_id,omitempty"`
	DayID      string `json:"day_id,omitempty"`
}

// ParticipantScore is the participant-facing view of one of their entries.
// Winner place is revealed only after the matching award ceremony has ended.
type ParticipantScore struct {
	ParticipationID string          `json:"participation_id"`
	Nomination      string          `json:"nomination"`
	Category        ContestCategory `json:"category"`
	Date            time.Time       `json:"date"`
	StartTime       time.Time       `json:"start_time"`
	EndTime         time.Time       `json:"end_time"`
	PerJudge        []JudgeAverage  `json:"per_judge"`
	OverallAverage  *float64        `json:"overall_average,omitempty"`
	IsWinner        bool            `json:"is_winner"`
	WinnerPlace     *int            `json:"winner_place,omitempty"`
}
