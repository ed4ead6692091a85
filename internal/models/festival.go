package models

import "time"

// Festival is the top-level event spanning one or more calendar days.
type Festival struct {
	ID        string     `db:"id" json:"id"`
	Name      string     `db:"name" json:"name"`
	StartDate time.Time  `db:"start_date" json:"start_date"`
	EndDate   time.Time  `db:"end_date" json:"end_date"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
	Days      []EventDay `json:"days,omitempty"`
}

// CreateFestivalRequest creates a festival; days are generated from the
// inclusive date range.
type CreateFestivalRequest struct {
	Name      string `json:"name" validate:"required,max=255"`
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"required,datetime=2006-01-02"`
}

// UpdateFestivalRequest edits festival fields; a changed date range
// reconciles the generated days.
type UpdateFestivalRequest struct {
	Name      *string `json:"name" validate:"omitempty,max=255"`
	StartDate *string `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate   *string `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
}

// EventDay is one calendar day of a festival. Days are generated from the
// festival date range and kept unique per (festival, date).
type EventDay struct {
	ID         string    `db:"id" json:"id"`
	FestivalID string    `db:"festival_id" json:"festival_id"`
	Date       time.Time `db:"date" json:"date"`
	DayOrder   int       `db:"day_order" json:"day_order"`
}
