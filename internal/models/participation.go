package models

import "time"

// Participation is one entry of one user into one contest slot. A user may
// enter the same contest several times with distinct entry numbers.
type Participation struct {
	ID           string    `db:"id" json:"id"`
	UserID       string    `db:"user_id" json:"user_id"`
	TimeSlotID   string    `db:"time_slot_id" json:"time_slot_id"`
	EntryNumber  int       `db:"entry_number" json:"entry_number"`
	RegisteredAt time.Time `db:"registered_at" json:"registered_at"`

	User *User `json:"user,omitempty"`
}

// RegisterParticipantRequest enters a participant into a contest slot.
type RegisterParticipantRequest struct {
	UserID string `json:"user_id" validate:"required,uuid4"`
}

// AssignJudgeRequest places a judge on a contest slot.
type AssignJudgeRequest struct {
	JudgeID string `json:"judge_id" validate:"required,uuid4"`
}

// JudgeAssignment places a judge on a contest slot.
type JudgeAssignment struct {
	ID         string    `db:"id" json:"id"`
	JudgeID    string    `db:"judge_id" json:"judge_id"`
	TimeSlotID string    `db:"time_slot_id" json:"time_slot_id"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`

	Judge *User `json:"judge,omitempty"`
}
