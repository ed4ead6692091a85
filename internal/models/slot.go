package models

import "time"

// SlotType discriminates the three kinds of schedule entries.
type SlotType string

const (
	SlotJudging SlotType = "judging"
	SlotAward   SlotType = "award"
	SlotEvent   SlotType = "event"
)

// ContestCategory is the kind of work judged in a contest slot.
type ContestCategory string

const (
	CategoryHealed ContestCategory = "healed"
	CategoryFresh  ContestCategory = "fresh"
)

// ContestStatus is the judging lifecycle of a contest slot. Transitions are
// one-directional: pending → judging → completed → awarded.
type ContestStatus string

const (
	StatusPending   ContestStatus = "pending"
	StatusJudging   ContestStatus = "judging"
	StatusCompleted ContestStatus = "completed"
	StatusAwarded   ContestStatus = "awarded"
)

// JudgingDetails carries the fields that only exist on contest slots.
type JudgingDetails struct {
	NominationTemplateID string              `json:"nomination_template_id"`
	Category             ContestCategory     `json:"category"`
	Status               ContestStatus       `json:"status"`
	Zone                 string              `json:"zone"`
	Template             *NominationTemplate `json:"template,omitempty"`
}

// AwardDetails marks an award ceremony for a day and category.
type AwardDetails struct {
	Category ContestCategory `json:"category"`
	Zone     string          `json:"zone"`
}

// EventDetails is a generic schedule entry (break, party, lecture).
type EventDetails struct {
	Title string `json:"title"`
}

// TimeSlot is one schedule entry. Exactly one of Judging/Award/Event is set,
// matching Type; the repository folds the nullable columns into the variant
// so illegal field combinations never escape the storage layer.
type TimeSlot struct {
	ID        string    `json:"id"`
	DayID     string    `json:"day_id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	SlotOrder int       `json:"slot_order"`
	Type      SlotType  `json:"type"`

	Judging *JudgingDetails `json:"judging,omitempty"`
	Award   *AwardDetails   `json:"award,omitempty"`
	Event   *EventDetails   `json:"event,omitempty"`

	Day *EventDay `json:"day,omitempty"`
}

// IsContest reports whether the slot is a judging slot with details loaded.
func (s *TimeSlot) IsContest() bool {
	return s != nil && s.Type == SlotJudging && s.Judging != nil
}

// CreateSlotRequest schedules a new slot on a day. Exactly one of the
// variant payloads must match Type. SlotOrder 0 appends to the day.
type CreateSlotRequest struct {
	DayID     string    `json:"day_id" validate:"required,uuid4"`
	StartTime time.Time `json:"start_time" validate:"required"`
	EndTime   time.Time `json:"end_time" validate:"required"`
	SlotOrder int       `json:"slot_order" validate:"omitempty,min=1"`
	Type      SlotType  `json:"type" validate:"required,oneof=judging award event"`

	Judging *JudgingSlotPayload `json:"judging,omitempty"`
	Award   *AwardSlotPayload   `json:"award,omitempty"`
	Event   *EventSlotPayload   `json:"event,omitempty"`
}

// UpdateSlotRequest edits slot timing, ordering and variant details. Type
// itself is immutable once scheduled.
type UpdateSlotRequest struct {
	StartTime *time.Time `json:"start_time"`
	EndTime   *time.Time `json:"end_time"`
	SlotOrder *int       `json:"slot_order" validate:"omitempty,min=1"`

	Judging *JudgingSlotPayload `json:"judging,omitempty"`
	Award   *AwardSlotPayload   `json:"award,omitempty"`
	Event   *EventSlotPayload   `json:"event,omitempty"`
}

// JudgingSlotPayload configures a contest slot.
type JudgingSlotPayload struct {
	NominationTemplateID string          `json:"nomination_template_id" validate:"required,uuid4"`
	Category             ContestCategory `json:"category" validate:"required,oneof=healed fresh"`
	Zone                 string          `json:"zone" validate:"omitempty,max=10"`
}

// AwardSlotPayload configures an award ceremony slot.
type AwardSlotPayload struct {
	Category ContestCategory `json:"category" validate:"required,oneof=healed fresh"`
	Zone     string          `json:"zone" validate:"omitempty,max=10"`
}

// EventSlotPayload configures a generic event slot.
type EventSlotPayload struct {
	Title string `json:"title" validate:"required,max=100"`
}

// SlotFilter scopes schedule queries.
type SlotFilter struct {
	FestivalID string
	DayID      string
	Type       SlotType
	Status     ContestStatus
}
