package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/inkfest/inkfest-api/internal/models"
)

// SlotRepository handles schedule slot persistence. The time_slots table
// stores the judging/award/event variants as nullable columns; this layer
// folds rows into the tagged models.TimeSlot so illegal combinations never
// reach callers.
type SlotRepository struct {
	db *sqlx.DB
}

// NewSlotRepository creates a new slot repository.
func NewSlotRepository(db *sqlx.DB) *SlotRepository {
	return &SlotRepository{db: db}
}

type slotRow struct {
	ID                   string    `db:"id"`
	DayID                string    `db:"day_id"`
	StartTime            time.Time `db:"start_time"`
	EndTime              time.Time `db:"end_time"`
	SlotOrder            int       `db:"slot_order"`
	Type                 string    `db:"type"`
	NominationTemplateID *string   `db:"nomination_template_id"`
	Category             *string   `db:"category"`
	Status               *string   `db:"status"`
	Zone                 *string   `db:"zone"`
	EventTitle           *string   `db:"event_title"`

	DayFestivalID *string    `db:"day_festival_id"`
	DayDate       *time.Time `db:"day_date"`
	DayOrder      *int       `db:"day_day_order"`
}

func (row slotRow) toModel() models.TimeSlot {
	slot := models.TimeSlot{
		ID:        row.ID,
		DayID:     row.DayID,
		StartTime: row.StartTime,
		EndTime:   row.EndTime,
		SlotOrder: row.SlotOrder,
		Type:      models.SlotType(row.Type),
	}
	switch slot.Type {
	case models.SlotJudging:
		details := &models.JudgingDetails{}
		if row.NominationTemplateID != nil {
			details.NominationTemplateID = *row.NominationTemplateID
		}
		if row.Category != nil {
			details.Category = models.ContestCategory(*row.Category)
		}
		if row.Status != nil {
			details.Status = models.ContestStatus(*row.Status)
		}
		if row.Zone != nil {
			details.Zone = *row.Zone
		}
		slot.Judging = details
	case models.SlotAward:
		details := &models.AwardDetails{}
		if row.Category != nil {
			details.Category = models.ContestCategory(*row.Category)
		}
		if row.Zone != nil {
			details.Zone = *row.Zone
		}
		slot.Award = details
	case models.SlotEvent:
		details := &models.EventDetails{}
		if row.EventTitle != nil {
			details.Title = *row.EventTitle
		}
		slot.Event = details
	}
	if row.DayFestivalID != nil && row.DayDate != nil && row.DayOrder != nil {
		slot.Day = &models.EventDay{
			ID:         row.DayID,
			FestivalID: *row.DayFestivalID,
			Date:       *row.DayDate,
			DayOrder:   *row.DayOrder,
		}
	}
	return slot
}

func flattenSlot(slot *models.TimeSlot) slotRow {
	row := slotRow{
		ID:        slot.ID,
		DayID:     slot.DayID,
		StartTime: slot.StartTime,
		EndTime:   slot.EndTime,
		SlotOrder: slot.SlotOrder,
		Type:      string(slot.Type),
	}
	switch {
	case slot.Judging != nil:
		row.NominationTemplateID = &slot.Judging.NominationTemplateID
		category := string(slot.Judging.Category)
		row.Category = &category
		status := string(slot.Judging.Status)
		row.Status = &status
		if slot.Judging.Zone != "" {
			row.Zone = &slot.Judging.Zone
		}
	case slot.Award != nil:
		category := string(slot.Award.Category)
		row.Category = &category
		if slot.Award.Zone != "" {
			row.Zone = &slot.Award.Zone
		}
	case slot.Event != nil:
		if slot.Event.Title != "" {
			row.EventTitle = &slot.Event.Title
		}
	}
	return row
}

const slotColumns = `s.id, s.day_id, s.start_time, s.end_time, s.slot_order, s.type, s.nomination_template_id, s.category, s.status, s.zone, s.event_title,
        d.festival_id AS day_festival_id, d.date AS day_date, d.day_order AS day_day_order`

// Create inserts a schedule slot.
func (r *SlotRepository) Create(ctx context.Context, slot *models.TimeSlot) error {
	if slot.ID == "" {
		slot.ID = uuid.NewString()
	}
	row := flattenSlot(slot)
	const query = `INSERT INTO time_slots (id, day_id, start_time, end_time, slot_order, type, nomination_template_id, category, status, zone, event_title)
        VALUES (:id, :day_id, :start_time, :end_time, :slot_order, :type, :nomination_template_id, :category, :status, :zone, :event_title)`
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("create time slot: %w", err)
	}
	return nil
}

// FindByID returns a slot with its day attached.
func (r *SlotRepository) FindByID(ctx context.Context, id string) (*models.TimeSlot, error) {
	query := fmt.Sprintf(`SELECT %s FROM time_slots s JOIN event_days d ON d.id = s.day_id WHERE s.id = $1 LIMIT 1`, slotColumns)
	var row slotRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find time slot: %w", err)
	}
	slot := row.toModel()
	return &slot, nil
}

// List returns slots matching the filter ordered by day then slot order.
func (r *SlotRepository) List(ctx context.Context, filter models.SlotFilter) ([]models.TimeSlot, error) {
	query := fmt.Sprintf(`SELECT %s FROM time_slots s JOIN event_days d ON d.id = s.day_id WHERE 1=1`, slotColumns)
	var args []interface{}
	if filter.FestivalID != "" {
		query += fmt.Sprintf(" AND d.festival_id = $%d", len(args)+1)
		args = append(args, filter.FestivalID)
	}
	if filter.DayID != "" {
		query += fmt.Sprintf(" AND s.day_id = $%d", len(args)+1)
		args = append(args, filter.DayID)
	}
	if filter.Type != "" {
		query += fmt.Sprintf(" AND s.type = $%d", len(args)+1)
		args = append(args, filter.Type)
	}
	if filter.Status != "" {
		query += fmt.Sprintf(" AND s.status = $%d", len(args)+1)
		args = append(args, filter.Status)
	}
	query += " ORDER BY d.day_order, s.slot_order"

	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list time slots: %w", err)
	}
	defer rows.Close()
	var slots []models.TimeSlot
	for rows.Next() {
		var row slotRow
		if err := rows.StructScan(&row); err != nil {
			return nil, fmt.Errorf("scan time slot: %w", err)
		}
		slots = append(slots, row.toModel())
	}
	return slots, nil
}

// Update rewrites a slot including its variant columns.
func (r *SlotRepository) Update(ctx context.Context, slot *models.TimeSlot) error {
	row := flattenSlot(slot)
	const query = `UPDATE time_slots SET day_id = :day_id, start_time = :start_time, end_time = :end_time, slot_order = :slot_order, type = :type,
        nomination_template_id = :nomination_template_id, category = :category, status = :status, zone = :zone, event_title = :event_title WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("update time slot: %w", err)
	}
	return nil
}

// UpdateStatus advances the judging status of a contest slot.
func (r *SlotRepository) UpdateStatus(ctx context.Context, id string, status models.ContestStatus) error {
	const query = `UPDATE time_slots SET status = $2 WHERE id = $1 AND type = 'judging'`
	if _, err := r.db.ExecContext(ctx, query, id, status); err != nil {
		return fmt.Errorf("update slot status: %w", err)
	}
	return nil
}

// Delete removes a slot. Participations and scores under it cascade.
func (r *SlotRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM time_slots WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete time slot: %w", err)
	}
	return nil
}

// MaxSlotOrder returns the highest slot_order used on a day, 0 when empty.
func (r *SlotRepository) MaxSlotOrder(ctx context.Context, dayID string) (int, error) {
	const query = `SELECT COALESCE(MAX(slot_order), 0) FROM time_slots WHERE day_id = $1`
	var max int
	if err := r.db.GetContext(ctx, &max, query, dayID); err != nil {
		return 0, fmt.Errorf("max slot order: %w", err)
	}
	return max, nil
}

// ListContests returns judging slots in scope ordered by schedule position.
func (r *SlotRepository) ListContests(ctx context.Context, scope models.ResultsScope) ([]models.TimeSlot, error) {
	filter := models.SlotFilter{
		FestivalID: scope.FestivalID,
		DayID:      scope.DayID,
		Type:       models.SlotJudging,
	}
	return r.List(ctx, filter)
}

// ListContestsByIDs returns judging slots for the given slot identifiers.
func (r *SlotRepository) ListContestsByIDs(ctx context.Context, ids []string) ([]models.TimeSlot, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	query := fmt.Sprintf(`SELECT %s FROM time_slots s JOIN event_days d ON d.id = s.day_id
        WHERE s.type = 'judging' AND s.id IN (%s) ORDER BY d.day_order, s.slot_order`, slotColumns, strings.Join(placeholders, ","))
	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list contests by ids: %w", err)
	}
	defer rows.Close()
	var slots []models.TimeSlot
	for rows.Next() {
		var row slotRow
		if err := rows.StructScan(&row); err != nil {
			return nil, fmt.Errorf("scan contest: %w", err)
		}
		slots = append(slots, row.toModel())
	}
	return slots, nil
}

// FindAwardSlot returns the award ceremony on a day for a category, or
// sql.ErrNoRows when none is scheduled.
func (r *SlotRepository) FindAwardSlot(ctx context.Context, dayID string, category models.ContestCategory) (*models.TimeSlot, error) {
	query := fmt.Sprintf(`SELECT %s FROM time_slots s JOIN event_days d ON d.id = s.day_id
        WHERE s.day_id = $1 AND s.type = 'award' AND s.category = $2 ORDER BY s.slot_order LIMIT 1`, slotColumns)
	var row slotRow
	if err := r.db.GetContext(ctx, &row, query, dayID, category); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find award slot: %w", err)
	}
	slot := row.toModel()
	return &slot, nil
}
