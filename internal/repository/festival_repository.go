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

// FestivalRepository handles festival and event day persistence.
type FestivalRepository struct {
	db *sqlx.DB
}

// NewFestivalRepository creates a new festival repository.
func NewFestivalRepository(db *sqlx.DB) *FestivalRepository {
	return &FestivalRepository{db: db}
}

// Create inserts a festival together with its generated days in one transaction.
func (r *FestivalRepository) Create(ctx context.Context, festival *models.Festival) error {
	if festival.ID == "" {
		festival.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if festival.CreatedAt.IsZero() {
		festival.CreatedAt = now
	}
	festival.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	const insertFestival = `INSERT INTO festivals (id, name, start_date, end_date, created_at, updated_at)
        VALUES (:id, :name, :start_date, :end_date, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, insertFestival, festival); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("create festival: %w", err)
	}
	const insertDay = `INSERT INTO event_days (id, festival_id, date, day_order) VALUES (:id, :festival_id, :date, :day_order)`
	for i := range festival.Days {
		if festival.Days[i].ID == "" {
			festival.Days[i].ID = uuid.NewString()
		}
		festival.Days[i].FestivalID = festival.ID
		if _, err := tx.NamedExecContext(ctx, insertDay, festival.Days[i]); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("create event day: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit festival: %w", err)
	}
	return nil
}

// FindByID returns a festival with its days ordered by day_order.
func (r *FestivalRepository) FindByID(ctx context.Context, id string) (*models.Festival, error) {
	const query = `SELECT id, name, start_date, end_date, created_at, updated_at FROM festivals WHERE id = $1 LIMIT 1`
	var festival models.Festival
	if err := r.db.GetContext(ctx, &festival, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find festival: %w", err)
	}
	days, err := r.ListDays(ctx, id)
	if err != nil {
		return nil, err
	}
	festival.Days = days
	return &festival, nil
}

// List returns all festivals ordered by start date, most recent first.
func (r *FestivalRepository) List(ctx context.Context) ([]models.Festival, error) {
	const query = `SELECT id, name, start_date, end_date, created_at, updated_at FROM festivals ORDER BY start_date DESC`
	var festivals []models.Festival
	if err := r.db.SelectContext(ctx, &festivals, query); err != nil {
		return nil, fmt.Errorf("list festivals: %w", err)
	}
	return festivals, nil
}

// UpdateWithDays updates the festival row and reconciles its days in one
// transaction: days for dates still inside the range keep their identity,
// new dates are inserted, dates outside the range are removed (cascading to
// their slots).
func (r *FestivalRepository) UpdateWithDays(ctx context.Context, festival *models.Festival, days []models.EventDay) error {
	festival.UpdatedAt = time.Now().UTC()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	const updateFestival = `UPDATE festivals SET name = :name, start_date = :start_date, end_date = :end_date, updated_at = :updated_at WHERE id = :id`
	if _, err := tx.NamedExecContext(ctx, updateFestival, festival); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("update festival: %w", err)
	}

	if len(days) > 0 {
		placeholders := make([]string, len(days))
		args := make([]interface{}, len(days)+1)
		args[0] = festival.ID
		for i := range days {
			placeholders[i] = fmt.Sprintf("$%d", i+2)
			args[i+1] = days[i].Date
		}
		deleteQuery := fmt.Sprintf(`DELETE FROM event_days WHERE festival_id = $1 AND date NOT IN (%s)`, strings.Join(placeholders, ","))
		if _, err := tx.ExecContext(ctx, deleteQuery, args...); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("prune event days: %w", err)
		}
	}

	const upsertDay = `INSERT INTO event_days (id, festival_id, date, day_order)
        VALUES (:id, :festival_id, :date, :day_order)
        ON CONFLICT (festival_id, date) DO UPDATE SET day_order = EXCLUDED.day_order`
	for i := range days {
		if days[i].ID == "" {
			days[i].ID = uuid.NewString()
		}
		days[i].FestivalID = festival.ID
		if _, err := tx.NamedExecContext(ctx, upsertDay, days[i]); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("upsert event day: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit festival update: %w", err)
	}
	return nil
}

// Delete removes a festival. Days, slots, participations and scores cascade.
func (r *FestivalRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM festivals WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete festival: %w", err)
	}
	return nil
}

// ListDays returns the days of a festival ordered by day_order.
func (r *FestivalRepository) ListDays(ctx context.Context, festivalID string) ([]models.EventDay, error) {
	const query = `SELECT id, festival_id, date, day_order FROM event_days WHERE festival_id = $1 ORDER BY day_order`
	var days []models.EventDay
	if err := r.db.SelectContext(ctx, &days, query, festivalID); err != nil {
		return nil, fmt.Errorf("list event days: %w", err)
	}
	return days, nil
}

// FindDay returns a single event day.
func (r *FestivalRepository) FindDay(ctx context.Context, dayID string) (*models.EventDay, error) {
	const query = `SELECT id, festival_id, date, day_order FROM event_days WHERE id = $1 LIMIT 1`
	var day models.EventDay
	if err := r.db.GetContext(ctx, &day, query, dayID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find event day: %w", err)
	}
	return &day, nil
}
