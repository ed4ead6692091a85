package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/inkfest/inkfest-api/internal/models"
)

// WinnerRepository handles persisted winner records.
type WinnerRepository struct {
	db *sqlx.DB
}

// NewWinnerRepository creates a new winner repository.
func NewWinnerRepository(db *sqlx.DB) *WinnerRepository {
	return &WinnerRepository{db: db}
}

// ReplaceForContestCategory removes any winners recorded for the contest and
// category and inserts the given ones in the same transaction. Called with no
// winners it simply clears the group.
func (r *WinnerRepository) ReplaceForContestCategory(ctx context.Context, slotID string, category models.ExperienceCategory, winners []models.Winner) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	const clear = `DELETE FROM winners WHERE time_slot_id = $1 AND experience_category = $2`
	if _, err := tx.ExecContext(ctx, clear, slotID, category); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("clear winners: %w", err)
	}
	const insert = `INSERT INTO winners (id, participation_id, time_slot_id, experience_category, place, created_at)
        VALUES (:id, :participation_id, :time_slot_id, :experience_category, :place, :created_at)`
	for i := range winners {
		if winners[i].ID == "" {
			winners[i].ID = uuid.NewString()
		}
		if winners[i].CreatedAt.IsZero() {
			winners[i].CreatedAt = time.Now().UTC()
		}
		winners[i].TimeSlotID = slotID
		winners[i].ExperienceCategory = category
		if _, err := tx.NamedExecContext(ctx, insert, winners[i]); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("insert winner: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit winners: %w", err)
	}
	return nil
}

// ListBySlot returns the winners of a contest ordered by category and place.
func (r *WinnerRepository) ListBySlot(ctx context.Context, slotID string) ([]models.Winner, error) {
	const query = `SELECT id, participation_id, time_slot_id, experience_category, place, created_at
        FROM winners WHERE time_slot_id = $1 ORDER BY experience_category, place`
	var winners []models.Winner
	if err := r.db.SelectContext(ctx, &winners, query, slotID); err != nil {
		return nil, fmt.Errorf("list winners: %w", err)
	}
	return winners, nil
}

// ListBySlots returns winners grouped by contest slot.
func (r *WinnerRepository) ListBySlots(ctx context.Context, slotIDs []string) (map[string][]models.Winner, error) {
	if len(slotIDs) == 0 {
		return map[string][]models.Winner{}, nil
	}
	placeholders := make([]string, len(slotIDs))
	args := make([]interface{}, len(slotIDs))
	for i, id := range slotIDs {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	query := fmt.Sprintf(`SELECT id, participation_id, time_slot_id, experience_category, place, created_at
        FROM winners WHERE time_slot_id IN (%s) ORDER BY experience_category, place`, strings.Join(placeholders, ","))
	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list winners by slots: %w", err)
	}
	defer rows.Close()
	result := make(map[string][]models.Winner, len(slotIDs))
	for rows.Next() {
		var winner models.Winner
		if err := rows.StructScan(&winner); err != nil {
			return nil, fmt.Errorf("scan winner: %w", err)
		}
		result[winner.TimeSlotID] = append(result[winner.TimeSlotID], winner)
	}
	return result, nil
}

// ListByParticipations returns winner records for the given participations.
func (r *WinnerRepository) ListByParticipations(ctx context.Context, participationIDs []string) (map[string]models.Winner, error) {
	if len(participationIDs) == 0 {
		return map[string]models.Winner{}, nil
	}
	placeholders := make([]string, len(participationIDs))
	args := make([]interface{}, len(participationIDs))
	for i, id := range participationIDs {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	query := fmt.Sprintf(`SELECT id, participation_id, time_slot_id, experience_category, place, created_at
        FROM winners WHERE participation_id IN (%s)`, strings.Join(placeholders, ","))
	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list winners by participations: %w", err)
	}
	defer rows.Close()
	result := make(map[string]models.Winner, len(participationIDs))
	for rows.Next() {
		var winner models.Winner
		if err := rows.StructScan(&winner); err != nil {
			return nil, fmt.Errorf("scan winner: %w", err)
		}
		result[winner.ParticipationID] = winner
	}
	return result, nil
}
