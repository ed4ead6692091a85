package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/inkfest/inkfest-api/internal/models"
)

// ParticipationRepository handles contest entries and judge assignments.
type ParticipationRepository struct {
	db *sqlx.DB
}

// NewParticipationRepository creates a new participation repository.
func NewParticipationRepository(db *sqlx.DB) *ParticipationRepository {
	return &ParticipationRepository{db: db}
}

// Create registers a participation, picking the next entry number for the
// (user, slot) pair inside the transaction so concurrent registrations of
// the same user cannot collide.
func (r *ParticipationRepository) Create(ctx context.Context, participation *models.Participation) error {
	if participation.ID == "" {
		participation.ID = uuid.NewString()
	}
	if participation.RegisteredAt.IsZero() {
		participation.RegisteredAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if participation.EntryNumber == 0 {
		const nextQuery = `SELECT COALESCE(MAX(entry_number), 0) + 1 FROM participations WHERE user_id = $1 AND time_slot_id = $2`
		if err := tx.GetContext(ctx, &participation.EntryNumber, nextQuery, participation.UserID, participation.TimeSlotID); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("next entry number: %w", err)
		}
	}
	const insert = `INSERT INTO participations (id, user_id, time_slot_id, entry_number, registered_at)
        VALUES (:id, :user_id, :time_slot_id, :entry_number, :registered_at)`
	if _, err := tx.NamedExecContext(ctx, insert, participation); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("create participation: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit participation: %w", err)
	}
	return nil
}

// FindByID returns a participation with its user attached.
func (r *ParticipationRepository) FindByID(ctx context.Context, id string) (*models.Participation, error) {
	const query = `SELECT p.id, p.user_id, p.time_slot_id, p.entry_number, p.registered_at,
        u.id AS "user.id", u.code AS "user.code", u.nickname AS "user.nickname", u.telegram_id AS "user.telegram_id",
        u.role AS "user.role", u.experience_category AS "user.experience_category", u.created_at AS "user.created_at", u.updated_at AS "user.updated_at"
        FROM participations p JOIN users u ON u.id = p.user_id WHERE p.id = $1 LIMIT 1`
	rows, err := r.db.QueryxContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("find participation: %w", err)
	}
	defer rows.Close()
	if !rows.Next() {
		return nil, sql.ErrNoRows
	}
	participation, err := scanParticipation(rows)
	if err != nil {
		return nil, err
	}
	return participation, nil
}

// ListBySlot returns a contest's participations ordered by entry number,
// each with its user attached.
func (r *ParticipationRepository) ListBySlot(ctx context.Context, slotID string) ([]models.Participation, error) {
	const query = `SELECT p.id, p.user_id, p.time_slot_id, p.entry_number, p.registered_at,
        u.id AS "user.id", u.code AS "user.code", u.nickname AS "user.nickname", u.telegram_id AS "user.telegram_id",
        u.role AS "user.role", u.experience_category AS "user.experience_category", u.created_at AS "user.created_at", u.updated_at AS "user.updated_at"
        FROM participations p JOIN users u ON u.id = p.user_id WHERE p.time_slot_id = $1
        ORDER BY p.entry_number, p.registered_at`
	rows, err := r.db.QueryxContext(ctx, query, slotID)
	if err != nil {
		return nil, fmt.Errorf("list participations: %w", err)
	}
	defer rows.Close()
	var participations []models.Participation
	for rows.Next() {
		participation, err := scanParticipation(rows)
		if err != nil {
			return nil, err
		}
		participations = append(participations, *participation)
	}
	return participations, nil
}

func scanParticipation(rows *sqlx.Rows) (*models.Participation, error) {
	var row struct {
		ID           string      `db:"id"`
		UserID       string      `db:"user_id"`
		TimeSlotID   string      `db:"time_slot_id"`
		EntryNumber  int         `db:"entry_number"`
		RegisteredAt time.Time   `db:"registered_at"`
		User         models.User `db:"user"`
	}
	if err := rows.StructScan(&row); err != nil {
		return nil, fmt.Errorf("scan participation: %w", err)
	}
	user := row.User
	return &models.Participation{
		ID:           row.ID,
		UserID:       row.UserID,
		TimeSlotID:   row.TimeSlotID,
		EntryNumber:  row.EntryNumber,
		RegisteredAt: row.RegisteredAt,
		User:         &user,
	}, nil
}

// ListByUser returns a user's participations ordered by registration time.
func (r *ParticipationRepository) ListByUser(ctx context.Context, userID string) ([]models.Participation, error) {
	const query = `SELECT id, user_id, time_slot_id, entry_number, registered_at FROM participations WHERE user_id = $1 ORDER BY registered_at`
	var participations []models.Participation
	if err := r.db.SelectContext(ctx, &participations, query, userID); err != nil {
		return nil, fmt.Errorf("list user participations: %w", err)
	}
	return participations, nil
}

// CountBySlot returns the number of entries in a contest.
func (r *ParticipationRepository) CountBySlot(ctx context.Context, slotID string) (int, error) {
	const query = `SELECT COUNT(*) FROM participations WHERE time_slot_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, slotID); err != nil {
		return 0, fmt.Errorf("count participations: %w", err)
	}
	return count, nil
}

// Delete removes a participation. Its scores cascade.
func (r *ParticipationRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM participations WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete participation: %w", err)
	}
	return nil
}

// AssignJudge places a judge on a contest slot.
func (r *ParticipationRepository) AssignJudge(ctx context.Context, assignment *models.JudgeAssignment) error {
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	if assignment.CreatedAt.IsZero() {
		assignment.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO judge_nominations (id, judge_id, time_slot_id, created_at) VALUES (:id, :judge_id, :time_slot_id, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, assignment); err != nil {
		return fmt.Errorf("assign judge: %w", err)
	}
	return nil
}

// UnassignJudge removes a judge from a contest slot.
func (r *ParticipationRepository) UnassignJudge(ctx context.Context, judgeID, slotID string) error {
	const query = `DELETE FROM judge_nominations WHERE judge_id = $1 AND time_slot_id = $2`
	if _, err := r.db.ExecContext(ctx, query, judgeID, slotID); err != nil {
		return fmt.Errorf("unassign judge: %w", err)
	}
	return nil
}

// ListJudgesBySlot returns the judges assigned to a contest with user data.
func (r *ParticipationRepository) ListJudgesBySlot(ctx context.Context, slotID string) ([]models.JudgeAssignment, error) {
	const query = `SELECT jn.id, jn.judge_id, jn.time_slot_id, jn.created_at,
        u.id AS "judge.id", u.code AS "judge.code", u.nickname AS "judge.nickname", u.telegram_id AS "judge.telegram_id",
        u.role AS "judge.role", u.experience_category AS "judge.experience_category", u.created_at AS "judge.created_at", u.updated_at AS "judge.updated_at"
        FROM judge_nominations jn JOIN users u ON u.id = jn.judge_id WHERE jn.time_slot_id = $1 ORDER BY jn.created_at`
	rows, err := r.db.QueryxContext(ctx, query, slotID)
	if err != nil {
		return nil, fmt.Errorf("list contest judges: %w", err)
	}
	defer rows.Close()
	var assignments []models.JudgeAssignment
	for rows.Next() {
		var row struct {
			ID         string      `db:"id"`
			JudgeID    string      `db:"judge_id"`
			TimeSlotID string      `db:"time_slot_id"`
			CreatedAt  time.Time   `db:"created_at"`
			Judge      models.User `db:"judge"`
		}
		if err := rows.StructScan(&row); err != nil {
			return nil, fmt.Errorf("scan judge assignment: %w", err)
		}
		judge := row.Judge
		assignments = append(assignments, models.JudgeAssignment{
			ID:         row.ID,
			JudgeID:    row.JudgeID,
			TimeSlotID: row.TimeSlotID,
			CreatedAt:  row.CreatedAt,
			Judge:      &judge,
		})
	}
	return assignments, nil
}

// ListSlotIDsByJudge returns the contest slots a judge is assigned to.
func (r *ParticipationRepository) ListSlotIDsByJudge(ctx context.Context, judgeID string) ([]string, error) {
	const query = `SELECT time_slot_id FROM judge_nominations WHERE judge_id = $1`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, judgeID); err != nil {
		return nil, fmt.Errorf("list judge slots: %w", err)
	}
	return ids, nil
}

// IsJudgeAssigned reports whether the judge is assigned to the slot.
func (r *ParticipationRepository) IsJudgeAssigned(ctx context.Context, judgeID, slotID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM judge_nominations WHERE judge_id = $1 AND time_slot_id = $2)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, judgeID, slotID); err != nil {
		return false, fmt.Errorf("check judge assignment: %w", err)
	}
	return exists, nil
}

// CountJudgesBySlot returns the number of judges assigned to a contest.
func (r *ParticipationRepository) CountJudgesBySlot(ctx context.Context, slotID string) (int, error) {
	const query = `SELECT COUNT(*) FROM judge_nominations WHERE time_slot_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, slotID); err != nil {
		return 0, fmt.Errorf("count contest judges: %w", err)
	}
	return count, nil
}
