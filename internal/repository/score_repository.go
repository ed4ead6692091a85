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

// ScoreRepository handles score persistence. Scores are unique per
// (judge, participation, criterion); submitting again overwrites.
type ScoreRepository struct {
	db *sqlx.DB
}

// NewScoreRepository creates a new score repository.
func NewScoreRepository(db *sqlx.DB) *ScoreRepository {
	return &ScoreRepository{db: db}
}

const upsertScoreQuery = `INSERT INTO scores (id, judge_id, participation_id, criterion_id, value, scored_at)
        VALUES (:id, :judge_id, :participation_id, :criterion_id, :value, :scored_at)
        ON CONFLICT (judge_id, participation_id, criterion_id)
        DO UPDATE SET value = EXCLUDED.value, scored_at = EXCLUDED.scored_at`

// Upsert inserts or overwrites a single score.
func (r *ScoreRepository) Upsert(ctx context.Context, score *models.Score) error {
	if score.ID == "" {
		score.ID = uuid.NewString()
	}
	score.ScoredAt = time.Now().UTC()
	if _, err := r.db.NamedExecContext(ctx, upsertScoreQuery, score); err != nil {
		return fmt.Errorf("upsert score: %w", err)
	}
	return nil
}

// BulkUpsert inserts or overwrites multiple scores in a transaction.
func (r *ScoreRepository) BulkUpsert(ctx context.Context, scores []models.Score) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	for i := range scores {
		if scores[i].ID == "" {
			scores[i].ID = uuid.NewString()
		}
		scores[i].ScoredAt = now
		if _, err := tx.NamedExecContext(ctx, upsertScoreQuery, scores[i]); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("bulk upsert score: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit scores: %w", err)
	}
	return nil
}

// ListForContest returns every score recorded against the contest's
// participations.
func (r *ScoreRepository) ListForContest(ctx context.Context, slotID string) ([]models.Score, error) {
	const query = `SELECT s.id, s.judge_id, s.participation_id, s.criterion_id, s.value, s.scored_at
        FROM scores s
        JOIN participations p ON p.id = s.participation_id
        WHERE p.time_slot_id = $1`
	var scores []models.Score
	if err := r.db.SelectContext(ctx, &scores, query, slotID); err != nil {
		return nil, fmt.Errorf("list contest scores: %w", err)
	}
	return scores, nil
}

// ListByJudgeForContest returns the scores one judge has recorded in a contest.
func (r *ScoreRepository) ListByJudgeForContest(ctx context.Context, judgeID, slotID string) ([]models.Score, error) {
	const query = `SELECT s.id, s.judge_id, s.participation_id, s.criterion_id, s.value, s.scored_at
        FROM scores s
        JOIN participations p ON p.id = s.participation_id
        WHERE s.judge_id = $1 AND p.time_slot_id = $2`
	var scores []models.Score
	if err := r.db.SelectContext(ctx, &scores, query, judgeID, slotID); err != nil {
		return nil, fmt.Errorf("list judge scores: %w", err)
	}
	return scores, nil
}

// ListByParticipations returns scores grouped by participation identifier.
func (r *ScoreRepository) ListByParticipations(ctx context.Context, participationIDs []string) (map[string][]models.Score, error) {
	if len(participationIDs) == 0 {
		return map[string][]models.Score{}, nil
	}
	placeholders := make([]string, len(participationIDs))
	args := make([]interface{}, len(participationIDs))
	for i, id := range participationIDs {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	query := fmt.Sprintf(`SELECT id, judge_id, participation_id, criterion_id, value, scored_at
        FROM scores WHERE participation_id IN (%s)`, strings.Join(placeholders, ","))
	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list scores by participations: %w", err)
	}
	defer rows.Close()
	result := make(map[string][]models.Score, len(participationIDs))
	for rows.Next() {
		var score models.Score
		if err := rows.StructScan(&score); err != nil {
			return nil, fmt.Errorf("scan score: %w", err)
		}
		result[score.ParticipationID] = append(result[score.ParticipationID], score)
	}
	return result, nil
}

// CountForContest returns the number of distinct scores recorded in a contest.
func (r *ScoreRepository) CountForContest(ctx context.Context, slotID string) (int, error) {
	const query = `SELECT COUNT(*) FROM scores s JOIN participations p ON p.id = s.participation_id WHERE p.time_slot_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, slotID); err != nil {
		return 0, fmt.Errorf("count contest scores: %w", err)
	}
	return count, nil
}
