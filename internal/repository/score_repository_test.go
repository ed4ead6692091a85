package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkfest/inkfest-api/internal/models"
)

func newScoreRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	return sqlxDB, mock, func() {
		sqlxDB.Close()
		db.Close()
	}
}

func TestScoreRepositoryUpsert(t *testing.T) {
	db, mock, cleanup := newScoreRepoMock(t)
	defer cleanup()

	repo := NewScoreRepository(db)
	mock.ExpectExec("INSERT INTO scores").
		WithArgs(sqlmock.AnyArg(), "judge-1", "part-1", "crit-1", 8, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	score := &models.Score{JudgeID: "judge-1", ParticipationID: "part-1", CriterionID: "crit-1", Value: 8}
	require.NoError(t, repo.Upsert(context.Background(), score))
	assert.NotEmpty(t, score.ID)
}

func TestScoreRepositoryBulkUpsert(t *testing.T) {
	db, mock, cleanup := newScoreRepoMock(t)
	defer cleanup()
	repo := NewScoreRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO scores").
		WithArgs(sqlmock.AnyArg(), "judge-1", "part-1", "crit-1", 7, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO scores").
		WithArgs(sqlmock.AnyArg(), "judge-1", "part-1", "crit-2", 9, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	scores := []models.Score{
		{JudgeID: "judge-1", ParticipationID: "part-1", CriterionID: "crit-1", Value: 7},
		{JudgeID: "judge-1", ParticipationID: "part-1", CriterionID: "crit-2", Value: 9},
	}
	require.NoError(t, repo.BulkUpsert(context.Background(), scores))
}

func TestScoreRepositoryListForContest(t *testing.T) {
	db, mock, cleanup := newScoreRepoMock(t)
	defer cleanup()
	repo := NewScoreRepository(db)

	rows := sqlmock.NewRows([]string{"id", "judge_id", "participation_id", "criterion_id", "value", "scored_at"}).
		AddRow("score-1", "judge-1", "part-1", "crit-1", 8, time.Now()).
		AddRow("score-2", "judge-2", "part-1", "crit-1", 6, time.Now())
	mock.ExpectQuery("SELECT s.id, s.judge_id").
		WithArgs("slot-1").
		WillReturnRows(rows)

	scores, err := repo.ListForContest(context.Background(), "slot-1")
	require.NoError(t, err)
	require.Len(t, scores, 2)
	assert.Equal(t, 8, scores[0].Value)
	assert.Equal(t, "judge-2", scores[1].JudgeID)
}

func TestScoreRepositoryCountForContest(t *testing.T) {
	db, mock, cleanup := newScoreRepoMock(t)
	defer cleanup()
	repo := NewScoreRepository(db)

	mock.ExpectQuery("SELECT COUNT").
		WithArgs("slot-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))

	count, err := repo.CountForContest(context.Background(), "slot-1")
	require.NoError(t, err)
	assert.Equal(t, 12, count)
}
