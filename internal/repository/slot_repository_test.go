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

func newSlotRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	return sqlxDB, mock, func() {
		sqlxDB.Close()
		db.Close()
	}
}

var slotRowColumns = []string{
	"id", "day_id", "start_time", "end_time", "slot_order", "type",
	"nomination_template_id", "category", "status", "zone", "event_title",
	"day_festival_id", "day_date", "day_day_order",
}

func TestSlotRepositoryFindByIDFoldsJudgingVariant(t *testing.T) {
	db, mock, cleanup := newSlotRepoMock(t)
	defer cleanup()
	repo := NewSlotRepository(db)

	start := time.Date(2026, 7, 10, 12, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(slotRowColumns).
		AddRow("slot-1", "day-1", start, start.Add(3*time.Hour), 2, "judging",
			"tpl-1", "healed", "judging", "A", nil,
			"fest-1", start, 1)
	mock.ExpectQuery("SELECT s.id").
		WithArgs("slot-1").
		WillReturnRows(rows)

	slot, err := repo.FindByID(context.Background(), "slot-1")
	require.NoError(t, err)
	require.True(t, slot.IsContest())
	assert.Equal(t, "tpl-1", slot.Judging.NominationTemplateID)
	assert.Equal(t, models.CategoryHealed, slot.Judging.Category)
	assert.Equal(t, models.StatusJudging, slot.Judging.Status)
	assert.Nil(t, slot.Award)
	assert.Nil(t, slot.Event)
	require.NotNil(t, slot.Day)
	assert.Equal(t, "fest-1", slot.Day.FestivalID)
}

func TestSlotRepositoryFindByIDFoldsEventVariant(t *testing.T) {
	db, mock, cleanup := newSlotRepoMock(t)
	defer cleanup()
	repo := NewSlotRepository(db)

	start := time.Date(2026, 7, 10, 20, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(slotRowColumns).
		AddRow("slot-2", "day-1", start, start.Add(2*time.Hour), 5, "event",
			nil, nil, nil, nil, "Closing party",
			"fest-1", start, 1)
	mock.ExpectQuery("SELECT s.id").
		WithArgs("slot-2").
		WillReturnRows(rows)

	slot, err := repo.FindByID(context.Background(), "slot-2")
	require.NoError(t, err)
	assert.False(t, slot.IsContest())
	require.NotNil(t, slot.Event)
	assert.Equal(t, "Closing party", slot.Event.Title)
	assert.Nil(t, slot.Judging)
}

func TestSlotRepositoryUpdateStatus(t *testing.T) {
	db, mock, cleanup := newSlotRepoMock(t)
	defer cleanup()
	repo := NewSlotRepository(db)

	mock.ExpectExec("UPDATE time_slots SET status").
		WithArgs("slot-1", models.StatusCompleted).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateStatus(context.Background(), "slot-1", models.StatusCompleted))
}

func TestSlotRepositoryMaxSlotOrder(t *testing.T) {
	db, mock, cleanup := newSlotRepoMock(t)
	defer cleanup()
	repo := NewSlotRepository(db)

	mock.ExpectQuery("SELECT COALESCE").
		WithArgs("day-1").
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(4))

	max, err := repo.MaxSlotOrder(context.Background(), "day-1")
	require.NoError(t, err)
	assert.Equal(t, 4, max)
}
