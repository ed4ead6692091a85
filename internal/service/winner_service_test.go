package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkfest/inkfest-api/internal/models"
)

type mockWinnerRepo struct {
	stored map[string][]models.Winner
}

func winnerKey(slotID string, category models.ExperienceCategory) string {
	return slotID + "|" + string(category)
}

func (m *mockWinnerRepo) ReplaceForContestCategory(ctx context.Context, slotID string, category models.ExperienceCategory, winners []models.Winner) error {
	if m.stored == nil {
		m.stored = make(map[string][]models.Winner)
	}
	if len(winners) == 0 {
		delete(m.stored, winnerKey(slotID, category))
		return nil
	}
	list := make([]models.Winner, 0, len(winners))
	for _, w := range winners {
		w.ID = uuid.NewString()
		w.TimeSlotID = slotID
		w.ExperienceCategory = category
		list = append(list, w)
	}
	m.stored[winnerKey(slotID, category)] = list
	return nil
}

func (m *mockWinnerRepo) ListBySlot(ctx context.Context, slotID string) ([]models.Winner, error) {
	var list []models.Winner
	for _, winners := range m.stored {
		for _, w := range winners {
			if w.TimeSlotID == slotID {
				list = append(list, w)
			}
		}
	}
	return list, nil
}

type mockWinnerSlotRepo struct {
	slots         map[string]*models.TimeSlot
	statusUpdates []models.ContestStatus
}

func (m *mockWinnerSlotRepo) FindByID(ctx context.Context, id string) (*models.TimeSlot, error) {
	if slot, ok := m.slots[id]; ok {
		return slot, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockWinnerSlotRepo) UpdateStatus(ctx context.Context, id string, status models.ContestStatus) error {
	slot, ok := m.slots[id]
	if !ok || slot.Judging == nil {
		return sql.ErrNoRows
	}
	slot.Judging.Status = status
	m.statusUpdates = append(m.statusUpdates, status)
	return nil
}

type mockAggregator struct {
	aggregates []models.ParticipationAggregate
}

func (m *mockAggregator) ContestAggregates(ctx context.Context, slotID string) ([]models.ParticipationAggregate, error) {
	return m.aggregates, nil
}

func newWinnerFixture(status models.ContestStatus, aggregates []models.ParticipationAggregate) (*WinnerService, *mockWinnerRepo, *mockWinnerSlotRepo, string) {
	slotID := uuid.NewString()
	winners := &mockWinnerRepo{}
	slots := &mockWinnerSlotRepo{slots: map[string]*models.TimeSlot{
		slotID: {
			ID:   slotID,
			Type: models.SlotJudging,
			Judging: &models.JudgingDetails{
				NominationTemplateID: uuid.NewString(),
				Category:             models.CategoryFresh,
				Status:               status,
			},
		},
	}}
	svc := NewWinnerService(winners, slots, &mockAggregator{aggregates: aggregates}, nil, nil)
	return svc, winners, slots, slotID
}

func aggregate(id string, category models.ExperienceCategory, score float64) models.ParticipationAggregate {
	return models.ParticipationAggregate{ParticipationID: id, Category: category, FinalScore: score}
}

func TestAssignWinnerSingleTop(t *testing.T) {
	p1, p2 := uuid.NewString(), uuid.NewString()
	svc, winners, slots, slotID := newWinnerFixture(models.StatusCompleted, []models.ParticipationAggregate{
		aggregate(p1, models.CategoryPro, 9.5),
		aggregate(p2, models.CategoryPro, 8.0),
	})

	resolution, err := svc.Assign(context.Background(), slotID, models.AssignWinnerRequest{Category: models.CategoryPro})
	require.NoError(t, err)
	require.NotNil(t, resolution.Winner)
	assert.Equal(t, p1, resolution.Winner.ParticipationID)
	assert.Equal(t, 1, resolution.Winner.Place)
	assert.InDelta(t, 9.5, resolution.MaxScore, 0.001)
	assert.Empty(t, resolution.TiedIDs)

	stored := winners.stored[winnerKey(slotID, models.CategoryPro)]
	require.Len(t, stored, 1)
	assert.Equal(t, p1, stored[0].ParticipationID)
	assert.Equal(t, []models.ContestStatus{models.StatusAwarded}, slots.statusUpdates)
}

func TestAssignWinnerTieRequiresSelection(t *testing.T) {
	p1, p2 := uuid.NewString(), uuid.NewString()
	svc, winners, slots, slotID := newWinnerFixture(models.StatusCompleted, []models.ParticipationAggregate{
		aggregate(p1, models.CategoryPro, 9.0),
		aggregate(p2, models.CategoryPro, 9.0),
	})

	resolution, err := svc.Assign(context.Background(), slotID, models.AssignWinnerRequest{Category: models.CategoryPro})
	require.NoError(t, err)
	assert.Nil(t, resolution.Winner)
	assert.ElementsMatch(t, []string{p1, p2}, resolution.TiedIDs)
	assert.Empty(t, winners.stored)
	assert.Empty(t, slots.statusUpdates)
}

func TestAssignWinnerTieResolvedByOperator(t *testing.T) {
	p1, p2 := uuid.NewString(), uuid.NewString()
	svc, winners, _, slotID := newWinnerFixture(models.StatusCompleted, []models.ParticipationAggregate{
		aggregate(p1, models.CategoryPro, 9.0),
		aggregate(p2, models.CategoryPro, 9.0),
	})

	resolution, err := svc.Assign(context.Background(), slotID, models.AssignWinnerRequest{Category: models.CategoryPro, ParticipationID: &p2})
	require.NoError(t, err)
	require.NotNil(t, resolution.Winner)
	assert.Equal(t, p2, resolution.Winner.ParticipationID)
	assert.ElementsMatch(t, []string{p1, p2}, resolution.TiedIDs)
	require.Len(t, winners.stored[winnerKey(slotID, models.CategoryPro)], 1)
}

func TestAssignWinnerZeroScoreClears(t *testing.T) {
	p1 := uuid.NewString()
	svc, winners, slots, slotID := newWinnerFixture(models.StatusCompleted, []models.ParticipationAggregate{
		aggregate(p1, models.CategoryJunior, 0),
	})
	require.NoError(t, winners.ReplaceForContestCategory(context.Background(), slotID, models.CategoryJunior, []models.Winner{{ParticipationID: p1, Place: 1}}))

	resolution, err := svc.Assign(context.Background(), slotID, models.AssignWinnerRequest{Category: models.CategoryJunior})
	require.NoError(t, err)
	assert.True(t, resolution.Cleared)
	assert.Nil(t, resolution.Winner)
	assert.Empty(t, winners.stored[winnerKey(slotID, models.CategoryJunior)])
	assert.Empty(t, slots.statusUpdates)
}

func TestAssignWinnerReplacesPrevious(t *testing.T) {
	p1, p2 := uuid.NewString(), uuid.NewString()
	svc, winners, _, slotID := newWinnerFixture(models.StatusAwarded, []models.ParticipationAggregate{
		aggregate(p1, models.CategoryPro, 9.0),
		aggregate(p2, models.CategoryPro, 8.0),
	})
	require.NoError(t, winners.ReplaceForContestCategory(context.Background(), slotID, models.CategoryPro, []models.Winner{{ParticipationID: p2, Place: 1}}))

	resolution, err := svc.Assign(context.Background(), slotID, models.AssignWinnerRequest{Category: models.CategoryPro, ParticipationID: &p1})
	require.NoError(t, err)
	require.NotNil(t, resolution.Winner)
	assert.Equal(t, p1, resolution.Winner.ParticipationID)
	stored := winners.stored[winnerKey(slotID, models.CategoryPro)]
	require.Len(t, stored, 1)
	assert.Equal(t, p1, stored[0].ParticipationID)
}

func TestAssignWinnerBeforeCompletion(t *testing.T) {
	p1 := uuid.NewString()
	svc, _, _, slotID := newWinnerFixture(models.StatusJudging, []models.ParticipationAggregate{
		aggregate(p1, models.CategoryPro, 9.0),
	})

	_, err := svc.Assign(context.Background(), slotID, models.AssignWinnerRequest{Category: models.CategoryPro})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not finished")
}

func TestAssignWinnerEmptyCategory(t *testing.T) {
	p1 := uuid.NewString()
	svc, _, _, slotID := newWinnerFixture(models.StatusCompleted, []models.ParticipationAggregate{
		aggregate(p1, models.CategoryPro, 9.0),
	})

	_, err := svc.Assign(context.Background(), slotID, models.AssignWinnerRequest{Category: models.CategoryJunior})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no entries")
}

func TestAssignWinnerOutsideGroup(t *testing.T) {
	p1, stranger := uuid.NewString(), uuid.NewString()
	svc, _, _, slotID := newWinnerFixture(models.StatusCompleted, []models.ParticipationAggregate{
		aggregate(p1, models.CategoryPro, 9.0),
	})

	_, err := svc.Assign(context.Background(), slotID, models.AssignWinnerRequest{Category: models.CategoryPro, ParticipationID: &stranger})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not belong")
}
