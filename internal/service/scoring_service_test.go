package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkfest/inkfest-api/internal/models"
)

type mockSlotRepo struct {
	slots         map[string]*models.TimeSlot
	statusUpdates []models.ContestStatus
}

func (m *mockSlotRepo) FindByID(ctx context.Context, id string) (*models.TimeSlot, error) {
	if slot, ok := m.slots[id]; ok {
		copied := *slot
		if slot.Judging != nil {
			judging := *slot.Judging
			copied.Judging = &judging
		}
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockSlotRepo) UpdateStatus(ctx context.Context, id string, status models.ContestStatus) error {
	slot, ok := m.slots[id]
	if !ok || slot.Judging == nil {
		return sql.ErrNoRows
	}
	slot.Judging.Status = status
	m.statusUpdates = append(m.statusUpdates, status)
	return nil
}

type mockParticipationRepo struct {
	participations map[string]*models.Participation
	judges         []models.JudgeAssignment
}

func (m *mockParticipationRepo) FindByID(ctx context.Context, id string) (*models.Participation, error) {
	if p, ok := m.participations[id]; ok {
		return p, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockParticipationRepo) ListBySlot(ctx context.Context, slotID string) ([]models.Participation, error) {
	var list []models.Participation
	for _, p := range m.participations {
		if p.TimeSlotID == slotID {
			list = append(list, *p)
		}
	}
	return list, nil
}

func (m *mockParticipationRepo) ListJudgesBySlot(ctx context.Context, slotID string) ([]models.JudgeAssignment, error) {
	var list []models.JudgeAssignment
	for _, j := range m.judges {
		if j.TimeSlotID == slotID {
			list = append(list, j)
		}
	}
	return list, nil
}

func (m *mockParticipationRepo) IsJudgeAssigned(ctx context.Context, judgeID, slotID string) (bool, error) {
	for _, j := range m.judges {
		if j.JudgeID == judgeID && j.TimeSlotID == slotID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockParticipationRepo) CountBySlot(ctx context.Context, slotID string) (int, error) {
	list, _ := m.ListBySlot(ctx, slotID)
	return len(list), nil
}

func (m *mockParticipationRepo) CountJudgesBySlot(ctx context.Context, slotID string) (int, error) {
	list, _ := m.ListJudgesBySlot(ctx, slotID)
	return len(list), nil
}

type mockScoreRepo struct {
	stored     map[string]models.Score
	partToSlot map[string]string
}

func scoreKey(judgeID, participationID, criterionID string) string {
	return judgeID + "|" + participationID + "|" + criterionID
}

func (m *mockScoreRepo) Upsert(ctx context.Context, score *models.Score) error {
	if m.stored == nil {
		m.stored = make(map[string]models.Score)
	}
	m.stored[scoreKey(score.JudgeID, score.ParticipationID, score.CriterionID)] = *score
	return nil
}

func (m *mockScoreRepo) BulkUpsert(ctx context.Context, scores []models.Score) error {
	for i := range scores {
		if err := m.Upsert(ctx, &scores[i]); err != nil {
			return err
		}
	}
	return nil
}

func (m *mockScoreRepo) ListForContest(ctx context.Context, slotID string) ([]models.Score, error) {
	var list []models.Score
	for _, score := range m.stored {
		if m.partToSlot[score.ParticipationID] == slotID {
			list = append(list, score)
		}
	}
	return list, nil
}

func (m *mockScoreRepo) ListByJudgeForContest(ctx context.Context, judgeID, slotID string) ([]models.Score, error) {
	all, _ := m.ListForContest(ctx, slotID)
	var list []models.Score
	for _, score := range all {
		if score.JudgeID == judgeID {
			list = append(list, score)
		}
	}
	return list, nil
}

func (m *mockScoreRepo) CountForContest(ctx context.Context, slotID string) (int, error) {
	list, _ := m.ListForContest(ctx, slotID)
	return len(list), nil
}

type mockTemplateRepo struct {
	templates map[string]*models.NominationTemplate
}

func (m *mockTemplateRepo) FindTemplate(ctx context.Context, id string) (*models.NominationTemplate, error) {
	if t, ok := m.templates[id]; ok {
		return t, nil
	}
	return nil, sql.ErrNoRows
}

type recordingMetrics struct {
	scores    int
	completed int
}

func (m *recordingMetrics) ScoreRecorded(contestID string) { m.scores++ }
func (m *recordingMetrics) ContestCompleted()              { m.completed++ }

// scoringFixture is a contest with 2 entries, 2 judges and 3 criteria, so a
// full sheet is 12 scores.
type scoringFixture struct {
	svc       *ScoringService
	slots     *mockSlotRepo
	parts     *mockParticipationRepo
	scores    *mockScoreRepo
	templates *mockTemplateRepo
	metrics   *recordingMetrics

	slotID     string
	templateID string
	judgeIDs   []string
	partIDs    []string
	critIDs    []string
}

func newScoringFixture(t *testing.T, config ScoringConfig) *scoringFixture {
	t.Helper()

	f := &scoringFixture{
		slotID:     uuid.NewString(),
		templateID: uuid.NewString(),
		judgeIDs:   []string{uuid.NewString(), uuid.NewString()},
		partIDs:    []string{uuid.NewString(), uuid.NewString()},
		critIDs:    []string{uuid.NewString(), uuid.NewString(), uuid.NewString()},
	}

	criteria := make([]models.Criterion, 0, len(f.critIDs))
	for i, id := range f.critIDs {
		criteria = append(criteria, models.Criterion{ID: id, Name: "criterion", MaxScore: 10, SortOrder: i})
	}
	f.templates = &mockTemplateRepo{templates: map[string]*models.NominationTemplate{
		f.templateID: {ID: f.templateID, Name: "Best Color", ParticipantType: models.ParticipantTypeBoth, Criteria: criteria},
	}}

	f.slots = &mockSlotRepo{slots: map[string]*models.TimeSlot{
		f.slotID: {
			ID:        f.slotID,
			DayID:     uuid.NewString(),
			StartTime: time.Now().Add(-time.Hour),
			EndTime:   time.Now().Add(time.Hour),
			Type:      models.SlotJudging,
			Judging: &models.JudgingDetails{
				NominationTemplateID: f.templateID,
				Category:             models.CategoryFresh,
				Status:               models.StatusPending,
			},
		},
	}}

	pro := models.CategoryPro
	f.parts = &mockParticipationRepo{participations: map[string]*models.Participation{}}
	for i, id := range f.partIDs {
		f.parts.participations[id] = &models.Participation{
			ID:          id,
			UserID:      uuid.NewString(),
			TimeSlotID:  f.slotID,
			EntryNumber: i + 1,
			User:        &models.User{ID: uuid.NewString(), Code: "P" + uuid.NewString()[:5], Role: models.RoleParticipant, ExperienceCategory: &pro},
		}
	}
	for _, id := range f.judgeIDs {
		f.parts.judges = append(f.parts.judges, models.JudgeAssignment{ID: uuid.NewString(), JudgeID: id, TimeSlotID: f.slotID})
	}

	f.scores = &mockScoreRepo{partToSlot: map[string]string{}}
	for _, id := range f.partIDs {
		f.scores.partToSlot[id] = f.slotID
	}

	f.metrics = &recordingMetrics{}
	f.svc = NewScoringService(f.slots, f.parts, f.scores, f.templates, nil, nil, config)
	f.svc.SetMetrics(f.metrics)
	return f
}

func (f *scoringFixture) status() models.ContestStatus {
	return f.slots.slots[f.slotID].Judging.Status
}

func TestRecordScoreAdvancesToJudging(t *testing.T) {
	f := newScoringFixture(t, ScoringConfig{})

	score, err := f.svc.RecordScore(context.Background(), f.judgeIDs[0], models.RecordScoreRequest{
		ParticipationID: f.partIDs[0],
		CriterionID:     f.critIDs[0],
		Value:           8,
	})
	require.NoError(t, err)
	assert.Equal(t, 8, score.Value)
	assert.Equal(t, models.StatusJudging, f.status())
	assert.Equal(t, 1, f.metrics.scores)
}

func TestRecordScoreOverwriteIsIdempotent(t *testing.T) {
	f := newScoringFixture(t, ScoringConfig{})
	ctx := context.Background()

	req := models.RecordScoreRequest{ParticipationID: f.partIDs[0], CriterionID: f.critIDs[0], Value: 5}
	_, err := f.svc.RecordScore(ctx, f.judgeIDs[0], req)
	require.NoError(t, err)

	req.Value = 9
	_, err = f.svc.RecordScore(ctx, f.judgeIDs[0], req)
	require.NoError(t, err)

	count, _ := f.scores.CountForContest(ctx, f.slotID)
	assert.Equal(t, 1, count)
	stored := f.scores.stored[scoreKey(f.judgeIDs[0], f.partIDs[0], f.critIDs[0])]
	assert.Equal(t, 9, stored.Value)
	assert.Equal(t, models.StatusJudging, f.status())
}

func TestRecordScoreRejectsUnassignedJudge(t *testing.T) {
	f := newScoringFixture(t, ScoringConfig{})

	_, err := f.svc.RecordScore(context.Background(), uuid.NewString(), models.RecordScoreRequest{
		ParticipationID: f.partIDs[0],
		CriterionID:     f.critIDs[0],
		Value:           7,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not assigned")
}

func TestRecordScoreRejectsForeignCriterion(t *testing.T) {
	f := newScoringFixture(t, ScoringConfig{})

	_, err := f.svc.RecordScore(context.Background(), f.judgeIDs[0], models.RecordScoreRequest{
		ParticipationID: f.partIDs[0],
		CriterionID:     uuid.NewString(),
		Value:           7,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "criterion")
}

func TestRecordScoreBeforeStartTime(t *testing.T) {
	f := newScoringFixture(t, ScoringConfig{EnforceStartTime: true})
	f.slots.slots[f.slotID].StartTime = time.Now().Add(time.Hour)

	_, err := f.svc.RecordScore(context.Background(), f.judgeIDs[0], models.RecordScoreRequest{
		ParticipationID: f.partIDs[0],
		CriterionID:     f.critIDs[0],
		Value:           7,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not started")
}

func TestRecordScoreOnClosedContest(t *testing.T) {
	f := newScoringFixture(t, ScoringConfig{})
	f.slots.slots[f.slotID].Judging.Status = models.StatusCompleted

	_, err := f.svc.RecordScore(context.Background(), f.judgeIDs[0], models.RecordScoreRequest{
		ParticipationID: f.partIDs[0],
		CriterionID:     f.critIDs[0],
		Value:           7,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "closed")
}

func TestSubmitScoresCompletesContest(t *testing.T) {
	f := newScoringFixture(t, ScoringConfig{})
	ctx := context.Background()

	// 2 entries x 2 judges x 3 criteria
	for _, judgeID := range f.judgeIDs {
		for _, partID := range f.partIDs {
			sheet := map[string]int{}
			for _, critID := range f.critIDs {
				sheet[critID] = 7
			}
			_, err := f.svc.SubmitScores(ctx, judgeID, models.SubmitScoresRequest{ParticipationID: partID, Scores: sheet})
			require.NoError(t, err)
		}
	}

	count, _ := f.scores.CountForContest(ctx, f.slotID)
	assert.Equal(t, 12, count)
	assert.Equal(t, models.StatusCompleted, f.status())
	assert.Equal(t, 1, f.metrics.completed)
	assert.Equal(t, 12, f.metrics.scores)
}

func TestContestStaysJudgingUntilFullSheet(t *testing.T) {
	f := newScoringFixture(t, ScoringConfig{})
	ctx := context.Background()

	type combo struct{ judgeID, partID, critID string }
	var combos []combo
	for _, judgeID := range f.judgeIDs {
		for _, partID := range f.partIDs {
			for _, critID := range f.critIDs {
				combos = append(combos, combo{judgeID, partID, critID})
			}
		}
	}
	require.Len(t, combos, 12)

	for _, c := range combos[:11] {
		_, err := f.svc.RecordScore(ctx, c.judgeID, models.RecordScoreRequest{
			ParticipationID: c.partID, CriterionID: c.critID, Value: 5,
		})
		require.NoError(t, err)
	}
	assert.Equal(t, models.StatusJudging, f.status())

	last := combos[11]
	_, err := f.svc.RecordScore(ctx, last.judgeID, models.RecordScoreRequest{
		ParticipationID: last.partID, CriterionID: last.critID, Value: 5,
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, f.status())
}

func TestCompletionListenerFiresOnce(t *testing.T) {
	f := newScoringFixture(t, ScoringConfig{})
	ctx := context.Background()

	var completions []string
	f.svc.SetCompletionListener(func(slot *models.TimeSlot) {
		completions = append(completions, slot.ID)
	})

	for _, judgeID := range f.judgeIDs {
		for _, partID := range f.partIDs {
			sheet := map[string]int{}
			for _, critID := range f.critIDs {
				sheet[critID] = 6
			}
			_, err := f.svc.SubmitScores(ctx, judgeID, models.SubmitScoresRequest{ParticipationID: partID, Scores: sheet})
			require.NoError(t, err)
		}
	}
	require.Equal(t, []string{f.slotID}, completions)

	_, err := f.svc.EvaluateContestStatus(ctx, f.slotID)
	require.NoError(t, err)
	assert.Len(t, completions, 1)
}

func TestSubmitScoresRejectsNegativeValue(t *testing.T) {
	f := newScoringFixture(t, ScoringConfig{})

	_, err := f.svc.SubmitScores(context.Background(), f.judgeIDs[0], models.SubmitScoresRequest{
		ParticipationID: f.partIDs[0],
		Scores:          map[string]int{f.critIDs[0]: -1},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "non-negative")
}

func TestEvaluateContestStatusAutoStart(t *testing.T) {
	f := newScoringFixture(t, ScoringConfig{AutoStartOnAssignment: true})

	slot, err := f.svc.EvaluateContestStatus(context.Background(), f.slotID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusJudging, slot.Judging.Status)
	assert.Equal(t, models.StatusJudging, f.status())
}

func TestEvaluateContestStatusAutoStartJudgesOnly(t *testing.T) {
	f := newScoringFixture(t, ScoringConfig{AutoStartOnAssignment: true})
	f.parts.participations = map[string]*models.Participation{}

	slot, err := f.svc.EvaluateContestStatus(context.Background(), f.slotID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusJudging, slot.Judging.Status)
}

func TestEvaluateContestStatusNoAutoStart(t *testing.T) {
	f := newScoringFixture(t, ScoringConfig{})

	slot, err := f.svc.EvaluateContestStatus(context.Background(), f.slotID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, slot.Judging.Status)
	assert.Empty(t, f.slots.statusUpdates)
}

func TestEvaluateContestStatusNeverRegresses(t *testing.T) {
	f := newScoringFixture(t, ScoringConfig{})
	f.slots.slots[f.slotID].Judging.Status = models.StatusCompleted

	slot, err := f.svc.EvaluateContestStatus(context.Background(), f.slotID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, slot.Judging.Status)
	assert.Empty(t, f.slots.statusUpdates)
}

func TestEvaluateContestStatusSkipsAwarded(t *testing.T) {
	f := newScoringFixture(t, ScoringConfig{AutoStartOnAssignment: true})
	f.slots.slots[f.slotID].Judging.Status = models.StatusAwarded

	slot, err := f.svc.EvaluateContestStatus(context.Background(), f.slotID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAwarded, slot.Judging.Status)
	assert.Empty(t, f.slots.statusUpdates)
}

func TestComputeAggregatesShrinkingDenominator(t *testing.T) {
	f := newScoringFixture(t, ScoringConfig{})
	ctx := context.Background()

	// judge 0 scores all three criteria of entry 1; judge 1 scores only one
	_, err := f.svc.SubmitScores(ctx, f.judgeIDs[0], models.SubmitScoresRequest{
		ParticipationID: f.partIDs[0],
		Scores:          map[string]int{f.critIDs[0]: 10, f.critIDs[1]: 8, f.critIDs[2]: 6},
	})
	require.NoError(t, err)
	_, err = f.svc.RecordScore(ctx, f.judgeIDs[1], models.RecordScoreRequest{
		ParticipationID: f.partIDs[0], CriterionID: f.critIDs[0], Value: 9,
	})
	require.NoError(t, err)

	aggregates, err := f.svc.ContestAggregates(ctx, f.slotID)
	require.NoError(t, err)
	require.Len(t, aggregates, 2)

	top := aggregates[0]
	assert.Equal(t, f.partIDs[0], top.ParticipationID)
	// judge 0 average 8.0, judge 1 average 9.0 over its single criterion
	require.Len(t, top.PerJudge, 2)
	averages := map[string]float64{}
	for _, pj := range top.PerJudge {
		require.NotNil(t, pj.Average)
		averages[pj.JudgeID] = *pj.Average
	}
	assert.InDelta(t, 8.0, averages[f.judgeIDs[0]], 0.001)
	assert.InDelta(t, 9.0, averages[f.judgeIDs[1]], 0.001)
	assert.InDelta(t, 8.5, top.FinalScore, 0.001)
}

func TestComputeAggregatesZeroWithoutScores(t *testing.T) {
	f := newScoringFixture(t, ScoringConfig{})

	aggregates, err := f.svc.ContestAggregates(context.Background(), f.slotID)
	require.NoError(t, err)
	require.Len(t, aggregates, 2)
	for _, aggregate := range aggregates {
		assert.Zero(t, aggregate.FinalScore)
		for _, pj := range aggregate.PerJudge {
			assert.Nil(t, pj.Average)
		}
	}
	// tied order falls back to entry number
	assert.Equal(t, 1, aggregates[0].EntryNumber)
	assert.Equal(t, 2, aggregates[1].EntryNumber)
}

func TestComputeAggregatesIgnoresForeignCriteria(t *testing.T) {
	criteria := []models.Criterion{{ID: "c1", MaxScore: 10}}
	participations := []models.Participation{{ID: "p1", EntryNumber: 1}}
	judges := []models.JudgeAssignment{{JudgeID: "j1"}}
	scores := []models.Score{
		{JudgeID: "j1", ParticipationID: "p1", CriterionID: "c1", Value: 7},
		{JudgeID: "j1", ParticipationID: "p1", CriterionID: "stale", Value: 1},
	}

	aggregates := ComputeAggregates(participations, judges, criteria, scores)
	require.Len(t, aggregates, 1)
	assert.InDelta(t, 7.0, aggregates[0].FinalScore, 0.001)
}

func TestComputeAggregatesRounding(t *testing.T) {
	criteria := []models.Criterion{{ID: "c1"}, {ID: "c2"}, {ID: "c3"}}
	participations := []models.Participation{{ID: "p1", EntryNumber: 1}}
	judges := []models.JudgeAssignment{{JudgeID: "j1"}}
	scores := []models.Score{
		{JudgeID: "j1", ParticipationID: "p1", CriterionID: "c1", Value: 10},
		{JudgeID: "j1", ParticipationID: "p1", CriterionID: "c2", Value: 10},
		{JudgeID: "j1", ParticipationID: "p1", CriterionID: "c3", Value: 9},
	}

	aggregates := ComputeAggregates(participations, judges, criteria, scores)
	require.Len(t, aggregates, 1)
	// 29/3 = 9.666... rounds to 9.67
	assert.InDelta(t, 9.67, aggregates[0].FinalScore, 0.0001)
}

func TestComputeAggregatesRoundsOnlyFinal(t *testing.T) {
	criteria := []models.Criterion{{ID: "c1"}, {ID: "c2"}, {ID: "c3"}}
	participations := []models.Participation{{ID: "p1", EntryNumber: 1}}
	judges := []models.JudgeAssignment{{JudgeID: "j1"}, {JudgeID: "j2"}}
	scores := []models.Score{
		{JudgeID: "j1", ParticipationID: "p1", CriterionID: "c1", Value: 1},
		{JudgeID: "j1", ParticipationID: "p1", CriterionID: "c2", Value: 0},
		{JudgeID: "j1", ParticipationID: "p1", CriterionID: "c3", Value: 0},
		{JudgeID: "j2", ParticipationID: "p1", CriterionID: "c1", Value: 0},
	}

	aggregates := ComputeAggregates(participations, judges, criteria, scores)
	require.Len(t, aggregates, 1)

	// judge averages 1/3 and 0; the mean runs over the raw quotients, so the
	// final is round(1/6) = 0.17, not the 0.16 a mean of rounded 0.33 gives
	assert.InDelta(t, 0.17, aggregates[0].FinalScore, 0.0001)
	for _, pj := range aggregates[0].PerJudge {
		require.NotNil(t, pj.Average)
		if pj.JudgeID == "j1" {
			assert.InDelta(t, 0.33, *pj.Average, 0.0001)
		}
	}
}

func TestMarkTiesFlagsSharedTop(t *testing.T) {
	aggregates := []models.ParticipationAggregate{
		{ParticipationID: "a", FinalScore: 9.5},
		{ParticipationID: "b", FinalScore: 9.5},
		{ParticipationID: "c", FinalScore: 8.0},
	}
	markTies(aggregates)
	assert.True(t, aggregates[0].Tied)
	assert.True(t, aggregates[1].Tied)
	assert.False(t, aggregates[2].Tied)
}

func TestMarkTiesIgnoresZeroTop(t *testing.T) {
	aggregates := []models.ParticipationAggregate{
		{ParticipationID: "a", FinalScore: 0},
		{ParticipationID: "b", FinalScore: 0},
	}
	markTies(aggregates)
	assert.False(t, aggregates[0].Tied)
	assert.False(t, aggregates[1].Tied)
}

func TestJudgeSheetRunningAverages(t *testing.T) {
	f := newScoringFixture(t, ScoringConfig{})
	ctx := context.Background()

	_, err := f.svc.SubmitScores(ctx, f.judgeIDs[0], models.SubmitScoresRequest{
		ParticipationID: f.partIDs[0],
		Scores:          map[string]int{f.critIDs[0]: 6, f.critIDs[1]: 8, f.critIDs[2]: 10},
	})
	require.NoError(t, err)
	_, err = f.svc.RecordScore(ctx, f.judgeIDs[0], models.RecordScoreRequest{
		ParticipationID: f.partIDs[1], CriterionID: f.critIDs[0], Value: 4,
	})
	require.NoError(t, err)

	sheet, err := f.svc.JudgeSheet(ctx, f.judgeIDs[0], f.slotID)
	require.NoError(t, err)
	assert.True(t, sheet.JudgingOpen)
	assert.Len(t, sheet.Criteria, 3)
	require.NotNil(t, sheet.RunningAverages[f.partIDs[0]])
	assert.InDelta(t, 8.0, *sheet.RunningAverages[f.partIDs[0]], 0.001)
	require.NotNil(t, sheet.RunningAverages[f.partIDs[1]])
	assert.InDelta(t, 4.0, *sheet.RunningAverages[f.partIDs[1]], 0.001)
	assert.Equal(t, []string{f.partIDs[0]}, sheet.FullyScored)
}

func TestJudgeSheetClosedContest(t *testing.T) {
	f := newScoringFixture(t, ScoringConfig{})
	f.slots.slots[f.slotID].Judging.Status = models.StatusCompleted

	sheet, err := f.svc.JudgeSheet(context.Background(), f.judgeIDs[0], f.slotID)
	require.NoError(t, err)
	assert.False(t, sheet.JudgingOpen)
}
