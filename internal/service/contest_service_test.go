package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkfest/inkfest-api/internal/models"
)

type mockContestSlotRepo struct {
	slots map[string]*models.TimeSlot
}

func (m *mockContestSlotRepo) FindByID(_ context.Context, id string) (*models.TimeSlot, error) {
	s, ok := m.slots[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *s
	if s.Judging != nil {
		details := *s.Judging
		copied.Judging = &details
	}
	return &copied, nil
}

func (m *mockContestSlotRepo) ListContestsByIDs(_ context.Context, ids []string) ([]models.TimeSlot, error) {
	var out []models.TimeSlot
	for _, id := range ids {
		if s, ok := m.slots[id]; ok && s.IsContest() {
			out = append(out, *s)
		}
	}
	return out, nil
}

type mockContestPartRepo struct {
	participations map[string]*models.Participation
	assignments    map[string]*models.JudgeAssignment
	nextEntry      map[string]int
}

func newMockContestPartRepo() *mockContestPartRepo {
	return &mockContestPartRepo{
		participations: map[string]*models.Participation{},
		assignments:    map[string]*models.JudgeAssignment{},
		nextEntry:      map[string]int{},
	}
}

func (m *mockContestPartRepo) Create(_ context.Context, p *models.Participation) error {
	for _, existing := range m.participations {
		if existing.UserID == p.UserID && existing.TimeSlotID == p.TimeSlotID {
			return duplicateKeyErr()
		}
	}
	p.ID = uuid.NewString()
	m.nextEntry[p.TimeSlotID]++
	p.EntryNumber = m.nextEntry[p.TimeSlotID]
	p.RegisteredAt = time.Now().UTC()
	copied := *p
	m.participations[p.ID] = &copied
	return nil
}

func (m *mockContestPartRepo) FindByID(_ context.Context, id string) (*models.Participation, error) {
	p, ok := m.participations[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return p, nil
}

func (m *mockContestPartRepo) ListBySlot(_ context.Context, slotID string) ([]models.Participation, error) {
	var out []models.Participation
	for _, p := range m.participations {
		if p.TimeSlotID == slotID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *mockContestPartRepo) Delete(_ context.Context, id string) error {
	delete(m.participations, id)
	return nil
}

func (m *mockContestPartRepo) AssignJudge(_ context.Context, a *models.JudgeAssignment) error {
	key := a.JudgeID + "|" + a.TimeSlotID
	if _, ok := m.assignments[key]; ok {
		return duplicateKeyErr()
	}
	a.ID = uuid.NewString()
	copied := *a
	m.assignments[key] = &copied
	return nil
}

func (m *mockContestPartRepo) UnassignJudge(_ context.Context, judgeID, slotID string) error {
	delete(m.assignments, judgeID+"|"+slotID)
	return nil
}

func (m *mockContestPartRepo) ListJudgesBySlot(_ context.Context, slotID string) ([]models.JudgeAssignment, error) {
	var out []models.JudgeAssignment
	for _, a := range m.assignments {
		if a.TimeSlotID == slotID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (m *mockContestPartRepo) ListSlotIDsByJudge(_ context.Context, judgeID string) ([]string, error) {
	var out []string
	for _, a := range m.assignments {
		if a.JudgeID == judgeID {
			out = append(out, a.TimeSlotID)
		}
	}
	return out, nil
}

type mockContestUserRepo struct {
	users map[string]*models.User
}

func (m *mockContestUserRepo) FindByID(_ context.Context, id string) (*models.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return u, nil
}

type mockContestScoreRepo struct {
	byJudgeAndSlot map[string][]models.Score
}

func (m *mockContestScoreRepo) ListByJudgeForContest(_ context.Context, judgeID, slotID string) ([]models.Score, error) {
	return m.byJudgeAndSlot[judgeID+"|"+slotID], nil
}

type recordingEvaluator struct {
	calls []string
}

func (r *recordingEvaluator) EvaluateContestStatus(_ context.Context, slotID string) (*models.TimeSlot, error) {
	r.calls = append(r.calls, slotID)
	return nil, nil
}

func duplicateKeyErr() error {
	return &pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"}
}

type contestFixture struct {
	svc       *ContestService
	slots     *mockContestSlotRepo
	parts     *mockContestPartRepo
	users     *mockContestUserRepo
	scores    *mockContestScoreRepo
	evaluator *recordingEvaluator
	slotID    string
	proID     string
	juniorID  string
	judgeID   string
}

func newContestFixture(participantType models.ParticipantType) *contestFixture {
	slotID := uuid.NewString()
	templateID := uuid.NewString()
	proCategory := models.CategoryPro
	juniorCategory := models.CategoryJunior

	f := &contestFixture{
		slotID:   slotID,
		proID:    uuid.NewString(),
		juniorID: uuid.NewString(),
		judgeID:  uuid.NewString(),
	}
	f.slots = &mockContestSlotRepo{slots: map[string]*models.TimeSlot{
		slotID: {
			ID:    slotID,
			DayID: uuid.NewString(),
			Type:  models.SlotJudging,
			Judging: &models.JudgingDetails{
				NominationTemplateID: templateID,
				Category:             models.CategoryFresh,
				Status:               models.StatusPending,
			},
		},
	}}
	f.parts = newMockContestPartRepo()
	f.users = &mockContestUserRepo{users: map[string]*models.User{
		f.proID:    {ID: f.proID, Role: models.RoleParticipant, ExperienceCategory: &proCategory},
		f.juniorID: {ID: f.juniorID, Role: models.RoleParticipant, ExperienceCategory: &juniorCategory},
		f.judgeID:  {ID: f.judgeID, Role: models.RoleJudge},
	}}
	templates := &mockScheduleTemplateRepo{templates: map[string]*models.NominationTemplate{
		templateID: {
			ID:              templateID,
			Name:            "Best Color",
			ParticipantType: participantType,
			Criteria:        []models.Criterion{{ID: uuid.NewString(), Name: "Technique", MaxScore: 10}},
		},
	}}
	f.scores = &mockContestScoreRepo{byJudgeAndSlot: map[string][]models.Score{}}
	f.evaluator = &recordingEvaluator{}
	f.svc = NewContestService(f.slots, f.parts, f.users, templates, f.scores, nil, nil)
	f.svc.SetStatusEvaluator(f.evaluator)
	return f
}

func TestRegisterParticipantAssignsEntryNumbers(t *testing.T) {
	f := newContestFixture(models.ParticipantTypeBoth)

	first, err := f.svc.RegisterParticipant(context.Background(), f.slotID, models.RegisterParticipantRequest{UserID: f.proID})
	require.NoError(t, err)
	second, err := f.svc.RegisterParticipant(context.Background(), f.slotID, models.RegisterParticipantRequest{UserID: f.juniorID})
	require.NoError(t, err)

	assert.Equal(t, 1, first.EntryNumber)
	assert.Equal(t, 2, second.EntryNumber)
	assert.Len(t, f.evaluator.calls, 2)
}

func TestRegisterParticipantDivisionNotAdmitted(t *testing.T) {
	f := newContestFixture(models.ParticipantTypePro)

	_, err := f.svc.RegisterParticipant(context.Background(), f.slotID, models.RegisterParticipantRequest{UserID: f.juniorID})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not admitted")
}

func TestRegisterParticipantRejectsJudge(t *testing.T) {
	f := newContestFixture(models.ParticipantTypeBoth)

	_, err := f.svc.RegisterParticipant(context.Background(), f.slotID, models.RegisterParticipantRequest{UserID: f.judgeID})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "only participants")
}

func TestRegisterParticipantDuplicate(t *testing.T) {
	f := newContestFixture(models.ParticipantTypeBoth)

	_, err := f.svc.RegisterParticipant(context.Background(), f.slotID, models.RegisterParticipantRequest{UserID: f.proID})
	require.NoError(t, err)
	_, err = f.svc.RegisterParticipant(context.Background(), f.slotID, models.RegisterParticipantRequest{UserID: f.proID})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
}

func TestRegisterParticipantClosedContest(t *testing.T) {
	f := newContestFixture(models.ParticipantTypeBoth)
	f.slots.slots[f.slotID].Judging.Status = models.StatusCompleted

	_, err := f.svc.RegisterParticipant(context.Background(), f.slotID, models.RegisterParticipantRequest{UserID: f.proID})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "closed")
}

func TestRegisterParticipantNonContestSlot(t *testing.T) {
	f := newContestFixture(models.ParticipantTypeBoth)
	eventID := uuid.NewString()
	f.slots.slots[eventID] = &models.TimeSlot{
		ID:    eventID,
		Type:  models.SlotEvent,
		Event: &models.EventDetails{Title: "Afterparty"},
	}

	_, err := f.svc.RegisterParticipant(context.Background(), eventID, models.RegisterParticipantRequest{UserID: f.proID})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a judging slot")
}

func TestRemoveParticipantWrongContest(t *testing.T) {
	f := newContestFixture(models.ParticipantTypeBoth)

	p, err := f.svc.RegisterParticipant(context.Background(), f.slotID, models.RegisterParticipantRequest{UserID: f.proID})
	require.NoError(t, err)

	otherID := uuid.NewString()
	f.slots.slots[otherID] = &models.TimeSlot{
		ID:      otherID,
		Type:    models.SlotJudging,
		Judging: &models.JudgingDetails{Status: models.StatusPending},
	}

	err = f.svc.RemoveParticipant(context.Background(), otherID, p.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "another contest")
}

func TestAssignJudgePanel(t *testing.T) {
	f := newContestFixture(models.ParticipantTypeBoth)

	assignment, err := f.svc.AssignJudge(context.Background(), f.slotID, models.AssignJudgeRequest{JudgeID: f.judgeID})
	require.NoError(t, err)
	assert.Equal(t, f.judgeID, assignment.JudgeID)

	judges, err := f.svc.Judges(context.Background(), f.slotID)
	require.NoError(t, err)
	assert.Len(t, judges, 1)
}

func TestAssignJudgeRejectsParticipant(t *testing.T) {
	f := newContestFixture(models.ParticipantTypeBoth)

	_, err := f.svc.AssignJudge(context.Background(), f.slotID, models.AssignJudgeRequest{JudgeID: f.proID})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "only judges")
}

func TestAssignJudgeDuplicate(t *testing.T) {
	f := newContestFixture(models.ParticipantTypeBoth)

	_, err := f.svc.AssignJudge(context.Background(), f.slotID, models.AssignJudgeRequest{JudgeID: f.judgeID})
	require.NoError(t, err)
	_, err = f.svc.AssignJudge(context.Background(), f.slotID, models.AssignJudgeRequest{JudgeID: f.judgeID})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already assigned")
}

func TestUnassignJudgeTriggersReevaluation(t *testing.T) {
	f := newContestFixture(models.ParticipantTypeBoth)

	_, err := f.svc.AssignJudge(context.Background(), f.slotID, models.AssignJudgeRequest{JudgeID: f.judgeID})
	require.NoError(t, err)
	before := len(f.evaluator.calls)

	require.NoError(t, f.svc.UnassignJudge(context.Background(), f.slotID, f.judgeID))
	assert.Len(t, f.evaluator.calls, before+1)
}

func TestWorkloadSplitsPendingAndJudged(t *testing.T) {
	f := newContestFixture(models.ParticipantTypeBoth)

	_, err := f.svc.AssignJudge(context.Background(), f.slotID, models.AssignJudgeRequest{JudgeID: f.judgeID})
	require.NoError(t, err)
	p, err := f.svc.RegisterParticipant(context.Background(), f.slotID, models.RegisterParticipantRequest{UserID: f.proID})
	require.NoError(t, err)

	workload, err := f.svc.Workload(context.Background(), f.judgeID)
	require.NoError(t, err)
	require.Len(t, workload.Pending, 1)
	assert.Empty(t, workload.Judged)

	// one participant and one criterion, so a single score finishes the sheet
	f.scores.byJudgeAndSlot[f.judgeID+"|"+f.slotID] = []models.Score{
		{JudgeID: f.judgeID, ParticipationID: p.ID, Value: 9},
	}

	workload, err = f.svc.Workload(context.Background(), f.judgeID)
	require.NoError(t, err)
	require.Len(t, workload.Judged, 1)
	assert.Empty(t, workload.Pending)
}
