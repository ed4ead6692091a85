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

type mockNominationRepo struct {
	templates       map[string]*models.NominationTemplate
	criteria        map[string]*models.Criterion
	links           map[string][]string
	scoredCriterion string
}

func newMockNominationRepo() *mockNominationRepo {
	return &mockNominationRepo{
		templates: map[string]*models.NominationTemplate{},
		criteria:  map[string]*models.Criterion{},
		links:     map[string][]string{},
	}
}

func (m *mockNominationRepo) CreateTemplate(_ context.Context, template *models.NominationTemplate, criterionIDs []string) error {
	template.ID = uuid.NewString()
	copied := *template
	m.templates[template.ID] = &copied
	m.links[template.ID] = append([]string(nil), criterionIDs...)
	return nil
}

func (m *mockNominationRepo) UpdateTemplate(_ context.Context, template *models.NominationTemplate, criterionIDs []string) error {
	copied := *template
	m.templates[template.ID] = &copied
	m.links[template.ID] = append([]string(nil), criterionIDs...)
	return nil
}

func (m *mockNominationRepo) FindTemplate(_ context.Context, id string) (*models.NominationTemplate, error) {
	tpl, ok := m.templates[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *tpl
	copied.Criteria = nil
	for _, cid := range m.links[id] {
		if c, ok := m.criteria[cid]; ok {
			copied.Criteria = append(copied.Criteria, *c)
		}
	}
	return &copied, nil
}

func (m *mockNominationRepo) ListTemplates(_ context.Context) ([]models.NominationTemplate, error) {
	var out []models.NominationTemplate
	for id := range m.templates {
		tpl, _ := m.FindTemplate(context.Background(), id)
		out = append(out, *tpl)
	}
	return out, nil
}

func (m *mockNominationRepo) DeleteTemplate(_ context.Context, id string) error {
	delete(m.templates, id)
	delete(m.links, id)
	return nil
}

func (m *mockNominationRepo) CreateCriterion(_ context.Context, criterion *models.Criterion) error {
	criterion.ID = uuid.NewString()
	copied := *criterion
	m.criteria[criterion.ID] = &copied
	return nil
}

func (m *mockNominationRepo) UpdateCriterion(_ context.Context, criterion *models.Criterion) error {
	copied := *criterion
	m.criteria[criterion.ID] = &copied
	return nil
}

func (m *mockNominationRepo) FindCriterion(_ context.Context, id string) (*models.Criterion, error) {
	c, ok := m.criteria[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *c
	return &copied, nil
}

func (m *mockNominationRepo) ListCriteria(_ context.Context) ([]models.Criterion, error) {
	var out []models.Criterion
	for _, c := range m.criteria {
		out = append(out, *c)
	}
	return out, nil
}

func (m *mockNominationRepo) CriterionHasScores(_ context.Context, id string) (bool, error) {
	return id == m.scoredCriterion, nil
}

func (m *mockNominationRepo) CriterionInTemplates(_ context.Context, id string) (bool, error) {
	for _, ids := range m.links {
		for _, cid := range ids {
			if cid == id {
				return true, nil
			}
		}
	}
	return false, nil
}

func (m *mockNominationRepo) DeleteCriterion(_ context.Context, id string) error {
	delete(m.criteria, id)
	return nil
}

func nominationFixture(t *testing.T) (*NominationService, *mockNominationRepo, string) {
	t.Helper()
	repo := newMockNominationRepo()
	svc := NewNominationService(repo, nil, nil)

	criterion, err := svc.CreateCriterion(context.Background(), models.CreateCriterionRequest{Name: "Technique", MaxScore: 10})
	require.NoError(t, err)
	return svc, repo, criterion.ID
}

func TestCreateTemplateLinksCriteria(t *testing.T) {
	svc, repo, criterionID := nominationFixture(t)

	template, err := svc.CreateTemplate(context.Background(), models.CreateTemplateRequest{
		Name:            "Best Color",
		ParticipantType: models.ParticipantTypeBoth,
		CriterionIDs:    []string{criterionID},
	})
	require.NoError(t, err)

	require.Len(t, template.Criteria, 1)
	assert.Equal(t, "Technique", template.Criteria[0].Name)
	assert.Equal(t, []string{criterionID}, repo.links[template.ID])
}

func TestCreateTemplateUnknownCriterion(t *testing.T) {
	svc, _, _ := nominationFixture(t)

	_, err := svc.CreateTemplate(context.Background(), models.CreateTemplateRequest{
		Name:            "Best Color",
		ParticipantType: models.ParticipantTypePro,
		CriterionIDs:    []string{uuid.NewString()},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "criterion not found")
}

func TestCreateTemplateRequiresCriteria(t *testing.T) {
	svc, _, _ := nominationFixture(t)

	_, err := svc.CreateTemplate(context.Background(), models.CreateTemplateRequest{
		Name:            "No Criteria",
		ParticipantType: models.ParticipantTypeBoth,
	})
	require.Error(t, err)
}

func TestUpdateTemplateKeepsCriteriaWhenOmitted(t *testing.T) {
	svc, repo, criterionID := nominationFixture(t)

	template, err := svc.CreateTemplate(context.Background(), models.CreateTemplateRequest{
		Name:            "Best Color",
		ParticipantType: models.ParticipantTypeBoth,
		CriterionIDs:    []string{criterionID},
	})
	require.NoError(t, err)

	newName := "Best Color Revised"
	updated, err := svc.UpdateTemplate(context.Background(), template.ID, models.UpdateTemplateRequest{Name: &newName})
	require.NoError(t, err)

	assert.Equal(t, newName, updated.Name)
	assert.Equal(t, []string{criterionID}, repo.links[template.ID])
}

func TestUpdateTemplateReplacesCriteria(t *testing.T) {
	svc, repo, criterionID := nominationFixture(t)

	second, err := svc.CreateCriterion(context.Background(), models.CreateCriterionRequest{Name: "Contrast", MaxScore: 10})
	require.NoError(t, err)

	template, err := svc.CreateTemplate(context.Background(), models.CreateTemplateRequest{
		Name:            "Best Black and Grey",
		ParticipantType: models.ParticipantTypeBoth,
		CriterionIDs:    []string{criterionID},
	})
	require.NoError(t, err)

	updated, err := svc.UpdateTemplate(context.Background(), template.ID, models.UpdateTemplateRequest{
		CriterionIDs: []string{second.ID},
	})
	require.NoError(t, err)

	require.Len(t, updated.Criteria, 1)
	assert.Equal(t, "Contrast", updated.Criteria[0].Name)
	assert.Equal(t, []string{second.ID}, repo.links[template.ID])
}

func TestCreateCriterionDefaultsMaxScore(t *testing.T) {
	svc, _, _ := nominationFixture(t)

	criterion, err := svc.CreateCriterion(context.Background(), models.CreateCriterionRequest{Name: "Placement"})
	require.NoError(t, err)
	assert.Equal(t, 10, criterion.MaxScore)
}

func TestDeleteCriterionWithScores(t *testing.T) {
	svc, repo, criterionID := nominationFixture(t)
	repo.scoredCriterion = criterionID

	err := svc.DeleteCriterion(context.Background(), criterionID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "recorded scores")
}

func TestDeleteCriterionLinkedToTemplate(t *testing.T) {
	svc, _, criterionID := nominationFixture(t)

	_, err := svc.CreateTemplate(context.Background(), models.CreateTemplateRequest{
		Name:            "Best Color",
		ParticipantType: models.ParticipantTypeBoth,
		CriterionIDs:    []string{criterionID},
	})
	require.NoError(t, err)

	err = svc.DeleteCriterion(context.Background(), criterionID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nomination templates")
}

func TestDeleteCriterionUnused(t *testing.T) {
	svc, repo, criterionID := nominationFixture(t)

	require.NoError(t, svc.DeleteCriterion(context.Background(), criterionID))
	assert.NotContains(t, repo.criteria, criterionID)
}
