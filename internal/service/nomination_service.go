package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/inkfest/inkfest-api/internal/models"
	"github.com/inkfest/inkfest-api/pkg/database"
	appErrors "github.com/inkfest/inkfest-api/pkg/errors"
)

type nominationRepository interface {
	CreateTemplate(ctx context.Context, template *models.NominationTemplate, criterionIDs []string) error
	UpdateTemplate(ctx context.Context, template *models.NominationTemplate, criterionIDs []string) error
	FindTemplate(ctx context.Context, id string) (*models.NominationTemplate, error)
	ListTemplates(ctx context.Context) ([]models.NominationTemplate, error)
	DeleteTemplate(ctx context.Context, id string) error
	CreateCriterion(ctx context.Context, criterion *models.Criterion) error
	UpdateCriterion(ctx context.Context, criterion *models.Criterion) error
	FindCriterion(ctx context.Context, id string) (*models.Criterion, error)
	ListCriteria(ctx context.Context) ([]models.Criterion, error)
	CriterionHasScores(ctx context.Context, id string) (bool, error)
	CriterionInTemplates(ctx context.Context, id string) (bool, error)
	DeleteCriterion(ctx context.Context, id string) error
}

// NominationService manages contest templates and judging criteria.
type NominationService struct {
	repo      nominationRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewNominationService constructs a NominationService instance.
func NewNominationService(repo nominationRepository, validate *validator.Validate, logger *zap.Logger) *NominationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &NominationService{repo: repo, validator: validate, logger: logger}
}

// CreateTemplate stores a template linked to its criteria.
func (s *NominationService) CreateTemplate(ctx context.Context, req models.CreateTemplateRequest) (*models.NominationTemplate, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid template payload")
	}
	if err := s.checkCriteria(ctx, req.CriterionIDs); err != nil {
		return nil, err
	}

	template := &models.NominationTemplate{
		Name:            req.Name,
		Description:     req.Description,
		ParticipantType: req.ParticipantType,
	}
	if err := s.repo.CreateTemplate(ctx, template, req.CriterionIDs); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "a template with this name already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create template")
	}
	return s.GetTemplate(ctx, template.ID)
}

// GetTemplate returns a template with its criteria.
func (s *NominationService) GetTemplate(ctx context.Context, id string) (*models.NominationTemplate, error) {
	template, err := s.repo.FindTemplate(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "template not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load template")
	}
	return template, nil
}

// ListTemplates returns all templates with criteria.
func (s *NominationService) ListTemplates(ctx context.Context) ([]models.NominationTemplate, error) {
	templates, err := s.repo.ListTemplates(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list templates")
	}
	return templates, nil
}

// UpdateTemplate edits a template. An empty criterion list keeps the
// current one.
func (s *NominationService) UpdateTemplate(ctx context.Context, id string, req models.UpdateTemplateRequest) (*models.NominationTemplate, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid template payload")
	}

	template, err := s.GetTemplate(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		template.Name = *req.Name
	}
	if req.Description != nil {
		template.Description = req.Description
	}
	if req.ParticipantType != nil {
		template.ParticipantType = *req.ParticipantType
	}

	criterionIDs := req.CriterionIDs
	if len(criterionIDs) == 0 {
		criterionIDs = make([]string, len(template.Criteria))
		for i, criterion := range template.Criteria {
			criterionIDs[i] = criterion.ID
		}
	} else if err := s.checkCriteria(ctx, criterionIDs); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateTemplate(ctx, template, criterionIDs); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "a template with this name already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update template")
	}
	return s.GetTemplate(ctx, id)
}

// DeleteTemplate removes a template unless a slot still uses it.
func (s *NominationService) DeleteTemplate(ctx context.Context, id string) error {
	if _, err := s.GetTemplate(ctx, id); err != nil {
		return err
	}
	if err := s.repo.DeleteTemplate(ctx, id); err != nil {
		if database.IsForeignKeyViolation(err) {
			return appErrors.Clone(appErrors.ErrInUse, "template is still scheduled")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete template")
	}
	return nil
}

// CreateCriterion stores a judged dimension.
func (s *NominationService) CreateCriterion(ctx context.Context, req models.CreateCriterionRequest) (*models.Criterion, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid criterion payload")
	}
	maxScore := req.MaxScore
	if maxScore == 0 {
		maxScore = 10
	}
	criterion := &models.Criterion{
		Name:      req.Name,
		MaxScore:  maxScore,
		SortOrder: req.SortOrder,
	}
	if err := s.repo.CreateCriterion(ctx, criterion); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "a criterion with this name already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create criterion")
	}
	return criterion, nil
}

// ListCriteria returns all criteria in sort order.
func (s *NominationService) ListCriteria(ctx context.Context) ([]models.Criterion, error) {
	criteria, err := s.repo.ListCriteria(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list criteria")
	}
	return criteria, nil
}

// UpdateCriterion edits a criterion.
func (s *NominationService) UpdateCriterion(ctx context.Context, id string, req models.UpdateCriterionRequest) (*models.Criterion, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid criterion payload")
	}

	criterion, err := s.repo.FindCriterion(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "criterion not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load criterion")
	}

	if req.Name != nil {
		criterion.Name = *req.Name
	}
	if req.MaxScore != nil {
		criterion.MaxScore = *req.MaxScore
	}
	if req.SortOrder != nil {
		criterion.SortOrder = *req.SortOrder
	}

	if err := s.repo.UpdateCriterion(ctx, criterion); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "a criterion with this name already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update criterion")
	}
	return criterion, nil
}

// DeleteCriterion removes a criterion unless scores reference it.
func (s *NominationService) DeleteCriterion(ctx context.Context, id string) error {
	if _, err := s.repo.FindCriterion(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "criterion not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load criterion")
	}
	used, err := s.repo.CriterionHasScores(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check criterion usage")
	}
	if used {
		return appErrors.Clone(appErrors.ErrInUse, "criterion already has recorded scores")
	}
	linked, err := s.repo.CriterionInTemplates(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check criterion usage")
	}
	if linked {
		return appErrors.Clone(appErrors.ErrInUse, "criterion is linked to nomination templates")
	}
	if err := s.repo.DeleteCriterion(ctx, id); err != nil {
		if database.IsForeignKeyViolation(err) {
			return appErrors.Clone(appErrors.ErrInUse, "criterion already has recorded scores")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete criterion")
	}
	return nil
}

func (s *NominationService) checkCriteria(ctx context.Context, ids []string) error {
	for _, id := range ids {
		if _, err := s.repo.FindCriterion(ctx, id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrNotFound, "criterion not found")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load criterion")
		}
	}
	return nil
}
