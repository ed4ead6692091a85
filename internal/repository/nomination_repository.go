package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/inkfest/inkfest-api/internal/models"
)

// NominationRepository handles nomination templates and judging criteria.
type NominationRepository struct {
	db *sqlx.DB
}

// NewNominationRepository creates a new nomination repository.
func NewNominationRepository(db *sqlx.DB) *NominationRepository {
	return &NominationRepository{db: db}
}

// CreateTemplate inserts a template and links its criteria in one transaction.
func (r *NominationRepository) CreateTemplate(ctx context.Context, template *models.NominationTemplate, criterionIDs []string) error {
	if template.ID == "" {
		template.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if template.CreatedAt.IsZero() {
		template.CreatedAt = now
	}
	template.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	const insertTemplate = `INSERT INTO nomination_templates (id, name, description, participant_type, created_at, updated_at)
        VALUES (:id, :name, :description, :participant_type, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, insertTemplate, template); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("create template: %w", err)
	}
	if err := linkCriteria(ctx, tx, template.ID, criterionIDs); err != nil {
		tx.Rollback() //nolint:errcheck
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit template: %w", err)
	}
	return nil
}

// UpdateTemplate updates template fields and replaces its criteria links.
func (r *NominationRepository) UpdateTemplate(ctx context.Context, template *models.NominationTemplate, criterionIDs []string) error {
	template.UpdatedAt = time.Now().UTC()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	const updateTemplate = `UPDATE nomination_templates SET name = :name, description = :description, participant_type = :participant_type, updated_at = :updated_at WHERE id = :id`
	if _, err := tx.NamedExecContext(ctx, updateTemplate, template); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("update template: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM nomination_template_criteria WHERE nomination_template_id = $1`, template.ID); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("clear template criteria: %w", err)
	}
	if err := linkCriteria(ctx, tx, template.ID, criterionIDs); err != nil {
		tx.Rollback() //nolint:errcheck
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit template update: %w", err)
	}
	return nil
}

func linkCriteria(ctx context.Context, tx *sqlx.Tx, templateID string, criterionIDs []string) error {
	const query = `INSERT INTO nomination_template_criteria (nomination_template_id, criterion_id) VALUES ($1, $2)`
	for _, criterionID := range criterionIDs {
		if _, err := tx.ExecContext(ctx, query, templateID, criterionID); err != nil {
			return fmt.Errorf("link criterion: %w", err)
		}
	}
	return nil
}

// FindTemplate returns a template with its criteria ordered by sort order.
func (r *NominationRepository) FindTemplate(ctx context.Context, id string) (*models.NominationTemplate, error) {
	const query = `SELECT id, name, description, participant_type, created_at, updated_at FROM nomination_templates WHERE id = $1 LIMIT 1`
	var template models.NominationTemplate
	if err := r.db.GetContext(ctx, &template, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find template: %w", err)
	}
	criteria, err := r.CriteriaForTemplate(ctx, id)
	if err != nil {
		return nil, err
	}
	template.Criteria = criteria
	return &template, nil
}

// ListTemplates returns all templates with their criteria.
func (r *NominationRepository) ListTemplates(ctx context.Context) ([]models.NominationTemplate, error) {
	const query = `SELECT id, name, description, participant_type, created_at, updated_at FROM nomination_templates ORDER BY name`
	var templates []models.NominationTemplate
	if err := r.db.SelectContext(ctx, &templates, query); err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	if len(templates) == 0 {
		return templates, nil
	}

	placeholders := make([]string, len(templates))
	args := make([]interface{}, len(templates))
	for i := range templates {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = templates[i].ID
	}
	linkQuery := fmt.Sprintf(`SELECT tc.nomination_template_id, c.id, c.name, c.max_score, c.sort_order, c.created_at
        FROM nomination_template_criteria tc
        JOIN criteria c ON c.id = tc.criterion_id
        WHERE tc.nomination_template_id IN (%s)
        ORDER BY c.sort_order, c.name`, strings.Join(placeholders, ","))
	rows, err := r.db.QueryxContext(ctx, linkQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("list template criteria: %w", err)
	}
	defer rows.Close()
	byTemplate := make(map[string][]models.Criterion, len(templates))
	for rows.Next() {
		var templateID string
		var criterion models.Criterion
		if err := rows.Scan(&templateID, &criterion.ID, &criterion.Name, &criterion.MaxScore, &criterion.SortOrder, &criterion.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan template criterion: %w", err)
		}
		byTemplate[templateID] = append(byTemplate[templateID], criterion)
	}
	for i := range templates {
		templates[i].Criteria = byTemplate[templates[i].ID]
	}
	return templates, nil
}

// DeleteTemplate removes a template. The database rejects the delete while
// any schedule slot still references it.
func (r *NominationRepository) DeleteTemplate(ctx context.Context, id string) error {
	const query = `DELETE FROM nomination_templates WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	return nil
}

// CriteriaForTemplate returns the criteria linked to a template ordered by
// sort order.
func (r *NominationRepository) CriteriaForTemplate(ctx context.Context, templateID string) ([]models.Criterion, error) {
	const query = `SELECT c.id, c.name, c.max_score, c.sort_order, c.created_at
        FROM nomination_template_criteria tc
        JOIN criteria c ON c.id = tc.criterion_id
        WHERE tc.nomination_template_id = $1
        ORDER BY c.sort_order, c.name`
	var criteria []models.Criterion
	if err := r.db.SelectContext(ctx, &criteria, query, templateID); err != nil {
		return nil, fmt.Errorf("criteria for template: %w", err)
	}
	return criteria, nil
}

// CreateCriterion inserts a judging criterion.
func (r *NominationRepository) CreateCriterion(ctx context.Context, criterion *models.Criterion) error {
	if criterion.ID == "" {
		criterion.ID = uuid.NewString()
	}
	if criterion.CreatedAt.IsZero() {
		criterion.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO criteria (id, name, max_score, sort_order, created_at) VALUES (:id, :name, :max_score, :sort_order, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, criterion); err != nil {
		return fmt.Errorf("create criterion: %w", err)
	}
	return nil
}

// UpdateCriterion updates a criterion's mutable fields.
func (r *NominationRepository) UpdateCriterion(ctx context.Context, criterion *models.Criterion) error {
	const query = `UPDATE criteria SET name = :name, max_score = :max_score, sort_order = :sort_order WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, criterion); err != nil {
		return fmt.Errorf("update criterion: %w", err)
	}
	return nil
}

// FindCriterion returns a criterion by identifier.
func (r *NominationRepository) FindCriterion(ctx context.Context, id string) (*models.Criterion, error) {
	const query = `SELECT id, name, max_score, sort_order, created_at FROM criteria WHERE id = $1 LIMIT 1`
	var criterion models.Criterion
	if err := r.db.GetContext(ctx, &criterion, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find criterion: %w", err)
	}
	return &criterion, nil
}

// ListCriteria returns all criteria ordered by sort order.
func (r *NominationRepository) ListCriteria(ctx context.Context) ([]models.Criterion, error) {
	const query = `SELECT id, name, max_score, sort_order, created_at FROM criteria ORDER BY sort_order, name`
	var criteria []models.Criterion
	if err := r.db.SelectContext(ctx, &criteria, query); err != nil {
		return nil, fmt.Errorf("list criteria: %w", err)
	}
	return criteria, nil
}

// CriterionHasScores reports whether any score references the criterion.
func (r *NominationRepository) CriterionHasScores(ctx context.Context, id string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM scores WHERE criterion_id = $1)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, id); err != nil {
		return false, fmt.Errorf("check criterion scores: %w", err)
	}
	return exists, nil
}

// CriterionInTemplates reports whether any nomination template links the
// criterion.
func (r *NominationRepository) CriterionInTemplates(ctx context.Context, id string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM nomination_template_criteria WHERE criterion_id = $1)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, id); err != nil {
		return false, fmt.Errorf("check criterion templates: %w", err)
	}
	return exists, nil
}

// DeleteCriterion removes a criterion. The database rejects the delete while
// scores reference it.
func (r *NominationRepository) DeleteCriterion(ctx context.Context, id string) error {
	const query = `DELETE FROM criteria WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete criterion: %w", err)
	}
	return nil
}
