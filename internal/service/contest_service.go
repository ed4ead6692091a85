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

type contestSlotRepository interface {
	FindByID(ctx context.Context, id string) (*models.TimeSlot, error)
	ListContestsByIDs(ctx context.Context, ids []string) ([]models.TimeSlot, error)
}

type contestParticipationRepository interface {
	Create(ctx context.Context, participation *models.Participation) error
	FindByID(ctx context.Context, id string) (*models.Participation, error)
	ListBySlot(ctx context.Context, slotID string) ([]models.Participation, error)
	Delete(ctx context.Context, id string) error
	AssignJudge(ctx context.Context, assignment *models.JudgeAssignment) error
	UnassignJudge(ctx context.Context, judgeID, slotID string) error
	ListJudgesBySlot(ctx context.Context, slotID string) ([]models.JudgeAssignment, error)
	ListSlotIDsByJudge(ctx context.Context, judgeID string) ([]string, error)
}

type contestUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type contestTemplateRepository interface {
	FindTemplate(ctx context.Context, id string) (*models.NominationTemplate, error)
}

type contestScoreRepository interface {
	ListByJudgeForContest(ctx context.Context, judgeID, slotID string) ([]models.Score, error)
}

// statusEvaluator re-derives a contest's status after membership changes.
type statusEvaluator interface {
	EvaluateContestStatus(ctx context.Context, slotID string) (*models.TimeSlot, error)
}

// ContestService manages contest membership: participant entries and judge
// panels.
type ContestService struct {
	slots          contestSlotRepository
	participations contestParticipationRepository
	users          contestUserRepository
	templates      contestTemplateRepository
	scores         contestScoreRepository
	status         statusEvaluator
	validator      *validator.Validate
	logger         *zap.Logger
}

// NewContestService constructs a ContestService instance.
func NewContestService(slots contestSlotRepository, participations contestParticipationRepository, users contestUserRepository, templates contestTemplateRepository, scores contestScoreRepository, validate *validator.Validate, logger *zap.Logger) *ContestService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ContestService{
		slots:          slots,
		participations: participations,
		users:          users,
		templates:      templates,
		scores:         scores,
		validator:      validate,
		logger:         logger,
	}
}

// SetStatusEvaluator wires the scoring engine so membership changes
// re-evaluate contest status. Optional; nil disables re-evaluation.
func (s *ContestService) SetStatusEvaluator(evaluator statusEvaluator) {
	s.status = evaluator
}

// RegisterParticipant enters a participant into a contest. The template's
// participant type must admit the participant's experience category; repeat
// entries get the next entry number.
func (s *ContestService) RegisterParticipant(ctx context.Context, slotID string, req models.RegisterParticipantRequest) (*models.Participation, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration payload")
	}

	slot, err := s.contest(ctx, slotID)
	if err != nil {
		return nil, err
	}
	if slot.Judging.Status == models.StatusCompleted || slot.Judging.Status == models.StatusAwarded {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "contest is already closed")
	}

	user, err := s.users.FindByID(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	if user.Role != models.RoleParticipant || user.ExperienceCategory == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "only participants can enter contests")
	}

	template, err := s.templates.FindTemplate(ctx, slot.Judging.NominationTemplateID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "nomination template not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load template")
	}
	if !template.ParticipantType.Allows(*user.ExperienceCategory) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "participant's division is not admitted to this contest")
	}

	participation := &models.Participation{UserID: user.ID, TimeSlotID: slot.ID}
	if err := s.participations.Create(ctx, participation); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "participant is already registered with this entry")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to register participant")
	}
	participation.User = user

	s.reevaluate(ctx, slot.ID)
	s.logger.Info("participant registered",
		zap.String("slot_id", slot.ID),
		zap.String("user_id", user.ID),
		zap.Int("entry_number", participation.EntryNumber))
	return participation, nil
}

// RemoveParticipant withdraws an entry. Its scores cascade away.
func (s *ContestService) RemoveParticipant(ctx context.Context, slotID, participationID string) error {
	if _, err := s.contest(ctx, slotID); err != nil {
		return err
	}
	participation, err := s.participations.FindByID(ctx, participationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "participation not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load participation")
	}
	if participation.TimeSlotID != slotID {
		return appErrors.Clone(appErrors.ErrValidation, "participation belongs to another contest")
	}
	if err := s.participations.Delete(ctx, participationID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove participant")
	}
	s.reevaluate(ctx, slotID)
	return nil
}

// Participants returns the entries of a contest ordered by entry number.
func (s *ContestService) Participants(ctx context.Context, slotID string) ([]models.Participation, error) {
	if _, err := s.contest(ctx, slotID); err != nil {
		return nil, err
	}
	participations, err := s.participations.ListBySlot(ctx, slotID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list participants")
	}
	return participations, nil
}

// AssignJudge places a judge on a contest panel.
func (s *ContestService) AssignJudge(ctx context.Context, slotID string, req models.AssignJudgeRequest) (*models.JudgeAssignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}

	slot, err := s.contest(ctx, slotID)
	if err != nil {
		return nil, err
	}
	if slot.Judging.Status == models.StatusCompleted || slot.Judging.Status == models.StatusAwarded {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "contest is already closed")
	}

	judge, err := s.users.FindByID(ctx, req.JudgeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "judge not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load judge")
	}
	if judge.Role != models.RoleJudge {
		return nil, appErrors.Clone(appErrors.ErrValidation, "only judges can be assigned to contests")
	}

	assignment := &models.JudgeAssignment{JudgeID: judge.ID, TimeSlotID: slot.ID}
	if err := s.participations.AssignJudge(ctx, assignment); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "judge is already assigned to this contest")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assign judge")
	}
	assignment.Judge = judge

	s.reevaluate(ctx, slot.ID)
	s.logger.Info("judge assigned", zap.String("slot_id", slot.ID), zap.String("judge_id", judge.ID))
	return assignment, nil
}

// UnassignJudge removes a judge from a contest panel.
func (s *ContestService) UnassignJudge(ctx context.Context, slotID, judgeID string) error {
	if _, err := s.contest(ctx, slotID); err != nil {
		return err
	}
	if err := s.participations.UnassignJudge(ctx, judgeID, slotID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to unassign judge")
	}
	s.reevaluate(ctx, slotID)
	return nil
}

// Judges returns the judge panel of a contest.
func (s *ContestService) Judges(ctx context.Context, slotID string) ([]models.JudgeAssignment, error) {
	if _, err := s.contest(ctx, slotID); err != nil {
		return nil, err
	}
	judges, err := s.participations.ListJudgesBySlot(ctx, slotID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list judges")
	}
	return judges, nil
}

// Workload splits a judge's assigned contests into those still waiting for
// any of the judge's own scores and those fully scored by the judge.
func (s *ContestService) Workload(ctx context.Context, judgeID string) (*models.JudgeWorkload, error) {
	slotIDs, err := s.participations.ListSlotIDsByJudge(ctx, judgeID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}
	contests, err := s.slots.ListContestsByIDs(ctx, slotIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load contests")
	}

	workload := &models.JudgeWorkload{}
	for _, contest := range contests {
		entries, err := s.participations.ListBySlot(ctx, contest.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list participants")
		}
		var criteria []models.Criterion
		if contest.Judging != nil {
			template, err := s.templates.FindTemplate(ctx, contest.Judging.NominationTemplateID)
			if err != nil && !errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load template")
			}
			if template != nil {
				criteria = template.Criteria
			}
		}
		scores, err := s.scores.ListByJudgeForContest(ctx, judgeID, contest.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list scores")
		}

		expected := len(entries) * len(criteria)
		if expected > 0 && len(scores) >= expected {
			workload.Judged = append(workload.Judged, contest)
		} else {
			workload.Pending = append(workload.Pending, contest)
		}
	}
	return workload, nil
}

// contest loads a slot and ensures it is a judging slot.
func (s *ContestService) contest(ctx context.Context, slotID string) (*models.TimeSlot, error) {
	slot, err := s.slots.FindByID(ctx, slotID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "contest not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load contest")
	}
	if !slot.IsContest() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "slot is not a judging slot")
	}
	return slot, nil
}

func (s *ContestService) reevaluate(ctx context.Context, slotID string) {
	if s.status == nil {
		return
	}
	if _, err := s.status.EvaluateContestStatus(ctx, slotID); err != nil {
		s.logger.Warn("contest status re-evaluation failed", zap.String("slot_id", slotID), zap.Error(err))
	}
}
