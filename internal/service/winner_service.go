package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/inkfest/inkfest-api/internal/models"
	appErrors "github.com/inkfest/inkfest-api/pkg/errors"
)

type winnerRepository interface {
	ReplaceForContestCategory(ctx context.Context, slotID string, category models.ExperienceCategory, winners []models.Winner) error
	ListBySlot(ctx context.Context, slotID string) ([]models.Winner, error)
}

type winnerAggregator interface {
	ContestAggregates(ctx context.Context, slotID string) ([]models.ParticipationAggregate, error)
}

type winnerSlotRepository interface {
	FindByID(ctx context.Context, id string) (*models.TimeSlot, error)
	UpdateStatus(ctx context.Context, id string, status models.ContestStatus) error
}

// WinnerService resolves and persists contest winners per experience
// category.
type WinnerService struct {
	winners     winnerRepository
	slots       winnerSlotRepository
	aggregator  winnerAggregator
	invalidator resultsInvalidator
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewWinnerService constructs a WinnerService instance.
func NewWinnerService(winners winnerRepository, slots winnerSlotRepository, aggregator winnerAggregator, validate *validator.Validate, logger *zap.Logger) *WinnerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &WinnerService{winners: winners, slots: slots, aggregator: aggregator, validator: validate, logger: logger}
}

// SetResultsInvalidator wires cache invalidation for winner writes.
func (s *WinnerService) SetResultsInvalidator(invalidator resultsInvalidator) {
	s.invalidator = invalidator
}

// Assign resolves the winner of one category in a completed contest.
// A top score of zero clears any stored winner. When the top score is tied
// the operator must name the winning entry; re-assigning replaces the
// previous record.
func (s *WinnerService) Assign(ctx context.Context, slotID string, req models.AssignWinnerRequest) (*models.WinnerResolution, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid winner payload")
	}

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
	if slot.Judging.Status != models.StatusCompleted && slot.Judging.Status != models.StatusAwarded {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "contest has not finished judging")
	}

	aggregates, err := s.aggregator.ContestAggregates(ctx, slotID)
	if err != nil {
		return nil, err
	}
	group := make([]models.ParticipationAggregate, 0, len(aggregates))
	for _, aggregate := range aggregates {
		if aggregate.Category == req.Category {
			group = append(group, aggregate)
		}
	}
	if len(group) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no entries in this category")
	}

	resolution := &models.WinnerResolution{MaxScore: group[0].FinalScore}

	// a group that never scored has no winner; clear any stale record
	if resolution.MaxScore == 0 {
		if err := s.winners.ReplaceForContestCategory(ctx, slotID, req.Category, nil); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear winner")
		}
		resolution.Cleared = true
		s.invalidate(ctx, slotID)
		return resolution, nil
	}

	var topIDs []string
	for _, aggregate := range group {
		if aggregate.FinalScore == resolution.MaxScore {
			topIDs = append(topIDs, aggregate.ParticipationID)
		}
	}
	if len(topIDs) > 1 {
		resolution.TiedIDs = topIDs
	}

	winnerID := ""
	switch {
	case req.ParticipationID != nil:
		member := false
		for _, aggregate := range group {
			if aggregate.ParticipationID == *req.ParticipationID {
				member = true
				break
			}
		}
		if !member {
			return nil, appErrors.Clone(appErrors.ErrValidation, "entry does not belong to this contest and category")
		}
		winnerID = *req.ParticipationID
	case len(topIDs) == 1:
		winnerID = topIDs[0]
	default:
		// tie with no selection: report candidates, persist nothing
		return resolution, nil
	}

	winner := models.Winner{ParticipationID: winnerID, Place: 1}
	if err := s.winners.ReplaceForContestCategory(ctx, slotID, req.Category, []models.Winner{winner}); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist winner")
	}
	if slot.Judging.Status == models.StatusCompleted {
		if err := s.slots.UpdateStatus(ctx, slotID, models.StatusAwarded); err != nil {
			s.logger.Warn("failed to mark contest awarded", zap.String("slot_id", slotID), zap.Error(err))
		}
	}

	stored, err := s.winners.ListBySlot(ctx, slotID)
	if err == nil {
		for i := range stored {
			if stored[i].ParticipationID == winnerID && stored[i].ExperienceCategory == req.Category {
				resolution.Winner = &stored[i]
				break
			}
		}
	}
	if resolution.Winner == nil {
		winner.TimeSlotID = slotID
		winner.ExperienceCategory = req.Category
		resolution.Winner = &winner
	}

	s.invalidate(ctx, slotID)
	s.logger.Info("winner assigned",
		zap.String("slot_id", slotID),
		zap.String("category", string(req.Category)),
		zap.String("participation_id", winnerID),
		zap.Float64("score", resolution.MaxScore))
	return resolution, nil
}

// List returns the stored winners of a contest.
func (s *WinnerService) List(ctx context.Context, slotID string) ([]models.Winner, error) {
	if _, err := s.slots.FindByID(ctx, slotID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "contest not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load contest")
	}
	winners, err := s.winners.ListBySlot(ctx, slotID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list winners")
	}
	return winners, nil
}

func (s *WinnerService) invalidate(ctx context.Context, slotID string) {
	if s.invalidator != nil {
		s.invalidator.InvalidateContest(ctx, slotID)
	}
}
