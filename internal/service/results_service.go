package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/inkfest/inkfest-api/internal/models"
	appErrors "github.com/inkfest/inkfest-api/pkg/errors"
)

type resultsSlotRepository interface {
	FindByID(ctx context.Context, id string) (*models.TimeSlot, error)
	ListContests(ctx context.Context, scope models.ResultsScope) ([]models.TimeSlot, error)
	FindAwardSlot(ctx context.Context, dayID string, category models.ContestCategory) (*models.TimeSlot, error)
}

type resultsParticipationRepository interface {
	ListByUser(ctx context.Context, userID string) ([]models.Participation, error)
}

type resultsWinnerRepository interface {
	ListBySlots(ctx context.Context, slotIDs []string) (map[string][]models.Winner, error)
	ListByParticipations(ctx context.Context, participationIDs []string) (map[string]models.Winner, error)
}

type resultsTemplateRepository interface {
	FindTemplate(ctx context.Context, id string) (*models.NominationTemplate, error)
}

type resultsCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

const resultsCachePrefix = "results:"

// ResultsConfig tunes report caching.
type ResultsConfig struct {
	CacheTTL time.Duration
}

// ResultsService projects scoring data into organizer reports and the
// participant-facing score view.
type ResultsService struct {
	slots          resultsSlotRepository
	participations resultsParticipationRepository
	winners        resultsWinnerRepository
	templates      resultsTemplateRepository
	aggregator     winnerAggregator
	cache          resultsCache
	logger         *zap.Logger
	config         ResultsConfig
	now            func() time.Time
}

// NewResultsService constructs a ResultsService instance. The cache is
// optional.
func NewResultsService(slots resultsSlotRepository, participations resultsParticipationRepository, winners resultsWinnerRepository, templates resultsTemplateRepository, aggregator winnerAggregator, cache resultsCache, logger *zap.Logger, config ResultsConfig) *ResultsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.CacheTTL <= 0 {
		config.CacheTTL = 5 * time.Minute
	}
	return &ResultsService{
		slots:          slots,
		participations: participations,
		winners:        winners,
		templates:      templates,
		aggregator:     aggregator,
		cache:          cache,
		logger:         logger,
		config:         config,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// BuildReport assembles the day-grouped standings for the scope: every
// contest split into pro and junior rankings with confirmed places applied.
func (s *ResultsService) BuildReport(ctx context.Context, scope models.ResultsScope) (*models.ResultsReport, error) {
	cacheKey := s.cacheKey(scope)
	if s.cache != nil {
		var cached models.ResultsReport
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			return &cached, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("results cache read failed", zap.String("key", cacheKey), zap.Error(err))
		}
	}

	contests, err := s.slots.ListContests(ctx, scope)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list contests")
	}

	slotIDs := make([]string, len(contests))
	for i, contest := range contests {
		slotIDs[i] = contest.ID
	}
	winnersBySlot, err := s.winners.ListBySlots(ctx, slotIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list winners")
	}

	report := &models.ResultsReport{
		FestivalID:  scope.FestivalID,
		GeneratedAt: s.now(),
	}
	templateCache := make(map[string][]models.Criterion)
	var currentDay *models.DayResults
	for _, contest := range contests {
		if contest.Day == nil || contest.Judging == nil {
			continue
		}
		if currentDay == nil || currentDay.Day.ID != contest.Day.ID {
			report.Days = append(report.Days, models.DayResults{Day: *contest.Day})
			currentDay = &report.Days[len(report.Days)-1]
		}

		criteria, ok := templateCache[contest.Judging.NominationTemplateID]
		if !ok {
			template, err := s.templates.FindTemplate(ctx, contest.Judging.NominationTemplateID)
			if err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load template")
			}
			criteria = template.Criteria
			templateCache[contest.Judging.NominationTemplateID] = criteria
		}

		aggregates, err := s.aggregator.ContestAggregates(ctx, contest.ID)
		if err != nil {
			return nil, err
		}
		confirmed := make(map[string]int)
		for _, winner := range winnersBySlot[contest.ID] {
			confirmed[winner.ParticipationID] = winner.Place
		}

		results := models.ContestResults{Contest: contest, Criteria: criteria}
		for _, aggregate := range aggregates {
			if place, ok := confirmed[aggregate.ParticipationID]; ok {
				placeCopy := place
				aggregate.ConfirmedPlace = &placeCopy
			}
			switch aggregate.Category {
			case models.CategoryJunior:
				results.Junior = append(results.Junior, aggregate)
			default:
				results.Pro = append(results.Pro, aggregate)
			}
		}
		markTies(results.Pro)
		markTies(results.Junior)
		currentDay.Contests = append(currentDay.Contests, results)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, report, s.config.CacheTTL); err != nil {
			s.logger.Warn("results cache write failed", zap.String("key", cacheKey), zap.Error(err))
		}
	}
	return report, nil
}

// MyScores builds the participant-facing view of the user's entries. The
// winner flag is revealed only after the award ceremony matching the
// contest's day and category has ended.
func (s *ResultsService) MyScores(ctx context.Context, userID string) ([]models.ParticipantScore, error) {
	participations, err := s.participations.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list participations")
	}

	participationIDs := make([]string, len(participations))
	for i, participation := range participations {
		participationIDs[i] = participation.ID
	}
	winnersByEntry, err := s.winners.ListByParticipations(ctx, participationIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list winners")
	}

	var views []models.ParticipantScore
	for _, participation := range participations {
		slot, err := s.slots.FindByID(ctx, participation.TimeSlotID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				continue
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load contest")
		}
		if !slot.IsContest() || slot.Day == nil {
			continue
		}

		template, err := s.templates.FindTemplate(ctx, slot.Judging.NominationTemplateID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load template")
		}
		aggregates, err := s.aggregator.ContestAggregates(ctx, slot.ID)
		if err != nil {
			return nil, err
		}

		view := models.ParticipantScore{
			ParticipationID: participation.ID,
			Nomination:      template.Name,
			Category:        slot.Judging.Category,
			Date:            slot.Day.Date,
			StartTime:       slot.StartTime,
			EndTime:         slot.EndTime,
		}
		for _, aggregate := range aggregates {
			if aggregate.ParticipationID != participation.ID {
				continue
			}
			view.PerJudge = aggregate.PerJudge
			hasScores := false
			for _, perJudge := range aggregate.PerJudge {
				if perJudge.Average != nil {
					hasScores = true
					break
				}
			}
			if hasScores {
				final := aggregate.FinalScore
				view.OverallAverage = &final
			}
			break
		}

		if winner, ok := winnersByEntry[participation.ID]; ok && s.awardRevealed(ctx, slot) {
			view.IsWinner = true
			place := winner.Place
			view.WinnerPlace = &place
		}
		views = append(views, view)
	}
	return views, nil
}

// InvalidateContest drops every cached report; winner and score writes call
// this so reports never serve stale standings past the TTL.
func (s *ResultsService) InvalidateContest(ctx context.Context, slotID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, resultsCachePrefix+"*"); err != nil {
		s.logger.Warn("results cache invalidation failed", zap.String("slot_id", slotID), zap.Error(err))
	}
}

// awardRevealed reports whether the award ceremony for the contest's day
// and category has ended. Without a scheduled ceremony the result stays
// hidden.
func (s *ResultsService) awardRevealed(ctx context.Context, contest *models.TimeSlot) bool {
	award, err := s.slots.FindAwardSlot(ctx, contest.DayID, contest.Judging.Category)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("award slot lookup failed", zap.String("day_id", contest.DayID), zap.Error(err))
		}
		return false
	}
	return s.now().After(award.EndTime)
}

func (s *ResultsService) cacheKey(scope models.ResultsScope) string {
	switch {
	case scope.DayID != "":
		return fmt.Sprintf("%sday:%s", resultsCachePrefix, scope.DayID)
	case scope.FestivalID != "":
		return fmt.Sprintf("%sfestival:%s", resultsCachePrefix, scope.FestivalID)
	default:
		return resultsCachePrefix + "all"
	}
}
