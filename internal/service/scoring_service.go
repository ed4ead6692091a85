package service

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/inkfest/inkfest-api/internal/models"
	appErrors "github.com/inkfest/inkfest-api/pkg/errors"
)

type scoringSlotRepository interface {
	FindByID(ctx context.Context, id string) (*models.TimeSlot, error)
	UpdateStatus(ctx context.Context, id string, status models.ContestStatus) error
}

type scoringParticipationRepository interface {
	FindByID(ctx context.Context, id string) (*models.Participation, error)
	ListBySlot(ctx context.Context, slotID string) ([]models.Participation, error)
	ListJudgesBySlot(ctx context.Context, slotID string) ([]models.JudgeAssignment, error)
	IsJudgeAssigned(ctx context.Context, judgeID, slotID string) (bool, error)
	CountBySlot(ctx context.Context, slotID string) (int, error)
	CountJudgesBySlot(ctx context.Context, slotID string) (int, error)
}

type scoringScoreRepository interface {
	Upsert(ctx context.Context, score *models.Score) error
	BulkUpsert(ctx context.Context, scores []models.Score) error
	ListForContest(ctx context.Context, slotID string) ([]models.Score, error)
	ListByJudgeForContest(ctx context.Context, judgeID, slotID string) ([]models.Score, error)
	CountForContest(ctx context.Context, slotID string) (int, error)
}

type scoringTemplateRepository interface {
	FindTemplate(ctx context.Context, id string) (*models.NominationTemplate, error)
}

// scoringMetrics tracks domain counters; a nil implementation is allowed.
type scoringMetrics interface {
	ScoreRecorded(contestID string)
	ContestCompleted()
}

// resultsInvalidator drops cached reports that include the contest.
type resultsInvalidator interface {
	InvalidateContest(ctx context.Context, slotID string)
}

// ScoringConfig tunes the status engine.
type ScoringConfig struct {
	// AutoStartOnAssignment moves a contest from pending to judging as soon
	// as it has participants or judges, before any score arrives.
	AutoStartOnAssignment bool
	// EnforceStartTime rejects scores submitted before the contest's
	// scheduled start.
	EnforceStartTime bool
}

// CompletionListener is called when a contest transitions to completed.
type CompletionListener func(slot *models.TimeSlot)

// ScoringService is the scoring engine: it records judge scores, derives
// contest status from scoring progress, and computes the two-level mean
// aggregates used for ranking.
type ScoringService struct {
	slots          scoringSlotRepository
	participations scoringParticipationRepository
	scores         scoringScoreRepository
	templates      scoringTemplateRepository
	metrics        scoringMetrics
	invalidator    resultsInvalidator
	onCompletion   CompletionListener
	validator      *validator.Validate
	logger         *zap.Logger
	config         ScoringConfig
	now            func() time.Time
}

// NewScoringService constructs a ScoringService instance.
func NewScoringService(slots scoringSlotRepository, participations scoringParticipationRepository, scores scoringScoreRepository, templates scoringTemplateRepository, validate *validator.Validate, logger *zap.Logger, config ScoringConfig) *ScoringService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ScoringService{
		slots:          slots,
		participations: participations,
		scores:         scores,
		templates:      templates,
		validator:      validate,
		logger:         logger,
		config:         config,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// SetMetrics wires domain counters.
func (s *ScoringService) SetMetrics(metrics scoringMetrics) {
	s.metrics = metrics
}

// SetResultsInvalidator wires cache invalidation for recorded scores.
func (s *ScoringService) SetResultsInvalidator(invalidator resultsInvalidator) {
	s.invalidator = invalidator
}

// SetCompletionListener registers a callback fired on completion transitions.
func (s *ScoringService) SetCompletionListener(listener CompletionListener) {
	s.onCompletion = listener
}

// RecordScore stores or overwrites one score and re-evaluates the contest.
func (s *ScoringService) RecordScore(ctx context.Context, judgeID string, req models.RecordScoreRequest) (*models.Score, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid score payload")
	}

	slot, _, err := s.scoringContext(ctx, judgeID, req.ParticipationID, req.CriterionID)
	if err != nil {
		return nil, err
	}

	score := &models.Score{
		JudgeID:         judgeID,
		ParticipationID: req.ParticipationID,
		CriterionID:     req.CriterionID,
		Value:           req.Value,
	}
	if err := s.scores.Upsert(ctx, score); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record score")
	}
	if s.metrics != nil {
		s.metrics.ScoreRecorded(slot.ID)
	}
	if s.invalidator != nil {
		s.invalidator.InvalidateContest(ctx, slot.ID)
	}

	if _, err := s.EvaluateContestStatus(ctx, slot.ID); err != nil {
		s.logger.Warn("status evaluation after score failed", zap.String("slot_id", slot.ID), zap.Error(err))
	}
	return score, nil
}

// SubmitScores stores a judge's sheet for one entry in one transaction and
// re-evaluates the contest once.
func (s *ScoringService) SubmitScores(ctx context.Context, judgeID string, req models.SubmitScoresRequest) ([]models.Score, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid scores payload")
	}
	for _, value := range req.Scores {
		if value < 0 {
			return nil, appErrors.Clone(appErrors.ErrValidation, "scores must be non-negative")
		}
	}

	var slot *models.TimeSlot
	scores := make([]models.Score, 0, len(req.Scores))
	for criterionID, value := range req.Scores {
		checked, _, err := s.scoringContext(ctx, judgeID, req.ParticipationID, criterionID)
		if err != nil {
			return nil, err
		}
		slot = checked
		scores = append(scores, models.Score{
			JudgeID:         judgeID,
			ParticipationID: req.ParticipationID,
			CriterionID:     criterionID,
			Value:           value,
		})
	}
	sort.Slice(scores, func(i, j int) bool { return scores[i].CriterionID < scores[j].CriterionID })

	if err := s.scores.BulkUpsert(ctx, scores); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record scores")
	}
	if s.metrics != nil {
		for range scores {
			s.metrics.ScoreRecorded(slot.ID)
		}
	}
	if s.invalidator != nil {
		s.invalidator.InvalidateContest(ctx, slot.ID)
	}

	if _, err := s.EvaluateContestStatus(ctx, slot.ID); err != nil {
		s.logger.Warn("status evaluation after scores failed", zap.String("slot_id", slot.ID), zap.Error(err))
	}
	return scores, nil
}

// scoringContext validates that the judge may score the participation on the
// criterion right now and returns the contest and its template.
func (s *ScoringService) scoringContext(ctx context.Context, judgeID, participationID, criterionID string) (*models.TimeSlot, *models.NominationTemplate, error) {
	participation, err := s.participations.FindByID(ctx, participationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "participation not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load participation")
	}

	slot, err := s.slots.FindByID(ctx, participation.TimeSlotID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "contest not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load contest")
	}
	if !slot.IsContest() {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "entry does not belong to a judging slot")
	}
	if slot.Judging.Status == models.StatusCompleted || slot.Judging.Status == models.StatusAwarded {
		return nil, nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "contest is already closed for scoring")
	}
	if s.config.EnforceStartTime && s.now().Before(slot.StartTime) {
		return nil, nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "contest has not started yet")
	}

	assigned, err := s.participations.IsJudgeAssigned(ctx, judgeID, slot.ID)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check assignment")
	}
	if !assigned {
		return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "judge is not assigned to this contest")
	}

	template, err := s.templates.FindTemplate(ctx, slot.Judging.NominationTemplateID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "nomination template not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load template")
	}
	found := false
	for _, criterion := range template.Criteria {
		if criterion.ID == criterionID {
			found = true
			break
		}
	}
	if !found {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "criterion is not part of this contest")
	}
	return slot, template, nil
}

// EvaluateContestStatus re-derives a contest's status from its current
// membership and scoring progress. Transitions only move forward; awarded
// contests are never touched. Expected volume is participants x judges x
// criteria.
func (s *ScoringService) EvaluateContestStatus(ctx context.Context, slotID string) (*models.TimeSlot, error) {
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
	if slot.Judging.Status == models.StatusAwarded {
		return slot, nil
	}

	participants, err := s.participations.CountBySlot(ctx, slotID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count participants")
	}
	judges, err := s.participations.CountJudgesBySlot(ctx, slotID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count judges")
	}
	template, err := s.templates.FindTemplate(ctx, slot.Judging.NominationTemplateID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load template")
	}
	recorded, err := s.scores.CountForContest(ctx, slotID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count scores")
	}

	expected := participants * judges * len(template.Criteria)
	target := models.StatusPending
	switch {
	case expected > 0 && recorded >= expected:
		target = models.StatusCompleted
	case recorded > 0:
		target = models.StatusJudging
	case s.config.AutoStartOnAssignment && (participants > 0 || judges > 0):
		target = models.StatusJudging
	}

	if statusRank(target) <= statusRank(slot.Judging.Status) {
		return slot, nil
	}

	if err := s.slots.UpdateStatus(ctx, slotID, target); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update contest status")
	}
	previous := slot.Judging.Status
	slot.Judging.Status = target
	s.logger.Info("contest status advanced",
		zap.String("slot_id", slotID),
		zap.String("from", string(previous)),
		zap.String("to", string(target)),
		zap.Int("recorded", recorded),
		zap.Int("expected", expected))

	if target == models.StatusCompleted {
		if s.metrics != nil {
			s.metrics.ContestCompleted()
		}
		if s.onCompletion != nil {
			s.onCompletion(slot)
		}
	}
	if s.invalidator != nil {
		s.invalidator.InvalidateContest(ctx, slotID)
	}
	return slot, nil
}

// ContestAggregates computes the ranked standings of a contest, split by
// experience category and sorted by final score descending.
func (s *ScoringService) ContestAggregates(ctx context.Context, slotID string) ([]models.ParticipationAggregate, error) {
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

	participations, err := s.participations.ListBySlot(ctx, slotID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list participants")
	}
	judges, err := s.participations.ListJudgesBySlot(ctx, slotID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list judges")
	}
	template, err := s.templates.FindTemplate(ctx, slot.Judging.NominationTemplateID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load template")
	}
	scores, err := s.scores.ListForContest(ctx, slotID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list scores")
	}

	return ComputeAggregates(participations, judges, template.Criteria, scores), nil
}

// JudgeSheet builds the judge-facing scoring view of a contest.
func (s *ScoringService) JudgeSheet(ctx context.Context, judgeID, slotID string) (*models.JudgeSheet, error) {
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

	assigned, err := s.participations.IsJudgeAssigned(ctx, judgeID, slotID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check assignment")
	}
	if !assigned {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "judge is not assigned to this contest")
	}

	template, err := s.templates.FindTemplate(ctx, slot.Judging.NominationTemplateID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load template")
	}
	participations, err := s.participations.ListBySlot(ctx, slotID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list participants")
	}
	judgeScores, err := s.scores.ListByJudgeForContest(ctx, judgeID, slotID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list scores")
	}

	sheet := &models.JudgeSheet{
		Contest:         slot,
		Criteria:        template.Criteria,
		Participations:  participations,
		Scores:          make(map[string]map[string]int),
		RunningAverages: make(map[string]*float64),
		JudgingOpen:     slot.Judging.Status == models.StatusPending || slot.Judging.Status == models.StatusJudging,
	}
	if s.config.EnforceStartTime && s.now().Before(slot.StartTime) {
		sheet.JudgingOpen = false
	}

	for _, score := range judgeScores {
		if sheet.Scores[score.ParticipationID] == nil {
			sheet.Scores[score.ParticipationID] = make(map[string]int)
		}
		sheet.Scores[score.ParticipationID][score.CriterionID] = score.Value
	}
	for _, participation := range participations {
		recorded := sheet.Scores[participation.ID]
		if len(recorded) == 0 {
			continue
		}
		sum := 0
		count := 0
		for _, criterion := range template.Criteria {
			if value, ok := recorded[criterion.ID]; ok {
				sum += value
				count++
			}
		}
		if count > 0 {
			avg := round2(float64(sum) / float64(count))
			sheet.RunningAverages[participation.ID] = &avg
		}
		if count == len(template.Criteria) && count > 0 {
			sheet.FullyScored = append(sheet.FullyScored, participation.ID)
		}
	}
	return sheet, nil
}

// ComputeAggregates derives the two-level mean standing of every entry.
// A judge's average covers only the criteria that judge actually scored; a
// judge with no scores on an entry contributes nothing. The final score is
// the mean of the defined judge averages, 0 when no judge scored the entry.
func ComputeAggregates(participations []models.Participation, judges []models.JudgeAssignment, criteria []models.Criterion, scores []models.Score) []models.ParticipationAggregate {
	criterionSet := make(map[string]struct{}, len(criteria))
	for _, criterion := range criteria {
		criterionSet[criterion.ID] = struct{}{}
	}

	// scores indexed by participation then judge
	byEntry := make(map[string]map[string]map[string]int)
	for _, score := range scores {
		if _, ok := criterionSet[score.CriterionID]; !ok {
			continue
		}
		if byEntry[score.ParticipationID] == nil {
			byEntry[score.ParticipationID] = make(map[string]map[string]int)
		}
		if byEntry[score.ParticipationID][score.JudgeID] == nil {
			byEntry[score.ParticipationID][score.JudgeID] = make(map[string]int)
		}
		byEntry[score.ParticipationID][score.JudgeID][score.CriterionID] = score.Value
	}

	aggregates := make([]models.ParticipationAggregate, 0, len(participations))
	for _, participation := range participations {
		aggregate := models.ParticipationAggregate{
			ParticipationID: participation.ID,
			EntryNumber:     participation.EntryNumber,
			User:            participation.User,
		}
		if participation.User != nil && participation.User.ExperienceCategory != nil {
			aggregate.Category = *participation.User.ExperienceCategory
		}

		judgeSum := 0.0
		judgeCount := 0
		for _, judge := range judges {
			perJudge := models.JudgeAverage{
				JudgeID:      judge.JudgeID,
				Judge:        judge.Judge,
				PerCriterion: byEntry[participation.ID][judge.JudgeID],
			}
			if len(perJudge.PerCriterion) > 0 {
				sum := 0
				for _, value := range perJudge.PerCriterion {
					sum += value
				}
				// The published per-judge average is rounded; the final mean
				// runs over the raw quotients so rounding never compounds.
				raw := float64(sum) / float64(len(perJudge.PerCriterion))
				avg := round2(raw)
				perJudge.Average = &avg
				judgeSum += raw
				judgeCount++
			}
			aggregate.PerJudge = append(aggregate.PerJudge, perJudge)
		}
		if judgeCount > 0 {
			aggregate.FinalScore = round2(judgeSum / float64(judgeCount))
		}
		aggregates = append(aggregates, aggregate)
	}

	sort.SliceStable(aggregates, func(i, j int) bool {
		if aggregates[i].FinalScore != aggregates[j].FinalScore {
			return aggregates[i].FinalScore > aggregates[j].FinalScore
		}
		return aggregates[i].EntryNumber < aggregates[j].EntryNumber
	})
	return aggregates
}

// markTies flags every aggregate that shares the top positive score of its
// slice.
func markTies(aggregates []models.ParticipationAggregate) {
	if len(aggregates) < 2 {
		return
	}
	top := aggregates[0].FinalScore
	if top <= 0 {
		return
	}
	count := 0
	for i := range aggregates {
		if aggregates[i].FinalScore == top {
			count++
		}
	}
	if count < 2 {
		return
	}
	for i := range aggregates {
		aggregates[i].Tied = aggregates[i].FinalScore == top
	}
}

func statusRank(status models.ContestStatus) int {
	switch status {
	case models.StatusPending:
		return 0
	case models.StatusJudging:
		return 1
	case models.StatusCompleted:
		return 2
	case models.StatusAwarded:
		return 3
	default:
		return -1
	}
}

func round2(value float64) float64 {
	return math.RoundToEven(value*100) / 100
}
