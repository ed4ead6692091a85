package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/inkfest/inkfest-api/internal/models"
	"github.com/inkfest/inkfest-api/pkg/database"
	appErrors "github.com/inkfest/inkfest-api/pkg/errors"
)

type festivalRepository interface {
	Create(ctx context.Context, festival *models.Festival) error
	FindByID(ctx context.Context, id string) (*models.Festival, error)
	List(ctx context.Context) ([]models.Festival, error)
	UpdateWithDays(ctx context.Context, festival *models.Festival, days []models.EventDay) error
	Delete(ctx context.Context, id string) error
	ListDays(ctx context.Context, festivalID string) ([]models.EventDay, error)
	FindDay(ctx context.Context, dayID string) (*models.EventDay, error)
}

const dateLayout = "2006-01-02"

// FestivalService manages festivals and their generated days.
type FestivalService struct {
	repo      festivalRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewFestivalService constructs a FestivalService instance.
func NewFestivalService(repo festivalRepository, validate *validator.Validate, logger *zap.Logger) *FestivalService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &FestivalService{repo: repo, validator: validate, logger: logger}
}

// Create stores a festival and generates one day per date in the range.
func (s *FestivalService) Create(ctx context.Context, req models.CreateFestivalRequest) (*models.Festival, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid festival payload")
	}
	start, end, err := parseDateRange(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}

	festival := &models.Festival{
		Name:      req.Name,
		StartDate: start,
		EndDate:   end,
		Days:      generateDays(start, end),
	}
	if err := s.repo.Create(ctx, festival); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "a festival with this name already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create festival")
	}
	s.logger.Info("festival created", zap.String("festival_id", festival.ID), zap.Int("days", len(festival.Days)))
	return festival, nil
}

// Get returns a festival with its days.
func (s *FestivalService) Get(ctx context.Context, id string) (*models.Festival, error) {
	festival, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "festival not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load festival")
	}
	return festival, nil
}

// List returns all festivals.
func (s *FestivalService) List(ctx context.Context) ([]models.Festival, error) {
	festivals, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list festivals")
	}
	return festivals, nil
}

// Update edits a festival. When the date range changes the day set is
// reconciled: days whose date survives keep their identity and schedule,
// days that fall outside the range are removed together with their slots.
func (s *FestivalService) Update(ctx context.Context, id string, req models.UpdateFestivalRequest) (*models.Festival, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid festival payload")
	}

	festival, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		festival.Name = *req.Name
	}
	start := festival.StartDate
	end := festival.EndDate
	if req.StartDate != nil {
		if start, err = parseDate(*req.StartDate); err != nil {
			return nil, err
		}
	}
	if req.EndDate != nil {
		if end, err = parseDate(*req.EndDate); err != nil {
			return nil, err
		}
	}
	if end.Before(start) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end date precedes start date")
	}
	festival.StartDate = start
	festival.EndDate = end

	days := reconcileDays(festival.Days, start, end)
	if err := s.repo.UpdateWithDays(ctx, festival, days); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "a festival with this name already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update festival")
	}
	festival.Days = days
	return festival, nil
}

// Delete removes a festival and everything scheduled under it.
func (s *FestivalService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete festival")
	}
	return nil
}

// Days returns the days of a festival.
func (s *FestivalService) Days(ctx context.Context, festivalID string) ([]models.EventDay, error) {
	if _, err := s.Get(ctx, festivalID); err != nil {
		return nil, err
	}
	days, err := s.repo.ListDays(ctx, festivalID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list days")
	}
	return days, nil
}

func parseDateRange(startStr, endStr string) (time.Time, time.Time, error) {
	start, err := parseDate(startStr)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := parseDate(endStr)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "end date precedes start date")
	}
	return start, end, nil
}

func parseDate(value string) (time.Time, error) {
	parsed, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation, "invalid date format, expected YYYY-MM-DD")
	}
	return parsed.UTC(), nil
}

// generateDays produces one day per date in the inclusive range, numbered
// from 1.
func generateDays(start, end time.Time) []models.EventDay {
	var days []models.EventDay
	order := 1
	for date := start; !date.After(end); date = date.AddDate(0, 0, 1) {
		days = append(days, models.EventDay{Date: date, DayOrder: order})
		order++
	}
	return days
}

// reconcileDays maps the new date range onto existing days, keeping the
// identifiers of dates that survive so their slots are untouched.
func reconcileDays(existing []models.EventDay, start, end time.Time) []models.EventDay {
	byDate := make(map[string]models.EventDay, len(existing))
	for _, day := range existing {
		byDate[day.Date.Format(dateLayout)] = day
	}
	days := generateDays(start, end)
	for i := range days {
		if kept, ok := byDate[days[i].Date.Format(dateLayout)]; ok {
			days[i].ID = kept.ID
			days[i].FestivalID = kept.FestivalID
		}
	}
	return days
}
