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

type scheduleSlotRepository interface {
	Create(ctx context.Context, slot *models.TimeSlot) error
	FindByID(ctx context.Context, id string) (*models.TimeSlot, error)
	List(ctx context.Context, filter models.SlotFilter) ([]models.TimeSlot, error)
	Update(ctx context.Context, slot *models.TimeSlot) error
	Delete(ctx context.Context, id string) error
	MaxSlotOrder(ctx context.Context, dayID string) (int, error)
}

type scheduleDayRepository interface {
	FindDay(ctx context.Context, dayID string) (*models.EventDay, error)
}

type scheduleTemplateRepository interface {
	FindTemplate(ctx context.Context, id string) (*models.NominationTemplate, error)
}

// ScheduleService manages the slot timetable of festival days.
type ScheduleService struct {
	slots     scheduleSlotRepository
	days      scheduleDayRepository
	templates scheduleTemplateRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewScheduleService constructs a ScheduleService instance.
func NewScheduleService(slots scheduleSlotRepository, days scheduleDayRepository, templates scheduleTemplateRepository, validate *validator.Validate, logger *zap.Logger) *ScheduleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ScheduleService{slots: slots, days: days, templates: templates, validator: validate, logger: logger}
}

// Create schedules a slot. New contest slots start pending; slot order
// defaults to the end of the day.
func (s *ScheduleService) Create(ctx context.Context, req models.CreateSlotRequest) (*models.TimeSlot, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid slot payload")
	}
	if !req.EndTime.After(req.StartTime) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end time must follow start time")
	}
	if _, err := s.days.FindDay(ctx, req.DayID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event day not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event day")
	}

	slot := &models.TimeSlot{
		DayID:     req.DayID,
		StartTime: req.StartTime.UTC(),
		EndTime:   req.EndTime.UTC(),
		SlotOrder: req.SlotOrder,
		Type:      req.Type,
	}
	if err := s.applyVariant(ctx, slot, req.Type, req.Judging, req.Award, req.Event, true); err != nil {
		return nil, err
	}

	if slot.SlotOrder == 0 {
		max, err := s.slots.MaxSlotOrder(ctx, req.DayID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to determine slot order")
		}
		slot.SlotOrder = max + 1
	}

	if err := s.slots.Create(ctx, slot); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "slot order is already taken on this day")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create slot")
	}
	s.logger.Info("slot scheduled", zap.String("slot_id", slot.ID), zap.String("type", string(slot.Type)))
	return slot, nil
}

// Get returns a single slot.
func (s *ScheduleService) Get(ctx context.Context, id string) (*models.TimeSlot, error) {
	slot, err := s.slots.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "slot not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load slot")
	}
	return slot, nil
}

// List returns slots matching the filter in schedule order.
func (s *ScheduleService) List(ctx context.Context, filter models.SlotFilter) ([]models.TimeSlot, error) {
	slots, err := s.slots.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list slots")
	}
	return slots, nil
}

// Update edits a slot's timing and variant details. The slot type cannot
// change, and a contest that already left pending keeps its template.
func (s *ScheduleService) Update(ctx context.Context, id string, req models.UpdateSlotRequest) (*models.TimeSlot, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid slot payload")
	}

	slot, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.StartTime != nil {
		slot.StartTime = req.StartTime.UTC()
	}
	if req.EndTime != nil {
		slot.EndTime = req.EndTime.UTC()
	}
	if !slot.EndTime.After(slot.StartTime) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end time must follow start time")
	}
	if req.SlotOrder != nil {
		slot.SlotOrder = *req.SlotOrder
	}

	if req.Judging != nil || req.Award != nil || req.Event != nil {
		if slot.Type == models.SlotJudging && slot.Judging != nil && slot.Judging.Status != models.StatusPending {
			if req.Judging != nil && req.Judging.NominationTemplateID != slot.Judging.NominationTemplateID {
				return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "cannot swap the template once judging has started")
			}
		}
		if err := s.applyVariant(ctx, slot, slot.Type, req.Judging, req.Award, req.Event, false); err != nil {
			return nil, err
		}
	}

	if err := s.slots.Update(ctx, slot); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "slot order is already taken on this day")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update slot")
	}
	return slot, nil
}

// Delete removes a slot together with its participations and scores.
func (s *ScheduleService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.slots.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete slot")
	}
	return nil
}

func (s *ScheduleService) applyVariant(ctx context.Context, slot *models.TimeSlot, slotType models.SlotType, judging *models.JudgingSlotPayload, award *models.AwardSlotPayload, event *models.EventSlotPayload, fresh bool) error {
	switch slotType {
	case models.SlotJudging:
		if judging == nil {
			return appErrors.Clone(appErrors.ErrValidation, "judging slots require judging details")
		}
		if award != nil || event != nil {
			return appErrors.Clone(appErrors.ErrValidation, "judging slots carry only judging details")
		}
		template, err := s.templates.FindTemplate(ctx, judging.NominationTemplateID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrNotFound, "nomination template not found")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load template")
		}
		if len(template.Criteria) == 0 {
			return appErrors.Clone(appErrors.ErrPreconditionFailed, "template has no criteria")
		}
		status := models.StatusPending
		if !fresh && slot.Judging != nil {
			status = slot.Judging.Status
		}
		slot.Judging = &models.JudgingDetails{
			NominationTemplateID: judging.NominationTemplateID,
			Category:             judging.Category,
			Status:               status,
			Zone:                 judging.Zone,
		}
		slot.Award = nil
		slot.Event = nil
	case models.SlotAward:
		if award == nil {
			return appErrors.Clone(appErrors.ErrValidation, "award slots require award details")
		}
		if judging != nil || event != nil {
			return appErrors.Clone(appErrors.ErrValidation, "award slots carry only award details")
		}
		slot.Award = &models.AwardDetails{Category: award.Category, Zone: award.Zone}
		slot.Judging = nil
		slot.Event = nil
	case models.SlotEvent:
		if event == nil {
			return appErrors.Clone(appErrors.ErrValidation, "event slots require event details")
		}
		if judging != nil || award != nil {
			return appErrors.Clone(appErrors.ErrValidation, "event slots carry only event details")
		}
		slot.Event = &models.EventDetails{Title: event.Title}
		slot.Judging = nil
		slot.Award = nil
	default:
		return appErrors.Clone(appErrors.ErrValidation, "unknown slot type")
	}
	return nil
}
