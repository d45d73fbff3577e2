package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-scheduling-core/internal/interval"
	"github.com/noah-isme/sma-scheduling-core/internal/models"
	"github.com/noah-isme/sma-scheduling-core/internal/storage"
	appErrors "github.com/noah-isme/sma-scheduling-core/pkg/errors"
)

// SlotRules bounds the length of a bookable slot in minutes.
type SlotRules struct {
	MinMinutes int
	MaxMinutes int
}

// DefaultSlotRules returns the 30..240 minute window.
func DefaultSlotRules() SlotRules {
	return SlotRules{MinMinutes: models.SlotMinMinutes, MaxMinutes: models.SlotMaxMinutes}
}

// Validate checks ordering, day bounds and duration of a time range.
func (r SlotRules) Validate(tr interval.TimeRange) error {
	if !tr.Start.Valid() || !tr.End.ValidEnd() {
		return validationErrorf("times must fall within a single day")
	}
	if tr.Start >= tr.End {
		return validationErrorf("start_time %s must be before end_time %s", tr.Start, tr.End)
	}
	if d := tr.Minutes(); d < r.MinMinutes || d > r.MaxMinutes {
		return validationErrorf("slot duration %d minutes is outside [%d, %d]", d, r.MinMinutes, r.MaxMinutes)
	}
	return nil
}

// ScheduleConflictChecker validates and persists slot assignments against a
// transactional Storage. Callers own the transaction.
type ScheduleConflictChecker struct {
	rules   SlotRules
	metrics schedulingMetrics
	logger  *zap.Logger
}

// NewScheduleConflictChecker builds a checker. Zero rules fall back to the defaults.
func NewScheduleConflictChecker(rules SlotRules, metrics schedulingMetrics, logger *zap.Logger) *ScheduleConflictChecker {
	if rules.MinMinutes <= 0 || rules.MaxMinutes <= 0 {
		rules = DefaultSlotRules()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleConflictChecker{rules: rules, metrics: metricsOrNop(metrics), logger: logger}
}

// CreateSlot validates the slot, checks room and class availability and stores it.
func (c *ScheduleConflictChecker) CreateSlot(ctx context.Context, store storage.Storage, slot models.ScheduleSlot) (*models.ScheduleSlot, error) {
	if !slot.DayOfWeek.Valid() {
		return nil, validationErrorf("invalid day_of_week %q", slot.DayOfWeek)
	}
	if err := c.rules.Validate(slot.TimeRange()); err != nil {
		return nil, err
	}
	if err := c.requireRoom(ctx, store, slot.RoomID); err != nil {
		return nil, err
	}
	if err := c.requireClass(ctx, store, slot.ClassID); err != nil {
		return nil, err
	}
	if slot.Active {
		if err := c.lockAndCheck(ctx, store, slot, 0); err != nil {
			return nil, err
		}
	}

	slot.ID = 0
	if err := store.Slots().Create(ctx, &slot); err != nil {
		return nil, c.persistError(err, "create schedule slot")
	}
	return &slot, nil
}

// UpdateSlot merges patch over the stored slot and re-validates when a
// scheduling field changed or the slot is being reactivated.
func (c *ScheduleConflictChecker) UpdateSlot(ctx context.Context, store storage.Storage, id int64, patch models.ScheduleSlotPatch) (*models.ScheduleSlot, error) {
	current, err := store.Slots().FindByID(ctx, id)
	if err != nil {
		return nil, loadError(err, "schedule slot")
	}

	merged := *current
	if patch.ClassID != nil {
		merged.ClassID = *patch.ClassID
	}
	if patch.RoomID != nil {
		merged.RoomID = *patch.RoomID
	}
	if patch.DayOfWeek != nil {
		merged.DayOfWeek = *patch.DayOfWeek
	}
	if patch.StartTime != nil {
		merged.StartTime = *patch.StartTime
	}
	if patch.EndTime != nil {
		merged.EndTime = *patch.EndTime
	}
	if patch.IsRecurring != nil {
		merged.IsRecurring = *patch.IsRecurring
	}
	if patch.Active != nil {
		merged.Active = *patch.Active
	}

	roomChanged := merged.RoomID != current.RoomID
	classChanged := merged.ClassID != current.ClassID
	scheduleChanged := roomChanged || classChanged ||
		merged.DayOfWeek != current.DayOfWeek ||
		merged.StartTime != current.StartTime ||
		merged.EndTime != current.EndTime
	reactivated := merged.Active && !current.Active

	if scheduleChanged || reactivated {
		if !merged.DayOfWeek.Valid() {
			return nil, validationErrorf("invalid day_of_week %q", merged.DayOfWeek)
		}
		if err := c.rules.Validate(merged.TimeRange()); err != nil {
			return nil, err
		}
		if roomChanged || reactivated {
			if err := c.requireRoom(ctx, store, merged.RoomID); err != nil {
				return nil, err
			}
		}
		if classChanged || reactivated {
			if err := c.requireClass(ctx, store, merged.ClassID); err != nil {
				return nil, err
			}
		}
		if merged.Active {
			if err := c.lockAndCheck(ctx, store, merged, merged.ID); err != nil {
				return nil, err
			}
		}
	}

	if err := store.Slots().Update(ctx, &merged); err != nil {
		return nil, c.persistError(err, "update schedule slot")
	}
	return &merged, nil
}

// Deactivate soft-deletes a slot. Freeing a booking cannot introduce a conflict.
func (c *ScheduleConflictChecker) Deactivate(ctx context.Context, store storage.Storage, id int64) error {
	if err := store.Slots().Deactivate(ctx, id); err != nil {
		return loadError(err, "schedule slot")
	}
	return nil
}

func (c *ScheduleConflictChecker) requireRoom(ctx context.Context, store storage.Storage, id int64) error {
	room, err := store.Rooms().FindByID(ctx, id)
	if err != nil {
		return loadError(err, "room")
	}
	if !room.Active {
		return appErrors.Clone(appErrors.ErrNotFound, "room not found")
	}
	return nil
}

func (c *ScheduleConflictChecker) requireClass(ctx context.Context, store storage.Storage, id int64) error {
	section, err := store.ClassSections().FindByID(ctx, id)
	if err != nil {
		return loadError(err, "class section")
	}
	if !section.Active {
		return appErrors.Clone(appErrors.ErrNotFound, "class section not found")
	}
	return nil
}

// lockAndCheck serialises writers on the (room, day) and (class, day) keys and
// then scans both dimensions for overlapping active bookings.
func (c *ScheduleConflictChecker) lockAndCheck(ctx context.Context, store storage.Storage, slot models.ScheduleSlot, ignoreID int64) error {
	keys := []string{
		fmt.Sprintf("room:%d:%s", slot.RoomID, slot.DayOfWeek),
		fmt.Sprintf("class:%d:%s", slot.ClassID, slot.DayOfWeek),
	}
	sort.Strings(keys)
	for _, key := range keys {
		if err := store.Lock(ctx, key); err != nil {
			return internalError(err, "acquire schedule lock")
		}
	}

	roomSlots, err := store.Slots().FindActiveByRoom(ctx, slot.RoomID, slot.DayOfWeek, ignoreID)
	if err != nil {
		return internalError(err, "check room availability")
	}
	if existing, ok := firstOverlap(slot, roomSlots); ok {
		return c.wrapConflict(models.ConflictDimensionRoom, "room already booked", existing)
	}

	classSlots, err := store.Slots().FindActiveByClass(ctx, slot.ClassID, slot.DayOfWeek, ignoreID)
	if err != nil {
		return internalError(err, "check class availability")
	}
	if existing, ok := firstOverlap(slot, classSlots); ok {
		return c.wrapConflict(models.ConflictDimensionClass, "class already scheduled", existing)
	}
	return nil
}

func firstOverlap(candidate models.ScheduleSlot, existing []models.ScheduleSlot) (models.ScheduleSlot, bool) {
	for _, item := range existing {
		if item.ID == candidate.ID && candidate.ID != 0 {
			continue
		}
		if candidate.TimeRange().Overlaps(item.TimeRange()) {
			return item, true
		}
	}
	return models.ScheduleSlot{}, false
}

func (c *ScheduleConflictChecker) wrapConflict(dimension, message string, existing models.ScheduleSlot) error {
	c.metrics.RecordConflict(dimension)
	c.logger.Info("schedule conflict",
		zap.String("dimension", dimension),
		zap.Int64("existing_slot_id", existing.ID),
		zap.Int64("room_id", existing.RoomID),
		zap.Int64("class_id", existing.ClassID),
		zap.String("day_of_week", string(existing.DayOfWeek)),
	)
	domainErr := &models.ScheduleConflictError{
		Type:    dimension,
		Message: message,
		Conflict: models.ScheduleConflict{
			SlotID:    existing.ID,
			ClassID:   existing.ClassID,
			RoomID:    existing.RoomID,
			DayOfWeek: existing.DayOfWeek,
			StartTime: existing.StartTime.String(),
			EndTime:   existing.EndTime.String(),
			Dimension: dimension,
		},
	}
	return appErrors.Wrap(domainErr, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, message)
}

func (c *ScheduleConflictChecker) persistError(err error, action string) error {
	switch {
	case errors.Is(err, storage.ErrExclusionViolation):
		c.metrics.RecordConflict("CONSTRAINT")
		return appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "schedule conflicts with an existing booking")
	case errors.Is(err, storage.ErrForeignKeyViolation):
		return appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "referenced room or class section not found")
	case errors.Is(err, storage.ErrNotFound):
		return appErrors.Clone(appErrors.ErrNotFound, "schedule slot not found")
	}
	return internalError(err, action)
}
