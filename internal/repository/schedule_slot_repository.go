package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-scheduling-core/internal/models"
)

const slotColumns = "id, class_id, room_id, day_of_week, start_minute, end_minute, is_recurring, active, created_at, updated_at"

// ScheduleSlotRepository provides persistence for schedule slots.
type ScheduleSlotRepository struct {
	db sqlx.ExtContext
}

// NewScheduleSlotRepository creates a schedule slot repository.
func NewScheduleSlotRepository(db sqlx.ExtContext) *ScheduleSlotRepository {
	return &ScheduleSlotRepository{db: db}
}

// FindByID loads a slot by id.
func (r *ScheduleSlotRepository) FindByID(ctx context.Context, id int64) (*models.ScheduleSlot, error) {
	query := "SELECT " + slotColumns + " FROM schedule_slots WHERE id = $1"
	var slot models.ScheduleSlot
	if err := sqlx.GetContext(ctx, r.db, &slot, query, id); err != nil {
		return nil, translate(err)
	}
	return &slot, nil
}

// FindActiveByRoom returns the active bookings of a room on one day.
func (r *ScheduleSlotRepository) FindActiveByRoom(ctx context.Context, roomID int64, day models.DayOfWeek, excludeID int64) ([]models.ScheduleSlot, error) {
	query := "SELECT " + slotColumns + " FROM schedule_slots WHERE room_id = $1 AND day_of_week = $2 AND active = TRUE AND id <> $3 ORDER BY start_minute ASC"
	var slots []models.ScheduleSlot
	if err := sqlx.SelectContext(ctx, r.db, &slots, query, roomID, day, excludeID); err != nil {
		return nil, fmt.Errorf("find active slots by room: %w", err)
	}
	return slots, nil
}

// FindActiveByClass returns the active bookings of a class on one day.
func (r *ScheduleSlotRepository) FindActiveByClass(ctx context.Context, classID int64, day models.DayOfWeek, excludeID int64) ([]models.ScheduleSlot, error) {
	query := "SELECT " + slotColumns + " FROM schedule_slots WHERE class_id = $1 AND day_of_week = $2 AND active = TRUE AND id <> $3 ORDER BY start_minute ASC"
	var slots []models.ScheduleSlot
	if err := sqlx.SelectContext(ctx, r.db, &slots, query, classID, day, excludeID); err != nil {
		return nil, fmt.Errorf("find active slots by class: %w", err)
	}
	return slots, nil
}

// FindActiveByDay returns every active booking on a day.
func (r *ScheduleSlotRepository) FindActiveByDay(ctx context.Context, day models.DayOfWeek) ([]models.ScheduleSlot, error) {
	query := "SELECT " + slotColumns + " FROM schedule_slots WHERE day_of_week = $1 AND active = TRUE ORDER BY room_id ASC, start_minute ASC"
	var slots []models.ScheduleSlot
	if err := sqlx.SelectContext(ctx, r.db, &slots, query, day); err != nil {
		return nil, fmt.Errorf("find active slots by day: %w", err)
	}
	return slots, nil
}

// ListActive returns all active bookings.
func (r *ScheduleSlotRepository) ListActive(ctx context.Context) ([]models.ScheduleSlot, error) {
	query := "SELECT " + slotColumns + " FROM schedule_slots WHERE active = TRUE ORDER BY day_of_week ASC, start_minute ASC"
	var slots []models.ScheduleSlot
	if err := sqlx.SelectContext(ctx, r.db, &slots, query); err != nil {
		return nil, fmt.Errorf("list active slots: %w", err)
	}
	return slots, nil
}

// ListActiveByRoomID returns the weekly active bookings of a room.
func (r *ScheduleSlotRepository) ListActiveByRoomID(ctx context.Context, roomID int64) ([]models.ScheduleSlot, error) {
	query := "SELECT " + slotColumns + " FROM schedule_slots WHERE room_id = $1 AND active = TRUE ORDER BY start_minute ASC"
	var slots []models.ScheduleSlot
	if err := sqlx.SelectContext(ctx, r.db, &slots, query, roomID); err != nil {
		return nil, fmt.Errorf("list active slots by room: %w", err)
	}
	return slots, nil
}

// ListActiveByClassID returns the weekly active bookings of a class.
func (r *ScheduleSlotRepository) ListActiveByClassID(ctx context.Context, classID int64) ([]models.ScheduleSlot, error) {
	query := "SELECT " + slotColumns + " FROM schedule_slots WHERE class_id = $1 AND active = TRUE ORDER BY start_minute ASC"
	var slots []models.ScheduleSlot
	if err := sqlx.SelectContext(ctx, r.db, &slots, query, classID); err != nil {
		return nil, fmt.Errorf("list active slots by class: %w", err)
	}
	return slots, nil
}

// Create stores a new slot.
func (r *ScheduleSlotRepository) Create(ctx context.Context, slot *models.ScheduleSlot) error {
	now := time.Now().UTC()
	slot.CreatedAt = now
	slot.UpdatedAt = now

	const query = `INSERT INTO schedule_slots (class_id, room_id, day_of_week, start_minute, end_minute, is_recurring, active, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`
	err := r.db.QueryRowxContext(ctx, query,
		slot.ClassID, slot.RoomID, slot.DayOfWeek, slot.StartTime, slot.EndTime,
		slot.IsRecurring, slot.Active, slot.CreatedAt, slot.UpdatedAt,
	).Scan(&slot.ID)
	if err != nil {
		return fmt.Errorf("create schedule slot: %w", translate(err))
	}
	return nil
}

// Update overwrites the mutable fields of a slot.
func (r *ScheduleSlotRepository) Update(ctx context.Context, slot *models.ScheduleSlot) error {
	slot.UpdatedAt = time.Now().UTC()
	const query = `UPDATE schedule_slots SET class_id = $2, room_id = $3, day_of_week = $4, start_minute = $5, end_minute = $6, is_recurring = $7, active = $8, updated_at = $9 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query,
		slot.ID, slot.ClassID, slot.RoomID, slot.DayOfWeek, slot.StartTime, slot.EndTime,
		slot.IsRecurring, slot.Active, slot.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update schedule slot: %w", translate(err))
	}
	return requireAffected(result, "update schedule slot")
}

// Deactivate soft-deletes a slot.
func (r *ScheduleSlotRepository) Deactivate(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `UPDATE schedule_slots SET active = FALSE, updated_at = $2 WHERE id = $1`, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("deactivate schedule slot: %w", err)
	}
	return requireAffected(result, "deactivate schedule slot")
}
