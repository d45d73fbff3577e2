package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-scheduling-core/internal/models"
)

const roomColumns = "id, code, building, capacity, active, created_at, updated_at"

// RoomRepository provides persistence for rooms.
type RoomRepository struct {
	db sqlx.ExtContext
}

// NewRoomRepository creates a new room repository.
func NewRoomRepository(db sqlx.ExtContext) *RoomRepository {
	return &RoomRepository{db: db}
}

// FindByID loads a room by id regardless of its active flag.
func (r *RoomRepository) FindByID(ctx context.Context, id int64) (*models.Room, error) {
	query := "SELECT " + roomColumns + " FROM rooms WHERE id = $1"
	var room models.Room
	if err := sqlx.GetContext(ctx, r.db, &room, query, id); err != nil {
		return nil, translate(err)
	}
	return &room, nil
}

// List returns rooms with optional filtering and pagination.
func (r *RoomRepository) List(ctx context.Context, filter models.RoomFilter) ([]models.Room, int, error) {
	base := "FROM rooms WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Building != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(building) = LOWER($%d)", len(args)+1))
		args = append(args, filter.Building)
	}
	if filter.MinCapacity > 0 {
		conditions = append(conditions, fmt.Sprintf("capacity >= $%d", len(args)+1))
		args = append(args, filter.MinCapacity)
	}
	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY code ASC LIMIT %d OFFSET %d", roomColumns, base, size, offset)
	var rooms []models.Room
	if err := sqlx.SelectContext(ctx, r.db, &rooms, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list rooms: %w", err)
	}

	var total int
	if err := sqlx.GetContext(ctx, r.db, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count rooms: %w", err)
	}
	return rooms, total, nil
}

// ListActive returns active rooms holding at least minCapacity seats.
func (r *RoomRepository) ListActive(ctx context.Context, minCapacity int) ([]models.Room, error) {
	query := "SELECT " + roomColumns + " FROM rooms WHERE active = TRUE AND capacity >= $1 ORDER BY code ASC"
	var rooms []models.Room
	if err := sqlx.SelectContext(ctx, r.db, &rooms, query, minCapacity); err != nil {
		return nil, fmt.Errorf("list active rooms: %w", err)
	}
	return rooms, nil
}

// Create stores a new room record.
func (r *RoomRepository) Create(ctx context.Context, room *models.Room) error {
	now := time.Now().UTC()
	room.CreatedAt = now
	room.UpdatedAt = now

	const query = `INSERT INTO rooms (code, building, capacity, active, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	if err := r.db.QueryRowxContext(ctx, query, room.Code, room.Building, room.Capacity, room.Active, room.CreatedAt, room.UpdatedAt).Scan(&room.ID); err != nil {
		return fmt.Errorf("create room: %w", translate(err))
	}
	return nil
}

// Deactivate soft-deletes a room.
func (r *RoomRepository) Deactivate(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `UPDATE rooms SET active = FALSE, updated_at = $2 WHERE id = $1`, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("deactivate room: %w", err)
	}
	return requireAffected(result, "deactivate room")
}

// CountSlots counts slots referencing the room, active or not.
func (r *RoomRepository) CountSlots(ctx context.Context, id int64) (int, error) {
	var count int
	if err := sqlx.GetContext(ctx, r.db, &count, `SELECT COUNT(*) FROM schedule_slots WHERE room_id = $1`, id); err != nil {
		return 0, fmt.Errorf("count room slots: %w", err)
	}
	return count, nil
}

// Delete physically removes a room.
func (r *RoomRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM rooms WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete room: %w", translate(err))
	}
	return requireAffected(result, "delete room")
}
