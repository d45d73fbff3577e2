package models

import "time"

// Room capacity bounds.
const (
	RoomMinCapacity = 1
	RoomMaxCapacity = 500
)

// Room is a bookable teaching space.
type Room struct {
	ID        int64     `db:"id" json:"id"`
	Code      string    `db:"code" json:"code"`
	Building  string    `db:"building" json:"building"`
	Capacity  int       `db:"capacity" json:"capacity"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// RoomFilter defines filters for listing rooms.
type RoomFilter struct {
	Building    string
	MinCapacity int
	Active      *bool
	Page        int
	PageSize    int
}
