// Package storage declares the persistence contract the scheduling core
// depends on. The Postgres implementation lives in internal/repository.
package storage

import (
	"context"
	"errors"

	"github.com/noah-isme/sma-scheduling-core/internal/models"
)

// Sentinel errors that implementations translate driver errors into.
var (
	// ErrNotFound is returned by lookups that match no row.
	ErrNotFound = errors.New("storage: record not found")
	// ErrUniqueViolation signals a unique or primary key constraint hit.
	ErrUniqueViolation = errors.New("storage: unique constraint violated")
	// ErrExclusionViolation signals a range exclusion constraint hit.
	ErrExclusionViolation = errors.New("storage: exclusion constraint violated")
	// ErrForeignKeyViolation signals a dangling or still-referenced row.
	ErrForeignKeyViolation = errors.New("storage: foreign key constraint violated")
	// ErrNoTransaction is returned by operations that only make sense inside WithinTx.
	ErrNoTransaction = errors.New("storage: operation requires a transaction")
)

// RoomStore persists rooms.
type RoomStore interface {
	FindByID(ctx context.Context, id int64) (*models.Room, error)
	List(ctx context.Context, filter models.RoomFilter) ([]models.Room, int, error)
	ListActive(ctx context.Context, minCapacity int) ([]models.Room, error)
	Create(ctx context.Context, room *models.Room) error
	Deactivate(ctx context.Context, id int64) error
	CountSlots(ctx context.Context, id int64) (int, error)
	Delete(ctx context.Context, id int64) error
}

// ClassSectionStore persists class sections.
type ClassSectionStore interface {
	FindByID(ctx context.Context, id int64) (*models.ClassSection, error)
	Create(ctx context.Context, section *models.ClassSection) error
}

// SlotStore persists schedule slots.
type SlotStore interface {
	FindByID(ctx context.Context, id int64) (*models.ScheduleSlot, error)
	// FindActiveByRoom returns active slots of a room on a day, skipping excludeID (0 skips nothing).
	FindActiveByRoom(ctx context.Context, roomID int64, day models.DayOfWeek, excludeID int64) ([]models.ScheduleSlot, error)
	// FindActiveByClass returns active slots of a class on a day, skipping excludeID (0 skips nothing).
	FindActiveByClass(ctx context.Context, classID int64, day models.DayOfWeek, excludeID int64) ([]models.ScheduleSlot, error)
	FindActiveByDay(ctx context.Context, day models.DayOfWeek) ([]models.ScheduleSlot, error)
	ListActive(ctx context.Context) ([]models.ScheduleSlot, error)
	ListActiveByRoomID(ctx context.Context, roomID int64) ([]models.ScheduleSlot, error)
	ListActiveByClassID(ctx context.Context, classID int64) ([]models.ScheduleSlot, error)
	Create(ctx context.Context, slot *models.ScheduleSlot) error
	Update(ctx context.Context, slot *models.ScheduleSlot) error
	Deactivate(ctx context.Context, id int64) error
}

// SemesterStore persists semesters and the reference data they point at.
type SemesterStore interface {
	FindByID(ctx context.Context, id int64) (*models.Semester, error)
	// FindActiveByProgram returns active semesters of a program, skipping excludeID (0 skips nothing).
	FindActiveByProgram(ctx context.Context, programID, excludeID int64) ([]models.Semester, error)
	ListActive(ctx context.Context) ([]models.Semester, error)
	Create(ctx context.Context, semester *models.Semester) error
	Update(ctx context.Context, semester *models.Semester) error
	Deactivate(ctx context.Context, id int64) error
	CountClassSections(ctx context.Context, id int64) (int, error)
	Delete(ctx context.Context, id int64) error
}

// ProgramStore persists programs and academic years.
type ProgramStore interface {
	FindProgram(ctx context.Context, id int64) (*models.Program, error)
	CreateProgram(ctx context.Context, program *models.Program) error
	FindAcademicYear(ctx context.Context, id int64) (*models.AcademicYear, error)
	CreateAcademicYear(ctx context.Context, year *models.AcademicYear) error
}

// IdentifierStore persists the issued identifier ledger and staff records.
type IdentifierStore interface {
	// FindByPrefix returns every issued value starting with prefix+year.
	FindByPrefix(ctx context.Context, prefix string, year int) ([]string, error)
	Exists(ctx context.Context, value string) (bool, error)
	Insert(ctx context.Context, identifier *models.IssuedIdentifier) error
	CreateStaff(ctx context.Context, staff *models.StaffMember) error
}

// Storage groups every store the core reads and writes.
type Storage interface {
	Rooms() RoomStore
	ClassSections() ClassSectionStore
	Slots() SlotStore
	Semesters() SemesterStore
	Programs() ProgramStore
	Identifiers() IdentifierStore
	// Lock takes a transaction-scoped advisory lock on key. It blocks until
	// the lock is granted and is released at commit or rollback.
	Lock(ctx context.Context, key string) error
}

// Transactor runs a unit of work atomically. fn receives a Storage bound to
// the transaction; a non-nil return rolls everything back.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, store Storage) error) error
}
