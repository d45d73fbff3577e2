package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-scheduling-core/internal/models"
	"github.com/noah-isme/sma-scheduling-core/internal/storage"
	appErrors "github.com/noah-isme/sma-scheduling-core/pkg/errors"
)

// CreateRoomRequest describes payload for registering a room.
type CreateRoomRequest struct {
	Code     string `json:"code" validate:"required,max=32"`
	Building string `json:"building" validate:"required,max=120"`
	Capacity int    `json:"capacity" validate:"required,min=1,max=500"`
}

// CreateProgramRequest describes payload for a study program.
type CreateProgramRequest struct {
	Code string `json:"code" validate:"required,max=32"`
	Name string `json:"name" validate:"required,max=255"`
}

// CreateAcademicYearRequest describes payload for an academic year.
type CreateAcademicYearRequest struct {
	Label     string `json:"label" validate:"required,max=32"`
	StartDate string `json:"start_date" validate:"required"`
	EndDate   string `json:"end_date" validate:"required"`
}

// CreateClassSectionRequest describes payload for a class section.
type CreateClassSectionRequest struct {
	SectionName string `json:"section_name" validate:"required,max=64"`
	SubjectID   int64  `json:"subject_id" validate:"required,gt=0"`
	SemesterID  int64  `json:"semester_id" validate:"required,gt=0"`
}

// CatalogService manages the reference data slots and semesters point at.
type CatalogService struct {
	tx        storage.Transactor
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCatalogService constructs a catalog service.
func NewCatalogService(tx storage.Transactor, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *CatalogService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{tx: tx, cache: cache, validator: validate, logger: logger}
}

// CreateRoom registers an active room.
func (s *CatalogService) CreateRoom(ctx context.Context, req CreateRoomRequest) (*models.Room, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid room payload")
	}
	room := &models.Room{Code: req.Code, Building: req.Building, Capacity: req.Capacity, Active: true}
	err := s.tx.WithinTx(ctx, func(ctx context.Context, store storage.Storage) error {
		return store.Rooms().Create(ctx, room)
	})
	if err != nil {
		return nil, uniqueError(err, fmt.Sprintf("room code %s already exists", req.Code), "create room")
	}
	s.cache.InvalidateScope(ctx, availabilityScope)
	return room, nil
}

// ListRooms returns rooms with pagination metadata.
func (s *CatalogService) ListRooms(ctx context.Context, filter models.RoomFilter) ([]models.Room, *models.Pagination, error) {
	var (
		rooms []models.Room
		total int
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context, store storage.Storage) error {
		var err error
		rooms, total, err = store.Rooms().List(ctx, filter)
		return err
	})
	if err != nil {
		return nil, nil, internalError(err, "list rooms")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return rooms, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// GetRoom loads a room by id.
func (s *CatalogService) GetRoom(ctx context.Context, id int64) (*models.Room, error) {
	var room *models.Room
	err := s.tx.WithinTx(ctx, func(ctx context.Context, store storage.Storage) error {
		var err error
		room, err = store.Rooms().FindByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, loadError(err, "room")
	}
	return room, nil
}

// DeactivateRoom soft-deletes a room. Existing slots keep referencing it.
func (s *CatalogService) DeactivateRoom(ctx context.Context, id int64) error {
	err := s.tx.WithinTx(ctx, func(ctx context.Context, store storage.Storage) error {
		return store.Rooms().Deactivate(ctx, id)
	})
	if err != nil {
		return loadError(err, "room")
	}
	s.cache.InvalidateScope(ctx, availabilityScope)
	return nil
}

// PurgeRoom physically removes a room that no slot has ever referenced.
func (s *CatalogService) PurgeRoom(ctx context.Context, id int64) error {
	err := s.tx.WithinTx(ctx, func(ctx context.Context, store storage.Storage) error {
		if _, err := store.Rooms().FindByID(ctx, id); err != nil {
			return loadError(err, "room")
		}
		refs, err := store.Rooms().CountSlots(ctx, id)
		if err != nil {
			return err
		}
		if refs > 0 {
			return appErrors.Clone(appErrors.ErrPreconditionFailed, fmt.Sprintf("room is referenced by %d schedule slots", refs))
		}
		return store.Rooms().Delete(ctx, id)
	})
	if err != nil {
		return referencedError(err, "room is still referenced", "purge room")
	}
	s.logger.Info("room purged", zap.Int64("room_id", id))
	s.cache.InvalidateScope(ctx, availabilityScope)
	return nil
}

// PurgeSemester physically removes a semester no class section belongs to.
func (s *CatalogService) PurgeSemester(ctx context.Context, id int64) error {
	err := s.tx.WithinTx(ctx, func(ctx context.Context, store storage.Storage) error {
		if _, err := store.Semesters().FindByID(ctx, id); err != nil {
			return loadError(err, "semester")
		}
		refs, err := store.Semesters().CountClassSections(ctx, id)
		if err != nil {
			return err
		}
		if refs > 0 {
			return appErrors.Clone(appErrors.ErrPreconditionFailed, fmt.Sprintf("semester is referenced by %d class sections", refs))
		}
		return store.Semesters().Delete(ctx, id)
	})
	if err != nil {
		return referencedError(err, "semester is still referenced", "purge semester")
	}
	s.logger.Info("semester purged", zap.Int64("semester_id", id))
	return nil
}

// CreateProgram registers an active program.
func (s *CatalogService) CreateProgram(ctx context.Context, req CreateProgramRequest) (*models.Program, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid program payload")
	}
	program := &models.Program{Code: req.Code, Name: req.Name, Active: true}
	err := s.tx.WithinTx(ctx, func(ctx context.Context, store storage.Storage) error {
		return store.Programs().CreateProgram(ctx, program)
	})
	if err != nil {
		return nil, uniqueError(err, fmt.Sprintf("program code %s already exists", req.Code), "create program")
	}
	return program, nil
}

// CreateAcademicYear registers an academic year.
func (s *CatalogService) CreateAcademicYear(ctx context.Context, req CreateAcademicYearRequest) (*models.AcademicYear, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid academic year payload")
	}
	start, err := parseDate("start_date", req.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := parseDate("end_date", req.EndDate)
	if err != nil {
		return nil, err
	}
	if !end.After(start) {
		return nil, validationErrorf("end_date %s must be after start_date %s", end, start)
	}

	year := &models.AcademicYear{Label: req.Label, StartDate: start, EndDate: end}
	err = s.tx.WithinTx(ctx, func(ctx context.Context, store storage.Storage) error {
		return store.Programs().CreateAcademicYear(ctx, year)
	})
	if err != nil {
		return nil, uniqueError(err, fmt.Sprintf("academic year %s already exists", req.Label), "create academic year")
	}
	return year, nil
}

// CreateClassSection registers a class section in an active semester.
func (s *CatalogService) CreateClassSection(ctx context.Context, req CreateClassSectionRequest) (*models.ClassSection, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid class section payload")
	}
	section := &models.ClassSection{
		SectionName: req.SectionName,
		SubjectID:   req.SubjectID,
		SemesterID:  req.SemesterID,
		Active:      true,
	}
	err := s.tx.WithinTx(ctx, func(ctx context.Context, store storage.Storage) error {
		semester, err := store.Semesters().FindByID(ctx, req.SemesterID)
		if err != nil {
			return loadError(err, "semester")
		}
		if !semester.Active {
			return appErrors.Clone(appErrors.ErrNotFound, "semester not found")
		}
		return store.ClassSections().Create(ctx, section)
	})
	if err != nil {
		return nil, uniqueError(err, "class section already exists", "create class section")
	}
	return section, nil
}

// ClassTimetable returns the active weekly slots of a class section.
func (s *CatalogService) ClassTimetable(ctx context.Context, classID int64) ([]models.ScheduleSlot, error) {
	var slots []models.ScheduleSlot
	err := s.tx.WithinTx(ctx, func(ctx context.Context, store storage.Storage) error {
		if _, err := store.ClassSections().FindByID(ctx, classID); err != nil {
			return loadError(err, "class section")
		}
		var err error
		slots, err = store.Slots().ListActiveByClassID(ctx, classID)
		return err
	})
	if err != nil {
		return nil, internalError(err, "load class timetable")
	}
	return slots, nil
}

// RoomTimetable returns the active weekly slots booked in a room.
func (s *CatalogService) RoomTimetable(ctx context.Context, roomID int64) ([]models.ScheduleSlot, error) {
	var slots []models.ScheduleSlot
	err := s.tx.WithinTx(ctx, func(ctx context.Context, store storage.Storage) error {
		if _, err := store.Rooms().FindByID(ctx, roomID); err != nil {
			return loadError(err, "room")
		}
		var err error
		slots, err = store.Slots().ListActiveByRoomID(ctx, roomID)
		return err
	})
	if err != nil {
		return nil, internalError(err, "load room timetable")
	}
	return slots, nil
}

func uniqueError(err error, message, action string) error {
	if errors.Is(err, storage.ErrUniqueViolation) {
		return appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, message)
	}
	return internalError(err, action)
}

func referencedError(err error, message, action string) error {
	if errors.Is(err, storage.ErrForeignKeyViolation) {
		return appErrors.Wrap(err, appErrors.ErrPreconditionFailed.Code, appErrors.ErrPreconditionFailed.Status, message)
	}
	return internalError(err, action)
}
