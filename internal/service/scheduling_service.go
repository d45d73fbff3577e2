package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-scheduling-core/internal/interval"
	"github.com/noah-isme/sma-scheduling-core/internal/models"
	"github.com/noah-isme/sma-scheduling-core/internal/storage"
)

const (
	availabilityScope        = "availability"
	availabilityCachePattern = availabilityScope + ":*"
)

// CreateScheduleRequest describes payload for booking a slot.
type CreateScheduleRequest struct {
	ClassID     int64  `json:"class_id" validate:"required,gt=0"`
	RoomID      int64  `json:"room_id" validate:"required,gt=0"`
	DayOfWeek   string `json:"day_of_week" validate:"required"`
	StartTime   string `json:"start_time" validate:"required"`
	EndTime     string `json:"end_time" validate:"required"`
	IsRecurring bool   `json:"is_recurring"`
	Active      *bool  `json:"active"`
}

// UpdateScheduleRequest carries a partial slot update. Nil fields keep their value.
type UpdateScheduleRequest struct {
	ClassID     *int64  `json:"class_id" validate:"omitempty,gt=0"`
	RoomID      *int64  `json:"room_id" validate:"omitempty,gt=0"`
	DayOfWeek   *string `json:"day_of_week"`
	StartTime   *string `json:"start_time"`
	EndTime     *string `json:"end_time"`
	IsRecurring *bool   `json:"is_recurring"`
	Active      *bool   `json:"active"`
}

// CreateSemesterRequest describes payload for creating a semester.
type CreateSemesterRequest struct {
	ProgramID      int64  `json:"program_id" validate:"required,gt=0"`
	AcademicYearID int64  `json:"academic_year_id" validate:"required,gt=0"`
	SemesterNumber int    `json:"semester_number" validate:"required,min=1,max=3"`
	YearNumber     int    `json:"year_number" validate:"required,min=1"`
	StartDate      string `json:"start_date" validate:"required"`
	EndDate        string `json:"end_date" validate:"required"`
	Active         *bool  `json:"active"`
}

// UpdateSemesterRequest carries a partial semester update.
type UpdateSemesterRequest struct {
	ProgramID      *int64  `json:"program_id" validate:"omitempty,gt=0"`
	AcademicYearID *int64  `json:"academic_year_id" validate:"omitempty,gt=0"`
	SemesterNumber *int    `json:"semester_number" validate:"omitempty,min=1,max=3"`
	YearNumber     *int    `json:"year_number" validate:"omitempty,min=1"`
	StartDate      *string `json:"start_date"`
	EndDate        *string `json:"end_date"`
	Active         *bool   `json:"active"`
}

// AllocateIdentifierRequest asks for the next code of a prefix and year.
type AllocateIdentifierRequest struct {
	Prefix string `json:"prefix" validate:"required,len=1"`
	Year   int    `json:"year" validate:"required,min=1000,max=9999"`
}

// RegisterStaffRequest creates a staff member with a freshly issued code.
// Year defaults to the current calendar year.
type RegisterStaffRequest struct {
	FullName string `json:"full_name" validate:"required,max=255"`
	Role     string `json:"role" validate:"required,oneof=TEACHER HEAD_OF_DEPARTMENT ADMINISTRATOR"`
	Year     int    `json:"year" validate:"omitempty,min=1000,max=9999"`
}

// AvailableRoomsQuery filters rooms free for a time window.
type AvailableRoomsQuery struct {
	DayOfWeek   string `form:"day" json:"day" validate:"required"`
	StartTime   string `form:"start" json:"start" validate:"required"`
	EndTime     string `form:"end" json:"end" validate:"required"`
	MinCapacity int    `form:"minCapacity" json:"min_capacity" validate:"min=0"`
}

// SchedulingService exposes the scheduling core to the API layer. Every
// mutation runs validate, check and persist in one transaction.
type SchedulingService struct {
	tx          storage.Transactor
	checker     *ScheduleConflictChecker
	semesters   *SemesterDateRangeValidator
	identifiers *IdentifierAllocator
	cache       *CacheService
	cacheTTL    time.Duration
	validator   *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
}

// SchedulingServiceConfig groups optional collaborators and tunables.
type SchedulingServiceConfig struct {
	SlotRules          SlotRules
	IdentifierAttempts int
	Cache              *CacheService
	CacheTTL           time.Duration
	Metrics            schedulingMetrics
}

// NewSchedulingService wires the checkers around a transactor.
func NewSchedulingService(tx storage.Transactor, cfg SchedulingServiceConfig, validate *validator.Validate, logger *zap.Logger) *SchedulingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SchedulingService{
		tx:          tx,
		checker:     NewScheduleConflictChecker(cfg.SlotRules, cfg.Metrics, logger),
		semesters:   NewSemesterDateRangeValidator(cfg.Metrics, logger),
		identifiers: NewIdentifierAllocator(tx, cfg.IdentifierAttempts, cfg.Metrics, logger),
		cache:       cfg.Cache,
		cacheTTL:    cfg.CacheTTL,
		validator:   validate,
		logger:      logger,
		now:         time.Now,
	}
}

// CreateSchedule books a slot after room and class overlap checks.
func (s *SchedulingService) CreateSchedule(ctx context.Context, req CreateScheduleRequest) (*models.ScheduleSlot, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid schedule payload")
	}
	day, err := models.ParseDayOfWeek(req.DayOfWeek)
	if err != nil {
		return nil, validationError(err, err.Error())
	}
	start, end, err := parseTimes(req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}

	slot := models.ScheduleSlot{
		ClassID:     req.ClassID,
		RoomID:      req.RoomID,
		DayOfWeek:   day,
		StartTime:   start,
		EndTime:     end,
		IsRecurring: req.IsRecurring,
		Active:      req.Active == nil || *req.Active,
	}

	var created *models.ScheduleSlot
	err = s.tx.WithinTx(ctx, func(ctx context.Context, store storage.Storage) error {
		var err error
		created, err = s.checker.CreateSlot(ctx, store, slot)
		return err
	})
	if err != nil {
		return nil, internalError(err, "create schedule")
	}
	s.invalidateAvailability(ctx)
	return created, nil
}

// UpdateSchedule applies a partial update, re-running checks when the booking moves.
func (s *SchedulingService) UpdateSchedule(ctx context.Context, id int64, req UpdateScheduleRequest) (*models.ScheduleSlot, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid schedule payload")
	}
	patch := models.ScheduleSlotPatch{
		ClassID:     req.ClassID,
		RoomID:      req.RoomID,
		IsRecurring: req.IsRecurring,
		Active:      req.Active,
	}
	if req.DayOfWeek != nil {
		day, err := models.ParseDayOfWeek(*req.DayOfWeek)
		if err != nil {
			return nil, validationError(err, err.Error())
		}
		patch.DayOfWeek = &day
	}
	if req.StartTime != nil {
		start, err := parseTime("start_time", *req.StartTime)
		if err != nil {
			return nil, err
		}
		patch.StartTime = &start
	}
	if req.EndTime != nil {
		end, err := parseTime("end_time", *req.EndTime)
		if err != nil {
			return nil, err
		}
		patch.EndTime = &end
	}

	var updated *models.ScheduleSlot
	err := s.tx.WithinTx(ctx, func(ctx context.Context, store storage.Storage) error {
		var err error
		updated, err = s.checker.UpdateSlot(ctx, store, id, patch)
		return err
	})
	if err != nil {
		return nil, internalError(err, "update schedule")
	}
	s.invalidateAvailability(ctx)
	return updated, nil
}

// DeactivateSchedule soft-deletes a slot.
func (s *SchedulingService) DeactivateSchedule(ctx context.Context, id int64) error {
	err := s.tx.WithinTx(ctx, func(ctx context.Context, store storage.Storage) error {
		return s.checker.Deactivate(ctx, store, id)
	})
	if err != nil {
		return internalError(err, "deactivate schedule")
	}
	s.invalidateAvailability(ctx)
	return nil
}

// GetSchedule loads a slot by id, active or not.
func (s *SchedulingService) GetSchedule(ctx context.Context, id int64) (*models.ScheduleSlot, error) {
	var slot *models.ScheduleSlot
	err := s.tx.WithinTx(ctx, func(ctx context.Context, store storage.Storage) error {
		var err error
		slot, err = store.Slots().FindByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, loadError(err, "schedule")
	}
	return slot, nil
}

// CreateSemester stores a semester whose dates do not intersect its program's active semesters.
func (s *SchedulingService) CreateSemester(ctx context.Context, req CreateSemesterRequest) (*models.Semester, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid semester payload")
	}
	start, err := parseDate("start_date", req.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := parseDate("end_date", req.EndDate)
	if err != nil {
		return nil, err
	}

	semester := models.Semester{
		ProgramID:      req.ProgramID,
		AcademicYearID: req.AcademicYearID,
		SemesterNumber: req.SemesterNumber,
		YearNumber:     req.YearNumber,
		StartDate:      start,
		EndDate:        end,
		Active:         req.Active == nil || *req.Active,
	}

	var created *models.Semester
	err = s.tx.WithinTx(ctx, func(ctx context.Context, store storage.Storage) error {
		var err error
		created, err = s.semesters.CreateSemester(ctx, store, semester)
		return err
	})
	if err != nil {
		return nil, internalError(err, "create semester")
	}
	return created, nil
}

// UpdateSemester applies a partial semester update.
func (s *SchedulingService) UpdateSemester(ctx context.Context, id int64, req UpdateSemesterRequest) (*models.Semester, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid semester payload")
	}
	patch := models.SemesterPatch{
		ProgramID:      req.ProgramID,
		AcademicYearID: req.AcademicYearID,
		SemesterNumber: req.SemesterNumber,
		YearNumber:     req.YearNumber,
		Active:         req.Active,
	}
	if req.StartDate != nil {
		start, err := parseDate("start_date", *req.StartDate)
		if err != nil {
			return nil, err
		}
		patch.StartDate = &start
	}
	if req.EndDate != nil {
		end, err := parseDate("end_date", *req.EndDate)
		if err != nil {
			return nil, err
		}
		patch.EndDate = &end
	}

	var updated *models.Semester
	err := s.tx.WithinTx(ctx, func(ctx context.Context, store storage.Storage) error {
		var err error
		updated, err = s.semesters.UpdateSemester(ctx, store, id, patch)
		return err
	})
	if err != nil {
		return nil, internalError(err, "update semester")
	}
	return updated, nil
}

// DeactivateSemester soft-deletes a semester.
func (s *SchedulingService) DeactivateSemester(ctx context.Context, id int64) error {
	err := s.tx.WithinTx(ctx, func(ctx context.Context, store storage.Storage) error {
		return s.semesters.Deactivate(ctx, store, id)
	})
	if err != nil {
		return internalError(err, "deactivate semester")
	}
	return nil
}

// GetSemester loads a semester by id.
func (s *SchedulingService) GetSemester(ctx context.Context, id int64) (*models.Semester, error) {
	var semester *models.Semester
	err := s.tx.WithinTx(ctx, func(ctx context.Context, store storage.Storage) error {
		var err error
		semester, err = store.Semesters().FindByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, loadError(err, "semester")
	}
	return semester, nil
}

// AllocateIdentifier issues the next sequential code for a prefix and year.
func (s *SchedulingService) AllocateIdentifier(ctx context.Context, req AllocateIdentifierRequest) (*models.IssuedIdentifier, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid identifier request")
	}
	return s.identifiers.AllocateWith(ctx, req.Prefix, req.Year, nil)
}

// RegisterStaff allocates a code from the role's prefix and stores the staff
// member in the same transaction.
func (s *SchedulingService) RegisterStaff(ctx context.Context, req RegisterStaffRequest) (*models.StaffMember, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid staff payload")
	}
	role := models.StaffRole(req.Role)
	prefix, err := role.IdentifierPrefix()
	if err != nil {
		return nil, validationError(err, err.Error())
	}
	year := req.Year
	if year == 0 {
		year = s.now().Year()
	}

	var staff *models.StaffMember
	_, err = s.identifiers.AllocateWith(ctx, prefix, year, func(ctx context.Context, store storage.Storage, code string) error {
		member := &models.StaffMember{Code: code, FullName: req.FullName, Role: role, Active: true}
		if err := store.Identifiers().CreateStaff(ctx, member); err != nil {
			return err
		}
		staff = member
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("staff registered", zap.String("code", staff.Code), zap.String("role", string(role)))
	return staff, nil
}

// QueryAvailableRooms lists active rooms with enough capacity and no active
// slot overlapping the requested window.
func (s *SchedulingService) QueryAvailableRooms(ctx context.Context, query AvailableRoomsQuery) ([]models.Room, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, validationError(err, "invalid availability query")
	}
	day, err := models.ParseDayOfWeek(query.DayOfWeek)
	if err != nil {
		return nil, validationError(err, err.Error())
	}
	start, end, err := parseTimes(query.StartTime, query.EndTime)
	if err != nil {
		return nil, err
	}
	if start >= end {
		return nil, validationErrorf("start %s must be before end %s", start, end)
	}
	window := interval.TimeRange{Start: start, End: end}

	// The generation is read before the database so a write that commits
	// while this query runs moves later readers to a fresh key.
	gen, cacheable := s.cache.Generation(ctx, availabilityScope)
	key := fmt.Sprintf("%s:%d:%s:%s:%s:%d", availabilityScope, gen, day, start, end, query.MinCapacity)
	if cacheable {
		var cached []models.Room
		if hit, _ := s.cache.Get(ctx, key, &cached); hit {
			return cached, nil
		}
	}

	var rooms []models.Room
	err = s.tx.WithinTx(ctx, func(ctx context.Context, store storage.Storage) error {
		candidates, err := store.Rooms().ListActive(ctx, query.MinCapacity)
		if err != nil {
			return err
		}
		slots, err := store.Slots().FindActiveByDay(ctx, day)
		if err != nil {
			return err
		}
		busy := make(map[int64]struct{})
		for _, slot := range slots {
			if slot.TimeRange().Overlaps(window) {
				busy[slot.RoomID] = struct{}{}
			}
		}
		rooms = make([]models.Room, 0, len(candidates))
		for _, room := range candidates {
			if _, taken := busy[room.ID]; !taken {
				rooms = append(rooms, room)
			}
		}
		return nil
	})
	if err != nil {
		return nil, internalError(err, "query available rooms")
	}

	if cacheable {
		s.cache.Set(ctx, key, rooms, s.cacheTTL)
	}
	return rooms, nil
}

// VerifyInvariants audits every active slot and semester for overlaps.
func (s *SchedulingService) VerifyInvariants(ctx context.Context) (*models.InvariantReport, error) {
	report := &models.InvariantReport{Violations: []models.InvariantViolation{}}
	err := s.tx.WithinTx(ctx, func(ctx context.Context, store storage.Storage) error {
		slots, err := store.Slots().ListActive(ctx)
		if err != nil {
			return err
		}
		semesters, err := store.Semesters().ListActive(ctx)
		if err != nil {
			return err
		}
		report.SlotsChecked = len(slots)
		report.SemestersChecked = len(semesters)
		report.Violations = append(report.Violations, auditSlots(slots)...)
		report.Violations = append(report.Violations, auditSemesters(semesters)...)
		return nil
	})
	if err != nil {
		return nil, internalError(err, "verify invariants")
	}
	if len(report.Violations) > 0 {
		s.logger.Error("overlap invariant violated", zap.Int("violations", len(report.Violations)))
	}
	return report, nil
}

func (s *SchedulingService) invalidateAvailability(ctx context.Context) {
	s.cache.InvalidateScope(ctx, availabilityScope)
}

func parseTimes(rawStart, rawEnd string) (interval.TimeOfDay, interval.TimeOfDay, error) {
	start, err := parseTime("start_time", rawStart)
	if err != nil {
		return 0, 0, err
	}
	end, err := parseTime("end_time", rawEnd)
	if err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

func parseTime(field, raw string) (interval.TimeOfDay, error) {
	value, err := interval.ParseTimeOfDay(raw)
	if err != nil {
		return 0, validationError(err, fmt.Sprintf("%s must use HH:mm", field))
	}
	return value, nil
}

func parseDate(field, raw string) (interval.Date, error) {
	value, err := interval.ParseDate(raw)
	if err != nil {
		return interval.Date{}, validationError(err, fmt.Sprintf("%s must use YYYY-MM-DD", field))
	}
	return value, nil
}
