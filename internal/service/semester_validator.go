package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-scheduling-core/internal/models"
	"github.com/noah-isme/sma-scheduling-core/internal/storage"
	appErrors "github.com/noah-isme/sma-scheduling-core/pkg/errors"
)

// SemesterDateRangeValidator keeps the active semesters of each program free
// of overlapping date ranges. Callers own the transaction.
type SemesterDateRangeValidator struct {
	metrics schedulingMetrics
	logger  *zap.Logger
}

// NewSemesterDateRangeValidator builds a validator.
func NewSemesterDateRangeValidator(metrics schedulingMetrics, logger *zap.Logger) *SemesterDateRangeValidator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SemesterDateRangeValidator{metrics: metricsOrNop(metrics), logger: logger}
}

// CreateSemester checks references, date order and program overlap, then stores the semester.
func (v *SemesterDateRangeValidator) CreateSemester(ctx context.Context, store storage.Storage, semester models.Semester) (*models.Semester, error) {
	program, err := v.requireProgram(ctx, store, semester.ProgramID)
	if err != nil {
		return nil, err
	}
	if _, err := store.Programs().FindAcademicYear(ctx, semester.AcademicYearID); err != nil {
		return nil, loadError(err, "academic year")
	}
	if err := validateSemesterFields(semester); err != nil {
		return nil, err
	}
	if semester.Active {
		if err := v.lockAndCheck(ctx, store, program, semester, 0); err != nil {
			return nil, err
		}
	}

	semester.ID = 0
	if err := store.Semesters().Create(ctx, &semester); err != nil {
		return nil, v.persistError(err, program, "create semester")
	}
	return &semester, nil
}

// UpdateSemester merges patch over the stored semester. The overlap check runs
// only when the dates or the program change, or when the semester is reactivated.
func (v *SemesterDateRangeValidator) UpdateSemester(ctx context.Context, store storage.Storage, id int64, patch models.SemesterPatch) (*models.Semester, error) {
	current, err := store.Semesters().FindByID(ctx, id)
	if err != nil {
		return nil, loadError(err, "semester")
	}

	merged := *current
	if patch.ProgramID != nil {
		merged.ProgramID = *patch.ProgramID
	}
	if patch.AcademicYearID != nil {
		merged.AcademicYearID = *patch.AcademicYearID
	}
	if patch.SemesterNumber != nil {
		merged.SemesterNumber = *patch.SemesterNumber
	}
	if patch.YearNumber != nil {
		merged.YearNumber = *patch.YearNumber
	}
	if patch.StartDate != nil {
		merged.StartDate = *patch.StartDate
	}
	if patch.EndDate != nil {
		merged.EndDate = *patch.EndDate
	}
	if patch.Active != nil {
		merged.Active = *patch.Active
	}

	programChanged := merged.ProgramID != current.ProgramID
	datesChanged := merged.StartDate != current.StartDate || merged.EndDate != current.EndDate
	reactivated := merged.Active && !current.Active

	program, err := v.loadProgram(ctx, store, merged.ProgramID, programChanged)
	if err != nil {
		return nil, err
	}
	if merged.AcademicYearID != current.AcademicYearID {
		if _, err := store.Programs().FindAcademicYear(ctx, merged.AcademicYearID); err != nil {
			return nil, loadError(err, "academic year")
		}
	}
	if err := validateSemesterFields(merged); err != nil {
		return nil, err
	}
	if (programChanged || datesChanged || reactivated) && merged.Active {
		if err := v.lockAndCheck(ctx, store, program, merged, merged.ID); err != nil {
			return nil, err
		}
	}

	if err := store.Semesters().Update(ctx, &merged); err != nil {
		return nil, v.persistError(err, program, "update semester")
	}
	return &merged, nil
}

// Deactivate soft-deletes a semester.
func (v *SemesterDateRangeValidator) Deactivate(ctx context.Context, store storage.Storage, id int64) error {
	if err := store.Semesters().Deactivate(ctx, id); err != nil {
		return loadError(err, "semester")
	}
	return nil
}

func validateSemesterFields(semester models.Semester) error {
	if semester.StartDate.IsZero() || semester.EndDate.IsZero() {
		return validationErrorf("start_date and end_date are required")
	}
	if !semester.EndDate.After(semester.StartDate) {
		return validationErrorf("end_date %s must be after start_date %s", semester.EndDate, semester.StartDate)
	}
	if semester.SemesterNumber < models.SemesterNumberMin || semester.SemesterNumber > models.SemesterNumberMax {
		return validationErrorf("semester_number must be between %d and %d", models.SemesterNumberMin, models.SemesterNumberMax)
	}
	if semester.YearNumber < 1 {
		return validationErrorf("year_number must be at least 1")
	}
	return nil
}

func (v *SemesterDateRangeValidator) requireProgram(ctx context.Context, store storage.Storage, id int64) (*models.Program, error) {
	program, err := store.Programs().FindProgram(ctx, id)
	if err != nil {
		return nil, loadError(err, "program")
	}
	if !program.Active {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "program not found")
	}
	return program, nil
}

// loadProgram fetches the program for conflict messages; the active
// requirement applies only when the semester moves to another program.
func (v *SemesterDateRangeValidator) loadProgram(ctx context.Context, store storage.Storage, id int64, requireActive bool) (*models.Program, error) {
	if requireActive {
		return v.requireProgram(ctx, store, id)
	}
	program, err := store.Programs().FindProgram(ctx, id)
	if err != nil {
		return nil, loadError(err, "program")
	}
	return program, nil
}

func (v *SemesterDateRangeValidator) lockAndCheck(ctx context.Context, store storage.Storage, program *models.Program, candidate models.Semester, ignoreID int64) error {
	if err := store.Lock(ctx, fmt.Sprintf("program:%d", program.ID)); err != nil {
		return internalError(err, "acquire semester lock")
	}
	existing, err := store.Semesters().FindActiveByProgram(ctx, program.ID, ignoreID)
	if err != nil {
		return internalError(err, "check semester overlap")
	}
	for _, item := range existing {
		if item.ID == ignoreID && ignoreID != 0 {
			continue
		}
		if candidate.DateRange().Overlaps(item.DateRange()) {
			return v.wrapConflict(program, item)
		}
	}
	return nil
}

func (v *SemesterDateRangeValidator) wrapConflict(program *models.Program, existing models.Semester) error {
	v.metrics.RecordConflict(models.ConflictDimensionProgram)
	message := fmt.Sprintf("semester dates overlap an existing semester of program %s", program.Code)
	v.logger.Info("semester conflict",
		zap.Int64("program_id", program.ID),
		zap.Int64("existing_semester_id", existing.ID),
		zap.String("start_date", existing.StartDate.String()),
		zap.String("end_date", existing.EndDate.String()),
	)
	domainErr := &models.SemesterConflictError{
		Message: message,
		Conflict: models.SemesterConflict{
			SemesterID:  existing.ID,
			ProgramID:   program.ID,
			ProgramCode: program.Code,
			StartDate:   existing.StartDate.String(),
			EndDate:     existing.EndDate.String(),
		},
	}
	return appErrors.Wrap(domainErr, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, message)
}

func (v *SemesterDateRangeValidator) persistError(err error, program *models.Program, action string) error {
	switch {
	case errors.Is(err, storage.ErrExclusionViolation):
		v.metrics.RecordConflict(models.ConflictDimensionProgram)
		return appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status,
			fmt.Sprintf("semester dates overlap an existing semester of program %s", program.Code))
	case errors.Is(err, storage.ErrForeignKeyViolation):
		return appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "referenced program or academic year not found")
	case errors.Is(err, storage.ErrNotFound):
		return appErrors.Clone(appErrors.ErrNotFound, "semester not found")
	}
	return internalError(err, action)
}
