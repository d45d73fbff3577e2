package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-scheduling-core/internal/interval"
	"github.com/noah-isme/sma-scheduling-core/internal/models"
	"github.com/noah-isme/sma-scheduling-core/internal/storage"
	appErrors "github.com/noah-isme/sma-scheduling-core/pkg/errors"
)

type recordingMetrics struct {
	mu        sync.Mutex
	conflicts map[string]int
	attempts  map[string]int
	cacheHits int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{conflicts: map[string]int{}, attempts: map[string]int{}}
}

func (m *recordingMetrics) RecordConflict(dimension string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conflicts[dimension]++
}

func (m *recordingMetrics) RecordIdentifierAttempt(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts[outcome]++
}

func (m *recordingMetrics) RecordCacheOperation(hit bool, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if hit {
		m.cacheHits++
	}
}

type slotFixture struct {
	db      *memDB
	checker *ScheduleConflictChecker
	metrics *recordingMetrics
	roomA   models.Room
	roomB   models.Room
	classA  models.ClassSection
	classB  models.ClassSection
}

func newSlotFixture(t *testing.T) *slotFixture {
	t.Helper()
	db := newMemDB()
	program := db.seedProgram("SCI", true)
	year := db.seedAcademicYear("2024/2025", "2024-07-01", "2025-06-30")
	semester := db.seedSemester(program.ID, year.ID, "2024-08-26", "2024-12-15")
	metrics := newRecordingMetrics()
	return &slotFixture{
		db:      db,
		checker: NewScheduleConflictChecker(DefaultSlotRules(), metrics, nil),
		metrics: metrics,
		roomA:   db.seedRoom("A101", 30),
		roomB:   db.seedRoom("B202", 40),
		classA:  db.seedClass("X-1", semester.ID),
		classB:  db.seedClass("X-2", semester.ID),
	}
}

func slotAt(classID, roomID int64, day models.DayOfWeek, start, end string) models.ScheduleSlot {
	return models.ScheduleSlot{
		ClassID:   classID,
		RoomID:    roomID,
		DayOfWeek: day,
		StartTime: interval.MustParseTimeOfDay(start),
		EndTime:   interval.MustParseTimeOfDay(end),
		Active:    true,
	}
}

func (f *slotFixture) create(slot models.ScheduleSlot) (*models.ScheduleSlot, error) {
	var created *models.ScheduleSlot
	err := f.db.WithinTx(context.Background(), func(ctx context.Context, store storage.Storage) error {
		var err error
		created, err = f.checker.CreateSlot(ctx, store, slot)
		return err
	})
	return created, err
}

func (f *slotFixture) update(id int64, patch models.ScheduleSlotPatch) (*models.ScheduleSlot, error) {
	var updated *models.ScheduleSlot
	err := f.db.WithinTx(context.Background(), func(ctx context.Context, store storage.Storage) error {
		var err error
		updated, err = f.checker.UpdateSlot(ctx, store, id, patch)
		return err
	})
	return updated, err
}

func timePtr(raw string) *interval.TimeOfDay {
	v := interval.MustParseTimeOfDay(raw)
	return &v
}

func boolPtr(v bool) *bool { return &v }

func TestCreateSlotRoomScenario(t *testing.T) {
	f := newSlotFixture(t)

	_, err := f.create(slotAt(f.classA.ID, f.roomA.ID, models.Monday, "08:00", "09:30"))
	require.NoError(t, err)

	_, err = f.create(slotAt(f.classB.ID, f.roomA.ID, models.Monday, "09:00", "10:00"))
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict))
	var conflict *models.ScheduleConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, "room already booked", conflict.Message)
	assert.Equal(t, models.ConflictDimensionRoom, conflict.Conflict.Dimension)
	assert.Equal(t, "08:00", conflict.Conflict.StartTime)

	created, err := f.create(slotAt(f.classB.ID, f.roomA.ID, models.Monday, "09:30", "11:00"))
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, 1, f.metrics.conflicts[models.ConflictDimensionRoom])
}

func TestCreateSlotClassConflict(t *testing.T) {
	f := newSlotFixture(t)

	_, err := f.create(slotAt(f.classA.ID, f.roomA.ID, models.Tuesday, "10:00", "11:00"))
	require.NoError(t, err)

	_, err = f.create(slotAt(f.classA.ID, f.roomB.ID, models.Tuesday, "10:30", "11:30"))
	var conflict *models.ScheduleConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, "class already scheduled", conflict.Message)

	_, err = f.create(slotAt(f.classA.ID, f.roomB.ID, models.Wednesday, "10:30", "11:30"))
	assert.NoError(t, err)
}

func TestCreateSlotDurationBounds(t *testing.T) {
	cases := []struct {
		name  string
		start string
		end   string
		ok    bool
	}{
		{name: "twenty minutes", start: "08:00", end: "08:20"},
		{name: "241 minutes", start: "08:00", end: "12:01"},
		{name: "end before start", start: "10:00", end: "09:00"},
		{name: "zero length", start: "10:00", end: "10:00"},
		{name: "thirty minutes", start: "08:00", end: "08:30", ok: true},
		{name: "240 minutes", start: "13:00", end: "17:00", ok: true},
		{name: "ends at midnight", start: "22:00", end: "24:00", ok: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newSlotFixture(t)
			_, err := f.create(slotAt(f.classA.ID, f.roomA.ID, models.Monday, tc.start, tc.end))
			if tc.ok {
				assert.NoError(t, err)
				return
			}
			assert.True(t, appErrors.Is(err, appErrors.ErrValidation), "got %v", err)
		})
	}
}

func TestSlotRulesAcceptMidnightOnlyAsEnd(t *testing.T) {
	rules := DefaultSlotRules()
	assert.NoError(t, rules.Validate(interval.TimeRange{Start: interval.MustParseTimeOfDay("23:00"), End: interval.EndOfDay}))

	err := rules.Validate(interval.TimeRange{Start: interval.EndOfDay, End: interval.EndOfDay + 30})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation), "got %v", err)
}

func TestCreateSlotRequiresActiveReferences(t *testing.T) {
	f := newSlotFixture(t)
	require.NoError(t, f.db.WithinTx(context.Background(), func(ctx context.Context, store storage.Storage) error {
		return store.Rooms().Deactivate(ctx, f.roomB.ID)
	}))

	_, err := f.create(slotAt(f.classA.ID, f.roomB.ID, models.Monday, "08:00", "09:00"))
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))

	_, err = f.create(slotAt(f.classA.ID, 9999, models.Monday, "08:00", "09:00"))
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))

	_, err = f.create(slotAt(9999, f.roomA.ID, models.Monday, "08:00", "09:00"))
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))

	_, err = f.create(slotAt(f.classA.ID, f.roomA.ID, models.DayOfWeek("SATURDAY"), "08:00", "09:00"))
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestCreateSlotTakesSortedLocks(t *testing.T) {
	f := newSlotFixture(t)
	_, err := f.create(slotAt(f.classA.ID, f.roomA.ID, models.Friday, "08:00", "09:00"))
	require.NoError(t, err)

	locks := f.db.takenLocks()
	require.Len(t, locks, 2)
	assert.Equal(t, "class:"+itoa(f.classA.ID)+":FRIDAY", locks[0])
	assert.Equal(t, "room:"+itoa(f.roomA.ID)+":FRIDAY", locks[1])
}

func TestUpdateSlotExcludesItself(t *testing.T) {
	f := newSlotFixture(t)
	slot, err := f.create(slotAt(f.classA.ID, f.roomA.ID, models.Monday, "08:00", "09:30"))
	require.NoError(t, err)

	updated, err := f.update(slot.ID, models.ScheduleSlotPatch{StartTime: timePtr("08:30"), EndTime: timePtr("10:00")})
	require.NoError(t, err)
	assert.Equal(t, "08:30", updated.StartTime.String())
	assert.Equal(t, "10:00", updated.EndTime.String())
}

func TestUpdateSlotRevalidates(t *testing.T) {
	f := newSlotFixture(t)
	_, err := f.create(slotAt(f.classA.ID, f.roomA.ID, models.Monday, "08:00", "09:30"))
	require.NoError(t, err)
	other, err := f.create(slotAt(f.classB.ID, f.roomB.ID, models.Monday, "09:00", "10:00"))
	require.NoError(t, err)

	roomA := f.roomA.ID
	_, err = f.update(other.ID, models.ScheduleSlotPatch{RoomID: &roomA})
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict))

	_, err = f.update(other.ID, models.ScheduleSlotPatch{EndTime: timePtr("09:10")})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))

	updated, err := f.update(other.ID, models.ScheduleSlotPatch{IsRecurring: boolPtr(true)})
	require.NoError(t, err)
	assert.True(t, updated.IsRecurring)

	_, err = f.update(4242, models.ScheduleSlotPatch{IsRecurring: boolPtr(true)})
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestDeactivateFreesSlotAndReactivationRechecks(t *testing.T) {
	f := newSlotFixture(t)
	first, err := f.create(slotAt(f.classA.ID, f.roomA.ID, models.Thursday, "08:00", "09:30"))
	require.NoError(t, err)

	require.NoError(t, f.db.WithinTx(context.Background(), func(ctx context.Context, store storage.Storage) error {
		return f.checker.Deactivate(ctx, store, first.ID)
	}))

	_, err = f.create(slotAt(f.classB.ID, f.roomA.ID, models.Thursday, "09:00", "10:00"))
	require.NoError(t, err)

	_, err = f.update(first.ID, models.ScheduleSlotPatch{Active: boolPtr(true)})
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict))

	snapshot := f.db.snapshot()
	assert.False(t, snapshot.slots[first.ID].Active)
}
