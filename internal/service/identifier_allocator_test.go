package service

import (
	"context"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-scheduling-core/internal/storage"
	appErrors "github.com/noah-isme/sma-scheduling-core/pkg/errors"
)

var identifierPattern = regexp.MustCompile(`^[a-z]\d{8}$`)

func TestAllocateSequential(t *testing.T) {
	db := newMemDB()
	allocator := NewIdentifierAllocator(db, 0, nil, nil)

	want := []string{"t20250001", "t20250002", "t20250003"}
	for _, expected := range want {
		code, err := allocator.Allocate(context.Background(), "t", 2025)
		require.NoError(t, err)
		assert.Equal(t, expected, code)
		assert.Regexp(t, identifierPattern, code)
	}

	code, err := allocator.Allocate(context.Background(), "h", 2025)
	require.NoError(t, err)
	assert.Equal(t, "h20250001", code)

	code, err = allocator.Allocate(context.Background(), "t", 2026)
	require.NoError(t, err)
	assert.Equal(t, "t20260001", code)

	assert.Contains(t, db.takenLocks(), "identifier:t2025")
}

func TestAllocateContinuesFromHighestSequence(t *testing.T) {
	db := newMemDB()
	db.seedIdentifier("t20250007")
	db.seedIdentifier("t20250003")
	db.seedIdentifier("t2025abcd")

	code, err := NewIdentifierAllocator(db, 3, nil, nil).Allocate(context.Background(), "t", 2025)
	require.NoError(t, err)
	assert.Equal(t, "t20250008", code)
}

func TestAllocateConcurrentCallersGetDistinctCodes(t *testing.T) {
	db := newMemDB()
	allocator := NewIdentifierAllocator(db, 3, nil, nil)

	const callers = 25
	var wg sync.WaitGroup
	codes := make(chan string, callers)
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			code, err := allocator.Allocate(context.Background(), "t", 2025)
			if err != nil {
				errs <- err
				return
			}
			codes <- code
		}()
	}
	wg.Wait()
	close(codes)
	close(errs)

	for err := range errs {
		t.Fatalf("unexpected allocation error: %v", err)
	}
	seen := map[string]bool{}
	for code := range codes {
		assert.False(t, seen[code], "duplicate code %s", code)
		seen[code] = true
	}
	assert.Len(t, seen, callers)
	for i := 1; i <= callers; i++ {
		assert.True(t, seen["t2025"+pad4(i)], "missing sequence %d", i)
	}
}

func TestAllocateRetriesUniqueViolations(t *testing.T) {
	db := newMemDB()
	db.identifierInsertFailures = 2
	metrics := newRecordingMetrics()

	code, err := NewIdentifierAllocator(db, 3, metrics, nil).Allocate(context.Background(), "t", 2025)
	require.NoError(t, err)
	assert.Equal(t, "t20250001", code)
	assert.Equal(t, 3, db.txCount)
	assert.Equal(t, 2, metrics.attempts[identifierOutcomeRetry])
	assert.Equal(t, 1, metrics.attempts[identifierOutcomeIssued])
}

func TestAllocateGivesUpAfterMaxAttempts(t *testing.T) {
	db := newMemDB()
	db.identifierInsertFailures = 3
	metrics := newRecordingMetrics()

	_, err := NewIdentifierAllocator(db, 3, metrics, nil).Allocate(context.Background(), "t", 2025)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict))
	assert.ErrorIs(t, err, storage.ErrUniqueViolation)
	assert.Equal(t, 3, db.txCount)
	assert.Equal(t, 1, metrics.attempts[identifierOutcomeExhausted])
	assert.Empty(t, db.snapshot().identifiers)
}

func TestAllocateSequenceExhausted(t *testing.T) {
	db := newMemDB()
	db.seedIdentifier("a20259999")

	_, err := NewIdentifierAllocator(db, 3, nil, nil).Allocate(context.Background(), "a", 2025)
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict))
	assert.Equal(t, 1, db.txCount)
}

func TestAllocateValidatesInput(t *testing.T) {
	allocator := NewIdentifierAllocator(newMemDB(), 3, nil, nil)
	cases := []struct {
		prefix string
		year   int
	}{
		{"T", 2025},
		{"tt", 2025},
		{"", 2025},
		{"1", 2025},
		{"t", 999},
		{"t", 10000},
	}
	for _, tc := range cases {
		_, err := allocator.Allocate(context.Background(), tc.prefix, tc.year)
		assert.True(t, appErrors.Is(err, appErrors.ErrValidation), "prefix=%q year=%d", tc.prefix, tc.year)
	}
}

func TestAllocateWithRollsBackOnPersistFailure(t *testing.T) {
	db := newMemDB()
	allocator := NewIdentifierAllocator(db, 3, nil, nil)

	_, err := allocator.AllocateWith(context.Background(), "t", 2025, func(ctx context.Context, store storage.Storage, code string) error {
		return appErrors.Clone(appErrors.ErrValidation, "rejected")
	})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
	assert.Empty(t, db.snapshot().identifiers)

	code, err := allocator.Allocate(context.Background(), "t", 2025)
	require.NoError(t, err)
	assert.Equal(t, "t20250001", code)
}

func TestAllocateWithReturnsInsertedRow(t *testing.T) {
	db := newMemDB()
	db.seedIdentifier("t20250004")
	allocator := NewIdentifierAllocator(db, 3, nil, nil)
	stamp := time.Date(2025, 8, 4, 7, 30, 0, 0, time.UTC)
	allocator.now = func() time.Time { return stamp }

	issued, err := allocator.AllocateWith(context.Background(), "t", 2025, nil)
	require.NoError(t, err)

	stored := db.snapshot().identifiers["t20250005"]
	assert.Equal(t, stored, *issued)
	assert.Equal(t, 5, issued.Seq)
	assert.Equal(t, stamp, issued.IssuedAt)
}

func TestNextSequence(t *testing.T) {
	assert.Equal(t, 1, nextSequence("t2025", nil))
	assert.Equal(t, 13, nextSequence("t2025", []string{"t20250012", "t20250002", "t202500123", "h20250099"}))
}
