package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-scheduling-core/internal/models"
	"github.com/noah-isme/sma-scheduling-core/internal/storage"
	appErrors "github.com/noah-isme/sma-scheduling-core/pkg/errors"
)

const (
	// DefaultIdentifierAttempts bounds the allocate-and-insert retry loop.
	DefaultIdentifierAttempts = 3
	identifierSeqDigits       = 4
	identifierSeqMax          = 9999
)

var prefixPattern = regexp.MustCompile(`^[a-z]$`)

// Identifier attempt outcomes reported to metrics.
const (
	identifierOutcomeIssued    = "issued"
	identifierOutcomeRetry     = "retry"
	identifierOutcomeExhausted = "exhausted"
)

// PersistFunc stores a record that carries a freshly allocated code. It runs
// in the allocation transaction, so a failure releases the code as well.
type PersistFunc func(ctx context.Context, store storage.Storage, code string) error

// errCandidateTaken marks an attempt whose candidate was already issued.
var errCandidateTaken = errors.New("identifier candidate already issued")

// IdentifierAllocator issues year-scoped sequential codes such as t20250007.
type IdentifierAllocator struct {
	tx          storage.Transactor
	maxAttempts int
	metrics     schedulingMetrics
	logger      *zap.Logger
	now         func() time.Time
}

// NewIdentifierAllocator builds an allocator. maxAttempts below one falls back to the default.
func NewIdentifierAllocator(tx storage.Transactor, maxAttempts int, metrics schedulingMetrics, logger *zap.Logger) *IdentifierAllocator {
	if maxAttempts < 1 {
		maxAttempts = DefaultIdentifierAttempts
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IdentifierAllocator{
		tx:          tx,
		maxAttempts: maxAttempts,
		metrics:     metricsOrNop(metrics),
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Allocate issues the next code for prefix and year.
func (a *IdentifierAllocator) Allocate(ctx context.Context, prefix string, year int) (string, error) {
	issued, err := a.AllocateWith(ctx, prefix, year, nil)
	if err != nil {
		return "", err
	}
	return issued.Value, nil
}

// AllocateWith issues the next code and runs persist inside the same
// transaction. It returns the ledger row as inserted. Every attempt uses a
// fresh transaction because a failed insert aborts the one it ran in.
func (a *IdentifierAllocator) AllocateWith(ctx context.Context, prefix string, year int, persist PersistFunc) (*models.IssuedIdentifier, error) {
	if !prefixPattern.MatchString(prefix) {
		return nil, validationErrorf("prefix must be a single lowercase letter")
	}
	if year < 1000 || year > 9999 {
		return nil, validationErrorf("year must have four digits")
	}

	var lastErr error
	for attempt := 1; attempt <= a.maxAttempts; attempt++ {
		var issued *models.IssuedIdentifier
		err := a.tx.WithinTx(ctx, func(ctx context.Context, store storage.Storage) error {
			candidate, err := a.issue(ctx, store, prefix, year)
			if err != nil {
				return err
			}
			if persist != nil {
				if err := persist(ctx, store, candidate.Value); err != nil {
					return err
				}
			}
			issued = candidate
			return nil
		})
		if err == nil {
			a.metrics.RecordIdentifierAttempt(identifierOutcomeIssued)
			return issued, nil
		}
		if !retryable(err) {
			return nil, internalError(err, "allocate identifier")
		}

		lastErr = err
		a.metrics.RecordIdentifierAttempt(identifierOutcomeRetry)
		a.logger.Warn("identifier allocation collided",
			zap.String("prefix", prefix),
			zap.Int("year", year),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		if ctx.Err() != nil {
			return nil, internalError(ctx.Err(), "allocate identifier")
		}
	}

	a.metrics.RecordIdentifierAttempt(identifierOutcomeExhausted)
	a.metrics.RecordConflict(models.ConflictDimensionIdentity)
	message := fmt.Sprintf("could not allocate identifier for %s%d after %d attempts", prefix, year, a.maxAttempts)
	return nil, appErrors.Wrap(lastErr, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, message)
}

func (a *IdentifierAllocator) issue(ctx context.Context, store storage.Storage, prefix string, year int) (*models.IssuedIdentifier, error) {
	scope := fmt.Sprintf("%s%04d", prefix, year)
	if err := store.Lock(ctx, "identifier:"+scope); err != nil {
		return nil, err
	}

	existing, err := store.Identifiers().FindByPrefix(ctx, prefix, year)
	if err != nil {
		return nil, err
	}
	seq := nextSequence(scope, existing)
	if seq > identifierSeqMax {
		a.metrics.RecordConflict(models.ConflictDimensionIdentity)
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("identifier space for %s is exhausted", scope))
	}

	candidate := fmt.Sprintf("%s%0*d", scope, identifierSeqDigits, seq)
	taken, err := store.Identifiers().Exists(ctx, candidate)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, errCandidateTaken
	}

	issued := &models.IssuedIdentifier{
		Value:    candidate,
		Prefix:   prefix,
		Year:     year,
		Seq:      seq,
		IssuedAt: a.now(),
	}
	if err := store.Identifiers().Insert(ctx, issued); err != nil {
		return nil, err
	}
	return issued, nil
}

// nextSequence returns one past the highest trailing sequence among values
// in scope. Values that do not parse are ignored.
func nextSequence(scope string, values []string) int {
	max := 0
	for _, value := range values {
		if len(value) != len(scope)+identifierSeqDigits || value[:len(scope)] != scope {
			continue
		}
		seq, err := strconv.Atoi(value[len(scope):])
		if err != nil {
			continue
		}
		if seq > max {
			max = seq
		}
	}
	return max + 1
}

func retryable(err error) bool {
	return errors.Is(err, storage.ErrUniqueViolation) || errors.Is(err, errCandidateTaken)
}
