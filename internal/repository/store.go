package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-scheduling-core/internal/storage"
)

// QueryObserver receives transaction timings.
type QueryObserver interface {
	ObserveDBQuery(label string, duration time.Duration)
}

// Store is the Postgres implementation of storage.Storage and
// storage.Transactor. A Store created by NewStore runs each statement on its
// own; the Store handed to WithinTx callbacks is bound to the transaction.
type Store struct {
	db       *sqlx.DB
	tx       *sqlx.Tx
	observer QueryObserver

	rooms       *RoomRepository
	sections    *ClassSectionRepository
	slots       *ScheduleSlotRepository
	semesters   *SemesterRepository
	programs    *ProgramRepository
	identifiers *IdentifierRepository
}

// NewStore constructs a Store on top of a connection pool.
func NewStore(db *sqlx.DB) *Store {
	return newStore(db, nil, db)
}

func newStore(db *sqlx.DB, tx *sqlx.Tx, exec sqlx.ExtContext) *Store {
	return &Store{
		db:          db,
		tx:          tx,
		rooms:       NewRoomRepository(exec),
		sections:    NewClassSectionRepository(exec),
		slots:       NewScheduleSlotRepository(exec),
		semesters:   NewSemesterRepository(exec),
		programs:    NewProgramRepository(exec),
		identifiers: NewIdentifierRepository(exec),
	}
}

// WithObserver attaches a timing observer for transactions.
func (s *Store) WithObserver(observer QueryObserver) *Store {
	s.observer = observer
	return s
}

// Rooms implements storage.Storage.
func (s *Store) Rooms() storage.RoomStore { return s.rooms }

// ClassSections implements storage.Storage.
func (s *Store) ClassSections() storage.ClassSectionStore { return s.sections }

// Slots implements storage.Storage.
func (s *Store) Slots() storage.SlotStore { return s.slots }

// Semesters implements storage.Storage.
func (s *Store) Semesters() storage.SemesterStore { return s.semesters }

// Programs implements storage.Storage.
func (s *Store) Programs() storage.ProgramStore { return s.programs }

// Identifiers implements storage.Storage.
func (s *Store) Identifiers() storage.IdentifierStore { return s.identifiers }

// Lock takes a transaction-scoped Postgres advisory lock keyed by the hash of key.
func (s *Store) Lock(ctx context.Context, key string) error {
	if s.tx == nil {
		return storage.ErrNoTransaction
	}
	if _, err := s.tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key); err != nil {
		return fmt.Errorf("advisory lock %s: %w", key, err)
	}
	return nil
}

// WithinTx runs fn inside a READ COMMITTED transaction. Calls made on a Store
// that is already transactional join the running transaction.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, store storage.Storage) error) (err error) {
	if s.tx != nil {
		return fn(ctx, s)
	}

	start := time.Now()
	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
		if s.observer != nil {
			s.observer.ObserveDBQuery("tx", time.Since(start))
		}
	}()

	if err = fn(ctx, newStore(s.db, tx, tx)); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", translate(err))
	}
	return nil
}
