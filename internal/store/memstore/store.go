// Package memstore keeps every repository in process memory. Transactions
// snapshot the whole store and restore it when the callback fails, so it
// honours the same all-or-nothing contract as the Mongo repositories.
package memstore

import (
	"context"
	"maps"
	"sync"

	bookingsrepo "reservo/internal/bookings/repository"
	keysrepo "reservo/internal/keys/repository"
	resourcesrepo "reservo/internal/resources/repository"
	mongotx "reservo/pkg/db/mongo"
	"reservo/pkg/model"
)

type txKey struct{}

type Store struct {
	// txMu serializes transactions and standalone writes so a rollback can
	// never discard a write it did not make.
	txMu sync.Mutex
	mu   sync.RWMutex

	bookings  map[string]*model.Booking
	resources map[string]*model.Resource
	issues    map[string]*model.ResourceIssue
	timetable map[string]*model.TimetableEntry
	keyTxs    map[string]*model.KeyTransaction

	failMu   sync.Mutex
	failures map[string]error
}

func New() *Store {
	return &Store{
		bookings:  make(map[string]*model.Booking),
		resources: make(map[string]*model.Resource),
		issues:    make(map[string]*model.ResourceIssue),
		timetable: make(map[string]*model.TimetableEntry),
		keyTxs:    make(map[string]*model.KeyTransaction),
		failures:  make(map[string]error),
	}
}

func (s *Store) Bookings() bookingsrepo.BookingRepository {
	return &bookingRepo{s: s}
}

func (s *Store) Resources() resourcesrepo.ResourceRepository {
	return &resourceRepo{s: s}
}

func (s *Store) Issues() resourcesrepo.IssueRepository {
	return &issueRepo{s: s}
}

func (s *Store) Timetable() resourcesrepo.TimetableRepository {
	return &timetableRepo{s: s}
}

func (s *Store) KeyTransactions() keysrepo.KeyTransactionRepository {
	return &keyTxRepo{s: s}
}

// FailNext makes the next call of op return err. Ops are named
// "<repo>.<Method>", e.g. "bookings.Create".
func (s *Store) FailNext(op string, err error) {
	s.failMu.Lock()
	defer s.failMu.Unlock()
	s.failures[op] = err
}

func (s *Store) injected(op string) error {
	s.failMu.Lock()
	defer s.failMu.Unlock()
	if err, ok := s.failures[op]; ok {
		delete(s.failures, op)
		return err
	}
	return nil
}

// ExecuteTransaction runs fn against a snapshot it restores on error. The
// store has a single writer: every transaction, on any resource or key,
// queues behind txMu.
func (s *Store) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	if inTx(ctx) {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	snap := s.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

// write runs fn under the data lock, joining the caller's transaction when
// there is one.
func (s *Store) write(ctx context.Context, op string, fn func() error) error {
	if !inTx(ctx) {
		s.txMu.Lock()
		defer s.txMu.Unlock()
	}
	if err := s.injected(op); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn()
}

func (s *Store) read(op string, fn func() error) error {
	if err := s.injected(op); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn()
}

func inTx(ctx context.Context) bool {
	v, _ := ctx.Value(txKey{}).(bool)
	return v
}

type snapshot struct {
	bookings  map[string]*model.Booking
	resources map[string]*model.Resource
	issues    map[string]*model.ResourceIssue
	timetable map[string]*model.TimetableEntry
	keyTxs    map[string]*model.KeyTransaction
}

// Stored values are never mutated in place, only replaced, so shallow map
// copies are enough.
func (s *Store) snapshot() snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshot{
		bookings:  maps.Clone(s.bookings),
		resources: maps.Clone(s.resources),
		issues:    maps.Clone(s.issues),
		timetable: maps.Clone(s.timetable),
		keyTxs:    maps.Clone(s.keyTxs),
	}
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bookings = snap.bookings
	s.resources = snap.resources
	s.issues = snap.issues
	s.timetable = snap.timetable
	s.keyTxs = snap.keyTxs
}

func paginate[T any](items []T, limit int, offset int64) []T {
	if offset >= int64(len(items)) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}
