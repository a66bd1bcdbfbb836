// Package memory is an in-process core.Store. It backs development runs
// (STORE_DRIVER=memory) and the service tests.
//
// Filtering is a full scan through core.PartFilter.Matches. Unique part
// numbers, category names, usernames and emails are enforced on write the
// way the Postgres unique indexes are.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/JonMunkholm/PartsInventory/internal/core"
)

type state struct {
	parts      map[int64]core.Part
	numbers    map[string]int64 // part number -> id
	categories map[int64]core.Category
	users      map[int64]core.User
	audit      []core.AuditEntry

	nextPartID     int64
	nextCategoryID int64
	nextUserID     int64

	// undo is non-nil while a transaction is open. Each map write pushes
	// the step that puts the old entry back.
	undo []func()
}

// remember journals the current value of m[k] before it is overwritten or
// deleted.
func remember[K comparable, V any](st *state, m map[K]V, k K) {
	if st.undo == nil {
		return
	}
	prev, ok := m[k]
	st.undo = append(st.undo, func() {
		if ok {
			m[k] = prev
		} else {
			delete(m, k)
		}
	})
}

// begin opens the journal and returns the rollback for it. Counters and
// the audit log are append-only inside a transaction, so restoring their
// saved values is enough.
func (st *state) begin() (rollback func()) {
	saved := *st
	st.undo = make([]func(), 0, 8)
	return func() {
		for i := len(st.undo) - 1; i >= 0; i-- {
			st.undo[i]()
		}
		clear(st.audit[len(saved.audit):])
		st.audit = st.audit[:len(saved.audit)]
		st.nextPartID = saved.nextPartID
		st.nextCategoryID = saved.nextCategoryID
		st.nextUserID = saved.nextUserID
	}
}

func (st *state) setPart(p core.Part) {
	if old, ok := st.parts[p.ID]; ok && old.PartNumber != p.PartNumber {
		remember(st, st.numbers, old.PartNumber)
		delete(st.numbers, old.PartNumber)
	}
	remember(st, st.parts, p.ID)
	remember(st, st.numbers, p.PartNumber)
	st.parts[p.ID] = p
	st.numbers[p.PartNumber] = p.ID
}

func (st *state) removePart(id int64) {
	old, ok := st.parts[id]
	if !ok {
		return
	}
	remember(st, st.parts, id)
	remember(st, st.numbers, old.PartNumber)
	delete(st.parts, id)
	delete(st.numbers, old.PartNumber)
}

func (st *state) setCategory(c core.Category) {
	remember(st, st.categories, c.ID)
	st.categories[c.ID] = c
}

func (st *state) removeCategory(id int64) {
	remember(st, st.categories, id)
	delete(st.categories, id)
}

func (st *state) setUser(u core.User) {
	remember(st, st.users, u.ID)
	st.users[u.ID] = u
}

func (st *state) removeUser(id int64) {
	remember(st, st.users, id)
	delete(st.users, id)
}

// Store is safe for concurrent use. InTx writes in place under the write
// lock and undoes its journal when fn fails or panics.
type Store struct {
	mu *sync.RWMutex
	st *state
	tx bool
}

var _ core.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		mu: &sync.RWMutex{},
		st: &state{
			parts:      map[int64]core.Part{},
			numbers:    map[string]int64{},
			categories: map[int64]core.Category{},
			users:      map[int64]core.User{},
		},
	}
}

// rlock takes the read lock unless s is a transaction view, which already
// holds the write lock.
func (s *Store) rlock() func() {
	if s.tx {
		return func() {}
	}
	s.mu.RLock()
	return s.mu.RUnlock
}

func (s *Store) lock() func() {
	if s.tx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) InTx(ctx context.Context, fn func(tx core.Store) error) error {
	if s.tx {
		return fn(s)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rollback := s.st.begin()
	committed := false
	defer func() {
		if !committed {
			rollback()
		}
		s.st.undo = nil
	}()

	if err := fn(&Store{mu: s.mu, st: s.st, tx: true}); err != nil {
		return err
	}
	committed = true
	return nil
}

func notFound(entity string, id any) error {
	return fmt.Errorf("%s %v %w", entity, id, core.ErrNotFound)
}

func duplicate(what, value string) error {
	return fmt.Errorf("%w: %s already exists: %s", core.ErrConflict, what, value)
}
