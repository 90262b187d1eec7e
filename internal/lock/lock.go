// Package lock serializes conflicting mutations per account. Every
// mutation path acquires the locks for the accounts it touches before
// writing to the store; read paths never lock.
package lock

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/iho/fintrack/internal/domain"
)

// DefaultTimeout bounds how long a mutation may wait for its locks
// before failing with ErrBusy.
const DefaultTimeout = 3 * time.Second

type accountLock struct {
	sem  chan struct{}
	refs int
}

// Manager hands out exclusive per-account locks. Multi-account
// acquisition sorts the ids first, so two transfers touching the same
// accounts always lock in the same order and cannot deadlock.
type Manager struct {
	timeout time.Duration

	mu    sync.Mutex
	locks map[string]*accountLock
}

// NewManager creates a Manager with the given acquisition timeout.
// A non-positive timeout falls back to DefaultTimeout.
func NewManager(timeout time.Duration) *Manager {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Manager{
		timeout: timeout,
		locks:   make(map[string]*accountLock),
	}
}

// Acquire takes exclusive locks for all given account ids and returns
// a release function. The wait is bounded: if the locks cannot all be
// taken within the manager's timeout, already-held locks are returned
// and the call fails with domain.ErrBusy. Cancelling ctx before
// acquisition completes likewise leaves no locks held.
func (m *Manager) Acquire(ctx context.Context, ids ...string) (func(), error) {
	keys := dedupeSorted(ids)

	deadline := time.NewTimer(m.timeout)
	defer deadline.Stop()

	held := make([]string, 0, len(keys))

	for _, id := range keys {
		l := m.retain(id)

		select {
		case l.sem <- struct{}{}:
			held = append(held, id)
		case <-deadline.C:
			m.releaseKey(id, false)
			m.releaseAll(held)

			return nil, domain.ErrBusy
		case <-ctx.Done():
			m.releaseKey(id, false)
			m.releaseAll(held)

			return nil, ctx.Err()
		}
	}

	var once sync.Once
	release := func() {
		once.Do(func() {
			m.releaseAll(held)
		})
	}

	return release, nil
}

// retain returns the lock for id, creating it on first use.
func (m *Manager) retain(id string) *accountLock {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.locks[id]
	if !ok {
		l = &accountLock{sem: make(chan struct{}, 1)}
		m.locks[id] = l
	}

	l.refs++

	return l
}

// releaseKey drops one reference to id, draining its semaphore first
// when the caller actually held it. Lock entries are removed once the
// last reference is gone so the map does not grow unboundedly.
func (m *Manager) releaseKey(id string, heldToken bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.locks[id]
	if !ok {
		return
	}

	if heldToken {
		<-l.sem
	}

	l.refs--
	if l.refs == 0 {
		delete(m.locks, id)
	}
}

func (m *Manager) releaseAll(held []string) {
	// Release in reverse acquisition order.
	for i := len(held) - 1; i >= 0; i-- {
		m.releaseKey(held[i], true)
	}
}

func dedupeSorted(ids []string) []string {
	seen := make(map[string]bool, len(ids))

	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}

		seen[id] = true
		keys = append(keys, id)
	}

	sort.Strings(keys)

	return keys
}
