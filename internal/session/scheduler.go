// internal/session/scheduler.go
//
// Delayed-continuation scheduling for the session state machine.
//
// Responsibilities:
//   - Scheduler interface used for the wrong-answer reveal animation and
//     the level-up dwell.
//   - Production implementation backed by time.AfterFunc.
//   - Manual implementation for tests, advanced by hand so timed
//     behavior runs deterministically.

package session

import (
	"sort"
	"sync"
	"time"
)

// Scheduler runs fn once after d has elapsed. The returned cancel
// function stops the callback if it has not fired yet.
type Scheduler interface {
	After(d time.Duration, fn func()) (cancel func())
}

type timerScheduler struct{}

// NewScheduler returns the production Scheduler.
func NewScheduler() Scheduler { return timerScheduler{} }

func (timerScheduler) After(d time.Duration, fn func()) func() {
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}

// Manual is a hand-cranked Scheduler for tests. Callbacks fire inside
// Advance, on the calling goroutine, in due-time order.
type Manual struct {
	mu   sync.Mutex
	now  time.Duration
	next int
	pend []*manualEntry
}

type manualEntry struct {
	id  int
	due time.Duration
	fn  func()
}

// NewManual returns a Manual scheduler starting at time zero.
func NewManual() *Manual { return &Manual{} }

func (m *Manual) After(d time.Duration, fn func()) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := &manualEntry{id: m.next, due: m.now + d, fn: fn}
	m.next++
	m.pend = append(m.pend, e)
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		for i, p := range m.pend {
			if p.id == e.id {
				m.pend = append(m.pend[:i], m.pend[i+1:]...)
				return
			}
		}
	}
}

// Advance moves the clock forward and fires every callback that comes
// due, including callbacks scheduled by earlier callbacks within the
// same window.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	m.now += d
	m.mu.Unlock()
	for {
		fn := m.pop()
		if fn == nil {
			return
		}
		fn()
	}
}

// Pending reports how many callbacks are still scheduled.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pend)
}

func (m *Manual) pop() func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	sort.SliceStable(m.pend, func(i, j int) bool { return m.pend[i].due < m.pend[j].due })
	if len(m.pend) == 0 || m.pend[0].due > m.now {
		return nil
	}
	fn := m.pend[0].fn
	m.pend = m.pend[1:]
	return fn
}
