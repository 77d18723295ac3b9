// Package scheduler provides the delayed-callback capability behind turn
// timers. The dispatcher schedules by name; exactly one timer per name is
// ever pending, and stale names are simply never scheduled again.
package scheduler

import (
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
)

// Payload identifies the turn a timer was armed for. The handler compares
// it against current state and no-ops when the turn has moved on.
type Payload struct {
	GameCode    string `json:"game_code"`
	Seat        int    `json:"seat"`
	TrickNumber int    `json:"trick_number"`
}

// Name returns the schedule name for a turn: turn-<code>-<trick>-<seat>
func Name(gameCode string, trickNumber, seat int) string {
	return fmt.Sprintf("turn-%s-%d-%d", gameCode, trickNumber, seat)
}

// Scheduler is the contract the dispatcher consumes
type Scheduler interface {
	Schedule(name string, fireAt time.Time, payload Payload)
	Cancel(name string)
}

// Handler receives a fired timer's payload
type Handler func(payload Payload)

// InProcess runs timers on a quartz clock inside the server process.
// Scheduling a name that is already pending is a no-op.
type InProcess struct {
	clock   quartz.Clock
	logger  *log.Logger
	mu      sync.Mutex
	handler Handler
	timers  map[string]*quartz.Timer
}

// NewInProcess creates a scheduler on the given clock
func NewInProcess(clock quartz.Clock, logger *log.Logger) *InProcess {
	return &InProcess{
		clock:  clock,
		logger: logger.WithPrefix("scheduler"),
		timers: make(map[string]*quartz.Timer),
	}
}

// SetHandler wires the fire callback. Must be called before any Schedule.
func (s *InProcess) SetHandler(h Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handler = h
}

// Schedule arms a timer for fireAt unless one with the same name is pending
func (s *InProcess) Schedule(name string, fireAt time.Time, payload Payload) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, pending := s.timers[name]; pending {
		return
	}

	delay := fireAt.Sub(s.clock.Now())
	if delay < 0 {
		delay = 0
	}

	s.logger.Debug("Scheduling turn timer", "name", name, "in", delay)
	s.timers[name] = s.clock.AfterFunc(delay, func() {
		s.mu.Lock()
		delete(s.timers, name)
		handler := s.handler
		s.mu.Unlock()

		if handler != nil {
			handler(payload)
		}
	})
}

// Cancel stops a pending timer; unknown names are ignored
func (s *InProcess) Cancel(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if timer, ok := s.timers[name]; ok {
		timer.Stop()
		delete(s.timers, name)
	}
}

// Pending returns the number of armed timers, for tests
func (s *InProcess) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}
