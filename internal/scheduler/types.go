package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"shutdowner/internal/trigger"
)

var (
	ErrNotArmed     = errors.New("scheduler: no trigger armed")
	ErrAlreadyArmed = errors.New("scheduler: trigger already armed")
	ErrFired        = errors.New("scheduler: trigger already fired")
	ErrStopped      = errors.New("scheduler: stopped")
	ErrRunning      = errors.New("scheduler: already running")
)

type State int32

const (
	Idle State = iota
	Armed
	Fired
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Armed:
		return "armed"
	case Fired:
		return "fired"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// MatchMode selects how AbsoluteTime compares the clock with its target.
type MatchMode int

const (
	// MatchCalendar fires once now >= At.
	MatchCalendar MatchMode = iota
	// MatchDayOfMonth fires when day-of-month and hour equal the target and the
	// minute is >= the target minute. It ignores month and year, so a target
	// more than a month out can fire early, and a missed hour is never caught up.
	MatchDayOfMonth
)

func (m MatchMode) String() string {
	if m == MatchDayOfMonth {
		return "day_of_month"
	}
	return "calendar"
}

func ParseMatchMode(s string) (MatchMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "calendar":
		return MatchCalendar, nil
	case "day_of_month":
		return MatchDayOfMonth, nil
	default:
		return MatchCalendar, fmt.Errorf("scheduler: unknown match mode %q", s)
	}
}

// Clock is the wall clock the scheduler reads. Tests replace it.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time                         { return time.Now() }
func (SystemClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// Invoker issues the native shutdown. power.CommandInvoker and friends satisfy it.
type Invoker interface {
	Shutdown(ctx context.Context, lead time.Duration) error
}

// Outcome describes one evaluation.
type Outcome struct {
	Fired bool
	Lead  time.Duration

	// Transient is set when the process listing failed; the trigger stays armed.
	Transient bool
	Cause     error
}

// Stats is a point-in-time copy of scheduler-owned state.
type Stats struct {
	State   State
	Trigger trigger.Trigger

	Ticks            uint64
	LastSnapshotSize int

	// ListingFailures counts consecutive failures; it resets on a good snapshot.
	ListingFailures      int
	TotalListingFailures int

	ArmedAt  time.Time
	FiredAt  time.Time
	NextTick time.Time
}
