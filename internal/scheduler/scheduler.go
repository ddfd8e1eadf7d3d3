package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"shutdowner/internal/eventbus"
	"shutdowner/internal/process"
	"shutdowner/internal/trigger"
	logx "shutdowner/pkg/logx"
)

type Options struct {
	Clock   Clock
	Source  process.Source // required for ProcessWatch
	Invoker Invoker
	Match   MatchMode
	Log     logx.Logger
	Bus     eventbus.Bus // optional
}

type Scheduler struct {
	clock   Clock
	source  process.Source
	invoker Invoker
	match   MatchMode
	log     logx.Logger
	bus     eventbus.Bus

	// tickMu serializes evaluations; mu guards the fields below.
	tickMu sync.Mutex
	mu     sync.Mutex

	state    State
	trig     trigger.Trigger
	schedule cron.Schedule
	stats    Stats
	stopped  bool
	running  bool
	cancel   context.CancelFunc
}

func New(opts Options) *Scheduler {
	if opts.Clock == nil {
		opts.Clock = SystemClock{}
	}
	log := opts.Log
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Scheduler{
		clock:   opts.Clock,
		source:  opts.Source,
		invoker: opts.Invoker,
		match:   opts.Match,
		log:     log.With(logx.String("comp", "scheduler")),
		bus:     opts.Bus,
	}
}

// Arm activates tr. A scheduler arms at most once.
func (s *Scheduler) Arm(tr trigger.Trigger) error {
	if tr == nil {
		return fmt.Errorf("scheduler: nil trigger")
	}
	if _, ok := tr.(trigger.ProcessWatch); ok && s.source == nil {
		return fmt.Errorf("scheduler: process watch needs a process source")
	}
	if s.invoker == nil {
		return fmt.Errorf("scheduler: no shutdown invoker")
	}

	s.mu.Lock()
	switch s.state {
	case Armed:
		s.mu.Unlock()
		return ErrAlreadyArmed
	case Fired:
		s.mu.Unlock()
		return ErrFired
	}
	now := s.clock.Now()
	sched, first := scheduleFor(tr, now)
	s.state = Armed
	s.trig = tr
	s.schedule = sched
	s.stats = Stats{State: Armed, Trigger: tr, ArmedAt: now, NextTick: first}
	s.mu.Unlock()

	s.log.Info("trigger armed",
		logx.String("kind", string(tr.Kind())),
		logx.String("trigger", tr.String()),
		logx.Time("first_tick", first),
		logx.String("match", s.match.String()),
	)
	s.publish(eventbus.TypeArmed, 0, nil)
	return nil
}

func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Scheduler) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.stats
	st.State = s.state
	return st
}

// Stop halts polling. It is safe to call more than once and from any goroutine.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	wasStopped := s.stopped
	s.stopped = true
	cancel := s.cancel
	state := s.state
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	if !wasStopped && state == Armed {
		s.log.Info("polling stopped before firing")
		s.publish(eventbus.TypeStopped, 0, nil)
	}
}

// Tick evaluates the armed trigger once.
//
// A failed process listing is not an error: the Outcome is marked Transient
// and the trigger stays armed. The returned error is non-nil when the trigger
// is not evaluable (not armed, already fired, stopped) or when the shutdown
// invocation failed.
func (s *Scheduler) Tick(ctx context.Context) (Outcome, error) {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()

	s.mu.Lock()
	switch {
	case s.state == Idle:
		s.mu.Unlock()
		return Outcome{}, ErrNotArmed
	case s.state == Fired:
		s.mu.Unlock()
		return Outcome{}, ErrFired
	case s.stopped:
		s.mu.Unlock()
		return Outcome{}, ErrStopped
	}
	tr := s.trig
	armedAt := s.stats.ArmedAt
	s.stats.Ticks++
	tick := s.stats.Ticks
	s.mu.Unlock()

	now := s.clock.Now()
	fire := false

	switch t := tr.(type) {
	case trigger.Delay:
		fire = !now.Before(armedAt.Add(t.Duration()))
	case trigger.ProcessWatch:
		snap, err := s.source.Snapshot(ctx)
		if err != nil {
			s.mu.Lock()
			s.stats.ListingFailures++
			s.stats.TotalListingFailures++
			n := s.stats.ListingFailures
			s.mu.Unlock()
			s.log.Warn("process listing failed; retrying next tick",
				logx.Uint64("tick", tick), logx.Int("consecutive", n), logx.Err(err))
			s.publish(eventbus.TypeListingFailed, tick, err)
			return Outcome{Transient: true, Cause: err}, nil
		}
		s.mu.Lock()
		s.stats.ListingFailures = 0
		s.stats.LastSnapshotSize = snap.Len()
		s.mu.Unlock()
		fire = !snap.Contains(t.Target)
		s.log.Debug("process checked",
			logx.Uint64("tick", tick), logx.String("target", t.Target.String()),
			logx.Bool("running", !fire), logx.Int("snapshot", snap.Len()))
	case trigger.AbsoluteTime:
		fire = s.absoluteDue(now, t.At)
	default:
		return Outcome{}, fmt.Errorf("scheduler: unsupported trigger %T", tr)
	}

	if !fire {
		s.publish(eventbus.TypeTick, tick, nil)
		return Outcome{}, nil
	}
	return s.fire(ctx, tr, now, tick)
}

func (s *Scheduler) absoluteDue(now, at time.Time) bool {
	if s.match == MatchDayOfMonth {
		return now.Day() == at.Day() && now.Hour() == at.Hour() && now.Minute() >= at.Minute()
	}
	return !now.Before(at)
}

// fire moves to Fired before invoking, so no later tick can invoke again
// even if the invocation fails.
func (s *Scheduler) fire(ctx context.Context, tr trigger.Trigger, now time.Time, tick uint64) (Outcome, error) {
	lead := tr.Lead()

	s.mu.Lock()
	s.state = Fired
	s.stats.FiredAt = now
	s.stats.NextTick = time.Time{}
	cancel := s.cancel
	s.mu.Unlock()

	s.log.Info("trigger fired",
		logx.String("trigger", tr.String()), logx.Uint64("tick", tick), logx.Duration("lead", lead))

	err := s.invoker.Shutdown(ctx, lead)
	if err != nil {
		s.log.Error("shutdown invocation failed", logx.Err(err))
		s.publish(eventbus.TypeShutdownFailed, tick, err)
	} else {
		s.publish(eventbus.TypeFired, tick, nil)
	}

	// stop the run loop; nothing is evaluated after Fired
	if cancel != nil {
		cancel()
	}
	return Outcome{Fired: true, Lead: lead}, err
}

// Run evaluates the armed trigger until it fires, Stop is called, or ctx ends.
//
// It returns nil after a successful fire or Stop, the invocation error if the
// shutdown command failed, and ctx.Err() if ctx was canceled.
func (s *Scheduler) Run(ctx context.Context) error {
	s.mu.Lock()
	switch {
	case s.state == Idle:
		s.mu.Unlock()
		return ErrNotArmed
	case s.state == Fired:
		s.mu.Unlock()
		return ErrFired
	case s.running:
		s.mu.Unlock()
		return ErrRunning
	case s.stopped:
		s.mu.Unlock()
		return nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.running = true
	s.cancel = cancel
	sched := s.schedule
	next := s.stats.NextTick
	s.mu.Unlock()

	defer func() {
		cancel()
		s.mu.Lock()
		s.running = false
		s.cancel = nil
		s.mu.Unlock()
	}()

	for {
		if wait := next.Sub(s.clock.Now()); wait > 0 {
			select {
			case <-runCtx.Done():
				return s.exitErr(ctx)
			case <-s.clock.After(wait):
			}
		}
		if runCtx.Err() != nil {
			return s.exitErr(ctx)
		}

		out, err := s.Tick(runCtx)
		if out.Fired {
			return err
		}
		if err != nil {
			if errors.Is(err, ErrStopped) {
				return s.exitErr(ctx)
			}
			return err
		}

		next = sched.Next(s.clock.Now())
		s.mu.Lock()
		s.stats.NextTick = next
		s.mu.Unlock()
	}
}

func (s *Scheduler) exitErr(parent context.Context) error {
	if err := parent.Err(); err != nil {
		return err
	}
	return nil
}

func (s *Scheduler) publish(typ string, tick uint64, err error) {
	if s.bus == nil {
		return
	}
	s.mu.Lock()
	tr := s.trig
	s.mu.Unlock()
	info := eventbus.TriggerInfo{Tick: tick}
	if tr != nil {
		info.Kind = string(tr.Kind())
		info.Summary = tr.String()
		if typ == eventbus.TypeFired || typ == eventbus.TypeShutdownFailed {
			info.Lead = tr.Lead()
		}
	}
	if err != nil {
		info.Error = err.Error()
	}
	s.bus.Publish(eventbus.Event{Type: typ, Time: s.clock.Now(), Data: info})
}
