// Package trigger defines the three shutdown triggers and the validation that
// turns raw user text into their parameters.
package trigger

import (
	"fmt"
	"strings"
	"time"

	"shutdowner/internal/process"
)

const (
	MaxDelayMinutes         = 24 * 60
	MaxCheckIntervalMinutes = 30
	MaxDays                 = 99

	// Lead times between the fire decision and the actual shutdown.
	ProcessWatchLead = 60 * time.Second
	AbsoluteTimeLead = 60 * time.Second
)

type Kind string

const (
	KindDelay        Kind = "delay"
	KindProcessWatch Kind = "process_watch"
	KindAbsoluteTime Kind = "absolute_time"
)

// Trigger is one of Delay, ProcessWatch or AbsoluteTime.
// The set is closed; switch on the concrete type.
type Trigger interface {
	Kind() Kind
	// Lead is the warning window handed to the shutdown command once the trigger fires.
	Lead() time.Duration
	String() string

	isTrigger()
}

// Delay fires once Minutes have elapsed since arming.
type Delay struct {
	Minutes int
}

// ProcessWatch fires once Target is no longer running.
type ProcessWatch struct {
	Target               process.Record
	CheckIntervalMinutes int
}

// AbsoluteTime fires once the local clock reaches At.
type AbsoluteTime struct {
	At time.Time
}

func NewDelay(minutes int) (Delay, error) {
	if _, err := InRange(minutes, MaxDelayMinutes); err != nil {
		return Delay{}, fmt.Errorf("delay minutes: %w", err)
	}
	return Delay{Minutes: minutes}, nil
}

func NewProcessWatch(target process.Record, intervalMinutes int) (ProcessWatch, error) {
	if strings.TrimSpace(target.Name) == "" || strings.TrimSpace(target.PID) == "" {
		return ProcessWatch{}, fmt.Errorf("%w: target needs both name and pid", ErrValidation)
	}
	if _, err := InRange(intervalMinutes, MaxCheckIntervalMinutes); err != nil {
		return ProcessWatch{}, fmt.Errorf("check interval: %w", err)
	}
	return ProcessWatch{Target: target, CheckIntervalMinutes: intervalMinutes}, nil
}

// NewAbsoluteTime parses "<D> <HH>:<MM>" relative to now.
func NewAbsoluteTime(text string, now time.Time) (AbsoluteTime, error) {
	at, err := ParseEndDate(text, now)
	if err != nil {
		return AbsoluteTime{}, err
	}
	return AbsoluteTime{At: at}, nil
}

func (Delay) Kind() Kind        { return KindDelay }
func (ProcessWatch) Kind() Kind { return KindProcessWatch }
func (AbsoluteTime) Kind() Kind { return KindAbsoluteTime }

func (Delay) Lead() time.Duration        { return 0 }
func (ProcessWatch) Lead() time.Duration { return ProcessWatchLead }
func (AbsoluteTime) Lead() time.Duration { return AbsoluteTimeLead }

func (d Delay) Duration() time.Duration { return time.Duration(d.Minutes) * time.Minute }

func (p ProcessWatch) Interval() time.Duration {
	return time.Duration(p.CheckIntervalMinutes) * time.Minute
}

func (d Delay) String() string { return fmt.Sprintf("delay %dm", d.Minutes) }

func (p ProcessWatch) String() string {
	return fmt.Sprintf("watch %s every %dm", p.Target, p.CheckIntervalMinutes)
}

func (a AbsoluteTime) String() string { return "at " + a.At.Format("2006-01-02 15:04") }

func (Delay) isTrigger()        {}
func (ProcessWatch) isTrigger() {}
func (AbsoluteTime) isTrigger() {}
