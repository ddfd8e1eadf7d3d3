package scheduler

import (
	"time"

	"github.com/robfig/cron/v3"

	"shutdowner/internal/trigger"
)

// deadlineSchedule yields a single instant. Once t reaches it, Next returns t
// so an evaluation that finds the deadline passed runs immediately.
type deadlineSchedule struct {
	at time.Time
}

func (s deadlineSchedule) Next(t time.Time) time.Time {
	if t.Before(s.at) {
		return s.at
	}
	return t
}

// scheduleFor returns the tick schedule for tr and the time of its first tick.
func scheduleFor(tr trigger.Trigger, armedAt time.Time) (cron.Schedule, time.Time) {
	switch t := tr.(type) {
	case trigger.Delay:
		at := armedAt.Add(t.Duration())
		return deadlineSchedule{at: at}, at
	case trigger.ProcessWatch:
		// tick 0 runs at arm time, not after the first interval
		return cron.Every(t.Interval()), armedAt
	case trigger.AbsoluteTime:
		return cron.Every(time.Minute), armedAt
	default:
		return cron.Every(time.Minute), armedAt
	}
}
