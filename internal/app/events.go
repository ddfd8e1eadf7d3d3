package app

import (
	"context"
	"time"

	"shutdowner/internal/eventbus"
	"shutdowner/internal/notifier"
	"shutdowner/internal/storage"
	logx "shutdowner/pkg/logx"
)

// consume observes scheduler events until the subscription is closed.
// It never blocks on ctx so that events published right before the run
// ends (fired, shutdown failed) are still recorded.
func (a *App) consume(events <-chan eventbus.Event) {
	for e := range events {
		// Keep this debug-level; process watches tick for hours.
		a.log.Debug("event", logx.String("type", e.Type), logx.Time("time", e.Time))

		if e.Type != eventbus.TypeTick {
			a.appendHistory(entryFromEvent(e, a.dryRun))
		}
		if a.notif.Enabled() {
			if n, ok := notifier.FromEvent(a.host, e); ok {
				if err := a.notif.Notify(n); err != nil {
					a.log.Debug("notification dropped", logx.String("type", e.Type), logx.Err(err))
				}
			}
		}
		a.notifySystemd(e)
	}
}

func entryFromEvent(e eventbus.Event, dryRun bool) storage.Entry {
	return storage.Entry{
		At:      e.Time,
		Event:   e.Type,
		Kind:    e.Data.Kind,
		Summary: e.Data.Summary,
		Tick:    e.Data.Tick,
		LeadMS:  e.Data.Lead.Milliseconds(),
		DryRun:  dryRun,
		Error:   e.Data.Error,
	}
}

func (a *App) appendHistory(entry storage.Entry) {
	if a.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.store.Append(ctx, entry); err != nil {
		a.log.Warn("history append failed", logx.String("event", entry.Event), logx.Err(err))
	}
}
