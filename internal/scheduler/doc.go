// Package scheduler arms a single shutdown trigger and evaluates it over time.
//
// State moves Idle -> Armed -> Fired. Fired is terminal: the shutdown action is
// invoked exactly once and no further evaluation happens.
//
// Run drives evaluation from one goroutine. The next tick time comes from a
// cron.Schedule (robfig/cron): a one-shot deadline for Delay, cron.Every for
// ProcessWatch and AbsoluteTime. Ticks never overlap; a slow process listing
// delays the next tick instead of running alongside it.
package scheduler
