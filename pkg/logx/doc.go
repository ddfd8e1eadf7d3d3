// Package logx is shutdowner's logging layer: a small value-type Logger over
// zerolog whose outputs (console, JSON file, and a rate-limited remote sink
// fed to the notifier) can be swapped at runtime by Service.Apply.
package logx
