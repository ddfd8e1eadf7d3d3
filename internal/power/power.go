// Package power starts and cancels a machine shutdown.
package power

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"shutdowner/internal/platform"
	logx "shutdowner/pkg/logx"
)

// ErrInvocationFailed means the shutdown (or cancel) request could not be issued.
var ErrInvocationFailed = errors.New("power: invocation failed")

// Invoker issues shutdown requests. Shutdown is called at most once per run
// with the warning window the machine should give before powering off.
type Invoker interface {
	Shutdown(ctx context.Context, lead time.Duration) error
	Cancel(ctx context.Context) error
}

type Options struct {
	// Backend is "command" (default) or "logind".
	Backend  string
	DryRun   bool
	Platform platform.Config
	Exec     platform.Executor
	Log      logx.Logger
}

// New builds the Invoker selected by opts. DryRun wraps nothing: it replaces
// the backend and only logs.
func New(opts Options) (Invoker, error) {
	log := opts.Log
	if log.IsZero() {
		log = logx.Nop()
	}
	log = log.With(logx.String("comp", "power"))

	backend := strings.ToLower(strings.TrimSpace(opts.Backend))
	if opts.DryRun {
		return NewDryRun(opts.Platform, backend, log), nil
	}
	switch backend {
	case "", "command":
		return NewCommand(opts.Platform, opts.Exec, log), nil
	case "logind":
		inv, err := NewLogind(log)
		if err != nil {
			return nil, err
		}
		return inv, nil
	default:
		return nil, fmt.Errorf("power: unknown backend %q", opts.Backend)
	}
}
