package power

import (
	"context"
	"strings"
	"sync"
	"time"

	"shutdowner/internal/platform"
	logx "shutdowner/pkg/logx"
)

// DryRunInvoker logs what the configured backend would do and never touches the machine.
type DryRunInvoker struct {
	cfg     platform.Config
	backend string
	log     logx.Logger

	mu    sync.Mutex
	calls []string
}

func NewDryRun(cfg platform.Config, backend string, log logx.Logger) *DryRunInvoker {
	if backend == "" {
		backend = "command"
	}
	return &DryRunInvoker{cfg: cfg, backend: backend, log: log}
}

func (d *DryRunInvoker) Shutdown(_ context.Context, lead time.Duration) error {
	what := "logind PowerOff after " + lead.String()
	if d.backend != "logind" {
		what = strings.Join(d.cfg.ShutdownArgs(lead), " ")
	}
	d.record(what)
	d.log.Warn("[dry-run] would shut down", logx.String("would_run", what), logx.Duration("lead", lead))
	return nil
}

func (d *DryRunInvoker) Cancel(context.Context) error {
	what := "logind cancel pending power-off"
	if d.backend != "logind" {
		what = strings.Join(d.cfg.CancelCmd, " ")
	}
	d.record(what)
	d.log.Warn("[dry-run] would cancel shutdown", logx.String("would_run", what))
	return nil
}

func (d *DryRunInvoker) record(s string) {
	d.mu.Lock()
	d.calls = append(d.calls, s)
	d.mu.Unlock()
}

// Calls returns the command lines that would have run, in order.
func (d *DryRunInvoker) Calls() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.calls...)
}
