package process

import (
	"context"
	"fmt"
	"time"

	"shutdowner/internal/platform"
	logx "shutdowner/pkg/logx"
)

// Source takes a fresh snapshot of running processes.
// Failures wrap ErrListingUnavailable.
type Source interface {
	Snapshot(ctx context.Context) (Snapshot, error)
}

// CommandSource runs the platform listing command (tasklist / ps) and parses its output.
type CommandSource struct {
	cfg     platform.Config
	exec    platform.Executor
	timeout time.Duration
	log     logx.Logger
}

func NewCommandSource(cfg platform.Config, exec platform.Executor, timeout time.Duration, log logx.Logger) *CommandSource {
	if exec == nil {
		exec = platform.RealExecutor{}
	}
	return &CommandSource{cfg: cfg, exec: exec, timeout: timeout, log: log.With(logx.String("comp", "process"))}
}

func (s *CommandSource) Snapshot(ctx context.Context) (Snapshot, error) {
	if len(s.cfg.ListCmd) == 0 {
		return Snapshot{}, fmt.Errorf("%w: no listing command for %s", ErrListingUnavailable, s.cfg.Family)
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	out, err := s.exec.Run(ctx, s.cfg.ListCmd[0], s.cfg.ListCmd[1:]...)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrListingUnavailable, err)
	}

	snap, bad := Parse(string(out), s.cfg.Family, s.cfg.HeaderLines)
	for _, le := range bad {
		s.log.Warn("skipping malformed listing line", logx.Int("line", le.Line), logx.String("text", le.Text))
	}
	return snap, nil
}
