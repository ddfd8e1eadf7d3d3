package power

import (
	"context"
	"fmt"
	"strings"
	"time"

	"shutdowner/internal/platform"
	logx "shutdowner/pkg/logx"
)

// CommandInvoker runs the native shutdown command for the resolved platform
// (shutdown /s /t N on Windows, shutdown -h +N on Unix).
type CommandInvoker struct {
	cfg  platform.Config
	exec platform.Executor
	log  logx.Logger
}

func NewCommand(cfg platform.Config, exec platform.Executor, log logx.Logger) *CommandInvoker {
	if exec == nil {
		exec = platform.RealExecutor{}
	}
	return &CommandInvoker{cfg: cfg, exec: exec, log: log}
}

func (c *CommandInvoker) Shutdown(ctx context.Context, lead time.Duration) error {
	if len(c.cfg.ShutdownCmd) == 0 {
		return fmt.Errorf("%w: no shutdown command for %s", ErrInvocationFailed, c.cfg.Family)
	}
	return c.run(ctx, c.cfg.ShutdownArgs(lead))
}

func (c *CommandInvoker) Cancel(ctx context.Context) error {
	if len(c.cfg.CancelCmd) == 0 {
		return fmt.Errorf("%w: no cancel command for %s", ErrInvocationFailed, c.cfg.Family)
	}
	return c.run(ctx, c.cfg.CancelCmd)
}

func (c *CommandInvoker) run(ctx context.Context, argv []string) error {
	line := strings.Join(argv, " ")
	c.log.Info("running", logx.String("cmd", line))
	out, err := c.exec.Run(ctx, argv[0], argv[1:]...)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvocationFailed, line, err)
	}
	if msg := strings.TrimSpace(string(out)); msg != "" {
		c.log.Debug("command output", logx.String("cmd", line), logx.String("out", msg))
	}
	return nil
}
