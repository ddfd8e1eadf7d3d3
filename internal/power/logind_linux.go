//go:build linux

package power

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"

	logx "shutdowner/pkg/logx"
)

const (
	logindDest    = "org.freedesktop.login1"
	logindPath    = dbus.ObjectPath("/org/freedesktop/login1")
	logindManager = "org.freedesktop.login1.Manager"
)

// logindBus is the part of the login1 Manager interface the invoker calls.
type logindBus interface {
	CanPowerOff(ctx context.Context) (string, error)
	PowerOff(ctx context.Context) error
	Close() error
}

type dialFunc func(ctx context.Context) (logindBus, error)

type systemBus struct {
	conn *dbus.Conn
	obj  dbus.BusObject
}

func dialSystemBus(ctx context.Context) (logindBus, error) {
	conn, err := dbus.ConnectSystemBus(dbus.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	return &systemBus{conn: conn, obj: conn.Object(logindDest, logindPath)}, nil
}

func (b *systemBus) CanPowerOff(ctx context.Context) (string, error) {
	var answer string
	err := b.obj.CallWithContext(ctx, logindManager+".CanPowerOff", 0).Store(&answer)
	return answer, err
}

func (b *systemBus) PowerOff(ctx context.Context) error {
	// interactive=false: never wait on a polkit prompt
	return b.obj.CallWithContext(ctx, logindManager+".PowerOff", 0, false).Err
}

func (b *systemBus) Close() error { return b.conn.Close() }

// LogindInvoker powers the machine off through systemd-logind over D-Bus.
//
// logind has no lead-time argument here, so the invoker waits out the lead
// itself. Cancel aborts a pending wait; once PowerOff is sent it cannot be undone.
type LogindInvoker struct {
	log  logx.Logger
	dial dialFunc

	mu      sync.Mutex
	pending chan struct{}
}

func NewLogind(log logx.Logger) (*LogindInvoker, error) {
	return newLogind(context.Background(), log, dialSystemBus)
}

// newLogind fails early when the bus is unreachable or logind refuses power-off.
func newLogind(ctx context.Context, log logx.Logger, dial dialFunc) (*LogindInvoker, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	bus, err := dial(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: logind: %v", ErrInvocationFailed, err)
	}
	defer bus.Close()
	answer, err := bus.CanPowerOff(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: logind: CanPowerOff: %v", ErrInvocationFailed, err)
	}
	switch answer {
	case "yes", "challenge":
	default:
		return nil, fmt.Errorf("%w: logind: power-off not permitted (%s)", ErrInvocationFailed, answer)
	}
	return &LogindInvoker{log: log, dial: dial}, nil
}

func (l *LogindInvoker) Shutdown(ctx context.Context, lead time.Duration) error {
	abort := make(chan struct{})
	l.mu.Lock()
	l.pending = abort
	l.mu.Unlock()
	defer func() {
		l.mu.Lock()
		if l.pending == abort {
			l.pending = nil
		}
		l.mu.Unlock()
	}()

	if lead > 0 {
		l.log.Info("power-off scheduled", logx.Duration("lead", lead))
		t := time.NewTimer(lead)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: logind: %v", ErrInvocationFailed, ctx.Err())
		case <-abort:
			l.log.Info("pending power-off canceled")
			return nil
		case <-t.C:
		}
	}

	bus, err := l.dial(ctx)
	if err != nil {
		return fmt.Errorf("%w: logind: %v", ErrInvocationFailed, err)
	}
	defer bus.Close()
	l.log.Info("requesting power-off from logind")
	if err := bus.PowerOff(ctx); err != nil {
		return fmt.Errorf("%w: logind: PowerOff: %v", ErrInvocationFailed, err)
	}
	return nil
}

func (l *LogindInvoker) Cancel(context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.pending == nil {
		l.log.Info("no pending power-off to cancel")
		return nil
	}
	close(l.pending)
	l.pending = nil
	return nil
}
