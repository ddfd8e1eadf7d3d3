//go:build !linux

package power

import (
	"context"
	"fmt"
	"time"

	"shutdowner/internal/platform"
	logx "shutdowner/pkg/logx"
)

type LogindInvoker struct{}

func NewLogind(logx.Logger) (*LogindInvoker, error) {
	return nil, fmt.Errorf("%w: logind backend requires linux", platform.ErrUnsupportedPlatform)
}

func (*LogindInvoker) Shutdown(context.Context, time.Duration) error {
	return fmt.Errorf("%w: logind backend requires linux", ErrInvocationFailed)
}

func (*LogindInvoker) Cancel(context.Context) error {
	return fmt.Errorf("%w: logind backend requires linux", ErrInvocationFailed)
}
