package process

import (
	"context"
	"fmt"
	"strconv"

	gproc "github.com/shirou/gopsutil/process"

	logx "shutdowner/pkg/logx"
)

// GopsutilSource enumerates processes through gopsutil instead of a native command.
// Records carry the same name+pid identity as CommandSource.
type GopsutilSource struct {
	log logx.Logger
}

func NewGopsutilSource(log logx.Logger) *GopsutilSource {
	return &GopsutilSource{log: log.With(logx.String("comp", "process"))}
}

func (s *GopsutilSource) Snapshot(ctx context.Context) (Snapshot, error) {
	procs, err := gproc.ProcessesWithContext(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrListingUnavailable, err)
	}
	snap := NewSnapshot()
	for _, p := range procs {
		if err := ctx.Err(); err != nil {
			return Snapshot{}, fmt.Errorf("%w: %v", ErrListingUnavailable, err)
		}
		name, err := p.NameWithContext(ctx)
		if err != nil {
			// exited between enumeration and lookup
			s.log.Trace("process vanished during listing", logx.Int("pid", int(p.Pid)), logx.Err(err))
			continue
		}
		snap.add(Record{Name: name, PID: strconv.Itoa(int(p.Pid))})
	}
	return snap, nil
}
