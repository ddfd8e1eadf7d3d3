//go:build linux

package power

import (
	"context"
	"errors"
	"testing"
	"time"

	logx "shutdowner/pkg/logx"
)

type fakeLogind struct {
	can      string
	canErr   error
	offErr   error
	powerOff int
	closed   int
}

func (f *fakeLogind) CanPowerOff(context.Context) (string, error) { return f.can, f.canErr }

func (f *fakeLogind) PowerOff(context.Context) error {
	f.powerOff++
	return f.offErr
}

func (f *fakeLogind) Close() error {
	f.closed++
	return nil
}

func dialTo(bus *fakeLogind) dialFunc {
	return func(context.Context) (logindBus, error) { return bus, nil }
}

func TestNewLogindChecksPermission(t *testing.T) {
	tests := []struct {
		name    string
		bus     *fakeLogind
		wantErr bool
	}{
		{"yes", &fakeLogind{can: "yes"}, false},
		{"challenge", &fakeLogind{can: "challenge"}, false},
		{"no", &fakeLogind{can: "no"}, true},
		{"na", &fakeLogind{can: "na"}, true},
		{"call fails", &fakeLogind{canErr: errors.New("access denied")}, true},
	}
	for _, tc := range tests {
		_, err := newLogind(context.Background(), logx.Nop(), dialTo(tc.bus))
		if tc.wantErr != (err != nil) {
			t.Fatalf("%s: err = %v, wantErr %v", tc.name, err, tc.wantErr)
		}
		if err != nil && !errors.Is(err, ErrInvocationFailed) {
			t.Fatalf("%s: err = %v, want ErrInvocationFailed", tc.name, err)
		}
		if tc.bus.closed != 1 {
			t.Fatalf("%s: bus closed %d times, want 1", tc.name, tc.bus.closed)
		}
	}
}

func TestLogindShutdownReportsPowerOffFailure(t *testing.T) {
	bus := &fakeLogind{can: "yes", offErr: errors.New("Interactive authentication required")}
	inv, err := newLogind(context.Background(), logx.Nop(), dialTo(bus))
	if err != nil {
		t.Fatal(err)
	}
	err = inv.Shutdown(context.Background(), 0)
	if !errors.Is(err, ErrInvocationFailed) {
		t.Fatalf("err = %v, want ErrInvocationFailed", err)
	}
	if bus.powerOff != 1 {
		t.Fatalf("PowerOff called %d times, want 1", bus.powerOff)
	}
}

func TestLogindShutdownPowersOff(t *testing.T) {
	bus := &fakeLogind{can: "yes"}
	inv, err := newLogind(context.Background(), logx.Nop(), dialTo(bus))
	if err != nil {
		t.Fatal(err)
	}
	if err := inv.Shutdown(context.Background(), 0); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if bus.powerOff != 1 {
		t.Fatalf("PowerOff called %d times, want 1", bus.powerOff)
	}
}

func TestLogindCancelAbortsLeadWait(t *testing.T) {
	bus := &fakeLogind{can: "yes"}
	inv, err := newLogind(context.Background(), logx.Nop(), dialTo(bus))
	if err != nil {
		t.Fatal(err)
	}
	done := make(chan error, 1)
	go func() { done <- inv.Shutdown(context.Background(), time.Hour) }()

	deadline := time.Now().Add(5 * time.Second)
	for {
		inv.mu.Lock()
		waiting := inv.pending != nil
		inv.mu.Unlock()
		if waiting {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("Shutdown never started waiting")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if err := inv.Cancel(context.Background()); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if err := <-done; err != nil {
		t.Fatalf("Shutdown after cancel: %v", err)
	}
	if bus.powerOff != 0 {
		t.Fatal("PowerOff sent after cancel")
	}
}
