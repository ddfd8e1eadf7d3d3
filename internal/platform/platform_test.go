package platform

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestFamilyOf(t *testing.T) {
	tests := []struct {
		in   string
		want Family
	}{
		{"windows", Windows},
		{"Windows 10", Windows},
		{"linux", Unix},
		{"Linux", Unix},
		{"darwin", Unix},
		{"Mac OS X", Unix},
		{"freebsd", Unix},
		{"AIX-unix", Unix},
		{"plan9", Unknown},
		{"js", Unknown},
		{"", Unknown},
	}
	for _, tt := range tests {
		if got := FamilyOf(tt.in); got != tt.want {
			t.Errorf("FamilyOf(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestResolve(t *testing.T) {
	cfg, err := Resolve("windows", Overrides{})
	if err != nil {
		t.Fatalf("Resolve(windows): %v", err)
	}
	if cfg.Family != Windows || cfg.HeaderLines != 1 || strings.Join(cfg.ListCmd, " ") != "tasklist /fo csv" {
		t.Fatalf("windows config = %+v", cfg)
	}

	cfg, err = Resolve("linux", Overrides{})
	if err != nil {
		t.Fatalf("Resolve(linux): %v", err)
	}
	if cfg.Family != Unix || strings.Join(cfg.ListCmd, " ") != "ps -e" || strings.Join(cfg.CancelCmd, " ") != "shutdown -c" {
		t.Fatalf("unix config = %+v", cfg)
	}

	if _, err := Resolve("plan9", Overrides{}); !errors.Is(err, ErrUnsupportedPlatform) {
		t.Fatalf("Resolve(plan9) err = %v", err)
	}
}

func TestResolveOverrides(t *testing.T) {
	two := 2
	cfg, err := Resolve("plan9", Overrides{Family: "windows", WindowsHeaderLines: &two})
	if err != nil {
		t.Fatalf("Resolve override: %v", err)
	}
	if cfg.Family != Windows || cfg.HeaderLines != 2 {
		t.Fatalf("cfg = %+v", cfg)
	}
	if _, err := Resolve("linux", Overrides{Family: "beos"}); !errors.Is(err, ErrUnsupportedPlatform) {
		t.Fatalf("bad family err = %v", err)
	}
}

func TestShutdownArgs(t *testing.T) {
	win, _ := Resolve("windows", Overrides{})
	unix, _ := Resolve("linux", Overrides{})
	tests := []struct {
		cfg  Config
		lead time.Duration
		want string
	}{
		{win, 0, "shutdown /s /t 0"},
		{win, 60 * time.Second, "shutdown /s /t 60"},
		{win, 1500 * time.Millisecond, "shutdown /s /t 2"},
		{unix, 0, "shutdown -h +0"},
		{unix, 60 * time.Second, "shutdown -h +1"},
		{unix, 61 * time.Second, "shutdown -h +2"},
		{unix, -time.Second, "shutdown -h +0"},
	}
	for _, tt := range tests {
		if got := strings.Join(tt.cfg.ShutdownArgs(tt.lead), " "); got != tt.want {
			t.Errorf("%s ShutdownArgs(%s) = %q, want %q", tt.cfg.Family, tt.lead, got, tt.want)
		}
	}
	// template must not be mutated by repeated calls
	_ = unix.ShutdownArgs(time.Minute)
	if len(unix.ShutdownCmd) != 2 {
		t.Fatalf("ShutdownCmd mutated: %v", unix.ShutdownCmd)
	}
}
