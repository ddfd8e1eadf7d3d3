// Package platform resolves the operating-system family once at startup and
// carries the native command layout that the rest of the program uses.
package platform

import (
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"strings"
	"time"
)

var ErrUnsupportedPlatform = errors.New("unsupported platform")

type Family int

const (
	Unknown Family = iota
	Windows
	Unix
)

func (f Family) String() string {
	switch f {
	case Windows:
		return "windows"
	case Unix:
		return "unix"
	default:
		return "unknown"
	}
}

// Config is the resolved OS family plus its command templates.
// It is built once and passed by value; nothing here is global.
type Config struct {
	Family Family

	// ListCmd prints the process table. HeaderLines are skipped before parsing.
	ListCmd     []string
	HeaderLines int

	// ShutdownCmd takes a trailing lead-time argument formatted by ShutdownArgs.
	ShutdownCmd []string
	CancelCmd   []string
}

// Overrides carries optional user configuration; zero value means "detect".
type Overrides struct {
	Family             string // "", "auto", "windows", "unix"
	WindowsHeaderLines *int
	UnixHeaderLines    *int
}

// Detect resolves the family of the running binary.
func Detect(o Overrides) (Config, error) {
	return Resolve(runtime.GOOS, o)
}

// Resolve maps an OS name (runtime.GOOS or a free-form name such as
// "Windows 10" or "Mac OS X") to a Config.
func Resolve(osName string, o Overrides) (Config, error) {
	fam := FamilyOf(osName)
	switch strings.ToLower(strings.TrimSpace(o.Family)) {
	case "", "auto":
	case "windows":
		fam = Windows
	case "unix":
		fam = Unix
	default:
		return Config{}, fmt.Errorf("%w: family %q", ErrUnsupportedPlatform, o.Family)
	}

	switch fam {
	case Windows:
		cfg := windowsConfig()
		if o.WindowsHeaderLines != nil {
			cfg.HeaderLines = *o.WindowsHeaderLines
		}
		return cfg, nil
	case Unix:
		cfg := unixConfig()
		if o.UnixHeaderLines != nil {
			cfg.HeaderLines = *o.UnixHeaderLines
		}
		return cfg, nil
	default:
		return Config{}, fmt.Errorf("%w: %q", ErrUnsupportedPlatform, osName)
	}
}

// FamilyOf classifies an OS name. Unrecognized names yield Unknown.
func FamilyOf(osName string) Family {
	n := strings.ToLower(strings.TrimSpace(osName))
	switch {
	case n == "":
		return Unknown
	// darwin contains "win"; check it first.
	case strings.Contains(n, "darwin"), strings.Contains(n, "bsd"),
		n == "solaris", n == "illumos", n == "aix", n == "dragonfly":
		return Unix
	case strings.Contains(n, "win"):
		return Windows
	case strings.Contains(n, "nix"), strings.Contains(n, "nux"), strings.Contains(n, "mac"):
		return Unix
	default:
		return Unknown
	}
}

func windowsConfig() Config {
	return Config{
		Family:      Windows,
		ListCmd:     []string{"tasklist", "/fo", "csv"},
		HeaderLines: 1,
		ShutdownCmd: []string{"shutdown", "/s", "/t"},
		CancelCmd:   []string{"shutdown", "/a"},
	}
}

func unixConfig() Config {
	return Config{
		Family:      Unix,
		ListCmd:     []string{"ps", "-e"},
		HeaderLines: 1,
		ShutdownCmd: []string{"shutdown", "-h"},
		CancelCmd:   []string{"shutdown", "-c"},
	}
}

// ShutdownArgs returns the full shutdown command line for the given lead time.
// Windows takes seconds; Unix takes "+minutes", rounded up.
func (c Config) ShutdownArgs(lead time.Duration) []string {
	if lead < 0 {
		lead = 0
	}
	out := append([]string(nil), c.ShutdownCmd...)
	switch c.Family {
	case Windows:
		secs := int64((lead + time.Second - 1) / time.Second)
		out = append(out, strconv.FormatInt(secs, 10))
	default:
		mins := int64((lead + time.Minute - 1) / time.Minute)
		out = append(out, "+"+strconv.FormatInt(mins, 10))
	}
	return out
}
