package process

import (
	"errors"
	"fmt"
)

var (
	ErrParse              = errors.New("process: malformed listing line")
	ErrListingUnavailable = errors.New("process: listing unavailable")
)

// LineError reports one listing line that could not be parsed.
// Line is 1-based and counts header lines.
type LineError struct {
	Line   int
	Text   string
	Reason string
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %s: %q", e.Line, e.Reason, e.Text)
}

func (e *LineError) Unwrap() error { return ErrParse }
