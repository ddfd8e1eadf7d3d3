package trigger

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// InRange accepts n when 1 <= n <= upper.
func InRange(n, upper int) (int, error) {
	if n < 1 || n > upper {
		return 0, fmt.Errorf("%w: %d is outside 1..%d", ErrValidation, n, upper)
	}
	return n, nil
}

// ParseInt accepts an optionally signed decimal integer surrounded by spaces.
func ParseInt(text string) (int, error) {
	s := strings.TrimSpace(text)
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a whole number", ErrValidation, s)
	}
	return n, nil
}

// ParseBoundedInt is ParseInt followed by InRange.
func ParseBoundedInt(text string, upper int) (int, error) {
	n, err := ParseInt(text)
	if err != nil {
		return 0, err
	}
	return InRange(n, upper)
}

var endDateRe = regexp.MustCompile(`^(\d{1,2})\s(\d{1,2}):(\d{1,2})$`)

// ParseEndDate parses "<D> <HH>:<MM>" (D days from today, at HH:MM local time)
// relative to now, in now's location.
//
// For D == 0 the target minute of day must be at least one minute after the
// current minute of day. Minute-of-day values do not wrap, so at 23:59 no
// same-day target is accepted. D >= 1 is never in the past.
func ParseEndDate(text string, now time.Time) (time.Time, error) {
	m := endDateRe.FindStringSubmatch(text)
	if m == nil {
		return time.Time{}, fmt.Errorf("%w: %q does not match \"<days> <HH>:<MM>\"", ErrValidation, text)
	}
	// at most two digits each; Atoi cannot fail
	days, _ := strconv.Atoi(m[1])
	hour, _ := strconv.Atoi(m[2])
	minute, _ := strconv.Atoi(m[3])

	// time.Date normalizes overflow, so check ranges first.
	if hour > 23 || minute > 59 {
		return time.Time{}, fmt.Errorf("%w: %02d:%02d", ErrInvalidTime, hour, minute)
	}

	if days == 0 {
		target := hour*60 + minute
		current := now.Hour()*60 + now.Minute()
		if target < current+1 {
			return time.Time{}, fmt.Errorf("%w: %02d:%02d is not after %02d:%02d",
				ErrNotInFuture, hour, minute, now.Hour(), now.Minute())
		}
	}

	y, mo, d := now.Date()
	return time.Date(y, mo, d+days, hour, minute, 0, 0, now.Location()), nil
}
