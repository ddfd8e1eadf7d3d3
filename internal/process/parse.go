package process

import (
	"strings"

	"shutdowner/internal/platform"
)

// Parse turns native listing output into a Snapshot.
//
// The first headerLines lines are skipped and blank lines are ignored.
// Lines without at least two fields do not abort parsing; they are returned
// as LineErrors for the caller to log.
func Parse(text string, family platform.Family, headerLines int) (Snapshot, []*LineError) {
	snap := NewSnapshot()
	var bad []*LineError

	text = strings.ReplaceAll(text, "\r\n", "\n")
	for i, line := range strings.Split(text, "\n") {
		if i < headerLines {
			continue
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		rec, ok := parseLine(line, family)
		if !ok {
			bad = append(bad, &LineError{Line: i + 1, Text: line, Reason: "expected at least 2 fields"})
			continue
		}
		snap.add(rec)
	}
	return snap, bad
}

// ParseLine parses a single listing line.
func ParseLine(line string, family platform.Family) (Record, error) {
	rec, ok := parseLine(line, family)
	if !ok {
		return Record{}, &LineError{Line: 1, Text: line, Reason: "expected at least 2 fields"}
	}
	return rec, nil
}

func parseLine(line string, family platform.Family) (Record, bool) {
	switch family {
	case platform.Windows:
		// "notepad.exe","1234","Console","1","10,240 K"
		fields := strings.Split(strings.ReplaceAll(strings.TrimSpace(line), `"`, ""), ",")
		if len(fields) < 2 {
			return Record{}, false
		}
		return Record{Name: fields[0], PID: fields[1]}, true
	default:
		// "  1234 pts/0    00:00:01 bash"
		tokens := strings.Fields(line)
		if len(tokens) < 2 {
			return Record{}, false
		}
		return Record{Name: tokens[len(tokens)-1], PID: tokens[0]}, true
	}
}
