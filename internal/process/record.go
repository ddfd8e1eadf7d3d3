// Package process models running processes as observed by a native listing
// command and turns that command's text output into comparable records.
package process

import "fmt"

// Record identifies one running process. Two records are the same process
// only when both Name and PID match; Record is comparable and usable as a map key.
type Record struct {
	Name string
	PID  string
}

func (r Record) String() string { return fmt.Sprintf("%s (pid %s)", r.Name, r.PID) }

// Snapshot is the set of processes observed at one polling instant.
// Records() keeps listing order for display; membership is a set lookup.
type Snapshot struct {
	order []Record
	set   map[Record]struct{}
}

func NewSnapshot(records ...Record) Snapshot {
	s := Snapshot{
		order: make([]Record, 0, len(records)),
		set:   make(map[Record]struct{}, len(records)),
	}
	for _, r := range records {
		s.add(r)
	}
	return s
}

func (s *Snapshot) add(r Record) {
	if s.set == nil {
		s.set = make(map[Record]struct{})
	}
	if _, ok := s.set[r]; ok {
		return
	}
	s.set[r] = struct{}{}
	s.order = append(s.order, r)
}

func (s Snapshot) Contains(r Record) bool {
	_, ok := s.set[r]
	return ok
}

func (s Snapshot) Len() int { return len(s.order) }

// Records returns a copy in listing order.
func (s Snapshot) Records() []Record {
	return append([]Record(nil), s.order...)
}
