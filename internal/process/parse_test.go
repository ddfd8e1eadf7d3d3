package process

import (
	"errors"
	"testing"

	"shutdowner/internal/platform"
)

func TestRecordEquality(t *testing.T) {
	tests := []struct {
		a, b Record
		want bool
	}{
		{Record{"notepad", "1234"}, Record{"notepad", "1234"}, true},
		{Record{"notepad", "1234"}, Record{"notepad", "1235"}, false},
		{Record{"notepad", "1234"}, Record{"notepad.exe", "1234"}, false},
		{Record{"", ""}, Record{"", ""}, true},
		{Record{"Notepad", "1234"}, Record{"notepad", "1234"}, false},
	}
	for _, tt := range tests {
		if got := tt.a == tt.b; got != tt.want {
			t.Errorf("%v == %v: got %v, want %v", tt.a, tt.b, got, tt.want)
		}
		s := NewSnapshot(tt.a)
		if got := s.Contains(tt.b); got != tt.want {
			t.Errorf("NewSnapshot(%v).Contains(%v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestParseLineUnix(t *testing.T) {
	tests := []struct {
		line string
		want Record
	}{
		{"  1234 pts/0    00:00:01 bash", Record{Name: "bash", PID: "1234"}},
		{"1 ?        00:00:03 systemd", Record{Name: "systemd", PID: "1"}},
		{"\t42\t\tfoo", Record{Name: "foo", PID: "42"}},
		{"7 x", Record{Name: "x", PID: "7"}},
	}
	for _, tt := range tests {
		got, err := ParseLine(tt.line, platform.Unix)
		if err != nil {
			t.Fatalf("ParseLine(%q): %v", tt.line, err)
		}
		if got != tt.want {
			t.Errorf("ParseLine(%q) = %+v, want %+v", tt.line, got, tt.want)
		}
	}
	if _, err := ParseLine("lonely", platform.Unix); !errors.Is(err, ErrParse) {
		t.Fatalf("single token err = %v", err)
	}
}

func TestParseLineWindows(t *testing.T) {
	tests := []struct {
		line string
		want Record
	}{
		{`"notepad.exe","1234","Console","1","10,240 K"`, Record{Name: "notepad.exe", PID: "1234"}},
		{`"System Idle Process","0","Services","0","8 K"`, Record{Name: "System Idle Process", PID: "0"}},
		{`a,b`, Record{Name: "a", PID: "b"}},
	}
	for _, tt := range tests {
		got, err := ParseLine(tt.line, platform.Windows)
		if err != nil {
			t.Fatalf("ParseLine(%q): %v", tt.line, err)
		}
		if got != tt.want {
			t.Errorf("ParseLine(%q) = %+v, want %+v", tt.line, got, tt.want)
		}
	}
	if _, err := ParseLine(`"only"`, platform.Windows); !errors.Is(err, ErrParse) {
		t.Fatalf("single field err = %v", err)
	}
}

func TestParseSkipsHeaderBlankAndMalformed(t *testing.T) {
	out := "  PID TTY          TIME CMD\n" +
		"    1 ?        00:00:03 systemd\n" +
		"\n" +
		"garbage\n" +
		" 1234 pts/0    00:00:01 bash\r\n" +
		" 1234 pts/0    00:00:01 bash\n"

	snap, bad := Parse(out, platform.Unix, 1)
	if snap.Len() != 2 {
		t.Fatalf("Len = %d, want 2 (%v)", snap.Len(), snap.Records())
	}
	recs := snap.Records()
	if recs[0] != (Record{Name: "systemd", PID: "1"}) || recs[1] != (Record{Name: "bash", PID: "1234"}) {
		t.Fatalf("records = %v", recs)
	}
	if len(bad) != 1 || bad[0].Line != 4 || !errors.Is(bad[0], ErrParse) {
		t.Fatalf("bad = %v", bad)
	}
}

func TestParseWindowsHeader(t *testing.T) {
	out := "\"Image Name\",\"PID\",\"Session Name\",\"Session#\",\"Mem Usage\"\r\n" +
		"\"notepad.exe\",\"1234\",\"Console\",\"1\",\"10,240 K\"\r\n"
	snap, bad := Parse(out, platform.Windows, 1)
	if len(bad) != 0 {
		t.Fatalf("unexpected line errors: %v", bad)
	}
	if !snap.Contains(Record{Name: "notepad.exe", PID: "1234"}) || snap.Len() != 1 {
		t.Fatalf("snapshot = %v", snap.Records())
	}
}

func TestSnapshotRecordsIsCopy(t *testing.T) {
	s := NewSnapshot(Record{"a", "1"})
	recs := s.Records()
	recs[0].Name = "mutated"
	if !s.Contains(Record{"a", "1"}) || s.Records()[0].Name != "a" {
		t.Fatal("Records exposed internal storage")
	}
	var zero Snapshot
	if zero.Contains(Record{"a", "1"}) || zero.Len() != 0 {
		t.Fatal("zero snapshot should be empty")
	}
}
