package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	logx "shutdowner/pkg/logx"
)

func TestOpenDisabled(t *testing.T) {
	for _, d := range []string{"", "none", " NONE "} {
		st, err := Open(Config{Driver: d}, logx.Nop())
		if err != nil || st != nil {
			t.Fatalf("Open(%q) = %v, %v", d, st, err)
		}
	}
	if _, err := Open(Config{Driver: "redis", Path: "x"}, logx.Nop()); err == nil {
		t.Fatal("expected unknown driver error")
	}
}

func TestStoresAppendAndRecent(t *testing.T) {
	for _, driver := range []string{"file", "sqlite"} {
		t.Run(driver, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "sub", "history."+driver)
			st, err := Open(Config{Driver: driver, Path: path}, logx.Nop())
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			defer st.Close()

			ctx := context.Background()
			base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
			events := []string{"trigger.armed", "trigger.tick", "trigger.fired"}
			for i, ev := range events {
				e := Entry{At: base.Add(time.Duration(i) * time.Minute), Event: ev, Kind: "delay", Summary: "delay 2m", Tick: uint64(i)}
				if ev == "trigger.fired" {
					e.LeadMS = 60000
					e.DryRun = true
				}
				if err := st.Append(ctx, e); err != nil {
					t.Fatalf("Append: %v", err)
				}
			}

			got, err := st.Recent(ctx, 2)
			if err != nil {
				t.Fatalf("Recent: %v", err)
			}
			if len(got) != 2 || got[0].Event != "trigger.fired" || got[1].Event != "trigger.tick" {
				t.Fatalf("Recent = %+v", got)
			}
			if !got[0].DryRun || got[0].LeadMS != 60000 || !got[0].At.Equal(base.Add(2*time.Minute)) {
				t.Fatalf("fired entry = %+v", got[0])
			}

			all, _ := st.Recent(ctx, 10)
			if len(all) != 3 {
				t.Fatalf("Recent(10) len = %d", len(all))
			}
		})
	}
}

func TestFileStoreClosed(t *testing.T) {
	st, err := Open(Config{Driver: "file", Path: filepath.Join(t.TempDir(), "h.jsonl")}, logx.Nop())
	if err != nil {
		t.Fatal(err)
	}
	_ = st.Close()
	if err := st.Append(context.Background(), Entry{Event: "x"}); err != ErrClosed {
		t.Fatalf("Append after Close = %v", err)
	}
}

func TestRecentHugeLimit(t *testing.T) {
	for _, driver := range []string{"file", "sqlite"} {
		t.Run(driver, func(t *testing.T) {
			st, err := Open(Config{Driver: driver, Path: filepath.Join(t.TempDir(), "history."+driver)}, logx.Nop())
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			defer st.Close()

			ctx := context.Background()
			for _, ev := range []string{"trigger.armed", "trigger.fired"} {
				if err := st.Append(ctx, Entry{At: time.Now(), Event: ev}); err != nil {
					t.Fatalf("Append: %v", err)
				}
			}
			got, err := st.Recent(ctx, 1<<40)
			if err != nil {
				t.Fatalf("Recent: %v", err)
			}
			if len(got) != 2 || got[0].Event != "trigger.fired" {
				t.Fatalf("Recent = %+v", got)
			}
		})
	}
}

func TestFileRecentKeepsNewest(t *testing.T) {
	st, err := Open(Config{Driver: "file", Path: filepath.Join(t.TempDir(), "h.jsonl")}, logx.Nop())
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	ctx := context.Background()
	for i := range 1000 {
		if err := st.Append(ctx, Entry{Event: "trigger.tick", Tick: uint64(i)}); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	got, err := st.Recent(ctx, 3)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 3 || got[0].Tick != 999 || got[1].Tick != 998 || got[2].Tick != 997 {
		t.Fatalf("Recent = %+v, want ticks 999, 998, 997", got)
	}
}
