package main

import (
	"bytes"
	"errors"
	"testing"

	"shutdowner/internal/trigger"
)

func TestRootCommandTree(t *testing.T) {
	root := newRootCmd()
	for _, name := range []string{"delay", "watch", "at", "cancel", "ps", "history"} {
		if cmd, _, err := root.Find([]string{name}); err != nil || cmd.Name() != name {
			t.Errorf("subcommand %q not registered (err=%v)", name, err)
		}
	}
	for _, flag := range []string{"config", "dry-run"} {
		if root.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("persistent flag --%s missing", flag)
		}
	}
}

func TestArgumentValidationHappensBeforeStartup(t *testing.T) {
	cases := []struct {
		name string
		args []string
	}{
		{"delay zero", []string{"delay", "0"}},
		{"delay too long", []string{"delay", "1441"}},
		{"delay not a number", []string{"delay", "soon"}},
		{"at bad hour", []string{"at", "1 24:00"}},
		{"at bad format", []string{"at", "tomorrow"}},
		{"watch interval", []string{"watch", "--pid", "42", "--name", "backup", "--every", "31"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			root := newRootCmd()
			root.SetArgs(append([]string{"--config", "/nonexistent/shutdowner.yaml"}, tc.args...))
			root.SetOut(&bytes.Buffer{})
			root.SetErr(&bytes.Buffer{})
			err := root.Execute()
			if !errors.Is(err, trigger.ErrValidation) {
				t.Fatalf("err = %v, want ErrValidation", err)
			}
		})
	}
}

func TestWatchRequiresTarget(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"watch", "--pid", "42"})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	if err := root.Execute(); err == nil {
		t.Fatal("watch without --name should fail")
	}
}

func TestExitErrorUnwraps(t *testing.T) {
	ee := &exitError{code: 2, err: trigger.ErrValidation}
	if !errors.Is(ee, trigger.ErrValidation) {
		t.Fatal("exitError should unwrap to its cause")
	}
	if (&exitError{code: 130}).Error() != "exit status 130" {
		t.Fatal("exitError without cause should report the status")
	}
}

func TestHistoryLimitRejectedBeforeStartup(t *testing.T) {
	for _, n := range []string{"0", "-3", "1001", "1099511627776"} {
		root := newRootCmd()
		root.SetArgs([]string{"--config", "/nonexistent/shutdowner.yaml", "history", "-n", n})
		root.SetOut(&bytes.Buffer{})
		root.SetErr(&bytes.Buffer{})
		if err := root.Execute(); !errors.Is(err, errHistoryLimit) {
			t.Errorf("history -n %s: err = %v, want errHistoryLimit", n, err)
		}
	}
}
