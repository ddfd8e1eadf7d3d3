package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"shutdowner/internal/app"
	"shutdowner/internal/menu"
	"shutdowner/internal/process"
	"shutdowner/internal/trigger"
	logx "shutdowner/pkg/logx"
)

type globalFlags struct {
	config string
	dryRun bool
	tui    bool
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:   "shutdowner",
		Short: "Shut the machine down after a delay, when a process exits, or at a set time",
		Long: `shutdowner schedules a single machine shutdown.

Without a subcommand it asks interactively which trigger to use:
a timer, the end of a running process, or a local date and time.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, g, func(ctx context.Context, a *app.App) error {
				tr, err := a.Menu(cmd.InOrStdin(), cmd.OutOrStdout(), g.tui).Run(ctx)
				if err != nil {
					return err
				}
				return runTrigger(ctx, a, tr)
			})
		},
	}
	pf := root.PersistentFlags()
	pf.StringVar(&g.config, "config", "", "config file (default is "+app.DefaultPath()+")")
	pf.BoolVar(&g.dryRun, "dry-run", false, "log the shutdown command instead of running it")
	root.Flags().BoolVar(&g.tui, "tui", false, "pick the watched process from a full-screen table")

	root.AddCommand(
		newDelayCmd(g),
		newWatchCmd(g),
		newAtCmd(g),
		newCancelCmd(g),
		newPsCmd(g),
		newHistoryCmd(g),
	)
	return root
}

func newDelayCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "delay <minutes>",
		Short: fmt.Sprintf("Shut down after 1-%d minutes", trigger.MaxDelayMinutes),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := trigger.ParseBoundedInt(args[0], trigger.MaxDelayMinutes)
			if err != nil {
				return err
			}
			tr, err := trigger.NewDelay(n)
			if err != nil {
				return err
			}
			return withApp(cmd, g, func(ctx context.Context, a *app.App) error {
				return runTrigger(ctx, a, tr)
			})
		},
	}
}

func newWatchCmd(g *globalFlags) *cobra.Command {
	var (
		pid   string
		name  string
		every int
	)
	cmd := &cobra.Command{
		Use:   "watch --pid <pid> --name <name>",
		Short: "Shut down once a running process has exited",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			target := process.Record{Name: name, PID: pid}
			tr, err := trigger.NewProcessWatch(target, every)
			if err != nil {
				return err
			}
			return withApp(cmd, g, func(ctx context.Context, a *app.App) error {
				recs, err := a.Processes(ctx)
				if err != nil {
					return err
				}
				if !process.NewSnapshot(recs...).Contains(target) {
					return fmt.Errorf("%s is not running", target)
				}
				return runTrigger(ctx, a, tr)
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&pid, "pid", "", "process id to watch")
	f.StringVar(&name, "name", "", "process name as shown by `shutdowner ps`")
	f.IntVar(&every, "every", 1, fmt.Sprintf("check interval in minutes (1-%d)", trigger.MaxCheckIntervalMinutes))
	_ = cmd.MarkFlagRequired("pid")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newAtCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   `at "<days> <HH>:<MM>"`,
		Short: "Shut down at a local time, 0-99 days from today",
		Example: `  shutdowner at "0 23:30"   # tonight at 23:30
  shutdowner at "1 07:00"   # tomorrow at 07:00`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tr, err := trigger.NewAbsoluteTime(args[0], time.Now())
			if err != nil {
				return err
			}
			return withApp(cmd, g, func(ctx context.Context, a *app.App) error {
				return runTrigger(ctx, a, tr)
			})
		},
	}
}

func newCancelCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel",
		Short: "Abort a shutdown that is already counting down",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, g, func(ctx context.Context, a *app.App) error {
				return a.CancelShutdown(ctx)
			})
		},
	}
}

func newPsCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "ps",
		Short: "List running processes as the watch trigger sees them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, g, func(ctx context.Context, a *app.App) error {
				recs, err := a.Processes(ctx)
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), menu.FormatList(recs))
				return nil
			})
		},
	}
}

const maxHistoryLimit = 1000

var errHistoryLimit = fmt.Errorf("--limit must be between 1 and %d", maxHistoryLimit)

func newHistoryCmd(g *globalFlags) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded triggers, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if limit < 1 || limit > maxHistoryLimit {
				return errHistoryLimit
			}
			return withApp(cmd, g, func(ctx context.Context, a *app.App) error {
				entries, err := a.History(ctx, limit)
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "TIME\tEVENT\tTRIGGER\tDETAIL")
				for _, e := range entries {
					detail := e.Error
					if detail == "" && e.Tick > 0 {
						detail = "tick " + strconv.FormatUint(e.Tick, 10)
					}
					if e.DryRun {
						detail = "[dry-run] " + detail
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.At.Local().Format("2006-01-02 15:04:05"), e.Event, e.Summary, detail)
				}
				return w.Flush()
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of entries to show")
	return cmd
}

// withApp builds the application for one command and releases it afterwards.
func withApp(cmd *cobra.Command, g *globalFlags, fn func(ctx context.Context, a *app.App) error) error {
	a, err := app.New(app.Options{ConfigPath: g.config, DryRun: g.dryRun})
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(); cerr != nil {
			fmt.Fprintln(os.Stderr, "shutdowner: close:", cerr)
		}
	}()
	return fn(cmd.Context(), a)
}

func runTrigger(ctx context.Context, a *app.App, tr trigger.Trigger) error {
	a.Logger().Info("arming trigger", logx.String("trigger", tr.String()), logx.Bool("dry_run", a.DryRun()))
	reason, err := a.Run(ctx, tr)
	if code := reason.ExitCode(); code != 0 {
		return &exitError{code: code, err: err}
	}
	return err
}
