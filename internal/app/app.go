package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"shutdowner/internal/eventbus"
	"shutdowner/internal/menu"
	"shutdowner/internal/notifier"
	"shutdowner/internal/platform"
	"shutdowner/internal/power"
	"shutdowner/internal/process"
	"shutdowner/internal/scheduler"
	"shutdowner/internal/storage"
	"shutdowner/internal/trigger"
	"shutdowner/internal/tui"
	logx "shutdowner/pkg/logx"
)

// ErrHistoryDisabled is returned by History when no history store is configured.
var ErrHistoryDisabled = errors.New("history disabled")

type Options struct {
	// ConfigPath is the config file. Empty means the per-user default,
	// which may be missing.
	ConfigPath string
	// DryRun forces the dry-run invoker regardless of shutdown.dry_run.
	DryRun bool
}

type App struct {
	cfgm *ConfigManager
	sup  *Supervisor

	log   logx.Logger
	logs  *logx.Service
	bus   eventbus.Bus
	store storage.Store
	notif *notifier.Service

	platform platform.Config
	source   process.Source
	invoker  power.Invoker
	sched    *scheduler.Scheduler

	host   string
	dryRun bool
}

func New(opts Options) (*App, error) {
	path := strings.TrimSpace(opts.ConfigPath)
	optional := path == ""
	if optional {
		path = DefaultPath()
	}
	cfgm := NewConfigManager(path, optional)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}

	// The notifier is built before logging so it can serve as the remote log sink.
	ncfg, err := mapNotifierConfig(cfg)
	if err != nil {
		return nil, err
	}
	var sender notifier.Sender
	if ncfg.Enabled {
		tg := cfg.Notify.Telegram
		ts, err := notifier.NewTelegramSender(tg.Token, tg.ChatID, tg.ThreadID)
		if err != nil {
			return nil, err
		}
		sender = ts
	}
	notif := notifier.New(ncfg, sender, logx.Nop())

	var sink logx.Sink
	if notif.Enabled() {
		sink = notif
	}
	logSvc, log := logx.New(mapLogConfig(cfg), sink)
	notif.SetLogger(log)
	cfgm.SetLogger(log.With(logx.String("comp", "config")))
	alog := log.With(logx.String("comp", "app"))

	var store storage.Store
	fail := func(err error) (*App, error) {
		if store != nil {
			_ = store.Close()
		}
		_ = logSvc.Close()
		return nil, err
	}

	pcfg, err := platform.Detect(mapPlatformOverrides(cfg))
	if err != nil {
		return fail(err)
	}
	timeout, err := mapListingTimeout(cfg)
	if err != nil {
		return fail(err)
	}
	var source process.Source
	switch strings.ToLower(strings.TrimSpace(cfg.Listing.Backend)) {
	case "gopsutil":
		source = process.NewGopsutilSource(log)
	default:
		source = process.NewCommandSource(pcfg, platform.RealExecutor{}, timeout, log)
	}

	dryRun := opts.DryRun || cfg.Shutdown.DryRun
	inv, err := power.New(power.Options{
		Backend:  cfg.Shutdown.Backend,
		DryRun:   dryRun,
		Platform: pcfg,
		Exec:     platform.RealExecutor{},
		Log:      log,
	})
	if err != nil {
		return fail(err)
	}

	match, err := scheduler.ParseMatchMode(cfg.Scheduler.AbsoluteMatch)
	if err != nil {
		return fail(err)
	}

	if sc, enabled, err := mapStorageConfig(cfg); err != nil {
		return fail(err)
	} else if enabled {
		st, err := storage.Open(sc, log)
		if err != nil {
			return fail(err)
		}
		store = st
		alog.Debug("history enabled", logx.String("driver", sc.Driver), logx.String("path", sc.Path))
	}

	bus := eventbus.New()
	sched := scheduler.New(scheduler.Options{
		Source:  source,
		Invoker: inv,
		Match:   match,
		Log:     log,
		Bus:     bus,
	})

	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "localhost"
	}

	alog.Debug("app configured",
		logx.String("config", cfgm.Path()),
		logx.String("family", pcfg.Family.String()),
		logx.String("listing", cfg.Listing.Backend),
		logx.String("shutdown", cfg.Shutdown.Backend),
		logx.Bool("dry_run", dryRun),
	)

	return &App{
		cfgm:     cfgm,
		log:      alog,
		logs:     logSvc,
		bus:      bus,
		store:    store,
		notif:    notif,
		platform: pcfg,
		source:   source,
		invoker:  inv,
		sched:    sched,
		host:     host,
		dryRun:   dryRun,
	}, nil
}

// Logger returns the application logger.
func (a *App) Logger() logx.Logger { return a.log }

func (a *App) DryRun() bool { return a.dryRun }

// Menu builds the interactive trigger menu. With useTUI the process watch
// option selects from a full-screen table instead of a numbered list.
func (a *App) Menu(in io.Reader, out io.Writer, useTUI bool) *menu.Menu {
	opts := []menu.Option{menu.WithLogger(a.log)}
	if useTUI {
		opts = append(opts, menu.WithPicker(tui.Picker{}))
	}
	return menu.New(in, out, a.source, opts...)
}

// Processes takes one snapshot in listing order.
func (a *App) Processes(ctx context.Context) ([]process.Record, error) {
	snap, err := a.source.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Records(), nil
}

// CancelShutdown asks the platform to abort a pending shutdown.
func (a *App) CancelShutdown(ctx context.Context) error {
	err := a.invoker.Cancel(ctx)
	entry := storage.Entry{At: time.Now(), Event: "shutdown.canceled", DryRun: a.dryRun}
	if err != nil {
		entry.Error = err.Error()
	}
	a.appendHistory(entry)
	if err != nil {
		return err
	}
	a.log.Info("pending shutdown canceled")
	return nil
}

// History returns up to n recorded events, newest first.
func (a *App) History(ctx context.Context, n int) ([]storage.Entry, error) {
	if a.store == nil {
		return nil, ErrHistoryDisabled
	}
	return a.store.Recent(ctx, n)
}

// Run arms tr and blocks until it fires, Stop is called, or ctx ends.
// Observers (history, notifier, systemd, config reload) live only for the run.
func (a *App) Run(ctx context.Context, tr trigger.Trigger) (StopReason, error) {
	if a.sup != nil {
		return StopFatalError, fmt.Errorf("app: already running")
	}
	a.sup = NewSupervisor(ctx, WithLogger(a.log), WithCancelOnError(true))
	a.cfgm.SetValidator(func(_ context.Context, cfg *Config) error {
		return validateReload(cfg)
	})

	// Subscribe before arming so the armed event is observed.
	events, unsub := a.bus.Subscribe(64)
	consumed := make(chan struct{})
	a.sup.Go("events", func(context.Context) error {
		defer close(consumed)
		a.consume(events)
		return nil
	})
	if a.notif.Enabled() {
		a.sup.Go("notifier", a.notif.Run)
	}
	sub := a.cfgm.Subscribe(8)
	a.sup.Go("config.reload", func(c context.Context) error {
		defer a.cfgm.Unsubscribe(sub)
		a.reloadLoop(c, sub)
		return nil
	})
	a.sup.GoRestart("config.watch", a.cfgm.Watch, time.Second, 30*time.Second, 5)

	runErr := a.sched.Arm(tr)
	if runErr == nil {
		runErr = a.sched.Run(a.sup.Context())
	}

	// Let the consumer drain what the scheduler published, then stop the rest.
	unsub()
	<-consumed
	a.log.Debug("stopping observers", logx.Int64("active", a.sup.Active()))
	a.sup.Cancel()
	stopCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if a.notif.Enabled() {
		// the fired message must leave before the process exits
		if err := a.notif.Wait(stopCtx); err != nil {
			a.log.Warn("pending notifications not flushed", logx.Err(err))
		}
	}
	if err := a.sup.Stop(stopCtx); errors.Is(err, context.DeadlineExceeded) {
		a.log.Warn("observers did not stop in time", logx.Int64("active", a.sup.Active()))
	}

	reason, err := a.outcome(ctx, runErr)
	fields := []logx.Field{logx.String("reason", string(reason))}
	if err != nil {
		fields = append(fields, logx.Err(err))
	}
	a.log.Info("run finished", fields...)
	return reason, err
}

// outcome classifies how the run ended. A canceled run whose parent context
// is still live was canceled by a failing observer; that failure is reported.
func (a *App) outcome(ctx context.Context, runErr error) (StopReason, error) {
	if errors.Is(runErr, context.Canceled) && ctx.Err() == nil {
		if supErr := a.sup.Err(); supErr != nil {
			return StopFatalError, supErr
		}
	}
	reason := a.stopReason(ctx, runErr)
	if reason == StopSignal {
		return reason, nil
	}
	return reason, runErr
}

func (a *App) stopReason(ctx context.Context, runErr error) StopReason {
	fired := a.sched.State() == scheduler.Fired
	switch {
	case runErr == nil && fired:
		return StopFired
	case runErr == nil:
		return StopAppStop
	case fired || errors.Is(runErr, power.ErrInvocationFailed):
		return StopInvocationFailed
	case ctx.Err() != nil:
		return StopSignal
	default:
		return StopFatalError
	}
}

// Stop disarms the running trigger; Run then returns StopAppStop.
func (a *App) Stop() {
	a.sched.Stop()
}

// Close releases the history store and log outputs.
func (a *App) Close() error {
	var err error
	if a.store != nil {
		err = a.store.Close()
	}
	if cerr := a.logs.Close(); err == nil {
		err = cerr
	}
	return err
}

func (a *App) reloadLoop(ctx context.Context, sub chan *Config) {
	lastApplied := a.cfgm.Get()
	for {
		select {
		case <-ctx.Done():
			return
		case newCfg, ok := <-sub:
			if !ok {
				return
			}
			// Coalesce bursts: keep only the latest config in the channel.
			for drained := false; !drained; {
				select {
				case newer := <-sub:
					if newer != nil {
						newCfg = newer
					}
				default:
					drained = true
				}
			}
			a.applyConfig(lastApplied, newCfg)
			lastApplied = newCfg
		}
	}
}

func (a *App) applyConfig(oldCfg, newCfg *Config) {
	sections, attrs := SummarizeConfigChange(oldCfg, newCfg)
	if len(sections) == 0 {
		a.log.Debug("config reload received, but no effective changes detected")
		return
	}
	a.logs.Apply(mapLogConfig(newCfg))

	for _, s := range sections {
		if s != "logging" {
			a.log.Warn("config changed; restart required for changes to take effect", logx.String("section", s))
		}
	}
	fields := append([]logx.Field{logx.String("changed", strings.Join(sections, ","))}, attrs...)
	a.log.Info("config reloaded", fields...)
}
