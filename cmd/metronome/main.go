package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	"metronome/internal/config"
	"metronome/internal/journal"
	"metronome/internal/pump"
	logx "metronome/pkg/logx"
	"metronome/pkg/timer"
)

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", "./config.yaml", "path to config file (yaml or json)")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfgPath); err != nil {
		fmt.Println("fatal:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfgPath string) error {
	mgr := config.NewManager(cfgPath)
	cfg, err := mgr.Load()
	if err != nil {
		return err
	}

	logSvc, log := logx.New(cfg.LogxConfig())
	defer logSvc.Close()
	mgr.SetLogger(log)

	// Config hot reload: only logging settings are applied live; timer
	// definitions take effect on restart.
	updates := mgr.Subscribe(1)
	defer mgr.Unsubscribe(updates)
	go func() {
		if err := mgr.Watch(ctx); err != nil {
			log.Warn("config watch unavailable", logx.Err(err))
		}
	}()
	go func() {
		for c := range updates {
			logSvc.Apply(c.LogxConfig())
			log.Info("logging config reloaded")
		}
	}()

	var store journal.Store
	if cfg.Journal != nil {
		busy, err := config.ParseDurationField("journal.busy_timeout", cfg.Journal.BusyTimeout)
		if err != nil {
			return err
		}
		store, err = journal.Open(journal.Config{
			Driver:      cfg.Journal.Driver,
			Path:        cfg.Journal.Path,
			BusyTimeout: busy,
		}, log)
		if err != nil {
			return err
		}
		if store != nil {
			defer store.Close()
		}
	}

	p := pump.New(
		pump.Config{QueueSize: cfg.Pump.QueueSize, ErrorsPerSec: cfg.Pump.ErrorsPerSec},
		func(hctx context.Context, tick timer.Tick) {
			late := time.Since(tick.Time)
			log.Info("tick",
				logx.String("timer", tick.Timer.Name()),
				logx.Int("count", tick.Count),
				logx.Duration("late", late),
			)
			if store != nil {
				_ = store.AppendTick(hctx, journal.Entry{
					Timer: tick.Timer.Name(),
					Count: tick.Count,
					Fire:  tick.Time,
					Late:  late,
				})
			}
		},
		log,
	)
	pumpDone := make(chan struct{})
	go func() {
		defer close(pumpDone)
		p.Run(ctx)
	}()

	timers := make([]*timer.Timer, 0, len(cfg.Timers)+1)
	for _, tc := range cfg.Timers {
		opts := []timer.Option{timer.WithHost(p), timer.WithLogger(log)}
		if tc.Name != "" {
			opts = append(opts, timer.WithName(tc.Name))
		}
		if tc.Repeat != nil {
			opts = append(opts, timer.WithRepeat(*tc.Repeat))
		}
		if tc.Skip != nil {
			opts = append(opts, timer.WithSkip(*tc.Skip))
		}
		if tc.StartPaused {
			opts = append(opts, timer.StartPaused())
		}
		t, err := timer.New(p.Handle(), tc.IntervalOf(), opts...)
		if err != nil {
			return err
		}
		timers = append(timers, t)
	}

	// Under systemd with WatchdogSec set, ping the watchdog from a callback
	// timer at half the configured interval. No-op elsewhere.
	if wd, err := daemon.SdWatchdogEnabled(false); err == nil && wd > 0 {
		t, err := timer.New(nil, wd/2,
			timer.WithName("sd-watchdog"),
			timer.WithHost(p),
			timer.WithLogger(log),
			timer.WithCallback(func(context.Context) error {
				_, err := daemon.SdNotify(false, daemon.SdNotifyWatchdog)
				return err
			}),
		)
		if err != nil {
			return err
		}
		timers = append(timers, t)
	}

	for _, t := range timers {
		t.Start(ctx)
	}
	log.Info("metronome started", logx.Int("timers", len(timers)))
	_, _ = daemon.SdNotify(false, daemon.SdNotifyReady)

	<-ctx.Done()
	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)

	// Drain: Stop alone is fire-and-forget, so use StopAll to wait until
	// every loop has actually terminated before closing the journal.
	stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer stopCancel()
	if err := timer.StopAll(stopCtx, timers...); err != nil {
		log.Warn("timers did not drain before deadline", logx.Err(err))
	}
	<-pumpDone
	log.Info("metronome stopped")
	return nil
}
