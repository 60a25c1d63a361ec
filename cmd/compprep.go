package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rivo/tview"
	"github.com/spf13/pflag"
	"tinygo.org/x/bluetooth"

	"github.com/lowaak/compprep/compprep-app/internal/analytics"
	"github.com/lowaak/compprep/compprep-app/internal/badges"
	"github.com/lowaak/compprep/compprep-app/internal/config"
	"github.com/lowaak/compprep/compprep-app/internal/entitlement"
	"github.com/lowaak/compprep/compprep-app/internal/go_func_utils"
	"github.com/lowaak/compprep/compprep-app/internal/interval"
	"github.com/lowaak/compprep/compprep-app/internal/livestatus"
	"github.com/lowaak/compprep/compprep-app/internal/logging"
	"github.com/lowaak/compprep/compprep-app/internal/trainer"
)

const liveShutdownTimeout = 2 * time.Second

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "compprep: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.Load(args)
	if err != nil {
		return err
	}

	uiLogChan := make(chan string, 256)
	logger, logCloser, err := logging.New(logging.Options{
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
		Tail:       uiLogChan,
	})
	if err != nil {
		return err
	}
	defer logCloser.Close()

	if cfg.ConfigFile != "" {
		logger.Printf("CompPrep: Starting with config %s", cfg.ConfigFile)
	} else {
		logger.Printf("CompPrep: Starting with defaults")
	}

	model := trainer.NewUIModel(logger, uiLogChan, cfg.StateDir)

	settings := cfg.Timer.Settings
	if !cfg.Timer.Explicit {
		if saved, ok := model.SavedSettings(); ok {
			settings = saved
		}
	}

	distinctID, err := analytics.LoadDistinctID(filepath.Join(cfg.StateDir, "distinct_id"))
	if err != nil {
		logger.Printf("CompPrep: Using a one-off analytics id: %v", err)
	}
	fileSink := analytics.NewFileSink(cfg.AnalyticsFile, distinctID)
	defer fileSink.Close()
	sink := analytics.Fanout{analytics.NewLogSink(logger), fileSink}

	tracker, err := badges.NewTracker(badges.NewFileStore(cfg.BadgesFile), logger)
	if err != nil {
		model.Shutdown()
		return err
	}

	live, server, err := startLiveStatus(cfg, logger)
	if err != nil {
		model.Shutdown()
		return err
	}

	opts := []interval.Option{
		interval.WithTickInterval(cfg.Timer.TickInterval),
		interval.WithAnalytics(sink),
		interval.WithBadges(tracker),
	}
	if len(live) > 0 {
		opts = append(opts, interval.WithLiveStatus(live))
	}
	engine, err := interval.New(settings, logger, opts...)
	if err != nil {
		shutdownLiveServer(server, logger)
		model.Shutdown()
		return err
	}

	gate := entitlement.NewStaticGate(cfg.Pro)
	controller := trainer.NewUIController(model, engine, tracker, gate, sink, logger,
		trainer.WithLeadIn(cfg.Timer.LeadInSeconds))

	app := tview.NewApplication()
	view := trainer.NewCursesUIView(logger, app, model)
	base := trainer.NewBaseUIView(trainer.NewBaseUIViewArg{
		UIViewImpl:   view,
		UIModel:      model,
		UIController: controller,
		Logger:       logger,
	})

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGHUP)
	defer stopSignals()
	go_func_utils.SafeGo(logger, func() {
		<-sigCtx.Done()
		model.RequestCloseApplication()
	})

	runErr := base.Run()

	logger.Println("CompPrep: Shutting down")
	base.Shutdown()
	controller.Shutdown()
	engine.Shutdown()
	shutdownLiveServer(server, logger)
	model.Shutdown()
	logger.Println("CompPrep: Bye")

	return runErr
}

// startLiveStatus builds the live status publishers enabled in cfg. BLE
// failures only disable the beacon; an HTTP bind failure is fatal.
func startLiveStatus(cfg *config.Config, logger *log.Logger) (livestatus.Fanout, *livestatus.Server, error) {
	var (
		live   livestatus.Fanout
		server *livestatus.Server
	)

	if cfg.Live.Addr != "" {
		server = livestatus.NewServer(logger)
		if err := server.ListenAndServe(cfg.Live.Addr); err != nil {
			return nil, nil, err
		}
		live = append(live, server)
	}

	if cfg.Live.BLE {
		beacon, err := livestatus.NewBeacon(bluetooth.DefaultAdapter, cfg.Live.BLEName, logger)
		if err != nil {
			logger.Printf("CompPrep: BLE live status disabled: %v", err)
		} else {
			live = append(live, beacon)
		}
	}

	return live, server, nil
}

func shutdownLiveServer(server *livestatus.Server, logger *log.Logger) {
	if server == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), liveShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Printf("CompPrep: live status shutdown: %v", err)
	}
}
