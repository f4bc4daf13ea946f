package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"confcal/internal/capture"
	"confcal/internal/config"
	"confcal/internal/grid"
	appLog "confcal/internal/log"
	"confcal/internal/sheet"
	"confcal/internal/tz"
	"confcal/internal/web"
)

// flagConfig holds CLI flag values.
type flagConfig struct {
	configPath string
	listen     string
	once       bool
	snapshot   bool
}

func main() {
	appLog.Info("confcal starting", "version", "0.1.0")

	flags := parseFlags()

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}

	// CLI --listen overrides config file listen if provided.
	if flags.listen != "" {
		conf.Listen = flags.listen
	}

	appLog.Info("effective config",
		"listen", conf.Listen,
		"origin_timezone", conf.OriginTimezone,
		"user_timezone", conf.UserTimezone,
		"refresh", conf.RefreshCron,
		"auto_fit_events", conf.AutoFitEvents,
		"views", len(conf.Views),
		"once", flags.once,
	)

	if conf.ProgramSheetURL == "" {
		appLog.Error("program_sheet_url is not configured", errors.New("empty program sheet URL"))
		os.Exit(1)
	}

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	conv := tz.New(conf.OriginTimezone, conf.UserTimezone)
	loader := sheet.NewLoader(conf.CacheDir, conf.ProgramSheetURL, conf.TypeColorsSheetURL, conv)
	store := web.NewStore()

	refresh := func(ctx context.Context) error {
		events, err := loader.Load(ctx)
		if err != nil {
			return err
		}
		refreshed := false
		_ = store.With(func(c *grid.Calendar) error {
			c.SetEvents(events)
			refreshed = true
			return nil
		})
		if !refreshed {
			store.Replace(grid.New(events, conf.GridOptions()))
		}
		return nil
	}

	if err := refresh(ctx); err != nil {
		// Startup continues on a failed first load: /health stays up and
		// the cron schedule retries.
		appLog.Error("initial program load failed", err)
		if flags.once {
			os.Exit(1)
		}
	}

	srv := &http.Server{
		Addr:              conf.Listen,
		Handler:           web.NewServer(conf, store).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+conf.Listen)
		serveErr <- srv.ListenAndServe()
	}()

	snapshot := func() {
		if !flags.snapshot || conf.PreviewPath == "" {
			return
		}
		err := capture.GridPNG(ctx, capture.Options{
			URL:        "http://" + conf.Listen + "/calendar",
			OutputPath: conf.PreviewPath,
		})
		if err != nil {
			appLog.Error("preview capture failed", err)
			return
		}
		appLog.Info("preview captured", "path", conf.PreviewPath)
	}

	if flags.once {
		snapshot()
		shutdown(srv)
		appLog.Info("confcal exiting", "reason", "once")
		return
	}

	snapshot()

	sched := cron.New()
	if _, err := sched.AddFunc(conf.RefreshCron, func() {
		if err := refresh(ctx); err != nil {
			appLog.Error("scheduled program refresh failed", err)
			return
		}
		snapshot()
	}); err != nil {
		appLog.Error("invalid refresh schedule", err, "refresh", conf.RefreshCron)
		os.Exit(1)
	}
	sched.Start()
	defer sched.Stop()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLog.Error("HTTP server failed", err)
			os.Exit(1)
		}
	}

	shutdown(srv)
	appLog.Info("confcal exiting")
}

func shutdown(srv *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		appLog.Error("HTTP server shutdown failed", err)
	}
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "/etc/confcal/config.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.BoolVar(&cfg.once, "once", false, "Run one fetch(+snapshot) cycle and exit")
	flag.BoolVar(&cfg.snapshot, "snapshot", false, "Capture a PNG preview after each refresh (needs preview_path)")

	flag.Parse()

	return cfg
}
