package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"stembot/internal/config"
	"stembot/internal/ics"
	appLog "stembot/internal/log"
	"stembot/internal/service"
	"stembot/internal/store"
	"stembot/internal/sweep"
	"stembot/internal/web"
)

// flagConfig holds CLI flag values.
type flagConfig struct {
	configPath string
	listen     string
	once       bool
	export     bool
	dedup      bool
}

func main() {
	appLog.Info("stembot engine starting")

	flags := parseFlags()

	// .env first so DATABASE_URL can override the config file value.
	if err := godotenv.Load(); err != nil {
		appLog.Debug("no .env file, using process environment")
	}

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}
	if flags.listen != "" {
		conf.Listen = flags.listen
	}

	appLog.Info("effective config",
		"listen", conf.Listen,
		"sweep", conf.SweepCron,
		"auto_close_default_hours", conf.AutoCloseDefaultHours,
		"export_horizon_days", conf.ExportHorizonDays,
	)

	st, err := store.Open(conf.DatabaseURL)
	if err != nil {
		appLog.Error("failed to open database", err)
		os.Exit(1)
	}

	svc := service.New(st, service.Options{
		AutoCloseDefaultHours: conf.AutoCloseDefaultHours,
		ExportHorizonDays:     conf.ExportHorizonDays,
	})
	sweeper := sweep.New(st, nil)

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

	// One-shot modes run against the live database and exit.
	if flags.export {
		events, err := svc.UpcomingForExport(ctx)
		if err != nil {
			appLog.Error("export failed", err)
			os.Exit(1)
		}
		fmt.Print(ics.Serialize(events, time.Now()))
		return
	}
	if flags.dedup {
		stats, err := svc.Deduplicate(ctx)
		if err != nil {
			appLog.Error("dedup failed", err)
			os.Exit(1)
		}
		appLog.Info("dedup finished", "groups", stats.Groups, "removed", stats.Removed)
		return
	}
	if flags.once {
		res := sweeper.Run(ctx)
		appLog.Info("single sweep finished",
			"run_id", res.RunID,
			"advanced", res.Advanced.Succeeded,
			"auto_closed", res.AutoClosed.Succeeded,
			"failed", res.Advanced.Failed+res.AutoClosed.Failed,
		)
		return
	}

	// Database is ready: the sweeper may start its schedule now.
	if _, err := sweeper.Start(conf.SweepCron); err != nil {
		appLog.Error("failed to start sweeper", err, "schedule", conf.SweepCron)
		os.Exit(1)
	}
	defer sweeper.Stop()

	if err := web.StartServer(ctx, conf, svc, sweeper); err != nil {
		appLog.Error("HTTP server error", err)
		os.Exit(1)
	}

	appLog.Info("stembot engine exiting")
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "/etc/stembot/config.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.BoolVar(&cfg.once, "once", false, "Run one lifecycle sweep and exit")
	flag.BoolVar(&cfg.export, "export", false, "Print the ICS feed to stdout and exit")
	flag.BoolVar(&cfg.dedup, "dedup", false, "Run the deduplication sweep and exit")

	flag.Parse()

	return cfg
}
