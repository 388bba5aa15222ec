package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	kingpin "github.com/alecthomas/kingpin/v2"
	"github.com/prometheus/common/version"

	"smmon/config"
	"smmon/internal/module/dashboard"
	"smmon/internal/pkg/client/sacct"
	"smmon/internal/pkg/log"
	"smmon/internal/pkg/terminal"
)

func main() {
	var (
		configFile  string
		workflowID  string
		refreshRate int
		sacctCmd    string
		showErrors  bool
		logLevel    string
		logOutput   string
		logFormat   string
		logFile     string

		workflowSet, refreshSet, sacctSet, showErrorsSet bool
	)
	app := kingpin.New(filepath.Base(os.Args[0]), "Monitor Snakemake jobs on Slurm.")
	app.HelpFlag.Short('h')
	app.Flag("config", "Path to YAML config file (optional).").Short('c').Envar("SMMON_CONFIG").PlaceHolder("PATH").StringVar(&configFile)
	app.Flag("workflow-id", "Specific workflow ID to monitor (default: all workflows).").IsSetByUser(&workflowSet).StringVar(&workflowID)
	app.Flag("refresh-rate", "Refresh rate in seconds.").Default(fmt.Sprint(config.DefaultRefreshRate)).IsSetByUser(&refreshSet).IntVar(&refreshRate)
	app.Flag("sacct.command", "Accounting command to run.").Default(sacct.DefaultCommand).IsSetByUser(&sacctSet).StringVar(&sacctCmd)
	app.Flag("show-errors", "Show accounting query failures as a status line.").IsSetByUser(&showErrorsSet).BoolVar(&showErrors)
	// Logging related flags
	app.Flag("log.level", "Log level, one of [debug, info, warn, error].").Default("info").EnumVar(&logLevel, "debug", "info", "warn", "error")
	app.Flag("log.output", "Log output, one of [none, stdout, stderr, file].").Default("none").EnumVar(&logOutput, "none", "stdout", "stderr", "file")
	app.Flag("log.format", "Log format, one of [json, text].").Default("text").EnumVar(&logFormat, "json", "text")
	app.Flag("log.file", "Log file path when --log.output=file.").PlaceHolder("PATH").StringVar(&logFile)
	// Cross-flag validation
	app.PreAction(func(*kingpin.ParseContext) error {
		if strings.EqualFold(logOutput, "file") && strings.TrimSpace(logFile) == "" {
			return fmt.Errorf("--log.file is required when --log.output=file")
		}
		if refreshSet && refreshRate <= 0 {
			return fmt.Errorf("--refresh-rate must be a positive number of seconds, got %d", refreshRate)
		}
		return nil
	})
	app.Version(version.Print("smmon"))

	if _, err := app.Parse(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, fmt.Errorf("failed to parse commandline arguments: %w", err))
		app.Usage(os.Args[1:])
		os.Exit(2)
	}

	logger, logClose, err := log.NewLogger(logOutput, logFormat, logFile, logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "unable to create logger: %v\n", err)
		os.Exit(2)
	}
	defer logClose()

	cfg, err := config.Load(configFile)
	if err != nil {
		logger.Error("failed to load config", slog.String("path", configFile), slog.Any("err", err))
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(2)
	}
	// Explicit flags win over the config file.
	if workflowSet {
		cfg.Dashboard.WorkflowID = workflowID
	}
	if refreshSet {
		cfg.Dashboard.RefreshRate = refreshRate
	}
	if sacctSet {
		cfg.Sacct.Command = sacctCmd
	}
	if showErrorsSet {
		cfg.Dashboard.ShowErrors = showErrors
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid config", slog.Any("err", err))
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := sacct.New(cfg.Sacct.Command, logger)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	screen := terminal.New(os.Stdin, os.Stdout, logger)
	screen.OnInterrupt(cancel)
	d := dashboard.New(cfg.Dashboard, screen, client, logger)

	logger.Info("dashboard starting",
		slog.String("workflow", cfg.Dashboard.WorkflowID),
		slog.Int("refresh_rate", cfg.Dashboard.RefreshRate),
		slog.String("sacct", cfg.Sacct.Command))
	if err := d.Run(ctx); err != nil {
		logger.Error("dashboard stopped", slog.Any("err", err))
		fmt.Fprintf(os.Stderr, "smmon: %v\n", err)
		logClose()
		os.Exit(1)
	}
	logger.Info("dashboard exiting")
}
