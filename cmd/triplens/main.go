package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/sanspareilsmyn/triplens/internal/config"
	"github.com/sanspareilsmyn/triplens/internal/logging"
	"github.com/sanspareilsmyn/triplens/internal/pipeline"
)

var (
	configFile = flag.String("config", "", "Path to the configuration file (optional, defaults apply without one)")
	logger     *zap.Logger
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s [-config path] INFILE\n\nAnalyze yellow cab trip records from the input CSV file.\n\n", os.Args[0])
	flag.PrintDefaults()
}

func main() {
	// Initialize Configuration
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() != 1 {
		usage()
		os.Exit(2)
	}
	infile := flag.Arg(0)

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration from %s: %v\n", *configFile, err)
		os.Exit(1)
	}

	// Initialize Logger
	var logErr error
	logger, logErr = logging.NewLogger(cfg.Log)
	if logErr != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to initialize logger: %v\n", logErr)
		os.Exit(1)
	}

	sugar := logger.Sugar()
	sugar.Infow("Logger initialized",
		"level", cfg.Log.Level,
		"format", cfg.Log.Format,
	)

	// Handle Interruption
	ctx, cancel := context.WithCancel(context.Background())

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-signals
		sugar.Infow("Received signal, aborting scan...", "signal", sig.String())
		cancel()
	}()

	// Run Analysis
	runErr := run(ctx, cfg, infile)
	cancel()

	// Evaluate Result
	switch {
	case runErr == nil:
		sugar.Info("Analysis completed without error.")
	case errors.Is(runErr, context.Canceled):
		sugar.Warn("Analysis interrupted before the scan finished.")
	default:
		sugar.Errorw("Analysis failed", zap.Error(runErr))
	}

	_ = logger.Sync() // Flush buffered logs before exiting
	if runErr != nil {
		os.Exit(1)
	}
}

// run opens the input file, scans it through the pipeline, and reports.
// The file is released on every return path.
func run(ctx context.Context, cfg *config.Config, infile string) error {
	sugar := logger.Sugar()

	f, err := os.Open(infile)
	if err != nil {
		return fmt.Errorf("failed to open input file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			sugar.Warnw("Failed to close input file", zap.Error(closeErr))
		}
	}()
	sugar.Infow("Input file opened", "path", infile)

	source := pipeline.NewCSVSource(f, logger.Named("source"))
	pipe, err := pipeline.New(cfg, source, logger.Named("pipeline"))
	if err != nil {
		return err
	}

	if err := pipe.Run(ctx); err != nil {
		return err
	}

	reporter := pipeline.NewReporter(os.Stdout, logger.Named("report"))
	reporter.Report(pipe.Counts(), pipe.Histograms())
	return nil
}
