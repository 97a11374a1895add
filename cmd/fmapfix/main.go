// Command fmapfix raises implausibly low visibility values in a directory of
// fmap weather files and clears towering cumulus markers in benign weather.
//
// Usage:
//
//	fmapfix --input wx/raw --output wx/fixed [--sunny 60] [--fair 40] \
//	  [--poor 30] [--inclement 20] [--mintcu fair]
//
// Every regular file in the input directory that is exactly one fmap in size
// is fixed and written under the same name into the output directory. The
// run stops at the first file that cannot be read or written.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/couchcryptid/fmap-wx-fixer/internal/adapter/fsdir"
	httpadapter "github.com/couchcryptid/fmap-wx-fixer/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/fmap-wx-fixer/internal/adapter/kafka"
	"github.com/couchcryptid/fmap-wx-fixer/internal/config"
	"github.com/couchcryptid/fmap-wx-fixer/internal/observability"
	"github.com/couchcryptid/fmap-wx-fixer/internal/pipeline"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	cfg, err := config.Load(args)
	if errors.Is(err, pflag.ErrHelp) {
		fmt.Fprint(stdout, config.Usage())
		return nil
	}
	if err != nil {
		slog.Error("failed to load config", "error", err)
		fmt.Fprintf(os.Stderr, "\n%s", config.Usage())
		return err
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	// Fix reports are feature-flagged via KAFKA_BROKERS / --kafka-brokers.
	var reporter pipeline.Reporter
	if cfg.KafkaEnabled() {
		writer := kafkaadapter.NewWriter(cfg, logger)
		defer func() {
			if err := writer.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		}()
		reporter = writer
		logger.Info("kafka fix reports enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaReportTopic)
	}

	source := fsdir.NewSource(cfg.InputDir, logger)
	sink := fsdir.NewSink(cfg.OutputDir)
	transformer := pipeline.NewTransformer(cfg.FixOptions(), logger)

	p := pipeline.New(source, transformer, sink, reporter, logger, metrics)

	if cfg.MetricsAddr != "" {
		srv := httpadapter.NewServer(cfg.MetricsAddr, p, metrics.Registry, logger)
		if err := srv.Start(); err != nil {
			logger.Error("status server failed to start", "error", err)
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("status server shutdown error", "error", err)
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("fixing fmaps",
		"input", cfg.InputDir,
		"output", cfg.OutputDir,
		"sunny", cfg.Thresholds.Sunny,
		"fair", cfg.Thresholds.Fair,
		"poor", cfg.Thresholds.Poor,
		"inclement", cfg.Thresholds.Inclement,
		"mintcu", minTCULabel(cfg),
	)

	summary, runErr := p.Run(ctx)

	if cfg.MetricsFile != "" {
		if err := metrics.WriteTextfile(cfg.MetricsFile); err != nil {
			logger.Error("metrics export failed", "error", err)
		}
	}

	if runErr != nil {
		logger.Error("run failed", "error", runErr)
		return runErr
	}

	fmapWord := "fmaps"
	if summary.Processed == 1 {
		fmapWord = "fmap"
	}
	fmt.Fprintf(stdout, "Fixed %d %s: %d visibility cells raised, %d TCU markers cleared.\n",
		summary.Processed, fmapWord, summary.VisibilityRaised, summary.TCUCleared)
	return nil
}

func minTCULabel(cfg *config.Config) string {
	if cfg.MinTCU == 0 {
		return config.TCUDisabled
	}
	return cfg.MinTCU.String()
}
