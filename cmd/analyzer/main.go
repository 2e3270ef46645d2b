package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"stock-analyzer/internal/analysislog"
	"stock-analyzer/internal/logger"
	"stock-analyzer/internal/report"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	symbol := flag.String("symbol", "", "ticker to analyze (overrides the snapshot ticker)")
	snapshotPath := flag.String("snapshot", "", "company snapshot JSON (optional)")
	format := flag.String("format", "text", "output format: text or json")
	outputDir := flag.String("output", "", "also save the report under this directory (optional)")
	flag.Parse()

	if *symbol == "" && *snapshotPath == "" {
		fmt.Println("Error: -symbol or -snapshot is required")
		flag.Usage()
		os.Exit(1)
	}

	if err := initializeSystem(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := run(ctx, *configPath, *symbol, *snapshotPath, report.ParseFormat(*format), *outputDir)
	stop()
	if err != nil {
		logger.ErrorWithErr(ctx, "Analysis failed", err)
	}
	_ = logger.Shutdown(context.Background())
	if err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath, symbol, snapshotPath string, format report.Format, outputDir string) error {
	cfg, err := loadConfig(ctx, configPath)
	if err != nil {
		return err
	}
	compressOldLogs(ctx, cfg.AnalysisLog.Dir)

	snap, err := loadSnapshot(snapshotPath, symbol)
	if err != nil {
		return err
	}

	p, err := newPipeline(ctx, cfg)
	if err != nil {
		return err
	}

	logger.Info(ctx, "Starting analysis", "ticker", snap.Ticker, "source", cfg.MarketData.Source)
	rep := p.run(ctx, snap)

	reporter := report.NewReporter(outputDir)
	content, err := reporter.Generate(rep, format)
	if err != nil {
		return err
	}
	fmt.Println(content)

	if outputDir != "" {
		path, err := reporter.Save(rep, format)
		if err != nil {
			logger.Warn(ctx, "Could not save report", "error", err)
		} else {
			logger.Info(ctx, "Report saved", "path", path)
		}
	}

	if rep.Opportunity != nil {
		if err := analysislog.Append(ctx, cfg.AnalysisLog.Dir, rep.Opportunity); err != nil {
			logger.Warn(ctx, "Failed to append analysis log", "error", err)
		} else if path, err := analysislog.Summarize(cfg.AnalysisLog.Dir, rep.Timestamp); err != nil {
			logger.Warn(ctx, "Failed to summarize analysis log", "error", err)
		} else if path != "" {
			logger.Info(ctx, "Daily summary written", "path", path)
		}
	}
	return nil
}
