// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Command tlparse turns an append-only structured compiler log into a
// self-contained static HTML report, grouped by compile id.
//
// Usage:
//
//	tlparse path/to/log [flags]
package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/tlparse/internal/errors"
	"github.com/kraklabs/tlparse/internal/ui"
	"github.com/kraklabs/tlparse/pkg/ingest"
	"github.com/kraklabs/tlparse/pkg/report"
)

// version is set via ldflags during release builds.
var version = "dev"

func main() {
	if len(os.Args) > 1 && os.Args[1] == "summary" {
		runSummary(os.Args[2:])
		return
	}

	fs := flag.NewFlagSet("tlparse", flag.ExitOnError)

	out := fs.StringP("out", "o", "tl_out", "Output directory")
	overwrite := fs.Bool("overwrite", false, "Delete out directory if it already exists")
	strict := fs.Bool("strict", false, "Return non-zero exit code if unrecognized log lines are found")
	strictCompileId := fs.Bool("strict_compile_id", false, "Return non-zero exit code if some log lines do not have an associated compile id")
	noBrowser := fs.Bool("no-browser", false, "Don't open browser at the end")
	customHeaderHTML := fs.String("custom-header-html", "", "Some custom HTML to append to the top of the report")
	verbose := fs.BoolP("verbose", "v", false, "Be more chatty")
	jsonOutput := fs.Bool("json", false, "Print a JSON summary instead of human-readable progress")
	quiet := fs.BoolP("quiet", "q", false, "Suppress progress output")
	noColor := fs.Bool("no-color", false, "Disable colored output")
	showVersion := fs.Bool("version", false, "Show version and exit")
	metricsAddr := fs.String("metrics-addr", "", "HTTP listen address for Prometheus metrics (empty to disable)")
	configPath := fs.String("config", "", "Path to a YAML config file of flag defaults")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `tlparse - render a structured compiler log as a static HTML report

Usage:
  tlparse <path> [flags]

Examples:
  tlparse dedicated_log_torch_trace.log
  tlparse dedicated_log_torch_trace.log -o /tmp/report --overwrite
  tlparse dedicated_log_torch_trace.log --strict --no-browser

Flags:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(os.Args[1:]); err != nil {
		os.Exit(errors.ExitInput)
	}

	ui.InitColors(*noColor)

	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}
	var handler slog.Handler
	if *jsonOutput {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})
	} else {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)

	if *showVersion {
		fmt.Println("tlparse", version)
		return
	}

	if fs.NArg() < 1 {
		fs.Usage()
		os.Exit(errors.ExitInput)
	}
	path := fs.Arg(0)

	fileCfg, err := loadConfig(*configPath)
	if err != nil {
		errors.FatalError(errors.NewConfigError("cannot load config file", err.Error(), "fix the YAML or remove --config", err), *jsonOutput)
	}
	if !fs.Changed("out") && fileCfg.Out != "" {
		*out = fileCfg.Out
	}
	if !fs.Changed("custom-header-html") && fileCfg.CustomHeaderHTML != "" {
		*customHeaderHTML = fileCfg.CustomHeaderHTML
	}
	if !fs.Changed("no-browser") && fileCfg.NoBrowser {
		*noBrowser = true
	}
	if !fs.Changed("no-color") && fileCfg.NoColor {
		*noColor = true
	}
	if !fs.Changed("metrics-addr") && fileCfg.MetricsAddr != "" {
		*metricsAddr = fileCfg.MetricsAddr
	}

	if err := prepareOutputDir(*out, *overwrite); err != nil {
		errors.FatalError(err, *jsonOutput)
	}

	if *metricsAddr != "" {
		serveMetrics(*metricsAddr, logger)
	}

	progressCfg := NewProgressConfig(*jsonOutput, *quiet, *noColor)
	bar := NewProgressBar(progressCfg, 0, "parsing "+path)

	logger.Debug("log.opened", "path", path)
	start := time.Now()

	var detectedRank *uint32
	outputs, stats, err := ingest.Parse(path, ingest.Config{
		Strict:           *strict,
		StrictCompileId:  *strictCompileId,
		CustomHeaderHTML: *customHeaderHTML,
		Verbose:          *verbose,
		Renderer:         report.New(),
		Progress:         &barProgress{bar: bar},
		OnUnknownField: func(field string) {
			if *verbose && !*jsonOutput {
				ui.Warningf("unknown field %q", field)
			}
		},
		OnDetectedRank: func(rank *uint32) {
			detectedRank = rank
			logger.Debug("rank.latched", "rank", rank)
		},
		OnParserFailure: func(analyzer string, err error) {
			if *verbose && !*jsonOutput {
				ui.Warningf("analyzer %q failed: %v", analyzer, err)
			}
		},
	})
	parseDuration := time.Since(start)
	logger.Debug("parse.finished", "duration", parseDuration, "stats", stats.String())
	if err != nil && len(outputs) == 0 {
		errors.FatalError(errors.NewInputError("failed to parse log", err.Error(), "check the input file is a valid structured compiler log"), *jsonOutput)
	}

	if writeErr := writeOutputs(*out, outputs); writeErr != nil {
		errors.FatalError(writeErr, *jsonOutput)
	}
	logger.Debug("report.written", "out", *out, "files", len(outputs))

	if *metricsAddr != "" {
		observeStats(stats.OK, stats.OtherRank, stats.FailGlog, stats.FailJSON, stats.FailPayloadMD5, stats.FailDynamoGuardsJSON, stats.FailParser, stats.Unknown)
		tlMetrics.parseDuration.Observe(parseDuration.Seconds())
	}

	if *jsonOutput {
		_ = emitSummaryJSON(*out, stats, detectedRank)
	} else {
		ui.Successf("wrote report to %s (%s)", *out, stats.String())
	}

	if err != nil {
		errors.FatalError(errors.NewStrictError("strict mode ingestion failure", err.Error(), "rerun without --strict to inspect the generated report", err), *jsonOutput)
	}

	if !*noBrowser && !*jsonOutput {
		indexPath, absErr := indexHTMLPath(*out)
		if absErr == nil {
			_ = openBrowser(indexPath)
		}
	}
}
