// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"github.com/kraklabs/tlparse/pkg/ingest"
)

// ProgressConfig determines if and how progress should be displayed.
type ProgressConfig struct {
	// Enabled indicates whether a progress bar should be shown.
	// Disabled when --json/--quiet is passed, or when stderr is not a TTY.
	Enabled bool

	// Writer is where progress output goes (always os.Stderr).
	Writer io.Writer

	// NoColor disables colored output in the progress bar.
	NoColor bool
}

// NewProgressConfig builds a ProgressConfig from the CLI's global flags
// and TTY detection.
func NewProgressConfig(jsonOutput, quiet, noColor bool) ProgressConfig {
	enabled := !jsonOutput && !quiet && isatty.IsTerminal(os.Stderr.Fd())
	return ProgressConfig{Enabled: enabled, Writer: os.Stderr, NoColor: noColor}
}

// NewProgressBar creates a byte-based progress bar with consistent
// styling. Returns nil if progress is disabled; barProgress treats a nil
// bar as a no-op.
func NewProgressBar(cfg ProgressConfig, total int64, description string) *progressbar.ProgressBar {
	if !cfg.Enabled {
		return nil
	}

	return progressbar.NewOptions64(total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(cfg.Writer),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionEnableColorCodes(!cfg.NoColor),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}

// barProgress adapts a *progressbar.ProgressBar to ingest.ProgressReporter.
// A nil bar is valid and every method becomes a no-op, matching the
// ingest package's own "nil ProgressReporter means no progress output"
// contract.
type barProgress struct {
	bar *progressbar.ProgressBar
}

var _ ingest.ProgressReporter = (*barProgress)(nil)

func (p *barProgress) SetTotal(bytes int64) {
	if p.bar == nil {
		return
	}
	p.bar.ChangeMax64(bytes)
}

func (p *barProgress) SetPosition(bytes int64) {
	if p.bar == nil {
		return
	}
	_ = p.bar.Set64(bytes)
}

func (p *barProgress) SetMessage(msg string) {
	if p.bar == nil {
		return
	}
	p.bar.Describe(msg)
}

func (p *barProgress) Finish() {
	if p.bar == nil {
		return
	}
	_ = p.bar.Finish()
}
