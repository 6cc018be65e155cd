// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"os"
	"path/filepath"

	"github.com/kraklabs/tlparse/internal/errors"
	"github.com/kraklabs/tlparse/pkg/ingest"
)

// prepareOutputDir ensures outDir exists and is empty, removing any
// existing directory first when overwrite is set. Mirrors the upstream
// CLI's exists-then-remove-then-create sequence.
func prepareOutputDir(outDir string, overwrite bool) error {
	if _, err := os.Stat(outDir); err == nil {
		if !overwrite {
			return errors.NewInputError(
				"output directory already exists",
				outDir+" is already present",
				"pass --overwrite to replace it",
			)
		}
		if err := os.RemoveAll(outDir); err != nil {
			return errors.NewInternalError("cannot remove output directory", err.Error(), "check directory permissions", err)
		}
	} else if !os.IsNotExist(err) {
		return errors.NewInternalError("cannot stat output directory", err.Error(), "check directory permissions", err)
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return errors.NewInternalError("cannot create output directory", err.Error(), "check directory permissions", err)
	}
	return nil
}

// writeOutputs writes every (path, contents) pair under outDir, creating
// parent directories as needed, following the upstream CLI's
// create-parent-then-write loop.
func writeOutputs(outDir string, outputs []ingest.Output) error {
	for _, o := range outputs {
		full := filepath.Join(outDir, o.Path)
		if dir := filepath.Dir(full); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return errors.NewInternalError("cannot create report directory", err.Error(), "check directory permissions", err)
			}
		}
		if err := os.WriteFile(full, []byte(o.Contents), 0o644); err != nil {
			return errors.NewInternalError("cannot write report file", err.Error(), "check directory permissions", err)
		}
	}
	return nil
}
