// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"path/filepath"

	"github.com/kraklabs/tlparse/internal/output"
	"github.com/kraklabs/tlparse/pkg/ingest"
)

// runResultJSON is the --json counterpart to the human-readable
// ui.Successf summary: a machine-readable record of where the report
// was written and how the error-taxonomy counters came out.
type runResultJSON struct {
	OutDir           string  `json:"out_dir"`
	DetectedRank     *uint32 `json:"detected_rank,omitempty"`
	OK               uint64  `json:"ok"`
	OtherRank        uint64  `json:"other_rank"`
	FailGlog         uint64  `json:"fail_glog"`
	FailJSON         uint64  `json:"fail_json"`
	FailPayloadMD5   uint64  `json:"fail_payload_md5"`
	FailDynamoGuards uint64  `json:"fail_dynamo_guards_json"`
	FailParser       uint64  `json:"fail_parser"`
	Unknown          uint64  `json:"unknown"`
}

func emitSummaryJSON(outDir string, stats ingest.Stats, detectedRank *uint32) error {
	return output.JSON(runResultJSON{
		OutDir:           outDir,
		DetectedRank:     detectedRank,
		OK:               stats.OK,
		OtherRank:        stats.OtherRank,
		FailGlog:         stats.FailGlog,
		FailJSON:         stats.FailJSON,
		FailPayloadMD5:   stats.FailPayloadMD5,
		FailDynamoGuards: stats.FailDynamoGuardsJSON,
		FailParser:       stats.FailParser,
		Unknown:          stats.Unknown,
	})
}

// indexHTMLPath returns the absolute path to the report's index page,
// for handing to the browser opener.
func indexHTMLPath(outDir string) (string, error) {
	abs, err := filepath.Abs(filepath.Join(outDir, "index.html"))
	if err != nil {
		return "", err
	}
	return abs, nil
}
