// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package ingest

import (
	"encoding/json"
	"fmt"
)

// Describer analyzers are a supplemented feature (see SPEC_FULL.md §12.2):
// upstream's AOTAutograd tensor/storage/source describer records are
// logged but never rendered anywhere in the distilled report. Each one
// gets a small JSON dump alongside the compile id that produced it, so a
// reader debugging an aliasing or memory-planning issue has the raw
// metadata on hand instead of only the raw.log grep.

// DescribeStorageAnalyzer dumps one describe_storage record.
type DescribeStorageAnalyzer struct{}

func (DescribeStorageAnalyzer) Name() string               { return "describe_storage" }
func (DescribeStorageAnalyzer) Applicable(e *Envelope) bool { return e.DescribeStorage != nil }
func (DescribeStorageAnalyzer) Parse(lineno int, e *Envelope, compileID OptCompileId, payload string) ([]ParserOutput, error) {
	filename := fmt.Sprintf("describe_storage_%d.json", e.DescribeStorage.Id)
	return simpleFileOutput(filename, lineno, compileID, prettyJSON(payload)), nil
}

// DescribeTensorAnalyzer dumps one describe_tensor record.
type DescribeTensorAnalyzer struct{}

func (DescribeTensorAnalyzer) Name() string               { return "describe_tensor" }
func (DescribeTensorAnalyzer) Applicable(e *Envelope) bool { return e.DescribeTensor != nil }
func (DescribeTensorAnalyzer) Parse(lineno int, e *Envelope, compileID OptCompileId, payload string) ([]ParserOutput, error) {
	filename := fmt.Sprintf("describe_tensor_%d.json", e.DescribeTensor.Id)
	return simpleFileOutput(filename, lineno, compileID, prettyJSON(payload)), nil
}

// DescribeSourceAnalyzer dumps one describe_source record.
type DescribeSourceAnalyzer struct{}

func (DescribeSourceAnalyzer) Name() string               { return "describe_source" }
func (DescribeSourceAnalyzer) Applicable(e *Envelope) bool { return e.DescribeSource != nil }
func (DescribeSourceAnalyzer) Parse(lineno int, e *Envelope, compileID OptCompileId, payload string) ([]ParserOutput, error) {
	filename := fmt.Sprintf("describe_source_%d.json", e.DescribeSource.Id)
	return simpleFileOutput(filename, lineno, compileID, prettyJSON(payload)), nil
}

// prettyJSON pretty-prints payload if it parses as JSON, otherwise
// returns it unchanged (the sentinel metadata records carry their real
// content in the payload, so a malformed payload should still be saved
// rather than dropped).
func prettyJSON(payload string) string {
	var v any
	if err := json.Unmarshal([]byte(payload), &v); err != nil {
		return payload
	}
	pretty, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return payload
	}
	return string(pretty)
}
