// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package ingest

// These Context types are the data ingestion hands to Renderer.Render for
// each named template. They carry no rendering logic themselves; pkg/report
// owns the templates that consume them.

// DynamoGuardContext is one row of the dynamo_guards.html table.
type DynamoGuardContext struct {
	Code          string
	StackHTML     string
	UserStackHTML string
}

// DynamoGuardsContext is the top-level data for dynamo_guards.html.
type DynamoGuardsContext struct {
	Guards []DynamoGuardContext
}

// BwdCompilationMetricsContext is the data for bwd_compilation_metrics.html.
type BwdCompilationMetricsContext struct {
	CSS       string
	M         *BwdCompilationMetrics
	CompileId string
}

// AOTAutogradBackwardCompilationMetricsContext is the data for
// aot_autograd_backward_compilation_metrics.html.
type AOTAutogradBackwardCompilationMetricsContext struct {
	CSS       string
	M         *AOTAutogradBackwardCompilationMetrics
	CompileId string
}

// SymbolicShapeSpecializationContext is one rendered specialization row
// on the compilation-metrics page.
type SymbolicShapeSpecializationContext struct {
	Symbol        string
	Sources       []string
	Value         string
	UserStackHTML string
	StackHTML     string
}

// CompilationMetricsContext is the data for compilation_metrics.html.
type CompilationMetricsContext struct {
	CSS                          string
	M                            *CompilationMetrics
	CompileId                    string
	StackHTML                    string
	MiniStackHTML                string
	SymbolicShapeSpecializations []SymbolicShapeSpecializationContext
	OutputFiles                  []OutputFile
	CompileIdDir                 string
}

// RestartsAndFailuresContext is the data for failures_and_restarts.html.
type RestartsAndFailuresContext struct {
	CSS      string
	Failures []FailureRowContext
}

// FailureRowContext is one <tr> of the failures_and_restarts.html table.
type FailureRowContext struct {
	CompileIdHTML string
	RowHTML       string
}

// DirectoryEntry is one row of the index page's per-compile-id table:
// the compile id's display string (or "(unknown)") and the list of
// output files/links registered against it, in insertion order.
type DirectoryEntry struct {
	CompileId string
	Files     []OutputFile
}

// IndexContext is the data for index.html.
type IndexContext struct {
	CSS                  string
	JavaScript           string
	CustomHeaderHTML     string
	Directory            []DirectoryEntry
	StackTrieHTML        string
	UnknownStackTrieHTML string
	HasUnknownStackTrie  bool
	NumBreaks            int
	HasChromiumEvents    bool
}
