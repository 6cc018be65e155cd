// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package ingest implements the streaming ingestion pipeline that turns a
// structured compiler log into an in-memory report: a two-level line
// protocol decoder, a rank filter, a process-wide string intern table, a
// dispatch layer over a pluggable analyzer set, and the aggregation
// structures (a stack trie and a compilation-metrics index) that the final
// report is rendered from.
//
// The package never touches the filesystem beyond opening the input path
// for reading. Parse returns an ordered list of (relative path, contents)
// pairs; a caller decides whether and where to write them.
package ingest

import (
	"fmt"
)

// CompileId names one compilation attempt: the frame that was compiled,
// how many times that frame has been recompiled, and the restart attempt
// within that recompilation.
type CompileId struct {
	FrameId         uint32
	FrameCompileId  uint32
	Attempt         uint32
}

// String renders a CompileId as "[f/c]", or "[f/c_a]" when Attempt != 0.
func (c CompileId) String() string {
	if c.Attempt != 0 {
		return fmt.Sprintf("[%d/%d_%d]", c.FrameId, c.FrameCompileId, c.Attempt)
	}
	return fmt.Sprintf("[%d/%d]", c.FrameId, c.FrameCompileId)
}

// ZeroAttempt returns a copy of c with Attempt forced to 0, the key used
// to cluster every attempt of one compilation in the metrics index.
func (c CompileId) ZeroAttempt() CompileId {
	c.Attempt = 0
	return c
}

// OptCompileId is a CompileId that may be absent (the record's envelope
// carried no compile id triple at all). An OptCompileId{Present: false}
// is rendered as "(unknown)".
type OptCompileId struct {
	Present bool
	Id      CompileId
}

// Some wraps a present CompileId.
func Some(id CompileId) OptCompileId { return OptCompileId{Present: true, Id: id} }

// String implements fmt.Stringer.
func (o OptCompileId) String() string {
	if !o.Present {
		return "(unknown)"
	}
	return o.Id.String()
}

// ZeroAttempt returns the metrics-index key for o: the compile id with
// Attempt forced to 0, or the absent marker unchanged.
func (o OptCompileId) ZeroAttempt() OptCompileId {
	if !o.Present {
		return o
	}
	return Some(o.Id.ZeroAttempt())
}

// FrameSummary is one stack frame: an interned filename, a line number,
// and a function name. Two frames are equal iff all three fields match.
type FrameSummary struct {
	FilenameId uint32
	Line       int32
	Name       string

	// UninternedFilename, when set, is used instead of resolving
	// FilenameId through the intern table. Used for synthetic frames
	// built from compilation-metrics co_filename/co_name fields, which
	// never went through the intern table in the first place.
	UninternedFilename string
}

// StackSummary is an ordered sequence of frames, most-recent-call-last.
type StackSummary []FrameSummary

// OutputFile is one link rendered under one compile id on the index page.
type OutputFile struct {
	URL      string
	Name     string
	Number   int
	Suffix   string
}

// CompilationMetrics is the structural record attached to one (compile id,
// attempt) pair by a compilation_metrics envelope.
type CompilationMetrics struct {
	CoName                     *string
	CoFilename                 *string
	CoFirstLineNo              *int32
	CacheSize                  *uint64
	AccumulatedCacheSize       *uint64
	GuardCount                 *uint64
	ShapeEnvGuardCount         *uint64
	GraphOpCount               *uint64
	GraphNodeCount             *uint64
	GraphInputCount            *uint64
	StartTime                  *float64
	EntireFrameCompileTimeS    *float64
	BackendCompileTimeS        *float64
	InductorCompileTimeS       *float64
	CodeGenTimeS               *float64
	FailType                   *string
	FailReason                 *string
	FailUserFrameFilename      *string
	FailUserFrameLineNo        *uint32
	NonCompliantOps            []string
	CompliantCustomOps         []string
	RestartReasons             []string
	DynamoTimeBeforeRestartS   *float64
}

// BwdCompilationMetrics is the smaller metrics record emitted for a
// standalone backward compilation.
type BwdCompilationMetrics struct {
	InductorCompileTimeS *float64
	CodeGenTimeS         *float64
	FailType             *string
	FailReason           *string
}

// AOTAutogradBackwardCompilationMetrics is emitted once per backward AOT
// Autograd compile attempt.
type AOTAutogradBackwardCompilationMetrics struct {
	StartTime   *float64
	ElapsedTime *float64
	FailType    *string
	FailReason  *string
}

// SymbolicShapeSpecialization records one guard installed on a dynamic
// shape symbol, with the stack that triggered the specialization.
type SymbolicShapeSpecialization struct {
	Symbol    string
	Sources   []string
	Value     string
	Reason    string
	Stack     StackSummary
	UserStack StackSummary
}

// Stats tallies the error taxonomy of one Parse call. No counter here is
// fatal on its own; see Config.Strict and Config.StrictCompileId.
type Stats struct {
	OK                   uint64
	OtherRank            uint64
	FailGlog             uint64
	FailJSON             uint64
	FailPayloadMD5       uint64
	FailDynamoGuardsJSON uint64
	FailParser           uint64
	Unknown              uint64
}

// NonFatalTotal sums the counters that gate Config.Strict.
func (s Stats) NonFatalTotal() uint64 {
	return s.FailGlog + s.FailJSON + s.FailPayloadMD5 + s.OtherRank + s.FailDynamoGuardsJSON + s.FailParser
}

// String gives a short one-line rendering, used for progress-bar
// messages and the end-of-run log line.
func (s Stats) String() string {
	return fmt.Sprintf(
		"Stats { ok: %d, other_rank: %d, fail_glog: %d, fail_json: %d, fail_payload_md5: %d, fail_dynamo_guards_json: %d, fail_parser: %d, unknown: %d }",
		s.OK, s.OtherRank, s.FailGlog, s.FailJSON, s.FailPayloadMD5, s.FailDynamoGuardsJSON, s.FailParser, s.Unknown,
	)
}

// Output is one (path, contents) pair in Parse's returned report.
type Output struct {
	Path     string
	Contents string
}
