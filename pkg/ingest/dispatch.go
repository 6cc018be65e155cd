// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package ingest

import (
	"fmt"
	"strings"
)

// convertFrameSuffixes are the two known call-stack tails Dynamo's own
// frame-conversion machinery appends to every user stack trace. They add
// no information for a human reading the report, so they are trimmed
// before a stack is indexed or inserted into the stack trie.
var convertFrameSuffixes = [][3][2]string{
	{
		{"torch/_dynamo/convert_frame.py", "catch_errors"},
		{"torch/_dynamo/convert_frame.py", "_convert_frame"},
		{"torch/_dynamo/convert_frame.py", "_convert_frame_assert"},
	},
	{
		{"torch/_dynamo/convert_frame.py", "__call__"},
		{"torch/_dynamo/convert_frame.py", "__call__"},
		{"torch/_dynamo/convert_frame.py", "__call__"},
	},
}

// trimConvertFrameSuffixes removes a trailing run of frames matching
// either known convert_frame tail. At most one tail is removed: the first
// that matches, checked in convertFrameSuffixes order.
func trimConvertFrameSuffixes(stack StackSummary) StackSummary {
	n := len(stack)
	for _, target := range convertFrameSuffixes {
		if n < len(target) {
			continue
		}
		suffix := stack[n-len(target):]
		match := true
		for i, frame := range suffix {
			filename := simplifyFilename(globalIntern.Resolve(frame.FilenameId))
			if frame.UninternedFilename != "" {
				filename = simplifyFilename(frame.UninternedFilename)
			}
			if filename != target[i][0] || frame.Name != target[i][1] {
				match = false
				break
			}
		}
		if match {
			return stack[:n-len(target)]
		}
	}
	return stack
}

// Directory is C6: an insertion-ordered map from compile id to the
// output files/links registered against it, in the order the dispatcher
// produced them. Like StackTrieNode, ordering is tracked with a parallel
// slice since Go maps have none and nothing in the dependency set this
// module draws on provides an ordered-map type.
type Directory struct {
	order []OptCompileId
	index map[OptCompileId]int
	rows  [][]OutputFile
}

// NewDirectory constructs an empty directory.
func NewDirectory() *Directory {
	return &Directory{index: make(map[OptCompileId]int)}
}

// Entry returns (creating if necessary) the slice of output files for id,
// as a pointer so dispatch can append to it in place.
func (d *Directory) Entry(id OptCompileId) *[]OutputFile {
	if i, ok := d.index[id]; ok {
		return &d.rows[i]
	}
	d.index[id] = len(d.rows)
	d.order = append(d.order, id)
	d.rows = append(d.rows, nil)
	return &d.rows[len(d.rows)-1]
}

// Has reports whether id has an entry (used to detect the "some records
// had no compile id" condition for --strict_compile_id).
func (d *Directory) Has(id OptCompileId) bool {
	_, ok := d.index[id]
	return ok
}

// Entries returns every (compile id, files) pair in insertion order.
func (d *Directory) Entries() []DirectoryEntry {
	out := make([]DirectoryEntry, len(d.order))
	for i, id := range d.order {
		label := "(unknown)"
		if id.Present {
			label = id.Id.String()
		}
		out[i] = DirectoryEntry{CompileId: label, Files: d.rows[i]}
	}
	return out
}

// badgeSuffix returns the emoji badge a filename earns from its FX graph
// cache verdict, or "" if it names none of the three known markers.
func badgeSuffix(filename string) string {
	switch {
	case strings.Contains(filename, "fx_graph_cache_miss"):
		return "❌" // ❌
	case strings.Contains(filename, "fx_graph_cache_hit"):
		return "✅" // ✅
	case strings.Contains(filename, "fx_graph_cache_bypass"):
		return "❓" // ❓
	default:
		return ""
	}
}

// runAnalyzer is C4's per-analyzer step: it skips analyzers that are not
// applicable, suffixes File outputs with a process-wide monotonic
// sequence number to guarantee uniqueness, and folds Link/GlobalFile
// outputs into the compile directory without suffixing.
//
// outputCount is the shared, monotonically increasing sequence counter
// (equivalent to the upstream output_count); it is threaded through by
// pointer so every analyzer invocation for the whole ingest run shares
// one counter. onFailure, if non-nil, is called whenever the analyzer's
// Parse call itself errors (it is a caller's only hook for logging the
// error; Stats already records that it happened).
func runAnalyzer(lineno int, a Analyzer, e *Envelope, payload string, outputCount *int, writes *[]Output, dirRow *[]OutputFile, stats *Stats, onFailure func(analyzer string, err error)) {
	if !a.Applicable(e) {
		return
	}
	results, err := a.Parse(lineno, e, e.CompileId, payload)
	if err != nil {
		if a.Name() == "dynamo_guards" {
			stats.FailDynamoGuardsJSON++
		} else {
			stats.FailParser++
		}
		if onFailure != nil {
			onFailure(a.Name(), err)
		}
		return
	}
	for _, r := range results {
		switch r.Kind {
		case ParserOutputFile:
			stem, ext := splitExt(r.Path)
			suffixed := fmt.Sprintf("%s_%d%s", stem, *outputCount, ext)
			*writes = append(*writes, Output{Path: suffixed, Contents: r.Contents})
			*dirRow = append(*dirRow, OutputFile{URL: suffixed, Name: suffixed, Number: *outputCount, Suffix: badgeSuffix(suffixed)})
			*outputCount++
		case OutputGlobalFile:
			*writes = append(*writes, Output{Path: r.Path, Contents: r.Contents})
			*dirRow = append(*dirRow, OutputFile{URL: r.Path, Name: r.Path, Number: *outputCount, Suffix: badgeSuffix(r.Path)})
			*outputCount++
		case OutputLink:
			*dirRow = append(*dirRow, OutputFile{URL: r.LinkURL, Name: r.LinkName, Number: *outputCount})
			*outputCount++
		}
	}
}

// defaultAnalyzers returns the built-in analyzer set, in the order the
// upstream default_parsers registers them. renderer and plainText
// parameterize the handful of analyzers that need template rendering or
// a text/html toggle.
func defaultAnalyzers(renderer Renderer, plainText bool) []Analyzer {
	result := defaultSentinelAnalyzers()
	result = append(result,
		GraphDumpAnalyzer{},
		DynamoOutputGraphAnalyzer{},
		&DynamoGuardsAnalyzer{Renderer: renderer},
		&InductorOutputCodeAnalyzer{PlainText: plainText},
		OptimizeDdpSplitChildAnalyzer{},
		&AOTAutogradBackwardCompilationMetricsAnalyzer{Renderer: renderer},
		&BwdCompilationMetricsAnalyzer{Renderer: renderer},
		LinkAnalyzer{},
		ArtifactAnalyzer{},
		DumpFileAnalyzer{},
		DescribeStorageAnalyzer{},
		DescribeTensorAnalyzer{},
		DescribeSourceAnalyzer{},
	)
	return result
}
