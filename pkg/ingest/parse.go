// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package ingest

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
)

// ProgressReporter receives progress updates while Parse streams through
// the input file. All methods must tolerate being called from a single
// goroutine at a high frequency (once per line); implementations that
// render to a terminal should rate-limit internally. A nil
// ProgressReporter is valid and simply means "no progress output."
type ProgressReporter interface {
	SetTotal(bytes int64)
	SetPosition(bytes int64)
	SetMessage(msg string)
	Finish()
}

// Config parameterizes one Parse call.
type Config struct {
	// Strict fails the run if any non-fatal error counter in Stats is
	// nonzero once ingestion completes.
	Strict bool
	// StrictCompileId fails the run if any record lacked a compile id.
	StrictCompileId bool
	// CustomAnalyzers run after the built-in set, in the order given.
	CustomAnalyzers []Analyzer
	// CustomHeaderHTML is injected verbatim at the top of index.html.
	CustomHeaderHTML string
	// Verbose logs every unknown field as it is first seen.
	Verbose bool
	// PlainText renders inductor_output_code payloads as .txt instead of
	// syntax-highlighted .html.
	PlainText bool
	// Renderer renders every HTML-producing analyzer's template.
	Renderer Renderer
	// Progress receives streaming progress updates; may be nil.
	Progress ProgressReporter
	// OnUnknownField is called the first time each unknown JSON field
	// name is observed, when Verbose is set.
	OnUnknownField func(field string)
	// OnDetectedRank is called once, when the rank gate latches.
	OnDetectedRank func(rank *uint32)
	// OnParserFailure is called whenever an analyzer's Parse returns an
	// error, so a caller can log it without Parse itself writing to
	// stderr.
	OnParserFailure func(analyzer string, err error)
}

// Parse is C10: it reads the structured log at path end to end and
// returns the full set of report files plus the error-taxonomy counters
// collected along the way. It never writes to the filesystem itself.
func Parse(path string, cfg Config) ([]Output, Stats, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("%s: %w", path, err)
	}
	if info.IsDir() {
		return nil, Stats{}, fmt.Errorf("%s is not a file", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, Stats{}, err
	}
	defer f.Close()

	if cfg.Progress != nil {
		cfg.Progress.SetTotal(info.Size())
		defer cfg.Progress.Finish()
	}

	lines, err := readNonEmptyLines(f)
	if err != nil {
		return nil, Stats{}, err
	}

	var stats Stats
	gate := &rankGate{}
	stackTrie := NewStackTrieNode()
	unknownStackTrie := NewStackTrieNode()
	directory := NewDirectory()
	metricsIndex := NewMetricsIndex()
	stackIndex := NewStackIndex()
	specIndex := NewSymbolicShapeSpecializationIndex()
	breaks := NewFailureAggregator()
	unknownFields := map[string]bool{}

	var outputs []Output
	var chromiumEvents []string
	outputCount := 0

	analyzers := defaultAnalyzers(cfg.Renderer, cfg.PlainText)
	analyzers = append(analyzers, cfg.CustomAnalyzers...)

	var bytesRead int64
	i := 0
	for i < len(lines) {
		lineno, line := lines[i].no, lines[i].text
		i++
		bytesRead += int64(len(line))
		if cfg.Progress != nil {
			cfg.Progress.SetPosition(bytesRead)
			cfg.Progress.SetMessage(stats.String())
		}

		dec, ok := matchGlogPrefix(line)
		if !ok {
			stats.FailGlog++
			continue
		}

		envJSON := line[dec.payloadStart:]
		e, err := decodeEnvelope([]byte(envJSON))
		if err != nil {
			stats.FailJSON++
			continue
		}

		stats.Unknown += uint64(len(e.UnknownFields))
		for _, k := range e.UnknownFields {
			if !unknownFields[k] {
				unknownFields[k] = true
				if cfg.Verbose && cfg.OnUnknownField != nil {
					cfg.OnUnknownField(k)
				}
			}
		}

		if e.Str != nil {
			globalIntern.Insert(e.Str.Id, e.Str.Name)
			continue
		}

		var payload string
		if e.HasPayload != "" {
			var lns []string
			for i < len(lines) && len(lines[i].text) > 0 && lines[i].text[0] == '\t' {
				lns = append(lns, lines[i].text)
				i++
			}
			payload = joinPayloadLines(lns)
			if !verifyPayloadDigest(e.HasPayload, payload) {
				stats.FailPayloadMD5++
			}
		}

		if !gate.latched {
			if cfg.OnDetectedRank != nil {
				cfg.OnDetectedRank(e.Rank)
			}
		}
		if !gate.admit(e.Rank) {
			stats.OtherRank++
			continue
		}

		stats.OK++

		dirRow := directory.Entry(e.CompileId)
		for _, a := range analyzers {
			runAnalyzer(lineno, a, e, payload, &outputCount, &outputs, dirRow, &stats, cfg.OnParserFailure)
		}

		if m := e.CompilationMetrics; m != nil {
			metricsAnalyzer := &compilationMetricsAnalyzer{
				renderer: cfg.Renderer, stackIndex: stackIndex, specIndex: specIndex,
				directoryRow: append([]OutputFile(nil), *dirRow...),
				compileIdDir: compileIdDirName(e.CompileId, lineno),
				metricsIndex: metricsIndex,
			}
			before := len(*dirRow)
			runAnalyzer(lineno, metricsAnalyzer, e, payload, &outputCount, &outputs, dirRow, &stats, cfg.OnParserFailure)
			if len(*dirRow) > before {
				last := (*dirRow)[len(*dirRow)-1]
				href := "(unknown) "
				if e.CompileId.Present {
					href = fmt.Sprintf("<a href='%s'>%s</a> ", last.URL, e.CompileId.Id.String())
				}
				recordMetricsBreaks(breaks, m, href)
			}
		}

		if e.Stack != nil {
			unknownStackTrie.Insert(e.Stack, OptCompileId{})
		}

		if e.ChromiumEvent {
			chromiumEvents = append(chromiumEvents, payload)
		}

		if spec := e.SymbolicShapeSpecialization; spec != nil {
			specIndex.Add(e.CompileId, *spec)
		}

		if e.DynamoStart != nil {
			stack := toStackSummary(e.DynamoStart.Stack)
			if stack != nil {
				stack = trimConvertFrameSuffixes(stack)
				stackIndex.Set(e.CompileId, stack)
				stackTrie.Insert(stack, e.CompileId)
			}
		}
	}

	failuresHTML, err := cfg.Renderer.Render("failures_and_restarts.html", RestartsAndFailuresContext{
		CSS: cfg.Renderer.FailuresCSS(), Failures: breaks.Rows,
	})
	if err != nil {
		return nil, stats, err
	}
	outputs = append(outputs, Output{Path: "failures_and_restarts.html", Contents: failuresHTML})
	outputs = append(outputs, Output{Path: "chromium_events.json", Contents: renderChromiumEvents(chromiumEvents)})

	hasUnknownCompileId := directory.Has(OptCompileId{})

	indexHTML, err := cfg.Renderer.Render("index.html", IndexContext{
		CSS:                  cfg.Renderer.CSS(),
		JavaScript:           cfg.Renderer.JavaScript(),
		CustomHeaderHTML:     cfg.CustomHeaderHTML,
		Directory:            directory.Entries(),
		StackTrieHTML:        stackTrie.Render(metricsIndex),
		UnknownStackTrieHTML: unknownStackTrie.Render(metricsIndex),
		HasUnknownStackTrie:  !unknownStackTrie.IsEmpty(),
		NumBreaks:            len(breaks.Rows),
		HasChromiumEvents:    len(chromiumEvents) > 0,
	})
	if err != nil {
		return nil, stats, err
	}
	outputs = append(outputs, Output{Path: "index.html", Contents: indexHTML})

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, stats, err
	}
	outputs = append(outputs, Output{Path: "raw.log", Contents: string(raw)})

	if cfg.Strict && stats.NonFatalTotal() > 0 {
		return outputs, stats, fmt.Errorf("something went wrong: %s", stats.String())
	}
	if cfg.StrictCompileId && hasUnknownCompileId {
		return outputs, stats, fmt.Errorf("some log entries did not have a compile id")
	}

	return outputs, stats, nil
}

// removeURLPrefix drops the leading "<compile_id_dir>/" component of a
// File/GlobalFile URL, since links rendered from inside a compile id's
// own subdirectory are already relative to it.
func removeURLPrefix(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] == '/' {
			return s[i+1:]
		}
	}
	return s
}

type numberedLine struct {
	no   int
	text string
}

// readNonEmptyLines reads every line of f, tagging each with its
// 1-indexed position in the file, and drops lines that are exactly
// empty (a known stutter in some log pipelines; a blank line can never
// be valid input, since even an empty payload is represented as a
// single tab character).
func readNonEmptyLines(f *os.File) ([]numberedLine, error) {
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	var out []numberedLine
	no := 0
	for sc.Scan() {
		no++
		line := sc.Text()
		if line == "" {
			continue
		}
		out = append(out, numberedLine{no: no, text: line})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// joinPayloadLines strips the leading tab from each continuation line
// and joins them with a single '\n', reproducing the multi-line payload
// exactly (including embedded blank lines, which still start with a
// tab).
func joinPayloadLines(lines []string) string {
	out := make([]byte, 0, 256)
	for i, l := range lines {
		if i > 0 {
			out = append(out, '\n')
		}
		out = append(out, l[1:]...)
	}
	return string(out)
}

// renderChromiumEvents pretty-prints the collected chromium_event
// continuation payloads as a JSON array. Each chromium_event record
// carries its event body as a has_payload continuation block (see
// SPEC_FULL.md §13.1), so the values collected here are already
// self-contained JSON.
func renderChromiumEvents(events []string) string {
	raw := make([]json.RawMessage, len(events))
	for i, e := range events {
		raw[i] = json.RawMessage(e)
	}
	out, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return "[]"
	}
	return string(out)
}
