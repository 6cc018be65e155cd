// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package ingest

// compilationMetricsAnalyzer is the one analyzer that cannot be part of
// the static default set: rendering its page needs the compile
// directory entries accumulated so far for this record, plus the stack
// and symbolic-shape-specialization indices, none of which any other
// analyzer touches. parse.go constructs one fresh per compilation_metrics
// record, capturing that record's context, and runs it through the same
// runAnalyzer dispatch every other analyzer goes through.
type compilationMetricsAnalyzer struct {
	renderer     Renderer
	stackIndex   *StackIndex
	specIndex    *SymbolicShapeSpecializationIndex
	directoryRow []OutputFile
	compileIdDir string
	metricsIndex *MetricsIndex
}

func (a *compilationMetricsAnalyzer) Name() string               { return "compilation_metrics" }
func (a *compilationMetricsAnalyzer) Applicable(e *Envelope) bool { return e.CompilationMetrics != nil }

func (a *compilationMetricsAnalyzer) Parse(lineno int, e *Envelope, compileID OptCompileId, payload string) ([]ParserOutput, error) {
	m := e.CompilationMetrics

	stackHTML := ""
	if stack, ok := a.stackIndex.Get(compileID); ok {
		stackHTML = formatStack(stack)
	}

	miniStackHTML := ""
	if m.CoName != nil && m.CoFilename != nil && m.CoFirstLineNo != nil {
		miniStackHTML = formatStack(StackSummary{{
			UninternedFilename: *m.CoFilename,
			Line:               *m.CoFirstLineNo,
			Name:               *m.CoName,
		}})
	}

	var specs []SymbolicShapeSpecializationContext
	for _, s := range a.specIndex.TakeByZeroAttempt(compileID) {
		specs = append(specs, SymbolicShapeSpecializationContext{
			Symbol: s.Symbol, Sources: s.Sources, Value: s.Value,
			UserStackHTML: formatStack(s.UserStack), StackHTML: formatStack(s.Stack),
		})
	}

	outputFiles := make([]OutputFile, len(a.directoryRow))
	for i, of := range a.directoryRow {
		outputFiles[i] = OutputFile{
			URL: removeURLPrefix(of.URL), Name: removeURLPrefix(of.Name),
			Number: of.Number, Suffix: of.Suffix,
		}
	}

	context := CompilationMetricsContext{
		CSS: a.renderer.CSS(), M: m, CompileId: compileIdLabel(compileID),
		StackHTML: stackHTML, MiniStackHTML: miniStackHTML,
		SymbolicShapeSpecializations: specs,
		OutputFiles:                  outputFiles,
		CompileIdDir:                 a.compileIdDir,
	}
	out, err := a.renderer.Render("compilation_metrics.html", context)
	if err != nil {
		return nil, err
	}

	a.metricsIndex.Add(compileID, m)

	return simpleFileOutput("compilation_metrics.html", lineno, compileID, out), nil
}

// recordMetricsBreaks appends the restart/failure rows this compilation_metrics
// record contributes to the failures_and_restarts page, linking each row
// to href (the metrics page's real, sequence-suffixed filename). Called
// by parse.go once runAnalyzer has assigned that filename, since the
// analyzer itself runs before the dispatcher knows its own output
// sequence number.
func recordMetricsBreaks(breaks *FailureAggregator, m *CompilationMetrics, href string) {
	for _, reason := range m.RestartReasons {
		breaks.AddRestart(href, []string{reason})
	}
	if m.FailType != nil {
		reason := ""
		if m.FailReason != nil {
			reason = *m.FailReason
		}
		userFrameFilename := "N/A"
		if m.FailUserFrameFilename != nil {
			userFrameFilename = *m.FailUserFrameFilename
		}
		var userFrameLineNo uint32
		if m.FailUserFrameLineNo != nil {
			userFrameLineNo = *m.FailUserFrameLineNo
		}
		breaks.AddFailure(href, *m.FailType, reason, userFrameFilename, userFrameLineNo)
	}
}
