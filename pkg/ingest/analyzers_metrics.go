// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package ingest

// BwdCompilationMetricsAnalyzer renders the backward-pass compile-time
// metrics for a single AOTAutograd backward graph.
type BwdCompilationMetricsAnalyzer struct {
	Renderer Renderer
}

func (a *BwdCompilationMetricsAnalyzer) Name() string { return "bwd_compilation_metrics" }
func (a *BwdCompilationMetricsAnalyzer) Applicable(e *Envelope) bool {
	return e.BwdCompilationMetrics != nil
}
func (a *BwdCompilationMetricsAnalyzer) Parse(lineno int, e *Envelope, compileID OptCompileId, payload string) ([]ParserOutput, error) {
	out, err := a.Renderer.Render("bwd_compilation_metrics.html", BwdCompilationMetricsContext{
		CSS: a.Renderer.CSS(), M: e.BwdCompilationMetrics, CompileId: compileIdLabel(compileID),
	})
	if err != nil {
		return nil, err
	}
	return simpleFileOutput("bwd_compilation_metrics.html", lineno, compileID, out), nil
}

// AOTAutogradBackwardCompilationMetricsAnalyzer renders the AOTAutograd
// backward-compile metrics page.
type AOTAutogradBackwardCompilationMetricsAnalyzer struct {
	Renderer Renderer
}

func (a *AOTAutogradBackwardCompilationMetricsAnalyzer) Name() string {
	return "aot_autograd_backward_compilation_metrics"
}
func (a *AOTAutogradBackwardCompilationMetricsAnalyzer) Applicable(e *Envelope) bool {
	return e.AOTAutogradBackwardCompilationMetrics != nil
}
func (a *AOTAutogradBackwardCompilationMetricsAnalyzer) Parse(lineno int, e *Envelope, compileID OptCompileId, payload string) ([]ParserOutput, error) {
	out, err := a.Renderer.Render("aot_autograd_backward_compilation_metrics.html", AOTAutogradBackwardCompilationMetricsContext{
		CSS: a.Renderer.CSS(), M: e.AOTAutogradBackwardCompilationMetrics, CompileId: compileIdLabel(compileID),
	})
	if err != nil {
		return nil, err
	}
	return simpleFileOutput("aot_autograd_backward_compilation_metrics.html", lineno, compileID, out), nil
}

// compileIdLabel renders the "<cid> " prefix these metrics pages use to
// label themselves, or "(unknown) " when there is no compile id.
func compileIdLabel(id OptCompileId) string {
	if !id.Present {
		return "(unknown) "
	}
	return id.Id.String() + " "
}
