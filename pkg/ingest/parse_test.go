// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package ingest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kraklabs/tlparse/internal/testsupport"
	"github.com/kraklabs/tlparse/pkg/report"
)

func writeLog(t *testing.T, lines ...string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "input.log")
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatalf("write fixture log: %v", err)
	}
	return path
}

func outputByPath(t *testing.T, outputs []Output, path string) Output {
	t.Helper()
	for _, o := range outputs {
		if o.Path == path {
			return o
		}
	}
	t.Fatalf("no output at path %q; have: %v", path, outputPaths(outputs))
	return Output{}
}

func outputPaths(outputs []Output) []string {
	paths := make([]string, len(outputs))
	for i, o := range outputs {
		paths[i] = o.Path
	}
	return paths
}

func hasOutputPrefix(outputs []Output, prefix string) bool {
	for _, o := range outputs {
		if strings.HasPrefix(o.Path, prefix) {
			return true
		}
	}
	return false
}

func hasOutputContaining(outputs []Output, substr string) bool {
	for _, o := range outputs {
		if strings.Contains(o.Path, substr) {
			return true
		}
	}
	return false
}

// S1: a simple single-compilation log with no metrics produces every
// build product it logged, plus the two top-level pages, and strict mode
// passes.
func TestScenarioSimpleCompilation(t *testing.T) {
	path := writeLog(t,
		testsupport.Line(`{`+testsupport.CompileIdFields(0, 0, 0)+`, "dynamo_start": {"stack": [{"filename": 1, "line": 10, "name": "f", "uninterned_filename": "user/model.py"}]}}`),
		testsupport.StrRecord(1, "user/model.py"),
		testsupport.LineWithPayload(`{`+testsupport.CompileIdFields(0, 0, 0)+`, "aot_forward_graph": {}}`, "graph forward()"),
		testsupport.LineWithPayload(`{`+testsupport.CompileIdFields(0, 0, 0)+`, "dynamo_output_graph": {}}`, "graph output()"),
		testsupport.LineWithPayload(`{`+testsupport.CompileIdFields(0, 0, 0)+`, "inductor_post_grad_graph": {}}`, "graph post_grad()"),
		testsupport.LineWithPayload(`{`+testsupport.CompileIdFields(0, 0, 0)+`, "inductor_output_code": {}}`, "def f(x):\n    return x"),
		testsupport.LineWithPayload(`{`+testsupport.CompileIdFields(0, 0, 0)+`, "dynamo_guards": {}}`, "[]"),
	)

	outputs, stats, err := Parse(path, Config{Strict: true, Renderer: report.New()})
	if err != nil {
		t.Fatalf("Parse: %v (stats=%s)", err, stats.String())
	}

	for _, prefix := range []string{
		"0_0_0/aot_forward_graph", "0_0_0/dynamo_output_graph",
		"0_0_0/inductor_post_grad_graph", "0_0_0/inductor_output_code",
		"0_0_0/dynamo_guards",
	} {
		if !hasOutputPrefix(outputs, prefix) {
			t.Errorf("missing expected output prefix %q; got %v", prefix, outputPaths(outputs))
		}
	}
	outputByPath(t, outputs, "index.html")
	outputByPath(t, outputs, "failures_and_restarts.html")
}

// S2: three distinct compile ids, each carrying a compilation_metrics
// record, each get their own compilation_metrics page.
func TestScenarioCompilationMetricsFamilies(t *testing.T) {
	var lines []string
	for _, cid := range [][3]uint32{{0, 0, 1}, {1, 0, 1}, {2, 0, 0}} {
		lines = append(lines, testsupport.Line(
			`{`+testsupport.CompileIdFields(cid[0], cid[1], cid[2])+`, "compilation_metrics": {"cache_size": 1}}`,
		))
	}
	path := writeLog(t, lines...)

	outputs, stats, err := Parse(path, Config{Strict: true, Renderer: report.New()})
	if err != nil {
		t.Fatalf("Parse: %v (stats=%s)", err, stats.String())
	}

	for _, prefix := range []string{"0_0_1/", "1_0_1/", "2_0_0/"} {
		if !hasOutputPrefix(outputs, prefix) {
			t.Errorf("missing family with prefix %q; got %v", prefix, outputPaths(outputs))
		}
	}
	count := 0
	for _, o := range outputs {
		if strings.Contains(o.Path, "compilation_metrics") {
			count++
		}
	}
	if count != 3 {
		t.Errorf("expected 3 compilation_metrics pages, got %d", count)
	}
	outputByPath(t, outputs, "index.html")
	outputByPath(t, outputs, "failures_and_restarts.html")
}

// S3: a compile id whose compilation_metrics record carries a fail_type
// produces a row on the failures page.
func TestScenarioCompilationFailure(t *testing.T) {
	path := writeLog(t,
		testsupport.LineWithPayload(`{`+testsupport.CompileIdFields(0, 0, 0)+`, "dynamo_output_graph": {}}`, "graph output()"),
		testsupport.Line(`{`+testsupport.CompileIdFields(0, 0, 0)+`, "compilation_metrics": {"fail_type": "BackendCompilerFailed", "fail_reason": "boom"}}`),
	)

	outputs, stats, err := Parse(path, Config{Strict: true, Renderer: report.New()})
	if err != nil {
		t.Fatalf("Parse: %v (stats=%s)", err, stats.String())
	}

	if !hasOutputPrefix(outputs, "0_0_0/dynamo_output_graph") {
		t.Errorf("missing dynamo_output_graph output; got %v", outputPaths(outputs))
	}
	if !hasOutputPrefix(outputs, "0_0_0/compilation_metrics") {
		t.Errorf("missing compilation_metrics output; got %v", outputPaths(outputs))
	}
	failures := outputByPath(t, outputs, "failures_and_restarts.html")
	if !strings.Contains(failures.Contents, "BackendCompilerFailed") {
		t.Errorf("expected failures page to list the fail type, got: %s", failures.Contents)
	}
}

// S4: an artifact record with string encoding produces a .txt file.
func TestScenarioArtifact(t *testing.T) {
	path := writeLog(t,
		testsupport.LineWithPayload(`{`+testsupport.CompileIdFields(0, 0, 0)+`, "artifact": {"name": "fx_graph_cache_hash", "encoding": "string"}}`, "deadbeef"),
	)

	outputs, stats, err := Parse(path, Config{Renderer: report.New()})
	if err != nil {
		t.Fatalf("Parse: %v (stats=%s)", err, stats.String())
	}
	if !hasOutputPrefix(outputs, "0_0_0/fx_graph_cache_hash") {
		t.Errorf("expected fx_graph_cache_hash output; got %v", outputPaths(outputs))
	}
	outputByPath(t, outputs, "index.html")
}

// S5: chromium_event records collect their continuation payload into a
// parseable JSON array.
func TestScenarioChromiumEvents(t *testing.T) {
	path := writeLog(t,
		testsupport.LineWithPayload(`{"chromium_event": {}}`, `{"name": "compile", "ts": 1}`),
		testsupport.LineWithPayload(`{"chromium_event": {}}`, `{"name": "inductor", "ts": 2}`),
	)

	outputs, stats, err := Parse(path, Config{Renderer: report.New()})
	if err != nil {
		t.Fatalf("Parse: %v (stats=%s)", err, stats.String())
	}
	events := outputByPath(t, outputs, "chromium_events.json")
	var parsed []json.RawMessage
	if err := json.Unmarshal([]byte(events.Contents), &parsed); err != nil {
		t.Fatalf("chromium_events.json did not parse as an array: %v\n%s", err, events.Contents)
	}
	if len(parsed) != 2 {
		t.Fatalf("expected 2 chromium events, got %d", len(parsed))
	}
	// Each entry must be the tab-indented continuation payload (the line
	// actually traced), not the envelope object itself — the envelope
	// line carries only {"chromium_event": {}} and would fail these
	// checks if that were what landed in the array instead.
	if !strings.Contains(string(parsed[0]), `"name": "compile"`) || !strings.Contains(string(parsed[0]), `"ts": 1`) {
		t.Errorf("expected parsed[0] to be the continuation payload for the first event, got: %s", parsed[0])
	}
	if !strings.Contains(string(parsed[1]), `"name": "inductor"`) || !strings.Contains(string(parsed[1]), `"ts": 2`) {
		t.Errorf("expected parsed[1] to be the continuation payload for the second event, got: %s", parsed[1])
	}
	if strings.Contains(string(parsed[0]), "chromium_event") || strings.Contains(string(parsed[1]), "chromium_event") {
		t.Errorf("expected neither entry to be the envelope object, got parsed[0]=%s parsed[1]=%s", parsed[0], parsed[1])
	}
	outputByPath(t, outputs, "index.html")
}

// S6: FX graph cache badges render in the index for filenames containing
// the miss/hit substrings.
func TestScenarioCacheHitMissBadges(t *testing.T) {
	path := writeLog(t,
		testsupport.LineWithPayload(`{`+testsupport.CompileIdFields(1, 0, 0)+`, "artifact": {"name": "fx_graph_cache_miss_8", "encoding": "string"}}`, "x"),
		testsupport.LineWithPayload(`{`+testsupport.CompileIdFields(1, 0, 0)+`, "artifact": {"name": "fx_graph_cache_hit_17", "encoding": "string"}}`, "y"),
	)

	outputs, stats, err := Parse(path, Config{Renderer: report.New()})
	if err != nil {
		t.Fatalf("Parse: %v (stats=%s)", err, stats.String())
	}
	if !hasOutputPrefix(outputs, "1_0_0/fx_graph_cache_miss_8") {
		t.Errorf("missing fx_graph_cache_miss_8 output; got %v", outputPaths(outputs))
	}
	if !hasOutputPrefix(outputs, "1_0_0/fx_graph_cache_hit_17") {
		t.Errorf("missing fx_graph_cache_hit_17 output; got %v", outputPaths(outputs))
	}
	index := outputByPath(t, outputs, "index.html")
	if !strings.Contains(index.Contents, "❌") {
		t.Errorf("expected a cache-miss badge in index.html")
	}
	if !strings.Contains(index.Contents, "✅") {
		t.Errorf("expected a cache-hit badge in index.html")
	}
}

// P2/P7: a malformed has_payload digest is tallied as fail_payload_md5
// but the record still contributes its output.
func TestMalformedDigestStillProducesOutput(t *testing.T) {
	body := "graph output()"
	line := testsupport.Line(`{` + testsupport.CompileIdFields(0, 0, 0) + `, "dynamo_output_graph": {}, "has_payload": "not-a-valid-digest"}`)
	path := writeLog(t, line, "\t"+body)

	outputs, stats, err := Parse(path, Config{Renderer: report.New()})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if stats.FailPayloadMD5 != 1 {
		t.Errorf("expected fail_payload_md5 = 1, got %d", stats.FailPayloadMD5)
	}
	if !hasOutputPrefix(outputs, "0_0_0/dynamo_output_graph") {
		t.Errorf("expected the record to still be dispatched despite the bad digest; got %v", outputPaths(outputs))
	}
}

// P2: a well-formed, correct digest passes verification silently.
func TestValidDigestPasses(t *testing.T) {
	path := writeLog(t,
		testsupport.LineWithPayload(`{`+testsupport.CompileIdFields(0, 0, 0)+`, "dynamo_output_graph": {}}`, "graph output()"),
	)
	_, stats, err := Parse(path, Config{Strict: true, Renderer: report.New()})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if stats.FailPayloadMD5 != 0 {
		t.Errorf("expected no digest failures, got %d", stats.FailPayloadMD5)
	}
}

// P3: directory entries preserve the order compile ids were first seen
// in, not sorted order - here frame 5 logs before frame 1, and the
// rendered index must list "[5/0]" first despite the lower frame id
// appearing second in the file.
func TestDirectoryPreservesFirstSeenOrder(t *testing.T) {
	path := writeLog(t,
		testsupport.Line(`{`+testsupport.CompileIdFields(5, 0, 0)+`, "aot_forward_graph": {}}`),
		testsupport.Line(`{`+testsupport.CompileIdFields(1, 0, 0)+`, "aot_forward_graph": {}}`),
		testsupport.Line(`{`+testsupport.CompileIdFields(5, 0, 0)+`, "aot_backward_graph": {}}`),
	)
	outputs, stats, err := Parse(path, Config{Renderer: report.New()})
	if err != nil {
		t.Fatalf("Parse: %v (stats=%s)", err, stats.String())
	}

	index := outputByPath(t, outputs, "index.html")
	// Probe the directory anchors: the index page's static explanatory
	// text also mentions "[1/0]", ahead of the directory listing.
	posFive := strings.Index(index.Contents, `id="[5/0]"`)
	posOne := strings.Index(index.Contents, `id="[1/0]"`)
	if posFive == -1 || posOne == -1 {
		t.Fatalf("expected both compile ids to appear in index.html, got: %s", index.Contents)
	}
	if posFive > posOne {
		t.Errorf("expected [5/0] (first seen) to appear before [1/0], got positions %d and %d", posFive, posOne)
	}
}

// P6: raw.log equals the input file's bytes verbatim.
func TestRawLogMatchesInput(t *testing.T) {
	path := writeLog(t, testsupport.Line(`{"dynamo_output_graph": {}}`))
	original, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}

	outputs, _, err := Parse(path, Config{Renderer: report.New()})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	raw := outputByPath(t, outputs, "raw.log")
	if raw.Contents != string(original) {
		t.Errorf("raw.log does not match the input file verbatim")
	}
}

// P5: two Parse calls over the same input produce byte-identical output
// sets.
func TestParseIsDeterministic(t *testing.T) {
	path := writeLog(t,
		testsupport.LineWithPayload(`{`+testsupport.CompileIdFields(0, 0, 0)+`, "dynamo_output_graph": {}}`, "graph output()"),
		testsupport.Line(`{`+testsupport.CompileIdFields(0, 0, 0)+`, "compilation_metrics": {"cache_size": 3}}`),
	)

	out1, _, err := Parse(path, Config{Renderer: report.New()})
	if err != nil {
		t.Fatalf("Parse (1): %v", err)
	}
	out2, _, err := Parse(path, Config{Renderer: report.New()})
	if err != nil {
		t.Fatalf("Parse (2): %v", err)
	}
	if len(out1) != len(out2) {
		t.Fatalf("output count differs between runs: %d vs %d", len(out1), len(out2))
	}
	for i := range out1 {
		if out1[i] != out2[i] {
			t.Errorf("output %d differs between runs:\n%+v\n%+v", i, out1[i], out2[i])
		}
	}
}

// Unrecognized glog-prefixed lines whose JSON fails to decode are tallied
// as fail_json and do not halt the run; strict mode then reports them.
func TestStrictFailsOnJSONErrors(t *testing.T) {
	path := writeLog(t, testsupport.Line(`{not valid json`))
	_, stats, err := Parse(path, Config{Strict: true, Renderer: report.New()})
	if err == nil {
		t.Fatal("expected strict mode to fail on a JSON decode error")
	}
	if stats.FailJSON != 1 {
		t.Errorf("expected fail_json = 1, got %d", stats.FailJSON)
	}
}

// Lines that don't match the glog prefix at all are tallied separately
// and likewise gate --strict.
func TestStrictFailsOnGlogMismatch(t *testing.T) {
	path := writeLog(t, "not a glog line at all")
	_, stats, err := Parse(path, Config{Strict: true, Renderer: report.New()})
	if err == nil {
		t.Fatal("expected strict mode to fail on an unparseable line")
	}
	if stats.FailGlog != 1 {
		t.Errorf("expected fail_glog = 1, got %d", stats.FailGlog)
	}
}

// --strict_compile_id fails when some record lacked a compile id, even
// though ordinary --strict would pass.
func TestStrictCompileIdGating(t *testing.T) {
	path := writeLog(t, testsupport.Line(`{"dynamo_output_graph": {}}`))
	_, _, err := Parse(path, Config{StrictCompileId: true, Renderer: report.New()})
	if err == nil {
		t.Fatal("expected --strict_compile_id to fail when a record has no compile id")
	}
}

// The rank gate latches on the first-seen rank (including a record with
// no rank at all) and filters every subsequent envelope with a different
// rank.
func TestRankGateLatchesAndFilters(t *testing.T) {
	path := writeLog(t,
		testsupport.Line(`{"rank": 0, "dynamo_output_graph": {}}`),
		testsupport.Line(`{"rank": 1, "aot_forward_graph": {}}`),
		testsupport.Line(`{"rank": 0, "aot_backward_graph": {}}`),
	)
	outputs, stats, err := Parse(path, Config{Renderer: report.New()})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if stats.OtherRank != 1 {
		t.Errorf("expected exactly 1 record filtered by the rank gate, got %d", stats.OtherRank)
	}
	if hasOutputContaining(outputs, "aot_forward_graph") {
		t.Errorf("rank-1 record should have been filtered out entirely; got %v", outputPaths(outputs))
	}
}
