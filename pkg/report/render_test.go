// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package report

import (
	"strings"
	"testing"

	"github.com/kraklabs/tlparse/pkg/ingest"
)

func ptrF(v float64) *float64 { return &v }
func ptrS(v string) *string   { return &v }

func TestRenderIndexSplicesUnescapedFragments(t *testing.T) {
	r := New()

	out, err := r.Render("index.html", ingest.IndexContext{
		CSS:           "body{}",
		JavaScript:    "function f() {}",
		StackTrieHTML: "<div class='stack-trie'><ul><li>foo &amp; bar</li></ul></div>",
		NumBreaks:     2,
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(out, "<li>foo &amp; bar</li>") {
		t.Errorf("expected stack trie HTML spliced verbatim (not re-escaped), got: %s", out)
	}
	if !strings.Contains(out, "2 restart(s)") {
		t.Errorf("expected break count rendered, got: %s", out)
	}
}

func TestRenderCompilationMetricsDereferencesOptionalFields(t *testing.T) {
	r := New()

	out, err := r.Render("compilation_metrics.html", ingest.CompilationMetricsContext{
		CSS:       "",
		CompileId: "[0/0]",
		M: &ingest.CompilationMetrics{
			EntireFrameCompileTimeS: ptrF(1.5),
			FailType:                ptrS("BackendCompilerFailed"),
			FailReason:              ptrS("boom"),
		},
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(out, "1.5") {
		t.Errorf("expected compile time rendered, got: %s", out)
	}
	if !strings.Contains(out, "BackendCompilerFailed") {
		t.Errorf("expected fail type rendered, got: %s", out)
	}
	if strings.Contains(out, "No failures!") {
		t.Errorf("fail_type set, should not render the no-failures branch: %s", out)
	}
}

func TestRenderCompilationMetricsNoFailures(t *testing.T) {
	r := New()

	out, err := r.Render("compilation_metrics.html", ingest.CompilationMetricsContext{
		CompileId: "[1/0]",
		M:         &ingest.CompilationMetrics{},
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(out, "No failures!") {
		t.Errorf("expected no-failures branch, got: %s", out)
	}
	if !strings.Contains(out, "No restarts!") {
		t.Errorf("expected no-restarts branch, got: %s", out)
	}
}

func TestRenderUnknownTemplate(t *testing.T) {
	r := New()
	if _, err := r.Render("does_not_exist.html", nil); err == nil {
		t.Fatal("expected an error for an unknown template name")
	}
}

func TestCSSAccessorsReturnDistinctSheets(t *testing.T) {
	r := New()
	if r.CSS() == r.FailuresCSS() {
		t.Error("expected CSS() and FailuresCSS() to be different stylesheets")
	}
	if !strings.Contains(r.JavaScript(), "toggleList") {
		t.Error("expected JavaScript() to contain the stack-trie toggle function")
	}
}
