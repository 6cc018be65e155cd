// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package ingest

import (
	"strings"
	"testing"
)

func frame(name string, line int32, filename string) FrameSummary {
	return FrameSummary{Name: name, Line: line, UninternedFilename: filename}
}

// P4: the stack-trie rendering of a terminal's CSS class equals the class
// produced by applying the §4.8 precedence (missing > error > empty >
// break > ok) to the metrics stored for that compile id at attempt 0.
func TestStackTrieTerminalClassFollowsMetricsPrecedence(t *testing.T) {
	cases := []struct {
		name    string
		metrics *CompilationMetrics
		present bool
		want    string
	}{
		{name: "missing, no metrics recorded", present: false, want: "status-missing"},
		{
			name:    "error takes precedence over everything else",
			present: true,
			metrics: &CompilationMetrics{
				FailType:       ptrS("BackendCompilerFailed"),
				GraphOpCount:   ptrU64(0),
				RestartReasons: []string{"guard failed"},
			},
			want: "status-error",
		},
		{
			name:    "empty graph, no failure",
			present: true,
			metrics: &CompilationMetrics{GraphOpCount: ptrU64(0), RestartReasons: []string{"guard failed"}},
			want:    "status-empty",
		},
		{
			name:    "restart with a non-empty graph",
			present: true,
			metrics: &CompilationMetrics{GraphOpCount: ptrU64(5), RestartReasons: []string{"guard failed"}},
			want:    "status-break",
		},
		{
			name:    "clean compile",
			present: true,
			metrics: &CompilationMetrics{GraphOpCount: ptrU64(5)},
			want:    "status-ok",
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			idx := NewMetricsIndex()
			id := Some(CompileId{FrameId: 1, FrameCompileId: 0})
			if c.present {
				idx.Add(id, c.metrics)
			}

			trie := NewStackTrieNode()
			trie.Insert(StackSummary{frame("f", 1, "m.py")}, id)
			html := trie.Render(idx)

			want := "class='" + c.want + "'"
			if !strings.Contains(html, want) {
				t.Errorf("expected terminal class %q in rendered trie, got: %s", want, html)
			}
		})
	}
}

// P4 (attempt collapsing): a failing attempt 1 still colors the terminal
// for attempt 0's own stack-trie entry, because the metrics index keys on
// the zero-attempt compile id.
func TestStackTrieClassUsesZeroAttemptKey(t *testing.T) {
	idx := NewMetricsIndex()
	zero := Some(CompileId{FrameId: 2, FrameCompileId: 0, Attempt: 0})
	one := Some(CompileId{FrameId: 2, FrameCompileId: 0, Attempt: 1})
	idx.Add(one, &CompilationMetrics{FailType: ptrS("boom")})

	trie := NewStackTrieNode()
	trie.Insert(StackSummary{frame("g", 2, "n.py")}, zero)
	html := trie.Render(idx)

	if !strings.Contains(html, "class='status-error'") {
		t.Errorf("expected attempt-1's failure to color attempt-0's terminal, got: %s", html)
	}
}

// The inline-vs-bulleted choice at a node is decided by that node's own
// child count, not by each child's child count: a node with 3 children
// that each have exactly 1 child of their own must still be bulleted
// (the "marker" span + nested <ul>), since the parent has 3 children.
func TestStackTrieBulletsOnParentChildCountNotChildChildCount(t *testing.T) {
	root := NewStackTrieNode()
	for i, branch := range []string{"a", "b", "c"} {
		root.InsertNoTerminal(StackSummary{
			frame(branch, int32(i), branch+".py"),
			frame(branch+"_leaf", int32(i), branch+"_leaf.py"),
		})
	}
	html := root.Render(nil)

	if !strings.Contains(html, "class='marker'") {
		t.Errorf("expected the 3-child root to be rendered bulleted with a marker span, got: %s", html)
	}
	// Each of the 3 top-level branches is bulleted (decided by the root's
	// own 3-child count), even though each branch's single leaf child is
	// rendered inline (decided by that branch's own 1-child count).
	if got := strings.Count(html, "class='marker'"); got != 3 {
		t.Errorf("expected all 3 top-level branches bulleted, got %d marker spans in: %s", got, html)
	}
}

// P8: a stack whose tail matches the first known convert-frame triple is
// inserted with exactly three fewer frames.
func TestTrimConvertFrameSuffixesRemovesMatchingTail(t *testing.T) {
	stack := StackSummary{
		frame("user_fn", 10, "user/model.py"),
		frame("catch_errors", 100, "torch/_dynamo/convert_frame.py"),
		frame("_convert_frame", 200, "torch/_dynamo/convert_frame.py"),
		frame("_convert_frame_assert", 300, "torch/_dynamo/convert_frame.py"),
	}
	trimmed := trimConvertFrameSuffixes(stack)
	if len(trimmed) != 1 {
		t.Fatalf("expected 3 frames trimmed (1 remaining), got %d: %v", len(trimmed), trimmed)
	}
	if trimmed[0].Name != "user_fn" {
		t.Errorf("expected the user frame to survive untouched, got %+v", trimmed[0])
	}
}

// P8: a stack whose tail does not match either known triple is returned
// untouched (same length, same frames, same order).
func TestTrimConvertFrameSuffixesLeavesNonMatchingStackAlone(t *testing.T) {
	stack := StackSummary{
		frame("user_fn", 10, "user/model.py"),
		frame("helper", 20, "user/helpers.py"),
	}
	trimmed := trimConvertFrameSuffixes(stack)
	if len(trimmed) != len(stack) {
		t.Fatalf("expected stack left untouched, got length %d want %d", len(trimmed), len(stack))
	}
	for i := range stack {
		if trimmed[i] != stack[i] {
			t.Errorf("frame %d changed: got %+v want %+v", i, trimmed[i], stack[i])
		}
	}
}

func ptrS(v string) *string { return &v }
func ptrU64(v uint64) *uint64 { return &v }
