// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestHighlightPython_Keywords checks that keyword tokens are wrapped in
// the tok-keyword span, matching the teacher's assert-on-extracted-names
// style rather than a golden-file comparison.
func TestHighlightPython_Keywords(t *testing.T) {
	out, err := highlightPython("def f(x):\n    return x\n")
	require.NoError(t, err)

	assert.Contains(t, out, "<span class='tok-keyword'>def</span>")
	assert.Contains(t, out, "<span class='tok-keyword'>return</span>")
	assert.Contains(t, out, "<pre class='tlparse-code'>")
}

// TestHighlightPython_StringsAndComments checks the string and comment
// token classes separately, since they come from distinct grammar node
// types (string_content vs comment).
func TestHighlightPython_StringsAndComments(t *testing.T) {
	out, err := highlightPython("x = \"hello\"  # a comment\n")
	require.NoError(t, err)

	assert.Contains(t, out, "tok-string")
	assert.Contains(t, out, "<span class='tok-comment'># a comment</span>")
}

// TestHighlightPython_EscapesHTML checks that source text containing HTML
// metacharacters is escaped both inside and outside classed spans.
func TestHighlightPython_EscapesHTML(t *testing.T) {
	out, err := highlightPython("x = \"<script>\"\n")
	require.NoError(t, err)

	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "&lt;script&gt;")
}

// TestHighlightPython_TolerantOfSyntaxErrors mirrors the teacher's
// "syntax error" edge case: tree-sitter's error recovery means a
// malformed snippet still highlights whatever it can parse instead of
// failing outright, since structured logs often embed partial code.
func TestHighlightPython_TolerantOfSyntaxErrors(t *testing.T) {
	out, err := highlightPython("def f(x:\n  return x")
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

// TestHighlightPython_IDStability mirrors the teacher's ID-stability test:
// highlighting the same source twice produces byte-identical output.
func TestHighlightPython_IDStability(t *testing.T) {
	src := "import torch\n\n\ndef forward(x):\n    return torch.relu(x)\n"
	out1, err := highlightPython(src)
	require.NoError(t, err)
	out2, err := highlightPython(src)
	require.NoError(t, err)
	assert.Equal(t, out1, out2)
}

// TestHighlightPython_EmptySource mirrors the teacher's empty-file case.
func TestHighlightPython_EmptySource(t *testing.T) {
	out, err := highlightPython("")
	require.NoError(t, err)
	assert.Contains(t, out, "<pre class='tlparse-code'></pre>")
}
