// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package ingest

import (
	"fmt"
	"html"
	"regexp"
	"strings"
)

var evalWithKeyRe = regexp.MustCompile(`<eval_with_key>\.([0-9]+)`)
var seedNspidRe = regexp.MustCompile(`[^/]+-seed-nspid[^/]+/`)

// extractEvalWithKeyID pulls the numeric id out of a dynamically
// generated "<eval_with_key>.N" filename, used to deep-link stack frames
// that point into one of those generated modules back to the dump_file
// output that rendered its source.
func extractEvalWithKeyID(filename string) (uint64, bool) {
	m := evalWithKeyRe.FindStringSubmatch(filename)
	if m == nil {
		return 0, false
	}
	var id uint64
	if _, err := fmt.Sscanf(m[1], "%d", &id); err != nil {
		return 0, false
	}
	return id, true
}

// simplifyFilename strips a build-sandbox path prefix from filename, so
// the report shows a path relative to the repository rather than an
// absolute build-tree path. Two known prefix shapes are recognized: a
// "#link-tree/" marker (Bazel-style sandboxes) and a "<name>-seed-nspidNNN/"
// directory component (some distributed-training sandboxes).
func simplifyFilename(filename string) string {
	if parts := strings.SplitN(filename, "#link-tree/", 2); len(parts) > 1 {
		return parts[1]
	}
	if loc := seedNspidRe.FindStringIndex(filename); loc != nil {
		return filename[loc[1]:]
	}
	return filename
}

// resolveFilename returns the display filename for f: its uninterned
// override if set, otherwise the intern-table lookup for its id.
func (f FrameSummary) resolveFilename(intern *InternTable) string {
	if f.UninternedFilename != "" {
		return f.UninternedFilename
	}
	return intern.Resolve(f.FilenameId)
}

// RenderHTML renders one frame the way the index page's stack trie does:
// "simplified/path.py:123 in function_name", hyperlinked to the anchored
// source dump when the frame points into a generated eval_with_key module.
func (f FrameSummary) RenderHTML(intern *InternTable) string {
	filename := f.resolveFilename(intern)
	simplified := simplifyFilename(filename)
	if id, ok := extractEvalWithKeyID(filename); ok {
		return fmt.Sprintf(
			"<a href='dump_file/eval_with_key_%d.html#L%d'>%s:%d</a> in %s",
			id, f.Line, html.EscapeString(simplified), f.Line, html.EscapeString(f.Name),
		)
	}
	return fmt.Sprintf("%s:%d in %s", html.EscapeString(simplified), f.Line, html.EscapeString(f.Name))
}
