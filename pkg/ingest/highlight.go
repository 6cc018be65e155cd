// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package ingest

import (
	"context"
	"fmt"
	"html"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// pythonHighlightCSS is inlined into every highlighted page, since the
// compile-directory output must be a self-contained static bundle with no
// external stylesheet fetches.
const pythonHighlightCSS = `<style>
.tlparse-code { background-color: #f6f8fa; padding: 1em; overflow-x: auto; }
.tlparse-code .tok-keyword { color: #d73a49; font-weight: bold; }
.tlparse-code .tok-string { color: #032f62; }
.tlparse-code .tok-comment { color: #6a737d; font-style: italic; }
.tlparse-code .tok-number { color: #005cc5; }
.tlparse-code .tok-function { color: #6f42c1; }
.tlparse-code .tok-operator { color: #d73a49; }
</style>
`

// tokenClasses maps tree-sitter's Python grammar node types to the CSS
// classes above. Node types not present here render with no class at all
// (plain text), which matches most punctuation and whitespace nodes.
var tokenClasses = map[string]string{
	"comment":           "tok-comment",
	"string":            "tok-string",
	"string_start":      "tok-string",
	"string_content":    "tok-string",
	"string_end":        "tok-string",
	"integer":           "tok-number",
	"float":             "tok-number",
	"identifier":        "",
	"def":               "tok-keyword",
	"class":             "tok-keyword",
	"return":            "tok-keyword",
	"if":                "tok-keyword",
	"elif":              "tok-keyword",
	"else":              "tok-keyword",
	"for":               "tok-keyword",
	"while":             "tok-keyword",
	"import":            "tok-keyword",
	"from":              "tok-keyword",
	"as":                "tok-keyword",
	"with":              "tok-keyword",
	"try":               "tok-keyword",
	"except":            "tok-keyword",
	"finally":           "tok-keyword",
	"lambda":            "tok-keyword",
	"pass":              "tok-keyword",
	"break":             "tok-keyword",
	"continue":          "tok-keyword",
	"raise":             "tok-keyword",
	"yield":             "tok-keyword",
	"global":            "tok-keyword",
	"nonlocal":          "tok-keyword",
	"assert":            "tok-keyword",
	"not":               "tok-keyword",
	"and":               "tok-keyword",
	"or":                "tok-keyword",
	"in":                "tok-keyword",
	"is":                "tok-keyword",
	"none":              "tok-keyword",
	"true":              "tok-keyword",
	"false":             "tok-keyword",
	"+": "tok-operator", "-": "tok-operator", "*": "tok-operator", "/": "tok-operator",
	"=": "tok-operator", "==": "tok-operator", "!=": "tok-operator",
	"<": "tok-operator", ">": "tok-operator", "<=": "tok-operator", ">=": "tok-operator",
}

// highlightPython renders source as a self-contained HTML fragment with
// Python tokens wrapped in classed spans, the Go-native replacement for
// the upstream syntect-based renderer. Tree-sitter is error-tolerant, so
// a syntactically incomplete capture (common for log-embedded code
// snippets) still highlights whatever it can parse.
func highlightPython(source string) (string, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())

	src := []byte(source)
	tree, err := parser.ParseCtx(context.Background(), nil, src)
	if err != nil {
		return "", fmt.Errorf("tree-sitter parse: %w", err)
	}
	defer tree.Close()

	var b strings.Builder
	b.WriteString(pythonHighlightCSS)
	b.WriteString("<pre class='tlparse-code'>")

	pos := 0
	walkLeaves(tree.RootNode(), func(n *sitter.Node) {
		start, end := int(n.StartByte()), int(n.EndByte())
		if start > pos {
			b.WriteString(html.EscapeString(string(src[pos:start])))
		}
		text := string(src[start:end])
		if class, ok := tokenClasses[n.Type()]; ok && class != "" {
			fmt.Fprintf(&b, "<span class='%s'>%s</span>", class, html.EscapeString(text))
		} else {
			b.WriteString(html.EscapeString(text))
		}
		pos = end
	})
	if pos < len(src) {
		b.WriteString(html.EscapeString(string(src[pos:])))
	}
	b.WriteString("</pre>")
	return b.String(), nil
}

// walkLeaves calls visit on every leaf (token) node of tree, in source
// order.
func walkLeaves(n *sitter.Node, visit func(*sitter.Node)) {
	if n == nil {
		return
	}
	if n.ChildCount() == 0 {
		if n.EndByte() > n.StartByte() {
			visit(n)
		}
		return
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		walkLeaves(n.Child(i), visit)
	}
}

// InductorOutputCodeAnalyzer renders generated Inductor kernels, either as
// plain text (PlainText) or as syntax-highlighted HTML.
type InductorOutputCodeAnalyzer struct {
	PlainText bool
}

func (a *InductorOutputCodeAnalyzer) Name() string { return "inductor_output_code" }
func (a *InductorOutputCodeAnalyzer) Applicable(e *Envelope) bool {
	return e.InductorOutputCode != nil
}

func (a *InductorOutputCodeAnalyzer) Parse(lineno int, e *Envelope, compileID OptCompileId, payload string) ([]ParserOutput, error) {
	ext := ".html"
	if a.PlainText {
		ext = ".txt"
	}
	filename := "inductor_output_code" + ext
	if md := e.InductorOutputCode; md.Filename != nil {
		stem := strings.TrimSuffix(filepath.Base(*md.Filename), filepath.Ext(*md.Filename))
		filename = "inductor_output_code_" + stem + ext
	}

	content := payload
	if !a.PlainText {
		highlighted, err := highlightPython(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to parse inductor code to html: %w", err)
		}
		content = highlighted
	}
	return simpleFileOutput(filename, lineno, compileID, content), nil
}
