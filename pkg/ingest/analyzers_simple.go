// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package ingest

import (
	"encoding/json"
	"fmt"
	"html"
	"strings"
)

// SentinelAnalyzer handles the family of dumps whose metadata is just a
// presence marker ({}): the payload is written verbatim under
// "<name>.txt". get_sentinel tells the analyzer which Envelope field to
// check.
type SentinelAnalyzer struct {
	Filename     string
	GetSentinel func(*Envelope) bool
}

func (a *SentinelAnalyzer) Name() string { return a.Filename }

func (a *SentinelAnalyzer) Applicable(e *Envelope) bool { return a.GetSentinel(e) }

func (a *SentinelAnalyzer) Parse(lineno int, e *Envelope, compileID OptCompileId, payload string) ([]ParserOutput, error) {
	return simpleFileOutput(a.Filename+".txt", lineno, compileID, payload), nil
}

// defaultSentinelAnalyzers is the Go equivalent of default_parsers' run of
// SentinelFileParser registrations.
func defaultSentinelAnalyzers() []Analyzer {
	return []Analyzer{
		&SentinelAnalyzer{Filename: "optimize_ddp_split_graph", GetSentinel: func(e *Envelope) bool { return e.OptimizeDdpSplitGraph }},
		&SentinelAnalyzer{Filename: "compiled_autograd_graph", GetSentinel: func(e *Envelope) bool { return e.CompiledAutogradGraph }},
		&SentinelAnalyzer{Filename: "aot_forward_graph", GetSentinel: func(e *Envelope) bool { return e.AotForwardGraph }},
		&SentinelAnalyzer{Filename: "aot_backward_graph", GetSentinel: func(e *Envelope) bool { return e.AotBackwardGraph }},
		&SentinelAnalyzer{Filename: "aot_joint_graph", GetSentinel: func(e *Envelope) bool { return e.AotJointGraph }},
		&SentinelAnalyzer{Filename: "inductor_post_grad_graph", GetSentinel: func(e *Envelope) bool { return e.InductorPostGradGraph }},
		&SentinelAnalyzer{Filename: "dynamo_cpp_guards_str", GetSentinel: func(e *Envelope) bool { return e.DynamoCppGuardsStr }},
	}
}

// GraphDumpAnalyzer handles graph_dump entries, whose metadata names the
// output file.
type GraphDumpAnalyzer struct{}

func (GraphDumpAnalyzer) Name() string               { return "graph_dump" }
func (GraphDumpAnalyzer) Applicable(e *Envelope) bool { return e.GraphDump != nil }
func (GraphDumpAnalyzer) Parse(lineno int, e *Envelope, compileID OptCompileId, payload string) ([]ParserOutput, error) {
	return simpleFileOutput(e.GraphDump.Name+".txt", lineno, compileID, payload), nil
}

// DynamoOutputGraphAnalyzer is a sentinel-like analyzer (TODO upstream:
// record the size of the graph instead of discarding the metadata).
type DynamoOutputGraphAnalyzer struct{}

func (DynamoOutputGraphAnalyzer) Name() string               { return "dynamo_output_graph" }
func (DynamoOutputGraphAnalyzer) Applicable(e *Envelope) bool { return e.DynamoOutputGraph }
func (DynamoOutputGraphAnalyzer) Parse(lineno int, e *Envelope, compileID OptCompileId, payload string) ([]ParserOutput, error) {
	return simpleFileOutput("dynamo_output_graph.txt", lineno, compileID, payload), nil
}

// DynamoGuardsAnalyzer renders the dynamo_guards payload (a JSON array of
// guard expressions with stacks) through the dynamo_guards.html template.
type DynamoGuardsAnalyzer struct {
	Renderer Renderer
}

func (a *DynamoGuardsAnalyzer) Name() string               { return "dynamo_guards" }
func (a *DynamoGuardsAnalyzer) Applicable(e *Envelope) bool { return e.DynamoGuards }

func (a *DynamoGuardsAnalyzer) Parse(lineno int, e *Envelope, compileID OptCompileId, payload string) ([]ParserOutput, error) {
	var guards []dynamoGuard
	if err := json.Unmarshal([]byte(payload), &guards); err != nil {
		return nil, fmt.Errorf("parse guards json: %w", err)
	}
	rendered := make([]DynamoGuardContext, len(guards))
	for i, g := range guards {
		rendered[i] = DynamoGuardContext{
			Code:          g.Code,
			StackHTML:     formatStack(toStackSummaryDirect(g.Stack)),
			UserStackHTML: formatStack(toStackSummaryDirect(g.UserStack)),
		}
	}
	out, err := a.Renderer.Render("dynamo_guards.html", DynamoGuardsContext{Guards: rendered})
	if err != nil {
		return nil, err
	}
	return simpleFileOutput("dynamo_guards.html", lineno, compileID, out), nil
}

func toStackSummaryDirect(frames []rawFrame) StackSummary { return toStackSummary(frames) }

// OptimizeDdpSplitChildAnalyzer names the output file after the split
// child's module name.
type OptimizeDdpSplitChildAnalyzer struct{}

func (OptimizeDdpSplitChildAnalyzer) Name() string { return "optimize_ddp_split_child" }
func (OptimizeDdpSplitChildAnalyzer) Applicable(e *Envelope) bool {
	return e.OptimizeDdpSplitChild != nil
}
func (OptimizeDdpSplitChildAnalyzer) Parse(lineno int, e *Envelope, compileID OptCompileId, payload string) ([]ParserOutput, error) {
	filename := fmt.Sprintf("optimize_ddp_split_child_%s.txt", e.OptimizeDdpSplitChild.Name)
	return simpleFileOutput(filename, lineno, compileID, payload), nil
}

// LinkAnalyzer does not write a file: it just records an external href in
// the compile directory.
type LinkAnalyzer struct{}

func (LinkAnalyzer) Name() string               { return "link_parser" }
func (LinkAnalyzer) Applicable(e *Envelope) bool { return e.Link != nil }
func (LinkAnalyzer) Parse(lineno int, e *Envelope, compileID OptCompileId, payload string) ([]ParserOutput, error) {
	return []ParserOutput{{Kind: OutputLink, LinkName: e.Link.Name, LinkURL: e.Link.URL}}, nil
}

// ArtifactAnalyzer writes a named artifact as either plain text or
// pretty-printed JSON, depending on its declared encoding.
type ArtifactAnalyzer struct{}

func (ArtifactAnalyzer) Name() string               { return "artifact" }
func (ArtifactAnalyzer) Applicable(e *Envelope) bool { return e.Artifact != nil }
func (ArtifactAnalyzer) Parse(lineno int, e *Envelope, compileID OptCompileId, payload string) ([]ParserOutput, error) {
	switch e.Artifact.Encoding {
	case "string":
		return simpleFileOutput(e.Artifact.Name+".txt", lineno, compileID, payload), nil
	case "json":
		var v any
		if err := json.Unmarshal([]byte(payload), &v); err != nil {
			return nil, fmt.Errorf("parse artifact json: %w", err)
		}
		pretty, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return nil, err
		}
		return simpleFileOutput(e.Artifact.Name+".json", lineno, compileID, string(pretty)), nil
	default:
		return nil, fmt.Errorf("unsupported encoding: %s", e.Artifact.Encoding)
	}
}

// DumpFileAnalyzer writes a global (unsuffixed) page containing the
// source code anchored by line number, so stack-frame links pointing
// into a dynamically generated module can deep-link to the exact line.
type DumpFileAnalyzer struct{}

func (DumpFileAnalyzer) Name() string               { return "dump_file" }
func (DumpFileAnalyzer) Applicable(e *Envelope) bool { return e.DumpFile != nil }
func (DumpFileAnalyzer) Parse(lineno int, e *Envelope, compileID OptCompileId, payload string) ([]ParserOutput, error) {
	var filename string
	if id, ok := extractEvalWithKeyID(e.DumpFile.Name); ok {
		filename = fmt.Sprintf("eval_with_key_%d.html", id)
	} else {
		filename = e.DumpFile.Name + ".html"
	}
	return []ParserOutput{{
		Kind:     OutputGlobalFile,
		Path:     "dump_file/" + filename,
		Contents: anchorSource(payload),
	}}, nil
}

// anchorSource wraps text in a minimal HTML page with one <span id="Lnnn">
// per line, so a URL fragment like "#L42" scrolls to and highlights that
// line.
func anchorSource(text string) string {
	lines := strings.Split(text, "\n")
	var b strings.Builder
	b.WriteString(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Source Code</title>
    <style>
        pre {
            counter-reset: line;
        }
        pre span {
            display: block;
        }
        pre span:before {
            counter-increment: line;
            content: counter(line);
            display: inline-block;
            padding: 0 .5em;
            margin-right: .5em;
            color: #888;
        }
        pre span:target {
            background-color: #ffff00;
        }
    </style>
</head>
<body>
    <pre>`)
	for i, line := range lines {
		fmt.Fprintf(&b, `<span id="L%d">%s</span>`, i+1, html.EscapeString(line))
	}
	b.WriteString("</pre></body></html>")
	return b.String()
}

// formatStack renders a one-off mini stack trie for stack, with no
// terminal compile-id markers. Used by the compilation-metrics page to
// show a bare stack without linking it to any other compile id.
func formatStack(stack StackSummary) string {
	trie := NewStackTrieNode()
	trie.InsertNoTerminal(stack)
	return trie.Render(nil)
}
