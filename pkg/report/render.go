// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package report owns every HTML/CSS/JS template the ingestion pipeline
// renders a page through, plus the text/template-based Renderer that
// implements pkg/ingest.Renderer. Templates are parsed once, at
// construction, and reused for every call.
package report

import (
	"strings"
	"text/template"
)

// html/template would contextually auto-escape every field, but several
// context fields (stack trie HTML, rendered stack fragments, custom header
// HTML) are pre-escaped HTML this package must splice in verbatim -
// exactly the problem tinytemplate's upstream templates solve with its
// "| format_unescaped" formatter. text/template never escapes, so it is
// used here instead; every other field populated by pkg/ingest is either
// already-safe markup or plain data never sourced from untrusted input
// beyond what the compiler log itself already contains.
var funcMap = template.FuncMap{
	"derefS": func(p *string) string {
		if p == nil {
			return ""
		}
		return *p
	},
	"derefF": func(p *float64) float64 {
		if p == nil {
			return 0
		}
		return *p
	},
	"derefU32": func(p *uint32) uint32 {
		if p == nil {
			return 0
		}
		return *p
	},
	"derefU64": func(p *uint64) uint64 {
		if p == nil {
			return 0
		}
		return *p
	},
}

var pageSources = map[string]string{
	"dynamo_guards.html":                             templateDynamoGuards,
	"index.html":                                     templateIndex,
	"failures_and_restarts.html":                      templateFailuresAndRestarts,
	"compilation_metrics.html":                        templateCompilationMetrics,
	"aot_autograd_backward_compilation_metrics.html":  templateAOTAutogradBackwardCompilationMetrics,
	"bwd_compilation_metrics.html":                    templateBwdCompilationMetrics,
}

// Renderer implements pkg/ingest.Renderer with pre-parsed text/template
// instances, one per page.
type Renderer struct {
	pages map[string]*template.Template
}

// New parses every known page template and returns a ready Renderer.
// Malformed template source is a programmer error, so it panics rather
// than threading a startup error through every caller - matching how the
// teacher's cmd/cie wiring treats its own compile-time-constant inputs.
func New() *Renderer {
	r := &Renderer{pages: make(map[string]*template.Template, len(pageSources))}
	for name, src := range pageSources {
		r.pages[name] = template.Must(template.New(name).Funcs(funcMap).Parse(src))
	}
	return r
}

// Render executes the named page template against data.
func (r *Renderer) Render(name string, data any) (string, error) {
	t, ok := r.pages[name]
	if !ok {
		return "", &UnknownTemplateError{Name: name}
	}
	var b strings.Builder
	if err := t.Execute(&b, data); err != nil {
		return "", err
	}
	return b.String(), nil
}

// CSS returns the shared index/compilation-metrics stylesheet.
func (r *Renderer) CSS() string { return cssTemplate }

// FailuresCSS returns the failures_and_restarts.html stylesheet.
func (r *Renderer) FailuresCSS() string { return templateFailuresCSS }

// JavaScript returns the stack-trie collapse/expand script.
func (r *Renderer) JavaScript() string { return javascriptTemplate }

// UnknownTemplateError is returned when Render is asked for a page name
// this Renderer never registered.
type UnknownTemplateError struct {
	Name string
}

func (e *UnknownTemplateError) Error() string {
	return "report: unknown template " + e.Name
}
