// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package ingest

import (
	"fmt"
	"html"
)

// FailureReason is one row of the failures-and-restarts table: either a
// terminal compilation failure or a restart (Dynamo undoing a decision
// and retrying).
type FailureReason struct {
	IsRestart bool

	// Restart fields.
	RestartReason string

	// Failure fields.
	FailType              string
	FailReason            string
	UserFrameFilename     string
	UserFrameLineNo       uint32
}

// RenderRowHTML renders the three <td> cells that follow the compile-id
// cell (failure type / description / source), matching the upstream
// FailureReason Display impl's exact markup.
func (f FailureReason) RenderRowHTML() string {
	if f.IsRestart {
		return fmt.Sprintf(
			"<td> RestartAnalysis </td><td><pre>%s</pre></td><td>Not availble for restarts(yet)!</td>",
			html.EscapeString(f.RestartReason),
		)
	}
	return fmt.Sprintf(
		"<td><pre>%s</pre></td><td><pre>%s</pre></td><td><pre>%s:%d</pre></td>",
		html.EscapeString(f.FailType), html.EscapeString(f.FailReason),
		html.EscapeString(f.UserFrameFilename), f.UserFrameLineNo,
	)
}

// FailureAggregator is C9: an insertion-ordered list of failure/restart
// rows collected while compilation_metrics records are dispatched.
type FailureAggregator struct {
	Rows []FailureRowContext
}

// NewFailureAggregator constructs an empty aggregator.
func NewFailureAggregator() *FailureAggregator { return &FailureAggregator{} }

// AddRestart appends one restart row for every entry in reasons.
func (a *FailureAggregator) AddRestart(compileIdHTML string, reasons []string) {
	for _, r := range reasons {
		reason := FailureReason{IsRestart: true, RestartReason: r}
		a.Rows = append(a.Rows, FailureRowContext{CompileIdHTML: compileIdHTML, RowHTML: reason.RenderRowHTML()})
	}
}

// AddFailure appends one terminal-failure row.
func (a *FailureAggregator) AddFailure(compileIdHTML, failType, failReason, userFrameFilename string, userFrameLineNo uint32) {
	reason := FailureReason{
		FailType: failType, FailReason: failReason,
		UserFrameFilename: userFrameFilename, UserFrameLineNo: userFrameLineNo,
	}
	a.Rows = append(a.Rows, FailureRowContext{CompileIdHTML: compileIdHTML, RowHTML: reason.RenderRowHTML()})
}
