// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package ingest

import (
	"fmt"
	"path"
	"strings"
)

// ParserOutputKind discriminates the three shapes an Analyzer can hand
// back to the dispatcher.
type ParserOutputKind int

const (
	// ParserOutputFile is written under the record's compile-id
	// subdirectory and given a unique numeric suffix before extension.
	ParserOutputFile ParserOutputKind = iota
	// OutputGlobalFile is written at Path verbatim, with no suffixing
	// (used for the dump_file pool, which is shared across compile ids).
	OutputGlobalFile
	// OutputLink records an external href in the compile directory
	// without writing any file.
	OutputLink
)

// ParserOutput is one file-or-link an Analyzer wants the dispatcher to
// record, mirroring the upstream ParserOutput enum.
type ParserOutput struct {
	Kind     ParserOutputKind
	Path     string
	Contents string
	LinkName string
	LinkURL  string
}

// Renderer renders a named template against a data value, matching the
// dependency-inversion boundary between ingestion (which knows what data
// a page needs) and report (which knows how to lay it out in HTML). Its
// sole real implementation lives in pkg/report.
type Renderer interface {
	Render(name string, data any) (string, error)
	CSS() string
	FailuresCSS() string
	JavaScript() string
}

// Analyzer is the dispatcher contract: Applicable decides whether an
// envelope carries the metadata this analyzer cares about, and Parse
// turns it into output files or links.
type Analyzer interface {
	Name() string
	Applicable(e *Envelope) bool
	Parse(lineno int, e *Envelope, compileID OptCompileId, payload string) ([]ParserOutput, error)
}

// compileIdDirName renders the subdirectory name a File output for
// compileID lands in: "<frame>_<framecompile>_<attempt>", or
// "unknown_<lineno>" when there is no compile id at all.
func compileIdDirName(compileID OptCompileId, lineno int) string {
	if !compileID.Present {
		return fmt.Sprintf("unknown_%d", lineno)
	}
	c := compileID.Id
	return fmt.Sprintf("%d_%d_%d", c.FrameId, c.FrameCompileId, c.Attempt)
}

// simpleFileOutput wraps payload as a single File output under filename,
// placed in compileID's subdirectory. Most analyzers are thin wrappers
// around this helper.
func simpleFileOutput(filename string, lineno int, compileID OptCompileId, payload string) []ParserOutput {
	dir := compileIdDirName(compileID, lineno)
	return []ParserOutput{{Kind: ParserOutputFile, Path: path.Join(dir, filename), Contents: payload}}
}

// splitExt splits filename into (stem, ext) where ext includes the
// leading dot, or ext == "" if filename has none.
func splitExt(filename string) (string, string) {
	ext := path.Ext(filename)
	return strings.TrimSuffix(filename, ext), ext
}
