// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package testsupport builds synthetic structured-log fixtures for
// pkg/ingest tests, as plain builder functions returning strings (they
// take no *testing.T), modelled on the teacher's internal/testing package - but for
// log lines instead of CozoDB rows, since nothing here touches a
// database.
package testsupport

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
)

// md5Hex returns the lowercase hex MD5 digest of body, matching the
// digest pkg/ingest verifies has_payload against.
func md5Hex(body string) string {
	sum := md5.Sum([]byte(body))
	return hex.EncodeToString(sum[:])
}

// glogHeader renders the fixed, never-parsed prefix every real log line
// carries ahead of its JSON payload: level, date, time, thread id and
// source location. Tests only need this to satisfy the glog-prefix regex;
// its fields carry no meaning to the parser.
func glogHeader() string {
	return "I0614 12:00:00.000000 1 torch/_dynamo/somewhere.py:1]"
}

// Line builds one complete glog-prefixed envelope line carrying json as
// its payload, with no continuation block.
func Line(json string) string {
	return fmt.Sprintf("%s %s", glogHeader(), json)
}

// LineWithPayload builds one envelope line whose JSON object is extended
// with a has_payload digest of body, followed by the tab-indented
// continuation lines that carry body itself. jsonFields is the envelope's
// JSON object with the closing brace already present, e.g.
// `{"rank": 0, "compilation_metrics": {}}` - has_payload is inserted into
// it before the final brace.
func LineWithPayload(jsonFields, body string) string {
	digest := md5Hex(body)
	withPayload := insertHasPayload(jsonFields, digest)
	lines := []string{Line(withPayload)}
	for _, l := range strings.Split(body, "\n") {
		lines = append(lines, "\t"+l)
	}
	return strings.Join(lines, "\n")
}

// StrRecord builds an intern-table registration line: `{"str": ["name", id]}`.
func StrRecord(id uint32, name string) string {
	return Line(fmt.Sprintf(`{"str": ["%s", %d]}`, name, id))
}

// CompileIdFields renders the `frame_id`/`frame_compile_id`/`attempt` JSON
// fields (without attempt, when attempt is 0) for splicing into an
// envelope object literal.
func CompileIdFields(frameID, frameCompileID, attempt uint32) string {
	if attempt == 0 {
		return fmt.Sprintf(`"frame_id": %d, "frame_compile_id": %d`, frameID, frameCompileID)
	}
	return fmt.Sprintf(`"frame_id": %d, "frame_compile_id": %d, "attempt": %d`, frameID, frameCompileID, attempt)
}

func insertHasPayload(jsonFields, digest string) string {
	trimmed := strings.TrimRight(jsonFields, " \t\n")
	trimmed = strings.TrimSuffix(trimmed, "}")
	trimmed = strings.TrimRight(trimmed, " \t\n")
	if strings.HasSuffix(trimmed, "{") {
		return trimmed + fmt.Sprintf(`"has_payload": "%s"}`, digest)
	}
	return trimmed + fmt.Sprintf(`, "has_payload": "%s"}`, digest)
}
