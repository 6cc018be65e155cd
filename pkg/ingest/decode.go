// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package ingest

import (
	"crypto/md5"
	"encoding/hex"
	"regexp"
)

// glogPrefix matches the fixed prefix of one log line:
// <L><MMDD> HH:MM:SS.uuuuuu <tid><pathname>:<line>] <payload>
// The temporal fields are matched but not captured; the single capture
// group matches the payload's first character, and only its start offset
// is used, matching the upstream implementation's approach of slicing
// the rest of the line from that offset rather than trying to capture
// an entire trailing JSON blob with a regex.
var glogPrefix = regexp.MustCompile(
	`^[VIWEC]\d{2}\d{2} \d{2}:\d{2}:\d{2}\.\d{6} \d+[^:]+:\d+\] (.)`,
)

// decodedLine is the result of successfully matching the glog prefix on
// one line: the start offset of the JSON payload within that line.
type decodedLine struct {
	payloadStart int
}

// matchGlogPrefix applies the prefix regex to line. ok is false if the
// line does not match (fail_glog).
func matchGlogPrefix(line string) (decodedLine, bool) {
	loc := glogPrefix.FindStringSubmatchIndex(line)
	if loc == nil {
		return decodedLine{}, false
	}
	// loc[2] is the start of the single payload-marker capture group.
	return decodedLine{payloadStart: loc[2]}, true
}

// verifyPayloadDigest reports whether expectHex (the envelope's
// has_payload field) is well-formed 32-char hex (either letter case is
// accepted) and matches the MD5 of payload. Both "malformed hex" and
// "digest mismatch" yield false and count as a single failure from the
// caller's point of view (fail_payload_md5).
func verifyPayloadDigest(expectHex string, payload string) bool {
	want, err := hex.DecodeString(expectHex)
	if err != nil || len(want) != md5.Size {
		return false
	}
	sum := md5.Sum([]byte(payload))
	return string(sum[:]) == string(want)
}
