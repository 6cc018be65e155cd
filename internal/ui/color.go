// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ui provides color output helpers for the tlparse CLI. Whether
// colors are emitted is decided by InitColors from the --no-color flag
// alone.
package ui

import (
	"github.com/fatih/color"
)

// Pre-configured color instances for consistent CLI output. These are
// initialized at package load time and respect the global color.NoColor
// setting when called.
var (
	// Yellow is used for warnings and recoverable parse failures.
	Yellow = color.New(color.FgYellow)

	// Green is used for the final success line.
	Green = color.New(color.FgGreen)
)

// InitColors configures global color output based on the noColor flag.
//
// Call this early in main() after parsing flags so all color output
// respects --no-color. It assigns color.NoColor outright, replacing the
// value fatih/color derived at startup from NO_COLOR and TTY detection,
// so with noColor false colors are emitted even when piped.
func InitColors(noColor bool) {
	color.NoColor = noColor
}

// Successf prints a formatted green success message with a checkmark prefix.
//
// Example output: "✓ wrote report to tl_out (1234 ok, 3 unknown)"
func Successf(format string, args ...any) {
	_, _ = Green.Printf("✓ "+format+"\n", args...)
}

// Warningf prints a formatted yellow warning message with a warning symbol prefix.
//
// Example output: "⚠ analyzer \"dynamo_guards\" failed: unexpected EOF"
func Warningf(format string, args ...any) {
	_, _ = Yellow.Printf("⚠ "+format+"\n", args...)
}
