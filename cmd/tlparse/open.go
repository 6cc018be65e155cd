// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"os/exec"
	"runtime"
)

// openBrowser best-effort launches the system's default handler for
// path, mirroring the upstream CLI's use of the "opener" crate. No
// browser-launcher library appears anywhere in the retrieved example
// pack, so this dispatches on GOOS directly; failures are silent since
// a missing desktop environment (a headless CI box, for instance) is
// not an error condition worth failing the run over.
func openBrowser(path string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", path)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", path)
	default:
		cmd = exec.Command("xdg-open", path)
	}
	return cmd.Start()
}
