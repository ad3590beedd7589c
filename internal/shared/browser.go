package shared

import (
	"fmt"
	"os/exec"
	"runtime"
)

var getRuntime = func() string { return runtime.GOOS }

// browserCommand returns the launcher for the current platform, or nil if unsupported.
func browserCommand(url string) *exec.Cmd {
	switch getRuntime() {
	case "darwin":
		return exec.Command("open", url)
	case "linux", "freebsd", "openbsd":
		return exec.Command("xdg-open", url)
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	}
	return nil
}

// OpenBrowser opens the default system browser at url, used to start the Google sign-in flow.
func OpenBrowser(url string) error {
	cmd := browserCommand(url)
	if cmd == nil {
		return fmt.Errorf("unsupported platform: %s", getRuntime())
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}
	return nil
}
