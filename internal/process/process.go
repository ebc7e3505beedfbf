package process

import (
	"os/exec"
	"runtime"
	"strings"
	"time"
)

// HostImage is the executable name of the host application on Windows
const HostImage = "reaper.exe"

// hostNames are the process names matched by pgrep on other platforms
var hostNames = []string{"REAPER", "reaper"}

// IsHostRunning reports whether the host application appears to be running.
// Lookup failures count as not running.
func IsHostRunning() bool {
	if runtime.GOOS == "windows" {
		return isImageRunning(HostImage)
	}
	for _, name := range hostNames {
		if isNameRunning(name) {
			return true
		}
	}
	return false
}

func isImageRunning(image string) bool {
	cmd := exec.Command("tasklist", "/FI", "IMAGENAME eq "+image, "/FO", "CSV", "/NH")
	output, err := cmd.Output()
	if err != nil {
		return false
	}
	return listsImage(string(output), image)
}

// listsImage reports whether tasklist CSV output names image
func listsImage(output, image string) bool {
	return strings.Contains(strings.ToLower(output), `"`+strings.ToLower(image)+`"`)
}

func isNameRunning(name string) bool {
	// pgrep exits 1 when nothing matches
	return exec.Command("pgrep", "-x", name).Run() == nil
}

// WaitForExit polls until the host is no longer running.
// Returns true if it exited, false if the timeout passed first.
func WaitForExit(timeout time.Duration, running func() bool) bool {
	if running == nil {
		running = IsHostRunning
	}
	start := time.Now()
	for {
		if !running() {
			return true
		}
		if time.Since(start) >= timeout {
			return false
		}
		time.Sleep(100 * time.Millisecond)
	}
}
