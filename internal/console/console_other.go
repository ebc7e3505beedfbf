//go:build !windows

package console

import "fmt"

// Attach is a no-op; a terminal is always present when launched from one
func Attach() bool {
	return true
}

// SetTitle sets the terminal window title with an OSC escape sequence
func SetTitle(title string) error {
	if !IsTerminal() {
		return nil
	}
	_, err := fmt.Fprintf(out, "\x1b]0;%s\x07", title)
	return err
}

// GetWindow has no meaning outside Windows
func GetWindow() uintptr {
	return 0
}
