// Package console writes the installer's user-facing output.
package console

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

const defaultWidth = 60

var (
	out      io.Writer = os.Stdout
	renderer           = lipgloss.NewRenderer(os.Stdout)
	quiet    bool
	styles   = newStyles(renderer)
)

type palette struct {
	banner  lipgloss.Style
	step    lipgloss.Style
	success lipgloss.Style
	warn    lipgloss.Style
	err     lipgloss.Style
	dim     lipgloss.Style
	box     lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) palette {
	return palette{
		banner:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("14")),
		step:    r.NewStyle().Bold(true),
		success: r.NewStyle().Foreground(lipgloss.Color("10")),
		warn:    r.NewStyle().Foreground(lipgloss.Color("11")),
		err:     r.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
		dim:     r.NewStyle().Faint(true),
		box: r.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color("10")).
			Padding(0, 2),
	}
}

// Init configures the console package
func Init(quietMode bool) {
	quiet = quietMode
}

// SetQuiet changes quiet mode at runtime
func SetQuiet(q bool) {
	quiet = q
}

// SetOutput redirects all output, mainly for tests. Colors follow the new writer.
func SetOutput(w io.Writer) {
	out = w
	renderer = lipgloss.NewRenderer(w)
	styles = newStyles(renderer)
}

// IsTerminal reports whether output goes to an interactive terminal
func IsTerminal() bool {
	f, ok := out.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Width returns the terminal width capped at the banner width
func Width() int {
	f, ok := out.(*os.File)
	if !ok {
		return defaultWidth
	}
	w, _, err := term.GetSize(int(f.Fd()))
	if err != nil || w <= 0 || w > defaultWidth {
		return defaultWidth
	}
	return w
}

// Log prints a message if not in quiet mode
func Log(format string, args ...interface{}) {
	if !quiet {
		fmt.Fprintf(out, format+"\n", args...)
	}
}

// Rule returns a horizontal separator line
func Rule() string {
	return strings.Repeat("=", Width())
}

// Banner prints the installer heading
func Banner(title string) {
	Log("%s", Rule())
	Log("%s", styles.banner.Render("Installer for: "+title))
	Log("%s", Rule())
}

// Step prints a numbered step header
func Step(n int, text string) {
	Log("\n---\n%s", styles.step.Render(fmt.Sprintf("Step %d: %s", n, text)))
}

// Success prints a confirmation line
func Success(format string, args ...interface{}) {
	Log("%s", styles.success.Render("OK  "+fmt.Sprintf(format, args...)))
}

// Warn prints a warning line
func Warn(format string, args ...interface{}) {
	Log("%s", styles.warn.Render("!!  "+fmt.Sprintf(format, args...)))
}

// Error prints an error line. Errors are shown even in quiet mode.
func Error(format string, args ...interface{}) {
	fmt.Fprintln(out, styles.err.Render("ERR "+fmt.Sprintf(format, args...)))
}

// Info prints a secondary detail line
func Info(format string, args ...interface{}) {
	Log("%s", styles.dim.Render("    "+fmt.Sprintf(format, args...)))
}

// Box prints lines inside a bordered frame
func Box(lines ...string) {
	Log("%s", styles.box.Render(strings.Join(lines, "\n")))
}

// PromptToClose prints the completion message and waits up to seconds for Enter.
//
// A goroutine blocks on one line of input while the caller's goroutine counts down
// once per tick; whichever finishes first returns. It reports whether Enter was pressed.
// The reading goroutine is abandoned on timeout, which is fine because the process exits.
func PromptToClose(seconds int, in io.Reader, tick time.Duration) bool {
	Log("\nSetup complete! Restart REAPER for all changes to take effect.")
	if seconds <= 0 {
		return false
	}
	Log("   Press Enter to close this window...")

	pressed := make(chan struct{}, 1)
	go func() {
		line, err := bufio.NewReader(in).ReadString('\n')
		if err == nil || line != "" {
			pressed <- struct{}{}
		}
	}()

	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	overwrite := IsTerminal()
	for remaining := seconds; remaining > 0; remaining-- {
		msg := fmt.Sprintf("   ...or the window closes automatically in %02d seconds. ", remaining)
		if overwrite {
			fmt.Fprint(out, "\r"+msg)
		} else if !quiet {
			fmt.Fprintln(out, msg)
		}

		select {
		case <-pressed:
			if overwrite {
				fmt.Fprintln(out)
			}
			return true
		case <-ticker.C:
		}
	}

	if overwrite {
		fmt.Fprint(out, "\r"+strings.Repeat(" ", defaultWidth+10)+"\r")
	}
	Log("   ...time is up.")
	return false
}
