package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/frzz/prompter-installer/internal/copier"
)

// ErrNoInput is returned when standard input is closed before an answer arrives
var ErrNoInput = errors.New("no input available")

// Port bounds accepted for the web server
const (
	MinPort = 1024
	MaxPort = 65535
)

// SoundPlayer defines the interface for playing sounds
type SoundPlayer interface {
	Play(name string)
	PlayAsync(name string)
}

// Config holds configuration for prompting
type Config struct {
	NonInteractive   bool
	Sound            SoundPlayer
	GetConsoleWindow func() uintptr
}

// Prompter asks questions on a console
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
	cfg Config
}

// New creates a prompter reading answers from in and writing questions to out
func New(in io.Reader, out io.Writer, cfg Config) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out, cfg: cfg}
}

// Stdio creates a prompter on the process's standard streams
func Stdio(cfg Config) *Prompter {
	return New(os.Stdin, os.Stdout, cfg)
}

// NonInteractive reports whether questions are answered with defaults
func (p *Prompter) NonInteractive() bool {
	return p.cfg.NonInteractive
}

// Reader returns the buffered input so later readers see anything typed ahead
func (p *Prompter) Reader() io.Reader {
	return p.in
}

func (p *Prompter) play(name string) {
	if p.cfg.Sound != nil {
		p.cfg.Sound.PlayAsync(name)
	}
}

// readLine returns one trimmed line. A final line without newline still counts;
// EOF with nothing typed yields ErrNoInput.
func (p *Prompter) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimSpace(line), nil
		}
		if errors.Is(err, io.EOF) {
			return "", ErrNoInput
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (p *Prompter) ask(question string) (string, error) {
	fmt.Fprint(p.out, question)
	return p.readLine()
}

// WaitForKey waits for user to press Enter. Does nothing in non-interactive mode.
func (p *Prompter) WaitForKey(prompt string) {
	if p.cfg.NonInteractive {
		return
	}
	fmt.Fprint(p.out, prompt)
	_, _ = p.in.ReadString('\n')
}

// IsAffirmative reports whether an answer means yes, in English or Russian
func IsAffirmative(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes", "д", "да":
		return true
	}
	return false
}

// Confirm asks a yes/no question. Anything other than an affirmative answer declines.
func (p *Prompter) Confirm(question string) (bool, error) {
	if p.cfg.NonInteractive {
		return true, nil
	}

	answer, err := p.ask(question + " (y/n): ")
	if err != nil {
		return false, err
	}
	confirmed := IsAffirmative(answer)
	if confirmed {
		p.play("success")
	} else {
		p.play("select")
	}
	return confirmed, nil
}

// KeepDefault offers a detected folder. Enter keeps it; "1" asks for another path.
func (p *Prompter) KeepDefault(path string) (bool, error) {
	if p.cfg.NonInteractive {
		return true, nil
	}

	fmt.Fprintf(p.out, "REAPER resource folder found: %s\n\n", path)
	fmt.Fprintln(p.out, "  Press Enter to continue with this folder.")
	answer, err := p.ask("  Or type '1' to enter another path: ")
	if err != nil {
		return false, err
	}
	p.play("select")
	return answer != "1", nil
}

// Path asks for a folder path. An empty answer is returned as "".
func (p *Prompter) Path(question string) (string, error) {
	if p.cfg.NonInteractive {
		return "", ErrNoInput
	}
	return p.ask(question)
}

// Port asks for a TCP port until a number within [MinPort, MaxPort] is entered
func (p *Prompter) Port(question string) (int, error) {
	for {
		answer, err := p.ask(question + ": ")
		if err != nil {
			return 0, err
		}

		port, err := strconv.Atoi(answer)
		if err != nil {
			fmt.Fprintln(p.out, "That does not look like a number. Please try again.")
			p.play("error")
			continue
		}
		if port < MinPort || port > MaxPort {
			fmt.Fprintf(p.out, "The port must be between %d and %d.\n", MinPort, MaxPort)
			p.play("error")
			continue
		}
		p.play("select")
		return port, nil
	}
}

// Decide asks what to do about a locked destination file, so a Prompter
// can serve as the copier's lock policy. Closed input aborts.
func (p *Prompter) Decide(dst string, err error) copier.Decision {
	if p.cfg.NonInteractive {
		return copier.Skip
	}

	fmt.Fprintf(p.out, "\n%s is in use by another program (%v).\n", dst, err)
	fmt.Fprintln(p.out, "Close REAPER, then choose:")
	for {
		answer, readErr := p.ask("  [r]etry, [s]kip this file, [a]bort installation: ")
		if readErr != nil {
			return copier.Abort
		}

		switch strings.ToLower(answer) {
		case "r", "retry":
			p.play("select")
			return copier.Retry
		case "s", "skip":
			p.play("select")
			return copier.Skip
		case "a", "abort":
			return copier.Abort
		}
		fmt.Fprintln(p.out, "Please enter r, s or a.")
	}
}

// ErrCancelled is returned when the folder dialog is closed without a choice
var ErrCancelled = errors.New("folder selection cancelled")

// SelectFolder opens a folder selection dialog where the platform has one
func (p *Prompter) SelectFolder(title string) (string, error) {
	if p.cfg.NonInteractive {
		return "", ErrNoInput
	}

	consoleHandle := uintptr(0)
	if p.cfg.GetConsoleWindow != nil {
		consoleHandle = p.cfg.GetConsoleWindow()
	}
	return selectFolder(title, consoleHandle)
}
