package prompt

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/frzz/prompter-installer/internal/copier"
)

type recordingSound struct {
	played []string
}

func (r *recordingSound) Play(name string)      { r.played = append(r.played, name) }
func (r *recordingSound) PlayAsync(name string) { r.played = append(r.played, name) }

func newPrompter(input string) (*Prompter, *bytes.Buffer) {
	out := &bytes.Buffer{}
	return New(strings.NewReader(input), out, Config{}), out
}

// TestIsAffirmative tests the accepted yes tokens
func TestIsAffirmative(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y", true},
		{"YES", true},
		{"  yes  ", true},
		{"д", true},
		{"Да", true},
		{"n", false},
		{"нет", false},
		{"", false},
		{"yep", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := IsAffirmative(tt.input); got != tt.want {
				t.Errorf("IsAffirmative(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

// TestConfirm tests yes/no answers
func TestConfirm(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{name: "yes", input: "y\n", want: true},
		{name: "russian yes", input: "да\n", want: true},
		{name: "no", input: "n\n", want: false},
		{name: "anything else declines", input: "maybe\n", want: false},
		{name: "answer without newline", input: "yes", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, out := newPrompter(tt.input)

			got, err := p.Confirm("Create a web server?")
			if err != nil {
				t.Fatalf("Confirm() unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Confirm() = %v, want %v", got, tt.want)
			}
			if !strings.Contains(out.String(), "Create a web server? (y/n): ") {
				t.Errorf("Confirm() did not print the question, got %q", out.String())
			}
		})
	}
}

// TestConfirm_EOF tests that closed input is reported
func TestConfirm_EOF(t *testing.T) {
	p, _ := newPrompter("")

	_, err := p.Confirm("Continue?")
	if !errors.Is(err, ErrNoInput) {
		t.Errorf("Confirm() error = %v, want ErrNoInput", err)
	}
}

// TestConfirm_NonInteractive tests that non-interactive mode accepts without reading
func TestConfirm_NonInteractive(t *testing.T) {
	out := &bytes.Buffer{}
	p := New(strings.NewReader(""), out, Config{NonInteractive: true})

	got, err := p.Confirm("Continue?")
	if err != nil || !got {
		t.Errorf("Confirm() = %v, %v, want true, nil", got, err)
	}
	if out.Len() != 0 {
		t.Errorf("Confirm() printed %q in non-interactive mode", out.String())
	}
}

// TestConfirm_Sound tests audio feedback on answers
func TestConfirm_Sound(t *testing.T) {
	sound := &recordingSound{}
	p := New(strings.NewReader("y\nn\n"), &bytes.Buffer{}, Config{Sound: sound})

	_, _ = p.Confirm("a")
	_, _ = p.Confirm("b")

	want := []string{"success", "select"}
	if strings.Join(sound.played, ",") != strings.Join(want, ",") {
		t.Errorf("played %v, want %v", sound.played, want)
	}
}

// TestKeepDefault tests accepting or rejecting the detected folder
func TestKeepDefault(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{name: "enter keeps", input: "\n", want: true},
		{name: "any other key keeps", input: "x\n", want: true},
		{name: "one asks for another", input: "1\n", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, out := newPrompter(tt.input)

			got, err := p.KeepDefault("/home/user/.config/REAPER")
			if err != nil {
				t.Fatalf("KeepDefault() unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("KeepDefault() = %v, want %v", got, tt.want)
			}
			if !strings.Contains(out.String(), "/home/user/.config/REAPER") {
				t.Errorf("KeepDefault() did not show the folder")
			}
		})
	}
}

// TestPort tests port validation and re-prompting
func TestPort(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int
		prompts int
		wantErr error
	}{
		{name: "valid first time", input: "8080\n", want: 8080, prompts: 1},
		{name: "lowest port", input: "1024\n", want: 1024, prompts: 1},
		{name: "highest port", input: "65535\n", want: 65535, prompts: 1},
		{name: "not a number then valid", input: "abc\n9000\n", want: 9000, prompts: 2},
		{name: "out of range then valid", input: "80\n70000\n8080\n", want: 8080, prompts: 3},
		{name: "input closes", input: "abc\n", wantErr: ErrNoInput, prompts: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, out := newPrompter(tt.input)

			got, err := p.Port("Port")
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Port() error = %v, want %v", err, tt.wantErr)
				}
			} else {
				if err != nil {
					t.Fatalf("Port() unexpected error: %v", err)
				}
				if got != tt.want {
					t.Errorf("Port() = %d, want %d", got, tt.want)
				}
			}
			if n := strings.Count(out.String(), "Port: "); n != tt.prompts {
				t.Errorf("Port() prompted %d times, want %d", n, tt.prompts)
			}
		})
	}
}

// TestDecide tests the lock conflict menu
func TestDecide(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  copier.Decision
	}{
		{name: "retry", input: "r\n", want: copier.Retry},
		{name: "skip word", input: "SKIP\n", want: copier.Skip},
		{name: "abort", input: "a\n", want: copier.Abort},
		{name: "invalid then skip", input: "x\ns\n", want: copier.Skip},
		{name: "closed input aborts", input: "", want: copier.Abort},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, _ := newPrompter(tt.input)

			got := p.Decide("UserPlugins/helper.dll", copier.ErrLocked)
			if got != tt.want {
				t.Errorf("Decide() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestDecide_NonInteractive tests that unattended runs skip locked files
func TestDecide_NonInteractive(t *testing.T) {
	p := New(strings.NewReader(""), &bytes.Buffer{}, Config{NonInteractive: true})

	if got := p.Decide("x.dll", copier.ErrLocked); got != copier.Skip {
		t.Errorf("Decide() = %v, want skip", got)
	}
}

// TestPath tests reading a path answer
func TestPath(t *testing.T) {
	p, _ := newPrompter("  /opt/REAPER  \n\n")

	got, err := p.Path("Path: ")
	if err != nil || got != "/opt/REAPER" {
		t.Errorf("Path() = %q, %v", got, err)
	}

	got, err = p.Path("Path: ")
	if err != nil || got != "" {
		t.Errorf("Path() = %q, %v, want empty answer", got, err)
	}

	if _, err := p.Path("Path: "); !errors.Is(err, ErrNoInput) {
		t.Errorf("Path() error = %v, want ErrNoInput", err)
	}
}
