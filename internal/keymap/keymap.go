package keymap

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/frzz/prompter-installer/internal/config"
	"github.com/frzz/prompter-installer/internal/lines"
)

// Outcome describes what EnsureAction did with one action
type Outcome int

const (
	Unchanged Outcome = iota
	// FixedID means the script's line was found with a different identifier
	FixedID
	// Rebound means the identifier's line was found with a different script
	Rebound
	Appended
)

func (o Outcome) String() string {
	switch o {
	case Unchanged:
		return "already registered"
	case FixedID:
		return "identifier corrected"
	case Rebound:
		return "script renamed"
	case Appended:
		return "added"
	}
	return "unknown"
}

// Changed reports whether the outcome mutated the buffer
func (o Outcome) Changed() bool {
	return o != Unchanged
}

// EnsureAction makes sure one line registers identifier bound to script.
//
// The script filename is matched first; if that line lacks the identifier it is
// rewritten. Otherwise a line holding the identifier is rewritten, which keeps the
// user's binding slot when the script was renamed. With neither present the rendered
// line is appended. When several lines match, the last one wins.
func EnsureAction(buf *lines.Buffer, identifier, script, rendered string) (*lines.Buffer, Outcome) {
	byScript, byID := -1, -1
	for i := 0; i < buf.Len(); i++ {
		text := buf.Text(i)
		if strings.Contains(text, script) {
			byScript = i
		}
		if strings.Contains(text, identifier) {
			byID = i
		}
	}

	switch {
	case byScript != -1:
		if strings.Contains(buf.Text(byScript), identifier) {
			return buf, Unchanged
		}
		return buf.Replace(byScript, rendered), FixedID
	case byID != -1:
		return buf.Replace(byID, rendered), Rebound
	default:
		return buf.Append(rendered), Appended
	}
}

// Result reports the outcome per action identifier and whether the file was written
type Result struct {
	Created  bool
	Written  bool
	Outcomes map[string]Outcome
}

// Patcher registers the bundle's actions in the keymap file
type Patcher struct {
	Bundle config.Bundle
	Log    zerolog.Logger
}

// NewPatcher creates a keymap patcher for a bundle
func NewPatcher(b config.Bundle, log zerolog.Logger) *Patcher {
	return &Patcher{Bundle: b, Log: log}
}

// Apply runs EnsureAction for every action in the bundle and reports whether anything changed
func (p *Patcher) Apply(buf *lines.Buffer) (*lines.Buffer, map[string]Outcome, bool) {
	outcomes := make(map[string]Outcome, len(p.Bundle.Actions))
	changed := false
	for _, a := range p.Bundle.Actions {
		var outcome Outcome
		buf, outcome = EnsureAction(buf, a.ID, a.Script, a.Render(p.Bundle.ActionTemplate))
		outcomes[a.ID] = outcome
		changed = changed || outcome.Changed()
	}
	return buf, outcomes, changed
}

// PatchFile ensures every action is registered in the keymap file at path.
// A missing file is created holding just the rendered records.
func (p *Patcher) PatchFile(path string) (*Result, error) {
	orig, exists, err := lines.Read(path)
	if err != nil {
		return nil, err
	}

	if !exists {
		texts := make([]string, 0, len(p.Bundle.Actions))
		outcomes := make(map[string]Outcome, len(p.Bundle.Actions))
		for _, a := range p.Bundle.Actions {
			texts = append(texts, a.Render(p.Bundle.ActionTemplate))
			outcomes[a.ID] = Appended
		}
		if err := lines.AtomicWriteFile(path, lines.FromTexts(texts...).Bytes(), 0644); err != nil {
			return nil, fmt.Errorf("failed to create keymap file: %w", err)
		}
		p.Log.Info().Str("file", path).Int("actions", len(texts)).Msg("keymap file created")
		return &Result{Created: true, Written: true, Outcomes: outcomes}, nil
	}

	buf, outcomes, changed := p.Apply(orig)
	for id, o := range outcomes {
		p.Log.Debug().Str("action", id).Stringer("outcome", o).Msg("keymap action checked")
	}

	result := &Result{Outcomes: outcomes}
	if !changed {
		return result, nil
	}

	written, err := lines.WriteIfChanged(path, orig, buf)
	if err != nil {
		return nil, fmt.Errorf("failed to write keymap file: %w", err)
	}
	result.Written = written
	return result, nil
}
