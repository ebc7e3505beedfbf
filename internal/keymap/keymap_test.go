package keymap

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frzz/prompter-installer/internal/config"
	"github.com/frzz/prompter-installer/internal/lines"
)

const template = `SCR 4 0 {id} "{label}" {script}`

func render(id, script string) string {
	return config.Action{ID: id, Label: "Custom: Test", Script: script}.Render(template)
}

// TestEnsureAction tests every branch of the match precedence
func TestEnsureAction(t *testing.T) {
	tests := []struct {
		name    string
		input   []string
		id      string
		script  string
		want    []string
		outcome Outcome
	}{
		{
			name:    "empty file gets one record",
			input:   nil,
			id:      "A1",
			script:  "x.lua",
			want:    []string{render("A1", "x.lua")},
			outcome: Appended,
		},
		{
			name:    "already bound",
			input:   []string{"KEY 1 65 0 0", render("A1", "x.lua")},
			id:      "A1",
			script:  "x.lua",
			want:    []string{"KEY 1 65 0 0", render("A1", "x.lua")},
			outcome: Unchanged,
		},
		{
			name:    "script found under another identifier",
			input:   []string{`SCR 4 0 OLD_ID "Custom: Old" x.lua`, "KEY 1 65 _OLD_ID 0"},
			id:      "A1",
			script:  "x.lua",
			want:    []string{render("A1", "x.lua"), "KEY 1 65 _OLD_ID 0"},
			outcome: FixedID,
		},
		{
			name:    "identifier found with renamed script",
			input:   []string{"ACT 0 0 foo", `SCR 4 0 A1 "Custom: Old" old.lua`},
			id:      "A1",
			script:  "new.lua",
			want:    []string{"ACT 0 0 foo", render("A1", "new.lua")},
			outcome: Rebound,
		},
		{
			name:    "unrelated lines are appended to",
			input:   []string{"KEY 1 65 0 0", "ACT 0 0 foo"},
			id:      "A1",
			script:  "x.lua",
			want:    []string{"KEY 1 65 0 0", "ACT 0 0 foo", render("A1", "x.lua")},
			outcome: Appended,
		},
		{
			name: "filename match takes precedence over identifier match",
			input: []string{
				`SCR 4 0 A1 "Custom: Old" old.lua`,
				`SCR 4 0 B2 "Custom: Other" x.lua`,
			},
			id:     "A1",
			script: "x.lua",
			want: []string{
				`SCR 4 0 A1 "Custom: Old" old.lua`,
				render("A1", "x.lua"),
			},
			outcome: FixedID,
		},
		{
			name: "last matching line wins",
			input: []string{
				`SCR 4 0 A1 "Custom: Old" a.lua`,
				`SCR 4 0 A1 "Custom: Old" b.lua`,
			},
			id:     "A1",
			script: "c.lua",
			want: []string{
				`SCR 4 0 A1 "Custom: Old" a.lua`,
				render("A1", "c.lua"),
			},
			outcome: Rebound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := lines.FromTexts(tt.input...)

			got, outcome := EnsureAction(buf, tt.id, tt.script, render(tt.id, tt.script))

			assert.Equal(t, tt.outcome, outcome)
			assert.Equal(t, tt.outcome.Changed(), outcome != Unchanged)
			if len(tt.want) == 0 {
				assert.Equal(t, 0, got.Len())
			} else {
				assert.Equal(t, tt.want, got.Texts())
			}
		})
	}
}

// TestEnsureAction_DoesNotMutateInput tests that the original buffer is left intact
func TestEnsureAction_DoesNotMutateInput(t *testing.T) {
	buf := lines.FromTexts(`SCR 4 0 A1 "Custom: Old" old.lua`)
	before := string(buf.Bytes())

	_, _ = EnsureAction(buf, "A1", "new.lua", render("A1", "new.lua"))

	assert.Equal(t, before, string(buf.Bytes()))
}

func testPatcher() *Patcher {
	b := config.DefaultBundle()
	return NewPatcher(b, zerolog.Nop())
}

// TestPatchFile_MissingFile tests creation of the keymap file with both records
func TestPatchFile_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reaper-kb.ini")
	p := testPatcher()

	result, err := p.PatchFile(path)

	require.NoError(t, err)
	assert.True(t, result.Created)
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var want strings.Builder
	for _, a := range p.Bundle.Actions {
		want.WriteString(a.Render(p.Bundle.ActionTemplate) + "\n")
	}
	assert.Equal(t, want.String(), string(data))
}

// TestPatchFile_PreservesOtherLines tests that irrelevant lines and CRLF endings survive
func TestPatchFile_PreservesOtherLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reaper-kb.ini")
	p := testPatcher()
	backend := p.Bundle.Actions[0]
	original := "KEY 1 65 40044 0\r\n" +
		`SCR 4 0 ` + backend.ID + ` "Custom: Old name" FRZZ_old_backend.lua` + "\r\n" +
		"ACT 0 0 \"_abc\" \"Some custom action\" 40001\r\n"
	require.NoError(t, os.WriteFile(path, []byte(original), 0644))

	result, err := p.PatchFile(path)

	require.NoError(t, err)
	assert.True(t, result.Written)
	assert.Equal(t, Rebound, result.Outcomes[backend.ID])
	assert.Equal(t, Appended, result.Outcomes[p.Bundle.Actions[1].ID])

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	got := strings.Split(string(data), "\r\n")
	require.Len(t, got, 5, "four CRLF terminated lines")
	assert.Equal(t, "KEY 1 65 40044 0", got[0])
	assert.Equal(t, backend.Render(p.Bundle.ActionTemplate), got[1])
	assert.Equal(t, `ACT 0 0 "_abc" "Some custom action" 40001`, got[2])
	assert.Equal(t, p.Bundle.Actions[1].Render(p.Bundle.ActionTemplate), got[3])
	assert.Equal(t, "", got[4])
}

// TestPatchFile_Idempotent tests that a second run leaves the file byte-identical
func TestPatchFile_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reaper-kb.ini")
	require.NoError(t, os.WriteFile(path, []byte("KEY 1 65 40044 0\n"), 0644))
	p := testPatcher()

	first, err := p.PatchFile(path)
	require.NoError(t, err)
	assert.True(t, first.Written)
	afterFirst, err := os.ReadFile(path)
	require.NoError(t, err)

	second, err := p.PatchFile(path)
	require.NoError(t, err)
	assert.False(t, second.Written)
	afterSecond, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.Equal(t, string(afterFirst), string(afterSecond))
	for _, o := range second.Outcomes {
		assert.Equal(t, Unchanged, o)
	}
}

// TestPatchFile_NoTrailingNewline tests appending to a file without a final terminator
func TestPatchFile_NoTrailingNewline(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reaper-kb.ini")
	require.NoError(t, os.WriteFile(path, []byte("KEY 1 65 40044 0"), 0644))
	p := testPatcher()

	_, err := p.PatchFile(path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "KEY 1 65 40044 0\n"))
	assert.Equal(t, 3, strings.Count(string(data), "\n"))
}

var (
	genScript = gen.RegexMatch(`s_[a-z]{1,8}\.lua`)
	genNoise  = gen.SliceOf(gen.RegexMatch(`(KEY|ACT) [0-9]{1,5} [0-9]{1,3}`))
)

// TestProperty_Idempotence tests that applying EnsureAction twice changes nothing the second time
func TestProperty_Idempotence(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("a second EnsureAction with the same arguments is a no-op", prop.ForAll(
		func(noise []string, script string) bool {
			buf := lines.FromTexts(noise...)
			once, _ := EnsureAction(buf, "ID_PROP", script, render("ID_PROP", script))
			twice, outcome := EnsureAction(once, "ID_PROP", script, render("ID_PROP", script))
			return outcome == Unchanged && once.Equal(twice)
		},
		genNoise,
		genScript,
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

// TestProperty_SingleLinePerIdentifier tests that script renames never duplicate an identifier
func TestProperty_SingleLinePerIdentifier(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("after any sequence of renames exactly one line holds the identifier", prop.ForAll(
		func(noise []string, scripts []string) bool {
			buf := lines.FromTexts(noise...)
			for _, s := range scripts {
				buf, _ = EnsureAction(buf, "ID_PROP", s, render("ID_PROP", s))
			}

			count := 0
			for _, text := range buf.Texts() {
				if strings.Contains(text, "ID_PROP") {
					count++
				}
			}
			last := scripts[len(scripts)-1]
			return count == 1 && buf.Text(buf.Len()-1) == render("ID_PROP", last) &&
				buf.Len() == len(noise)+1
		},
		genNoise,
		gen.SliceOfN(4, genScript),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
