package bundle

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frzz/prompter-installer/internal/config"
	"github.com/frzz/prompter-installer/internal/embedded"
)

// TestReadTitle tests title extraction from HTML documents
func TestReadTitle(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "simple", input: "<html><head><title>Web Prompter v1.4</title></head></html>", want: "Web Prompter v1.4"},
		{name: "upper case tag", input: "<HTML><HEAD><TITLE>  Prompter  </TITLE></HEAD>", want: "Prompter"},
		{name: "multi-line", input: "<title>\n  Web\n  Prompter\n</title>", want: "Web Prompter"},
		{name: "entities", input: "<title>Notes &amp; Lyrics</title>", want: "Notes & Lyrics"},
		{name: "cyrillic", input: "<title>Интерактивный монитор</title>", want: "Интерактивный монитор"},
		{name: "no title", input: "<html><body>hi</body></html>", want: ""},
		{name: "first title wins", input: "<title>One</title><title>Two</title>", want: "One"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadTitle(strings.NewReader(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func writePage(t *testing.T, root, content string) {
	t.Helper()
	dir := filepath.Join(root, "reaper_www_root")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "prompter.html"), []byte(content), 0644))
}

// TestTitle tests the page title with its fallback
func TestTitle(t *testing.T) {
	b := config.DefaultBundle()

	root := t.TempDir()
	writePage(t, root, "<title>Web Prompter 2.0</title>")
	assert.Equal(t, "Web Prompter 2.0", Title(root, b))

	empty := t.TempDir()
	writePage(t, empty, "<p>no title</p>")
	assert.Equal(t, b.DefaultTitle, Title(empty, b))

	assert.Equal(t, b.DefaultTitle, Title(t.TempDir(), b))
}

// TestLocate tests the bundle search order
func TestLocate(t *testing.T) {
	if embedded.HasData() {
		t.Skip("built with an embedded bundle")
	}
	b := config.DefaultBundle()

	withBundle := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(withBundle, "Scripts"), 0755))
	without := t.TempDir()

	tests := []struct {
		name     string
		explicit string
		exeDir   string
		cwd      string
		want     string
	}{
		{name: "explicit wins", explicit: without, exeDir: withBundle, cwd: withBundle, want: without},
		{name: "next to executable", exeDir: withBundle, cwd: without, want: withBundle},
		{name: "working directory", exeDir: without, cwd: withBundle, want: withBundle},
		{name: "nothing found falls back to executable", exeDir: without, cwd: without, want: without},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := Locate(tt.explicit, tt.exeDir, tt.cwd, b)
			require.NoError(t, err)
			defer src.Close()

			assert.Equal(t, tt.want, src.Root)
			assert.False(t, src.Embedded)
		})
	}
}

// TestLocate_ExplicitMissing tests an explicit folder that does not exist
func TestLocate_ExplicitMissing(t *testing.T) {
	_, err := Locate(filepath.Join(t.TempDir(), "nope"), "", "", config.DefaultBundle())
	assert.Error(t, err)
}
