// Package lines holds a line-oriented view of a text file that keeps every byte of the
// lines it does not touch, including encoding and line terminators.
package lines

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const bom = "\ufeff"

// Line is one line of a file. Text excludes the terminator, EOL holds it ("\r\n", "\n" or "").
type Line struct {
	Text string
	EOL  string
}

// Buffer is an ordered, immutable sequence of lines. Edits return a new Buffer.
type Buffer struct {
	lines []Line
	eol   string
}

// Parse splits data into lines, keeping each line's terminator
func Parse(data []byte) *Buffer {
	b := &Buffer{}
	rest := string(data)
	for rest != "" {
		idx := strings.IndexByte(rest, '\n')
		if idx == -1 {
			b.lines = append(b.lines, Line{Text: rest})
			break
		}
		text := rest[:idx]
		eol := "\n"
		if strings.HasSuffix(text, "\r") {
			text = text[:len(text)-1]
			eol = "\r\n"
		}
		if b.eol == "" {
			b.eol = eol
		}
		b.lines = append(b.lines, Line{Text: text, EOL: eol})
		rest = rest[idx+1:]
	}
	if b.eol == "" {
		b.eol = "\n"
	}
	return b
}

// FromTexts builds a buffer whose lines all end with "\n"
func FromTexts(texts ...string) *Buffer {
	b := &Buffer{eol: "\n"}
	for _, t := range texts {
		b.lines = append(b.lines, Line{Text: t, EOL: "\n"})
	}
	return b
}

// Len returns the number of lines
func (b *Buffer) Len() int {
	return len(b.lines)
}

// Text returns the text of line i without its terminator
func (b *Buffer) Text(i int) string {
	return b.lines[i].Text
}

// Texts returns the text of every line
func (b *Buffer) Texts() []string {
	out := make([]string, len(b.lines))
	for i, l := range b.lines {
		out[i] = l.Text
	}
	return out
}

// EOL returns the line ending used for inserted lines
func (b *Buffer) EOL() string {
	return b.eol
}

// Trimmed returns line i with surrounding whitespace and a leading BOM removed
func (b *Buffer) Trimmed(i int) string {
	return strings.TrimSpace(strings.TrimPrefix(b.lines[i].Text, bom))
}

// Bytes re-joins the buffer. An unmodified parse round-trips exactly.
func (b *Buffer) Bytes() []byte {
	var buf bytes.Buffer
	for _, l := range b.lines {
		buf.WriteString(l.Text)
		buf.WriteString(l.EOL)
	}
	return buf.Bytes()
}

// Equal reports whether both buffers render to the same bytes
func (b *Buffer) Equal(other *Buffer) bool {
	return bytes.Equal(b.Bytes(), other.Bytes())
}

// Index returns the first line index whose trimmed text satisfies match, or -1
func (b *Buffer) Index(match func(string) bool) int {
	for i := range b.lines {
		if match(b.Trimmed(i)) {
			return i
		}
	}
	return -1
}

// LastIndex returns the last line index whose trimmed text satisfies match, or -1
func (b *Buffer) LastIndex(match func(string) bool) int {
	for i := len(b.lines) - 1; i >= 0; i-- {
		if match(b.Trimmed(i)) {
			return i
		}
	}
	return -1
}

// SectionIndex returns the index of the "[name]" header, compared case-insensitively, or -1
func (b *Buffer) SectionIndex(name string) int {
	header := "[" + strings.ToLower(name) + "]"
	return b.Index(func(s string) bool {
		return strings.ToLower(s) == header
	})
}

// Replace returns a copy with line i's text replaced; the line keeps its terminator
func (b *Buffer) Replace(i int, text string) *Buffer {
	out := b.clone()
	out.lines[i].Text = text
	return out
}

// InsertAfter returns a copy with texts inserted after line i. i == -1 inserts at the top.
func (b *Buffer) InsertAfter(i int, texts ...string) *Buffer {
	out := &Buffer{eol: b.eol, lines: make([]Line, 0, len(b.lines)+len(texts))}
	out.lines = append(out.lines, b.lines[:i+1]...)
	if i >= 0 && out.lines[i].EOL == "" {
		out.lines[i].EOL = b.eol
	}
	for _, t := range texts {
		out.lines = append(out.lines, Line{Text: t, EOL: b.eol})
	}
	out.lines = append(out.lines, b.lines[i+1:]...)
	return out
}

// Append returns a copy with texts added at the end
func (b *Buffer) Append(texts ...string) *Buffer {
	return b.InsertAfter(len(b.lines)-1, texts...)
}

func (b *Buffer) clone() *Buffer {
	out := &Buffer{eol: b.eol, lines: make([]Line, len(b.lines))}
	copy(out.lines, b.lines)
	return out
}

// Read loads a file into a buffer. A missing file yields an empty buffer and exists == false.
func Read(path string) (buf *Buffer, exists bool, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Parse(nil), false, nil
		}
		return nil, false, fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}
	return Parse(data), true, nil
}

// WriteIfChanged atomically writes buf to path when its bytes differ from orig.
// It reports whether a write happened.
func WriteIfChanged(path string, orig, buf *Buffer) (bool, error) {
	if orig != nil && orig.Equal(buf) {
		return false, nil
	}

	perm := os.FileMode(0644)
	if info, err := os.Stat(path); err == nil {
		perm = info.Mode().Perm()
	}

	if err := AtomicWriteFile(path, buf.Bytes(), perm); err != nil {
		return false, err
	}
	return true, nil
}

// AtomicWriteFile writes data to a temp file in the same directory, syncs it and renames
// it over path, so readers see either the old or the new content. A symlinked path is
// resolved first and its target replaced, leaving the link in place.
func AtomicWriteFile(path string, data []byte, perm os.FileMode) error {
	if target, err := filepath.EvalSymlinks(path); err == nil {
		path = target
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}

	f, err := os.CreateTemp(dir, ".tmp-")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tempPath := f.Name()

	success := false
	defer func() {
		if !success {
			f.Close()
			os.Remove(tempPath)
		}
	}()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("failed to write data: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("failed to sync data to disk: %w", err)
	}
	// Windows refuses to rename an open file
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tempPath, perm); err != nil {
		return fmt.Errorf("failed to set file permissions: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}
