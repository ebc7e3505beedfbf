// Package bundle locates the plugin files that the installer deploys.
package bundle

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"

	"github.com/frzz/prompter-installer/internal/config"
	"github.com/frzz/prompter-installer/internal/embedded"
)

// Source is a directory holding the bundle's folders
type Source struct {
	Root     string
	Embedded bool

	cleanup func()
}

// Close removes a temporary extraction, if any
func (s *Source) Close() {
	if s.cleanup != nil {
		s.cleanup()
		s.cleanup = nil
	}
}

// Locate picks the bundle root. An explicit directory wins, then a bundle compiled
// into the binary, then the executable's folder, then the working directory.
func Locate(explicit, exeDir, cwd string, b config.Bundle) (*Source, error) {
	if explicit != "" {
		info, err := os.Stat(explicit)
		if err != nil {
			return nil, fmt.Errorf("bundle folder not found: %w", err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("bundle path %s is not a folder", explicit)
		}
		return &Source{Root: explicit}, nil
	}

	if embedded.HasData() {
		dir, err := embedded.ExtractTemp()
		if err != nil {
			return nil, fmt.Errorf("failed to unpack embedded bundle: %w", err)
		}
		return &Source{Root: dir, Embedded: true, cleanup: func() { os.RemoveAll(dir) }}, nil
	}

	for _, dir := range []string{exeDir, cwd} {
		if dir != "" && Looks(dir, b) {
			return &Source{Root: dir}, nil
		}
	}
	return &Source{Root: exeDir}, nil
}

// Looks reports whether dir has at least one of the bundle's required folders
func Looks(dir string, b config.Bundle) bool {
	for _, sub := range []string{b.ScriptsDir, b.WebRootDir} {
		if info, err := os.Stat(filepath.Join(dir, sub)); err == nil && info.IsDir() {
			return true
		}
	}
	return false
}

// ExecutableDir returns the folder of the running binary with symlinks resolved
func ExecutableDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to get executable path: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe), nil
}

// PagePath returns the path of the served web page inside the bundle
func PagePath(root string, b config.Bundle) string {
	return filepath.Join(root, b.WebRootDir, b.WebPage)
}

// Title reads the <title> of the bundle's web page, falling back to b.DefaultTitle
func Title(root string, b config.Bundle) string {
	f, err := os.Open(PagePath(root, b))
	if err != nil {
		return b.DefaultTitle
	}
	defer f.Close()

	title, err := ReadTitle(f)
	if err != nil || title == "" {
		return b.DefaultTitle
	}
	return title
}

// ReadTitle returns the text of the first <title> element, trimmed and with
// inner whitespace collapsed. Tag names are matched case-insensitively.
func ReadTitle(r io.Reader) (string, error) {
	z := html.NewTokenizer(r)
	inTitle := false
	var text strings.Builder

	for {
		switch z.Next() {
		case html.ErrorToken:
			if errors.Is(z.Err(), io.EOF) {
				return "", nil
			}
			return "", z.Err()
		case html.StartTagToken:
			name, _ := z.TagName()
			if string(name) == "title" {
				inTitle = true
			}
		case html.TextToken:
			if inTitle {
				text.Write(z.Text())
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if inTitle && string(name) == "title" {
				return strings.Join(strings.Fields(text.String()), " "), nil
			}
		}
	}
}
