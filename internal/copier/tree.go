package copier

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/frzz/prompter-installer/internal/paths"
)

// CopyTree copies every file under src into dst, overwriting what is there.
// Paths matching excludes and OS clutter files are left out. It returns the
// number of files written and stops at the first error.
func (c *Copier) CopyTree(src, dst string, excludes map[string]struct{}) (int, error) {
	info, err := os.Stat(src)
	if err != nil {
		return 0, fmt.Errorf("source folder not found: %w", err)
	}
	if !info.IsDir() {
		return 0, fmt.Errorf("source %s is not a folder", src)
	}

	root := filepath.Base(src)
	copied := 0
	err = filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return os.MkdirAll(dst, 0755)
		}

		// Patterns are relative to the bundle root, which holds the copied folder
		if paths.IsJunk(d.Name()) || paths.MatchesExclusion(filepath.Join(root, rel), excludes) {
			c.Log.Debug().Str("path", rel).Msg("excluded from copy")
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0755)
		}

		if err := c.Copy(path, target); err != nil {
			return fmt.Errorf("failed to copy %s: %w", paths.Normalize(rel), err)
		}
		copied++
		return nil
	})

	return copied, err
}

// Pair is a bundle file and where it was installed
type Pair struct {
	Source string
	Dest   string
}

// Check is the verification result for one installed file
type Check struct {
	Pair
	Match bool
	Err   error
}

// Verify re-hashes each destination against its source
func Verify(pairs []Pair) []Check {
	checks := make([]Check, 0, len(pairs))
	for _, p := range pairs {
		same, err := SameContent(p.Source, p.Dest)
		checks = append(checks, Check{Pair: p, Match: same && err == nil, Err: err})
	}
	return checks
}

// AllMatch reports whether every check passed
func AllMatch(checks []Check) bool {
	for _, c := range checks {
		if !c.Match {
			return false
		}
	}
	return true
}
