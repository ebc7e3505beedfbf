//go:build !windows

package copier

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// replaceFile writes to a temp file next to dst and renames it over dst.
// A process that has the old file mapped keeps the old inode, and a failed
// write leaves dst untouched.
func replaceFile(dst string, r io.Reader, perm os.FileMode) error {
	f, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".tmp-*")
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

	if _, err := io.Copy(f, r); err != nil {
		return err
	}
	if err := f.Sync(); err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tempPath, perm); err != nil {
		return err
	}
	if err := os.Rename(tempPath, dst); err != nil {
		return err
	}

	success = true
	return nil
}
