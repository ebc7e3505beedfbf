//go:build windows

package copier

import (
	"io"
	"os"
)

// replaceFile overwrites dst in place. Opening a binary the host has loaded fails with a
// sharing violation, which is what IsLocked reports to the lock policy.
func replaceFile(dst string, r io.Reader, perm os.FileMode) error {
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
