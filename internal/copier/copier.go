// Package copier copies bundle files into the resource directory.
//
// Native binaries go through CopyFile, which compares SHA-256 hashes first and asks a
// LockPolicy what to do when the destination is held open by the host. Script and web
// trees go through CopyTree, which overwrites unconditionally.
package copier

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

var (
	// ErrAborted is returned when the lock policy chose to abort the installation
	ErrAborted = errors.New("installation aborted by user")
	// ErrLocked marks an error as a lock conflict regardless of platform
	ErrLocked = errors.New("file is locked by another process")
)

// Result is the outcome of copying one file
type Result int

const (
	Copied Result = iota
	// Current means source and destination already had identical content
	Current
	Skipped
	Failed
)

func (r Result) String() string {
	switch r {
	case Copied:
		return "copied"
	case Current:
		return "up to date"
	case Skipped:
		return "skipped"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Decision is what to do about a locked destination
type Decision int

const (
	Retry Decision = iota
	Skip
	Abort
)

func (d Decision) String() string {
	switch d {
	case Retry:
		return "retry"
	case Skip:
		return "skip"
	case Abort:
		return "abort"
	}
	return "unknown"
}

// LockPolicy decides how to handle a destination that is in use
type LockPolicy interface {
	Decide(dst string, err error) Decision
}

// PolicyFunc adapts a function to LockPolicy
type PolicyFunc func(dst string, err error) Decision

// Decide calls f
func (f PolicyFunc) Decide(dst string, err error) Decision {
	return f(dst, err)
}

// Always returns a policy that gives the same decision every time
func Always(d Decision) LockPolicy {
	return PolicyFunc(func(string, error) Decision { return d })
}

// Copier copies files. Copy performs the actual write and may be replaced in tests.
type Copier struct {
	Policy LockPolicy
	Copy   func(src, dst string) error
	Log    zerolog.Logger
}

// New creates a copier that writes with CopyFileContents
func New(policy LockPolicy, log zerolog.Logger) *Copier {
	return &Copier{Policy: policy, Copy: CopyFileContents, Log: log}
}

// HashFile returns the hex SHA-256 of a file's content
func HashFile(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}

	return fmt.Sprintf("%x", hash.Sum(nil)), nil
}

// SameContent reports whether both files exist and hash equal
func SameContent(a, b string) (bool, error) {
	ha, err := HashFile(a)
	if err != nil {
		return false, err
	}
	hb, err := HashFile(b)
	if err != nil {
		return false, err
	}
	return ha == hb, nil
}

// IsLocked reports whether err means the file is held open by another process
func IsLocked(err error) bool {
	return errors.Is(err, ErrLocked) || isPlatformLock(err)
}

// CopyFile copies src to dst unless both already have the same content.
//
// A lock conflict is handed to the policy: Retry attempts the copy again, Skip leaves the
// destination as it was, Abort returns ErrAborted. Any other write error yields Failed.
func (c *Copier) CopyFile(src, dst string) (Result, error) {
	srcHash, err := HashFile(src)
	if err != nil {
		return Failed, fmt.Errorf("failed to hash %s: %w", filepath.Base(src), err)
	}

	dstHash, err := HashFile(dst)
	if err != nil && !os.IsNotExist(err) {
		c.Log.Debug().Err(err).Str("file", dst).Msg("could not hash destination, copying anyway")
	}
	if dstHash == srcHash {
		c.Log.Debug().Str("file", dst).Msg("destination is up to date")
		return Current, nil
	}

	for {
		err := c.Copy(src, dst)
		if err == nil {
			break
		}
		if !IsLocked(err) {
			return Failed, fmt.Errorf("failed to copy %s: %w", filepath.Base(src), err)
		}

		decision := c.Policy.Decide(dst, err)
		c.Log.Debug().Str("file", dst).Stringer("decision", decision).Msg("destination locked")
		switch decision {
		case Retry:
			continue
		case Skip:
			return Skipped, nil
		default:
			return Failed, fmt.Errorf("%w: %s is in use", ErrAborted, filepath.Base(dst))
		}
	}

	got, err := HashFile(dst)
	if err != nil {
		return Failed, fmt.Errorf("failed to verify %s: %w", filepath.Base(dst), err)
	}
	if got != srcHash {
		return Failed, fmt.Errorf("hash mismatch after copying %s", filepath.Base(dst))
	}
	return Copied, nil
}

// CopyFileContents writes src over dst keeping the source's permissions and
// modification time. Missing parent directories are created.
func CopyFileContents(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", dst, err)
	}

	if err := replaceFile(dst, in, info.Mode().Perm()); err != nil {
		return err
	}

	return os.Chtimes(dst, info.ModTime(), info.ModTime())
}
