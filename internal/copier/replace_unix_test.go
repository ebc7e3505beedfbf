//go:build unix

package copier

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

// TestCopyFile_MappedDestination tests that a plugin mapped by a running host keeps its
// old image while the new one takes its place
func TestCopyFile_MappedDestination(t *testing.T) {
	dir := t.TempDir()
	src, dst := filepath.Join(dir, "new.so"), filepath.Join(dir, "UserPlugins", "reaper_prompter.so")
	writeFile(t, src, "NEWNEWNEW")
	writeFile(t, dst, "OLDOLDOLD")

	f, err := os.Open(dst)
	require.NoError(t, err)
	defer f.Close()
	mapped, err := unix.Mmap(int(f.Fd()), 0, len("OLDOLDOLD"), unix.PROT_READ, unix.MAP_SHARED)
	require.NoError(t, err)
	defer unix.Munmap(mapped)

	asked := false
	c := New(PolicyFunc(func(string, error) Decision {
		asked = true
		return Abort
	}), zerolog.Nop())

	result, err := c.CopyFile(src, dst)
	require.NoError(t, err)
	assert.Equal(t, Copied, result)
	assert.False(t, asked)
	assert.Equal(t, "OLDOLDOLD", string(mapped))
	assert.Equal(t, "NEWNEWNEW", readFile(t, dst))
}

// TestCopyFileContents_NoTempLeftovers tests that the replacement leaves only the target behind
func TestCopyFileContents_NoTempLeftovers(t *testing.T) {
	dir := t.TempDir()
	src, dst := filepath.Join(dir, "src", "plugin.so"), filepath.Join(dir, "dst", "plugin.so")
	writeFile(t, src, "binary")
	require.NoError(t, os.Chmod(src, 0755))
	writeFile(t, dst, "old binary")

	require.NoError(t, CopyFileContents(src, dst))

	entries, err := os.ReadDir(filepath.Dir(dst))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.False(t, strings.HasPrefix(entries[0].Name(), "."))

	info, err := os.Stat(dst)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0755), info.Mode().Perm())
	assert.Equal(t, "binary", readFile(t, dst))
}

// TestCopyFileContents_FailedWriteKeepsDestination tests that an unreadable source leaves
// the old destination in place
func TestCopyFileContents_FailedWriteKeepsDestination(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "plugin.so")
	writeFile(t, dst, "old binary")

	// Reading a directory fails after the open succeeds
	require.Error(t, CopyFileContents(dir, dst))

	assert.Equal(t, "old binary", readFile(t, dst))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
