// Package testutil holds file helpers and fixtures shared by the package tests.
package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// WriteFile creates a test file with content
func WriteFile(t *testing.T, path, content string) {
	t.Helper()
	err := os.MkdirAll(filepath.Dir(path), 0755)
	if err != nil {
		t.Fatalf("failed to create directory: %v", err)
	}
	err = os.WriteFile(path, []byte(content), 0644)
	if err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
}

// ReadFile returns a file's content as a string
func ReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read file %s: %v", path, err)
	}
	return string(content)
}

// AssertFileExists checks if a file exists
func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("file does not exist: %s", path)
	}
}

// AssertFileNotExists checks if a file does not exist
func AssertFileNotExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("file should not exist: %s", path)
	}
}

// AssertFileContent checks file content matches expected
func AssertFileContent(t *testing.T, path, expected string) {
	t.Helper()
	if got := ReadFile(t, path); got != expected {
		t.Errorf("file content mismatch for %s:\nwant: %q\ngot:  %q", path, expected, got)
	}
}

// AssertFileContains checks that a file holds the given line
func AssertFileContains(t *testing.T, path, line string) {
	t.Helper()
	for _, l := range strings.Split(strings.ReplaceAll(ReadFile(t, path), "\r\n", "\n"), "\n") {
		if l == line {
			return
		}
	}
	t.Errorf("file %s has no line %q", path, line)
}
