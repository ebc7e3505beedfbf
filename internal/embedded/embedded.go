package embedded

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrNoData is returned by ExtractTo in builds without an embedded bundle
var ErrNoData = errors.New("no embedded bundle data")

// HasData returns true if an embedded bundle is available.
// This is false for normal builds and true for builds with -tags embedded.
func HasData() bool {
	return len(getZipData()) > 0
}

// ProgressFunc is called during extraction with current file index and total files.
type ProgressFunc func(current, total int, filename string)

// ExtractTo extracts the embedded bundle into targetDir
func ExtractTo(targetDir string, progress ProgressFunc) error {
	data := getZipData()
	if len(data) == 0 {
		return ErrNoData
	}
	return Extract(data, targetDir, progress)
}

// ExtractTemp extracts the embedded bundle into a new temporary directory.
// The caller removes the returned directory when done.
func ExtractTemp() (string, error) {
	dir, err := os.MkdirTemp("", "prompter-bundle-")
	if err != nil {
		return "", fmt.Errorf("failed to create temp dir: %w", err)
	}
	if err := ExtractTo(dir, nil); err != nil {
		os.RemoveAll(dir)
		return "", err
	}
	return dir, nil
}

// Extract unpacks a zip archive held in memory into targetDir
func Extract(data []byte, targetDir string, progress ProgressFunc) error {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return fmt.Errorf("failed to open bundle zip: %w", err)
	}

	absTargetDir, err := filepath.Abs(targetDir)
	if err != nil {
		return fmt.Errorf("failed to resolve target dir: %w", err)
	}

	// Archives made by zipping a folder carry it as a common prefix
	stripPrefix := detectStripPrefix(reader)

	total := len(reader.File)
	current := 0

	for _, f := range reader.File {
		relPath := strings.TrimPrefix(f.Name, stripPrefix)
		if relPath == "" {
			continue
		}

		current++
		if progress != nil {
			progress(current, total, relPath)
		}

		absTarget := filepath.Join(absTargetDir, filepath.FromSlash(relPath))
		if absTarget != absTargetDir && !strings.HasPrefix(absTarget, absTargetDir+string(filepath.Separator)) {
			return fmt.Errorf("path traversal attempt detected: %s", relPath)
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(absTarget, 0755); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", relPath, err)
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(absTarget), 0755); err != nil {
			return fmt.Errorf("failed to create parent dir for %s: %w", relPath, err)
		}

		if err := extractFile(f, absTarget); err != nil {
			return fmt.Errorf("failed to extract %s: %w", relPath, err)
		}
	}

	return nil
}

// detectStripPrefix finds a top-level directory shared by every entry
func detectStripPrefix(reader *zip.Reader) string {
	if len(reader.File) == 0 {
		return ""
	}

	firstPath := reader.File[0].Name
	idx := strings.Index(firstPath, "/")
	if idx == -1 {
		return ""
	}

	prefix := firstPath[:idx+1]
	switch prefix {
	case "Scripts/", "reaper_www_root/", "UserPlugins/":
		return ""
	}

	for _, f := range reader.File {
		if !strings.HasPrefix(f.Name, prefix) {
			return ""
		}
	}

	return prefix
}

func extractFile(f *zip.File, targetPath string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	mode := f.Mode().Perm()
	if mode == 0 {
		mode = 0644
	}
	out, err := os.OpenFile(targetPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, rc)
	return err
}
