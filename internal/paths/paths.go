package paths

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// HostDir is the name of the host's per-user resource directory on every platform
const HostDir = "REAPER"

// ExcludesFile lists bundle paths that the tree copy leaves out
const ExcludesFile = ".installer-excludes"

// Normalize converts a path to use forward slashes for pattern matching
func Normalize(p string) string {
	return strings.ReplaceAll(filepath.Clean(p), string(filepath.Separator), "/")
}

// DefaultResourceDir returns the platform's default resource directory.
// getenv and home are injected so every platform can be tested from any host.
func DefaultResourceDir(goos string, getenv func(string) string, home string) string {
	switch goos {
	case "windows":
		if appData := getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, HostDir)
		}
		return filepath.Join(home, "AppData", "Roaming", HostDir)
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", HostDir)
	default:
		if xdg := getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, HostDir)
		}
		return filepath.Join(home, ".config", HostDir)
	}
}

// Expand cleans up a path typed or pasted by the user: surrounding quotes and
// whitespace are dropped, a leading ~ becomes home and environment variables expand.
func Expand(p, home string) string {
	p = strings.TrimSpace(p)
	p = strings.Trim(p, `"'`)
	if p == "" {
		return ""
	}
	if p == "~" {
		return home
	}
	if strings.HasPrefix(p, "~/") || strings.HasPrefix(p, `~\`) {
		p = filepath.Join(home, p[2:])
	}
	return filepath.Clean(os.ExpandEnv(p))
}

// FindActual finds the actual case of a file on case-sensitive filesystems.
// found is false when no entry matches, in which case targetPath is returned unchanged.
func FindActual(targetPath string) (actual string, found bool) {
	if _, err := os.Stat(targetPath); err == nil {
		return targetPath, true
	}

	dir := filepath.Dir(targetPath)
	filename := filepath.Base(targetPath)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return targetPath, false
	}

	for _, entry := range entries {
		if strings.EqualFold(entry.Name(), filename) {
			return filepath.Join(dir, entry.Name()), true
		}
	}

	return targetPath, false
}

// IsResourceDir checks that dir is an existing directory holding the marker file
func IsResourceDir(dir, marker string) bool {
	if dir == "" {
		return false
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return false
	}
	markerPath, found := FindActual(filepath.Join(dir, marker))
	if !found {
		return false
	}
	info, err = os.Stat(markerPath)
	return err == nil && !info.IsDir()
}

// IsJunk reports whether name is operating-system clutter that never gets installed
func IsJunk(name string) bool {
	switch strings.ToLower(name) {
	case ".ds_store", "thumbs.db", "desktop.ini", ExcludesFile:
		return true
	}
	return strings.HasPrefix(name, "._")
}

// LoadExcludes reads exclusion patterns from an excludes file
func LoadExcludes(excludesPath string) map[string]struct{} {
	excludes := make(map[string]struct{})

	file, err := os.Open(excludesPath)
	if err != nil {
		return excludes
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.ReplaceAll(line, `\`, "/")
		if strings.HasSuffix(line, "/") {
			excludes[strings.ToLower(line)] = struct{}{}
			continue
		}
		excludes[strings.ToLower(Normalize(line))] = struct{}{}
	}
	return excludes
}

// MatchesExclusion checks if a bundle-relative path matches any exclusion pattern
func MatchesExclusion(path string, excludes map[string]struct{}) bool {
	normalizedPath := strings.ToLower(Normalize(path))

	for pattern := range excludes {
		if normalizedPath == pattern {
			return true
		}

		if strings.Contains(pattern, "*") {
			if matched, _ := filepath.Match(pattern, normalizedPath); matched {
				return true
			}
			// Bare file patterns apply in every directory
			if !strings.Contains(pattern, "/") {
				if matched, _ := filepath.Match(pattern, filepath.Base(normalizedPath)); matched {
					return true
				}
			}
		}

		if strings.HasSuffix(pattern, "/") && strings.HasPrefix(normalizedPath+"/", pattern) {
			return true
		}
	}

	return false
}
