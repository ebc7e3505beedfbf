package version

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// BundleFile is the version stamp written into the bundle root by the release build
const BundleFile = "version.json"

// Set with -ldflags "-X github.com/frzz/prompter-installer/internal/version.Tag=v1.2.3"
var (
	Tag    = "v0.0.0"
	Commit = ""
	Date   = ""
)

// Version represents a release version
type Version struct {
	Major  int    `json:"major"`
	Minor  int    `json:"minor"`
	Patch  int    `json:"patch"`
	Commit string `json:"commit,omitempty"`
	Date   string `json:"date,omitempty"`
}

// String returns the version in semantic format
func (v Version) String() string {
	ver := fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	if v.Commit != "" {
		ver += "+" + v.Commit
	}
	return ver
}

// ParseTag extracts version components from a git tag (e.g., "v1.2.3")
func ParseTag(tag string) (major, minor, patch int, err error) {
	tagVersion := strings.TrimPrefix(tag, "v")
	parts := strings.Split(tagVersion, ".")
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("invalid tag format: %s (expected vX.Y.Z)", tag)
	}

	major, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid major version in tag %s: %w", tag, err)
	}
	minor, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid minor version in tag %s: %w", tag, err)
	}
	patch, err = strconv.Atoi(parts[2])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid patch version in tag %s: %w", tag, err)
	}

	return major, minor, patch, nil
}

// Installer returns the version of this binary from the link-time variables.
// An unparsable tag yields 0.0.0.
func Installer() Version {
	v := Version{Commit: Commit, Date: Date}
	if major, minor, patch, err := ParseTag(Tag); err == nil {
		v.Major, v.Minor, v.Patch = major, minor, patch
	}
	return v
}

// LoadBundle reads the bundle's version stamp from dir
func LoadBundle(dir string) (*Version, error) {
	data, err := os.ReadFile(filepath.Join(dir, BundleFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read bundle version: %w", err)
	}

	var v Version
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("failed to parse bundle version: %w", err)
	}

	return &v, nil
}
