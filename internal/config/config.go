package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Action describes one keyboard-bindable script action registered in the keymap file
type Action struct {
	ID     string `toml:"id" yaml:"id" validate:"required"`
	Label  string `toml:"label" yaml:"label" validate:"required"`
	Script string `toml:"script" yaml:"script" validate:"required"`
}

// Render renders the action as a keymap line using the given template.
// The template understands the {id}, {label} and {script} placeholders.
func (a Action) Render(template string) string {
	return strings.NewReplacer(
		"{id}", a.ID,
		"{label}", a.Label,
		"{script}", a.Script,
	).Replace(template)
}

// VerifyEntry names a file, relative to the resource directory, that is re-hashed
// after installation. An empty GOOS means the file is checked on every platform.
type VerifyEntry struct {
	Path string `toml:"path" yaml:"path" validate:"required"`
	GOOS string `toml:"goos" yaml:"goos"`
}

// AppliesTo reports whether the entry is checked on the given platform
func (v VerifyEntry) AppliesTo(goos string) bool {
	return v.GOOS == "" || v.GOOS == goos
}

// Bundle holds everything the installer knows about the plugin bundle and the host's
// configuration files. It is built once and passed by value into each patcher.
type Bundle struct {
	Name string `toml:"name" yaml:"name"`

	Actions        []Action `toml:"actions" yaml:"actions" validate:"required,min=1,dive"`
	ActionTemplate string   `toml:"action_template" yaml:"action_template" validate:"required"`
	HintAction     string   `toml:"hint_action" yaml:"hint_action"`

	KeymapFile   string `toml:"keymap_file" yaml:"keymap_file" validate:"required"`
	SettingsFile string `toml:"settings_file" yaml:"settings_file" validate:"required"`
	MarkerFile   string `toml:"marker_file" yaml:"marker_file" validate:"required"`

	Section    string `toml:"section" yaml:"section" validate:"required"`
	RateKey    string `toml:"rate_key" yaml:"rate_key" validate:"required"`
	MinRate    int    `toml:"min_rate" yaml:"min_rate" validate:"min=1"`
	SlotPrefix string `toml:"slot_prefix" yaml:"slot_prefix" validate:"required"`
	CountKey   string `toml:"count_key" yaml:"count_key" validate:"required"`
	Transport  string `toml:"transport" yaml:"transport" validate:"required"`
	WebPage    string `toml:"web_page" yaml:"web_page" validate:"required"`

	ScriptsDir string `toml:"scripts_dir" yaml:"scripts_dir" validate:"required"`
	WebRootDir string `toml:"web_root_dir" yaml:"web_root_dir" validate:"required"`
	PluginsDir string `toml:"plugins_dir" yaml:"plugins_dir" validate:"required"`

	// Binaries lists native plugin files per GOOS, relative to PluginsDir
	Binaries map[string][]string `toml:"binaries" yaml:"binaries"`
	Verify   []VerifyEntry       `toml:"verify" yaml:"verify" validate:"dive"`

	DefaultTitle string `toml:"default_title" yaml:"default_title"`
}

// Descriptor file names looked up in the bundle root
const (
	DescriptorTOML = "bundle.toml"
	DescriptorYAML = "bundle.yaml"
)

// DefaultBundle returns the built-in description of the Web Prompter bundle
func DefaultBundle() Bundle {
	return Bundle{
		Name: "Web Prompter",
		Actions: []Action{
			{
				ID:     "FRZZ_WEB_NOTES_READER",
				Label:  "Custom: Web Prompter Backend",
				Script: "FRZZ_web_prompter_backend.lua",
			},
			{
				ID:     "FRZZ_WEB_PROMPTER_LAUNCHER",
				Label:  "Custom: Web Prompter Launcher",
				Script: "FRZZ_web_prompter_launcher.lua",
			},
		},
		ActionTemplate: `SCR 4 0 {id} "{label}" {script}`,
		HintAction:     "Custom: Web Prompter Launcher",

		KeymapFile:   "reaper-kb.ini",
		SettingsFile: "reaper.ini",
		MarkerFile:   "reaper.ini",

		Section:    "REAPER",
		RateKey:    "csurfrate",
		MinRate:    100,
		SlotPrefix: "csurf_",
		CountKey:   "csurf_cnt",
		Transport:  "HTTP",
		WebPage:    "prompter.html",

		ScriptsDir: "Scripts",
		WebRootDir: "reaper_www_root",
		PluginsDir: "UserPlugins",

		Binaries: map[string][]string{
			"windows": {"reaper_prompter_helper-x64.dll"},
			"darwin":  {"reaper_prompter_helper.dylib"},
			"linux":   {"reaper_prompter_helper.so"},
		},
		Verify: []VerifyEntry{
			{Path: "Scripts/FRZZ_web_prompter_backend.lua"},
			{Path: "Scripts/FRZZ_web_prompter_launcher.lua"},
			{Path: "reaper_www_root/prompter.html"},
			{Path: "UserPlugins/reaper_prompter_helper-x64.dll", GOOS: "windows"},
		},

		DefaultTitle: "Web Prompter for REAPER",
	}
}

// BinariesFor returns the native plugin files shipped for a platform
func (b Bundle) BinariesFor(goos string) []string {
	return b.Binaries[goos]
}

// Backend returns the first configured action, the one the web page invokes
func (b Bundle) Backend() Action {
	if len(b.Actions) == 0 {
		return Action{}
	}
	return b.Actions[0]
}

// LoadBundle returns the default bundle overlaid with bundle.toml or bundle.yaml from dir,
// whichever exists first. A missing descriptor is not an error.
func LoadBundle(dir string) (Bundle, error) {
	b := DefaultBundle()

	tomlPath := filepath.Join(dir, DescriptorTOML)
	if _, err := os.Stat(tomlPath); err == nil {
		if _, err := toml.DecodeFile(tomlPath, &b); err != nil {
			return Bundle{}, fmt.Errorf("failed to parse %s: %w", DescriptorTOML, err)
		}
		return b, ValidateBundle(b)
	}

	yamlPath := filepath.Join(dir, DescriptorYAML)
	data, err := os.ReadFile(yamlPath)
	if err != nil {
		if os.IsNotExist(err) {
			return b, nil
		}
		return Bundle{}, fmt.Errorf("failed to read %s: %w", DescriptorYAML, err)
	}
	if err := yaml.Unmarshal(data, &b); err != nil {
		return Bundle{}, fmt.Errorf("failed to parse %s: %w", DescriptorYAML, err)
	}

	return b, ValidateBundle(b)
}

// ValidateBundle validates the bundle description using struct tags
func ValidateBundle(b Bundle) error {
	if err := validator.New().Struct(b); err != nil {
		return formatValidationError(err)
	}

	for goos := range b.Binaries {
		if !knownGOOS(goos) {
			return fmt.Errorf("validation errors: binaries lists unknown platform %q", goos)
		}
	}

	return nil
}

func knownGOOS(goos string) bool {
	switch goos {
	case "windows", "darwin", "linux", "freebsd":
		return true
	}
	return false
}

// formatValidationError formats validation errors into readable messages
func formatValidationError(err error) error {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	var messages []string
	for _, e := range validationErrors {
		switch e.Tag() {
		case "required":
			messages = append(messages, fmt.Sprintf("%s is required", e.Namespace()))
		case "min":
			messages = append(messages, fmt.Sprintf("%s must be at least %s", e.Namespace(), e.Param()))
		case "max":
			messages = append(messages, fmt.Sprintf("%s must be at most %s", e.Namespace(), e.Param()))
		case "oneof":
			messages = append(messages, fmt.Sprintf("%s must be one of: %s", e.Namespace(), e.Param()))
		default:
			messages = append(messages, fmt.Sprintf("%s failed validation: %s", e.Namespace(), e.Tag()))
		}
	}
	return fmt.Errorf("validation errors: %s", strings.Join(messages, "; "))
}
