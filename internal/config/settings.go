package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Settings holds per-run options. Values come from the environment (and an optional
// .env file) and may be overridden by command-line flags afterwards.
type Settings struct {
	ResourceDir string `env:"PROMPTER_RESOURCE_DIR"`
	SourceDir   string `env:"PROMPTER_SOURCE_DIR"`

	// Port presets the web-server port; zero means ask
	Port      int    `env:"PROMPTER_PORT" envDefault:"0" validate:"omitempty,min=1024,max=65535"`
	Countdown int    `env:"PROMPTER_COUNTDOWN" envDefault:"30" validate:"min=0,max=600"`
	LogLevel  string `env:"PROMPTER_LOG_LEVEL" envDefault:"warn" validate:"oneof=debug info warn error"`

	AssumeYes bool `env:"PROMPTER_ASSUME_YES" envDefault:"false"`
	Mute      bool `env:"PROMPTER_MUTE" envDefault:"false"`
	Quiet     bool `env:"PROMPTER_QUIET" envDefault:"false"`
	Verbose   bool `env:"PROMPTER_VERBOSE" envDefault:"false"`
}

// LoadSettings reads settings from environment variables and .env files. The result is not
// validated, since command-line flags may still override it; call ValidateSettings afterwards.
func LoadSettings() (*Settings, error) {
	_ = godotenv.Load()

	s := &Settings{}
	if err := env.Parse(s); err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}

	return s, nil
}

// ValidateSettings validates settings using struct tags
func ValidateSettings(s *Settings) error {
	if err := validator.New().Struct(s); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// EffectiveLogLevel returns the log level after applying the verbose switch
func (s *Settings) EffectiveLogLevel() string {
	if s.Verbose {
		return "debug"
	}
	return s.LogLevel
}
