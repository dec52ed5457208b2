// Package config provides configuration loading from YAML files.
package config

import (
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
// Both the player daemon and the association utility share it.
type Config struct {
	Table    TableConfig    `yaml:"table"`
	Library  LibraryConfig  `yaml:"library"`
	Audio    AudioConfig    `yaml:"audio"`
	Tags     TagsConfig     `yaml:"tags"`
	Buttons  ButtonsConfig  `yaml:"buttons"`
	Hardware HardwareConfig `yaml:"hardware"`
}

// TableConfig represents association table storage configuration.
type TableConfig struct {
	Path string `yaml:"path" default:"nfc_data.json"`
}

// LibraryConfig represents the media library configuration.
type LibraryConfig struct {
	Dir string `yaml:"dir" default:"music"`
}

// AudioConfig represents audio engine configuration.
type AudioConfig struct {
	InitialVolume int `yaml:"initial_volume" default:"50" validate:"gte=0,lte=100"`
	VolumeStep    int `yaml:"volume_step" default:"10" validate:"gte=1,lte=50"`
	CommandBuffer int `yaml:"command_buffer" default:"16" validate:"gte=1"`
	IdleWakeMs    int `yaml:"idle_wake_ms" default:"500" validate:"gte=10"`
}

// TagsConfig represents tag poller configuration.
type TagsConfig struct {
	AbsentPollMs   int `yaml:"absent_poll_ms" default:"500" validate:"gte=10"`
	PresentPollMs  int `yaml:"present_poll_ms" default:"1000" validate:"gte=10"`
	ReadTimeoutMs  int `yaml:"read_timeout_ms" default:"500" validate:"gte=10"`
	ErrorBackoffMs int `yaml:"error_backoff_ms" default:"1000" validate:"gte=10"`
}

// ButtonsConfig represents button poller configuration.
type ButtonsConfig struct {
	PollMs     int        `yaml:"poll_ms" default:"50" validate:"gte=5"`
	CooldownMs int        `yaml:"cooldown_ms" default:"300" validate:"gte=0"`
	Pins       PinsConfig `yaml:"pins"`
}

// PinsConfig names the GPIO pins of the three buttons.
type PinsConfig struct {
	VolumeUp   string `yaml:"volume_up" default:"GPIO22"`
	VolumeDown string `yaml:"volume_down" default:"GPIO27"`
	PlayPause  string `yaml:"play_pause" default:"GPIO17"`
}

// HardwareConfig selects the hardware drivers.
type HardwareConfig struct {
	Reader DriverConfig `yaml:"reader"`
	Input  DriverConfig `yaml:"input"`
	Output DriverConfig `yaml:"output"`
}

// DriverConfig represents a single hardware driver selection.
// Settings are driver-specific and decoded by the driver itself.
type DriverConfig struct {
	Type     string         `yaml:"type" validate:"required"`
	Settings map[string]any `yaml:"settings,omitempty"`
}

// Load loads configuration from a YAML file.
// Environment variables take precedence over file values for paths.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	// Override with environment variables
	cfg.overrideFromEnv()

	// Set defaults using creasty/defaults
	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("TAGBOX_TABLE_PATH"); v != "" {
		c.Table.Path = v
	}
	if v := os.Getenv("TAGBOX_LIBRARY_DIR"); v != "" {
		c.Library.Dir = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}
	return nil
}

// AbsentPoll returns the poll interval while no tag is present.
func (c TagsConfig) AbsentPoll() time.Duration {
	return time.Duration(c.AbsentPollMs) * time.Millisecond
}

// PresentPoll returns the poll interval while the same tag remains present.
func (c TagsConfig) PresentPoll() time.Duration {
	return time.Duration(c.PresentPollMs) * time.Millisecond
}

// ReadTimeout returns the per-sample read timeout.
func (c TagsConfig) ReadTimeout() time.Duration {
	return time.Duration(c.ReadTimeoutMs) * time.Millisecond
}

// ErrorBackoff returns the delay after a reader error.
func (c TagsConfig) ErrorBackoff() time.Duration {
	return time.Duration(c.ErrorBackoffMs) * time.Millisecond
}

// Poll returns the button scan interval.
func (c ButtonsConfig) Poll() time.Duration {
	return time.Duration(c.PollMs) * time.Millisecond
}

// Cooldown returns the debounce window between button actions.
func (c ButtonsConfig) Cooldown() time.Duration {
	return time.Duration(c.CooldownMs) * time.Millisecond
}

// IdleWake returns the audio executor's periodic wake interval.
func (c AudioConfig) IdleWake() time.Duration {
	return time.Duration(c.IdleWakeMs) * time.Millisecond
}
