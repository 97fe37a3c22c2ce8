// Package config loads the ledclock configuration: a YAML file over compiled
// defaults, then LEDCLOCK_* environment variables on top.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
	"gopkg.in/yaml.v3"

	"github.com/flavioheleno/max7219/provision"
)

// EnvPrefix marks environment overrides. LEDCLOCK_NTP_SERVER sets
// ntp.server.
const EnvPrefix = "LEDCLOCK_"

var ErrInvalid = errors.New("config: invalid")

// Config is the full process configuration.
type Config struct {
	Display   DisplayConfig   `yaml:"display" koanf:"display"`
	NTP       NTPConfig       `yaml:"ntp" koanf:"ntp"`
	Loop      LoopConfig      `yaml:"loop" koanf:"loop"`
	Settings  SettingsConfig  `yaml:"settings" koanf:"settings"`
	Log       LogConfig       `yaml:"log" koanf:"log"`
	Provision ProvisionConfig `yaml:"provision" koanf:"provision"`
}

// DisplayConfig selects the panel chain.
type DisplayConfig struct {
	Panels  int    `yaml:"panels" koanf:"panels"`
	SPI     string `yaml:"spi" koanf:"spi"`         // spireg name, empty for the first bus
	CS      string `yaml:"cs" koanf:"cs"`           // optional gpioreg name for a manual chip select
	Rotated bool   `yaml:"rotated" koanf:"rotated"` // chain mounted upside down
	Preview bool   `yaml:"preview" koanf:"preview"` // draw on the terminal instead of SPI
}

// NTPConfig configures the time source.
type NTPConfig struct {
	Server    string        `yaml:"server" koanf:"server"`
	Timeout   time.Duration `yaml:"timeout" koanf:"timeout"`
	Attempts  int           `yaml:"attempts" koanf:"attempts"`
	Bootstrap time.Duration `yaml:"bootstrap" koanf:"bootstrap"`
}

// LoopConfig holds the display loop timers.
type LoopConfig struct {
	FrameDelay     time.Duration `yaml:"frame_delay" koanf:"framedelay"`
	Blink          time.Duration `yaml:"blink" koanf:"blink"`
	StatusInterval time.Duration `yaml:"status_interval" koanf:"statusinterval"`
	ScrollStep     time.Duration `yaml:"scroll_step" koanf:"scrollstep"`
	StatusHold     time.Duration `yaml:"status_hold" koanf:"statushold"`
	ResyncEvery    int           `yaml:"resync_every" koanf:"resyncevery"`
}

// SettingsConfig locates the persisted runtime settings.
type SettingsConfig struct {
	Path string `yaml:"path" koanf:"path"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" koanf:"level"`
	Format string `yaml:"format" koanf:"format"`
}

// ProvisionConfig answers the provisioning fields. All fields empty means
// nothing is submitted and the stored settings are kept.
type ProvisionConfig struct {
	provision.Params `yaml:",inline" koanf:",squash"`
	Timeout          time.Duration `yaml:"timeout" koanf:"timeout"`
}

// Default returns the compiled defaults.
func Default() *Config {
	return &Config{
		Display: DisplayConfig{
			Panels: 4,
		},
		NTP: NTPConfig{
			Server:    "pool.ntp.org",
			Timeout:   5 * time.Second,
			Attempts:  5,
			Bootstrap: time.Minute,
		},
		Loop: LoopConfig{
			FrameDelay:     30 * time.Millisecond,
			Blink:          500 * time.Millisecond,
			StatusInterval: 20 * time.Second,
			ScrollStep:     40 * time.Millisecond,
			StatusHold:     5 * time.Second,
			ResyncEvery:    60,
		},
		Settings: SettingsConfig{
			Path: "/var/lib/ledclock/settings.bin",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Provision: ProvisionConfig{
			Timeout: 3 * time.Minute,
		},
	}
}

// Load reads the YAML file at path (skipped when empty) over the defaults and
// applies environment overrides.
func Load(path string) (*Config, error) {
	c := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, c); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	k := koanf.New(".")
	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "_", ".")
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("load env vars: %w", err)
	}
	if err := k.Unmarshal("", c); err != nil {
		return nil, fmt.Errorf("unmarshal env vars: %w", err)
	}

	applyDefaults(c)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func applyDefaults(c *Config) {
	d := Default()
	if c.NTP.Server == "" {
		c.NTP.Server = d.NTP.Server
	}
	if c.NTP.Timeout <= 0 {
		c.NTP.Timeout = d.NTP.Timeout
	}
	if c.NTP.Attempts <= 0 {
		c.NTP.Attempts = d.NTP.Attempts
	}
	if c.NTP.Bootstrap <= 0 {
		c.NTP.Bootstrap = d.NTP.Bootstrap
	}
	if c.Loop.FrameDelay <= 0 {
		c.Loop.FrameDelay = d.Loop.FrameDelay
	}
	if c.Loop.Blink <= 0 {
		c.Loop.Blink = d.Loop.Blink
	}
	if c.Loop.StatusInterval <= 0 {
		c.Loop.StatusInterval = d.Loop.StatusInterval
	}
	if c.Loop.ScrollStep <= 0 {
		c.Loop.ScrollStep = d.Loop.ScrollStep
	}
	if c.Loop.StatusHold < 0 {
		c.Loop.StatusHold = d.Loop.StatusHold
	}
	if c.Loop.ResyncEvery <= 0 {
		c.Loop.ResyncEvery = d.Loop.ResyncEvery
	}
	if c.Settings.Path == "" {
		c.Settings.Path = d.Settings.Path
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = d.Log.Format
	}
	if c.Provision.Timeout <= 0 {
		c.Provision.Timeout = d.Provision.Timeout
	}
}

// Validate rejects values no default can repair.
func (c *Config) Validate() error {
	if c.Display.Panels < 1 || c.Display.Panels > 16 {
		return fmt.Errorf("%w: display.panels %d not in 1..16", ErrInvalid, c.Display.Panels)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log.format %q", ErrInvalid, c.Log.Format)
	}
	return nil
}
