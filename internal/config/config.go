// Package config provides YAML-based configuration loading for Fireteam.
// Secrets can be supplied or overridden through environment variables.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/zulandar/fireteam/internal/suggest"
)

// Config is the top-level Fireteam configuration, loaded from fireteam.yaml.
type Config struct {
	Discord   DiscordConfig   `yaml:"discord"`
	Raid      RaidConfig      `yaml:"raid"`
	Digest    DigestConfig    `yaml:"digest"`
	Storage   StorageConfig   `yaml:"storage"`
	Dashboard DashboardConfig `yaml:"dashboard"`
	Mirror    MirrorConfig    `yaml:"mirror"`
}

// DiscordConfig holds Discord connection settings.
type DiscordConfig struct {
	Token   string `yaml:"token" env:"DISCORD_TOKEN"`
	GuildID string `yaml:"guild_id" env:"DISCORD_GUILD_ID"`
}

// RaidConfig tunes the session state machine.
type RaidConfig struct {
	TickPeriodSec  int      `yaml:"tick_period_sec"` // status re-evaluation interval
	RosterCapacity int      `yaml:"roster_capacity"` // enforced join cap
	CapacityLabel  int      `yaml:"capacity_label"`  // display-only roster denominator
	Activities     []string `yaml:"activities"`      // autocomplete suggestions
}

// DigestConfig schedules the optional upcoming-raid digest.
type DigestConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Cron      string `yaml:"cron"`       // 5-field cron expression
	ChannelID string `yaml:"channel_id"` // channel the digest is posted to
}

// StorageConfig holds connection settings for the raid history database.
type StorageConfig struct {
	Driver   string `yaml:"driver"` // "sqlite" (default) or "mysql"
	Path     string `yaml:"path"`   // sqlite file path
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
}

// DashboardConfig controls the HTTP status dashboard.
type DashboardConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// MirrorConfig controls the optional Slack ops mirror.
type MirrorConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Token     string `yaml:"token" env:"SLACK_TOKEN"`
	ChannelID string `yaml:"channel_id"`
}

// Load reads a YAML config file from path and returns a validated Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes, applies environment overrides and defaults,
// and returns a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("config: env: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.Raid.TickPeriodSec == 0 {
		c.Raid.TickPeriodSec = 60
	}
	if c.Raid.RosterCapacity == 0 {
		c.Raid.RosterCapacity = 3
	}
	if c.Raid.CapacityLabel == 0 {
		c.Raid.CapacityLabel = 6
	}
	if len(c.Raid.Activities) == 0 {
		c.Raid.Activities = append([]string(nil), suggest.DefaultActivities...)
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "sqlite"
	}
	if c.Storage.Driver == "sqlite" && c.Storage.Path == "" {
		c.Storage.Path = "fireteam.db"
	}
	if c.Storage.Driver == "mysql" {
		if c.Storage.Host == "" {
			c.Storage.Host = "127.0.0.1"
		}
		if c.Storage.Port == 0 {
			c.Storage.Port = 3306
		}
	}
	if c.Dashboard.Port == 0 {
		c.Dashboard.Port = 8080
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	if c.Discord.Token == "" {
		errs = append(errs, "discord.token is required (or set DISCORD_TOKEN)")
	}
	if c.Discord.GuildID == "" {
		errs = append(errs, "discord.guild_id is required")
	}
	if c.Raid.TickPeriodSec < 0 {
		errs = append(errs, "raid.tick_period_sec must not be negative")
	}
	if c.Raid.RosterCapacity < 0 {
		errs = append(errs, "raid.roster_capacity must not be negative")
	}
	switch c.Storage.Driver {
	case "sqlite", "mysql":
	default:
		errs = append(errs, fmt.Sprintf("storage.driver %q is not supported (sqlite or mysql)", c.Storage.Driver))
	}
	if c.Storage.Driver == "mysql" && c.Storage.Database == "" {
		errs = append(errs, "storage.database is required for mysql")
	}
	if c.Digest.Enabled {
		if c.Digest.Cron == "" {
			errs = append(errs, "digest.cron is required when digest is enabled")
		}
		if c.Digest.ChannelID == "" {
			errs = append(errs, "digest.channel_id is required when digest is enabled")
		}
	}
	if c.Mirror.Enabled {
		if c.Mirror.Token == "" {
			errs = append(errs, "mirror.token is required when mirror is enabled (or set SLACK_TOKEN)")
		}
		if c.Mirror.ChannelID == "" {
			errs = append(errs, "mirror.channel_id is required when mirror is enabled")
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
