// Package config loads the YAML tuning file: the companion's personality
// thresholds and the snapshot store selection. Missing fields fall back to
// defaults field-wise; a missing file is an error the CLI surfaces.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lorabot/lorabot/internal/pet"
)

// Store driver names accepted by Config.Store.Driver.
const (
	DriverNone   = "none"
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
)

// Config is the root of the YAML file.
type Config struct {
	Personality Personality `yaml:"personality"`
	Store       Store       `yaml:"store"`
}

// Personality mirrors pet.Personality in file-friendly units.
type Personality struct {
	FriendBondThreshold int `yaml:"friend_bond_threshold"`
	BoredAfterMins      int `yaml:"bored_after_mins"`
	NightStartHour      int `yaml:"night_start_hour"`
	NightEndHour        int `yaml:"night_end_hour"`
	LowBatteryPercent   int `yaml:"low_battery_percent"`
}

// Store selects and parameterizes the snapshot backend.
type Store struct {
	Driver    string `yaml:"driver"`    // none | sqlite | redis
	Path      string `yaml:"path"`      // sqlite database file
	Addr      string `yaml:"addr"`      // redis address
	Namespace string `yaml:"namespace"` // snapshot namespace key
}

// Default returns the stock configuration: default personality, sqlite
// store in the working directory.
func Default() Config {
	p := pet.DefaultPersonality()
	return Config{
		Personality: Personality{
			FriendBondThreshold: int(p.FriendBondThreshold),
			BoredAfterMins:      int(p.BoredAfter / time.Minute),
			NightStartHour:      p.NightStartHour,
			NightEndHour:        p.NightEndHour,
			LowBatteryPercent:   p.LowBatteryPercent,
		},
		Store: Store{
			Driver:    DriverSQLite,
			Path:      "lorabot.db",
			Namespace: "lorabot",
		},
	}
}

// Load reads and validates the file at path. Zero-valued fields inherit
// their defaults, so a partial file is fine.
func Load(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	def := Default()
	if c.Personality.FriendBondThreshold == 0 {
		c.Personality.FriendBondThreshold = def.Personality.FriendBondThreshold
	}
	if c.Personality.LowBatteryPercent == 0 {
		c.Personality.LowBatteryPercent = def.Personality.LowBatteryPercent
	}
	if c.Store.Driver == "" {
		c.Store.Driver = def.Store.Driver
	}
	if c.Store.Path == "" {
		c.Store.Path = def.Store.Path
	}
	if c.Store.Namespace == "" {
		c.Store.Namespace = def.Store.Namespace
	}
}

// Validate rejects values the engine cannot work with.
func (c Config) Validate() error {
	if c.Personality.NightStartHour < 0 || c.Personality.NightStartHour > 23 {
		return fmt.Errorf("night_start_hour %d out of range 0-23", c.Personality.NightStartHour)
	}
	if c.Personality.NightEndHour < 0 || c.Personality.NightEndHour > 23 {
		return fmt.Errorf("night_end_hour %d out of range 0-23", c.Personality.NightEndHour)
	}
	if c.Personality.FriendBondThreshold < 1 || c.Personality.FriendBondThreshold > 255 {
		return fmt.Errorf("friend_bond_threshold %d out of range 1-255", c.Personality.FriendBondThreshold)
	}
	if c.Personality.BoredAfterMins < 0 {
		return fmt.Errorf("bored_after_mins must not be negative")
	}
	if c.Personality.LowBatteryPercent < 0 || c.Personality.LowBatteryPercent > 100 {
		return fmt.Errorf("low_battery_percent %d out of range 0-100", c.Personality.LowBatteryPercent)
	}
	switch c.Store.Driver {
	case DriverNone, DriverSQLite, DriverRedis:
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	if c.Store.Driver == DriverRedis && c.Store.Addr == "" {
		return fmt.Errorf("store driver redis requires addr")
	}
	return nil
}

// ToPersonality converts the file representation to engine units.
func (c Config) ToPersonality() pet.Personality {
	return pet.Personality{
		FriendBondThreshold: uint8(c.Personality.FriendBondThreshold),
		BoredAfter:          time.Duration(c.Personality.BoredAfterMins) * time.Minute,
		NightStartHour:      c.Personality.NightStartHour,
		NightEndHour:        c.Personality.NightEndHour,
		LowBatteryPercent:   c.Personality.LowBatteryPercent,
	}
}
