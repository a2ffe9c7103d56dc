// Package config loads the bridge fan settings from flags, the environment
// and an optional YAML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/macdylan/smbridgefan/fix"
)

// EnvPrefix is prepended to every key when read from the environment,
// e.g. SMBRIDGEFAN_LEAD_TIME.
const EnvPrefix = "SMBRIDGEFAN"

// Config is the resolved configuration for one run.
type Config struct {
	LeadTime        float64  `mapstructure:"lead_time"`
	FanSpeed        int      `mapstructure:"fan_speed"`
	DefaultFeedRate float64  `mapstructure:"default_feedrate"`
	Markers         []string `mapstructure:"markers"`
	LogLevel        string   `mapstructure:"log_level"`

	// FanSpeedExplicit is set when fan_speed came from a flag, the
	// environment or the config file rather than the built-in default.
	FanSpeedExplicit bool `mapstructure:"-"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LeadTime: fix.DefaultLeadTime,
		FanSpeed: fix.DefaultFanSpeed,
		Markers:  append([]string(nil), fix.DefaultMarkers...),
		LogLevel: "info",
	}
}

// flagKeys maps command line flags to config keys.
var flagKeys = map[string]string{
	"lead-time":        "lead_time",
	"fan-speed":        "fan_speed",
	"default-feedrate": "default_feedrate",
	"marker":           "markers",
	"log-level":        "log_level",
}

// RegisterFlags adds the configuration flags to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.Float64("lead-time", d.LeadTime, "seconds to start the fan before a bridge")
	fs.Int("fan-speed", d.FanSpeed, "bridge fan speed in percent (0-100), read from the slicer config when not set")
	fs.Float64("default-feedrate", d.DefaultFeedRate, "feed rate in mm/min assumed before the first F word, 0 means unknown")
	fs.StringSlice("marker", d.Markers, "comment that begins a bridge, repeatable")
	fs.String("log-level", d.LogLevel, "log level: "+strings.Join(ValidLogLevels(), ", "))
	fs.StringP("config", "c", "", "YAML config file")
}

// SetDefaults registers default values with v.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("lead_time", d.LeadTime)
	v.SetDefault("fan_speed", d.FanSpeed)
	v.SetDefault("default_feedrate", d.DefaultFeedRate)
	v.SetDefault("markers", d.Markers)
	v.SetDefault("log_level", d.LogLevel)
}

// New returns a viper instance wired to the environment and the flags in fs.
func New(fs *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if fs == nil {
		return v, nil
	}
	for flag, key := range flagKeys {
		f := fs.Lookup(flag)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return nil, fmt.Errorf("bind flag %s: %w", flag, err)
		}
	}
	if f := fs.Lookup("config"); f != nil && f.Value.String() != "" {
		v.SetConfigFile(f.Value.String())
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", f.Value.String(), err)
		}
	}
	return v, nil
}

// Load reads the configuration from v into a Config struct and validates it.
func Load(v *viper.Viper, fs *pflag.FlagSet) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.Markers = trimMarkers(cfg.Markers)
	cfg.FanSpeedExplicit = v.InConfig("fan_speed") || envSet("fan_speed")
	if fs != nil && fs.Changed("fan-speed") {
		cfg.FanSpeedExplicit = true
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}
	return &cfg, nil
}

// BridgeFanOptions converts the configuration for fix.GcodeSpinUpBridgeFan.
func (c *Config) BridgeFanOptions() fix.BridgeFanOptions {
	return fix.BridgeFanOptions{
		LeadTime:        c.LeadTime,
		FanSpeed:        c.FanSpeed,
		Markers:         c.Markers,
		DefaultFeedRate: c.DefaultFeedRate,
	}
}

// IsValidation reports whether err is a configuration validation failure.
func IsValidation(err error) bool {
	var ve ValidationErrors
	return errors.As(err, &ve)
}

// trimMarkers drops surrounding spaces, lines are matched trimmed too.
func trimMarkers(markers []string) []string {
	out := make([]string, 0, len(markers))
	for _, m := range markers {
		if m = strings.TrimSpace(m); m != "" {
			out = append(out, m)
		}
	}
	return out
}

func envSet(key string) bool {
	v, ok := os.LookupEnv(EnvPrefix + "_" + strings.ToUpper(key))
	return ok && v != ""
}
