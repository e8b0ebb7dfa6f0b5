// Package bridgecfg loads the coordinator's enabled-adapter and
// per-protocol connection settings, grounded on tphakala-birdnet-go's
// internal/config viper setup (the teacher's own internal/config is a
// JSON document store for persisted app state, not a YAML+env+hot-reload
// settings loader, so this package follows the other corpus repo that
// actually does what spec.md §4.4's reconfiguration story needs).
package bridgecfg

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/spf13/viper"
)

// envPrefix is this bridge's own environment variable prefix,
// independent of any host process's environment — spec.md's first Open
// Question resolved in SPEC_FULL.md §10.
const envPrefix = "HIFICTL"

// AdapterConfig is one protocol adapter's connection settings. Not every
// field applies to every adapter: cmd/hifictl passes Host to the DSP
// adapter and Host/Port to the LMS and Roon adapters; the autodiscovered
// UPnP/OpenHome adapters read neither. DiscoveryWindowS is loaded but no
// adapter reads it.
type AdapterConfig struct {
	Host             string  `mapstructure:"host"`
	Port             int     `mapstructure:"port"`
	DiscoveryWindowS float64 `mapstructure:"discovery_window_s"`
}

// Config is the bridge's full runtime configuration.
type Config struct {
	// Enabled lists the adapter prefixes the coordinator should start
	// (spec.md §4.4). Order does not matter; unknown prefixes are
	// logged and skipped by the coordinator itself, not rejected here.
	Enabled []string `mapstructure:"enabled"`

	// HTTPAddr is the listen address for internal/httpapi, e.g. ":8080".
	HTTPAddr string `mapstructure:"http_addr"`

	HQP      AdapterConfig `mapstructure:"hqp"`
	LMS      AdapterConfig `mapstructure:"lms"`
	Roon     AdapterConfig `mapstructure:"roon"`
	UPnP     AdapterConfig `mapstructure:"upnp"`
	OpenHome AdapterConfig `mapstructure:"openhome"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("enabled", []string{})
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("hqp.port", 4321)
	v.SetDefault("lms.port", 9000)
	v.SetDefault("roon.discovery_window_s", 3)
	v.SetDefault("upnp.discovery_window_s", 3)
	v.SetDefault("openhome.discovery_window_s", 3)
}

// Load reads configPath (a YAML file) if it exists, overlays
// HIFICTL_-prefixed environment variables, and unmarshals the result
// into a Config. A missing file is not an error — defaults plus
// environment overrides are a valid configuration on their own,
// matching the teacher's "config file optional, env always works" model.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("bridgecfg: read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("bridgecfg: unmarshal config: %w", err)
	}
	return &cfg, nil
}
