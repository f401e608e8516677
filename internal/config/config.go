// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/kkyr/fig"
)

const configEnv = "BACKDROP"

// Weather provider backends selectable via the "provider" setting. An empty
// provider after validation means weather updates are disabled and the
// backdrop only renders the clock.
const (
	ProviderOpenWeatherMap = "openweathermap"
	ProviderOpenMeteo      = "openmeteo"
)

// Config represents the application's configuration structure.
type Config struct {
	// Location is the place name the weather provider resolves (e. g. "Colorado Springs")
	Location string `fig:"location"`
	// APIKey is the OpenWeatherMap API key
	APIKey string `fig:"apikey"`
	// Allowed values: metric, imperial
	Units string `fig:"units" default:"metric"`
	// Allowed values: openweathermap, openmeteo (default is derived from the API key)
	Provider string     `fig:"provider"`
	Locale   string     `fig:"locale"`
	LogLevel slog.Level `fig:"loglevel" default:"0"`

	// Coordinates are used by the Open-Meteo provider and for sunrise/sunset
	// calculation before the first weather fetch returned a location.
	Coordinates struct {
		Latitude  float64 `fig:"latitude"`
		Longitude float64 `fig:"longitude"`
	} `fig:"coordinates"`

	Clock struct {
		// Format is a Go time layout string for the on-screen clock
		Format string `fig:"format" default:"3:04:05"`
	} `fig:"clock"`

	Intervals struct {
		WeatherUpdate time.Duration `fig:"weather_update" default:"30m"`
		Clock         time.Duration `fig:"clock" default:"1s"`
	} `fig:"intervals"`
}

// NewFromFile reads the Config from the given file path.
func NewFromFile(path, file string) (*Config, error) {
	conf := new(Config)
	_, err := os.Stat(filepath.Join(path, file))
	if err != nil {
		return conf, fmt.Errorf("failed to read Config: %w", err)
	}
	if err = fig.Load(conf, fig.Dirs(path), fig.File(file), fig.UseEnv(configEnv)); err != nil {
		return conf, fmt.Errorf("failed to load Config: %w", err)
	}

	return conf, conf.Validate()
}

// New returns a Config built from defaults and environment overrides only.
func New() (*Config, error) {
	conf := new(Config)
	if err := fig.Load(conf, fig.AllowNoFile(), fig.UseEnv(configEnv)); err != nil {
		return conf, fmt.Errorf("failed to load Config: %w", err)
	}

	return conf, conf.Validate()
}

// Validate checks the Config for consistency and fills derived defaults.
func (c *Config) Validate() error {
	if c.Units != "metric" && c.Units != "imperial" {
		return fmt.Errorf("invalid units: %s", c.Units)
	}
	if c.Provider == "" {
		switch {
		case c.APIKey != "":
			c.Provider = ProviderOpenWeatherMap
		case c.Coordinates.Latitude != 0 || c.Coordinates.Longitude != 0:
			c.Provider = ProviderOpenMeteo
		}
	}
	switch c.Provider {
	case "": // weather updates disabled, clock only
	case ProviderOpenWeatherMap:
		if c.APIKey == "" {
			return fmt.Errorf("provider %s requires an API key", c.Provider)
		}
		if c.Location == "" {
			return fmt.Errorf("provider %s requires a location", c.Provider)
		}
	case ProviderOpenMeteo:
		if c.Coordinates.Latitude == 0 && c.Coordinates.Longitude == 0 {
			return fmt.Errorf("provider %s requires coordinates", c.Provider)
		}
	default:
		return fmt.Errorf("invalid weather provider: %s", c.Provider)
	}
	if c.Clock.Format == "" {
		c.Clock.Format = "3:04:05"
	}
	if c.Intervals.Clock <= 0 {
		return fmt.Errorf("invalid clock interval: %s", c.Intervals.Clock)
	}
	if c.Intervals.WeatherUpdate <= 0 {
		return fmt.Errorf("invalid weather update interval: %s", c.Intervals.WeatherUpdate)
	}

	return nil
}

// WeatherEnabled returns true if a weather provider has been configured.
func (c *Config) WeatherEnabled() bool {
	return c.Provider != ""
}
