// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package openmeteo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hectormalot/omgo"

	"github.com/wneessen/backdrop/internal/logger"
	"github.com/wneessen/backdrop/internal/weather"
)

const (
	name       = "open-meteo"
	apiTimeout = time.Second * 10
)

// OpenMeteo retrieves current weather observations from the Open-Meteo API.
// Open-Meteo requires no API key but resolves coordinates instead of a
// location name.
type OpenMeteo struct {
	client omgo.Client
	coords weather.Coordinate
	unit   string
	log    *logger.Logger
}

// New returns a new OpenMeteo provider for the given coordinates.
func New(log *logger.Logger, coords weather.Coordinate, unit string) (*OpenMeteo, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is required")
	}
	client, err := omgo.NewClient()
	if err != nil {
		return nil, fmt.Errorf("failed to create Open-Meteo client: %w", err)
	}

	return &OpenMeteo{client: client, coords: coords, unit: unit, log: log}, nil
}

// Name returns the provider's name.
func (o *OpenMeteo) Name() string {
	return name
}

// Current retrieves the current weather observation for the configured coordinates.
func (o *OpenMeteo) Current(ctx context.Context) (*weather.Reading, error) {
	loc, err := omgo.NewLocation(o.coords.Lat, o.coords.Lon)
	if err != nil {
		return nil, fmt.Errorf("failed to create Open-Meteo location from coordinates: %w", err)
	}

	opts := &omgo.Options{
		Timezone:      "auto",
		HourlyMetrics: []string{"temperature_2m", "weather_code"},
	}
	suffix := "°C"
	if strings.ToLower(o.unit) == "imperial" {
		opts.TemperatureUnit = "fahrenheit"
		opts.WindspeedUnit = "mph"
		opts.PrecipitationUnit = "inch"
		suffix = "°F"
	}

	ctxFetch, cancel := context.WithTimeout(ctx, apiTimeout)
	defer cancel()
	forecast, err := o.client.Forecast(ctxFetch, loc, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve weather data from Open-Meteo API: %w", err)
	}

	code := int(forecast.CurrentWeather.WeatherCode)
	condition, ok := wmoConditions[code]
	if !ok {
		return nil, fmt.Errorf("%w: unknown WMO weather code %d", weather.ErrMalformed, code)
	}
	if unit, ok := forecast.HourlyUnits["temperature_2m"]; ok && unit != "" {
		suffix = unit
	}

	return &weather.Reading{
		Temperature: forecast.CurrentWeather.Temperature,
		Unit:        suffix,
		Condition:   condition,
		Coordinates: weather.Coordinate{Lat: forecast.Latitude, Lon: forecast.Longitude},
		FetchedAt:   time.Now(),
	}, nil
}
