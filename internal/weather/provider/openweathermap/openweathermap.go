// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package openweathermap

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/wneessen/backdrop/internal/http"
	"github.com/wneessen/backdrop/internal/logger"
	"github.com/wneessen/backdrop/internal/weather"
)

const (
	name        = "openweathermap"
	apiEndpoint = "https://api.openweathermap.org/data/2.5/weather"
	apiTimeout  = time.Second * 10
)

// OpenWeatherMap retrieves current weather observations from the
// OpenWeatherMap API using a location name and an API key.
type OpenWeatherMap struct {
	apikey   string
	location string
	unit     string
	log      *logger.Logger
	http     *http.Client
}

type response struct {
	Coord struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"coord"`
	Weather []struct {
		ID          int    `json:"id"`
		Main        string `json:"main"`
		Description string `json:"description"`
		Icon        string `json:"icon"`
	} `json:"weather"`
	Main struct {
		Temperature float64 `json:"temp"`
		FeelsLike   float64 `json:"feels_like"`
		Humidity    int     `json:"humidity"`
		Pressure    float64 `json:"pressure"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
		Deg   float64 `json:"deg"`
	} `json:"wind"`
	Name string `json:"name"`
}

// New returns a new OpenWeatherMap provider.
func New(http *http.Client, log *logger.Logger, apikey, location, unit string) (*OpenWeatherMap, error) {
	if http == nil {
		return nil, fmt.Errorf("http client is required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if apikey == "" {
		return nil, fmt.Errorf("api key is required")
	}
	if location == "" {
		return nil, fmt.Errorf("location is required")
	}

	return &OpenWeatherMap{apikey: apikey, location: location, unit: unit, http: http, log: log}, nil
}

// Name returns the provider's name.
func (o *OpenWeatherMap) Name() string {
	return name
}

// Current retrieves the current weather observation for the configured location.
func (o *OpenWeatherMap) Current(ctx context.Context) (*weather.Reading, error) {
	res := new(response)

	units := "metric"
	suffix := "°C"
	if strings.ToLower(o.unit) == "imperial" {
		units = "imperial"
		suffix = "°F"
	}

	query := url.Values{}
	query.Set("q", o.location)
	query.Set("units", units)
	query.Set("appid", o.apikey)

	code, err := o.http.GetWithTimeout(ctx, apiEndpoint, res, query, nil, apiTimeout)
	switch {
	case err != nil && code == 0:
		return nil, fmt.Errorf("failed to retrieve weather data from OpenWeatherMap API: %w", err)
	case err != nil:
		return nil, fmt.Errorf("%w: %s", weather.ErrMalformed, err)
	case code == 401 || code == 403:
		return nil, fmt.Errorf("%w: status code %d", weather.ErrAuth, code)
	case code == 429:
		return nil, fmt.Errorf("%w: status code %d", weather.ErrRateLimited, code)
	case code != 200:
		return nil, fmt.Errorf("%w: unexpected status code %d", weather.ErrMalformed, code)
	}
	if len(res.Weather) == 0 {
		return nil, fmt.Errorf("%w: no weather condition in response", weather.ErrMalformed)
	}

	return &weather.Reading{
		Temperature: res.Main.Temperature,
		Unit:        suffix,
		Condition:   res.Weather[0].Description,
		Icon:        res.Weather[0].Icon,
		Coordinates: weather.Coordinate{Lat: res.Coord.Lat, Lon: res.Coord.Lon},
		FetchedAt:   time.Now(),
	}, nil
}
