// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package weather defines the weather reading model, the provider interface
// and the cache holding the last good reading.
package weather

import (
	"context"
	"errors"
	"time"
)

// Typed fetch failures. All of them are non-fatal: the caller logs the error,
// keeps the previous reading and proceeds with the next scheduled attempt.
var (
	// ErrAuth indicates the provider rejected the configured credentials.
	ErrAuth = errors.New("weather provider rejected credentials")
	// ErrRateLimited indicates the provider's request quota is exhausted.
	ErrRateLimited = errors.New("weather provider rate limit exceeded")
	// ErrMalformed indicates the provider returned an undecodable or
	// unexpected response.
	ErrMalformed = errors.New("weather provider returned a malformed response")
)

// Provider is implemented by each weather API backend.
type Provider interface {
	Name() string
	Current(ctx context.Context) (*Reading, error)
}

// Coordinate is a geographical position in decimal degrees.
type Coordinate struct {
	Lat float64
	Lon float64
}

// Reading is a single weather observation. A Reading is immutable once
// created and replaced wholesale on the next successful fetch.
type Reading struct {
	// Temperature in the unit indicated by Unit
	Temperature float64
	// Unit is the display unit suffix ("°C" or "°F")
	Unit string
	// Condition is a short summary of the current weather ("Clear sky")
	Condition string
	// Icon is the provider's icon code for the condition ("10n")
	Icon string
	// Coordinates of the place the reading was taken for
	Coordinates Coordinate
	// FetchedAt is the local time the reading was retrieved
	FetchedAt time.Time
}
