// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package service

import (
	"fmt"
	"time"

	"github.com/nathan-osman/go-sunrise"
	"github.com/wneessen/go-moonphase"

	"github.com/wneessen/backdrop/internal/render"
	"github.com/wneessen/backdrop/internal/weather"
)

// displayContent composes the frame text for the given wall-clock time: the
// formatted clock, and, when a reading is cached, the truncated temperature
// plus a localized detail line (condition, moon phase at night).
func (s *Service) displayContent(now time.Time) render.Content {
	content := render.Content{Time: now.Format(s.config.Clock.Format)}

	reading, ok := s.cache.Current()
	if !ok {
		return content
	}
	content.Temperature = fmt.Sprintf("%d%s", int(reading.Temperature), reading.Unit)
	content.Detail = s.localizer.Get(reading.Condition)
	if !s.isDaytime(reading, now) {
		moon := moonphase.New(now)
		content.Detail = fmt.Sprintf("%s, %s", content.Detail, s.localizer.Get(moon.PhaseName()))
	}
	return content
}

// isDaytime computes day or night from the reading's coordinates, falling
// back to the configured ones.
func (s *Service) isDaytime(reading weather.Reading, now time.Time) bool {
	lat, lon := reading.Coordinates.Lat, reading.Coordinates.Lon
	if lat == 0 && lon == 0 {
		lat, lon = s.config.Coordinates.Latitude, s.config.Coordinates.Longitude
	}
	if lat == 0 && lon == 0 {
		return true
	}
	rise, set := sunrise.SunriseSunset(lat, lon, now.Year(), now.Month(), now.Day())
	return now.After(rise) && now.Before(set)
}
