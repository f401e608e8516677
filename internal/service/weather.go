// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/wneessen/backdrop/internal/logger"
	"github.com/wneessen/backdrop/internal/weather"
)

// FetchTimeout bounds a single provider request. It must stay well below
// the clock interval so a hanging fetch cannot starve time redraws for long.
const FetchTimeout = time.Second * 10

// refreshWeather fetches a fresh reading and redraws on success. Failures
// keep the previous reading on screen; the next attempt happens one
// effective interval later, with no backoff.
func (s *Service) refreshWeather(ctx context.Context) {
	ctxFetch, cancelFetch := context.WithTimeout(ctx, FetchTimeout)
	defer cancelFetch()

	reading, err := s.provider.Current(ctxFetch)
	if err != nil {
		switch {
		case errors.Is(err, weather.ErrAuth):
			s.logger.Error("weather provider rejected the credentials", logger.Err(err))
		case errors.Is(err, weather.ErrRateLimited):
			s.logger.Warn("weather provider rate limit hit", logger.Err(err))
		case errors.Is(err, weather.ErrMalformed):
			s.logger.Error("weather provider returned unusable data", logger.Err(err))
		default:
			s.logger.Error("failed to fetch weather data", logger.Err(err))
		}
		return
	}

	s.cache.Store(*reading)
	s.logger.Debug("weather data updated", slog.String("provider", s.provider.Name()),
		slog.Float64("temperature", reading.Temperature), slog.String("condition", reading.Condition))
	if err = s.redraw(); err != nil {
		s.logger.Error("failed to redraw after weather update", logger.Err(err))
	}
}
