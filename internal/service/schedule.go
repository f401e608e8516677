// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package service

import "time"

// MinWeatherInterval is the hard floor for the weather polling cadence. It
// is enforced regardless of configuration to respect provider quotas.
const MinWeatherInterval = 30 * time.Minute

// Schedule tracks the due times of the two redraw triggers: the clock tick
// and the weather update. Due times are checked each loop pass with a
// non-blocking time source; the dispatch wait is bounded by the nearest one.
type Schedule struct {
	now             func() time.Time
	clockInterval   time.Duration
	weatherInterval time.Duration
	weatherEnabled  bool
	skipFirstFetch  bool
	nextClock       time.Time
	nextWeather     time.Time
}

// NewSchedule creates a schedule with the clock due after one tick and the
// weather due immediately. The very first weather firing performs no fetch
// (the skip flag is consumed once); the first real fetch happens one
// interval in.
func NewSchedule(clockInterval, weatherInterval time.Duration, weatherEnabled bool,
	now func() time.Time,
) *Schedule {
	if now == nil {
		now = time.Now
	}
	if weatherInterval < MinWeatherInterval {
		weatherInterval = MinWeatherInterval
	}
	start := now()
	return &Schedule{
		now:             now,
		clockInterval:   clockInterval,
		weatherInterval: weatherInterval,
		weatherEnabled:  weatherEnabled,
		skipFirstFetch:  true,
		nextClock:       start.Add(clockInterval),
		nextWeather:     start,
	}
}

// ClockDue reports whether the clock tick is due.
func (s *Schedule) ClockDue() bool {
	return !s.now().Before(s.nextClock)
}

// AdvanceClock schedules the next clock tick one interval from now.
func (s *Schedule) AdvanceClock() {
	s.nextClock = s.now().Add(s.clockInterval)
}

// WeatherDue reports whether a weather update is due. Always false when no
// provider is configured.
func (s *Schedule) WeatherDue() bool {
	return s.weatherEnabled && !s.now().Before(s.nextWeather)
}

// AdvanceWeather schedules the next weather update one effective interval
// from now. Called after every firing, successful or not; failures get no
// backoff and no earlier retry.
func (s *Schedule) AdvanceWeather() {
	s.nextWeather = s.now().Add(s.weatherInterval)
}

// ConsumeSkipFirst returns true exactly once, on the first weather firing.
func (s *Schedule) ConsumeSkipFirst() bool {
	if s.skipFirstFetch {
		s.skipFirstFetch = false
		return true
	}
	return false
}

// MarkWeatherDue makes the weather trigger fire on the next loop pass, used
// after a resume from sleep.
func (s *Schedule) MarkWeatherDue() {
	s.nextWeather = s.now()
}

// NextWait returns how long the loop may block before the nearest trigger
// is due, clamped to zero.
func (s *Schedule) NextWait() time.Duration {
	next := s.nextClock
	if s.weatherEnabled && s.nextWeather.Before(next) {
		next = s.nextWeather
	}
	wait := next.Sub(s.now())
	if wait < 0 {
		return 0
	}
	return wait
}

// WeatherInterval returns the effective, floor-clamped weather interval.
func (s *Schedule) WeatherInterval() time.Duration {
	return s.weatherInterval
}
