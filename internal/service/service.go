// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package service runs the backdrop: it owns the compositor session, the
// surface life cycle and the two redraw triggers (clock tick and weather
// update). Everything touching protocol state runs on the single loop
// thread; background goroutines only nudge the loop via an atomic flag and
// the session wakeup.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/vorlif/spreak"

	"github.com/wneessen/backdrop/internal/config"
	"github.com/wneessen/backdrop/internal/http"
	"github.com/wneessen/backdrop/internal/i18n"
	"github.com/wneessen/backdrop/internal/logger"
	"github.com/wneessen/backdrop/internal/render"
	"github.com/wneessen/backdrop/internal/surface"
	"github.com/wneessen/backdrop/internal/wayland"
	"github.com/wneessen/backdrop/internal/weather"
	"github.com/wneessen/backdrop/internal/weather/provider/openmeteo"
	"github.com/wneessen/backdrop/internal/weather/provider/openweathermap"
)

// Namespace identifies the layer surface to the compositor.
const Namespace = "backdrop"

const anchorAll = wayland.AnchorTop | wayland.AnchorBottom | wayland.AnchorLeft | wayland.AnchorRight

type Service struct {
	config    *config.Config
	logger    *logger.Logger
	localizer *spreak.Localizer
	renderer  *render.Renderer
	provider  weather.Provider
	cache     *weather.Cache
	schedule  *Schedule

	session    *wayland.Session
	controller *surface.Controller

	resumePending atomic.Bool
}

func New(conf *config.Config, log *logger.Logger) (*Service, error) {
	localizer, err := i18n.New(conf.Locale)
	if err != nil {
		return nil, fmt.Errorf("failed to create localizer: %w", err)
	}

	rasterizer, err := render.NewFontRasterizer()
	if err != nil {
		return nil, fmt.Errorf("failed to create text rasterizer: %w", err)
	}

	service := &Service{
		config:    conf,
		logger:    log,
		localizer: localizer,
		renderer:  render.New(rasterizer, log),
		cache:     &weather.Cache{},
	}
	if service.provider, err = newProvider(conf, log); err != nil {
		return nil, err
	}
	return service, nil
}

// newProvider builds the configured weather backend. A nil provider means
// weather updates are disabled and the backdrop only renders the clock.
func newProvider(conf *config.Config, log *logger.Logger) (weather.Provider, error) {
	switch conf.Provider {
	case config.ProviderOpenWeatherMap:
		provider, err := openweathermap.New(http.New(log), log, conf.APIKey, conf.Location, conf.Units)
		if err != nil {
			return nil, fmt.Errorf("failed to create OpenWeatherMap provider: %w", err)
		}
		return provider, nil
	case config.ProviderOpenMeteo:
		coords := weather.Coordinate{
			Lat: conf.Coordinates.Latitude,
			Lon: conf.Coordinates.Longitude,
		}
		provider, err := openmeteo.New(log, coords, conf.Units)
		if err != nil {
			return nil, fmt.Errorf("failed to create Open-Meteo provider: %w", err)
		}
		return provider, nil
	default:
		return nil, nil
	}
}

// Run connects to the compositor, sets up the background layer surface and
// drives the redraw loop until the context is cancelled, the compositor
// closes the surface, or the connection fails.
func (s *Service) Run(ctx context.Context) error {
	session, err := wayland.Connect(s.logger)
	if err != nil {
		return err
	}
	s.session = session
	defer func() {
		if err := session.Close(); err != nil {
			s.logger.Error("failed to close compositor session", logger.Err(err))
		}
	}()

	if err = s.setupSurface(); err != nil {
		return err
	}
	defer s.controller.Close()

	// Unblock the dispatch wait when the context is cancelled.
	go func() {
		<-ctx.Done()
		session.Wake()
	}()
	go s.monitorSleepResume(ctx)

	s.schedule = NewSchedule(s.config.Intervals.Clock, s.config.Intervals.WeatherUpdate,
		s.provider != nil, nil)
	if s.provider != nil {
		s.logger.Debug("weather updates enabled", slog.String("provider", s.provider.Name()),
			slog.Duration("interval", s.schedule.WeatherInterval()))
	}

	return s.loop(ctx)
}

func (s *Service) setupSurface() error {
	wlSurface, err := s.session.CreateSurface()
	if err != nil {
		return err
	}
	layerSurface, err := s.session.CreateLayerSurface(wlSurface, wayland.LayerBackground, Namespace)
	if err != nil {
		return err
	}

	fallbackWidth, fallbackHeight := int32(1920), int32(1080)
	scale := int32(1)
	if output := s.session.Output(); output != nil && output.Ready() {
		fallbackWidth, fallbackHeight = output.LogicalSize()
		scale = output.Scale()
	}

	allocator := &bufferAllocator{session: s.session}
	pool := surface.NewPool(allocator, 0, 0)
	s.controller = surface.NewController(&surfaceCanvas{surface: wlSurface}, layerSurface, pool,
		fallbackWidth, fallbackHeight, scale, s.paint, s.logger)
	allocator.onRelease = s.controller.HandleRelease
	layerSurface.SetListener(&layerEvents{service: s})

	return s.controller.Init(anchorAll)
}

func (s *Service) loop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("shutting down")
			return nil
		default:
		}
		if s.controller.State() == surface.StateDestroyed {
			s.logger.Info("layer surface closed by compositor")
			return nil
		}

		if s.resumePending.Swap(false) {
			s.schedule.MarkWeatherDue()
		}
		if s.schedule.WeatherDue() {
			s.schedule.AdvanceWeather()
			if s.schedule.ConsumeSkipFirst() {
				s.logger.Debug("skipping initial weather fetch",
					slog.Duration("next", s.schedule.WeatherInterval()))
			} else {
				s.refreshWeather(ctx)
			}
		}
		if s.schedule.ClockDue() {
			s.schedule.AdvanceClock()
			if err := s.redraw(); err != nil {
				return err
			}
		}

		if err := s.session.DispatchBlocking(s.schedule.NextWait()); err != nil {
			return err
		}
	}
}

// redraw paints and commits a frame. A missed frame (no free buffer, or the
// first configure still pending) is skipped; the next trigger retries.
func (s *Service) redraw() error {
	err := s.controller.Redraw()
	switch {
	case err == nil:
		return nil
	case errors.Is(err, surface.ErrOutOfBuffers):
		s.logger.Debug("skipping frame, all buffers pending release")
		return nil
	case errors.Is(err, surface.ErrInvalidState):
		s.logger.Debug("skipping frame, surface not ready", logger.Err(err))
		return nil
	default:
		return fmt.Errorf("failed to redraw backdrop: %w", err)
	}
}

// paint fills a buffer with the current frame content.
func (s *Service) paint(pixels []byte, width, height int32) {
	s.renderer.Draw(pixels, width, height, s.displayContent(time.Now()))
}
