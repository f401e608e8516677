// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package service

import (
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/wneessen/backdrop/internal/config"
	"github.com/wneessen/backdrop/internal/i18n"
	"github.com/wneessen/backdrop/internal/logger"
	"github.com/wneessen/backdrop/internal/weather"
)

func testDisplayService(t *testing.T, locale string) *Service {
	t.Helper()
	conf := &config.Config{Units: "metric"}
	conf.Clock.Format = "3:04:05"
	localizer, err := i18n.New(locale)
	if err != nil {
		t.Fatalf("failed to create localizer: %s", err)
	}
	return &Service{
		config:    conf,
		logger:    logger.NewLogger(slog.LevelDebug, io.Discard),
		localizer: localizer,
		cache:     &weather.Cache{},
	}
}

func TestDisplayContent(t *testing.T) {
	noon := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	night := time.Date(2024, 6, 15, 23, 30, 0, 0, time.UTC)
	frankfurt := weather.Coordinate{Lat: 50.11, Lon: 8.68}

	t.Run("without a reading only the clock should be shown", func(t *testing.T) {
		service := testDisplayService(t, "en")
		content := service.displayContent(noon)
		if content.Time != "12:00:00" {
			t.Errorf("expected clock 12:00:00, got %q", content.Time)
		}
		if content.Temperature != "" || content.Detail != "" {
			t.Errorf("expected empty weather fields, got %q / %q", content.Temperature, content.Detail)
		}
	})
	t.Run("temperature should be truncated to a whole degree", func(t *testing.T) {
		service := testDisplayService(t, "en")
		service.cache.Store(weather.Reading{Temperature: 21.7, Unit: "°C", Condition: "Clear sky",
			Coordinates: frankfurt})
		content := service.displayContent(noon)
		if content.Temperature != "21°C" {
			t.Errorf("expected 21°C, got %q", content.Temperature)
		}
	})
	t.Run("negative temperature should truncate towards zero", func(t *testing.T) {
		service := testDisplayService(t, "en")
		service.cache.Store(weather.Reading{Temperature: -3.8, Unit: "°F", Condition: "Clear sky",
			Coordinates: frankfurt})
		content := service.displayContent(noon)
		if content.Temperature != "-3°F" {
			t.Errorf("expected -3°F, got %q", content.Temperature)
		}
	})
	t.Run("daytime detail should be the condition only", func(t *testing.T) {
		service := testDisplayService(t, "en")
		service.cache.Store(weather.Reading{Temperature: 21, Unit: "°C", Condition: "Clear sky",
			Coordinates: frankfurt})
		content := service.displayContent(noon)
		if content.Detail != "Clear sky" {
			t.Errorf("expected condition only, got %q", content.Detail)
		}
	})
	t.Run("night detail should append the moon phase", func(t *testing.T) {
		service := testDisplayService(t, "en")
		service.cache.Store(weather.Reading{Temperature: 14, Unit: "°C", Condition: "Clear sky",
			Coordinates: frankfurt})
		content := service.displayContent(night)
		if !strings.HasPrefix(content.Detail, "Clear sky, ") {
			t.Fatalf("expected condition with moon phase appended, got %q", content.Detail)
		}
		if len(content.Detail) <= len("Clear sky, ") {
			t.Errorf("expected a non-empty moon phase, got %q", content.Detail)
		}
	})
	t.Run("condition should be localized", func(t *testing.T) {
		service := testDisplayService(t, "de")
		service.cache.Store(weather.Reading{Temperature: 21, Unit: "°C", Condition: "Clear sky",
			Coordinates: frankfurt})
		content := service.displayContent(noon)
		if content.Detail != "Klarer Himmel" {
			t.Errorf("expected localized condition, got %q", content.Detail)
		}
	})
	t.Run("missing coordinates should default to daytime", func(t *testing.T) {
		service := testDisplayService(t, "en")
		service.cache.Store(weather.Reading{Temperature: 21, Unit: "°C", Condition: "Clear sky"})
		content := service.displayContent(night)
		if strings.Contains(content.Detail, ",") {
			t.Errorf("expected no moon phase without coordinates, got %q", content.Detail)
		}
	})
}
