// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package openmeteo

import (
	"log/slog"
	"testing"

	"github.com/wneessen/backdrop/internal/logger"
	"github.com/wneessen/backdrop/internal/weather"
)

func TestNew(t *testing.T) {
	t.Run("new provider succeeds", func(t *testing.T) {
		var provider weather.Provider
		var err error
		provider, err = New(logger.New(slog.LevelError), weather.Coordinate{Lat: 50.95, Lon: 6.92}, "metric")
		if err != nil {
			t.Fatalf("failed to create provider: %s", err)
		}
		if provider.Name() != "open-meteo" {
			t.Errorf("expected provider name to be open-meteo, got %s", provider.Name())
		}
	})
	t.Run("new provider without logger fails", func(t *testing.T) {
		if _, err := New(nil, weather.Coordinate{}, "metric"); err == nil {
			t.Error("expected provider creation to fail, but didn't")
		}
	})
}

func TestWMOConditions(t *testing.T) {
	t.Run("all mapped conditions are non-empty", func(t *testing.T) {
		for code, condition := range wmoConditions {
			if condition == "" {
				t.Errorf("expected WMO code %d to map to a non-empty condition", code)
			}
		}
	})
	t.Run("common codes are covered", func(t *testing.T) {
		for _, code := range []int{0, 1, 2, 3, 45, 61, 71, 95} {
			if _, ok := wmoConditions[code]; !ok {
				t.Errorf("expected WMO code %d to be mapped", code)
			}
		}
	})
}
