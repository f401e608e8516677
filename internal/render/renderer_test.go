// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package render

import (
	"bytes"
	"io"
	"log/slog"
	"testing"

	"github.com/wneessen/backdrop/internal/logger"
)

// fakeRasterizer renders every string as a fully covered rectangle with a
// deterministic size, so tests can predict exactly which pixels change.
type fakeRasterizer struct {
	calls []string
}

func (f *fakeRasterizer) Rasterize(text string, _ float64) (*Mask, error) {
	f.calls = append(f.calls, text)
	width := 8 * len(text)
	height := 10
	coverage := make([]byte, width*height)
	for i := range coverage {
		coverage[i] = 0xff
	}
	return &Mask{Coverage: coverage, Width: width, Height: height, Baseline: 8}, nil
}

func testRenderer(t *testing.T) (*Renderer, *fakeRasterizer) {
	t.Helper()
	rasterizer := &fakeRasterizer{}
	return New(rasterizer, logger.NewLogger(slog.LevelDebug, io.Discard)), rasterizer
}

func pixelAt(pixels []byte, width int32, x, y int) []byte {
	offset := (y*int(width) + x) * 4
	return pixels[offset : offset+4]
}

func TestDraw(t *testing.T) {
	const width, height = 200, 100

	t.Run("gradient should fade from transparent to translucent dark", func(t *testing.T) {
		renderer, _ := testRenderer(t)
		pixels := make([]byte, width*height*4)
		renderer.Draw(pixels, width, height, Content{})

		top := pixelAt(pixels, width, 100, 0)
		if top[3] != 0 {
			t.Errorf("expected fully transparent top row, got alpha %d", top[3])
		}
		bottom := pixelAt(pixels, width, 100, height-1)
		if bottom[3] != 191 {
			t.Errorf("expected bottom alpha 191, got %d", bottom[3])
		}
		if bottom[0] != 48 || bottom[1] != 48 || bottom[2] != 48 {
			t.Errorf("expected premultiplied gray 48 at the bottom, got %v", bottom[:3])
		}
	})
	t.Run("same content should produce identical bytes", func(t *testing.T) {
		renderer, _ := testRenderer(t)
		content := Content{Time: "14:30", Temperature: "21°C", Detail: "Clear sky"}
		first := make([]byte, width*height*4)
		renderer.Draw(first, width, height, content)
		second := make([]byte, width*height*4)
		renderer.Draw(second, width, height, content)
		if !bytes.Equal(first, second) {
			t.Error("expected identical frames for identical content")
		}
	})
	t.Run("time should be composited at its anchor", func(t *testing.T) {
		renderer, _ := testRenderer(t)
		pixels := make([]byte, width*height*4)
		renderer.Draw(pixels, width, height, Content{Time: "14:30"})

		// fake mask: 40x10 at x=0.42*200=84, baseline 0.75*100=75, top 67
		inside := pixelAt(pixels, width, 90, 70)
		background := make([]byte, width*height*4)
		renderer.Draw(background, width, height, Content{})
		plain := pixelAt(background, width, 90, 70)
		if inside[3] <= plain[3] {
			t.Errorf("expected text to brighten the anchor region, alpha %d vs background %d",
				inside[3], plain[3])
		}
		// far corner stays pure gradient
		corner := pixelAt(pixels, width, 5, 5)
		plainCorner := pixelAt(background, width, 5, 5)
		if !bytes.Equal(corner, plainCorner) {
			t.Error("expected untouched background away from the text anchors")
		}
	})
	t.Run("empty weather fields should not be rasterized", func(t *testing.T) {
		renderer, rasterizer := testRenderer(t)
		pixels := make([]byte, width*height*4)
		renderer.Draw(pixels, width, height, Content{Time: "14:30"})
		if len(rasterizer.calls) != 1 || rasterizer.calls[0] != "14:30" {
			t.Errorf("expected only the time to be rasterized, got %v", rasterizer.calls)
		}
	})
	t.Run("temperature should be right-aligned at its anchor", func(t *testing.T) {
		renderer, _ := testRenderer(t)
		withWeather := make([]byte, width*height*4)
		renderer.Draw(withWeather, width, height, Content{Temperature: "21°C"})
		background := make([]byte, width*height*4)
		renderer.Draw(background, width, height, Content{})

		// right edge 0.27*200=54; fake mask is 8*len wide and ends there
		inside := pixelAt(withWeather, width, 50, 70)
		plain := pixelAt(background, width, 50, 70)
		if inside[3] <= plain[3] {
			t.Error("expected temperature text left of its right edge anchor")
		}
		right := pixelAt(withWeather, width, 60, 70)
		plainRight := pixelAt(background, width, 60, 70)
		if !bytes.Equal(right, plainRight) {
			t.Error("expected no text right of the temperature anchor")
		}
	})
	t.Run("undersized pixel buffer should be rejected without panic", func(t *testing.T) {
		renderer, _ := testRenderer(t)
		pixels := make([]byte, 16)
		renderer.Draw(pixels, width, height, Content{Time: "14:30"})
	})
	t.Run("mask overflowing the canvas should be clipped", func(t *testing.T) {
		renderer, _ := testRenderer(t)
		pixels := make([]byte, 32*16*4)
		renderer.Draw(pixels, 32, 16, Content{Time: "a very long time string"})
	})
}

func TestFontRasterizer(t *testing.T) {
	t.Run("text should produce a non-empty coverage mask", func(t *testing.T) {
		rasterizer, err := NewFontRasterizer()
		if err != nil {
			t.Fatalf("failed to create rasterizer: %s", err)
		}
		mask, err := rasterizer.Rasterize("14:30", 24)
		if err != nil {
			t.Fatalf("failed to rasterize: %s", err)
		}
		if mask.Width <= 0 || mask.Height <= 0 {
			t.Fatalf("expected non-empty mask, got %dx%d", mask.Width, mask.Height)
		}
		if mask.Baseline <= 0 || mask.Baseline > mask.Height {
			t.Errorf("expected baseline within the mask, got %d of %d", mask.Baseline, mask.Height)
		}
		covered := false
		for _, c := range mask.Coverage {
			if c > 0 {
				covered = true
				break
			}
		}
		if !covered {
			t.Error("expected some glyph coverage, mask is blank")
		}
	})
	t.Run("repeated rasterization should be deterministic", func(t *testing.T) {
		rasterizer, err := NewFontRasterizer()
		if err != nil {
			t.Fatalf("failed to create rasterizer: %s", err)
		}
		first, err := rasterizer.Rasterize("21°C", 32)
		if err != nil {
			t.Fatalf("failed to rasterize: %s", err)
		}
		second, err := rasterizer.Rasterize("21°C", 32)
		if err != nil {
			t.Fatalf("failed to rasterize: %s", err)
		}
		if !bytes.Equal(first.Coverage, second.Coverage) {
			t.Error("expected identical coverage for identical input")
		}
	})
	t.Run("empty string should yield an empty mask", func(t *testing.T) {
		rasterizer, err := NewFontRasterizer()
		if err != nil {
			t.Fatalf("failed to create rasterizer: %s", err)
		}
		mask, err := rasterizer.Rasterize("", 24)
		if err != nil {
			t.Fatalf("failed to rasterize: %s", err)
		}
		if mask.Width != 0 || mask.Height != 0 {
			t.Errorf("expected empty mask, got %dx%d", mask.Width, mask.Height)
		}
	})
}
