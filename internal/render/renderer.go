// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package render paints the backdrop's pixel content: a vertical gradient
// with the current time and weather composited on top. All drawing is done
// in premultiplied ARGB8888 directly on the shared buffer memory.
package render

import (
	"log/slog"

	"github.com/wneessen/backdrop/internal/logger"
)

// Layout constants, expressed as fractions of the canvas size.
const (
	gradientGray     = 0.25
	gradientMaxAlpha = 0.75

	// white text at 0.75 alpha, as an 8 bit alpha value
	textAlphaByte = 191

	timeAnchorX   = 0.42
	timeBaselineY = 0.75
	timeSizeDiv   = 7.0

	tempRightEdgeX = 0.27
	tempBaselineY  = 0.75
	tempSizeDiv    = 10.0

	detailRightEdgeX = 0.27
	detailBaselineY  = 0.45
	detailSizeDiv    = 22.0
)

// Content is the text the renderer lays out on the backdrop. Empty fields
// are skipped.
type Content struct {
	Time        string
	Temperature string
	Detail      string
}

// Renderer draws backdrop frames. Safe for reuse across frames; it holds no
// per-frame state.
type Renderer struct {
	rasterizer TextRasterizer
	log        *logger.Logger
}

// New creates a renderer drawing text through the given rasterizer.
func New(rasterizer TextRasterizer, log *logger.Logger) *Renderer {
	return &Renderer{rasterizer: rasterizer, log: log}
}

// Draw paints a complete frame into pixels, which must hold width*height
// premultiplied ARGB8888 values. The output is a pure function of the
// arguments; drawing the same content twice yields identical bytes.
func (r *Renderer) Draw(pixels []byte, width, height int32, content Content) {
	if int64(len(pixels)) < int64(width)*int64(height)*4 {
		r.log.Error("pixel buffer too small for canvas",
			slog.Int("width", int(width)), slog.Int("height", int(height)),
			slog.Int("bytes", len(pixels)))
		return
	}
	r.fillGradient(pixels, width, height)

	w, h := float64(width), float64(height)
	if content.Time != "" {
		if mask, err := r.rasterizer.Rasterize(content.Time, w/timeSizeDiv); err != nil {
			r.log.Error("failed to rasterize time string", logger.Err(err))
		} else {
			x := int(w * timeAnchorX)
			y := int(h*timeBaselineY) - mask.Baseline
			compositeMask(pixels, width, height, mask, x, y)
		}
	}
	if content.Temperature != "" {
		if mask, err := r.rasterizer.Rasterize(content.Temperature, w/tempSizeDiv); err != nil {
			r.log.Error("failed to rasterize temperature string", logger.Err(err))
		} else {
			x := int(w*tempRightEdgeX) - mask.Width
			y := int(h*tempBaselineY) - mask.Baseline
			compositeMask(pixels, width, height, mask, x, y)
		}
	}
	if content.Detail != "" {
		if mask, err := r.rasterizer.Rasterize(content.Detail, w/detailSizeDiv); err != nil {
			r.log.Error("failed to rasterize detail string", logger.Err(err))
		} else {
			x := int(w*detailRightEdgeX) - mask.Width
			y := int(h*detailBaselineY) - mask.Baseline
			compositeMask(pixels, width, height, mask, x, y)
		}
	}
}

// fillGradient paints the translucent backdrop: a neutral gray fading from
// fully transparent at the top to gradientMaxAlpha at the bottom.
func (r *Renderer) fillGradient(pixels []byte, width, height int32) {
	for y := int32(0); y < height; y++ {
		frac := 0.0
		if height > 1 {
			frac = float64(y) / float64(height-1)
		}
		alpha := uint8(frac*gradientMaxAlpha*255 + 0.5)
		channel := uint8(float64(alpha)*gradientGray + 0.5)
		row := pixels[y*width*4 : (y+1)*width*4]
		for x := int32(0); x < width; x++ {
			// little-endian ARGB8888: B, G, R, A
			row[x*4+0] = channel
			row[x*4+1] = channel
			row[x*4+2] = channel
			row[x*4+3] = alpha
		}
	}
}

// compositeMask blends a white text run over the canvas using source-over
// with premultiplied alpha. Mask regions outside the canvas are clipped.
func compositeMask(pixels []byte, width, height int32, mask *Mask, atX, atY int) {
	for my := 0; my < mask.Height; my++ {
		y := atY + my
		if y < 0 || y >= int(height) {
			continue
		}
		for mx := 0; mx < mask.Width; mx++ {
			x := atX + mx
			if x < 0 || x >= int(width) {
				continue
			}
			coverage := uint32(mask.Coverage[my*mask.Width+mx])
			if coverage == 0 {
				continue
			}
			src := (coverage*textAlphaByte + 127) / 255
			inv := 255 - src
			offset := (y*int(width) + x) * 4
			for i := 0; i < 4; i++ {
				dst := uint32(pixels[offset+i])
				pixels[offset+i] = uint8(src + (dst*inv+127)/255)
			}
		}
	}
}
