// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package render

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// Mask is a rasterized text run: one coverage byte per pixel, row major.
// Baseline is the row the glyphs sit on, measured from the top of the mask.
type Mask struct {
	Coverage []byte
	Width    int
	Height   int
	Baseline int
}

// TextRasterizer renders a string at a pixel size into a coverage mask.
type TextRasterizer interface {
	Rasterize(text string, size float64) (*Mask, error)
}

// FontRasterizer rasterizes text with the embedded Go Regular face. Faces
// are cached per size; the draw loop only ever uses a handful of sizes.
type FontRasterizer struct {
	font  *opentype.Font
	faces map[float64]font.Face
}

// NewFontRasterizer parses the embedded typeface.
func NewFontRasterizer() (*FontRasterizer, error) {
	parsed, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse embedded font: %w", err)
	}
	return &FontRasterizer{font: parsed, faces: make(map[float64]font.Face)}, nil
}

func (r *FontRasterizer) face(size float64) (font.Face, error) {
	size = math.Round(size)
	if size < 1 {
		size = 1
	}
	if face, ok := r.faces[size]; ok {
		return face, nil
	}
	face, err := opentype.NewFace(r.font, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create font face: %w", err)
	}
	r.faces[size] = face
	return face, nil
}

// Rasterize renders text at the given pixel size into a tight coverage mask.
func (r *FontRasterizer) Rasterize(text string, size float64) (*Mask, error) {
	if text == "" {
		return &Mask{}, nil
	}
	face, err := r.face(size)
	if err != nil {
		return nil, err
	}

	bounds, advance := font.BoundString(face, text)
	metrics := face.Metrics()
	width := advance.Ceil()
	if overshoot := bounds.Max.X.Ceil(); overshoot > width {
		width = overshoot
	}
	height := (metrics.Ascent + metrics.Descent).Ceil()
	if width <= 0 || height <= 0 {
		return &Mask{}, nil
	}

	dst := image.NewAlpha(image.Rect(0, 0, width, height))
	drawer := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(color.Alpha{A: 0xff}),
		Face: face,
		Dot:  fixed.Point26_6{X: 0, Y: metrics.Ascent},
	}
	drawer.DrawString(text)

	return &Mask{Coverage: dst.Pix, Width: width, Height: height, Baseline: metrics.Ascent.Ceil()}, nil
}
