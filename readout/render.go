// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package readout

import (
	"errors"
	"image"
	"image/color"
	"sync"

	"github.com/GermanBionicSystems/pasco2"
	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/goregular"
)

var (
	fontOnce sync.Once
	goFont   *truetype.Font
	fontErr  error
)

func regular() (*truetype.Font, error) {
	fontOnce.Do(func() {
		goFont, fontErr = truetype.Parse(goregular.TTF)
	})
	return goFont, fontErr
}

// Render draws ppm in black on white, above a strip in the color of its
// level, in an image the size of r. The image origin is (0, 0).
//
// Send the result to a display with its Draw method.
func Render(r image.Rectangle, ppm pasco2.PPM) (image.Image, error) {
	w, h := r.Dx(), r.Dy()
	if w <= 0 || h <= 0 {
		return nil, errors.New("readout: empty rectangle")
	}
	f, err := regular()
	if err != nil {
		return nil, err
	}
	strip := h / 8
	if strip == 0 {
		strip = 1
	}

	dc := gg.NewContext(w, h)
	dc.SetColor(color.White)
	dc.Clear()

	dc.SetColor(Color(ppm))
	dc.DrawRectangle(0, float64(h-strip), float64(w), float64(strip))
	dc.Fill()

	face := truetype.NewFace(f, &truetype.Options{Size: float64(h-strip) / 2})
	defer face.Close()
	dc.SetFontFace(face)
	dc.SetColor(color.Black)
	dc.DrawStringAnchored(ppm.String(), float64(w)/2, float64(h-strip)/2, 0.5, 0.5)
	return dc.Image(), nil
}
