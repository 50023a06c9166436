// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package readout shows CO2 concentrations as a coloured bar on a terminal
// using ANSI color codes, or renders them as an image for a display.
package readout

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/GermanBionicSystems/pasco2"
	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
	"periph.io/x/conn/v3/display"
)

// Air quality thresholds.
const (
	Good pasco2.PPM = 1000
	Poor pasco2.PPM = 2000
)

// Level colors.
var (
	Green  = color.NRGBA{0x00, 0xC0, 0x00, 0xFF}
	Yellow = color.NRGBA{0xE0, 0xC0, 0x00, 0xFF}
	Red    = color.NRGBA{0xE0, 0x00, 0x00, 0xFF}
)

// Color returns the color of the air quality level of ppm.
func Color(ppm pasco2.PPM) color.NRGBA {
	switch {
	case ppm < Good:
		return Green
	case ppm < Poor:
		return Yellow
	}
	return Red
}

// Opts represents the options available for a Bar.
type Opts struct {
	// X is the width of the bar in cells. Defaults to 40.
	X int
	// Max is the concentration that fills the bar. Defaults to 5000 ppm.
	Max     pasco2.PPM
	Palette *ansi256.Palette
	// W defaults to stdout.
	W io.Writer

	_ struct{}
}

// Bar is a one line gauge printed on the console.
type Bar struct {
	w       io.Writer
	l       int
	max     pasco2.PPM
	palette ansi256.Palette
	label   string

	pixels []byte
	buf    bytes.Buffer
}

// NewBar returns a Bar that displays at the console. opts may be nil.
func NewBar(opts *Opts) *Bar {
	var o Opts
	if opts != nil {
		o = *opts
	}
	if o.X <= 0 {
		o.X = 40
	}
	if o.Max <= 0 {
		o.Max = 5000
	}
	p := o.Palette
	if p == nil {
		p = ansi256.Default
	}
	w := o.W
	if w == nil {
		w = colorable.NewColorableStdout()
	}
	return &Bar{
		w:       w,
		l:       o.X,
		max:     o.Max,
		palette: *p,
		pixels:  make([]byte, 3*o.X),
	}
}

func (b *Bar) String() string {
	return "readout.Bar"
}

// Halt implements conn.Resource.
//
// It resets the terminal colors.
func (b *Bar) Halt() error {
	_, err := b.w.Write([]byte("\n\033[0m"))
	return err
}

// Show fills the bar proportionally to ppm, in the color of its level,
// followed by the value.
func (b *Bar) Show(ppm pasco2.PPM) error {
	n := 0
	if ppm > 0 {
		n = int(int64(ppm) * int64(b.l) / int64(b.max))
	}
	if n > b.l {
		n = b.l
	}
	c := Color(ppm)
	for i := 0; i < b.l; i++ {
		if i < n {
			b.pixels[3*i], b.pixels[3*i+1], b.pixels[3*i+2] = c.R, c.G, c.B
		} else {
			b.pixels[3*i], b.pixels[3*i+1], b.pixels[3*i+2] = 0, 0, 0
		}
	}
	b.label = ppm.String()
	_, err := b.refresh()
	return err
}

// ColorModel implements display.Drawer.
func (b *Bar) ColorModel() color.Model {
	return color.NRGBAModel
}

// Bounds implements display.Drawer.
func (b *Bar) Bounds() image.Rectangle {
	return image.Rectangle{Max: image.Point{X: b.l, Y: 1}}
}

// Draw implements display.Drawer. Only the first line of src is used.
func (b *Bar) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	r = r.Intersect(b.Bounds())
	srcR := src.Bounds()
	srcR.Min = srcR.Min.Add(sp)
	if dX := r.Dx(); dX < srcR.Dx() {
		srcR.Max.X = srcR.Min.X + dX
	}
	deltaX3 := 3 * (r.Min.X - srcR.Min.X)
	for sX := srcR.Min.X; sX < srcR.Max.X; sX++ {
		r16, g16, b16, _ := src.At(sX, srcR.Min.Y).RGBA()
		dX3 := 3*sX + deltaX3
		b.pixels[dX3] = byte(r16 >> 8)
		b.pixels[dX3+1] = byte(g16 >> 8)
		b.pixels[dX3+2] = byte(b16 >> 8)
	}
	b.label = ""
	_, err := b.refresh()
	return err
}

func (b *Bar) refresh() (int, error) {
	b.buf.Reset()
	_, _ = b.buf.WriteString("\r\033[0m")
	for i := 0; i < len(b.pixels)/3; i++ {
		c := color.NRGBA{b.pixels[3*i], b.pixels[3*i+1], b.pixels[3*i+2], 255}
		_, _ = io.WriteString(&b.buf, b.palette.Block(c))
	}
	_, _ = b.buf.WriteString("\033[0m ")
	if b.label != "" {
		// Pad so a shorter label hides the previous one.
		_, _ = fmt.Fprintf(&b.buf, "%-12s", b.label)
	}
	_, err := b.buf.WriteTo(b.w)
	return len(b.pixels), err
}

var _ display.Drawer = &Bar{}
var _ fmt.Stringer = &Bar{}
