// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package gauge shows DHT11 readings on a terminal, as two 1D bars drawn
// with ANSI color codes, or as a picture.
//
// Strip is a 1D display.Drawer so it can also be fed any image, one row
// high.
package gauge

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/GermanBionicSystems/dht11/dht11"
	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
	"periph.io/x/conn/v3/display"
)

// Range of the DHT11.
const (
	MaxHumidity    = 100
	MaxTemperature = 50
)

// Opts represents the options available for this display.
type Opts struct {
	// X is the width of one bar, in characters. Default is 20.
	X       int
	Palette *ansi256.Palette
	// W is where the strip is written. Default is stdout.
	W io.Writer

	_ struct{}
}

// Strip is a pair of bars printed on one console line.
type Strip struct {
	w       io.Writer
	x       int
	palette ansi256.Palette

	pixels []byte
	label  string
	buf    bytes.Buffer
}

// New returns a Strip that displays at the console.
func New(opts *Opts) *Strip {
	if opts == nil {
		opts = &Opts{}
	}
	p := opts.Palette
	if p == nil {
		p = ansi256.Default
	}
	x := opts.X
	if x <= 0 {
		x = 20
	}
	w := opts.W
	if w == nil {
		w = colorable.NewColorableStdout()
	}
	// One dark pixel separates the two bars.
	l := 2*x + 1
	return &Strip{
		w:       w,
		x:       x,
		palette: *p,
		pixels:  make([]byte, 3*l),
	}
}

func (s *Strip) String() string {
	return "Gauge"
}

// Halt implements conn.Resource.
//
// It ends the line and resets the colors.
func (s *Strip) Halt() error {
	_, err := s.w.Write([]byte("\n\033[0m"))
	return err
}

var (
	off      = color.NRGBA{0x20, 0x20, 0x20, 0xff}
	humidity = color.NRGBA{0x00, 0x80, 0xff, 0xff}
	cold     = color.NRGBA{0x00, 0x40, 0xff, 0xff}
	hot      = color.NRGBA{0xff, 0x20, 0x00, 0xff}
)

// Show draws r. Values that were not requested are shown as empty bars.
func (s *Strip) Show(r dht11.Reading) error {
	for i := 0; i < len(s.pixels)/3; i++ {
		s.set(i, off)
	}
	if r.Quantities&dht11.Humidity != 0 {
		n := fill(r.HumidityTenths, MaxHumidity*10, s.x)
		for i := 0; i < n; i++ {
			s.set(i, humidity)
		}
	}
	if r.Quantities&dht11.Temperature != 0 {
		n := fill(r.TemperatureTenths, MaxTemperature*10, s.x)
		c := blend(cold, hot, r.TemperatureTenths, MaxTemperature*10)
		for i := 0; i < n; i++ {
			s.set(s.x+1+i, c)
		}
	}
	s.label = r.String()
	_, err := s.refresh()
	return err
}

// fill returns the number of lit pixels out of x for v in [0, full].
func fill(v int16, full int, x int) int {
	if v <= 0 {
		return 0
	}
	if int(v) >= full {
		return x
	}
	return (int(v)*x + full/2) / full
}

func blend(a, b color.NRGBA, v int16, full int) color.NRGBA {
	f := int(v)
	if f < 0 {
		f = 0
	}
	if f > full {
		f = full
	}
	mix := func(x, y uint8) uint8 {
		return uint8((int(x)*(full-f) + int(y)*f) / full)
	}
	return color.NRGBA{mix(a.R, b.R), mix(a.G, b.G), mix(a.B, b.B), 0xff}
}

func (s *Strip) set(i int, c color.NRGBA) {
	s.pixels[3*i] = c.R
	s.pixels[3*i+1] = c.G
	s.pixels[3*i+2] = c.B
}

// Write accepts a stream of raw RGB pixels and writes it to the console.
func (s *Strip) Write(pixels []byte) (int, error) {
	if len(pixels)%3 != 0 {
		return 0, errors.New("gauge: invalid RGB stream length")
	}
	copy(s.pixels, pixels)
	s.label = ""
	return s.refresh()
}

// ColorModel implements display.Drawer.
func (s *Strip) ColorModel() color.Model {
	return color.NRGBAModel
}

// Bounds implements display.Drawer.
func (s *Strip) Bounds() image.Rectangle {
	return image.Rectangle{Max: image.Point{X: len(s.pixels) / 3, Y: 1}}
}

// Draw implements display.Drawer.
func (s *Strip) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	r = r.Intersect(s.Bounds())
	srcR := src.Bounds()
	srcR.Min = srcR.Min.Add(sp)
	if dX := r.Dx(); dX < srcR.Dx() {
		srcR.Max.X = srcR.Min.X + dX
	}
	deltaX := r.Min.X - srcR.Min.X
	for sX := srcR.Min.X; sX < srcR.Max.X; sX++ {
		c := color.NRGBAModel.Convert(src.At(sX, srcR.Min.Y)).(color.NRGBA)
		s.set(sX+deltaX, c)
	}
	s.label = ""
	_, err := s.refresh()
	return err
}

func (s *Strip) refresh() (int, error) {
	s.buf.Reset()
	_, _ = s.buf.WriteString("\r\033[0m")
	for i := 0; i < len(s.pixels)/3; i++ {
		c := color.NRGBA{s.pixels[3*i], s.pixels[3*i+1], s.pixels[3*i+2], 255}
		_, _ = io.WriteString(&s.buf, s.palette.Block(c))
	}
	_, _ = s.buf.WriteString("\033[0m ")
	if s.label != "" {
		_, _ = fmt.Fprintf(&s.buf, "%s\033[K", s.label)
	}
	_, err := s.buf.WriteTo(s.w)
	return len(s.pixels), err
}

var _ display.Drawer = &Strip{}
var _ fmt.Stringer = &Strip{}
