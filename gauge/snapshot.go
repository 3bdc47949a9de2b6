// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package gauge

import (
	"errors"
	"fmt"
	"image"

	"github.com/GermanBionicSystems/dht11/dht11"
	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
)

// Snapshot renders r as black text on white, one line per value, for
// e-paper and OLED panels or a PNG file.
func Snapshot(r dht11.Reading, w, h int) (image.Image, error) {
	if w <= 0 || h <= 0 {
		return nil, errors.New("gauge: invalid snapshot size")
	}
	var lines []string
	if r.Quantities&dht11.Humidity != 0 {
		lines = append(lines, fmt.Sprintf("Humidity %.1f%%", r.Humidity()))
	}
	if r.Quantities&dht11.Temperature != 0 {
		lines = append(lines, fmt.Sprintf("Temperature %.1f°C", r.Temperature()))
	}
	if len(lines) == 0 {
		return nil, dht11.ErrNoQuantity
	}

	dc := gg.NewContext(w, h)
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	dc.SetRGB(0, 0, 0)
	dc.SetFontFace(face(float64(h) / float64(2*len(lines)+1)))
	step := float64(h) / float64(len(lines)+1)
	for i, l := range lines {
		dc.DrawStringAnchored(l, float64(w)/2, step*float64(i+1), 0.5, 0.5)
	}
	return dc.Image(), nil
}

// SavePNG writes the Snapshot of r to path.
func SavePNG(path string, r dht11.Reading, w, h int) error {
	img, err := Snapshot(r, w, h)
	if err != nil {
		return err
	}
	return gg.SavePNG(path, img)
}

// face returns Go Regular at size points, or the fixed 7x13 face if the
// TrueType data cannot be parsed.
func face(size float64) font.Face {
	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return basicfont.Face7x13
	}
	return truetype.NewFace(f, &truetype.Options{Size: size})
}
