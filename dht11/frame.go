// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package dht11

import (
	"fmt"
	"strings"
	"time"

	"github.com/GermanBionicSystems/dht11/common"
	"periph.io/x/conn/v3/physic"
)

const (
	frameBits  = 40
	frameBytes = frameBits / 8
)

// Frame is the raw 5 bytes sent by the sensor.
//
// Byte 1 and 3 hold the fractional parts, which are always 0 on a DHT11.
type Frame [frameBytes]byte

// Humidity returns the integral relative humidity in percent.
func (f Frame) Humidity() byte { return f[0] }

// Temperature returns the integral temperature in degrees Celsius.
func (f Frame) Temperature() byte { return f[2] }

// Checksum returns the checksum byte sent by the sensor.
func (f Frame) Checksum() byte { return f[4] }

// Valid returns true if the checksum byte matches the data bytes.
func (f Frame) Valid() bool {
	return f.Checksum() == f.sum()
}

func (f Frame) sum() byte {
	return common.Sum8(f[:4])
}

func (f Frame) String() string {
	return fmt.Sprintf("[0x%02x 0x%02x 0x%02x 0x%02x 0x%02x]", f[0], f[1], f[2], f[3], f[4])
}

// Quantity selects which values a read returns.
type Quantity uint8

const (
	Humidity Quantity = 1 << iota
	Temperature

	Both = Humidity | Temperature
)

func (q Quantity) String() string {
	var s []string
	if q&Humidity != 0 {
		s = append(s, "Humidity")
	}
	if q&Temperature != 0 {
		s = append(s, "Temperature")
	}
	if len(s) == 0 {
		return "None"
	}
	return strings.Join(s, "|")
}

// Reading is a decoded measurement in tenths of a unit. Only the values
// listed in Quantities are set; the others are 0.
type Reading struct {
	Quantities        Quantity
	HumidityTenths    int16 // 0.1 %RH
	TemperatureTenths int16 // 0.1 °C
}

// Humidity returns the relative humidity in percent.
func (r Reading) Humidity() float32 {
	return float32(r.HumidityTenths) / 10.0
}

// Temperature returns the temperature in degrees Celsius.
func (r Reading) Temperature() float32 {
	return float32(r.TemperatureTenths) / 10.0
}

// Env copies the requested values into e. Values that were not requested
// are left untouched.
func (r Reading) Env(e *physic.Env) {
	if r.Quantities&Humidity != 0 {
		e.Humidity = physic.RelativeHumidity(r.HumidityTenths) * physic.PercentRH / 10
	}
	if r.Quantities&Temperature != 0 {
		e.Temperature = physic.ZeroCelsius + physic.Temperature(r.TemperatureTenths)*physic.Celsius/10
	}
}

func (r Reading) String() string {
	var s []string
	if r.Quantities&Humidity != 0 {
		s = append(s, fmt.Sprintf("Humidity: %.1f%%", r.Humidity()))
	}
	if r.Quantities&Temperature != 0 {
		s = append(s, fmt.Sprintf("Temperature: %.1fC", r.Temperature()))
	}
	return strings.Join(s, " ")
}

// Decode validates f and converts the requested values.
func Decode(f Frame, q Quantity) (Reading, error) {
	if q&Both == 0 {
		return Reading{}, ErrNoQuantity
	}
	if !f.Valid() {
		return Reading{}, &ChecksumError{Frame: f}
	}
	r := Reading{Quantities: q & Both}
	if q&Humidity != 0 {
		r.HumidityTenths = convert(f.Humidity())
	}
	if q&Temperature != 0 {
		r.TemperatureTenths = convert(f.Temperature())
	}
	return r, nil
}

// convert scales an integral value to tenths.
func convert(b byte) int16 {
	return int16(b) * 10
}

// decodeBit returns the value of a bit from the width of its two phases.
//
// The threshold is relative: both widths are measured with the same timer so
// a drifting clock affects both equally.
func decodeBit(low, high time.Duration) bool {
	return high > low
}

// bitBuffer accumulates bits MSB first. The zero value is empty.
type bitBuffer struct {
	f Frame
	n int
}

func (b *bitBuffer) push(bit bool) {
	i, m := b.n/8, b.n%8
	if bit {
		b.f[i] |= 1 << (7 - m)
	}
	b.n++
}

func (b *bitBuffer) full() bool {
	return b.n == frameBits
}
