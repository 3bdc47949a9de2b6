// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package dht11test is meant to be used to test drivers of single-wire
// DHT sensors without hardware.
//
// Playback is a fake gpio.PinIO wired to a simulated sensor. It runs on a
// virtual clock that only moves when Sleep is called, so a whole frame is
// decoded in microseconds of wall time and pulse widths are exact.
package dht11test

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
)

// Pulse is a level held by the sensor for Width.
type Pulse struct {
	Level gpio.Level
	Width time.Duration
}

func (p Pulse) String() string {
	return fmt.Sprintf("%s:%s", p.Level, p.Width)
}

// Waveform is the sequence of levels the sensor puts on the line after the
// host releases it. Past the end of the waveform the line is pulled high.
type Waveform []Pulse

// Widths of the pulses generated by Frame.
const (
	AckDelayWidth = 20 * time.Microsecond
	ResponseWidth = 80 * time.Microsecond
	BitLowWidth   = 50 * time.Microsecond
	ZeroWidth     = 26 * time.Microsecond
	OneWidth      = 70 * time.Microsecond
	TrailerWidth  = 50 * time.Microsecond
)

// Indexes of the pulses in a Waveform returned by Frame.
const (
	// AckDelay is the high level between the host release and the sensor
	// acknowledge.
	AckDelay = 0
	// ResponseLow is the 80µs low acknowledge.
	ResponseLow = 1
	// ResponseHigh is the 80µs high preceding the first bit.
	ResponseHigh = 2
	// Trailer is the low level ending the last bit.
	Trailer = 83
)

// BitLow returns the index of the low phase of bit i.
func BitLow(i int) int { return 3 + 2*i }

// BitHigh returns the index of the high phase of bit i.
func BitHigh(i int) int { return 4 + 2*i }

// Frame returns the waveform of a sensor sending the 5 bytes of f as is.
func Frame(f [5]byte) Waveform {
	w := make(Waveform, 0, Trailer+1)
	w = append(w,
		Pulse{gpio.High, AckDelayWidth},
		Pulse{gpio.Low, ResponseWidth},
		Pulse{gpio.High, ResponseWidth})
	for _, b := range f {
		for m := 7; m >= 0; m-- {
			high := ZeroWidth
			if b&(1<<m) != 0 {
				high = OneWidth
			}
			w = append(w, Pulse{gpio.Low, BitLowWidth}, Pulse{gpio.High, high})
		}
	}
	return append(w, Pulse{gpio.Low, TrailerWidth})
}

// Reply returns the waveform of a sensor reporting humidity in %RH and
// temperature in °C, with a correct checksum.
func Reply(humidity, temperature byte) Waveform {
	return Frame([5]byte{humidity, 0, temperature, 0, humidity + temperature})
}

// Op is an operation done by the host on the line.
type Op struct {
	// At is the virtual time of the operation.
	At time.Duration
	// Input is true when the host released the line.
	Input bool
	// Level is the driven level when Input is false.
	Level gpio.Level
}

func (o Op) String() string {
	if o.Input {
		return fmt.Sprintf("%s:In", o.At)
	}
	return fmt.Sprintf("%s:Out(%s)", o.At, o.Level)
}

// MinStartPulse is the shortest low pulse recognized as a start condition.
// It must stay equal to dht11.MinStartPulse.
const MinStartPulse = 18 * time.Millisecond

// Playback simulates a DHT sensor on a pin.
//
// A start condition is the host driving the line low for at least
// MinStartPulse and then releasing it, optionally after driving it high for
// a moment. Each start condition plays the next waveform of Replies. Once
// Replies is exhausted the sensor stays silent.
//
// Playback implements both gpio.PinIO and the Clock interface of the
// drivers. It is safe for concurrent use.
type Playback struct {
	gpiotest.Pin

	// Replies are played in order, one per start condition.
	Replies []Waveform
	// Count is the number of replies played so far.
	Count int
	// Ops records every Out and In call.
	Ops []Op
	// Reads is the number of Read calls.
	Reads int

	now     time.Duration
	output  bool
	low     bool
	lowAt   time.Duration
	armed   bool
	playing bool
	origin  time.Duration
	wave    Waveform
}

// Epoch is the wall time matching the virtual time 0.
var Epoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

// Now returns the virtual time.
func (p *Playback) Now() time.Time {
	p.Lock()
	defer p.Unlock()
	return Epoch.Add(p.now)
}

// Sleep advances the virtual time by d.
func (p *Playback) Sleep(d time.Duration) {
	p.Lock()
	defer p.Unlock()
	if d > 0 {
		p.now += d
	}
}

// Elapsed returns the virtual time since the Playback was created.
func (p *Playback) Elapsed() time.Duration {
	p.Lock()
	defer p.Unlock()
	return p.now
}

// Out implements gpio.PinOut.
func (p *Playback) Out(l gpio.Level) error {
	p.Lock()
	defer p.Unlock()
	p.Ops = append(p.Ops, Op{At: p.now, Level: l})
	p.output = true
	p.playing = false
	p.L = l
	if l == gpio.Low {
		if !p.low {
			p.low = true
			p.lowAt = p.now
		}
		p.armed = false
	} else {
		p.endLow()
	}
	return nil
}

// In implements gpio.PinIn. The sensor reply starts when the line is
// released after a start condition.
func (p *Playback) In(pull gpio.Pull, edge gpio.Edge) error {
	p.Lock()
	defer p.Unlock()
	if edge != gpio.NoEdge {
		return fmt.Errorf("dht11test: %s: edge detection is not supported", p.N)
	}
	p.Ops = append(p.Ops, Op{At: p.now, Input: true})
	p.output = false
	p.P = pull
	p.endLow()
	if p.armed && p.Count < len(p.Replies) {
		p.wave = p.Replies[p.Count]
		p.Count++
		p.playing = true
		p.origin = p.now
	}
	p.armed = false
	return nil
}

func (p *Playback) endLow() {
	if p.low && p.now-p.lowAt >= MinStartPulse {
		p.armed = true
	}
	p.low = false
}

// Read implements gpio.PinIn.
func (p *Playback) Read() gpio.Level {
	p.Lock()
	defer p.Unlock()
	p.Reads++
	if p.output {
		return p.L
	}
	if p.playing {
		off := p.now - p.origin
		for _, s := range p.wave {
			if off < s.Width {
				return s.Level
			}
			off -= s.Width
		}
	}
	return gpio.High
}

var _ gpio.PinIO = &Playback{}
