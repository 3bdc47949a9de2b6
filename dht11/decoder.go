// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package dht11

import (
	"errors"
	"time"

	"periph.io/x/conn/v3/gpio"
)

// Stage is a step of the start condition handshake.
type Stage int

const (
	// The host holds the line low, then releases it.
	StageStartPulse Stage = iota + 1
	// The sensor pulls the line low to acknowledge.
	StageAck
	// The sensor holds the line low for 80µs, then releases it.
	StageReady
	// The sensor holds the line high for 80µs before the first bit.
	StageDataStart
)

func (s Stage) String() string {
	switch s {
	case StageStartPulse:
		return "StartPulse"
	case StageAck:
		return "AwaitSensorAck"
	case StageReady:
		return "AwaitSensorReady"
	case StageDataStart:
		return "AwaitDataStart"
	default:
		return "Unknown"
	}
}

// MinStartPulse is the shortest start pulse the sensor recognizes.
const MinStartPulse = 18 * time.Millisecond

// Timing holds the protocol timings. Zero fields take the value from
// DefaultTiming.
type Timing struct {
	// StartPulse is how long the host holds the line low. Must be at least
	// MinStartPulse.
	StartPulse time.Duration
	// HostHigh is how long the host drives the line high after the start
	// pulse before releasing it.
	HostHigh time.Duration
	// Ack, Ready and DataStart are the budgets of the three handshake waits.
	Ack       time.Duration
	Ready     time.Duration
	DataStart time.Duration
	// BitLow and BitHigh are the budgets of the two phases of a data bit.
	BitLow  time.Duration
	BitHigh time.Duration
	// PollInterval is the delay between two samples of the line. It must be
	// well below the 50µs low phase of a bit; at most 10µs is accepted.
	PollInterval time.Duration
}

// DefaultTiming is the timing from the datasheet.
var DefaultTiming = Timing{
	StartPulse:   20 * time.Millisecond,
	HostHigh:     20 * time.Microsecond,
	Ack:          40 * time.Microsecond,
	Ready:        80 * time.Microsecond,
	DataStart:    80 * time.Microsecond,
	BitLow:       65 * time.Microsecond,
	BitHigh:      75 * time.Microsecond,
	PollInterval: 2 * time.Microsecond,
}

const maxPollInterval = 10 * time.Microsecond

func (t *Timing) withDefaults() {
	d := DefaultTiming
	for _, f := range []struct{ v, def *time.Duration }{
		{&t.StartPulse, &d.StartPulse},
		{&t.HostHigh, &d.HostHigh},
		{&t.Ack, &d.Ack},
		{&t.Ready, &d.Ready},
		{&t.DataStart, &d.DataStart},
		{&t.BitLow, &d.BitLow},
		{&t.BitHigh, &d.BitHigh},
		{&t.PollInterval, &d.PollInterval},
	} {
		if *f.v <= 0 {
			*f.v = *f.def
		}
	}
}

func (t *Timing) validate() error {
	if t.StartPulse < MinStartPulse {
		return errors.New("dht11: start pulse shorter than 18ms")
	}
	if t.PollInterval > maxPollInterval {
		return errors.New("dht11: poll interval longer than 10µs")
	}
	return nil
}

// decoder runs one acquisition on a line. It keeps no state between calls.
type decoder struct {
	line   *line
	clock  Clock
	window TimingWindow
	timing Timing
}

// readFrame sends the start condition and reads the 40 bits that follow. The
// frame is not validated.
//
// The timing window is opened after the low part of the start pulse, since
// being preempted there only makes the pulse longer, and is closed on every
// return path.
func (d *decoder) readFrame() (Frame, error) {
	t := &d.timing
	if err := d.line.driveLow(); err != nil {
		return Frame{}, err
	}
	d.clock.Sleep(t.StartPulse)

	d.window.Begin()
	defer d.window.End()

	if err := d.line.driveHigh(); err != nil {
		return Frame{}, err
	}
	d.clock.Sleep(t.HostHigh)
	if err := d.line.release(); err != nil {
		return Frame{}, err
	}

	for _, s := range []struct {
		stage   Stage
		timeout time.Duration
		l       gpio.Level
	}{
		{StageAck, t.Ack, gpio.Low},
		{StageReady, t.Ready, gpio.High},
		{StageDataStart, t.DataStart, gpio.Low},
	} {
		if _, err := d.await(s.timeout, s.l); err != nil {
			return Frame{}, &HandshakeTimeoutError{Stage: s.stage, Budget: s.timeout}
		}
	}

	var b bitBuffer
	for i := 0; !b.full(); i++ {
		low, err := d.await(t.BitLow, gpio.High)
		if err != nil {
			return Frame{}, &BitTimeoutError{Index: i, Level: gpio.High, Budget: t.BitLow}
		}
		high, err := d.await(t.BitHigh, gpio.Low)
		if err != nil {
			return Frame{}, &BitTimeoutError{Index: i, Level: gpio.Low, Budget: t.BitHigh}
		}
		b.push(decodeBit(low, high))
	}
	return b.f, nil
}

func (d *decoder) await(timeout time.Duration, l gpio.Level) (time.Duration, error) {
	return awaitLevel(d.line.p, d.clock, d.timing.PollInterval, timeout, l)
}
