// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package dht11

import (
	"time"

	"periph.io/x/conn/v3/gpio"
)

// Clock is the time source used to measure pulses and to wait.
//
// Sleep must be accurate to about a microsecond for short durations.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

// spinClock busy waits for short delays since time.Sleep has a resolution of
// tens of microseconds at best.
type spinClock struct{}

func (spinClock) Now() time.Time { return time.Now() }

func (spinClock) Sleep(d time.Duration) {
	if d >= time.Millisecond {
		time.Sleep(d)
		return
	}
	for start := time.Now(); time.Since(start) < d; {
	}
}

// awaitLevel polls p every poll until it reads l and returns the time elapsed
// since the call. It returns errTimeout once timeout has elapsed without
// seeing l.
//
// The level is sampled after each delay, so a transition happening exactly at
// timeout is still seen.
func awaitLevel(p gpio.PinIn, c Clock, poll, timeout time.Duration, l gpio.Level) (time.Duration, error) {
	start := c.Now()
	for {
		c.Sleep(poll)
		elapsed := c.Now().Sub(start)
		if p.Read() == l {
			return elapsed, nil
		}
		if elapsed >= timeout {
			return elapsed, errTimeout
		}
	}
}
