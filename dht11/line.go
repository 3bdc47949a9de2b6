// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package dht11

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
)

// line owns the data pin. It is an output only while sending the start
// condition or holding the line high between reads.
type line struct {
	p    gpio.PinIO
	pull gpio.Pull
}

func (l *line) driveLow() error {
	if err := l.p.Out(gpio.Low); err != nil {
		return fmt.Errorf("dht11: drive %s low: %w", l.p, err)
	}
	return nil
}

func (l *line) driveHigh() error {
	if err := l.p.Out(gpio.High); err != nil {
		return fmt.Errorf("dht11: drive %s high: %w", l.p, err)
	}
	return nil
}

// release turns the pin into an input so the sensor can pull it down.
func (l *line) release() error {
	if err := l.p.In(l.pull, gpio.NoEdge); err != nil {
		return fmt.Errorf("dht11: release %s: %w", l.p, err)
	}
	return nil
}
