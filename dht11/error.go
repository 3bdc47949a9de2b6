// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package dht11

import (
	"errors"
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
)

// ErrNoQuantity is returned when a read requests neither humidity nor
// temperature.
var ErrNoQuantity = errors.New("dht11: neither humidity nor temperature requested")

// errTimeout is returned by awaitLevel. The decoder turns it into a
// HandshakeTimeoutError or a BitTimeoutError.
var errTimeout = errors.New("dht11: timeout")

// HandshakeTimeoutError is returned when the sensor did not answer the start
// condition in time. It usually means no sensor is connected or the pin is
// miswired.
type HandshakeTimeoutError struct {
	Stage  Stage
	Budget time.Duration
}

func (e *HandshakeTimeoutError) Error() string {
	return fmt.Sprintf("dht11: handshake stage %d (%s) timed out after %s", int(e.Stage), e.Stage, e.Budget)
}

// Timeout returns true.
func (e *HandshakeTimeoutError) Timeout() bool { return true }

// BitTimeoutError is returned when one of the two phases of a data bit took
// longer than its budget. Level is the level the decoder was waiting for:
// gpio.High for the start-of-bit low phase, gpio.Low for the data high phase.
type BitTimeoutError struct {
	Index  int
	Level  gpio.Level
	Budget time.Duration
}

func (e *BitTimeoutError) Error() string {
	phase := "low"
	if e.Level == gpio.Low {
		phase = "high"
	}
	return fmt.Sprintf("dht11: bit %d %s phase timed out after %s", e.Index, phase, e.Budget)
}

// Timeout returns true.
func (e *BitTimeoutError) Timeout() bool { return true }

// ChecksumError is returned when all 40 bits were received but the checksum
// byte does not match the sum of the data bytes.
type ChecksumError struct {
	Frame Frame
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("dht11: checksum mismatch: frame %s, want 0x%02x", e.Frame, e.Frame.sum())
}

// IsTimeout reports whether err is a handshake or bit timeout.
func IsTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}
