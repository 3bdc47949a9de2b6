// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package dht11

// TimingWindow suspends preemption while pulses are measured. A scheduler
// tick in the middle of a bit stretches the measured width and corrupts the
// frame.
//
// Begin and End are always called in pairs from the same goroutine. The
// window is held for at most a few milliseconds.
type TimingWindow interface {
	Begin()
	End()
}

// DefaultWindow returns the best TimingWindow available on this platform.
func DefaultWindow() TimingWindow {
	return newWindow()
}

// NoWindow is a TimingWindow that does nothing. Useful with simulated pins.
var NoWindow TimingWindow = noWindow{}

type noWindow struct{}

func (noWindow) Begin() {}
func (noWindow) End()   {}
