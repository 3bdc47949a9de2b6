// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

//go:build tinygo

package dht11

import "runtime/interrupt"

// irqWindow disables interrupts on the microcontroller.
type irqWindow struct {
	state interrupt.State
}

func newWindow() TimingWindow {
	return &irqWindow{}
}

func (w *irqWindow) Begin() {
	w.state = interrupt.Disable()
}

func (w *irqWindow) End() {
	interrupt.Restore(w.state)
}
