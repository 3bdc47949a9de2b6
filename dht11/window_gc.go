// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

//go:build !tinygo

package dht11

import (
	"runtime"
	"runtime/debug"
	"sync"
)

// threadWindow keeps the goroutine on its OS thread and stops the garbage
// collector so no stop-the-world pause lands in the middle of a frame. The
// kernel can still preempt the thread; reads on a loaded host fail more
// often and must be retried.
type threadWindow struct{}

func newWindow() TimingWindow {
	return threadWindow{}
}

func (threadWindow) Begin() {
	runtime.LockOSThread()
	gc.suspend()
}

func (threadWindow) End() {
	gc.resume()
	runtime.UnlockOSThread()
}

// gc is shared by all the windows of the process since the GC percent is
// process wide. Acquisitions on different pins may overlap in any order.
var gc gcSuspender

type gcSuspender struct {
	mu      sync.Mutex
	n       int
	percent int
}

func (g *gcSuspender) suspend() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.n == 0 {
		g.percent = debug.SetGCPercent(-1)
	}
	g.n++
}

func (g *gcSuspender) resume() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.n == 0 {
		return
	}
	g.n--
	if g.n == 0 {
		debug.SetGCPercent(g.percent)
	}
}
