// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

//go:build !tinygo

package dht11

import (
	"runtime/debug"
	"sync"
	"testing"
)

func TestDefaultWindow(t *testing.T) {
	prev := debug.SetGCPercent(100)
	defer debug.SetGCPercent(prev)

	w := DefaultWindow()
	w.Begin()
	if got := debug.SetGCPercent(-1); got != -1 {
		t.Fatalf("GC percent inside the window = %d, want -1", got)
	}
	w.End()
	if got := debug.SetGCPercent(100); got != 100 {
		t.Fatalf("GC percent after the window = %d, want 100", got)
	}
}

func TestDefaultWindow_overlap(t *testing.T) {
	prev := debug.SetGCPercent(100)
	defer debug.SetGCPercent(prev)

	// Two pins read at the same time, the first one finishing first.
	a, b := DefaultWindow(), DefaultWindow()
	a.Begin()
	b.Begin()
	a.End()
	if got := debug.SetGCPercent(-1); got != -1 {
		t.Fatalf("GC percent with one window still open = %d, want -1", got)
	}
	b.End()
	if got := debug.SetGCPercent(100); got != 100 {
		t.Fatalf("GC percent after both windows = %d, want 100", got)
	}
}

func TestDefaultWindow_concurrent(t *testing.T) {
	prev := debug.SetGCPercent(100)
	defer debug.SetGCPercent(prev)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w := DefaultWindow()
			for j := 0; j < 100; j++ {
				w.Begin()
				w.End()
			}
		}()
	}
	wg.Wait()
	if got := debug.SetGCPercent(100); got != 100 {
		t.Fatalf("GC percent after all windows = %d, want 100", got)
	}
}

func TestGCSuspender_unbalanced(t *testing.T) {
	prev := debug.SetGCPercent(100)
	defer debug.SetGCPercent(prev)

	var g gcSuspender
	g.resume()
	if got := debug.SetGCPercent(100); got != 100 {
		t.Fatalf("GC percent after a stray resume = %d, want 100", got)
	}
}
