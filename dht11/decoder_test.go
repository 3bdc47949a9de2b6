// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package dht11

import (
	"errors"
	"testing"
	"time"

	"github.com/GermanBionicSystems/dht11/dht11/dht11test"
	"github.com/google/go-cmp/cmp"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
)

// countingWindow records Begin/End calls and fails the test on misuse.
type countingWindow struct {
	t      *testing.T
	begins int
	ends   int
}

func (w *countingWindow) Begin() {
	if w.begins != w.ends {
		w.t.Error("Begin() called twice")
	}
	w.begins++
}

func (w *countingWindow) End() {
	if w.ends >= w.begins {
		w.t.Error("End() without Begin()")
	}
	w.ends++
}

func newDecoder(t *testing.T, replies ...dht11test.Waveform) (*decoder, *dht11test.Playback, *countingWindow) {
	p := &dht11test.Playback{Pin: gpiotest.Pin{N: "GPIO4"}, Replies: replies}
	w := &countingWindow{t: t}
	return &decoder{
		line:   &line{p: p, pull: gpio.PullUp},
		clock:  p,
		window: w,
		timing: DefaultTiming,
	}, p, w
}

func TestReadFrame(t *testing.T) {
	d, p, w := newDecoder(t, dht11test.Frame([5]byte{0x20, 0x00, 0x15, 0x00, 0x35}))
	f, err := d.readFrame()
	if err != nil {
		t.Fatal(err)
	}
	if want := (Frame{0x20, 0x00, 0x15, 0x00, 0x35}); f != want {
		t.Fatalf("readFrame() = %s, want %s", f, want)
	}
	if w.begins != 1 || w.ends != 1 {
		t.Fatalf("window opened %d times, closed %d times", w.begins, w.ends)
	}
	want := []dht11test.Op{
		{At: 0, Level: gpio.Low},
		{At: DefaultTiming.StartPulse, Level: gpio.High},
		{At: DefaultTiming.StartPulse + DefaultTiming.HostHigh, Input: true},
	}
	if diff := cmp.Diff(p.Ops, want); diff != "" {
		t.Errorf("Ops difference (-got +want):\n%s", diff)
	}
}

func TestReadFrame_badChecksum(t *testing.T) {
	// The decoder does not validate, the frame comes out as sent.
	d, _, _ := newDecoder(t, dht11test.Frame([5]byte{0x20, 0x00, 0x15, 0x00, 0x36}))
	f, err := d.readFrame()
	if err != nil {
		t.Fatal(err)
	}
	if f.Valid() {
		t.Fatalf("%s is valid", f)
	}
}

func TestReadFrame_slowSensor(t *testing.T) {
	// Every pulse 4µs longer, still within budget and still decoded by the
	// relative threshold.
	w := dht11test.Frame([5]byte{0xaa, 0x00, 0x55, 0x00, 0xff})
	for i := dht11test.BitLow(0); i < dht11test.Trailer; i++ {
		w[i].Width += 4 * time.Microsecond
	}
	d, _, _ := newDecoder(t, w)
	f, err := d.readFrame()
	if err != nil {
		t.Fatal(err)
	}
	if want := (Frame{0xaa, 0x00, 0x55, 0x00, 0xff}); f != want {
		t.Fatalf("readFrame() = %s, want %s", f, want)
	}
}

func TestReadFrame_handshakeTimeout(t *testing.T) {
	stretch := func(i int) dht11test.Waveform {
		w := dht11test.Reply(0x20, 0x15)
		w[i].Width = 200 * time.Microsecond
		return w
	}
	for _, tc := range []struct {
		name    string
		replies []dht11test.Waveform
		stage   Stage
		timeout time.Duration
	}{
		{"no sensor", nil, StageAck, DefaultTiming.Ack},
		{"late ack", []dht11test.Waveform{stretch(dht11test.AckDelay)}, StageAck, DefaultTiming.Ack},
		{"stuck low", []dht11test.Waveform{stretch(dht11test.ResponseLow)}, StageReady, DefaultTiming.Ready},
		{"stuck high", []dht11test.Waveform{stretch(dht11test.ResponseHigh)}, StageDataStart, DefaultTiming.DataStart},
	} {
		t.Run(tc.name, func(t *testing.T) {
			d, _, w := newDecoder(t, tc.replies...)
			f, err := d.readFrame()
			var he *HandshakeTimeoutError
			if !errors.As(err, &he) {
				t.Fatalf("readFrame() error = %v, want HandshakeTimeoutError", err)
			}
			if he.Stage != tc.stage || he.Budget != tc.timeout {
				t.Fatalf("got stage %d after %s, want stage %d after %s", he.Stage, he.Budget, tc.stage, tc.timeout)
			}
			if !IsTimeout(err) {
				t.Fatal("IsTimeout() = false")
			}
			if f != (Frame{}) {
				t.Fatalf("partial frame %s returned", f)
			}
			if w.begins != 1 || w.ends != 1 {
				t.Fatalf("window opened %d times, closed %d times", w.begins, w.ends)
			}
		})
	}
}

func TestReadFrame_bitTimeout(t *testing.T) {
	for _, tc := range []struct {
		name  string
		pulse int
		cut   bool // hold the line high from pulse on
		index int
		level gpio.Level
	}{
		{"first bit low", dht11test.BitLow(0), false, 0, gpio.High},
		{"bit 7 low", dht11test.BitLow(7), false, 7, gpio.High},
		{"bit 12 high", dht11test.BitHigh(12), true, 12, gpio.Low},
		{"last bit high", dht11test.BitHigh(39), true, 39, gpio.Low},
		{"no trailer", dht11test.Trailer, true, 39, gpio.Low},
	} {
		t.Run(tc.name, func(t *testing.T) {
			w := dht11test.Reply(0xff, 0xff)
			if tc.cut {
				w = w[:tc.pulse]
			} else {
				w[tc.pulse].Width = 100 * time.Microsecond
			}
			d, _, win := newDecoder(t, w)
			f, err := d.readFrame()
			var be *BitTimeoutError
			if !errors.As(err, &be) {
				t.Fatalf("readFrame() error = %v, want BitTimeoutError", err)
			}
			if be.Index != tc.index || be.Level != tc.level {
				t.Fatalf("got bit %d waiting for %s, want bit %d waiting for %s", be.Index, be.Level, tc.index, tc.level)
			}
			budget := DefaultTiming.BitLow
			if tc.level == gpio.Low {
				budget = DefaultTiming.BitHigh
			}
			if be.Budget != budget {
				t.Fatalf("Budget = %s, want %s", be.Budget, budget)
			}
			if f != (Frame{}) {
				t.Fatalf("partial frame %s returned", f)
			}
			if win.begins != 1 || win.ends != 1 {
				t.Fatalf("window opened %d times, closed %d times", win.begins, win.ends)
			}
		})
	}
}

func TestReadFrame_repeatable(t *testing.T) {
	d, p, _ := newDecoder(t, dht11test.Reply(0xff, 0xff), dht11test.Reply(0x01, 0x02), dht11test.Reply(0x01, 0x02))
	if _, err := d.readFrame(); err != nil {
		t.Fatal(err)
	}
	var frames []Frame
	for i := 0; i < 2; i++ {
		p.Sleep(2 * time.Second)
		f, err := d.readFrame()
		if err != nil {
			t.Fatal(err)
		}
		frames = append(frames, f)
	}
	// No bit of the all-ones frame leaks into the next ones.
	want := []Frame{{0x01, 0x00, 0x02, 0x00, 0x03}, {0x01, 0x00, 0x02, 0x00, 0x03}}
	if diff := cmp.Diff(frames, want); diff != "" {
		t.Fatalf("frames difference (-got +want):\n%s", diff)
	}
}

func TestTiming(t *testing.T) {
	tm := Timing{Ack: 50 * time.Microsecond}
	tm.withDefaults()
	want := DefaultTiming
	want.Ack = 50 * time.Microsecond
	if diff := cmp.Diff(tm, want); diff != "" {
		t.Fatalf("withDefaults() difference (-got +want):\n%s", diff)
	}
	if err := tm.validate(); err != nil {
		t.Fatal(err)
	}
	tm.StartPulse = 10 * time.Millisecond
	if tm.validate() == nil {
		t.Fatal("accepted a 10ms start pulse")
	}
	tm.StartPulse = MinStartPulse
	tm.PollInterval = 20 * time.Microsecond
	if tm.validate() == nil {
		t.Fatal("accepted a 20µs poll interval")
	}
}

func TestStage_String(t *testing.T) {
	for s, want := range map[Stage]string{
		StageStartPulse: "StartPulse",
		StageAck:        "AwaitSensorAck",
		StageReady:      "AwaitSensorReady",
		StageDataStart:  "AwaitDataStart",
		0:               "Unknown",
	} {
		if got := s.String(); got != want {
			t.Errorf("Stage(%d).String() = %q, want %q", int(s), got, want)
		}
	}
	e := &HandshakeTimeoutError{Stage: StageReady, Budget: 80 * time.Microsecond}
	if got := e.Error(); got != "dht11: handshake stage 3 (AwaitSensorReady) timed out after 80µs" {
		t.Errorf("Error() = %q", got)
	}
}

func TestMinStartPulse(t *testing.T) {
	if MinStartPulse != dht11test.MinStartPulse {
		t.Fatalf("simulated sensor accepts %s, decoder uses %s", dht11test.MinStartPulse, MinStartPulse)
	}
}
