// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package dht11

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
)

// Opts holds the configuration options for the device.
type Opts struct {
	// Pull is the pull applied while the line is an input. Use gpio.Float or
	// gpio.PullNoChange when the board has an external pull-up resistor.
	Pull gpio.Pull
	// Timing overrides the protocol timing. Zero fields use DefaultTiming.
	Timing Timing
	// MinInterval is the minimum time between the end of a read and the next
	// start condition. The sensor needs at least 1s to recover. Default is 2s.
	MinInterval time.Duration
	// Retries is the number of times a failed acquisition is repeated before
	// Read gives up. Every retry waits MinInterval first. Default is 0.
	Retries int
	// Clock is the time source. Default busy waits on time.Now.
	Clock Clock
	// Window suspends preemption during the handshake and the data bits.
	// Default is DefaultWindow().
	Window TimingWindow
	// Logger receives failed reads at Warn level and readings at Debug
	// level. nil discards them.
	Logger *slog.Logger
}

// DefaultOpts holds the default configuration options for the device.
var DefaultOpts = Opts{
	Pull:        gpio.PullUp,
	Timing:      DefaultTiming,
	MinInterval: 2 * time.Second,
}

// Dev is a handle to a DHT11 sensor on a dedicated GPIO pin.
//
// Dev owns the pin: nothing else may drive it while a Dev is in use.
type Dev struct {
	opts Opts
	line line
	dec  decoder
	log  *slog.Logger

	// mu is held for a whole acquisition, including the recovery gap.
	mu       sync.Mutex
	lastRead time.Time

	smu  sync.Mutex
	stop chan struct{}
	wg   sync.WaitGroup
}

// New returns a Dev reading a DHT11 on p. The Opts can be nil.
//
// The line is driven high right away. The first read waits MinInterval so
// the sensor can settle.
func New(p gpio.PinIO, opts *Opts) (*Dev, error) {
	if p == nil {
		return nil, errors.New("dht11: pin is nil")
	}
	if opts == nil {
		opts = &DefaultOpts
	}
	d := &Dev{opts: *opts}
	o := &d.opts
	o.Timing.withDefaults()
	if err := o.Timing.validate(); err != nil {
		return nil, err
	}
	if o.MinInterval <= 0 {
		o.MinInterval = DefaultOpts.MinInterval
	}
	if o.Retries < 0 {
		return nil, errors.New("dht11: negative retries")
	}
	if o.Clock == nil {
		o.Clock = spinClock{}
	}
	if o.Window == nil {
		o.Window = DefaultWindow()
	}
	d.log = o.Logger
	if d.log == nil {
		d.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	d.line = line{p: p, pull: o.Pull}
	d.dec = decoder{line: &d.line, clock: o.Clock, window: o.Window, timing: o.Timing}

	if err := d.line.driveHigh(); err != nil {
		return nil, err
	}
	d.lastRead = o.Clock.Now()
	return d, nil
}

func (d *Dev) String() string {
	return fmt.Sprintf("dht11{%s}", d.line.p)
}

// Read acquires one frame and returns the requested values.
//
// It blocks until MinInterval has passed since the previous read, then for
// up to a few tens of milliseconds per attempt.
func (d *Dev) Read(q Quantity) (Reading, error) {
	if q&Both == 0 {
		return Reading{}, ErrNoQuantity
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	var err error
	for attempt := 1; attempt <= d.opts.Retries+1; attempt++ {
		var f Frame
		if f, err = d.acquire(); err == nil {
			var r Reading
			if r, err = Decode(f, q); err == nil {
				d.logReading(r)
				return r, nil
			}
		}
		d.log.Warn("dht11: read failed", "pin", d.line.p.String(), "attempt", attempt, "err", err)
	}
	return Reading{}, err
}

// acquire waits for the sensor to recover, reads a frame and puts the line
// back to idle high.
func (d *Dev) acquire() (Frame, error) {
	if wait := d.opts.MinInterval - d.opts.Clock.Now().Sub(d.lastRead); wait > 0 {
		d.opts.Clock.Sleep(wait)
	}
	f, err := d.dec.readFrame()
	d.lastRead = d.opts.Clock.Now()
	if idleErr := d.line.driveHigh(); err == nil {
		err = idleErr
	}
	return f, err
}

func (d *Dev) logReading(r Reading) {
	attrs := []any{"pin", d.line.p.String()}
	if r.Quantities&Humidity != 0 {
		attrs = append(attrs, "humidity", r.Humidity())
	}
	if r.Quantities&Temperature != 0 {
		attrs = append(attrs, "temperature", r.Temperature())
	}
	d.log.Debug("dht11: reading", attrs...)
}

// Sense implements physic.SenseEnv. Pressure is always 0.
func (d *Dev) Sense(e *physic.Env) error {
	e.Temperature = 0
	e.Pressure = 0
	e.Humidity = 0
	r, err := d.Read(Both)
	if err != nil {
		return err
	}
	r.Env(e)
	return nil
}

// SenseContinuous implements physic.SenseEnv. interval must be at least
// MinInterval. Failed reads are skipped. Call Halt() to stop.
func (d *Dev) SenseContinuous(interval time.Duration) (<-chan physic.Env, error) {
	if interval < d.opts.MinInterval {
		return nil, fmt.Errorf("dht11: interval %s shorter than %s", interval, d.opts.MinInterval)
	}
	d.smu.Lock()
	defer d.smu.Unlock()
	if d.stop != nil {
		return nil, errors.New("dht11: sense continuous already running")
	}
	stop := make(chan struct{})
	d.stop = stop
	ch := make(chan physic.Env)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer close(ch)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				var e physic.Env
				if err := d.Sense(&e); err != nil {
					continue
				}
				select {
				case ch <- e:
				case <-stop:
					return
				}
			}
		}
	}()
	return ch, nil
}

// Precision implements physic.SenseEnv.
func (d *Dev) Precision(e *physic.Env) {
	e.Temperature = physic.Kelvin
	e.Pressure = 0
	e.Humidity = physic.PercentRH
}

// Halt implements conn.Resource. It stops SenseContinuous and releases the
// line.
func (d *Dev) Halt() error {
	d.smu.Lock()
	stop := d.stop
	d.stop = nil
	d.smu.Unlock()
	if stop != nil {
		close(stop)
		d.wg.Wait()
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.line.release()
}

var _ conn.Resource = &Dev{}
var _ physic.SenseEnv = &Dev{}
