// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// dht11 reads a DHT11 temperature/humidity sensor connected to a GPIO pin.
//
// It prints one line per sample:
//
//	Humidity: 32.0% Temperature: 21.0C
//
// A failed sample is reported and the next one is attempted after the
// interval; the sensor is never polled faster than every 2 seconds.
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/GermanBionicSystems/dht11/dht11"
	"github.com/GermanBionicSystems/dht11/gauge"
	"github.com/spf13/pflag"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "dht11: %v\n", err)
		os.Exit(1)
	}
}

type config struct {
	pin      string
	count    int
	interval time.Duration
	retries  int
	humidity bool
	temp     bool
	png      string
	gauge    bool
	verbose  bool
}

func parseFlags(args []string, stderr io.Writer) (*config, error) {
	var c config
	fs := pflag.NewFlagSet("dht11", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVarP(&c.pin, "pin", "p", "GPIO4", "GPIO pin the sensor data line is connected to")
	fs.IntVarP(&c.count, "count", "n", 1, "number of samples to read, 0 for no limit")
	fs.DurationVarP(&c.interval, "interval", "i", 2*time.Second, "time between two samples")
	fs.IntVar(&c.retries, "retries", 2, "retries of a failed acquisition within one sample")
	fs.BoolVar(&c.humidity, "humidity", true, "read the humidity")
	fs.BoolVar(&c.temp, "temperature", true, "read the temperature")
	fs.StringVar(&c.png, "png", "", "write the last reading to this PNG file")
	fs.BoolVar(&c.gauge, "gauge", false, "show readings as color bars")
	fs.BoolVarP(&c.verbose, "verbose", "v", false, "log every acquisition")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 0 {
		return nil, fmt.Errorf("unexpected argument %q", fs.Arg(0))
	}
	if c.count < 0 {
		return nil, errors.New("--count must not be negative")
	}
	if c.interval < dht11.DefaultOpts.MinInterval {
		return nil, fmt.Errorf("--interval must be at least %s", dht11.DefaultOpts.MinInterval)
	}
	if c.quantity() == 0 {
		return nil, dht11.ErrNoQuantity
	}
	return &c, nil
}

func (c *config) quantity() dht11.Quantity {
	var q dht11.Quantity
	if c.humidity {
		q |= dht11.Humidity
	}
	if c.temp {
		q |= dht11.Temperature
	}
	return q
}

func run(args []string, stdout, stderr io.Writer) error {
	c, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}
	level := slog.LevelWarn
	if c.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	if _, err := host.Init(); err != nil {
		return err
	}
	p := gpioreg.ByName(c.pin)
	if p == nil {
		return fmt.Errorf("no pin %q", c.pin)
	}
	opts := dht11.DefaultOpts
	opts.Retries = c.retries
	opts.Logger = logger
	dev, err := dht11.New(p, &opts)
	if err != nil {
		return err
	}
	defer dev.Halt()

	var g *gauge.Strip
	if c.gauge {
		g = gauge.New(&gauge.Opts{W: stdout})
		defer g.Halt()
	}
	last, ok := sample(dev, p, c, g, stdout, logger)
	if ok && c.png != "" {
		if err := gauge.SavePNG(c.png, last, 256, 128); err != nil {
			return err
		}
	}
	return nil
}

// sample reads c.count samples and returns the last good one.
// Gauge write errors are logged and do not stop the sampling.
func sample(dev *dht11.Dev, p gpio.PinIO, c *config, g *gauge.Strip, stdout io.Writer, logger *slog.Logger) (dht11.Reading, bool) {
	var last dht11.Reading
	ok := false
	for i := 0; c.count == 0 || i < c.count; i++ {
		if i != 0 {
			time.Sleep(c.interval)
		}
		r, err := dev.Read(c.quantity())
		if err != nil {
			fmt.Fprintf(stdout, "Could not read data from sensor on %s: %v\n", p, err)
			continue
		}
		last, ok = r, true
		if g != nil {
			if err := g.Show(r); err != nil {
				logger.Warn("dht11: gauge update failed", "pin", p.String(), "err", err)
			}
			continue
		}
		fmt.Fprintln(stdout, r)
	}
	return last, ok
}
