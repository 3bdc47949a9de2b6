// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package dht11 reads an AOSONG DHT11 temperature/humidity sensor over its
// single-wire, pulse-width encoded protocol.
//
// The host pulls the data line low for at least 18ms, then releases it. The
// sensor answers with 80µs low and 80µs high, then sends 40 bits. Every bit
// starts with ~50µs low; the length of the following high level encodes the
// value (~26µs for 0, ~70µs for 1). The 5 bytes received are humidity,
// humidity fraction, temperature, temperature fraction and an 8-bit sum.
//
// The DHT11 only reports whole units, so readings have a resolution of
// 1%RH and 1°C. Negative temperatures are not supported by the part.
//
// The sensor must rest at least one second between two reads, two is safer.
// Dev enforces this gap with Opts.MinInterval.
//
// There is no edge interrupt on the wire: pulse widths are measured by busy
// polling the pin while preemption is suspended, see TimingWindow.
//
// # Datasheet
//
// https://www.mouser.com/datasheet/2/758/DHT11-Technical-Data-Sheet-Translated-Version-1143054.pdf
package dht11
