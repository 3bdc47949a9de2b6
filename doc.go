// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package devices is a container for the DHT11 single-wire sensor driver
// and the tools around it.
//
// See dht11 for the driver, dht11/dht11test to test code using it without
// hardware, gauge to display readings and cmd/dht11 for a command line tool.
package devices
