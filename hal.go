// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package pasco2

import (
	"time"

	"periph.io/x/conn/v3/gpio"
)

// Protocol identifies the serial protocol spoken by a Channel.
type Protocol int

const (
	ProtoI2C Protocol = iota
	ProtoUART
)

func (p Protocol) String() string {
	switch p {
	case ProtoI2C:
		return "I2C"
	case ProtoUART:
		return "UART"
	}
	return "Protocol(?)"
}

// Channel is a register transport to the sensor.
//
// Read and Write access len(buf) consecutive registers starting at addr.
type Channel interface {
	Init() error
	Deinit() error
	Read(addr byte, buf []byte) error
	Write(addr byte, buf []byte) error
	Protocol() Protocol
}

// GPIO is a pin used by the controller.
//
// Enable and Disable drive the pin to its active or inactive level, taking
// the pin polarity into account. EnableInt calls cb on every edge until
// DisableInt is called; cb must not block.
type GPIO interface {
	Init() error
	Deinit() error
	EnableInt(cb func()) error
	DisableInt() error
	LastEdge() gpio.Edge
	Read() gpio.Level
	Write(l gpio.Level) error
	Enable() error
	Disable() error
}

// Timer is a free running timer.
type Timer interface {
	Init() error
	Deinit() error
	Start() error
	// Elapsed returns the time since Start.
	Elapsed() (time.Duration, error)
	Stop() error
	Delay(d time.Duration) error
}

// DutySource measures the duty cycle of the sensor PWM output.
type DutySource interface {
	Init() error
	Deinit() error
	// Duty returns the high time in percent, 0 if no pulse was seen.
	Duty() (float64, error)
}
