// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package pasco2

import (
	"errors"
	"strconv"
)

// Error is a driver error code. A nil error means success.
type Error int

// Error codes returned by the driver.
const (
	// ErrIntf is a transport failure on the serial bus, PWM line or timer.
	ErrIntf Error = -1
	// ErrReset means a reset could not be verified as completed.
	ErrReset Error = -2
	// ErrConfig is an invalid argument or a missing resource.
	ErrConfig Error = -3
	// ErrIC is a generic device-internal error.
	ErrIC Error = -14
	// ErrICPowerOn means the sensor did not report ready after power up.
	ErrICPowerOn Error = -15
	// ErrICPower12V means the 12 V supply is out of range.
	ErrICPower12V Error = -16
	// ErrICTemp means the sensor temperature is out of range.
	ErrICTemp Error = -17
	// ErrICComm means the sensor reported an internal communication error.
	ErrICComm Error = -18
)

func (e Error) Error() string {
	switch e {
	case ErrIntf:
		return "pasco2: interface error"
	case ErrReset:
		return "pasco2: reset error"
	case ErrConfig:
		return "pasco2: configuration error"
	case ErrIC:
		return "pasco2: sensor error"
	case ErrICPowerOn:
		return "pasco2: sensor power on error"
	case ErrICPower12V:
		return "pasco2: sensor 12V supply out of range"
	case ErrICTemp:
		return "pasco2: sensor temperature out of range"
	case ErrICComm:
		return "pasco2: sensor communication error"
	}
	return "pasco2: error " + strconv.Itoa(int(e))
}

// OpError annotates an error code with the failing operation and its cause.
type OpError struct {
	Op   string
	Code Error
	Err  error
}

func (e *OpError) Error() string {
	s := "pasco2: " + e.Op
	if e.Err != nil {
		return s + ": " + e.Err.Error()
	}
	return s + ": " + e.Code.Error()[len("pasco2: "):]
}

func (e *OpError) Unwrap() error {
	return e.Err
}

// Is reports whether target is the code carried by e.
func (e *OpError) Is(target error) bool {
	c, ok := target.(Error)
	return ok && c == e.Code
}

// CodeOf returns the error code carried by err. It returns 0 for nil and
// ErrIntf for errors that do not come from this package.
func CodeOf(err error) Error {
	if err == nil {
		return 0
	}
	var op *OpError
	if errors.As(err, &op) {
		return op.Code
	}
	var c Error
	if errors.As(err, &c) {
		return c
	}
	return ErrIntf
}

func opErr(op string, code Error, err error) error {
	return &OpError{Op: op, Code: code, Err: err}
}
