// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package pasco2

import (
	"github.com/goburrow/serial"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
	"tinygo.org/x/drivers"
)

// TinyGoI2C adapts a TinyGo I²C bus, e.g. machine.I2C0, to i2c.Bus so it
// can be used with NewI2C.
type TinyGoI2C struct {
	Bus drivers.I2C
}

func (t *TinyGoI2C) String() string {
	return "tinygo-i2c"
}

// Tx implements i2c.Bus.
func (t *TinyGoI2C) Tx(addr uint16, w, r []byte) error {
	return t.Bus.Tx(addr, w, r)
}

// SetSpeed implements i2c.Bus. The frequency is set when the TinyGo bus is
// configured, so this is a no-op.
func (t *TinyGoI2C) SetSpeed(f physic.Frequency) error {
	return nil
}

// TinyGoUART adapts a TinyGo UART, e.g. machine.UART1, to serial.Port so it
// can be used with NewUART. The UART must be configured by the caller; Open
// and Close do nothing.
type TinyGoUART struct {
	UART drivers.UART
}

// Open implements serial.Port.
func (t *TinyGoUART) Open(*serial.Config) error {
	return nil
}

// Close implements serial.Port.
func (t *TinyGoUART) Close() error {
	return nil
}

// Read implements serial.Port. It returns serial.ErrTimeout when no byte is
// buffered, so the caller keeps polling until its frame deadline.
func (t *TinyGoUART) Read(b []byte) (int, error) {
	if t.UART.Buffered() == 0 {
		return 0, serial.ErrTimeout
	}
	return t.UART.Read(b)
}

// Write implements serial.Port.
func (t *TinyGoUART) Write(b []byte) (int, error) {
	return t.UART.Write(b)
}

// Update implements drivers.Sensor. Only drivers.Concentration is measured;
// read the value with LastCO2.
func (d *Dev) Update(which drivers.Measurement) error {
	if which&drivers.Concentration == 0 {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	v, err := d.co2()
	if err != nil {
		return err
	}
	d.last = v
	return nil
}

// LastCO2 returns the concentration read by the last Update.
func (d *Dev) LastCO2() PPM {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.last
}

var _ i2c.Bus = &TinyGoI2C{}
var _ serial.Port = &TinyGoUART{}
var _ drivers.Sensor = &Dev{}
