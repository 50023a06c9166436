// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package pasco2

import (
	"fmt"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
)

const (
	// I2CAddr is the only I²C address of the sensor.
	I2CAddr uint16 = 0x28
	// I2CSpeed is the default bus frequency.
	I2CSpeed = 400 * physic.KiloHertz
)

// I2COpts configures an I2C channel.
type I2COpts struct {
	// Addr defaults to I2CAddr.
	Addr uint16
	// Speed defaults to I2CSpeed. Set it negative to leave the bus speed
	// untouched.
	Speed physic.Frequency
}

// I2C is a Channel over an I²C bus. Multi-byte accesses rely on the sensor
// auto-incrementing the register address.
type I2C struct {
	d     *i2c.Dev
	speed physic.Frequency
}

// NewI2C returns a Channel on bus b. opts may be nil.
func NewI2C(b i2c.Bus, opts *I2COpts) *I2C {
	c := &I2C{d: &i2c.Dev{Bus: b, Addr: I2CAddr}, speed: I2CSpeed}
	if opts != nil {
		if opts.Addr != 0 {
			c.d.Addr = opts.Addr
		}
		if opts.Speed != 0 {
			c.speed = opts.Speed
		}
	}
	return c
}

func (c *I2C) String() string {
	return fmt.Sprintf("pasco2.I2C{%s}", c.d)
}

// Init sets the bus frequency.
func (c *I2C) Init() error {
	if c.speed < 0 {
		return nil
	}
	if err := c.d.Bus.SetSpeed(c.speed); err != nil {
		return opErr("i2c init", ErrIntf, err)
	}
	return nil
}

// Deinit implements Channel. The bus is not owned by the channel.
func (c *I2C) Deinit() error {
	return nil
}

// Read reads len(buf) registers starting at addr.
func (c *I2C) Read(addr byte, buf []byte) error {
	if err := c.d.Tx([]byte{addr}, buf); err != nil {
		return opErr(fmt.Sprintf("i2c read 0x%02x", addr), ErrIntf, err)
	}
	return nil
}

// Write writes buf to consecutive registers starting at addr.
func (c *I2C) Write(addr byte, buf []byte) error {
	w := make([]byte, 0, len(buf)+1)
	w = append(w, addr)
	w = append(w, buf...)
	if err := c.d.Tx(w, nil); err != nil {
		return opErr(fmt.Sprintf("i2c write 0x%02x", addr), ErrIntf, err)
	}
	return nil
}

// Protocol implements Channel.
func (c *I2C) Protocol() Protocol {
	return ProtoI2C
}

var _ Channel = &I2C{}
