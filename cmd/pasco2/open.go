// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"fmt"
	"log/slog"

	"github.com/GermanBionicSystems/pasco2"
	"github.com/goburrow/serial"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c/i2creg"
)

// open builds the controller described by cfg. The returned function
// releases the bus.
func open(cfg *Config, logger *slog.Logger) (*pasco2.Dev, func(), error) {
	opts := pasco2.Opts{Timer: pasco2.NewTimer(), Logger: logger}
	closer := func() {}

	pins := []struct {
		name string
		dst  *pasco2.GPIO
		opts pasco2.PinOpts
	}{
		{cfg.Pins.Interrupt, &opts.Interrupt, pasco2.PinOpts{Input: true}},
		{cfg.Pins.ProtoSelect, &opts.ProtoSelect, pasco2.PinOpts{}},
		{cfg.Pins.Power3V3, &opts.Power3V3, pasco2.PinOpts{ActiveLow: cfg.Pins.Power3V3ActiveLow}},
		{cfg.Pins.Power12V, &opts.Power12V, pasco2.PinOpts{}},
		{cfg.Pins.PWMSelect, &opts.PWMSelect, pasco2.PinOpts{}},
	}
	for _, p := range pins {
		if p.name == "" {
			continue
		}
		pin, err := openPin(p.name, &p.opts)
		if err != nil {
			return nil, closer, err
		}
		*p.dst = pin
	}

	switch cfg.Bus {
	case "i2c":
		b, err := i2creg.Open(cfg.I2C)
		if err != nil {
			return nil, closer, err
		}
		closer = func() { _ = b.Close() }
		opts.Bus = pasco2.NewI2C(b, &pasco2.I2COpts{Addr: cfg.I2CAddr})
	case "uart":
		ch, err := pasco2.NewUART(serial.New(), &pasco2.UARTOpts{Address: cfg.UART, Baud: cfg.Baud})
		if err != nil {
			return nil, closer, err
		}
		opts.Bus = ch
	case "pwm":
		pin, err := openPin(cfg.Pins.PWM, &pasco2.PinOpts{Input: true})
		if err != nil {
			return nil, closer, err
		}
		mode := pasco2.SamplePolling
		if cfg.Sampling == "interrupt" {
			mode = pasco2.SampleInterrupt
		}
		pwm, err := pasco2.NewPWM(pin, pasco2.NewTimer(), &pasco2.PWMOpts{Mode: mode})
		if err != nil {
			return nil, closer, err
		}
		opts.PWM = pwm
	}

	dev, err := pasco2.New(&opts)
	return dev, closer, err
}

func openPin(name string, opts *pasco2.PinOpts) (*pasco2.Pin, error) {
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("unknown pin %q", name)
	}
	return pasco2.NewPin(p, opts)
}
