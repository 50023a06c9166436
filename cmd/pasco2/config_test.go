// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pasco2.yaml")
	const data = `
bus: uart
uart: /dev/ttyUSB0
baud: 19200
period: 30s
alarm: 1500
pressure_hpa: 950
aboc: periodic
log_level: debug
pins:
  interrupt: GPIO17
  power_3v3: GPIO5
  power_3v3_active_low: true
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "uart", cfg.Bus)
	assert.Equal(t, "/dev/ttyUSB0", cfg.UART)
	assert.Equal(t, 19200, cfg.Baud)
	assert.Equal(t, 30*time.Second, cfg.Period)
	assert.Equal(t, 1500, cfg.Alarm)
	assert.Equal(t, 950, cfg.PressureHPa)
	assert.Equal(t, "periodic", cfg.ABOC)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "GPIO17", cfg.Pins.Interrupt)
	assert.True(t, cfg.Pins.Power3V3ActiveLow)
	// Defaults survive.
	assert.Equal(t, uint16(0x28), cfg.I2CAddr)
	assert.Equal(t, time.Second, cfg.Poll)
	assert.Equal(t, 400, cfg.CalibRef)
	assert.NoError(t, Validate(cfg))
}

func TestLoad_errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("period: [1, 2"), 0o600))
	_, err = Load(path)
	assert.ErrorContains(t, err, path)
}

func TestValidate(t *testing.T) {
	data := []struct {
		name string
		mod  func(c *Config)
		want string
	}{
		{"default", func(c *Config) {}, ""},
		{"bus", func(c *Config) { c.Bus = "spi" }, "unknown bus"},
		{"uart device", func(c *Config) { c.Bus = "uart" }, "uart device is required"},
		{"baud", func(c *Config) { c.Bus, c.UART, c.Baud = "uart", "/dev/ttyS0", 115200 }, "baud 115200"},
		{"pwm pin", func(c *Config) { c.Bus = "pwm" }, "pwm pin is required"},
		{"pwm", func(c *Config) { c.Bus, c.Pins.PWM, c.Sampling = "pwm", "GPIO27", "interrupt" }, ""},
		{"short period", func(c *Config) { c.Period = time.Second }, "period 1s outside"},
		{"long period", func(c *Config) { c.Period = 2 * time.Hour }, "period 2h0m0s outside"},
		{"fractional period", func(c *Config) { c.Period = 5500 * time.Millisecond }, "whole number"},
		{"poll", func(c *Config) { c.Poll = 0 }, "poll"},
		{"alarm", func(c *Config) { c.Alarm = -1 }, "alarm -1"},
		{"pressure", func(c *Config) { c.PressureHPa = 300 }, "pressure_hpa 300"},
		{"aboc", func(c *Config) { c.ABOC = "forced" }, "unknown aboc"},
		{"calib_ref", func(c *Config) { c.CalibRef = 100 }, "calib_ref 100"},
		{"sampling", func(c *Config) { c.Sampling = "dma" }, "unknown sampling"},
		{"log level", func(c *Config) { c.LogLevel = "DEBUG" }, ""},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, "log_level"},
	}
	for _, line := range data {
		t.Run(line.name, func(t *testing.T) {
			cfg := Default()
			line.mod(cfg)
			before := *cfg
			err := Validate(cfg)
			if line.want == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, line.want)
			}
			assert.Equal(t, before, *cfg)
		})
	}
}
