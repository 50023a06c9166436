// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/GermanBionicSystems/pasco2"
	"gopkg.in/yaml.v3"
)

// Config is the wiring of the sensor and the measurement settings.
type Config struct {
	// Bus is i2c, uart or pwm.
	Bus string `yaml:"bus"`
	// I2C is the I²C bus name, empty for the first one.
	I2C     string `yaml:"i2c"`
	I2CAddr uint16 `yaml:"i2c_addr"`
	UART    string `yaml:"uart"`
	Baud    int    `yaml:"baud"`

	Pins PinsConfig `yaml:"pins"`

	// Period of continuous measurements, 0 for single shots.
	Period time.Duration `yaml:"period"`
	// Poll is the interval between two reads in watch mode.
	Poll time.Duration `yaml:"poll"`
	// Alarm threshold in ppm, 0 to disable.
	Alarm int `yaml:"alarm"`
	// PressureHPa is the ambient pressure, 0 to keep the sensor default.
	PressureHPa int `yaml:"pressure_hpa"`
	// ABOC is off or periodic, empty to keep the sensor setting.
	ABOC string `yaml:"aboc"`
	// CalibRef is the baseline reference in ppm.
	CalibRef int `yaml:"calib_ref"`
	// Sampling is polling or interrupt, for the pwm bus.
	Sampling string `yaml:"sampling"`
	// LogLevel is debug, info, warn or error.
	LogLevel string `yaml:"log_level"`
}

// PinsConfig names the GPIO lines, as known to gpioreg. Empty means not
// connected.
type PinsConfig struct {
	PWM               string `yaml:"pwm"`
	Interrupt         string `yaml:"interrupt"`
	ProtoSelect       string `yaml:"proto_select"`
	Power3V3          string `yaml:"power_3v3"`
	Power3V3ActiveLow bool   `yaml:"power_3v3_active_low"`
	Power12V          string `yaml:"power_12v"`
	PWMSelect         string `yaml:"pwm_select"`
}

// Default returns the configuration used without a file.
func Default() *Config {
	return &Config{
		Bus:      "i2c",
		I2CAddr:  pasco2.I2CAddr,
		Baud:     pasco2.UARTBaud,
		Poll:     time.Second,
		CalibRef: 400,
		Sampling: "polling",
		LogLevel: "info",
	}
}

// Load reads a YAML configuration file on top of Default.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration. It does not modify it.
func Validate(cfg *Config) error {
	switch cfg.Bus {
	case "i2c":
	case "uart":
		if cfg.UART == "" {
			return fmt.Errorf("bus uart: uart device is required")
		}
		if cfg.Baud < pasco2.UARTBaud || cfg.Baud > pasco2.UARTBaudMax {
			return fmt.Errorf("baud %d outside [%d, %d]", cfg.Baud, pasco2.UARTBaud, pasco2.UARTBaudMax)
		}
	case "pwm":
		if cfg.Pins.PWM == "" {
			return fmt.Errorf("bus pwm: pwm pin is required")
		}
	default:
		return fmt.Errorf("unknown bus %q, want i2c, uart or pwm", cfg.Bus)
	}

	if cfg.Period != 0 && (cfg.Period < pasco2.MinMeasPeriod || cfg.Period > pasco2.MaxMeasPeriod) {
		return fmt.Errorf("period %s outside [%s, %s]", cfg.Period, pasco2.MinMeasPeriod, pasco2.MaxMeasPeriod)
	}
	if cfg.Period%time.Second != 0 {
		return fmt.Errorf("period %s is not a whole number of seconds", cfg.Period)
	}
	if cfg.Poll <= 0 {
		return fmt.Errorf("poll %s must be positive", cfg.Poll)
	}
	if cfg.Alarm < 0 || cfg.Alarm > 0xFFFF {
		return fmt.Errorf("alarm %d outside [0, 65535]", cfg.Alarm)
	}
	if cfg.PressureHPa != 0 && (cfg.PressureHPa < 600 || cfg.PressureHPa > 1600) {
		return fmt.Errorf("pressure_hpa %d outside [600, 1600]", cfg.PressureHPa)
	}
	switch cfg.ABOC {
	case "", "off", "periodic":
	default:
		return fmt.Errorf("unknown aboc %q, want off or periodic", cfg.ABOC)
	}
	if cfg.CalibRef < 350 || cfg.CalibRef > 1500 {
		return fmt.Errorf("calib_ref %d outside [350, 1500]", cfg.CalibRef)
	}
	switch cfg.Sampling {
	case "polling", "interrupt":
	default:
		return fmt.Errorf("unknown sampling %q, want polling or interrupt", cfg.Sampling)
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	return nil
}
