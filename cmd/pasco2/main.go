// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// pasco2 reads a PAS CO2 sensor.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"

	"github.com/mattn/go-colorable"
	"periph.io/x/host/v3"
)

const usage = `pasco2 - PAS CO2 sensor tool

Usage:
  pasco2 [flags] <command> [args]

Commands:
  read                 Take one measurement and print it
  watch                Measure continuously and show a bar graph
  png <file> [w h]     Take one measurement and render it to a PNG image
  diag                 Print the sensor status flags
  status               Print the measurement status
  id                   Print the product and revision identifiers
  reset soft|hard      Reset the sensor
  calibrate [ppm]      Run the forced compensation at the reference ppm

Flags:
`

func main() {
	cfgPath := flag.String("config", "", "YAML configuration file")
	bus := flag.String("bus", "", "transport: i2c, uart or pwm")
	i2cName := flag.String("i2c", "", "I²C bus name")
	uartName := flag.String("uart", "", "serial device")
	baud := flag.Int("baud", 0, "serial baud rate")
	pwmPin := flag.String("pwm", "", "GPIO connected to the PWM output")
	intPin := flag.String("int", "", "GPIO connected to the INT output")
	pwr3v3 := flag.String("pwr3v3", "", "GPIO switching the logic supply")
	pwr12v := flag.String("pwr12v", "", "GPIO switching the IR emitter supply")
	period := flag.Duration("period", 0, "continuous measurement period, 0 for single shots")
	verbose := flag.Bool("v", false, "verbose logging")
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg := Default()
	if *cfgPath != "" {
		var err error
		if cfg, err = Load(*cfgPath); err != nil {
			log.Fatalf("config load failed: %v", err)
		}
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "bus":
			cfg.Bus = *bus
		case "i2c":
			cfg.I2C = *i2cName
		case "uart":
			cfg.UART = *uartName
		case "baud":
			cfg.Baud = *baud
		case "pwm":
			cfg.Pins.PWM = *pwmPin
		case "int":
			cfg.Pins.Interrupt = *intPin
		case "pwr3v3":
			cfg.Pins.Power3V3 = *pwr3v3
		case "pwr12v":
			cfg.Pins.Power12V = *pwr12v
		case "period":
			cfg.Period = *period
		}
	})
	if err := Validate(cfg); err != nil {
		log.Fatalf("config validation failed: %v", err)
	}

	var level slog.Level
	_ = level.UnmarshalText([]byte(cfg.LogLevel))
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if _, err := host.Init(); err != nil {
		log.Fatalf("host init failed: %v", err)
	}
	dev, closeBus, err := open(cfg, logger)
	if err != nil {
		log.Fatalf("open failed: %v", err)
	}
	defer closeBus()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	err = run(ctx, dev, cfg, flag.Args(), colorable.NewColorableStdout())
	if err2 := dev.Disable(); err == nil {
		err = err2
	}
	if err != nil {
		closeBus()
		log.Fatalf("%s: %v", flag.Arg(0), err)
	}
}
