// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"strconv"
	"time"

	"github.com/GermanBionicSystems/pasco2"
	"github.com/GermanBionicSystems/pasco2/readout"
	"github.com/fogleman/gg"
	"periph.io/x/conn/v3/physic"
)

const (
	// singleTimeout bounds the wait for a single measurement.
	singleTimeout = 10 * time.Second
	// calibrateTimeout bounds the forced compensation.
	calibrateTimeout = 5 * time.Minute
)

// run executes the command in args on dev, printing to w.
func run(ctx context.Context, dev *pasco2.Dev, cfg *Config, args []string, w io.Writer) error {
	if len(args) == 0 {
		return errors.New("missing command")
	}
	var cmd func() error
	switch args[0] {
	case "read":
		cmd = func() error {
			ppm, err := measure(ctx, dev, cfg)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(w, ppm)
			return err
		}
	case "watch":
		cmd = func() error { return watch(ctx, dev, cfg, w) }
	case "png":
		if len(args) != 2 && len(args) != 4 {
			return errors.New("usage: png <file> [width height]")
		}
		r := image.Rect(0, 0, 250, 122)
		if len(args) == 4 {
			x, err1 := strconv.Atoi(args[2])
			y, err2 := strconv.Atoi(args[3])
			if err := errors.Join(err1, err2); err != nil {
				return err
			}
			r = image.Rect(0, 0, x, y)
		}
		cmd = func() error { return snapshot(ctx, dev, cfg, args[1], r) }
	case "diag":
		cmd = func() error {
			d, err := dev.Diagnosis()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(w, "sensor ready: %t\npwm pin enabled: %t\ntemperature out of range: %t\n12V out of range: %t\ncommunication error: %t\n",
				d.SensorReady, d.PWMPinEnabled, d.OutOfRangeTemp, d.OutOfRange12V, d.CommError)
			return err
		}
	case "status":
		cmd = func() error {
			st, err := dev.MeasStatus()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(w, "power: %s\ndata ready: %t\ninterrupt: %t\nalarm: %t\n",
				dev.Status(), st.DataReady, st.IntActive, st.AlarmActive)
			return err
		}
	case "id":
		cmd = func() error {
			id, err := dev.DeviceID()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(w, id)
			return err
		}
	case "reset":
		if len(args) != 2 {
			return errors.New("usage: reset soft|hard")
		}
		switch args[1] {
		case "soft":
			cmd = dev.SoftReset
		case "hard":
			cmd = dev.HardReset
		default:
			return fmt.Errorf("unknown reset %q", args[1])
		}
	case "calibrate":
		ref := cfg.CalibRef
		if len(args) > 1 {
			var err error
			if ref, err = strconv.Atoi(args[1]); err != nil {
				return err
			}
		}
		cmd = func() error {
			if err := dev.ForcedCompensation(pasco2.PPM(ref), calibrateTimeout); err != nil {
				return err
			}
			_, err := fmt.Fprintf(w, "calibrated at %s\n", pasco2.PPM(ref))
			return err
		}
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
	if err := dev.Enable(); err != nil {
		return err
	}
	return cmd()
}

// configure applies the compensation settings of cfg.
func configure(dev *pasco2.Dev, cfg *Config) error {
	if cfg.PressureHPa != 0 {
		if err := dev.SetPressureCompensation(physic.Pressure(cfg.PressureHPa) * 100 * physic.Pascal); err != nil {
			return err
		}
	}
	switch cfg.ABOC {
	case "off":
		return dev.DisableABOC()
	case "periodic":
		return dev.EnableABOC(pasco2.ABOCPeriodic, pasco2.PPM(cfg.CalibRef))
	}
	return nil
}

// measure triggers a single measurement and waits for its result.
func measure(ctx context.Context, dev *pasco2.Dev, cfg *Config) (pasco2.PPM, error) {
	if err := configure(dev, cfg); err != nil {
		return -1, err
	}
	if err := dev.StartMeasure(0, 0, nil); err != nil {
		return -1, err
	}
	defer func() { _ = dev.StopMeasure() }()
	ctx, cancel := context.WithTimeout(ctx, singleTimeout)
	defer cancel()
	t := time.NewTicker(cfg.Poll)
	defer t.Stop()
	for {
		ppm, err := dev.ReadCO2()
		if err != nil {
			return -1, err
		}
		if ppm != 0 {
			return ppm, nil
		}
		select {
		case <-ctx.Done():
			return -1, ctx.Err()
		case <-t.C:
		}
	}
}

// watch shows every new measurement on a bar graph until ctx is done.
func watch(ctx context.Context, dev *pasco2.Dev, cfg *Config, w io.Writer) error {
	if err := configure(dev, cfg); err != nil {
		return err
	}
	ready := make(chan struct{}, 1)
	var cb func()
	if cfg.Pins.Interrupt != "" {
		cb = func() {
			select {
			case ready <- struct{}{}:
			default:
			}
		}
	}
	if err := dev.StartMeasure(cfg.Period, pasco2.PPM(cfg.Alarm), cb); err != nil {
		return err
	}
	defer func() { _ = dev.StopMeasure() }()

	bar := readout.NewBar(&readout.Opts{W: w})
	defer bar.Halt()
	t := time.NewTicker(cfg.Poll)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ready:
		case <-t.C:
		}
		ppm, err := dev.ReadCO2()
		if err != nil {
			return err
		}
		if ppm == 0 {
			continue
		}
		if err := bar.Show(ppm); err != nil {
			return err
		}
	}
}

// snapshot renders a single measurement to a PNG file.
func snapshot(ctx context.Context, dev *pasco2.Dev, cfg *Config, path string, r image.Rectangle) error {
	ppm, err := measure(ctx, dev, cfg)
	if err != nil {
		return err
	}
	img, err := readout.Render(r, ppm)
	if err != nil {
		return err
	}
	return gg.SavePNG(path, img)
}
