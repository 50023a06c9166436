// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package pasco2

import (
	"errors"
	"fmt"
	"time"
)

// fcsPollInterval is the wait between two checks of the forced
// compensation state.
const fcsPollInterval = time.Second

// ResetABOCContext clears the automatic baseline offset compensation
// history.
func (d *Dev) ResetABOCContext() error {
	return d.Command(CmdResetABOC)
}

// SaveForcedCalibrationOffset stores the offset computed by the last forced
// compensation in the sensor non-volatile memory.
func (d *Dev) SaveForcedCalibrationOffset() error {
	return d.Command(CmdSaveFCSOffset)
}

// ResetForcedCalibration discards the stored forced compensation offset.
func (d *Dev) ResetForcedCalibration() error {
	return d.Command(CmdResetFCS)
}

// Command writes cmd to the reset register. Use SoftReset for CmdSoftReset
// so the configuration is restored.
func (d *Dev) Command(cmd byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.opts.Bus == nil {
		return nil
	}
	if err := d.setStatus(LogicOn, true); err != nil {
		return err
	}
	return d.command(cmd)
}

func (d *Dev) command(cmd byte) error {
	d.log.Debug("pasco2: command", "cmd", fmt.Sprintf("0x%02x", cmd))
	d.reg.Set(fieldSRTrg, cmd)
	return d.write(RegSensRst, 1)
}

// ForcedCompensation calibrates the sensor against a known concentration
// ref, then saves the resulting offset.
//
// The sensor must be exposed to ref for the whole procedure, which runs
// continuous measurements every 10 seconds until the sensor leaves the
// forced compensation mode. It fails if that takes longer than timeout.
// The sensor is left idle.
func (d *Dev) ForcedCompensation(ref PPM, timeout time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.opts.Bus == nil {
		return nil
	}
	if err := d.setStatus(LogicOn, true); err != nil {
		return err
	}
	d.log.Debug("pasco2: forced compensation", "ref", ref, "timeout", timeout)
	if err := d.read(RegMeasCfg, 1); err != nil {
		return err
	}
	if err := d.setOpMode(Idle); err != nil {
		return err
	}
	if err := d.setMeasPeriod(fcsMeasPeriod); err != nil {
		return err
	}
	d.reg.setWord(RegCalibRefH, uint16(ref))
	if err := d.write(RegCalibRefH, 2); err != nil {
		return err
	}
	d.reg.Set(fieldOpMode, byte(Continuous))
	d.reg.Set(fieldBOCCfg, byte(ABOCForced))
	if err := d.write(RegMeasCfg, 1); err != nil {
		return err
	}
	for waited := time.Duration(0); ; waited += fcsPollInterval {
		if err := d.read(RegMeasCfg, 1); err != nil {
			return err
		}
		if v, _ := d.reg.Get(fieldBOCCfg); ABOC(v) != ABOCForced {
			break
		}
		if waited >= timeout {
			return opErr("forced compensation", ErrIntf, errors.New("timed out"))
		}
		if err := d.delay(fcsPollInterval); err != nil {
			return err
		}
	}
	if err := d.setOpMode(Idle); err != nil {
		return err
	}
	return d.command(CmdSaveFCSOffset)
}
