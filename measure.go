// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package pasco2

import (
	"time"

	"periph.io/x/conn/v3/physic"
)

// Enable initializes the resources and powers the sensor fully on.
func (d *Dev) Enable() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.init(); err != nil {
		return err
	}
	if err := d.enableIREmitter(); err != nil {
		return err
	}
	return d.enableLogic()
}

// Disable powers the sensor off and releases the resources.
func (d *Dev) Disable() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.disableIREmitter(); err != nil {
		return err
	}
	if err := d.disableLogic(); err != nil {
		return err
	}
	return d.deinit()
}

// MeasureOpts configures StartMeasureWith.
type MeasureOpts struct {
	// Period > 0 selects continuous measurement at that period, else a
	// single measurement is triggered.
	Period time.Duration
	// AlarmTh > 0 raises the alarm when the concentration rises above it.
	AlarmTh PPM
	// Callback is called on the interrupt pin for data ready, or for the
	// alarm when a threshold is set.
	Callback func()
	// EarlyNotification sets the sensor interrupt output just before each
	// measurement instead, e.g. to switch the 12 V supply on only while the
	// sensor measures. It replaces the alarm interrupt.
	EarlyNotification bool
}

// StartMeasure starts measuring. It is StartMeasureWith without early
// notification.
//
// Without a serial bus, the PWM output is enabled and cb is called on the
// early measurement notification; period and alarmTh are ignored.
func (d *Dev) StartMeasure(period time.Duration, alarmTh PPM, cb func()) error {
	return d.StartMeasureWith(&MeasureOpts{Period: period, AlarmTh: alarmTh, Callback: cb})
}

// StartMeasureWith puts the sensor in idle mode, configures the rate, the
// alarm and the interrupt output as described by o, then starts measuring.
func (d *Dev) StartMeasureWith(o *MeasureOpts) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.opts.Bus == nil {
		return d.startPulse(o.Callback)
	}
	if err := d.setStatus(LogicOn, true); err != nil {
		return err
	}
	if err := d.read(RegMeasCfg, 1); err != nil {
		return err
	}
	if err := d.setOpMode(Idle); err != nil {
		return err
	}
	mode := Single
	kind := IntDataReady
	if o.Period > 0 {
		if err := d.setMeasPeriod(o.Period); err != nil {
			return err
		}
		mode = Continuous
	}
	if o.AlarmTh > 0 {
		if err := d.enableAlarm(o.AlarmTh, CrossUp); err != nil {
			return err
		}
		kind = IntAlarm
	} else if err := d.disableAlarm(); err != nil {
		return err
	}
	if o.EarlyNotification {
		kind = IntEarlyMeas
	}
	if err := d.attachInterrupt(o.Callback, kind); err != nil {
		return err
	}
	d.log.Debug("pasco2: start", "mode", mode, "period", o.Period, "alarm", o.AlarmTh, "early", o.EarlyNotification)
	return d.setOpMode(mode)
}

func (d *Dev) startPulse(cb func()) error {
	if err := d.switchPWM(true); err != nil {
		return err
	}
	return d.attachInterrupt(cb, IntEarlyMeas)
}

// attachInterrupt programs the sensor interrupt output and attaches cb.
// Without a callback the output is disabled, except for the early
// notification which may drive external hardware.
func (d *Dev) attachInterrupt(cb func(), kind Int) error {
	if cb != nil || (kind == IntEarlyMeas && d.opts.Bus != nil) {
		return d.enableInterrupt(cb, kind, IntActiveHigh)
	}
	return d.disableInterrupt()
}

// StopMeasure returns the sensor to idle, or disables the PWM output when
// there is no serial bus.
func (d *Dev) StopMeasure() error {
	if d.opts.Bus == nil {
		return d.DisablePWM()
	}
	return d.SetOpMode(Idle)
}

// ReadCO2 returns the concentration when a new measurement is available.
// Over a serial bus it returns 0 when no new data is ready.
func (d *Dev) ReadCO2() (PPM, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.opts.Bus != nil {
		st, err := d.measStatus()
		if err != nil {
			return -1, err
		}
		if !st.DataReady {
			return 0, nil
		}
	}
	return d.co2()
}

// Calibrate configures the baseline offset compensation and the pressure
// compensation.
func (d *Dev) Calibrate(mode ABOC, ref PPM, p physic.Pressure) error {
	if err := d.EnableABOC(mode, ref); err != nil {
		return err
	}
	return d.SetPressureCompensation(p)
}

// Reset soft resets the sensor over the serial bus, or power cycles it when
// there is no serial bus.
func (d *Dev) Reset() error {
	if d.opts.Bus == nil {
		return d.HardReset()
	}
	return d.SoftReset()
}
