// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package pasco2

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/physic"
)

// Commands written to RegSensRst.
const (
	CmdSoftReset     byte = 0xA3
	CmdResetABOC     byte = 0xBC
	CmdSaveFCSOffset byte = 0xCF
	CmdResetFCS      byte = 0xFC
)

// Limits of the configurable values.
const (
	MinMeasPeriod = 5 * time.Second
	MaxMeasPeriod = 4095 * time.Second

	MinPressure = 600 * 100 * physic.Pascal
	MaxPressure = 1600 * 100 * physic.Pascal

	// fcsMeasPeriod is the measurement period used by forced compensation.
	fcsMeasPeriod = 10 * time.Second
)

// PPM is a CO2 concentration in parts per million.
type PPM int

func (p PPM) String() string {
	return fmt.Sprintf("%d PPM", int(p))
}

// OpMode is the measurement mode.
type OpMode byte

const (
	Idle OpMode = iota
	Single
	Continuous
)

func (m OpMode) String() string {
	switch m {
	case Idle:
		return "Idle"
	case Single:
		return "Single"
	case Continuous:
		return "Continuous"
	}
	return fmt.Sprintf("OpMode(%d)", m)
}

// PWMMode selects the PWM output waveform.
type PWMMode byte

const (
	SinglePulse PWMMode = iota
	PulseTrain
)

func (m PWMMode) String() string {
	if m == PulseTrain {
		return "PulseTrain"
	}
	return "SinglePulse"
}

// ABOC is the automatic baseline offset compensation mode.
type ABOC byte

const (
	ABOCDisabled ABOC = iota
	ABOCPeriodic
	ABOCForced
)

func (a ABOC) String() string {
	switch a {
	case ABOCDisabled:
		return "Disabled"
	case ABOCPeriodic:
		return "Periodic"
	case ABOCForced:
		return "Forced"
	}
	return fmt.Sprintf("ABOC(%d)", a)
}

// Int is the function of the interrupt pin.
type Int byte

const (
	IntDisabled Int = iota
	IntAlarm
	IntDataReady
	IntBusy
	IntEarlyMeas
)

func (i Int) String() string {
	switch i {
	case IntDisabled:
		return "Disabled"
	case IntAlarm:
		return "Alarm"
	case IntDataReady:
		return "DataReady"
	case IntBusy:
		return "Busy"
	case IntEarlyMeas:
		return "EarlyMeas"
	}
	return fmt.Sprintf("Int(%d)", i)
}

// IntIOConf is the electrical configuration of the interrupt pin.
type IntIOConf byte

const (
	IntActiveLow IntIOConf = iota
	IntActiveHigh
)

func (c IntIOConf) String() string {
	if c == IntActiveHigh {
		return "ActiveHigh"
	}
	return "ActiveLow"
}

// Alarm selects the threshold crossing that raises the alarm.
type Alarm byte

const (
	CrossDown Alarm = iota
	CrossUp
)

func (a Alarm) String() string {
	if a == CrossUp {
		return "CrossUp"
	}
	return "CrossDown"
}

// Diag is the decoded sensor status register.
type Diag struct {
	SensorReady    bool
	PWMPinEnabled  bool
	OutOfRangeTemp bool
	OutOfRange12V  bool
	CommError      bool
}

// Err converts the sticky error flags to an error code, nil when none is
// set.
func (d *Diag) Err() error {
	switch {
	case d.OutOfRangeTemp:
		return ErrICTemp
	case d.OutOfRange12V:
		return ErrICPower12V
	case d.CommError:
		return ErrICComm
	}
	return nil
}

// MeasStatus is the decoded measurement status register.
type MeasStatus struct {
	DataReady   bool
	IntActive   bool
	AlarmActive bool
}

// DeviceID is the product and revision identifier.
type DeviceID struct {
	Product  byte
	Revision byte
}

func (id DeviceID) String() string {
	return fmt.Sprintf("product %d rev %d", id.Product, id.Revision)
}
