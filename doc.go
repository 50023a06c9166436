// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package pasco2 controls Infineon XENSIV PAS CO2 photoacoustic sensors.
//
// The sensor can be reached over I²C, over its ASCII UART protocol or, with no
// serial bus at all, through the PWM output whose duty cycle is proportional
// to the CO2 concentration. A Dev sequences the two power rails (3.3 V logic
// and 12 V IR emitter), keeps a mirror of the 17 device registers and exposes
// measurement, alarm, interrupt, calibration and reset operations.
//
// Every operation raises the power state to what it needs, so calling Enable
// first is optional.
//
// Optional hardware (interrupt, protocol-select, PWM-select and power pins)
// may be left nil in Opts; the corresponding steps are then assumed to be
// handled externally.
//
// Datasheet
//
// https://www.infineon.com/dgdl/Infineon-PASCO2V01-DataSheet-v01_00-EN.pdf
package pasco2
