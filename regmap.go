// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package pasco2

// Register addresses.
const (
	RegProdID     byte = 0x00
	RegSensSts    byte = 0x01
	RegMeasRateH  byte = 0x02
	RegMeasRateL  byte = 0x03
	RegMeasCfg    byte = 0x04
	RegCO2PPMH    byte = 0x05
	RegCO2PPML    byte = 0x06
	RegMeasSts    byte = 0x07
	RegIntCfg     byte = 0x08
	RegAlarmThH   byte = 0x09
	RegAlarmThL   byte = 0x0A
	RegPressRefH  byte = 0x0B
	RegPressRefL  byte = 0x0C
	RegCalibRefH  byte = 0x0D
	RegCalibRefL  byte = 0x0E
	RegScratchPad byte = 0x0F
	RegSensRst    byte = 0x10

	// NumRegs is the size of the register map.
	NumRegs = 17
)

// Access describes how a bit field may be used.
type Access uint8

// Access kinds. H marks bits updated by the device, S sticky bits that stay
// set until cleared.
const (
	AccessR        Access = 0x01
	AccessW        Access = 0x02
	AccessRW       Access = 0x03
	AccessRH       Access = 0x05
	AccessRWH      Access = 0x07
	AccessS        Access = 0x08
	AccessRHS      Access = 0x0D
	AccessReserved Access = 0x10
)

// Readable reports whether the field can be read.
func (a Access) Readable() bool {
	return a&AccessR == AccessR
}

// Writable reports whether the field can be written.
func (a Access) Writable() bool {
	return a&AccessW == AccessW
}

// Field describes a bit field inside a register.
type Field struct {
	Name   string
	Access Access
	Addr   byte
	Mask   byte
	Pos    uint8
	// Reset is the power-on value of the whole register.
	Reset byte
}

// Width returns the number of bits in the field.
func (f Field) Width() int {
	n := 0
	for m := f.Mask >> f.Pos; m != 0; m >>= 1 {
		n++
	}
	return n
}

var (
	fieldProd       = Field{"PROD", AccessR, RegProdID, 0xE0, 5, 0}
	fieldRev        = Field{"REV", AccessR, RegProdID, 0x1F, 0, 0}
	fieldSenRdy     = Field{"SEN_RDY", AccessRH, RegSensSts, 0x80, 7, 0x80}
	fieldPWMDisSt   = Field{"PWM_DIS_ST", AccessRH, RegSensSts, 0x40, 6, 0x80}
	fieldORTmp      = Field{"ORTMP", AccessRHS, RegSensSts, 0x20, 5, 0x80}
	fieldORVS       = Field{"ORVS", AccessRHS, RegSensSts, 0x10, 4, 0x80}
	fieldICCErr     = Field{"ICCER", AccessRHS, RegSensSts, 0x08, 3, 0x80}
	fieldORTmpClr   = Field{"ORTMP_CLR", AccessW, RegSensSts, 0x04, 2, 0x80}
	fieldORVSClr    = Field{"ORVS_CLR", AccessW, RegSensSts, 0x02, 1, 0x80}
	fieldICCErrClr  = Field{"ICCER_CLR", AccessW, RegSensSts, 0x01, 0, 0x80}
	fieldRes0       = Field{"RES0", AccessReserved, RegMeasRateH, 0xF0, 4, 0}
	fieldMeasRateH  = Field{"MEAS_RATE_H", AccessRW, RegMeasRateH, 0x0F, 0, 0}
	fieldMeasRateL  = Field{"MEAS_RATE_L", AccessRW, RegMeasRateL, 0xFF, 0, 0x32}
	fieldRes1       = Field{"RES1", AccessReserved, RegMeasCfg, 0x80, 7, 0x22}
	fieldRes2       = Field{"RES2", AccessReserved, RegMeasCfg, 0x40, 6, 0x22}
	fieldPWMOutEn   = Field{"PWM_OUTEN", AccessRWH, RegMeasCfg, 0x20, 5, 0x22}
	fieldPWMMode    = Field{"PWM_MODE", AccessRW, RegMeasCfg, 0x10, 4, 0x22}
	fieldBOCCfg     = Field{"BOC_CFG", AccessRWH, RegMeasCfg, 0x0C, 2, 0x22}
	fieldOpMode     = Field{"OP_MODE", AccessRWH, RegMeasCfg, 0x03, 0, 0x22}
	fieldCO2H       = Field{"CO2_H", AccessR, RegCO2PPMH, 0xFF, 0, 0}
	fieldCO2L       = Field{"CO2_L", AccessR, RegCO2PPML, 0xFF, 0, 0}
	fieldRes3       = Field{"RES3", AccessReserved, RegMeasSts, 0xC0, 6, 0}
	fieldRes4       = Field{"RES4", AccessReserved, RegMeasSts, 0x20, 5, 0}
	fieldDRdy       = Field{"DRDY", AccessRHS, RegMeasSts, 0x10, 4, 0}
	fieldIntSts     = Field{"INT_STS", AccessRHS, RegMeasSts, 0x08, 3, 0}
	fieldAlarm      = Field{"ALARM", AccessRHS, RegMeasSts, 0x04, 2, 0}
	fieldIntStsClr  = Field{"INT_STS_CLR", AccessW, RegMeasSts, 0x02, 1, 0}
	fieldAlarmClr   = Field{"ALARM_CLR", AccessW, RegMeasSts, 0x01, 0, 0}
	fieldRes5       = Field{"RES5", AccessReserved, RegIntCfg, 0xE0, 5, 0}
	fieldIntTyp     = Field{"INT_TYP", AccessRW, RegIntCfg, 0x10, 4, 0}
	fieldIntFunc    = Field{"INT_FUNC", AccessRW, RegIntCfg, 0x0E, 1, 0}
	fieldAlarmTyp   = Field{"ALARM_TYP", AccessRW, RegIntCfg, 0x01, 0, 0}
	fieldAlarmThH   = Field{"ALARM_TH_H", AccessRW, RegAlarmThH, 0xFF, 0, 0}
	fieldAlarmThL   = Field{"ALARM_TH_L", AccessRW, RegAlarmThL, 0xFF, 0, 0}
	fieldPressRefH  = Field{"PRESS_REF_H", AccessRW, RegPressRefH, 0xFF, 0, 0x03}
	fieldPressRefL  = Field{"PRESS_REF_L", AccessRW, RegPressRefL, 0xFF, 0, 0xF7}
	fieldCalibRefH  = Field{"CALIB_REF_H", AccessRW, RegCalibRefH, 0xFF, 0, 0}
	fieldCalibRefL  = Field{"CALIB_REF_L", AccessRW, RegCalibRefL, 0xFF, 0, 0}
	fieldScratchPad = Field{"SCRATCH_PAD", AccessRW, RegScratchPad, 0xFF, 0, 0}
	fieldSRTrg      = Field{"SRTRG", AccessW, RegSensRst, 0xFF, 0, 0}
)

// fields lists every bit field, in register order.
var fields = []Field{
	fieldProd, fieldRev,
	fieldSenRdy, fieldPWMDisSt, fieldORTmp, fieldORVS, fieldICCErr, fieldORTmpClr, fieldORVSClr, fieldICCErrClr,
	fieldRes0, fieldMeasRateH,
	fieldMeasRateL,
	fieldRes1, fieldRes2, fieldPWMOutEn, fieldPWMMode, fieldBOCCfg, fieldOpMode,
	fieldCO2H,
	fieldCO2L,
	fieldRes3, fieldRes4, fieldDRdy, fieldIntSts, fieldAlarm, fieldIntStsClr, fieldAlarmClr,
	fieldRes5, fieldIntTyp, fieldIntFunc, fieldAlarmTyp,
	fieldAlarmThH,
	fieldAlarmThL,
	fieldPressRefH,
	fieldPressRefL,
	fieldCalibRefH,
	fieldCalibRefL,
	fieldScratchPad,
	fieldSRTrg,
}

// RegMap is the host copy of the device registers.
//
// It is not authoritative. Refresh it with a read before any
// read-modify-write that depends on bits the device maintains.
type RegMap [NumRegs]byte

// Get returns the value of f. It returns false if f is not readable.
func (m *RegMap) Get(f Field) (byte, bool) {
	if !f.Access.Readable() || int(f.Addr) >= len(m) {
		return 0, false
	}
	return (m[f.Addr] & f.Mask) >> f.Pos, true
}

// Set stores v into f, leaving the other bits of the register untouched. It
// returns false if f is not writable.
func (m *RegMap) Set(f Field, v byte) bool {
	if !f.Access.Writable() || int(f.Addr) >= len(m) {
		return false
	}
	m[f.Addr] = (m[f.Addr] &^ f.Mask) | ((v << f.Pos) & f.Mask)
	return true
}

// Reset loads the documented power-on values.
func (m *RegMap) Reset() {
	for _, f := range fields {
		m[f.Addr] = f.Reset
	}
}

// word assembles a big-endian 16-bit value from two consecutive registers.
func (m *RegMap) word(addr byte) uint16 {
	return uint16(m[addr])<<8 | uint16(m[addr+1])
}

// setWord splits v over two consecutive registers, high byte first.
func (m *RegMap) setWord(addr byte, v uint16) {
	m[addr] = byte(v >> 8)
	m[addr+1] = byte(v)
}
