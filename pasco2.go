// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package pasco2

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
)

// Status is the power and lifecycle state of the controller.
//
// Inited is implied by every other non zero state. On is LogicOn|IROn.
type Status byte

const (
	Uninited Status = 0
	Inited   Status = 1
	power3V3 Status = 2
	power12V Status = 4
	LogicOn         = Inited | power3V3
	IROn            = Inited | power12V
	On              = LogicOn | IROn
)

func (s Status) String() string {
	switch s {
	case Uninited:
		return "Uninited"
	case Inited:
		return "Inited"
	case LogicOn:
		return "LogicOn"
	case IROn:
		return "IROn"
	case On:
		return "On"
	}
	return fmt.Sprintf("Status(%d)", byte(s))
}

// has reports whether s implies t.
func (s Status) has(t Status) bool {
	return s&t == t
}

// Delays of the power and reset sequences.
const (
	startupDelay   = 200 * time.Millisecond
	powerOffDelay  = 200 * time.Millisecond
	softResetDelay = 2 * time.Second
	// scratchSentinel is written to the scratch pad before a reset. The
	// sensor clears it when the reset completes.
	scratchSentinel = 0xEE
)

// Opts holds the resources used by the controller.
//
// At least one of Bus and PWM is required. Every other resource is
// optional: when a pin is nil the matching step is assumed to be handled
// externally and succeeds. Do not store typed nil pointers in these fields.
type Opts struct {
	// Bus is the serial channel, I2C or UART.
	Bus Channel
	// PWM reads the concentration from the PWM output when there is no Bus.
	PWM DutySource
	// Timer provides the reset and power-up delays. time.Sleep is used when
	// nil.
	Timer Timer
	// Interrupt is the sensor INT output.
	Interrupt GPIO
	// ProtoSelect is the PSEL input of the sensor; it is driven low for I²C
	// and high for UART.
	ProtoSelect GPIO
	// Power3V3 switches the logic supply.
	Power3V3 GPIO
	// Power12V switches the IR emitter supply.
	Power12V GPIO
	// PWMSelect is the PWM_DIS input of the sensor.
	PWMSelect GPIO
	// Logger receives debug traces of power and reset sequences.
	Logger *slog.Logger
}

// Dev is a handle to a PAS CO2 sensor.
type Dev struct {
	mu     sync.Mutex
	opts   Opts
	log    *slog.Logger
	reg    RegMap
	status Status
	// Last value read by Update.
	last PPM
}

// New returns a controller for the resources in opts. Nothing is touched
// until the first operation.
func New(opts *Opts) (*Dev, error) {
	if opts == nil || (opts.Bus == nil && opts.PWM == nil) {
		return nil, opErr("new", ErrIntf, errors.New("a serial bus or a PWM input is required"))
	}
	d := &Dev{opts: *opts, log: opts.Logger}
	if d.log == nil {
		d.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	d.reg.Reset()
	return d, nil
}

func (d *Dev) String() string {
	if d.opts.Bus != nil {
		return fmt.Sprintf("pasco2{%s}", d.opts.Bus.Protocol())
	}
	return "pasco2{PWM}"
}

// Halt stops measurements. It implements conn.Resource.
func (d *Dev) Halt() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.opts.Bus == nil || !d.status.has(LogicOn) {
		return nil
	}
	return d.setOpMode(Idle)
}

// Status returns the current power state.
func (d *Dev) Status() Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.status
}

// Registers returns a copy of the register mirror. It is only as recent as
// the last access; use ReadRegisters to refresh it.
func (d *Dev) Registers() RegMap {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.reg
}

// ReadRegisters reads len(buf) consecutive registers starting at addr into
// buf and the mirror.
func (d *Dev) ReadRegisters(addr byte, buf []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.rawAccess("read registers", addr, len(buf)); err != nil {
		return err
	}
	if err := d.read(addr, len(buf)); err != nil {
		return err
	}
	copy(buf, d.reg[addr:])
	return nil
}

// WriteRegisters writes buf to consecutive registers starting at addr and
// updates the mirror. No access policy is enforced.
func (d *Dev) WriteRegisters(addr byte, buf []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.rawAccess("write registers", addr, len(buf)); err != nil {
		return err
	}
	copy(d.reg[addr:], buf)
	return d.write(addr, len(buf))
}

// rawAccess checks the register range and powers the logic on.
func (d *Dev) rawAccess(op string, addr byte, n int) error {
	if n == 0 || int(addr)+n > NumRegs {
		return opErr(fmt.Sprintf("%s 0x%02x+%d outside the register map", op, addr, n), ErrConfig, nil)
	}
	if d.opts.Bus == nil {
		return opErr(op, ErrIntf, errors.New("no serial bus"))
	}
	return d.setStatus(LogicOn, true)
}

// SetStatus drives the controller to exactly s.
func (d *Dev) SetStatus(s Status) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.setStatus(s, false)
}

// Init initializes all the resources. It is a no-op when already done.
func (d *Dev) Init() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.init()
}

// Deinit powers the sensor down and releases all the resources.
func (d *Dev) Deinit() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.deinit()
}

// EnableLogic powers the sensor logic and waits for it to report ready.
func (d *Dev) EnableLogic() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.enableLogic()
}

// DisableLogic cuts the sensor logic supply.
func (d *Dev) DisableLogic() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.disableLogic()
}

// EnableIREmitter powers the IR emitter.
func (d *Dev) EnableIREmitter() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.enableIREmitter()
}

// DisableIREmitter cuts the IR emitter supply.
func (d *Dev) DisableIREmitter() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.disableIREmitter()
}

// setStatus moves to target through the power primitives. When implicit is
// set, a state that already implies target is accepted as is.
func (d *Dev) setStatus(target Status, implicit bool) error {
	cur := d.status
	if implicit && target != Uninited && cur.has(target) {
		return nil
	}
	if target == cur {
		return nil
	}
	d.log.Debug("pasco2: status", "from", cur, "to", target)
	if target > cur {
		switch target {
		case Inited:
			return d.init()
		case LogicOn:
			return d.enableLogic()
		case IROn:
			if err := d.disableLogic(); err != nil {
				return err
			}
			return d.enableIREmitter()
		case On:
			if err := d.enableIREmitter(); err != nil {
				return err
			}
			return d.enableLogic()
		}
		return opErr(fmt.Sprintf("status %s", target), ErrConfig, nil)
	}
	switch target {
	case LogicOn:
		if err := d.disableIREmitter(); err != nil {
			return err
		}
		return d.enableLogic()
	case IROn:
		return d.disableLogic()
	case Inited:
		if err := d.disableIREmitter(); err != nil {
			return err
		}
		return d.disableLogic()
	case Uninited:
		return d.deinit()
	}
	return opErr(fmt.Sprintf("status %s", target), ErrConfig, nil)
}

func (d *Dev) init() error {
	if d.status.has(Inited) {
		return nil
	}
	o := &d.opts
	if o.Bus != nil {
		if err := o.Bus.Init(); err != nil {
			return wrapIntf("init bus", err)
		}
		if o.ProtoSelect != nil {
			if err := o.ProtoSelect.Init(); err != nil {
				return wrapIntf("init protocol select", err)
			}
			l := gpio.Low
			if o.Bus.Protocol() == ProtoUART {
				l = gpio.High
			}
			if err := o.ProtoSelect.Write(l); err != nil {
				return wrapIntf("init protocol select", err)
			}
		}
	}
	if o.PWM != nil {
		if err := o.PWM.Init(); err != nil {
			return wrapIntf("init pwm", err)
		}
	}
	if o.Timer != nil {
		if err := o.Timer.Init(); err != nil {
			return wrapIntf("init timer", err)
		}
	}
	for _, p := range []struct {
		name string
		g    GPIO
	}{
		{"interrupt", o.Interrupt},
		{"power 3V3", o.Power3V3},
		{"power 12V", o.Power12V},
		{"pwm select", o.PWMSelect},
	} {
		if p.g == nil {
			continue
		}
		if err := p.g.Init(); err != nil {
			return wrapIntf("init "+p.name, err)
		}
	}
	d.status = Inited
	return nil
}

func (d *Dev) deinit() error {
	if d.status == Uninited {
		return nil
	}
	if err := d.setStatus(Inited, false); err != nil {
		return err
	}
	o := &d.opts
	type deiniter interface{ Deinit() error }
	steps := []struct {
		name string
		r    deiniter
	}{
		{"bus", o.Bus},
		{"pwm", o.PWM},
		{"timer", o.Timer},
		{"interrupt", o.Interrupt},
		{"protocol select", o.ProtoSelect},
		{"power 3V3", o.Power3V3},
		{"power 12V", o.Power12V},
		{"pwm select", o.PWMSelect},
	}
	for _, s := range steps {
		if s.r == nil {
			continue
		}
		if err := s.r.Deinit(); err != nil {
			return wrapIntf("deinit "+s.name, err)
		}
	}
	d.status &^= Inited
	return nil
}

func (d *Dev) enableLogic() error {
	if d.status.has(power3V3) {
		return nil
	}
	if err := d.setStatus(Inited, true); err != nil {
		return err
	}
	if d.opts.Power3V3 != nil {
		if err := d.opts.Power3V3.Enable(); err != nil {
			return wrapIntf("enable logic", err)
		}
	}
	if d.opts.Bus != nil {
		if err := d.delay(startupDelay); err != nil {
			return err
		}
		if err := d.read(RegProdID, NumRegs); err != nil {
			return err
		}
		if !d.sensorReady() {
			return opErr("enable logic", ErrICPowerOn, nil)
		}
	}
	d.status |= power3V3
	return nil
}

func (d *Dev) disableLogic() error {
	if d.opts.Power3V3 == nil {
		d.status &^= power3V3
		return nil
	}
	if !d.status.has(power3V3) {
		return nil
	}
	if err := d.opts.Power3V3.Disable(); err != nil {
		return wrapIntf("disable logic", err)
	}
	d.status &^= power3V3
	return nil
}

func (d *Dev) enableIREmitter() error {
	if d.status.has(power12V) {
		return nil
	}
	if err := d.setStatus(Inited, true); err != nil {
		return err
	}
	if d.opts.Power12V != nil {
		if err := d.opts.Power12V.Enable(); err != nil {
			return wrapIntf("enable IR emitter", err)
		}
	}
	d.status |= power12V
	return nil
}

func (d *Dev) disableIREmitter() error {
	if d.opts.Power12V == nil {
		d.status &^= power12V
		return nil
	}
	if !d.status.has(power12V) {
		return nil
	}
	if err := d.opts.Power12V.Disable(); err != nil {
		return wrapIntf("disable IR emitter", err)
	}
	d.status &^= power12V
	return nil
}

// SoftReset resets the sensor with the reset command and restores its
// configuration. It returns ErrReset when the reset cannot be confirmed.
// It does nothing without a serial bus.
func (d *Dev) SoftReset() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.opts.Bus == nil {
		return nil
	}
	if err := d.setStatus(LogicOn, true); err != nil {
		return err
	}
	d.log.Debug("pasco2: soft reset")
	if err := d.saveConfig(); err != nil {
		return err
	}
	d.reg.Set(fieldSRTrg, CmdSoftReset)
	if err := d.write(RegSensRst, 1); err != nil {
		return err
	}
	if err := d.delay(softResetDelay); err != nil {
		return err
	}
	return d.restoreConfig()
}

// HardReset power cycles the sensor logic and restores its configuration.
// It does nothing without a 3V3 power pin.
func (d *Dev) HardReset() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.opts.Power3V3 == nil {
		return nil
	}
	if err := d.setStatus(LogicOn, true); err != nil {
		return err
	}
	d.log.Debug("pasco2: hard reset")
	if d.opts.Bus != nil {
		if err := d.saveConfig(); err != nil {
			return err
		}
	}
	if err := d.opts.Power3V3.Disable(); err != nil {
		return wrapIntf("hard reset", err)
	}
	if err := d.delay(powerOffDelay); err != nil {
		return err
	}
	if err := d.opts.Power3V3.Enable(); err != nil {
		return wrapIntf("hard reset", err)
	}
	if d.opts.Bus == nil {
		return nil
	}
	if err := d.delay(startupDelay); err != nil {
		return err
	}
	return d.restoreConfig()
}

// saveConfig refreshes the mirror and arms the scratch pad sentinel.
func (d *Dev) saveConfig() error {
	if err := d.read(RegProdID, NumRegs); err != nil {
		return err
	}
	d.reg.Set(fieldScratchPad, scratchSentinel)
	return d.write(RegScratchPad, 1)
}

// restoreConfig checks that the reset happened and writes back the
// configuration saved by saveConfig.
func (d *Dev) restoreConfig() error {
	var id [2]byte
	if err := d.opts.Bus.Read(RegProdID, id[:]); err != nil {
		return wrapIntf("restore", err)
	}
	d.reg[RegProdID] = id[0]
	if id[1]&fieldSenRdy.Mask == 0 {
		return opErr("restore", ErrICPowerOn, nil)
	}
	if err := d.read(RegScratchPad, 1); err != nil {
		return err
	}
	if v, _ := d.reg.Get(fieldScratchPad); v != 0 {
		return opErr(fmt.Sprintf("restore: scratch pad 0x%02x", v), ErrReset, nil)
	}
	// Status, rate and measurement config.
	if err := d.write(RegSensSts, 4); err != nil {
		return err
	}
	// Interrupt, alarm, pressure and calibration references.
	return d.write(RegMeasSts, 8)
}

// SetOpMode selects idle, single shot or continuous measurement.
func (d *Dev) SetOpMode(m OpMode) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.opts.Bus == nil {
		return nil
	}
	if err := d.setStatus(LogicOn, true); err != nil {
		return err
	}
	return d.setOpMode(m)
}

func (d *Dev) setOpMode(m OpMode) error {
	d.reg.Set(fieldOpMode, byte(m))
	return d.write(RegMeasCfg, 1)
}

// EnablePWM turns on the PWM output, with the PWM select pin if present,
// else through the measurement configuration register.
func (d *Dev) EnablePWM() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.switchPWM(true)
}

// DisablePWM turns off the PWM output.
func (d *Dev) DisablePWM() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.switchPWM(false)
}

func (d *Dev) switchPWM(on bool) error {
	if d.opts.PWM == nil {
		return nil
	}
	if err := d.setStatus(LogicOn, true); err != nil {
		return err
	}
	if p := d.opts.PWMSelect; p != nil {
		var err error
		if on {
			err = p.Enable()
		} else {
			err = p.Disable()
		}
		return wrapIntf("pwm select", err)
	}
	if d.opts.Bus == nil {
		return nil
	}
	v := byte(0)
	if on {
		v = 1
	}
	d.reg.Set(fieldPWMOutEn, v)
	return d.write(RegMeasCfg, 1)
}

// SetPWMMode selects a single pulse or a pulse train per measurement. It
// needs both a serial bus and a PWM input.
func (d *Dev) SetPWMMode(m PWMMode) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.opts.Bus == nil || d.opts.PWM == nil {
		return nil
	}
	if err := d.setStatus(LogicOn, true); err != nil {
		return err
	}
	d.reg.Set(fieldPWMMode, byte(m))
	return d.write(RegMeasCfg, 1)
}

// SetMeasPeriod sets the continuous measurement period, in whole seconds
// within [MinMeasPeriod, MaxMeasPeriod].
func (d *Dev) SetMeasPeriod(p time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.opts.Bus == nil {
		return nil
	}
	if err := d.setStatus(LogicOn, true); err != nil {
		return err
	}
	return d.setMeasPeriod(p)
}

func (d *Dev) setMeasPeriod(p time.Duration) error {
	if p < MinMeasPeriod || p > MaxMeasPeriod {
		return opErr(fmt.Sprintf("measurement period %s outside [%s, %s]", p, MinMeasPeriod, MaxMeasPeriod), ErrConfig, nil)
	}
	d.reg.setWord(RegMeasRateH, uint16(p/time.Second))
	if err := d.write(RegMeasRateH, 2); err != nil {
		return err
	}
	return d.read(RegSensSts, 1)
}

// CO2 returns the last measured concentration. It powers the sensor fully
// on. Without a serial bus, the value is derived from the PWM duty cycle,
// 0-100% mapping to 0-10000 ppm.
func (d *Dev) CO2() (PPM, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.co2()
}

func (d *Dev) co2() (PPM, error) {
	if err := d.setStatus(On, false); err != nil {
		return 0, err
	}
	if d.opts.Bus != nil {
		if err := d.read(RegCO2PPMH, 2); err != nil {
			return 0, err
		}
		return PPM(int16(d.reg.word(RegCO2PPMH))), nil
	}
	duty, err := d.opts.PWM.Duty()
	if err != nil {
		return -1, wrapIntf("pwm duty", err)
	}
	return PPM(100 * duty), nil
}

// Diagnosis returns the sensor status flags and clears the sticky error
// flags. Two consecutive calls may return different results.
func (d *Dev) Diagnosis() (Diag, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.opts.Bus == nil {
		return Diag{}, nil
	}
	if err := d.setStatus(LogicOn, true); err != nil {
		return Diag{}, err
	}
	if err := d.read(RegSensSts, 1); err != nil {
		return Diag{}, err
	}
	diag := Diag{
		SensorReady:    d.flag(fieldSenRdy),
		PWMPinEnabled:  !d.flag(fieldPWMDisSt),
		OutOfRangeTemp: d.flag(fieldORTmp),
		OutOfRange12V:  d.flag(fieldORVS),
		CommError:      d.flag(fieldICCErr),
	}
	d.reg.Set(fieldORTmpClr, 1)
	d.reg.Set(fieldORVSClr, 1)
	d.reg.Set(fieldICCErrClr, 1)
	return diag, d.write(RegSensSts, 1)
}

// MeasStatus returns the measurement status flags and clears the interrupt
// and alarm flags. Two consecutive calls may return different results.
func (d *Dev) MeasStatus() (MeasStatus, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.measStatus()
}

func (d *Dev) measStatus() (MeasStatus, error) {
	if d.opts.Bus == nil {
		return MeasStatus{}, nil
	}
	if err := d.setStatus(LogicOn, true); err != nil {
		return MeasStatus{}, err
	}
	if err := d.read(RegMeasSts, 1); err != nil {
		return MeasStatus{}, err
	}
	st := MeasStatus{
		DataReady:   d.flag(fieldDRdy),
		IntActive:   d.flag(fieldIntSts),
		AlarmActive: d.flag(fieldAlarm),
	}
	d.reg.Set(fieldIntStsClr, 1)
	d.reg.Set(fieldAlarmClr, 1)
	return st, d.write(RegMeasSts, 1)
}

// EnableInterrupt configures the interrupt pin function and electrical
// mode; the sensor side is programmed whenever there is a serial bus. cb is
// attached to the interrupt pin, if any, when kind is not IntDisabled; it
// runs on its own goroutine and must not call back into Dev while a
// Dev operation can be blocked waiting for it.
func (d *Dev) EnableInterrupt(cb func(), kind Int, conf IntIOConf) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.enableInterrupt(cb, kind, conf)
}

func (d *Dev) enableInterrupt(cb func(), kind Int, conf IntIOConf) error {
	if d.opts.Bus == nil && d.opts.Interrupt == nil {
		return nil
	}
	if err := d.setStatus(LogicOn, true); err != nil {
		return err
	}
	if d.opts.Bus != nil {
		d.reg.Set(fieldIntFunc, byte(kind))
		d.reg.Set(fieldIntTyp, byte(conf))
		if err := d.write(RegIntCfg, 1); err != nil {
			return err
		}
	}
	if d.opts.Interrupt != nil && kind > IntDisabled && cb != nil {
		if err := d.opts.Interrupt.EnableInt(cb); err != nil {
			return wrapIntf("enable interrupt", err)
		}
	}
	return nil
}

// DisableInterrupt disables the interrupt pin function and detaches the
// callback.
func (d *Dev) DisableInterrupt() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.disableInterrupt()
}

func (d *Dev) disableInterrupt() error {
	if d.opts.Bus == nil && d.opts.Interrupt == nil {
		return nil
	}
	if err := d.setStatus(LogicOn, true); err != nil {
		return err
	}
	if d.opts.Bus != nil {
		d.reg.Set(fieldIntFunc, byte(IntDisabled))
		if err := d.write(RegIntCfg, 1); err != nil {
			return err
		}
	}
	if d.opts.Interrupt == nil {
		return nil
	}
	return wrapIntf("disable interrupt", d.opts.Interrupt.DisableInt())
}

// EnableABOC selects the automatic baseline offset compensation mode and
// its reference concentration.
func (d *Dev) EnableABOC(mode ABOC, ref PPM) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.opts.Bus == nil {
		return nil
	}
	if err := d.setStatus(LogicOn, true); err != nil {
		return err
	}
	return d.enableABOC(mode, ref)
}

func (d *Dev) enableABOC(mode ABOC, ref PPM) error {
	d.reg.Set(fieldBOCCfg, byte(mode))
	if err := d.write(RegMeasCfg, 1); err != nil {
		return err
	}
	d.reg.setWord(RegCalibRefH, uint16(ref))
	return d.write(RegCalibRefH, 2)
}

// DisableABOC disables the automatic baseline offset compensation.
func (d *Dev) DisableABOC() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.opts.Bus == nil {
		return nil
	}
	if err := d.setStatus(LogicOn, true); err != nil {
		return err
	}
	d.reg.Set(fieldBOCCfg, byte(ABOCDisabled))
	return d.write(RegMeasCfg, 1)
}

// SetPressureCompensation sets the ambient pressure used by the sensor,
// within [MinPressure, MaxPressure].
func (d *Dev) SetPressureCompensation(p physic.Pressure) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.opts.Bus == nil {
		return nil
	}
	if err := d.setStatus(LogicOn, true); err != nil {
		return err
	}
	return d.setPressure(p)
}

func (d *Dev) setPressure(p physic.Pressure) error {
	if p < MinPressure || p > MaxPressure {
		return opErr(fmt.Sprintf("pressure %s outside [%s, %s]", p, MinPressure, MaxPressure), ErrConfig, nil)
	}
	d.reg.setWord(RegPressRefH, uint16(p/(100*physic.Pascal)))
	return d.write(RegPressRefH, 2)
}

// EnableAlarm raises the alarm flag when the concentration crosses th in
// the direction typ.
func (d *Dev) EnableAlarm(th PPM, typ Alarm) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.enableAlarm(th, typ)
}

func (d *Dev) enableAlarm(th PPM, typ Alarm) error {
	if d.opts.Bus == nil {
		return nil
	}
	if err := d.setStatus(LogicOn, true); err != nil {
		return err
	}
	d.reg.Set(fieldAlarmTyp, byte(typ))
	if err := d.write(RegIntCfg, 1); err != nil {
		return err
	}
	d.reg.setWord(RegAlarmThH, uint16(th))
	return d.write(RegAlarmThH, 2)
}

// DisableAlarm clears the alarm threshold.
func (d *Dev) DisableAlarm() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.disableAlarm()
}

func (d *Dev) disableAlarm() error {
	if d.opts.Bus == nil {
		return nil
	}
	if err := d.setStatus(LogicOn, true); err != nil {
		return err
	}
	d.reg.setWord(RegAlarmThH, 0)
	if err := d.write(RegAlarmThH, 2); err != nil {
		return err
	}
	d.reg.Set(fieldAlarmTyp, byte(CrossDown))
	return d.write(RegIntCfg, 1)
}

// DeviceID returns the product and revision identifiers.
func (d *Dev) DeviceID() (DeviceID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.opts.Bus == nil {
		return DeviceID{}, nil
	}
	if err := d.setStatus(LogicOn, true); err != nil {
		return DeviceID{}, err
	}
	if err := d.read(RegProdID, 1); err != nil {
		return DeviceID{}, err
	}
	p, _ := d.reg.Get(fieldProd)
	r, _ := d.reg.Get(fieldRev)
	return DeviceID{Product: p, Revision: r}, nil
}

func (d *Dev) read(addr byte, n int) error {
	return wrapIntf(fmt.Sprintf("read 0x%02x", addr), d.opts.Bus.Read(addr, d.reg[addr:int(addr)+n]))
}

func (d *Dev) write(addr byte, n int) error {
	return wrapIntf(fmt.Sprintf("write 0x%02x", addr), d.opts.Bus.Write(addr, d.reg[addr:int(addr)+n]))
}

func (d *Dev) flag(f Field) bool {
	v, _ := d.reg.Get(f)
	return v != 0
}

func (d *Dev) sensorReady() bool {
	return d.flag(fieldSenRdy)
}

func (d *Dev) delay(t time.Duration) error {
	if d.opts.Timer == nil {
		time.Sleep(t)
		return nil
	}
	return wrapIntf("delay", d.opts.Timer.Delay(t))
}

// wrapIntf reports err as an interface error, keeping the code of errors
// that already carry one.
func wrapIntf(op string, err error) error {
	if err == nil {
		return nil
	}
	var oe *OpError
	if errors.As(err, &oe) {
		return err
	}
	var c Error
	if errors.As(err, &c) {
		return err
	}
	return opErr(op, ErrIntf, err)
}

var _ conn.Resource = &Dev{}
