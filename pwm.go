// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package pasco2

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"periph.io/x/conn/v3/gpio"
)

const (
	// PulseTrainLen is the maximum number of periods averaged by Duty.
	PulseTrainLen = 160
	// DutyTimeout is the time Duty waits for an edge before giving up.
	DutyTimeout = 3 * time.Second
)

// SampleMode selects how the PWM extractor observes edges.
type SampleMode int

const (
	// SamplePolling reads the pin level in a busy loop.
	SamplePolling SampleMode = iota
	// SampleInterrupt relies on the pin edge callback.
	SampleInterrupt
)

func (m SampleMode) String() string {
	if m == SampleInterrupt {
		return "Interrupt"
	}
	return "Polling"
}

// PWMOpts configures a PWM duty extractor.
type PWMOpts struct {
	Mode SampleMode
	// TrainLen defaults to PulseTrainLen.
	TrainLen int
	// Timeout defaults to DutyTimeout.
	Timeout time.Duration
	// IRQ is the table used in SampleInterrupt mode. A private table is
	// allocated when nil.
	IRQ *IRQTable
}

// PWM measures the duty cycle of the sensor PWM output without a capture
// peripheral, by timestamping edges with a Timer.
type PWM struct {
	pin   GPIO
	timer Timer
	opts  PWMOpts

	// Edge flags, set by the edge callback or the poll loop.
	rising  atomic.Bool
	falling atomic.Bool
	level   gpio.Level
}

// NewPWM returns a DutySource reading pin. opts may be nil.
func NewPWM(pin GPIO, t Timer, opts *PWMOpts) (*PWM, error) {
	if pin == nil || t == nil {
		return nil, opErr("pwm", ErrConfig, errors.New("pin and timer are required"))
	}
	p := &PWM{pin: pin, timer: t}
	if opts != nil {
		p.opts = *opts
	}
	if p.opts.TrainLen <= 0 {
		p.opts.TrainLen = PulseTrainLen
	}
	if p.opts.Timeout <= 0 {
		p.opts.Timeout = DutyTimeout
	}
	if p.opts.Mode == SampleInterrupt && p.opts.IRQ == nil {
		p.opts.IRQ = NewIRQTable(0)
	}
	return p, nil
}

func (p *PWM) String() string {
	return fmt.Sprintf("pasco2.PWM{%s}", p.opts.Mode)
}

// Init initializes the pin and the timer.
func (p *PWM) Init() error {
	if err := p.pin.Init(); err != nil {
		return opErr("pwm init", ErrIntf, err)
	}
	if err := p.timer.Init(); err != nil {
		return opErr("pwm init", ErrIntf, err)
	}
	return nil
}

// Deinit releases the pin and the timer.
func (p *PWM) Deinit() error {
	if err := p.pin.Deinit(); err != nil {
		return opErr("pwm deinit", ErrIntf, err)
	}
	if err := p.timer.Deinit(); err != nil {
		return opErr("pwm deinit", ErrIntf, err)
	}
	return nil
}

// Duty returns the mean high time of up to TrainLen periods, in percent.
//
// A period spans two rising edges. Periods are matched alternately: a rising
// edge either opens a period or closes the open one. Duty returns 0 when no
// period completes before Timeout elapses without any edge, and -1 with an
// error when the pin or the timer fails.
func (p *PWM) Duty() (float64, error) {
	if p.opts.Mode == SampleInterrupt {
		h, err := p.opts.IRQ.Register(p.onEdge)
		if err != nil {
			return -1, opErr("pwm duty", ErrIntf, err)
		}
		defer p.opts.IRQ.Release(h)
		if err := p.pin.EnableInt(func() { p.opts.IRQ.Dispatch(h) }); err != nil {
			return -1, opErr("pwm duty", ErrIntf, err)
		}
		defer func() { _ = p.pin.DisableInt() }()
	}

	if err := p.timer.Start(); err != nil {
		return -1, opErr("pwm duty", ErrIntf, err)
	}
	d, err := p.sample()
	if err != nil {
		_ = p.timer.Stop()
		return -1, opErr("pwm duty", ErrIntf, err)
	}
	if err := p.timer.Stop(); err != nil {
		return -1, opErr("pwm duty", ErrIntf, err)
	}
	return d, nil
}

func (p *PWM) sample() (float64, error) {
	t0, err := p.timer.Elapsed()
	if err != nil {
		return 0, err
	}
	p.rising.Store(false)
	p.falling.Store(false)
	p.level = p.pin.Read()

	var t1, t2 time.Duration
	open := false
	count := 0
	sum := 0.
	for count < p.opts.TrainLen {
		if p.opts.Mode == SamplePolling {
			p.poll()
		}
		if p.rising.Swap(false) {
			rt, err := p.timer.Elapsed()
			if err != nil {
				return 0, err
			}
			if open {
				open = false
				if rt > t1 {
					sum += float64(t2-t1) / float64(rt-t1)
					count++
				}
			} else {
				t1 = rt
				open = true
			}
			t0 = rt
		}
		if p.falling.Swap(false) {
			if t2, err = p.timer.Elapsed(); err != nil {
				return 0, err
			}
			t0 = t2
		}
		now, err := p.timer.Elapsed()
		if err != nil {
			return 0, err
		}
		if now-t0 >= p.opts.Timeout {
			break
		}
	}
	if count == 0 {
		return 0, nil
	}
	return 100 * sum / float64(count), nil
}

// poll turns level changes into edge flags.
func (p *PWM) poll() {
	l := p.pin.Read()
	if l == p.level {
		return
	}
	if l == gpio.High {
		p.rising.Store(true)
	} else {
		p.falling.Store(true)
	}
	p.level = l
}

// onEdge is the interrupt handler.
func (p *PWM) onEdge() {
	switch p.pin.LastEdge() {
	case gpio.RisingEdge:
		p.rising.Store(true)
	case gpio.FallingEdge:
		p.falling.Store(true)
	}
}

var _ DutySource = &PWM{}
