// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package pasco2

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"periph.io/x/conn/v3/gpio"
)

// PinOpts configures a Pin.
type PinOpts struct {
	// Input configures the pin as an input. Interrupt and PWM lines are
	// inputs, power and select lines are outputs.
	Input bool
	// Pull is the pull resistor used when Input is set.
	Pull gpio.Pull
	// ActiveLow inverts the level driven by Enable and Disable.
	ActiveLow bool
	// EdgeTimeout bounds each wait for an edge while interrupts are enabled.
	// It determines how fast DisableInt returns. Defaults to 100ms.
	EdgeTimeout time.Duration
}

// Pin implements GPIO on top of a periph pin.
type Pin struct {
	p    gpio.PinIO
	opts PinOpts

	edge atomic.Int32

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

// NewPin returns a GPIO backed by p. opts may be nil.
func NewPin(p gpio.PinIO, opts *PinOpts) (*Pin, error) {
	if p == nil || p == gpio.INVALID {
		return nil, errors.New("pasco2: invalid pin")
	}
	pn := &Pin{p: p}
	if opts != nil {
		pn.opts = *opts
	}
	if pn.opts.EdgeTimeout <= 0 {
		pn.opts.EdgeTimeout = 100 * time.Millisecond
	}
	return pn, nil
}

func (p *Pin) String() string {
	return fmt.Sprintf("pasco2.Pin{%s}", p.p)
}

// Init configures the pin direction. Outputs start at their inactive level.
func (p *Pin) Init() error {
	if p.opts.Input {
		return p.p.In(p.opts.Pull, gpio.NoEdge)
	}
	return p.p.Out(p.level(false))
}

// Deinit stops edge detection if it is running.
func (p *Pin) Deinit() error {
	return p.DisableInt()
}

// EnableInt starts edge detection on both edges and calls cb from a
// dedicated goroutine on every edge.
func (p *Pin) EnableInt(cb func()) error {
	if cb == nil {
		return errors.New("pasco2: nil interrupt callback")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stop != nil {
		return errors.New("pasco2: interrupt already enabled")
	}
	if err := p.p.In(p.opts.Pull, gpio.BothEdges); err != nil {
		return err
	}
	p.stop = make(chan struct{})
	p.done = make(chan struct{})
	go p.watch(cb, p.stop, p.done)
	return nil
}

// DisableInt stops edge detection and waits for the watcher to exit.
func (p *Pin) DisableInt() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stop == nil {
		return nil
	}
	close(p.stop)
	<-p.done
	p.stop = nil
	p.done = nil
	return p.p.In(p.opts.Pull, gpio.NoEdge)
}

func (p *Pin) watch(cb func(), stop, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-stop:
			return
		default:
		}
		if !p.p.WaitForEdge(p.opts.EdgeTimeout) {
			continue
		}
		if p.p.Read() == gpio.High {
			p.edge.Store(int32(gpio.RisingEdge))
		} else {
			p.edge.Store(int32(gpio.FallingEdge))
		}
		cb()
	}
}

// LastEdge returns the direction of the last edge seen by the watcher.
func (p *Pin) LastEdge() gpio.Edge {
	return gpio.Edge(p.edge.Load())
}

// Read returns the current pin level.
func (p *Pin) Read() gpio.Level {
	return p.p.Read()
}

// Write drives the pin to l, ignoring the polarity.
func (p *Pin) Write(l gpio.Level) error {
	return p.p.Out(l)
}

// Enable drives the pin to its active level.
func (p *Pin) Enable() error {
	return p.p.Out(p.level(true))
}

// Disable drives the pin to its inactive level.
func (p *Pin) Disable() error {
	return p.p.Out(p.level(false))
}

func (p *Pin) level(active bool) gpio.Level {
	return gpio.Level(active != p.opts.ActiveLow)
}

var _ GPIO = &Pin{}
