// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package pasco2

import (
	"errors"
	"time"
)

// HostTimer implements Timer with the host monotonic clock.
type HostTimer struct {
	start   time.Time
	running bool
}

// NewTimer returns a Timer backed by the host clock.
func NewTimer() *HostTimer {
	return &HostTimer{}
}

func (t *HostTimer) String() string {
	return "pasco2.HostTimer"
}

// Init implements Timer.
func (t *HostTimer) Init() error {
	return nil
}

// Deinit implements Timer.
func (t *HostTimer) Deinit() error {
	t.running = false
	return nil
}

// Start implements Timer.
func (t *HostTimer) Start() error {
	t.start = time.Now()
	t.running = true
	return nil
}

// Elapsed implements Timer.
func (t *HostTimer) Elapsed() (time.Duration, error) {
	if !t.running {
		return 0, errors.New("pasco2: timer not started")
	}
	return time.Since(t.start), nil
}

// Stop implements Timer.
func (t *HostTimer) Stop() error {
	if !t.running {
		return errors.New("pasco2: timer not started")
	}
	t.running = false
	return nil
}

// Delay implements Timer.
func (t *HostTimer) Delay(d time.Duration) error {
	time.Sleep(d)
	return nil
}

var _ Timer = &HostTimer{}
