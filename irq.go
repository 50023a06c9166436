// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package pasco2

import (
	"errors"
	"sync"
)

// IRQSlots is the default capacity of an IRQTable.
const IRQSlots = 4

// ErrIRQFull is returned by IRQTable.Register when all slots are taken.
var ErrIRQFull = errors.New("pasco2: no free interrupt slot")

// IRQHandle identifies a slot in an IRQTable.
type IRQHandle int

// IRQTable is a fixed capacity table of edge callbacks shared by the PWM
// extractors attached to one interrupt controller.
type IRQTable struct {
	mu    sync.Mutex
	slots []func()
}

// NewIRQTable returns a table with n slots. n <= 0 means IRQSlots.
func NewIRQTable(n int) *IRQTable {
	if n <= 0 {
		n = IRQSlots
	}
	return &IRQTable{slots: make([]func(), n)}
}

// Register stores fn in the first free slot.
func (t *IRQTable) Register(fn func()) (IRQHandle, error) {
	if fn == nil {
		return -1, errors.New("pasco2: nil interrupt handler")
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, s := range t.slots {
		if s == nil {
			t.slots[i] = fn
			return IRQHandle(i), nil
		}
	}
	return -1, ErrIRQFull
}

// Release frees the slot h. Releasing a free slot is a no-op.
func (t *IRQTable) Release(h IRQHandle) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if h >= 0 && int(h) < len(t.slots) {
		t.slots[h] = nil
	}
}

// Dispatch calls the handler in slot h, if any.
func (t *IRQTable) Dispatch(h IRQHandle) {
	t.mu.Lock()
	var fn func()
	if h >= 0 && int(h) < len(t.slots) {
		fn = t.slots[h]
	}
	t.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Len returns the number of registered handlers.
func (t *IRQTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, s := range t.slots {
		if s != nil {
			n++
		}
	}
	return n
}
