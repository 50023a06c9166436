// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package pasco2

import (
	"bytes"
	"errors"
	"testing"

	"github.com/goburrow/serial"
	"periph.io/x/conn/v3/i2c/i2ctest"
	"tinygo.org/x/drivers"
)

// tinyUART emulates a TinyGo UART ring buffer.
type tinyUART struct {
	rx bytes.Buffer
	tx bytes.Buffer
}

func (u *tinyUART) Read(b []byte) (int, error)  { return u.rx.Read(b) }
func (u *tinyUART) Write(b []byte) (int, error) { return u.tx.Write(b) }
func (u *tinyUART) Buffered() int               { return u.rx.Len() }

func TestTinyGoI2C(t *testing.T) {
	pb := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: I2CAddr, W: []byte{RegScratchPad}, R: []byte{0x5A}},
		},
	}
	// i2ctest.Playback has the same Tx signature as a TinyGo bus.
	var tb drivers.I2C = pb
	bus := &TinyGoI2C{Bus: tb}
	c := NewI2C(bus, nil)
	if err := c.Init(); err != nil {
		t.Fatal(err)
	}
	var buf [1]byte
	if err := c.Read(RegScratchPad, buf[:]); err != nil {
		t.Fatal(err)
	}
	if buf[0] != 0x5A {
		t.Fatalf("Read()=0x%02x", buf[0])
	}
	if s := bus.String(); s != "tinygo-i2c" {
		t.Fatal(s)
	}
	if err := pb.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestTinyGoUART(t *testing.T) {
	tu := &tinyUART{}
	p := &TinyGoUART{UART: tu}
	var b [4]byte
	if _, err := p.Read(b[:]); !errors.Is(err, serial.ErrTimeout) {
		t.Fatalf("got %v, want serial.ErrTimeout", err)
	}
	tu.rx.WriteString("a5\n")
	u, err := NewUART(p, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := u.Init(); err != nil {
		t.Fatal(err)
	}
	if err := u.Read(RegMeasSts, b[:1]); err != nil {
		t.Fatal(err)
	}
	if b[0] != 0xA5 {
		t.Fatalf("Read()=0x%02x", b[0])
	}
	if got := tu.tx.String(); got != "r,07\n" {
		t.Fatalf("sent %q", got)
	}
	if err := p.Open(nil); err != nil {
		t.Fatal(err)
	}
	if err := p.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestUpdate(t *testing.T) {
	d, ch, _ := newBusDev(t, nil)
	ch.regs.setWord(RegCO2PPMH, 733)
	if err := d.Update(drivers.Temperature); err != nil {
		t.Fatal(err)
	}
	if d.LastCO2() != 0 || d.Status() != Uninited {
		t.Fatal("Update must ignore other measurements")
	}
	if err := d.Update(drivers.AllMeasurements); err != nil {
		t.Fatal(err)
	}
	if got := d.LastCO2(); got != 733 {
		t.Fatalf("LastCO2()=%s", got)
	}

	ch.err = errors.New("unplugged")
	if err := d.Update(drivers.Concentration); CodeOf(err) != ErrIntf {
		t.Fatalf("got %v", err)
	}
	if got := d.LastCO2(); got != 733 {
		t.Fatalf("LastCO2()=%s after a failure", got)
	}
}
