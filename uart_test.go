// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package pasco2

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/goburrow/serial"
	"github.com/google/go-cmp/cmp"
)

// fakePort replies with the bytes queued in in and records what is written
// in out.
type fakePort struct {
	in     bytes.Buffer
	out    bytes.Buffer
	cfg    *serial.Config
	closed bool
}

func (p *fakePort) Open(c *serial.Config) error {
	p.cfg = c
	return nil
}

func (p *fakePort) Close() error {
	p.closed = true
	return nil
}

func (p *fakePort) Read(b []byte) (int, error) {
	if p.in.Len() == 0 {
		return 0, serial.ErrTimeout
	}
	return p.in.Read(b)
}

func (p *fakePort) Write(b []byte) (int, error) {
	return p.out.Write(b)
}

func newFakeUART(t *testing.T, replies string) (*UART, *fakePort) {
	p := &fakePort{}
	p.in.WriteString(replies)
	u, err := NewUART(p, &UARTOpts{FrameTimeout: 10 * time.Millisecond})
	if err != nil {
		t.Fatal(err)
	}
	return u, p
}

// sensorPort emulates a sensor speaking the ASCII protocol over regs. The
// soft reset command resets regs and is acknowledged only when ackReset.
type sensorPort struct {
	regs     RegMap
	ackReset bool
	req      []byte
	in       bytes.Buffer
}

func (p *sensorPort) Open(*serial.Config) error { return nil }
func (p *sensorPort) Close() error              { return nil }

func (p *sensorPort) Read(b []byte) (int, error) {
	if p.in.Len() == 0 {
		return 0, serial.ErrTimeout
	}
	return p.in.Read(b)
}

func (p *sensorPort) Write(b []byte) (int, error) {
	for _, c := range b {
		p.req = append(p.req, c)
		if c == uartEOL {
			p.handle(string(p.req))
			p.req = p.req[:0]
		}
	}
	return len(b), nil
}

func (p *sensorPort) handle(req string) {
	switch {
	case len(req) == writeFrameLen && req[0] == 'w':
		a, _ := strconv.ParseUint(req[2:4], 16, 8)
		v, _ := strconv.ParseUint(req[5:7], 16, 8)
		if byte(a) == RegSensRst && byte(v) == CmdSoftReset {
			id := p.regs[RegProdID]
			p.regs.Reset()
			p.regs[RegProdID] = id
			if !p.ackReset {
				return
			}
		} else {
			p.regs[a] = byte(v)
		}
		p.in.Write([]byte{uartAck, uartEOL})
	case len(req) == readFrameLen && req[0] == 'r':
		a, _ := strconv.ParseUint(req[2:4], 16, 8)
		fmt.Fprintf(&p.in, "%02x\n", p.regs[a])
	}
}

func TestFrames(t *testing.T) {
	if got := string(writeRequest(0x0A, 0xE2)); got != "w,0a,e2\n" {
		t.Fatalf("writeRequest()=%q", got)
	}
	if got := len(writeRequest(0x10, 0xA3)); got != writeFrameLen {
		t.Fatalf("len(writeRequest())=%d", got)
	}
	if got := string(readRequest(0x05)); got != "r,05\n" {
		t.Fatalf("readRequest()=%q", got)
	}
	if got := len(readRequest(0x10)); got != readFrameLen {
		t.Fatalf("len(readRequest())=%d", got)
	}
}

func TestParseReadReply(t *testing.T) {
	data := []struct {
		in      string
		want    byte
		wantErr bool
	}{
		{"ab\n", 0xAB, false},
		{"AB\n", 0xAB, false},
		{"0f\n", 0x0F, false},
		{"00\n", 0x00, false},
		{"\x15\n\x00", 0, true},
		{"zz\n", 0, true},
		{"ab\r", 0, true},
		{"ab", 0, true},
	}
	for _, line := range data {
		got, err := parseReadReply([]byte(line.in))
		if (err != nil) != line.wantErr {
			t.Errorf("parseReadReply(%q) err=%v", line.in, err)
			continue
		}
		if got != line.want {
			t.Errorf("parseReadReply(%q)=0x%02x, want 0x%02x", line.in, got, line.want)
		}
	}
}

func TestUART_Read(t *testing.T) {
	u, p := newFakeUART(t, "ab\n12\n")
	var buf [2]byte
	if err := u.Read(RegCO2PPMH, buf[:]); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(buf[:], []byte{0xAB, 0x12}); diff != "" {
		t.Errorf("Read() difference (-got +want):\n%s", diff)
	}
	if got := p.out.String(); got != "r,05\nr,06\n" {
		t.Errorf("sent %q", got)
	}
}

func TestUART_Read_nack(t *testing.T) {
	u, _ := newFakeUART(t, "\x15\n")
	var buf [1]byte
	err := u.Read(RegProdID, buf[:])
	if !errors.Is(err, errNack) {
		t.Fatalf("got %v, want nack", err)
	}
	if CodeOf(err) != ErrIntf {
		t.Fatalf("code %d", CodeOf(err))
	}
}

func TestUART_Read_timeout(t *testing.T) {
	u, _ := newFakeUART(t, "a")
	var buf [1]byte
	if err := u.Read(RegProdID, buf[:]); CodeOf(err) != ErrIntf {
		t.Fatalf("got %v", err)
	}
}

func TestUART_Write(t *testing.T) {
	u, p := newFakeUART(t, "\x06\n\x06\n")
	if err := u.Write(RegPressRefH, []byte{0x03, 0xF7}); err != nil {
		t.Fatal(err)
	}
	if got := p.out.String(); got != "w,0b,03\nw,0c,f7\n" {
		t.Errorf("sent %q", got)
	}
}

func TestUART_Write_abort(t *testing.T) {
	u, p := newFakeUART(t, "\x06\n\x15\n")
	err := u.Write(RegAlarmThH, []byte{1, 2, 3})
	if CodeOf(err) != ErrIntf {
		t.Fatalf("got %v", err)
	}
	if got := p.out.String(); got != "w,09,01\nw,0a,02\n" {
		t.Errorf("sent %q", got)
	}
}

func TestUART_Write_softReset(t *testing.T) {
	u, p := newFakeUART(t, "")
	if err := u.Write(RegSensRst, []byte{CmdSoftReset}); err != nil {
		t.Fatal(err)
	}
	if got := p.out.String(); got != "w,10,a3\n" {
		t.Errorf("sent %q", got)
	}
	// Other commands must be acknowledged.
	if err := u.Write(RegSensRst, []byte{CmdResetABOC}); err == nil {
		t.Fatal("expected missing ack error")
	}
}

func TestDev_UART_softReset(t *testing.T) {
	for _, ack := range []bool{false, true} {
		t.Run(fmt.Sprintf("ack=%t", ack), func(t *testing.T) {
			p := &sensorPort{ackReset: ack}
			p.regs.Reset()
			p.regs[RegProdID] = 0x42
			p.regs[RegMeasRateL] = 0x3C
			u, err := NewUART(p, &UARTOpts{FrameTimeout: 10 * time.Millisecond})
			if err != nil {
				t.Fatal(err)
			}
			d, err := New(&Opts{Bus: u, Timer: &fakeTimer{}})
			if err != nil {
				t.Fatal(err)
			}
			if err := d.SoftReset(); err != nil {
				t.Fatal(err)
			}
			if p.in.Len() != 0 {
				t.Fatalf("unread reply %q", p.in.String())
			}
			if got := p.regs[RegMeasRateL]; got != 0x3C {
				t.Fatalf("MEAS_RATE_L=0x%02x, want restored 0x3c", got)
			}
			id, err := d.DeviceID()
			if err != nil {
				t.Fatal(err)
			}
			if id != (DeviceID{Product: 2, Revision: 2}) {
				t.Fatalf("DeviceID()=%s", id)
			}
		})
	}
}

func TestNewUART(t *testing.T) {
	data := []struct {
		baud    int
		wantErr bool
	}{
		{0, false},
		{9600, false},
		{19200, false},
		{4800, true},
		{115200, true},
	}
	for _, line := range data {
		_, err := NewUART(&fakePort{}, &UARTOpts{Baud: line.baud})
		if (err != nil) != line.wantErr {
			t.Errorf("NewUART(%d) err=%v", line.baud, err)
		}
		if err != nil && CodeOf(err) != ErrConfig {
			t.Errorf("NewUART(%d) code %d", line.baud, CodeOf(err))
		}
	}
}

func TestUART_InitDeinit(t *testing.T) {
	p := &fakePort{}
	u, err := NewUART(p, &UARTOpts{Address: "/dev/ttyUSB0", Baud: 19200})
	if err != nil {
		t.Fatal(err)
	}
	if err := u.Init(); err != nil {
		t.Fatal(err)
	}
	want := &serial.Config{
		Address:  "/dev/ttyUSB0",
		BaudRate: 19200,
		DataBits: 8,
		StopBits: 1,
		Parity:   "N",
		Timeout:  UARTFrameTimeout,
	}
	if diff := cmp.Diff(p.cfg, want); diff != "" {
		t.Errorf("Open() difference (-got +want):\n%s", diff)
	}
	if err := u.Deinit(); err != nil {
		t.Fatal(err)
	}
	if !p.closed {
		t.Fatal("port not closed")
	}
	if u.Protocol() != ProtoUART {
		t.Fatal(u.Protocol())
	}
}

func TestUART_Init_preopened(t *testing.T) {
	p := &fakePort{}
	u, err := NewUART(p, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := u.Init(); err != nil {
		t.Fatal(err)
	}
	if err := u.Deinit(); err != nil {
		t.Fatal(err)
	}
	if p.cfg != nil || p.closed {
		t.Fatal("pre-opened port must be left alone")
	}
}
