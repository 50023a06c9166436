// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package pasco2

import (
	"errors"
	"fmt"
	"time"

	"github.com/goburrow/serial"
)

const (
	// UARTBaud is the default baud rate.
	UARTBaud = 9600
	// UARTBaudMax is the highest baud rate supported by the sensor.
	UARTBaudMax = 19200
	// UARTFrameTimeout is the time allowed for each reply frame.
	UARTFrameTimeout = 200 * time.Millisecond
)

// Frame bytes of the ASCII protocol.
const (
	uartAck  = 0x06
	uartNack = 0x15
	uartEOL  = '\n'

	writeFrameLen = 8
	readFrameLen  = 5
	ackFrameLen   = 2
	replyFrameLen = 3
)

var errNack = errors.New("nack")

// UARTOpts configures a UART channel.
type UARTOpts struct {
	// Address is the serial device, e.g. /dev/ttyUSB0. When empty the port
	// is assumed to be open already and Init does not reconfigure it.
	Address string
	// Baud defaults to UARTBaud.
	Baud int
	// FrameTimeout defaults to UARTFrameTimeout.
	FrameTimeout time.Duration
}

// UART is a Channel speaking the sensor ASCII protocol, one request/reply
// round trip per register.
type UART struct {
	p    serial.Port
	opts UARTOpts
	open bool
}

// NewUART returns a Channel on port p. opts may be nil.
func NewUART(p serial.Port, opts *UARTOpts) (*UART, error) {
	u := &UART{p: p, opts: UARTOpts{Baud: UARTBaud, FrameTimeout: UARTFrameTimeout}}
	if opts != nil {
		u.opts.Address = opts.Address
		if opts.Baud != 0 {
			u.opts.Baud = opts.Baud
		}
		if opts.FrameTimeout > 0 {
			u.opts.FrameTimeout = opts.FrameTimeout
		}
	}
	if u.opts.Baud < UARTBaud || u.opts.Baud > UARTBaudMax {
		return nil, opErr(fmt.Sprintf("uart baud %d outside [%d, %d]", u.opts.Baud, UARTBaud, UARTBaudMax), ErrConfig, nil)
	}
	return u, nil
}

func (u *UART) String() string {
	return fmt.Sprintf("pasco2.UART{%s, %d}", u.opts.Address, u.opts.Baud)
}

// Init opens the port as 8N1.
func (u *UART) Init() error {
	if u.opts.Address == "" || u.open {
		return nil
	}
	err := u.p.Open(&serial.Config{
		Address:  u.opts.Address,
		BaudRate: u.opts.Baud,
		DataBits: 8,
		StopBits: 1,
		Parity:   "N",
		Timeout:  u.opts.FrameTimeout,
	})
	if err != nil {
		return opErr("uart init", ErrIntf, err)
	}
	u.open = true
	return nil
}

// Deinit closes the port if Init opened it.
func (u *UART) Deinit() error {
	if !u.open {
		return nil
	}
	u.open = false
	if err := u.p.Close(); err != nil {
		return opErr("uart deinit", ErrIntf, err)
	}
	return nil
}

// Read reads len(buf) registers starting at addr. The first failing
// register aborts the call.
func (u *UART) Read(addr byte, buf []byte) error {
	var reply [replyFrameLen]byte
	for i := range buf {
		a := addr + byte(i)
		if err := u.send(readRequest(a)); err != nil {
			return opErr(fmt.Sprintf("uart read 0x%02x", a), ErrIntf, err)
		}
		if err := u.receive(reply[:]); err != nil {
			return opErr(fmt.Sprintf("uart read 0x%02x", a), ErrIntf, err)
		}
		v, err := parseReadReply(reply[:])
		if err != nil {
			return opErr(fmt.Sprintf("uart read 0x%02x", a), ErrIntf, err)
		}
		buf[i] = v
	}
	return nil
}

// Write writes buf to consecutive registers starting at addr. Each register
// must be acknowledged, except the soft reset command whose reply, if any,
// is read and ignored.
func (u *UART) Write(addr byte, buf []byte) error {
	var reply [ackFrameLen]byte
	for i, v := range buf {
		a := addr + byte(i)
		if err := u.send(writeRequest(a, v)); err != nil {
			return opErr(fmt.Sprintf("uart write 0x%02x", a), ErrIntf, err)
		}
		if a == RegSensRst && v == CmdSoftReset {
			// The sensor may reset before answering. Drain the reply if
			// one comes so it does not prefix the next frame.
			_ = u.receive(reply[:])
			continue
		}
		if err := u.receive(reply[:]); err != nil {
			return opErr(fmt.Sprintf("uart write 0x%02x", a), ErrIntf, err)
		}
		if !isAck(reply[:]) {
			return opErr(fmt.Sprintf("uart write 0x%02x", a), ErrIntf, fmt.Errorf("no ack, got %q", reply[:]))
		}
	}
	return nil
}

// Protocol implements Channel.
func (u *UART) Protocol() Protocol {
	return ProtoUART
}

func (u *UART) send(frame []byte) error {
	for len(frame) != 0 {
		n, err := u.p.Write(frame)
		if err != nil {
			return err
		}
		frame = frame[n:]
	}
	return nil
}

// receive fills buf or fails once the frame timeout elapses.
func (u *UART) receive(buf []byte) error {
	deadline := time.Now().Add(u.opts.FrameTimeout)
	got := 0
	for got < len(buf) {
		n, err := u.p.Read(buf[got:])
		got += n
		if err != nil && !errors.Is(err, serial.ErrTimeout) {
			return err
		}
		if got < len(buf) && got >= ackFrameLen && buf[0] == uartNack && buf[1] == uartEOL {
			return errNack
		}
		if got < len(buf) && !time.Now().Before(deadline) {
			return fmt.Errorf("timeout after %d of %d bytes", got, len(buf))
		}
	}
	return nil
}

func hexDigit(v byte) byte {
	const digits = "0123456789abcdef"
	return digits[v&0x0F]
}

func unhexDigit(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

// writeRequest returns "w,AA,VV\n".
func writeRequest(addr, v byte) []byte {
	return []byte{'w', ',', hexDigit(addr >> 4), hexDigit(addr), ',', hexDigit(v >> 4), hexDigit(v), uartEOL}
}

// readRequest returns "r,AA\n".
func readRequest(addr byte) []byte {
	return []byte{'r', ',', hexDigit(addr >> 4), hexDigit(addr), uartEOL}
}

// parseReadReply decodes "VV\n", with case insensitive hex digits.
func parseReadReply(frame []byte) (byte, error) {
	if len(frame) != replyFrameLen {
		return 0, fmt.Errorf("reply length %d", len(frame))
	}
	if frame[0] == uartNack {
		return 0, errNack
	}
	hi, ok1 := unhexDigit(frame[0])
	lo, ok2 := unhexDigit(frame[1])
	if !ok1 || !ok2 || frame[2] != uartEOL {
		return 0, fmt.Errorf("malformed reply %q", frame)
	}
	return hi<<4 | lo, nil
}

func isAck(frame []byte) bool {
	return len(frame) == ackFrameLen && frame[0] == uartAck && frame[1] == uartEOL
}

var _ Channel = &UART{}
