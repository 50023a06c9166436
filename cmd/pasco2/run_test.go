// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"bytes"
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/GermanBionicSystems/pasco2"
	"github.com/fogleman/gg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sensor emulates the register file of a powered sensor.
type sensor struct {
	mu   sync.Mutex
	regs pasco2.RegMap
}

func newSensor() *sensor {
	s := &sensor{}
	s.reset()
	return s
}

func (s *sensor) reset() {
	s.regs.Reset()
	s.regs[pasco2.RegProdID] = 0x42
	s.regs[pasco2.RegCO2PPMH] = 0x01
	s.regs[pasco2.RegCO2PPML] = 0xA4
	s.regs[pasco2.RegMeasSts] = 0x10
}

func (s *sensor) String() string            { return "sensor" }
func (s *sensor) Init() error               { return nil }
func (s *sensor) Deinit() error             { return nil }
func (s *sensor) Protocol() pasco2.Protocol { return pasco2.ProtoI2C }

func (s *sensor) Read(addr byte, b []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copy(b, s.regs[addr:])
	return nil
}

func (s *sensor) Write(addr byte, b []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if addr == pasco2.RegSensRst && b[0] == pasco2.CmdSoftReset {
		s.reset()
		return nil
	}
	copy(s.regs[addr:], b)
	// Forced compensation completes at once.
	if s.regs[pasco2.RegMeasCfg]&0x0C == 0x08 {
		s.regs[pasco2.RegMeasCfg] &^= 0x0C
	}
	return nil
}

func (s *sensor) word(addr byte) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int(s.regs[addr])<<8 | int(s.regs[addr+1])
}

type noDelay struct{}

func (noDelay) Init() error                     { return nil }
func (noDelay) Deinit() error                   { return nil }
func (noDelay) Start() error                    { return nil }
func (noDelay) Elapsed() (time.Duration, error) { return 0, nil }
func (noDelay) Stop() error                     { return nil }
func (noDelay) Delay(time.Duration) error       { return nil }

func newTestDev(t *testing.T) (*pasco2.Dev, *sensor, *Config) {
	s := newSensor()
	dev, err := pasco2.New(&pasco2.Opts{Bus: s, Timer: noDelay{}})
	require.NoError(t, err)
	cfg := Default()
	cfg.Poll = 5 * time.Millisecond
	return dev, s, cfg
}

func TestRun(t *testing.T) {
	data := []struct {
		args []string
		want string
	}{
		{[]string{"read"}, "420 PPM\n"},
		{[]string{"id"}, "product 2 rev 2\n"},
		{[]string{"diag"}, "sensor ready: true\npwm pin enabled: true\ntemperature out of range: false\n12V out of range: false\ncommunication error: false\n"},
		{[]string{"status"}, "power: On\ndata ready: true\ninterrupt: false\nalarm: false\n"},
		{[]string{"reset", "soft"}, ""},
		{[]string{"reset", "hard"}, ""},
		{[]string{"calibrate"}, "calibrated at 400 PPM\n"},
	}
	for _, line := range data {
		t.Run(line.args[0], func(t *testing.T) {
			dev, _, cfg := newTestDev(t)
			var buf bytes.Buffer
			require.NoError(t, run(context.Background(), dev, cfg, line.args, &buf))
			assert.Equal(t, line.want, buf.String())
		})
	}
}

func TestRun_calibrate(t *testing.T) {
	dev, s, cfg := newTestDev(t)
	var buf bytes.Buffer
	require.NoError(t, run(context.Background(), dev, cfg, []string{"calibrate", "500"}, &buf))
	assert.Equal(t, "calibrated at 500 PPM\n", buf.String())
	assert.Equal(t, 500, s.word(pasco2.RegCalibRefH))
}

func TestRun_compensation(t *testing.T) {
	dev, s, cfg := newTestDev(t)
	cfg.PressureHPa = 950
	cfg.ABOC = "periodic"
	cfg.CalibRef = 420
	require.NoError(t, run(context.Background(), dev, cfg, []string{"read"}, &bytes.Buffer{}))
	assert.Equal(t, 950, s.word(pasco2.RegPressRefH))
	assert.Equal(t, 420, s.word(pasco2.RegCalibRefH))
	assert.Equal(t, byte(0x04), s.regs[pasco2.RegMeasCfg]&0x0C)
}

func TestRun_errors(t *testing.T) {
	data := [][]string{
		nil,
		{"fly"},
		{"reset"},
		{"reset", "warm"},
		{"calibrate", "lots"},
		{"png"},
		{"png", "a.png", "wide", "10"},
	}
	for _, args := range data {
		dev, _, cfg := newTestDev(t)
		err := run(context.Background(), dev, cfg, args, &bytes.Buffer{})
		assert.Error(t, err, "%q", args)
		assert.Equal(t, pasco2.Uninited, dev.Status(), "%q", args)
	}
}

func TestRun_png(t *testing.T) {
	dev, _, cfg := newTestDev(t)
	path := filepath.Join(t.TempDir(), "co2.png")
	require.NoError(t, run(context.Background(), dev, cfg, []string{"png", path, "100", "50"}, &bytes.Buffer{}))
	img, err := gg.LoadPNG(path)
	require.NoError(t, err)
	assert.Equal(t, 100, img.Bounds().Dx())
	assert.Equal(t, 50, img.Bounds().Dy())
}

func TestMeasure_timeout(t *testing.T) {
	dev, s, cfg := newTestDev(t)
	s.regs[pasco2.RegMeasSts] = 0
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.NoError(t, dev.Enable())
	ppm, err := measure(ctx, dev, cfg)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, pasco2.PPM(-1), ppm)
}

// cancelWriter stops the command once a value was shown.
type cancelWriter struct {
	bytes.Buffer
	cancel func()
}

func (c *cancelWriter) Write(b []byte) (int, error) {
	n, err := c.Buffer.Write(b)
	if bytes.Contains(b, []byte("PPM")) {
		c.cancel()
	}
	return n, err
}

func TestRun_watch(t *testing.T) {
	dev, s, cfg := newTestDev(t)
	cfg.Period = 10 * time.Second
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w := &cancelWriter{cancel: cancel}
	require.NoError(t, run(ctx, dev, cfg, []string{"watch"}, w))
	assert.Contains(t, w.String(), "420 PPM")
	assert.Equal(t, 10, s.word(pasco2.RegMeasRateH))
	// Stopped on return.
	assert.Equal(t, byte(0), s.regs[pasco2.RegMeasCfg]&0x03)
}
