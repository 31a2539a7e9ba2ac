// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package motor

import (
	"fmt"
	"io"
	"math"

	serial "github.com/jacobsa/go-serial/serial"
)

// Packetized serial commands. M1 is the left wheel, M2 the right.
const (
	stM1Forward  = 0
	stM1Backward = 1
	stM2Forward  = 4
	stM2Backward = 5

	stBaudByte = 0xAA
	stMaxSpeed = 127
)

// Sabertooth is a Dimension Engineering Sabertooth in packetized serial
// mode.
type Sabertooth struct {
	port    io.ReadWriteCloser
	address byte
	scale   float64
}

func OpenSabertooth(portName string, baud int, address byte, scale float64) (*Sabertooth, error) {
	opts := serial.OpenOptions{
		PortName:        portName,
		BaudRate:        uint(baud),
		DataBits:        8,
		StopBits:        1,
		MinimumReadSize: 1,
		ParityMode:      serial.PARITY_NONE,
	}
	port, err := serial.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("%w: sabertooth: open %s: %v", ErrNotFound, portName, err)
	}
	s, err := newSabertooth(port, address, scale)
	if err != nil {
		port.Close()
		return nil, err
	}
	return s, nil
}

// newSabertooth sends the autobaud byte and stops both motors.
func newSabertooth(port io.ReadWriteCloser, address byte, scale float64) (*Sabertooth, error) {
	if _, err := port.Write([]byte{stBaudByte}); err != nil {
		return nil, fmt.Errorf("sabertooth: autobaud: %w", err)
	}
	s := &Sabertooth{port: port, address: address, scale: scale}
	if err := s.Stop(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Sabertooth) Name() string { return "sabertooth" }

func (s *Sabertooth) packet(cmd, data byte) []byte {
	return []byte{s.address, cmd, data, (s.address + cmd + data) & 0x7F}
}

func (s *Sabertooth) motor(fwd, back byte, p float64) error {
	cmd := fwd
	if p < 0 {
		cmd = back
	}
	speed := byte(math.Min(stMaxSpeed, math.Abs(p)*stMaxSpeed))
	_, err := s.port.Write(s.packet(cmd, speed))
	return err
}

func (s *Sabertooth) SetPower(left, right float64) error {
	if err := s.motor(stM1Forward, stM1Backward, unit(left, s.scale)); err != nil {
		return fmt.Errorf("sabertooth: M1: %w", err)
	}
	if err := s.motor(stM2Forward, stM2Backward, unit(right, s.scale)); err != nil {
		return fmt.Errorf("sabertooth: M2: %w", err)
	}
	return nil
}

func (s *Sabertooth) Stop() error { return s.SetPower(0, 0) }

func (s *Sabertooth) Close() error {
	err := s.Stop()
	if cerr := s.port.Close(); err == nil {
		err = cerr
	}
	return err
}
