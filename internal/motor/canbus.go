// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package motor

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"time"

	"go.einride.tech/can"
	"go.einride.tech/can/pkg/socketcan"
)

// CANFullScale is the command value for full power in either direction.
const CANFullScale = 1000

const canWriteTimeout = 50 * time.Millisecond

type frameTransmitter interface {
	TransmitFrame(ctx context.Context, f can.Frame) error
}

// CANBus sends one frame per command to a motor controller on SocketCAN.
// Payload: left then right as little-endian int16 in per-mille of full
// power.
type CANBus struct {
	tx    frameTransmitter
	conn  io.Closer
	id    uint32
	scale float64
}

func OpenCANBus(ctx context.Context, iface string, frameID uint32, scale float64) (*CANBus, error) {
	conn, err := socketcan.DialContext(ctx, "can", iface)
	if err != nil {
		return nil, fmt.Errorf("%w: canbus: dial %s: %v", ErrNotFound, iface, err)
	}
	return newCANBus(socketcan.NewTransmitter(conn), conn, frameID, scale), nil
}

func newCANBus(tx frameTransmitter, conn io.Closer, id uint32, scale float64) *CANBus {
	return &CANBus{tx: tx, conn: conn, id: id, scale: scale}
}

func (c *CANBus) Name() string { return "canbus" }

func (c *CANBus) frame(left, right float64) can.Frame {
	f := can.Frame{ID: c.id, Length: 4}
	binary.LittleEndian.PutUint16(f.Data[0:2], uint16(int16(math.Round(unit(left, c.scale)*CANFullScale))))
	binary.LittleEndian.PutUint16(f.Data[2:4], uint16(int16(math.Round(unit(right, c.scale)*CANFullScale))))
	return f
}

func (c *CANBus) SetPower(left, right float64) error {
	ctx, cancel := context.WithTimeout(context.Background(), canWriteTimeout)
	defer cancel()
	if err := c.tx.TransmitFrame(ctx, c.frame(left, right)); err != nil {
		return fmt.Errorf("canbus: transmit: %w", err)
	}
	return nil
}

func (c *CANBus) Stop() error { return c.SetPower(0, 0) }

func (c *CANBus) Close() error {
	err := c.Stop()
	if c.conn != nil {
		if cerr := c.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
