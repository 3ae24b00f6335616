// go-pairlink
// Copyright (c) 2025 The Zaparoo Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-pairlink.
//
// go-pairlink is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-pairlink is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-pairlink; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

// Package bridge provides a pairlink.Port for a microcontroller register
// bridge attached over a USB serial line.
//
// The board exposes its 8-bit I/O port through a two byte request/response
// protocol. Every request is [opcode, argument] and every reply is
// [opcode|0x80, value]. A rejected request is answered with [0xFF, code].
package bridge

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	pairlink "github.com/ZaparooProject/go-pairlink"
	"github.com/ZaparooProject/go-pairlink/internal/transport"
	"go.bug.st/serial"
)

// Bridge errors
var (
	ErrBridgeTimeout  = errors.New("bridge did not reply")
	ErrBridgeProtocol = errors.New("unexpected bridge reply")
	ErrBridgeRejected = errors.New("bridge rejected request")
)

const (
	// DefaultBaudRate is the line speed of the bridge firmware
	DefaultBaudRate = 57600

	// DefaultTimeout bounds a single request/response exchange
	DefaultTimeout = 100 * time.Millisecond

	// DefaultBootTimeout covers the reset most boards perform when the
	// serial line is opened
	DefaultBootTimeout = 3 * time.Second

	// DefaultRetries is how often a garbled or lost exchange is repeated
	DefaultRetries = 2
)

// Protocol opcodes
const (
	opEcho         byte = 0x00
	opReadInput    byte = 0x01
	opReadOutput   byte = 0x02
	opWriteOutput  byte = 0x03
	opSetDirection byte = 0x04

	replyFlag  byte = 0x80
	replyError byte = 0xFF

	echoProbe byte = 0xA5
)

// Config holds bridge line settings
type Config struct {
	// Pins selects the output bits Close drives low
	Pins        pairlink.PinMap
	BaudRate    int
	Timeout     time.Duration
	BootTimeout time.Duration
	Retries     int
}

// DefaultConfig returns the settings of the reference firmware
func DefaultConfig() Config {
	return Config{
		Pins:        pairlink.DefaultPinMap(),
		BaudRate:    DefaultBaudRate,
		Timeout:     DefaultTimeout,
		BootTimeout: DefaultBootTimeout,
		Retries:     DefaultRetries,
	}
}

// inputResetter is implemented by serial.Port
type inputResetter interface {
	ResetInputBuffer() error
}

// Port talks to the register bridge. Register operations are idempotent,
// so a lost or garbled exchange is simply repeated.
type Port struct {
	conn    io.ReadWriteCloser
	path    string
	mu      sync.Mutex
	retries int
	owned   byte
	closed  bool
}

// Open opens the serial device at path and waits for the board to answer
func Open(path string, cfg Config) (*Port, error) {
	if cfg.BaudRate <= 0 {
		cfg.BaudRate = DefaultBaudRate
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	mode := &serial.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	conn, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open bridge %s: %w", path, err)
	}
	if err := conn.SetReadTimeout(cfg.Timeout); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to set read timeout: %w", err)
	}

	p := NewWithConn(conn, cfg.Retries)
	p.path = path
	if cfg.Pins.OutputMask() != 0 {
		p.SetPinMap(cfg.Pins)
	}
	if err := p.WaitReady(cfg.BootTimeout); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return p, nil
}

// NewWithConn wraps an already open connection. The connection's Read must
// return (0, nil) when its read timeout expires, like go.bug.st/serial does.
func NewWithConn(conn io.ReadWriteCloser, retries int) *Port {
	if retries < 0 {
		retries = 0
	}
	return &Port{
		conn:    conn,
		retries: retries,
		owned:   pairlink.DefaultPinMap().OutputMask(),
	}
}

// SetPinMap sets the link's data and clock bits. Close clears only these and
// leaves the rest of the output register as it found it.
func (p *Port) SetPinMap(pins pairlink.PinMap) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.owned = pins.OutputMask()
}

// Path returns the serial device path, empty for wrapped connections
func (p *Port) Path() string {
	return p.path
}

// WaitReady echoes a probe byte until the board answers or timeout passes
func (p *Port) WaitReady(timeout time.Duration) error {
	if timeout <= 0 {
		timeout = DefaultBootTimeout
	}
	_, err := transport.TimeoutRetry(timeout, 50*time.Millisecond, func() (struct{}, bool, error) {
		v, err := p.exchange(opEcho, echoProbe)
		if errors.Is(err, ErrBridgeTimeout) || errors.Is(err, ErrBridgeProtocol) ||
			errors.Is(err, transport.ErrRetriesExhausted) {
			return struct{}{}, true, nil
		}
		if err != nil {
			return struct{}{}, false, err
		}
		if v != echoProbe {
			return struct{}{}, true, nil
		}
		return struct{}{}, false, nil
	})
	if err != nil {
		return fmt.Errorf("bridge not ready: %w", err)
	}
	return nil
}

// ReadInput returns the board's input register
func (p *Port) ReadInput() (byte, error) {
	return p.exchange(opReadInput, 0)
}

// ReadOutput returns the board's output register
func (p *Port) ReadOutput() (byte, error) {
	return p.exchange(opReadOutput, 0)
}

// WriteOutput writes the board's output register
func (p *Port) WriteOutput(value byte) error {
	got, err := p.exchange(opWriteOutput, value)
	if err != nil {
		return err
	}
	if got != value {
		return fmt.Errorf("%w: wrote 0x%02X, board reports 0x%02X", ErrBridgeProtocol, value, got)
	}
	return nil
}

// ConfigureDirection writes the board's data direction register
func (p *Port) ConfigureDirection(mask byte) error {
	got, err := p.exchange(opSetDirection, mask)
	if err != nil {
		return err
	}
	if got != mask {
		return fmt.Errorf("%w: direction 0x%02X, board reports 0x%02X", ErrBridgeProtocol, mask, got)
	}
	return nil
}

// Close drives the link's output bits low and closes the serial line
func (p *Port) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	owned := p.owned
	p.mu.Unlock()

	idleErr := p.idle(owned)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return errors.Join(idleErr, p.conn.Close())
}

func (p *Port) idle(owned byte) error {
	cur, err := p.ReadOutput()
	if err != nil {
		return err
	}
	if cur&owned == 0 {
		return nil
	}
	return p.WriteOutput(cur &^ owned)
}

// Type returns PortBridge
func (*Port) Type() pairlink.PortType {
	return pairlink.PortBridge
}

func (p *Port) exchange(op, arg byte) (byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return 0, pairlink.ErrPortClosed
	}

	cfg := transport.RetryConfig{
		Description: fmt.Sprintf("bridge opcode 0x%02X", op),
		MaxRetries:  p.retries,
		OnRetry:     p.resync,
	}
	return transport.WithRetry(cfg, func() (byte, bool, error) {
		if _, err := p.conn.Write([]byte{op, arg}); err != nil {
			return 0, false, fmt.Errorf("failed to write request: %w", err)
		}

		var reply [2]byte
		if err := p.readFull(reply[:]); err != nil {
			if errors.Is(err, ErrBridgeTimeout) {
				return 0, true, nil
			}
			return 0, false, err
		}

		switch reply[0] {
		case op | replyFlag:
			return reply[1], false, nil
		case replyError:
			return 0, false, fmt.Errorf("%w: opcode 0x%02X, code 0x%02X", ErrBridgeRejected, op, reply[1])
		default:
			return 0, true, nil
		}
	})
}

func (p *Port) readFull(buf []byte) error {
	for read := 0; read < len(buf); {
		n, err := p.conn.Read(buf[read:])
		if err != nil {
			return fmt.Errorf("failed to read reply: %w", err)
		}
		if n == 0 {
			return ErrBridgeTimeout
		}
		read += n
	}
	return nil
}

// resync drops whatever is left of a broken reply
func (p *Port) resync() error {
	if r, ok := p.conn.(inputResetter); ok {
		if err := r.ResetInputBuffer(); err != nil {
			return fmt.Errorf("failed to reset input buffer: %w", err)
		}
	}
	return nil
}

var _ pairlink.Port = (*Port)(nil)
