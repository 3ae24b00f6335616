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

// Package gpio provides a pairlink.Port backed by four host GPIO pins
// through periph.io
package gpio

import (
	"errors"
	"fmt"
	"sync"
	"time"

	pairlink "github.com/ZaparooProject/go-pairlink"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

// ErrPinNotFound is returned when a pin name is unknown to the host
var ErrPinNotFound = errors.New("gpio pin not found")

// registerWidth is the number of bits in the emulated port register
const registerWidth = 8

// Pins names the host pins carrying the link lines. The names are resolved
// with gpioreg, so both "GPIO17" and board aliases such as "P1_11" work.
type Pins struct {
	Data0    string // low data bit
	Data1    string // high data bit
	Response string
	Clock    string
}

// DefaultPins returns the Raspberry Pi wiring used by the reference cable
func DefaultPins() Pins {
	return Pins{
		Data0:    "GPIO17",
		Data1:    "GPIO27",
		Response: "GPIO22",
		Clock:    "GPIO23",
	}
}

// Port emulates an 8-bit port register on top of individual GPIO lines.
// Line i of the register is the pin mapped to bit i, which lets the link's
// PinMap address GPIO pins exactly like the bits of a microcontroller port.
type Port struct {
	lines     [registerWidth]gpio.PinIO
	mu        sync.Mutex
	output    byte
	direction byte
	closed    bool
}

// Open initializes the host drivers and maps pins onto the default register
// layout: data on bits 0-1, response on bit 2, clock on bit 3.
func Open(pins Pins) (*Port, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph host: %w", err)
	}

	names := map[int]string{0: pins.Data0, 1: pins.Data1, 2: pins.Response, 3: pins.Clock}
	lines := make(map[int]gpio.PinIO, len(names))
	for bit, name := range names {
		p := gpioreg.ByName(name)
		if p == nil {
			return nil, fmt.Errorf("%w: %s", ErrPinNotFound, name)
		}
		lines[bit] = p
	}
	return NewWithLines(lines)
}

// NewWithLines creates a port from already resolved pins keyed by register bit
func NewWithLines(lines map[int]gpio.PinIO) (*Port, error) {
	p := &Port{}
	for bit, line := range lines {
		if bit < 0 || bit >= registerWidth {
			return nil, fmt.Errorf("%w: register bit %d out of range", pairlink.ErrInvalidConfig, bit)
		}
		if line == nil {
			return nil, fmt.Errorf("%w: bit %d", ErrPinNotFound, bit)
		}
		p.lines[bit] = line
	}
	return p, nil
}

// ReadInput samples every mapped line
func (p *Port) ReadInput() (byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return 0, pairlink.ErrPortClosed
	}

	var reg byte
	for bit, line := range p.lines {
		if line != nil && line.Read() == gpio.High {
			reg |= 1 << uint(bit)
		}
	}
	return reg, nil
}

// ReadOutput returns the last written output register
func (p *Port) ReadOutput() (byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return 0, pairlink.ErrPortClosed
	}
	return p.output, nil
}

// WriteOutput drives every output line whose bit changed
func (p *Port) WriteOutput(value byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return pairlink.ErrPortClosed
	}

	changed := p.output ^ value
	for bit, line := range p.lines {
		mask := byte(1) << uint(bit)
		if line == nil || p.direction&mask == 0 || changed&mask == 0 {
			continue
		}
		if err := line.Out(levelOf(value, mask)); err != nil {
			return fmt.Errorf("failed to drive %s: %w", line.Name(), err)
		}
	}
	p.output = value
	return nil
}

// ConfigureDirection turns lines in mask into outputs holding their current
// register value. The remaining lines become inputs with a pull-down, so a
// disconnected receiver reads as a low response line.
func (p *Port) ConfigureDirection(mask byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return pairlink.ErrPortClosed
	}

	for bit, line := range p.lines {
		if line == nil {
			continue
		}
		bitMask := byte(1) << uint(bit)
		var err error
		if mask&bitMask != 0 {
			err = line.Out(levelOf(p.output, bitMask))
		} else {
			err = line.In(gpio.PullDown, gpio.NoEdge)
		}
		if err != nil {
			return fmt.Errorf("failed to configure %s: %w", line.Name(), err)
		}
	}
	p.direction = mask
	return nil
}

// Close drives all output lines low and releases the port
func (p *Port) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true

	var errs []error
	for bit, line := range p.lines {
		if line != nil && p.direction&(1<<uint(bit)) != 0 {
			errs = append(errs, line.Out(gpio.Low))
		}
	}
	return errors.Join(errs...)
}

// Type returns PortGPIO
func (*Port) Type() pairlink.PortType {
	return pairlink.PortGPIO
}

// SymbolRate returns the bus symbol rate for a given symbol settle delay
func SymbolRate(settle time.Duration) physic.Frequency {
	if settle <= 0 {
		return 0
	}
	return physic.PeriodToFrequency(settle)
}

func levelOf(reg, mask byte) gpio.Level {
	if reg&mask != 0 {
		return gpio.High
	}
	return gpio.Low
}

var _ pairlink.Port = (*Port)(nil)
