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

package pairlink

import (
	"fmt"
	"math/bits"

	"github.com/ZaparooProject/go-pairlink/internal/frame"
)

// Symbol is a 2-bit value driven onto the data lines with one clock pulse
type Symbol = frame.Symbol

// Packet is a framed payload byte: [START, payload, checksum, END]
type Packet = frame.Packet

// Package is the 32-bit register holding the 16 symbols of one packet
type Package = frame.Package

// Port defines the register-level access the link needs from the hardware.
// Implementations exist for GPIO pins, a USB-serial register bridge and a
// simulated peer.
type Port interface {
	// ReadInput returns the input register (the response line lives here)
	ReadInput() (byte, error)

	// ReadOutput returns the current output register
	ReadOutput() (byte, error)

	// WriteOutput writes the output register
	WriteOutput(value byte) error

	// ConfigureDirection marks the bits in mask as outputs, the rest as inputs
	ConfigureDirection(mask byte) error

	// Close releases the port
	Close() error

	// Type returns the port type
	Type() PortType
}

// PortType represents the kind of Port backend
type PortType string

const (
	// PortGPIO drives four host GPIO pins directly.
	PortGPIO PortType = "gpio"
	// PortBridge talks to a register bridge board over a serial line.
	PortBridge PortType = "bridge"
	// PortSim is an in-process simulated receiver.
	PortSim PortType = "sim"
	// PortMock is a scripted port for testing
	PortMock PortType = "mock"
)

// PinMap assigns the link lines to register bits
type PinMap struct {
	// DataMask selects the two data bits of the output register. The higher
	// bit carries the most significant bit of a symbol.
	DataMask byte
	// ClockMask selects the clock bit of the output register
	ClockMask byte
	// ResponseMask selects the response bit of the input register
	ResponseMask byte
}

// DefaultPinMap returns the reference wiring: data on bits 0-1, response on
// bit 2 and clock on bit 3.
func DefaultPinMap() PinMap {
	return PinMap{
		DataMask:     0x03,
		ClockMask:    0x08,
		ResponseMask: 0x04,
	}
}

// Validate checks that the masks select the right number of disjoint bits
func (m PinMap) Validate() error {
	if bits.OnesCount8(m.DataMask) != 2 {
		return fmt.Errorf("%w: data mask 0x%02X must select exactly two bits", ErrInvalidConfig, m.DataMask)
	}
	if bits.OnesCount8(m.ClockMask) != 1 {
		return fmt.Errorf("%w: clock mask 0x%02X must select one bit", ErrInvalidConfig, m.ClockMask)
	}
	if bits.OnesCount8(m.ResponseMask) != 1 {
		return fmt.Errorf("%w: response mask 0x%02X must select one bit", ErrInvalidConfig, m.ResponseMask)
	}
	if m.DataMask&m.ClockMask != 0 || m.ResponseMask&(m.DataMask|m.ClockMask) != 0 {
		return fmt.Errorf("%w: data, clock and response bits overlap", ErrInvalidConfig)
	}
	return nil
}

// OutputMask returns the bits the link drives (data and clock)
func (m PinMap) OutputMask() byte {
	return m.DataMask | m.ClockMask
}

// EncodeSymbol places s onto the data bits
func (m PinMap) EncodeSymbol(s Symbol) byte {
	low := m.DataMask & -m.DataMask
	high := m.DataMask &^ low

	var v byte
	if s&0x01 != 0 {
		v |= low
	}
	if s&0x02 != 0 {
		v |= high
	}
	return v
}

// DecodeSymbol reads the symbol currently on the data bits of reg
func (m PinMap) DecodeSymbol(reg byte) Symbol {
	low := m.DataMask & -m.DataMask
	high := m.DataMask &^ low

	var s Symbol
	if reg&high != 0 {
		s |= 0x02
	}
	if reg&low != 0 {
		s |= 0x01
	}
	return s
}
