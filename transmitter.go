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

import "time"

// Transmitter drives single symbols onto the bus with a clock strobe.
// All register access is read-modify-write limited to the data and clock
// bits, so the response bit sharing the port is left alone.
type Transmitter struct {
	port   Port
	clock  Clock
	pins   PinMap
	settle time.Duration
}

// NewTransmitter creates a transmitter on port
func NewTransmitter(port Port, pins PinMap, clock Clock, settle time.Duration) *Transmitter {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Transmitter{
		port:   port,
		clock:  clock,
		pins:   pins,
		settle: settle,
	}
}

// SendSymbol puts s on the data lines with the clock high, holds it for the
// settle interval, then drops the clock. The data bits stay set after the
// clock falls so the receiver's last sample sees a stable line.
func (t *Transmitter) SendSymbol(s Symbol) error {
	if err := t.update(t.pins.EncodeSymbol(s) | t.pins.ClockMask); err != nil {
		return err
	}

	t.clock.Sleep(t.settle)

	reg, err := t.port.ReadOutput()
	if err != nil {
		return NewPortError("sendSymbol", t.port.Type(), err)
	}
	if err := t.port.WriteOutput(reg &^ t.pins.ClockMask); err != nil {
		return NewPortError("sendSymbol", t.port.Type(), err)
	}
	return nil
}

// Idle clears the data and clock bits
func (t *Transmitter) Idle() error {
	return t.update(0)
}

// update replaces the data and clock bits with bits
func (t *Transmitter) update(bits byte) error {
	reg, err := t.port.ReadOutput()
	if err != nil {
		return NewPortError("readOutput", t.port.Type(), err)
	}

	reg &^= t.pins.OutputMask()
	reg |= bits & t.pins.OutputMask()

	if err := t.port.WriteOutput(reg); err != nil {
		return NewPortError("writeOutput", t.port.Type(), err)
	}
	return nil
}
