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

// Response is the classification of the response line after a package
type Response int

const (
	// ResponseTimeout means the line was low on the first sample
	ResponseTimeout Response = iota
	// ResponseAck means the line stayed high across the settle window
	ResponseAck
	// ResponseNack means the line was high, then low after the settle window
	ResponseNack
)

// String returns the response name
func (r Response) String() string {
	switch r {
	case ResponseAck:
		return "ACK"
	case ResponseNack:
		return "NACK"
	default:
		return "TIMEOUT"
	}
}

// Monitor samples the response line with a two-stage debounce. Only a level
// that is still high after the settle window counts as ACK; a short pulse is
// a NACK. It keeps no state between polls.
type Monitor struct {
	port   Port
	clock  Clock
	settle time.Duration
	mask   byte
}

// NewMonitor creates a monitor reading the bit selected by mask
func NewMonitor(port Port, mask byte, clock Clock, settle time.Duration) *Monitor {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Monitor{
		port:   port,
		clock:  clock,
		settle: settle,
		mask:   mask,
	}
}

// Poll classifies the response line
func (m *Monitor) Poll() (Response, error) {
	high, err := m.sample()
	if err != nil {
		return ResponseTimeout, err
	}
	if !high {
		return ResponseTimeout, nil
	}

	m.clock.Sleep(m.settle)

	high, err = m.sample()
	if err != nil {
		return ResponseTimeout, err
	}
	if high {
		return ResponseAck, nil
	}
	return ResponseNack, nil
}

func (m *Monitor) sample() (bool, error) {
	reg, err := m.port.ReadInput()
	if err != nil {
		return false, NewPortError("readInput", m.port.Type(), err)
	}
	return reg&m.mask != 0, nil
}
