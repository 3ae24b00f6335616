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
	"sync"
	"time"
)

// MockPort is a scripted in-memory port for testing. Reads of the input
// register pop values from a script; once the script is exhausted the idle
// input value is returned. Every output write is recorded.
type MockPort struct {
	errors    map[string]error
	script    []byte
	writes    []byte
	input     byte
	output    byte
	direction byte
	reads     int
	mu        sync.Mutex
	closed    bool
}

// NewMockPort creates a mock port with all registers cleared
func NewMockPort() *MockPort {
	return &MockPort{errors: make(map[string]error)}
}

// ScriptInput queues values returned by successive ReadInput calls
func (m *MockPort) ScriptInput(values ...byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, values...)
}

// SetIdleInput sets the value returned once the script is exhausted
func (m *MockPort) SetIdleInput(value byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.input = value
}

// SetOutput presets the output register, e.g. to check that foreign bits survive
func (m *MockPort) SetOutput(value byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.output = value
}

// SetError makes the named operation fail: "ReadInput", "ReadOutput",
// "WriteOutput" or "ConfigureDirection"
func (m *MockPort) SetError(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[op] = err
}

// ReadInput returns the next scripted input value
func (m *MockPort) ReadInput() (byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check("ReadInput"); err != nil {
		return 0, err
	}
	m.reads++
	if len(m.script) > 0 {
		v := m.script[0]
		m.script = m.script[1:]
		return v, nil
	}
	return m.input, nil
}

// ReadOutput returns the output register
func (m *MockPort) ReadOutput() (byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check("ReadOutput"); err != nil {
		return 0, err
	}
	return m.output, nil
}

// WriteOutput records and stores value
func (m *MockPort) WriteOutput(value byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check("WriteOutput"); err != nil {
		return err
	}
	m.output = value
	m.writes = append(m.writes, value)
	return nil
}

// ConfigureDirection stores mask
func (m *MockPort) ConfigureDirection(mask byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check("ConfigureDirection"); err != nil {
		return err
	}
	m.direction = mask
	return nil
}

// Close marks the port closed
func (m *MockPort) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Type returns PortMock
func (*MockPort) Type() PortType {
	return PortMock
}

// Output returns the current output register
func (m *MockPort) Output() byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.output
}

// Direction returns the last configured direction mask
func (m *MockPort) Direction() byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.direction
}

// InputReads returns how many times the input register was read
func (m *MockPort) InputReads() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reads
}

// Writes returns a copy of every value written to the output register
func (m *MockPort) Writes() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.writes...)
}

// ClockedSymbols decodes the symbol of every write that raised the clock
func (m *MockPort) ClockedSymbols(pins PinMap) []Symbol {
	m.mu.Lock()
	defer m.mu.Unlock()
	var symbols []Symbol
	for _, w := range m.writes {
		if w&pins.ClockMask != 0 {
			symbols = append(symbols, pins.DecodeSymbol(w))
		}
	}
	return symbols
}

// IsClosed reports whether Close was called
func (m *MockPort) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func (m *MockPort) check(op string) error {
	if m.closed {
		return ErrPortClosed
	}
	return m.errors[op]
}

// VirtualClock is a Clock whose time only moves when Sleep is called
type VirtualClock struct {
	now    time.Time
	sleeps []time.Duration
	mu     sync.Mutex
}

// NewVirtualClock creates a clock starting at the Unix epoch
func NewVirtualClock() *VirtualClock {
	return &VirtualClock{now: time.Unix(0, 0)}
}

// Now returns the virtual time
func (c *VirtualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Sleep advances the virtual time by d
func (c *VirtualClock) Sleep(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sleeps = append(c.sleeps, d)
	if d > 0 {
		c.now = c.now.Add(d)
	}
}

// Elapsed returns the virtual time passed since creation
func (c *VirtualClock) Elapsed() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now.Sub(time.Unix(0, 0))
}

// Sleeps returns every requested sleep duration
func (c *VirtualClock) Sleeps() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.sleeps...)
}
