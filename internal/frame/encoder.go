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

package frame

import "fmt"

// Packet is one framed payload byte: [START, payload, checksum, END]
type Packet [PacketLength]byte

// Payload returns the payload byte
func (p Packet) Payload() byte {
	return p[offsetPayload]
}

// Checksum returns the running checksum carried by the packet
func (p Packet) Checksum() byte {
	return p[offsetChecksum]
}

// String renders the packet as hex bytes
func (p Packet) String() string {
	return fmt.Sprintf("[%02X %02X %02X %02X]", p[0], p[1], p[2], p[3])
}

// CalculateChecksum returns the sum of data modulo 256
func CalculateChecksum(data []byte) byte {
	var sum byte
	for _, b := range data {
		sum += b
	}
	return sum
}

// Encoder frames payload bytes into packets and carries the running checksum
// across the whole stream. The checksum is only reset by Reset.
//
// Encoder is not safe for concurrent use.
type Encoder struct {
	checksum byte
	count    uint64
}

// NewEncoder returns an encoder with a zero checksum
func NewEncoder() *Encoder {
	return &Encoder{}
}

// Encode adds payload to the running checksum and returns its packet
func (e *Encoder) Encode(payload byte) Packet {
	e.checksum += payload
	e.count++
	return Packet{StartSign, payload, e.checksum, EndSign}
}

// Checksum returns the running checksum
func (e *Encoder) Checksum() byte {
	return e.checksum
}

// Count returns how many packets were encoded since the last reset
func (e *Encoder) Count() uint64 {
	return e.count
}

// Restore continues a session whose running checksum is already known
func (e *Encoder) Restore(checksum byte) {
	e.checksum = checksum
	e.count = 0
}

// Reset starts a new session
func (e *Encoder) Reset() {
	e.checksum = 0
	e.count = 0
}
