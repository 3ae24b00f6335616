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

import (
	"errors"
	"fmt"
)

// Decoder errors
var (
	ErrBadStart         = errors.New("packet start marker mismatch")
	ErrBadEnd           = errors.New("packet end marker mismatch")
	ErrChecksumMismatch = errors.New("packet checksum mismatch")
)

// Decoder validates packets on the receiving side. It mirrors the sender's
// cumulative checksum and only advances it when a packet is accepted, so a
// rejected packet can be received again on retransmission.
type Decoder struct {
	checksum byte
}

// NewDecoder returns a decoder expecting a fresh session
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode validates the packet held in pkg and returns its payload
func (d *Decoder) Decode(pkg Package) (byte, error) {
	pkt := UnpackPackage(pkg)
	if pkt[offsetStart] != StartSign {
		return 0, fmt.Errorf("%w: got 0x%02X", ErrBadStart, pkt[offsetStart])
	}
	if pkt[offsetEnd] != EndSign {
		return 0, fmt.Errorf("%w: got 0x%02X", ErrBadEnd, pkt[offsetEnd])
	}

	want := d.checksum + pkt.Payload()
	if pkt.Checksum() != want {
		return 0, fmt.Errorf("%w: got 0x%02X, want 0x%02X", ErrChecksumMismatch, pkt.Checksum(), want)
	}

	d.checksum = want
	return pkt.Payload(), nil
}

// Checksum returns the checksum of all accepted payloads
func (d *Decoder) Checksum() byte {
	return d.checksum
}

// Reset starts a new session
func (d *Decoder) Reset() {
	d.checksum = 0
}
