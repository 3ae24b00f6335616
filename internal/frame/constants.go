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

// Package frame provides packet framing, checksum accumulation and 2-bit symbol
// conversion for the pairlink wire protocol
package frame

// Packet markers
const (
	StartSign = 0x02 // STX, first byte of every packet
	EndSign   = 0x03 // ETX, last byte of every packet
)

// Size constants
const (
	PacketLength      = 4                             // START, payload, checksum, END
	SymbolsPerByte    = 4                             // 8 bits / 2 bits per symbol
	SymbolsPerPackage = PacketLength * SymbolsPerByte // 16 symbols = 32 bits
	SymbolMask        = 0x03                          // low two bits carry a symbol
	lastSymbolShift   = 2 * (SymbolsPerPackage - 1)   // 30, shift of the oldest symbol
)

// Byte offsets inside a packet
const (
	offsetStart    = 0
	offsetPayload  = 1
	offsetChecksum = 2
	offsetEnd      = 3
)
