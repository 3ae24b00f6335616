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

// Symbol is a 2-bit value carried by one clock pulse on the data lines
type Symbol uint8

// String returns the bit-pair text form of the symbol, MSB first
func (s Symbol) String() string {
	return FormatSymbol(s)
}

// Package is the 32-bit register formed from the 16 symbols of one packet.
// The oldest symbol sits in the most significant pair.
type Package uint32

// String renders the register as 32 binary digits
func (p Package) String() string {
	return fmt.Sprintf("%032b", uint32(p))
}

// Symbols returns the 16 symbols of the register in transmission order
func (p Package) Symbols() [SymbolsPerPackage]Symbol {
	var out [SymbolsPerPackage]Symbol
	for i := range out {
		out[i] = ExtractSymbol(p, i)
	}
	return out
}

// SplitByte splits a byte into four symbols, most significant pair first
func SplitByte(b byte) [SymbolsPerByte]Symbol {
	return [SymbolsPerByte]Symbol{
		Symbol(b>>6) & SymbolMask,
		Symbol(b>>4) & SymbolMask,
		Symbol(b>>2) & SymbolMask,
		Symbol(b) & SymbolMask,
	}
}

// JoinSymbols is the inverse of SplitByte
func JoinSymbols(symbols [SymbolsPerByte]Symbol) byte {
	var b byte
	for _, s := range symbols {
		b = b<<2 | byte(s&SymbolMask)
	}
	return b
}

// PackSymbol shifts the register left by one pair and ORs in the low two bits of s
func PackSymbol(pkg Package, s Symbol) Package {
	return pkg<<2 | Package(s&SymbolMask)
}

// ExtractSymbol reads the symbol at index (0..15) counted from the most
// significant pair. Indexes outside that range are reduced modulo 16.
func ExtractSymbol(pkg Package, index int) Symbol {
	index &= SymbolsPerPackage - 1
	shift := lastSymbolShift - 2*index
	return Symbol(pkg>>uint(shift)) & SymbolMask
}

// PacketSymbols splits every byte of a packet into symbols in transmission order
func PacketSymbols(pkt Packet) [SymbolsPerPackage]Symbol {
	var out [SymbolsPerPackage]Symbol
	for i, b := range pkt {
		parts := SplitByte(b)
		copy(out[i*SymbolsPerByte:], parts[:])
	}
	return out
}

// PackPacket builds the package register for a packet
func PackPacket(pkt Packet) Package {
	var pkg Package
	for _, s := range PacketSymbols(pkt) {
		pkg = PackSymbol(pkg, s)
	}
	return pkg
}

// UnpackPackage recovers the four packet bytes held by a package register
func UnpackPackage(pkg Package) Packet {
	return Packet{
		byte(pkg >> 24),
		byte(pkg >> 16),
		byte(pkg >> 8),
		byte(pkg),
	}
}
