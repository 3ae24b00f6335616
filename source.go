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
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/ZaparooProject/go-pairlink/internal/frame"
)

// ByteSource yields payload bytes one at a time. NextByte returns io.EOF once
// the stream is exhausted.
type ByteSource interface {
	NextByte() (byte, error)
}

// SymbolSource yields already-encoded symbols one at a time, as produced by a
// separate packager stage. NextSymbol returns io.EOF at the end of input.
type SymbolSource interface {
	NextSymbol() (Symbol, error)
}

// ReaderSource reads payload bytes from an io.Reader
type ReaderSource struct {
	r *bufio.Reader
}

// NewReaderSource wraps r
func NewReaderSource(r io.Reader) *ReaderSource {
	return &ReaderSource{r: bufio.NewReader(r)}
}

// NextByte returns the next byte of the stream
func (s *ReaderSource) NextByte() (byte, error) {
	b, err := s.r.ReadByte()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return 0, io.EOF
		}
		return 0, fmt.Errorf("failed to read input byte: %w", err)
	}
	return b, nil
}

// BitPairSource parses bit-pair text: one symbol per line, two ASCII binary
// digits, most significant bit first.
type BitPairSource struct {
	scanner *bufio.Scanner
	line    int
}

// NewBitPairSource wraps r
func NewBitPairSource(r io.Reader) *BitPairSource {
	return &BitPairSource{scanner: bufio.NewScanner(r)}
}

// NextSymbol parses the next line. A malformed line yields ErrMalformedSymbol.
func (s *BitPairSource) NextSymbol() (Symbol, error) {
	if !s.scanner.Scan() {
		if err := s.scanner.Err(); err != nil {
			return 0, fmt.Errorf("failed to read bit pairs: %w", err)
		}
		return 0, io.EOF
	}
	s.line++

	sym, err := frame.ParseSymbol(s.scanner.Text())
	if err != nil {
		return 0, fmt.Errorf("%w: line %d: %w", ErrMalformedSymbol, s.line, err)
	}
	return sym, nil
}

// Line returns the number of lines consumed so far
func (s *BitPairSource) Line() int {
	return s.line
}

// packetSymbols frames bytes from a ByteSource and hands out their symbols.
// A new byte is only pulled once the previous packet's 16 symbols are used,
// so end of input always falls on a package boundary.
type packetSymbols struct {
	src     ByteSource
	encoder *frame.Encoder
	pending [frame.SymbolsPerPackage]Symbol
	pos     int
}

func newPacketSymbols(src ByteSource, encoder *frame.Encoder) *packetSymbols {
	return &packetSymbols{
		src:     src,
		encoder: encoder,
		pos:     frame.SymbolsPerPackage,
	}
}

func (p *packetSymbols) NextSymbol() (Symbol, error) {
	if p.pos == frame.SymbolsPerPackage {
		b, err := p.src.NextByte()
		if err != nil {
			return 0, err
		}
		p.pending = frame.PacketSymbols(p.encoder.Encode(b))
		p.pos = 0
	}
	sym := p.pending[p.pos]
	p.pos++
	return sym, nil
}
