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
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrMalformedBitPair is returned for a token that is not exactly two binary digits
var ErrMalformedBitPair = errors.New("malformed bit pair")

// FormatSymbol returns the two-character text form of s, MSB first ("10" for 2)
func FormatSymbol(s Symbol) string {
	digits := [2]byte{'0', '0'}
	if s&0x02 != 0 {
		digits[0] = '1'
	}
	if s&0x01 != 0 {
		digits[1] = '1'
	}
	return string(digits[:])
}

// ParseSymbol parses one bit-pair token. A trailing carriage return is
// tolerated so CRLF input works; anything else must be exactly "00".."11".
func ParseSymbol(token string) (Symbol, error) {
	token = strings.TrimSuffix(token, "\r")
	if len(token) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrMalformedBitPair, token)
	}

	var s Symbol
	for i := 0; i < 2; i++ {
		switch token[i] {
		case '0':
			s <<= 1
		case '1':
			s = s<<1 | 1
		default:
			return 0, fmt.Errorf("%w: %q", ErrMalformedBitPair, token)
		}
	}
	return s, nil
}

// BitPairWriter writes symbols as bit-pair text, one symbol per line
type BitPairWriter struct {
	w *bufio.Writer
}

// NewBitPairWriter wraps w
func NewBitPairWriter(w io.Writer) *BitPairWriter {
	return &BitPairWriter{w: bufio.NewWriter(w)}
}

// WritePacket writes the 16 symbols of pkt
func (bw *BitPairWriter) WritePacket(pkt Packet) error {
	for _, s := range PacketSymbols(pkt) {
		if err := bw.WriteSymbol(s); err != nil {
			return err
		}
	}
	return nil
}

// WriteSymbol writes a single symbol line
func (bw *BitPairWriter) WriteSymbol(s Symbol) error {
	if _, err := bw.w.WriteString(FormatSymbol(s)); err != nil {
		return fmt.Errorf("failed to write bit pair: %w", err)
	}
	if err := bw.w.WriteByte('\n'); err != nil {
		return fmt.Errorf("failed to write bit pair: %w", err)
	}
	return nil
}

// Flush flushes buffered lines to the underlying writer
func (bw *BitPairWriter) Flush() error {
	if err := bw.w.Flush(); err != nil {
		return fmt.Errorf("failed to flush bit pairs: %w", err)
	}
	return nil
}
