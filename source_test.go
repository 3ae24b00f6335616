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
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/ZaparooProject/go-pairlink/internal/frame"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReaderSource(t *testing.T) {
	t.Parallel()

	src := NewReaderSource(strings.NewReader("AB"))
	b, err := src.NextByte()
	require.NoError(t, err)
	assert.Equal(t, byte('A'), b)

	b, err = src.NextByte()
	require.NoError(t, err)
	assert.Equal(t, byte('B'), b)

	_, err = src.NextByte()
	assert.ErrorIs(t, err, io.EOF)
}

func TestReaderSource_ReadError(t *testing.T) {
	t.Parallel()

	readErr := errors.New("tty hangup")
	src := NewReaderSource(iotest.ErrReader(readErr))

	_, err := src.NextByte()
	require.ErrorIs(t, err, readErr)
	assert.NotErrorIs(t, err, io.EOF)
}

func TestBitPairSource(t *testing.T) {
	t.Parallel()

	src := NewBitPairSource(strings.NewReader("11\r\n00\n10\nxx\n"))

	for _, want := range []Symbol{3, 0, 2} {
		got, err := src.NextSymbol()
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := src.NextSymbol()
	require.ErrorIs(t, err, ErrMalformedSymbol)
	require.ErrorIs(t, err, frame.ErrMalformedBitPair)
	assert.Equal(t, 4, src.Line())
}

func TestBitPairSource_EmptyLineIsMalformed(t *testing.T) {
	t.Parallel()

	src := NewBitPairSource(strings.NewReader("01\n\n"))
	_, err := src.NextSymbol()
	require.NoError(t, err)

	_, err = src.NextSymbol()
	require.ErrorIs(t, err, ErrMalformedSymbol)
}

func TestBitPairSource_EOF(t *testing.T) {
	t.Parallel()

	_, err := NewBitPairSource(strings.NewReader("")).NextSymbol()
	assert.ErrorIs(t, err, io.EOF)
}

func TestPacketSymbols_MatchesEncoder(t *testing.T) {
	t.Parallel()

	enc := frame.NewEncoder()
	ps := newPacketSymbols(NewReaderSource(strings.NewReader("hi")), enc)

	ref := frame.NewEncoder()
	var want []Symbol
	for _, b := range []byte("hi") {
		pkt := frame.PacketSymbols(ref.Encode(b))
		want = append(want, pkt[:]...)
	}

	var got []Symbol
	for {
		s, err := ps.NextSymbol()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		got = append(got, s)
	}
	assert.Equal(t, want, got)
	assert.Equal(t, ref.Checksum(), enc.Checksum())
}
