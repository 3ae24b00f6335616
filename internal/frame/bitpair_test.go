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
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatSymbol(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "00", FormatSymbol(0))
	assert.Equal(t, "01", FormatSymbol(1))
	assert.Equal(t, "10", FormatSymbol(2))
	assert.Equal(t, "11", FormatSymbol(3))
}

func TestParseSymbol(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		token   string
		want    Symbol
		wantErr bool
	}{
		{name: "zero", token: "00", want: 0},
		{name: "one", token: "01", want: 1},
		{name: "two", token: "10", want: 2},
		{name: "three", token: "11", want: 3},
		{name: "crlf tolerated", token: "10\r", want: 2},
		{name: "empty", token: "", wantErr: true},
		{name: "single digit", token: "1", wantErr: true},
		{name: "three digits", token: "101", wantErr: true},
		{name: "non binary", token: "12", wantErr: true},
		{name: "letters", token: "ab", wantErr: true},
		{name: "leading space", token: " 1", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseSymbol(tt.token)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrMalformedBitPair)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBitPairWriter_WritePacket(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w := NewBitPairWriter(&buf)

	require.NoError(t, w.WritePacket(NewEncoder().Encode(0x41)))
	require.NoError(t, w.Flush())

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	assert.Equal(t, []string{
		"00", "00", "00", "10", "01", "00", "00", "01",
		"01", "00", "00", "01", "00", "00", "00", "11",
	}, lines)

	for i, line := range lines {
		s, err := ParseSymbol(line)
		require.NoError(t, err)
		assert.Equal(t, ExtractSymbol(0x02414103, i), s)
	}
}
