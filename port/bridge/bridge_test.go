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

package bridge

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	pairlink "github.com/ZaparooProject/go-pairlink"
	"github.com/ZaparooProject/go-pairlink/internal/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fault int

const (
	faultNone fault = iota
	faultDrop
	faultGarble
	faultReject
)

// fakeBoard emulates the bridge firmware behind an io.ReadWriteCloser
type fakeBoard struct {
	external byte
	pending  bytes.Buffer
	faults   []fault
	requests [][2]byte
	mu       sync.Mutex
	port     byte
	ddr      byte
	resets   int
	closed   bool
}

func (b *fakeBoard) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return 0, errors.New("closed")
	}
	for i := 0; i+1 < len(p); i += 2 {
		b.handle(p[i], p[i+1])
	}
	return len(p), nil
}

func (b *fakeBoard) handle(op, arg byte) {
	b.requests = append(b.requests, [2]byte{op, arg})

	f := faultNone
	if len(b.faults) > 0 {
		f, b.faults = b.faults[0], b.faults[1:]
	}

	switch f {
	case faultDrop:
		return
	case faultGarble:
		_, _ = b.pending.Write([]byte{0x42, 0x42})
		return
	case faultReject:
		_, _ = b.pending.Write([]byte{replyError, 0x01})
		return
	case faultNone:
	}

	var v byte
	switch op {
	case opEcho:
		v = arg
	case opReadInput:
		v = b.port&b.ddr | b.external&^b.ddr
	case opReadOutput:
		v = b.port
	case opWriteOutput:
		b.port = arg
		v = b.port
	case opSetDirection:
		b.ddr = arg
		v = b.ddr
	default:
		_, _ = b.pending.Write([]byte{replyError, 0x02})
		return
	}
	_, _ = b.pending.Write([]byte{op | replyFlag, v})
}

// Read returns (0, nil) when nothing is pending, like a serial read timeout
func (b *fakeBoard) Read(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pending.Len() == 0 {
		return 0, nil
	}
	return b.pending.Read(p)
}

func (b *fakeBoard) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

func (b *fakeBoard) ResetInputBuffer() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.resets++
	b.pending.Reset()
	return nil
}

func TestPort_Registers(t *testing.T) {
	t.Parallel()

	board := &fakeBoard{external: 0x04}
	p := NewWithConn(board, DefaultRetries)

	require.NoError(t, p.ConfigureDirection(0x0B))
	require.NoError(t, p.WriteOutput(0x09))

	out, err := p.ReadOutput()
	require.NoError(t, err)
	assert.Equal(t, byte(0x09), out)

	in, err := p.ReadInput()
	require.NoError(t, err)
	assert.Equal(t, byte(0x0D), in, "outputs read back plus the raised response line")

	assert.Equal(t, pairlink.PortBridge, p.Type())
}

func TestPort_Faults(t *testing.T) {
	t.Parallel()

	tests := []struct {
		wantErr      error
		name         string
		faults       []fault
		wantRequests int
	}{
		{name: "clean", wantRequests: 1},
		{name: "lost reply is repeated", faults: []fault{faultDrop}, wantRequests: 2},
		{name: "garbled reply is repeated", faults: []fault{faultGarble, faultDrop}, wantRequests: 3},
		{
			name:         "retries exhausted",
			faults:       []fault{faultDrop, faultDrop, faultDrop},
			wantRequests: 3,
			wantErr:      transport.ErrRetriesExhausted,
		},
		{name: "rejection is permanent", faults: []fault{faultReject}, wantRequests: 1, wantErr: ErrBridgeRejected},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			board := &fakeBoard{faults: tt.faults, external: 0x04}
			p := NewWithConn(board, DefaultRetries)

			in, err := p.ReadInput()
			assert.Len(t, board.requests, tt.wantRequests)
			assert.Equal(t, tt.wantRequests-1, board.resets)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, byte(0x04), in)
		})
	}
}

func TestPort_WaitReady(t *testing.T) {
	t.Parallel()

	board := &fakeBoard{faults: []fault{faultDrop, faultDrop, faultDrop, faultGarble}}
	p := NewWithConn(board, DefaultRetries)

	require.NoError(t, p.WaitReady(time.Second))
	assert.Equal(t, [2]byte{opEcho, echoProbe}, board.requests[len(board.requests)-1])
}

func TestPort_Close(t *testing.T) {
	t.Parallel()

	board := &fakeBoard{}
	p := NewWithConn(board, 0)

	require.NoError(t, p.ConfigureDirection(0x0B))
	require.NoError(t, p.WriteOutput(0x0B))
	require.NoError(t, p.Close())

	assert.True(t, board.closed)
	assert.Equal(t, byte(0), board.port, "outputs left low")
	require.NoError(t, p.Close())

	_, err := p.ReadInput()
	require.ErrorIs(t, err, pairlink.ErrPortClosed)
}

func TestPort_CloseKeepsForeignBits(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		pins   *pairlink.PinMap
		output byte
		want   byte
		writes int
	}{
		{name: "link bits high", output: 0xFB, want: 0xF0, writes: 1},
		{name: "link bits already low", output: 0xF4, want: 0xF4, writes: 0},
		{
			name:   "custom pin map",
			pins:   &pairlink.PinMap{DataMask: 0x30, ClockMask: 0x80, ResponseMask: 0x01},
			output: 0xFF,
			want:   0x4F,
			writes: 1,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			board := &fakeBoard{}
			p := NewWithConn(board, 0)
			if tt.pins != nil {
				p.SetPinMap(*tt.pins)
			}
			require.NoError(t, p.WriteOutput(tt.output))
			before := len(board.requests)

			require.NoError(t, p.Close())
			assert.Equal(t, tt.want, board.port)

			writes := 0
			for _, req := range board.requests[before:] {
				if req[0] == opWriteOutput {
					writes++
				}
			}
			assert.Equal(t, tt.writes, writes)
		})
	}
}

func TestPort_LinkSession(t *testing.T) {
	t.Parallel()

	// The board answers every package with a raised response line
	board := &fakeBoard{external: 0x04}
	p := NewWithConn(board, DefaultRetries)

	link, err := pairlink.New(p, pairlink.WithClock(pairlink.NewVirtualClock()))
	require.NoError(t, err)

	res, err := link.Send(context.Background(), []byte{0x41})
	require.NoError(t, err)
	assert.Equal(t, pairlink.StateDone, res.State)
	assert.Equal(t, uint64(1), res.PacketsAcked)
	assert.Equal(t, byte(0), board.port)
	assert.Equal(t, byte(0x0B), board.ddr)
}
