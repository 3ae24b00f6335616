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
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestIsRetryable(t *testing.T) {
	t.Parallel()
	tests := getIsRetryableTestCases()

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := IsRetryable(tt.err)
			if got != tt.want {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func getIsRetryableTestCases() []struct {
	err  error
	name string
	want bool
} {
	return []struct {
		err  error
		name string
		want bool
	}{
		{
			name: "nil error",
			err:  nil,
			want: false,
		},
		{
			name: "nack retryable",
			err:  ErrLinkNack,
			want: true,
		},
		{
			name: "wrapped nack retryable",
			err:  fmt.Errorf("package 3: %w", ErrLinkNack),
			want: true,
		},
		{
			name: "nack link error retryable",
			err:  NewNackError(PortMock, 0x02414103, 1),
			want: true,
		},
		{
			name: "timeout not retryable",
			err:  ErrLinkTimeout,
			want: false,
		},
		{
			name: "timeout link error not retryable",
			err:  NewTimeoutError(PortMock, 0x02414103, 1),
			want: false,
		},
		{
			name: "retry bound not retryable",
			err:  ErrRetryBoundExceeded,
			want: false,
		},
		{
			name: "malformed symbol not retryable",
			err:  ErrMalformedSymbol,
			want: false,
		},
		{
			name: "port error not retryable",
			err:  NewPortError("writeOutput", PortGPIO, errors.New("pin busy")),
			want: false,
		},
		{
			name: "string match is not enough",
			err:  errors.New("outer: " + ErrLinkNack.Error()),
			want: false,
		},
	}
}

func TestLinkError_Error(t *testing.T) {
	t.Parallel()
	tests := []struct {
		err      *LinkError
		name     string
		contains []string
	}{
		{
			name: "with package and attempt",
			err:  NewRetryBoundError(PortBridge, 0x02414103, 4, 3, NewNackError(PortBridge, 0x02414103, 4)),
			contains: []string{
				"retransmit on bridge port",
				"package 02414103",
				"attempt 4",
				"retry bound exceeded: 3 retries allowed",
				"peer signaled NACK",
			},
		},
		{
			name:     "port error",
			err:      NewPortError("readInput", PortGPIO, errors.New("pin busy")),
			contains: []string{"readInput on gpio port", "port I/O failed", "pin busy"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			msg := tt.err.Error()
			for _, want := range tt.contains {
				if !strings.Contains(msg, want) {
					t.Errorf("Error() = %q, want it to contain %q", msg, want)
				}
			}
		})
	}
}

func TestGetErrorType(t *testing.T) {
	t.Parallel()
	tests := []struct {
		err  error
		name string
		want ErrorType
	}{
		{name: "nack", err: ErrLinkNack, want: ErrorTypeTransient},
		{name: "timeout", err: fmt.Errorf("poll: %w", ErrLinkTimeout), want: ErrorTypeTimeout},
		{name: "timeout link error", err: NewTimeoutError(PortSim, 0, 1), want: ErrorTypeTimeout},
		{name: "retry bound", err: NewRetryBoundError(PortSim, 0, 4, 3, nil), want: ErrorTypePermanent},
		{name: "canceled", err: context.Canceled, want: ErrorTypePermanent},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := GetErrorType(tt.err); got != tt.want {
				t.Errorf("GetErrorType() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestErrorType_String(t *testing.T) {
	t.Parallel()
	if ErrorTypeTransient.String() != "transient" ||
		ErrorTypeTimeout.String() != "timeout" ||
		ErrorTypePermanent.String() != "permanent" {
		t.Error("unexpected ErrorType names")
	}
}
