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

package transport

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithRetry(t *testing.T) {
	t.Parallel()

	permanent := errors.New("permanent")
	tests := []struct {
		wantErr    error
		name       string
		results    []bool // shouldRetry per attempt
		maxRetries int
		wantCalls  int
		wantHooks  int
	}{
		{name: "first attempt succeeds", results: []bool{false}, maxRetries: 2, wantCalls: 1},
		{name: "succeeds on last retry", results: []bool{true, true, false}, maxRetries: 2, wantCalls: 3, wantHooks: 2},
		{
			name:       "exhausted",
			results:    []bool{true, true, true},
			maxRetries: 2,
			wantCalls:  3,
			wantHooks:  2,
			wantErr:    ErrRetriesExhausted,
		},
		{name: "permanent error stops", results: nil, maxRetries: 2, wantCalls: 1, wantErr: permanent},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			calls, hooks := 0, 0
			var slept []time.Duration
			cfg := RetryConfig{
				Description: "exchange",
				MaxRetries:  tt.maxRetries,
				RetryDelay:  5 * time.Millisecond,
				OnRetry:     func() error { hooks++; return nil },
				Sleep:       func(d time.Duration) { slept = append(slept, d) },
			}

			got, err := WithRetry(cfg, func() (int, bool, error) {
				calls++
				if tt.results == nil {
					return 0, false, permanent
				}
				return calls, tt.results[calls-1], nil
			})

			assert.Equal(t, tt.wantCalls, calls)
			assert.Equal(t, tt.wantHooks, hooks)
			assert.Len(t, slept, tt.wantHooks)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantCalls, got)
		})
	}
}

func TestWithRetry_OnRetryError(t *testing.T) {
	t.Parallel()

	hookErr := errors.New("resync failed")
	_, err := WithRetry(RetryConfig{MaxRetries: 3, OnRetry: func() error { return hookErr }},
		func() (struct{}, bool, error) { return struct{}{}, true, nil })
	require.ErrorIs(t, err, hookErr)
}

func TestTimeoutRetry(t *testing.T) {
	t.Parallel()

	calls := 0
	got, err := TimeoutRetry(time.Second, time.Millisecond, func() (string, bool, error) {
		calls++
		return "ready", calls < 3, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ready", got)
	assert.Equal(t, 3, calls)

	_, err = TimeoutRetry(5*time.Millisecond, time.Millisecond, func() (string, bool, error) {
		return "", true, nil
	})
	require.ErrorIs(t, err, ErrDeadlineExceeded)
}
