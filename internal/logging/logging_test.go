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

package logging

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw    string
		want   zerolog.Level
		wantOK bool
	}{
		{raw: "", want: zerolog.InfoLevel},
		{raw: "TRACE", want: zerolog.TraceLevel, wantOK: true},
		{raw: " debug ", want: zerolog.DebugLevel, wantOK: true},
		{raw: "warning", want: zerolog.WarnLevel, wantOK: true},
		{raw: "off", want: zerolog.Disabled, wantOK: true},
		{raw: "loud", want: zerolog.InfoLevel},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.raw, func(t *testing.T) {
			t.Parallel()
			got, ok := ParseLevel(tt.raw)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Parallel()

	env := map[string]string{
		EnvLogLevel:     "error",
		EnvLogTimestamp: "false",
		EnvLogNoColor:   "maybe",
	}
	cfg := DefaultConfig(ProfileRuntime)
	ApplyEnvOverrides(&cfg, func(k string) string { return env[k] })

	assert.Equal(t, zerolog.ErrorLevel, cfg.Level)
	assert.False(t, cfg.Timestamp)
	assert.False(t, cfg.NoColor, "unparsable value keeps the default")
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	assert.Equal(t, zerolog.InfoLevel, DefaultConfig(ProfileRuntime).Level)
	assert.Equal(t, zerolog.TraceLevel, DefaultConfig(ProfileDebug).Level)

	test := DefaultConfig(ProfileTest)
	assert.Equal(t, zerolog.DebugLevel, test.Level)
	assert.False(t, test.Timestamp)
	assert.True(t, test.NoColor)
}

func TestNew(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	cfg := DefaultConfig(ProfileTest)
	cfg.Out = &buf
	logger := New("pairsend", cfg)

	logger.Trace().Msg("hidden")
	logger.Info().Int("packets", 3).Msg("session done")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "session done")
	assert.Contains(t, out, "packets=3")
	assert.Contains(t, out, "app=pairsend")
}
