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

package gpio

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ZaparooProject/go-pairlink/detection"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeDev(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o600))
	}
	return dir
}

func TestDetector_Detect(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		mode        detection.Mode
		pinsPresent bool
		want        []detection.Confidence
	}{
		{name: "passive", mode: detection.Passive, want: []detection.Confidence{detection.Low, detection.Low}},
		{name: "safe", mode: detection.Safe, want: []detection.Confidence{detection.Medium, detection.Medium}},
		{
			name:        "full with pins",
			mode:        detection.Full,
			pinsPresent: true,
			want:        []detection.Confidence{detection.High, detection.Medium},
		},
		{name: "full without pins", mode: detection.Full, want: []detection.Confidence{detection.Medium, detection.Medium}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dir := fakeDev(t, "gpiochip1", "gpiochip0", "ttyS0")
			d := &detector{devDir: dir, goos: "linux", pinsPresent: func() bool { return tt.pinsPresent }}
			opts := detection.DefaultOptions()
			opts.Mode = tt.mode

			devices, err := d.Detect(context.Background(), &opts)
			require.NoError(t, err)
			require.Len(t, devices, len(tt.want))
			assert.Equal(t, filepath.Join(dir, "gpiochip0"), devices[0].Path)
			for i, want := range tt.want {
				assert.Equal(t, want, devices[i].Confidence, devices[i].Path)
				assert.Equal(t, PortType, devices[i].Port)
			}
		})
	}
}

func TestDetector_IgnoreAndEmpty(t *testing.T) {
	t.Parallel()

	dir := fakeDev(t, "gpiochip0")
	d := &detector{devDir: dir, goos: "linux", pinsPresent: func() bool { return false }}
	opts := detection.DefaultOptions()
	opts.IgnorePaths = []string{filepath.Join(dir, "gpiochip0")}

	_, err := d.Detect(context.Background(), &opts)
	require.ErrorIs(t, err, detection.ErrNoDevicesFound)
}

func TestDetector_Unsupported(t *testing.T) {
	t.Parallel()

	d := &detector{devDir: t.TempDir(), goos: "darwin"}
	opts := detection.DefaultOptions()

	_, err := d.Detect(context.Background(), &opts)
	require.ErrorIs(t, err, detection.ErrUnsupportedPlatform)
}
