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

// Package gpio detects GPIO controllers able to drive the link lines
// directly. Import it for side effects to register the detector.
package gpio

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"sort"

	"github.com/ZaparooProject/go-pairlink/detection"
	pairgpio "github.com/ZaparooProject/go-pairlink/port/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// PortType is the detection.DeviceInfo port name for GPIO controllers
const PortType = "gpio"

type detector struct {
	// pinsPresent reports whether every default link pin is known to the host
	pinsPresent func() bool
	devDir      string
	goos        string
}

// New returns the GPIO controller detector
func New() detection.Detector {
	return &detector{devDir: "/dev", goos: runtime.GOOS, pinsPresent: defaultPinsPresent}
}

func init() {
	detection.RegisterDetector(New())
}

func (*detector) Port() string {
	return PortType
}

func (d *detector) Detect(ctx context.Context, opts *detection.Options) ([]detection.DeviceInfo, error) {
	// GPIO character devices only exist on linux
	if d.goos != "linux" {
		return nil, detection.ErrUnsupportedPlatform
	}

	chips, err := filepath.Glob(filepath.Join(d.devDir, "gpiochip*"))
	if err != nil {
		return nil, fmt.Errorf("failed to scan for GPIO controllers: %w", err)
	}
	sort.Strings(chips)

	confirmed := false
	if opts.Mode == detection.Full {
		confirmed = d.pinsPresent()
	}

	var devices []detection.DeviceInfo
	for i, chip := range chips {
		if err := ctx.Err(); err != nil {
			return devices, fmt.Errorf("%w: %w", detection.ErrDetectionTimeout, err)
		}
		if detection.IsPathIgnored(chip, opts.IgnorePaths) {
			continue
		}

		device := detection.DeviceInfo{
			Port:       PortType,
			Path:       chip,
			Name:       "GPIO controller " + filepath.Base(chip),
			Confidence: detection.Low,
			Metadata:   map[string]string{"chip": filepath.Base(chip)},
		}
		if opts.Mode != detection.Passive {
			if !accessible(chip) {
				continue
			}
			device.Confidence = detection.Medium
		}
		// The default pins live on the first controller
		if confirmed && i == 0 {
			device.Confidence = detection.High
		}
		devices = append(devices, device)
	}

	if len(devices) == 0 {
		return nil, detection.ErrNoDevicesFound
	}
	return devices, nil
}

func defaultPinsPresent() bool {
	if _, err := host.Init(); err != nil {
		return false
	}
	pins := pairgpio.DefaultPins()
	for _, name := range []string{pins.Data0, pins.Data1, pins.Response, pins.Clock} {
		if gpioreg.ByName(name) == nil {
			return false
		}
	}
	return true
}
