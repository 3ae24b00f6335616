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

// Package serial detects USB serial register bridges. Import it for side
// effects to register the detector.
package serial

import (
	"context"
	"fmt"
	"time"

	"github.com/ZaparooProject/go-pairlink/detection"
	"github.com/ZaparooProject/go-pairlink/port/bridge"
	"go.bug.st/serial/enumerator"
)

// PortType is the detection.DeviceInfo port name for bridges
const PortType = "bridge"

// knownBoards maps USB VID:PID pairs to boards that run the bridge firmware
var knownBoards = map[string]string{
	"2341:0043": "Arduino Uno",
	"2341:0001": "Arduino Uno (FTDI)",
	"2341:0042": "Arduino Mega 2560",
	"2341:8036": "Arduino Leonardo",
	"1A86:7523": "CH340 serial adapter",
	"0403:6001": "FTDI FT232R",
	"10C4:EA60": "CP210x serial adapter",
}

type detector struct {
	list  func() ([]*enumerator.PortDetails, error)
	probe func(ctx context.Context, path string) error
}

// New returns the serial bridge detector
func New() detection.Detector {
	return &detector{list: enumerator.GetDetailedPortsList, probe: probeBridge}
}

func init() {
	detection.RegisterDetector(New())
}

func (*detector) Port() string {
	return PortType
}

func (d *detector) Detect(ctx context.Context, opts *detection.Options) ([]detection.DeviceInfo, error) {
	ports, err := d.list()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate serial ports: %w", err)
	}

	var devices []detection.DeviceInfo
	for _, p := range ports {
		if err := ctx.Err(); err != nil {
			return devices, fmt.Errorf("%w: %w", detection.ErrDetectionTimeout, err)
		}
		if !p.IsUSB {
			continue
		}
		device, ok := d.inspect(ctx, p, opts)
		if ok {
			devices = append(devices, device)
		}
	}

	if len(devices) == 0 {
		return nil, detection.ErrNoDevicesFound
	}
	return devices, nil
}

func (d *detector) inspect(
	ctx context.Context, p *enumerator.PortDetails, opts *detection.Options,
) (detection.DeviceInfo, bool) {
	vidpid := detection.FormatVIDPID(p.VID, p.PID)
	if detection.IsPathIgnored(p.Name, opts.IgnorePaths) || detection.IsBlocked(vidpid, opts.Blocklist) {
		return detection.DeviceInfo{}, false
	}

	device := detection.DeviceInfo{
		Port:       PortType,
		Path:       p.Name,
		Name:       p.Product,
		Confidence: detection.Low,
		Metadata: map[string]string{
			"vidpid": vidpid,
			"serial": p.SerialNumber,
		},
	}
	if board, ok := knownBoards[vidpid]; ok {
		device.Confidence = detection.Medium
		if device.Name == "" {
			device.Name = board
		}
	}
	if device.Name == "" {
		device.Name = "USB serial device"
	}

	if opts.Mode == detection.Passive {
		return device, true
	}
	if !accessible(p.Name) {
		return detection.DeviceInfo{}, false
	}
	if opts.Mode == detection.Full {
		if err := d.probe(ctx, p.Name); err != nil {
			if device.Confidence == detection.Low {
				return detection.DeviceInfo{}, false
			}
			device.Metadata["probe_error"] = err.Error()
			return device, true
		}
		device.Confidence = detection.High
	}
	return device, true
}

// probeBridge opens the port and waits for the firmware to answer an echo
func probeBridge(ctx context.Context, path string) error {
	cfg := bridge.DefaultConfig()
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < cfg.BootTimeout {
			cfg.BootTimeout = remaining
		}
	}
	p, err := bridge.Open(path, cfg)
	if err != nil {
		return err
	}
	return p.Close()
}
