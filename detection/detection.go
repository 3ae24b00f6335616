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

// Package detection finds hosts and boards able to carry a pairlink session.
//
// Backends register a Detector from their init function; import
// detection/serial or detection/gpio for side effects to enable them.
package detection

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Detection errors
var (
	ErrNoDevicesFound      = errors.New("no devices found")
	ErrDetectionTimeout    = errors.New("detection timed out")
	ErrUnsupportedPlatform = errors.New("detection not supported on this platform")
	ErrUnknownPort         = errors.New("no detector registered for port type")
)

// Mode controls how intrusive detection is
type Mode int

const (
	// Passive only looks at device nodes and metadata
	Passive Mode = iota
	// Safe may open devices read-only but sends nothing
	Safe
	// Full may talk to the device to confirm it, which can reset some boards
	Full
)

// String returns the mode name
func (m Mode) String() string {
	switch m {
	case Safe:
		return "safe"
	case Full:
		return "full"
	default:
		return "passive"
	}
}

// Confidence rates how likely a found device is usable
type Confidence int

const (
	// Low means the device merely looks like a candidate
	Low Confidence = iota
	// Medium means the device matches a known adapter
	Medium
	// High means the device was confirmed
	High
)

// String returns the confidence name
func (c Confidence) String() string {
	switch c {
	case Medium:
		return "medium"
	case High:
		return "high"
	default:
		return "low"
	}
}

// DeviceInfo describes a detected device
type DeviceInfo struct {
	Metadata   map[string]string
	Port       string // port type, e.g. "bridge" or "gpio"
	Path       string
	Name       string
	Confidence Confidence
}

// String returns a one line description
func (d DeviceInfo) String() string {
	return fmt.Sprintf("%s %s (%s, %s confidence)", d.Port, d.Path, d.Name, d.Confidence)
}

// Options configures a detection run
type Options struct {
	Blocklist   []string // VID:PID pairs never reported
	IgnorePaths []string // device paths never reported
	Timeout     time.Duration
	Mode        Mode
}

// DefaultOptions returns passive detection with the default blocklist
func DefaultOptions() Options {
	return Options{
		Mode:      Passive,
		Timeout:   5 * time.Second,
		Blocklist: DefaultBlocklist(),
	}
}

// Detector finds devices for one port type
type Detector interface {
	Port() string
	Detect(ctx context.Context, opts *Options) ([]DeviceInfo, error)
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Detector)
)

// RegisterDetector makes a detector available. A later registration for the
// same port type replaces the earlier one.
func RegisterDetector(d Detector) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[d.Port()] = d
}

// Detectors returns the registered detectors ordered by port type
func Detectors() []Detector {
	registryMu.RLock()
	defer registryMu.RUnlock()

	out := make([]Detector, 0, len(registry))
	for _, d := range registry {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Port() < out[j].Port() })
	return out
}

// DetectAll runs every registered detector
func DetectAll(opts *Options) ([]DeviceInfo, error) {
	return DetectAllContext(context.Background(), opts)
}

// DetectAllContext runs every registered detector until ctx or the options
// timeout ends. Detectors that fail or do not support the platform are
// skipped. Results are ordered by confidence, highest first.
func DetectAllContext(ctx context.Context, opts *Options) ([]DeviceInfo, error) {
	if opts == nil {
		defaults := DefaultOptions()
		opts = &defaults
	}
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	var devices []DeviceInfo
	for _, d := range Detectors() {
		if err := ctx.Err(); err != nil {
			return devices, fmt.Errorf("%w: %w", ErrDetectionTimeout, err)
		}
		found, err := d.Detect(ctx, opts)
		if err != nil {
			continue
		}
		devices = append(devices, filter(found, opts)...)
	}

	if len(devices) == 0 {
		return nil, ErrNoDevicesFound
	}
	sort.SliceStable(devices, func(i, j int) bool {
		return devices[i].Confidence > devices[j].Confidence
	})
	return devices, nil
}

// Detect runs the detector registered for one port type
func Detect(ctx context.Context, port string, opts *Options) ([]DeviceInfo, error) {
	registryMu.RLock()
	d, ok := registry[port]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPort, port)
	}
	if opts == nil {
		defaults := DefaultOptions()
		opts = &defaults
	}

	found, err := d.Detect(ctx, opts)
	if err != nil {
		return nil, err
	}
	found = filter(found, opts)
	if len(found) == 0 {
		return nil, ErrNoDevicesFound
	}
	return found, nil
}

func filter(devices []DeviceInfo, opts *Options) []DeviceInfo {
	out := devices[:0]
	for _, d := range devices {
		if IsPathIgnored(d.Path, opts.IgnorePaths) {
			continue
		}
		if vidpid := d.Metadata["vidpid"]; vidpid != "" && IsBlocked(vidpid, opts.Blocklist) {
			continue
		}
		out = append(out, d)
	}
	return out
}
