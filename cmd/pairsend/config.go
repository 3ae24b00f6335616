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

package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	pairlink "github.com/ZaparooProject/go-pairlink"
	"github.com/ZaparooProject/go-pairlink/port/bridge"
	"github.com/ZaparooProject/go-pairlink/port/gpio"
)

// Port selectors
const (
	portAuto   = "auto"
	portGPIO   = "gpio"
	portBridge = "bridge"
	portSim    = "sim"
)

// settings is the resolved pairsend configuration
type settings struct {
	Port           string
	Device         string
	MetricsAddr    string
	LogLevel       string
	Pins           gpio.Pins
	BaudRate       int
	SymbolSettle   time.Duration
	ResponseSettle time.Duration
	MaxRetries     int
	Checksum       uint
	BitPairs       bool
}

func defaultSettings() settings {
	link := pairlink.DefaultConfig()
	return settings{
		Port:           portAuto,
		Pins:           gpio.DefaultPins(),
		BaudRate:       bridge.DefaultBaudRate,
		SymbolSettle:   link.SymbolSettle,
		ResponseSettle: link.ResponseSettle,
		MaxRetries:     link.MaxRetries,
	}
}

// fileConfig maps pairsend.toml keys
type fileConfig struct {
	Port           string   `toml:"port"`
	Device         string   `toml:"device"`
	MetricsAddr    string   `toml:"metrics_addr"`
	LogLevel       string   `toml:"log_level"`
	SymbolSettle   string   `toml:"symbol_settle"`
	ResponseSettle string   `toml:"response_settle"`
	Pins           filePins `toml:"pins"`
	BaudRate       int      `toml:"baud_rate"`
	MaxRetries     int      `toml:"max_retries"`
	Checksum       uint     `toml:"checksum"`
	BitPairs       bool     `toml:"bitpairs"`
}

type filePins struct {
	Data0    string `toml:"data0"`
	Data1    string `toml:"data1"`
	Response string `toml:"response"`
	Clock    string `toml:"clock"`
}

// loadConfigFile overlays the keys defined in the TOML file at path onto s
func loadConfigFile(path string, s *settings) error {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return fmt.Errorf("load pairsend config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("load pairsend config: unknown key %q", undecoded[0].String())
	}

	if meta.IsDefined("port") {
		s.Port = strings.ToLower(strings.TrimSpace(raw.Port))
	}
	if meta.IsDefined("device") {
		s.Device = strings.TrimSpace(raw.Device)
	}
	if meta.IsDefined("metrics_addr") {
		s.MetricsAddr = strings.TrimSpace(raw.MetricsAddr)
	}
	if meta.IsDefined("log_level") {
		s.LogLevel = strings.TrimSpace(raw.LogLevel)
	}
	if meta.IsDefined("baud_rate") {
		s.BaudRate = raw.BaudRate
	}
	if meta.IsDefined("max_retries") {
		s.MaxRetries = raw.MaxRetries
	}
	if meta.IsDefined("checksum") {
		s.Checksum = raw.Checksum
	}
	if meta.IsDefined("bitpairs") {
		s.BitPairs = raw.BitPairs
	}
	if meta.IsDefined("symbol_settle") {
		if s.SymbolSettle, err = time.ParseDuration(strings.TrimSpace(raw.SymbolSettle)); err != nil {
			return fmt.Errorf("load pairsend config: symbol_settle: %w", err)
		}
	}
	if meta.IsDefined("response_settle") {
		if s.ResponseSettle, err = time.ParseDuration(strings.TrimSpace(raw.ResponseSettle)); err != nil {
			return fmt.Errorf("load pairsend config: response_settle: %w", err)
		}
	}
	if meta.IsDefined("pins", "data0") {
		s.Pins.Data0 = strings.TrimSpace(raw.Pins.Data0)
	}
	if meta.IsDefined("pins", "data1") {
		s.Pins.Data1 = strings.TrimSpace(raw.Pins.Data1)
	}
	if meta.IsDefined("pins", "response") {
		s.Pins.Response = strings.TrimSpace(raw.Pins.Response)
	}
	if meta.IsDefined("pins", "clock") {
		s.Pins.Clock = strings.TrimSpace(raw.Pins.Clock)
	}
	return nil
}

func (s *settings) validate() error {
	switch s.Port {
	case portAuto, portGPIO, portBridge, portSim:
	default:
		return fmt.Errorf("%w: unknown port %q (expected auto, gpio, bridge or sim)", pairlink.ErrInvalidConfig, s.Port)
	}
	if s.Port == portBridge && s.Device == "" {
		return fmt.Errorf("%w: bridge port needs a device path", pairlink.ErrInvalidConfig)
	}
	if s.Checksum > 0xFF {
		return fmt.Errorf("%w: checksum 0x%X does not fit in a byte", pairlink.ErrInvalidConfig, s.Checksum)
	}
	if s.BitPairs && s.Checksum != 0 {
		return fmt.Errorf("%w: checksum only applies to raw byte input", pairlink.ErrInvalidConfig)
	}
	return nil
}

// linkOptions turns the settings into Link options
func (s *settings) linkOptions() []pairlink.Option {
	return []pairlink.Option{
		pairlink.WithSymbolSettle(s.SymbolSettle),
		pairlink.WithResponseSettle(s.ResponseSettle),
		pairlink.WithMaxRetries(s.MaxRetries),
		pairlink.WithChecksum(byte(s.Checksum)),
	}
}
