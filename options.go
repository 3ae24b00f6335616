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
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Option is a functional option for configuring a Link
type Option func(*Link) error

// WithConfig replaces the whole configuration
func WithConfig(config *Config) Option {
	return func(l *Link) error {
		if config == nil {
			return fmt.Errorf("%w: nil config", ErrInvalidConfig)
		}
		cfg := *config
		l.config = &cfg
		return nil
	}
}

// WithMaxRetries sets how many times a NACKed package is replayed
func WithMaxRetries(maxRetries int) Option {
	return func(l *Link) error {
		if maxRetries < 0 {
			return fmt.Errorf("%w: negative max retries %d", ErrInvalidConfig, maxRetries)
		}
		l.config.MaxRetries = maxRetries
		return nil
	}
}

// WithSymbolSettle sets how long each symbol is held with the clock high
func WithSymbolSettle(settle time.Duration) Option {
	return func(l *Link) error {
		l.config.SymbolSettle = settle
		return nil
	}
}

// WithResponseSettle sets the gap between the two response samples
func WithResponseSettle(settle time.Duration) Option {
	return func(l *Link) error {
		l.config.ResponseSettle = settle
		return nil
	}
}

// WithPinMap remaps the link lines
func WithPinMap(pins PinMap) Option {
	return func(l *Link) error {
		if err := pins.Validate(); err != nil {
			return err
		}
		l.config.Pins = pins
		return nil
	}
}

// WithClock sets the time base used for settle delays
func WithClock(clock Clock) Option {
	return func(l *Link) error {
		if clock == nil {
			return fmt.Errorf("%w: nil clock", ErrInvalidConfig)
		}
		l.clock = clock
		return nil
	}
}

// WithLogger sets the structured logger
func WithLogger(logger zerolog.Logger) Option {
	return func(l *Link) error {
		l.logger = logger
		return nil
	}
}

// WithObserver registers an event observer
func WithObserver(observer Observer) Option {
	return func(l *Link) error {
		l.observer = observer
		return nil
	}
}

// WithChecksum continues a session whose running checksum is already known,
// e.g. after a restart of the sending process
func WithChecksum(checksum byte) Option {
	return func(l *Link) error {
		l.encoder.Restore(checksum)
		return nil
	}
}
