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

// Command pairpack is the packager stage of a pairlink pipeline. It reads
// text lines from stdin, frames every byte into a packet and prints the
// packet symbols as bit-pair text, one symbol per line, for pairsend
// -bitpairs to transmit.
//
// Usage:
//
//	echo "Hello" | pairpack | pairsend -bitpairs -port gpio
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/ZaparooProject/go-pairlink/internal/frame"
	"github.com/ZaparooProject/go-pairlink/internal/logging"
	"github.com/rs/zerolog"
)

type config struct {
	checksum *uint
	newlines *bool
	debug    *bool
}

func parseFlags() *config {
	cfg := &config{
		checksum: flag.Uint("checksum", 0, "Initial running checksum (continue an earlier session)"),
		newlines: flag.Bool("newlines", false, "Also frame the newline ending each line"),
		debug:    flag.Bool("debug", false, "Enable debug output"),
	}
	flag.Parse()
	return cfg
}

func main() {
	cfg := parseFlags()

	profile := logging.ProfileRuntime
	if *cfg.debug {
		profile = logging.ProfileDebug
	}
	logger := logging.Configure("pairpack", profile)

	if *cfg.checksum > 0xFF {
		logger.Error().Uint("checksum", *cfg.checksum).Msg("checksum must fit in one byte")
		os.Exit(2)
	}

	enc := frame.NewEncoder()
	enc.Restore(byte(*cfg.checksum))

	p := &packager{encoder: enc, logger: logger, newlines: *cfg.newlines}
	if err := p.run(os.Stdin, os.Stdout); err != nil {
		logger.Error().Err(err).Msg("packaging failed")
		os.Exit(1)
	}
}

// packager frames stdin lines with one running checksum across all lines
type packager struct {
	encoder  *frame.Encoder
	logger   zerolog.Logger
	newlines bool
}

func (p *packager) run(in io.Reader, out io.Writer) error {
	w := frame.NewBitPairWriter(out)
	scanner := bufio.NewScanner(in)

	for scanner.Scan() {
		line := scanner.Bytes()
		for _, b := range line {
			if err := w.WritePacket(p.encoder.Encode(b)); err != nil {
				return err
			}
		}
		if p.newlines {
			if err := w.WritePacket(p.encoder.Encode('\n')); err != nil {
				return err
			}
		}
		// Flush per line so a downstream sender starts before stdin ends
		if err := w.Flush(); err != nil {
			return err
		}
		p.logger.Info().
			Str("line", string(line)).
			Str("checksum", fmt.Sprintf("0x%02X", p.encoder.Checksum())).
			Msg("finished line")
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	p.logger.Debug().Uint64("packets", p.encoder.Count()).Msg("input exhausted")
	return w.Flush()
}
