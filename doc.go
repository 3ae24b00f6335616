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

/*
Package pairlink provides a pure Go sender for a clocked 2-bit parallel link
with a polled acknowledgment line.

The bus has four lines: two data lines, one clock line driven by the sender
and one response line driven by the receiver. Every payload byte is framed as
a 4-byte packet [STX, payload, checksum, ETX], where the checksum is the sum of
all payload bytes sent in the session modulo 256. A packet is clocked out as
16 symbols of 2 bits, most significant pair first. After each group of 16 the
sender samples the response line twice:

  - low on the first sample: TIMEOUT, the session aborts
  - high, then still high after the settle window: ACK
  - high, then low: NACK, the same package is replayed

A package is replayed at most MaxRetries times (3 by default) before the
session aborts. Whatever the outcome, data and clock lines are left low.

Features:
  - Port backends for host GPIO pins (periph.io), a USB-serial register bridge
    and an in-process simulated receiver
  - Cumulative stream checksum with receiver-side validation
  - Bit-pair text format for running the packager and sender as separate
    processes
  - Virtual clock for deterministic tests of the timing contract
  - Structured logging with zerolog and an Observer hook for metrics

Basic Usage:

	import (
	    "github.com/ZaparooProject/go-pairlink"
	    "github.com/ZaparooProject/go-pairlink/port/gpio"
	)

	port, err := gpio.Open(gpio.DefaultPins())
	if err != nil {
	    log.Fatal(err)
	}
	defer port.Close()

	link, err := pairlink.New(port,
	    pairlink.WithSymbolSettle(60*time.Millisecond),
	    pairlink.WithMaxRetries(3),
	)
	if err != nil {
	    log.Fatal(err)
	}

	result, err := link.Send(ctx, []byte("hello"))
	if err != nil {
	    log.Fatalf("aborted after %d packets: %v", result.PacketsAcked, err)
	}

Error Handling:

Errors can be inspected with errors.Is:

	if errors.Is(err, pairlink.ErrLinkTimeout) {
	    // The receiver never answered
	}
	if errors.Is(err, pairlink.ErrRetryBoundExceeded) {
	    // The receiver kept rejecting the same package
	}

Thread Safety:

A Link is not thread-safe. Each session runs synchronously on the calling
goroutine and blocks for the settle delays.
*/
package pairlink
