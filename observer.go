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

// Observer receives link events. Calls happen synchronously on the goroutine
// running the session, so implementations must not block.
type Observer interface {
	// SymbolSent is called after each clocked symbol, including replays
	SymbolSent(sym Symbol)

	// ResponseReceived is called after every poll; attempt starts at 1
	ResponseReceived(resp Response, attempt int)

	// PackageAcknowledged is called once per acknowledged package
	PackageAcknowledged(pkg Package, attempts int)

	// StateChanged is called on every state transition
	StateChanged(from, to State)
}
