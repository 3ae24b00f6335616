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

package testing

// Scripted input register values for driving a response monitor. Each helper
// returns the samples a monitor takes for one poll.

// AckSamples returns a response line held high across both samples
func AckSamples(mask byte) []byte {
	return []byte{mask, mask}
}

// NackSamples returns a response pulse that has dropped by the second sample
func NackSamples(mask byte) []byte {
	return []byte{mask, 0x00}
}

// TimeoutSamples returns a response line that never went high. Only one
// sample is taken in that case.
func TimeoutSamples() []byte {
	return []byte{0x00}
}

// Repeat concatenates n copies of samples
func Repeat(samples []byte, n int) []byte {
	out := make([]byte, 0, len(samples)*n)
	for i := 0; i < n; i++ {
		out = append(out, samples...)
	}
	return out
}

// Join concatenates sample scripts
func Join(scripts ...[]byte) []byte {
	var out []byte
	for _, s := range scripts {
		out = append(out, s...)
	}
	return out
}
