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

package detection

import (
	"path/filepath"
	"strings"
)

// DefaultBlocklist returns USB serial devices that are never register
// bridges and must not be opened during detection.
// Format: VID:PID in hexadecimal (case-insensitive).
func DefaultBlocklist() []string {
	return []string{
		"1D50:6089", // HackRF One, exposes a CDC port
		"2E8A:000C", // Raspberry Pi Debug Probe
	}
}

// IsBlocked reports whether vidpid is in the blocklist
func IsBlocked(vidpid string, blocklist []string) bool {
	vidpid = strings.ToUpper(strings.TrimSpace(vidpid))
	if vidpid == "" {
		return false
	}
	for _, blocked := range blocklist {
		if strings.ToUpper(strings.TrimSpace(blocked)) == vidpid {
			return true
		}
	}
	return false
}

// FormatVIDPID joins separate vendor and product ids into VID:PID form.
// It returns an empty string unless both are hexadecimal.
func FormatVIDPID(vid, pid string) string {
	vid = strings.ToUpper(strings.TrimPrefix(strings.ToLower(strings.TrimSpace(vid)), "0x"))
	pid = strings.ToUpper(strings.TrimPrefix(strings.ToLower(strings.TrimSpace(pid)), "0x"))
	if !isHex(vid) || !isHex(pid) {
		return ""
	}
	return leftPad(vid) + ":" + leftPad(pid)
}

// ParseVIDPID extracts VID:PID from descriptors such as "VID:1234 PID:5678",
// "vid=1234 pid=5678" or plain "1234:5678"
func ParseVIDPID(descriptor string) string {
	upper := strings.ToUpper(descriptor)

	vid := valueAfter(upper, "VID:", "VID=", "VENDOR=")
	pid := valueAfter(upper, "PID:", "PID=", "PRODUCT=")
	if vid != "" && pid != "" {
		return FormatVIDPID(vid, pid)
	}

	if parts := strings.Split(strings.TrimSpace(upper), ":"); len(parts) == 2 {
		return FormatVIDPID(parts[0], parts[1])
	}
	return ""
}

// IsPathIgnored reports whether devicePath matches one of ignorePaths.
// Paths are cleaned and compared case-insensitively so Windows COM names match.
func IsPathIgnored(devicePath string, ignorePaths []string) bool {
	if devicePath == "" {
		return false
	}
	device := normalizedPath(devicePath)
	for _, ignore := range ignorePaths {
		if ignore != "" && normalizedPath(ignore) == device {
			return true
		}
	}
	return false
}

func valueAfter(s string, keys ...string) string {
	for _, key := range keys {
		idx := strings.Index(s, key)
		if idx < 0 {
			continue
		}
		rest := s[idx+len(key):]
		end := strings.IndexFunc(rest, func(r rune) bool { return !isHexRune(r) })
		if end < 0 {
			end = len(rest)
		}
		if end > 0 {
			return rest[:end]
		}
	}
	return ""
}

func leftPad(s string) string {
	for len(s) < 4 {
		s = "0" + s
	}
	return s
}

func isHex(s string) bool {
	if s == "" || len(s) > 4 {
		return false
	}
	for _, r := range s {
		if !isHexRune(r) {
			return false
		}
	}
	return true
}

func isHexRune(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'A' && r <= 'F') || (r >= 'a' && r <= 'f')
}

func normalizedPath(path string) string {
	return strings.ToLower(filepath.Clean(path))
}
