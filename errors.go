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
	"errors"
	"fmt"
)

// Link errors
var (
	// ErrMalformedSymbol is returned when bit-pair input is not exactly two binary digits
	ErrMalformedSymbol = errors.New("malformed symbol input")

	// ErrLinkNack means the peer rejected a package
	ErrLinkNack = errors.New("peer signaled NACK")

	// ErrLinkTimeout means the peer did not raise the response line at all
	ErrLinkTimeout = errors.New("no response from peer")

	// ErrRetryBoundExceeded means a package was rejected more times than allowed
	ErrRetryBoundExceeded = errors.New("retry bound exceeded")

	// ErrPortIO wraps failures reported by the underlying Port
	ErrPortIO = errors.New("port I/O failed")

	// ErrInvalidConfig is returned by option and pin map validation
	ErrInvalidConfig = errors.New("invalid link configuration")

	// ErrPortClosed is returned by ports used after Close
	ErrPortClosed = errors.New("port closed")
)

// ErrorType classifies link errors
type ErrorType int

const (
	// ErrorTypePermanent errors end the session
	ErrorTypePermanent ErrorType = iota
	// ErrorTypeTransient errors may clear up on retransmission
	ErrorTypeTransient
	// ErrorTypeTimeout errors mean the peer never answered
	ErrorTypeTimeout
)

// String returns the error type name
func (t ErrorType) String() string {
	switch t {
	case ErrorTypeTransient:
		return "transient"
	case ErrorTypeTimeout:
		return "timeout"
	default:
		return "permanent"
	}
}

// LinkError carries the context of a failed link operation
type LinkError struct {
	Err       error
	Op        string
	Port      PortType
	Type      ErrorType
	Attempt   int
	Package   Package
	Retryable bool
}

// Error implements the error interface
func (e *LinkError) Error() string {
	if e.Attempt > 0 {
		return fmt.Sprintf("%s on %s port (package %08X, attempt %d): %v",
			e.Op, e.Port, uint32(e.Package), e.Attempt, e.Err)
	}
	return fmt.Sprintf("%s on %s port: %v", e.Op, e.Port, e.Err)
}

// Unwrap returns the underlying error
func (e *LinkError) Unwrap() error {
	return e.Err
}

// NewNackError creates a retryable error for a rejected package
func NewNackError(port PortType, pkg Package, attempt int) *LinkError {
	return &LinkError{
		Op:        "poll",
		Port:      port,
		Err:       ErrLinkNack,
		Type:      ErrorTypeTransient,
		Package:   pkg,
		Attempt:   attempt,
		Retryable: true,
	}
}

// NewTimeoutError creates the fatal error for a silent peer
func NewTimeoutError(port PortType, pkg Package, attempt int) *LinkError {
	return &LinkError{
		Op:      "poll",
		Port:    port,
		Err:     ErrLinkTimeout,
		Type:    ErrorTypeTimeout,
		Package: pkg,
		Attempt: attempt,
	}
}

// NewRetryBoundError creates the fatal error for too many NACKs. lastNack is
// the rejection that used up the bound and may be nil.
func NewRetryBoundError(port PortType, pkg Package, attempt, maxRetries int, lastNack error) *LinkError {
	err := fmt.Errorf("%w: %d retries allowed", ErrRetryBoundExceeded, maxRetries)
	if lastNack != nil {
		err = fmt.Errorf("%w: %d retries allowed: %w", ErrRetryBoundExceeded, maxRetries, lastNack)
	}
	return &LinkError{
		Op:      "retransmit",
		Port:    port,
		Err:     err,
		Type:    ErrorTypePermanent,
		Package: pkg,
		Attempt: attempt,
	}
}

// NewPortError wraps a Port failure
func NewPortError(op string, port PortType, err error) *LinkError {
	return &LinkError{
		Op:   op,
		Port: port,
		Err:  fmt.Errorf("%w: %w", ErrPortIO, err),
		Type: ErrorTypePermanent,
	}
}

// IsRetryable reports whether err may clear up by retransmitting the same package.
// Only a NACK qualifies; a timeout is never retried.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var linkErr *LinkError
	if errors.As(err, &linkErr) {
		return linkErr.Retryable
	}
	return errors.Is(err, ErrLinkNack)
}

// IsFatal reports whether err ends the session
func IsFatal(err error) bool {
	return err != nil && !IsRetryable(err)
}

// GetErrorType returns the classification of err
func GetErrorType(err error) ErrorType {
	var linkErr *LinkError
	if errors.As(err, &linkErr) {
		return linkErr.Type
	}
	switch {
	case errors.Is(err, ErrLinkNack):
		return ErrorTypeTransient
	case errors.Is(err, ErrLinkTimeout):
		return ErrorTypeTimeout
	default:
		return ErrorTypePermanent
	}
}
