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
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/ZaparooProject/go-pairlink/internal/frame"
	"github.com/rs/zerolog"
)

// State is a state of the transmission state machine
type State int

const (
	// StateSendingNew pulls fresh input and sends a new package
	StateSendingNew State = iota
	// StateRetransmitting replays the retained package after a NACK
	StateRetransmitting
	// StateDone means the input ended cleanly
	StateDone
	// StateAborted means the session failed
	StateAborted
)

// String returns the state name
func (s State) String() string {
	switch s {
	case StateSendingNew:
		return "SENDING_NEW"
	case StateRetransmitting:
		return "RETRANSMITTING"
	case StateDone:
		return "DONE"
	case StateAborted:
		return "ABORTED"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Terminal reports whether the state ends the session
func (s State) Terminal() bool {
	return s == StateDone || s == StateAborted
}

// Config contains configuration options for a Link
type Config struct {
	// Pins assigns the link lines to register bits
	Pins PinMap
	// SymbolSettle is how long data is held with the clock high
	SymbolSettle time.Duration
	// ResponseSettle separates the two samples of the response line
	ResponseSettle time.Duration
	// MaxRetries is how many times a NACKed package is replayed
	MaxRetries int
}

// DefaultConfig returns the reference timing and wiring
func DefaultConfig() *Config {
	return &Config{
		Pins:           DefaultPinMap(),
		SymbolSettle:   60 * time.Millisecond,
		ResponseSettle: 30 * time.Millisecond,
		MaxRetries:     3,
	}
}

// Validate checks the configuration
func (c *Config) Validate() error {
	if err := c.Pins.Validate(); err != nil {
		return err
	}
	if c.SymbolSettle < 0 || c.ResponseSettle < 0 {
		return fmt.Errorf("%w: negative settle delay", ErrInvalidConfig)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("%w: negative max retries %d", ErrInvalidConfig, c.MaxRetries)
	}
	return nil
}

// Result summarizes a finished session
type Result struct {
	State           State
	PacketsAcked    uint64
	SymbolsSent     uint64
	Retransmissions uint64
	Nacks           uint64
	// PartialSymbols counts symbols of a trailing group cut short by end of input
	PartialSymbols int
	// Checksum is the running checksum carried by the last acknowledged
	// packet, or the starting checksum when nothing was acknowledged
	Checksum byte
}

// retryState is the per-package bookkeeping of the state machine
type retryState struct {
	lastNack    error
	pkg         Package
	symbolsSent int
	retryCount  int
}

func (r *retryState) reset() {
	*r = retryState{}
}

// Link is the sending end of a pairlink bus. It frames input, clocks symbols
// onto the port and retransmits on NACK up to the configured bound.
//
// Thread Safety: Link is NOT thread-safe. A session runs to completion on the
// calling goroutine. Independent Links with their own ports and encoders can
// run side by side.
type Link struct {
	port     Port
	config   *Config
	clock    Clock
	observer Observer
	encoder  *frame.Encoder
	tx       *Transmitter
	monitor  *Monitor
	logger   zerolog.Logger
	retry    retryState
	result   Result
	state    State
}

// New creates a Link on port
func New(port Port, opts ...Option) (*Link, error) {
	if port == nil {
		return nil, fmt.Errorf("%w: nil port", ErrInvalidConfig)
	}

	link := &Link{
		port:    port,
		config:  DefaultConfig(),
		clock:   SystemClock{},
		encoder: frame.NewEncoder(),
		logger:  zerolog.Nop(),
	}

	for _, opt := range opts {
		if err := opt(link); err != nil {
			return nil, err
		}
	}

	if err := link.config.Validate(); err != nil {
		return nil, err
	}

	link.tx = NewTransmitter(port, link.config.Pins, link.clock, link.config.SymbolSettle)
	link.monitor = NewMonitor(port, link.config.Pins.ResponseMask, link.clock, link.config.ResponseSettle)
	return link, nil
}

// Port returns the underlying port
func (l *Link) Port() Port {
	return l.port
}

// Config returns a copy of the link configuration
func (l *Link) Config() Config {
	return *l.config
}

// State returns the current state
func (l *Link) State() State {
	return l.state
}

// Checksum returns the running checksum of the session
func (l *Link) Checksum() byte {
	return l.encoder.Checksum()
}

// ResetSession restarts the running checksum
func (l *Link) ResetSession() {
	l.encoder.Reset()
}

// Send transmits data and returns once every byte was acknowledged or the
// session aborted
func (l *Link) Send(ctx context.Context, data []byte) (*Result, error) {
	return l.Run(ctx, NewReaderSource(bytes.NewReader(data)))
}

// Run frames every byte of src and transmits it. The running checksum
// continues from earlier calls until ResetSession.
func (l *Link) Run(ctx context.Context, src ByteSource) (*Result, error) {
	return l.run(ctx, newPacketSymbols(src, l.encoder), l.encoder.Checksum())
}

// RunSymbols transmits symbols that were framed by a separate packager
// stage, grouping them 16 at a time. Result.Checksum is taken from the
// acknowledged packets themselves.
func (l *Link) RunSymbols(ctx context.Context, src SymbolSource) (*Result, error) {
	return l.run(ctx, src, 0)
}

func (l *Link) run(ctx context.Context, src SymbolSource, checksum byte) (*Result, error) {
	l.retry.reset()
	l.result = Result{Checksum: checksum}
	l.state = StateSendingNew

	var err error
	if dirErr := l.port.ConfigureDirection(l.config.Pins.OutputMask()); dirErr != nil {
		err = l.abort(NewPortError("configureDirection", l.port.Type(), dirErr))
	}

	for !l.state.Terminal() {
		switch l.state {
		case StateSendingNew:
			err = l.sendNew(ctx, src)
		case StateRetransmitting:
			err = l.retransmit()
		default:
			err = l.abort(fmt.Errorf("unexpected state %s", l.state))
		}
	}

	if idleErr := l.tx.Idle(); idleErr != nil {
		l.logger.Error().Err(idleErr).Msg("failed to idle bus lines")
		err = errors.Join(err, idleErr)
		l.state = StateAborted
	}

	l.result.State = l.state
	result := l.result
	return &result, err
}

// sendNew fills one package from src, clocking each symbol out as soon as it
// is read, then polls for the response
func (l *Link) sendNew(ctx context.Context, src SymbolSource) error {
	if err := ctx.Err(); err != nil {
		return l.abort(&LinkError{Op: "run", Port: l.port.Type(), Err: err})
	}

	for l.retry.symbolsSent < frame.SymbolsPerPackage {
		sym, err := src.NextSymbol()
		if errors.Is(err, io.EOF) {
			return l.finish()
		}
		if err != nil {
			return l.abort(&LinkError{Op: "readInput", Port: l.port.Type(), Err: err})
		}

		l.retry.pkg = frame.PackSymbol(l.retry.pkg, sym)
		if err := l.sendSymbol(sym); err != nil {
			return l.abort(err)
		}
		l.retry.symbolsSent++
	}

	l.retry.symbolsSent = 0
	return l.poll(1)
}

// retransmit replays the retained package bit for bit
func (l *Link) retransmit() error {
	l.retry.retryCount++
	if l.retry.retryCount > l.config.MaxRetries {
		return l.abort(NewRetryBoundError(l.port.Type(), l.retry.pkg, l.retry.retryCount, l.config.MaxRetries, l.retry.lastNack))
	}

	l.logger.Debug().
		Str("package", l.retry.pkg.String()).
		Int("retry", l.retry.retryCount).
		Msg("retransmitting package")

	for i := 0; i < frame.SymbolsPerPackage; i++ {
		if err := l.sendSymbol(frame.ExtractSymbol(l.retry.pkg, i)); err != nil {
			return l.abort(err)
		}
	}
	l.result.Retransmissions++

	return l.poll(l.retry.retryCount + 1)
}

func (l *Link) sendSymbol(sym Symbol) error {
	if err := l.tx.SendSymbol(sym); err != nil {
		return err
	}
	l.result.SymbolsSent++
	if l.observer != nil {
		l.observer.SymbolSent(sym)
	}
	return nil
}

// poll classifies the response to a complete package and picks the next state
func (l *Link) poll(attempt int) error {
	resp, err := l.monitor.Poll()
	if err != nil {
		return l.abort(err)
	}
	if l.observer != nil {
		l.observer.ResponseReceived(resp, attempt)
	}

	switch resp {
	case ResponseAck:
		l.logger.Debug().
			Str("package", l.retry.pkg.String()).
			Int("attempt", attempt).
			Msg("package acknowledged")
		if l.observer != nil {
			l.observer.PackageAcknowledged(l.retry.pkg, attempt)
		}
		l.result.PacketsAcked++
		l.result.Checksum = frame.UnpackPackage(l.retry.pkg).Checksum()
		l.retry.reset()
		l.setState(StateSendingNew)
		return nil

	case ResponseNack:
		l.result.Nacks++
		l.retry.lastNack = NewNackError(l.port.Type(), l.retry.pkg, attempt)
		l.logger.Info().
			Err(l.retry.lastNack).
			Str("package", l.retry.pkg.String()).
			Int("attempt", attempt).
			Msg("package rejected, will retransmit")
		l.setState(StateRetransmitting)
		return nil

	default:
		return l.abort(NewTimeoutError(l.port.Type(), l.retry.pkg, attempt))
	}
}

// finish handles the end of input
func (l *Link) finish() error {
	if l.retry.symbolsSent > 0 {
		l.result.PartialSymbols = l.retry.symbolsSent
		l.logger.Warn().
			Int("symbols", l.retry.symbolsSent).
			Msg("input ended inside a package, trailing symbols were not acknowledged")
	}
	l.logger.Info().
		Uint64("packets", l.result.PacketsAcked).
		Msg("no more input, transmission complete")
	l.retry.reset()
	l.setState(StateDone)
	return nil
}

// abort moves to StateAborted and returns err for Run to report
func (l *Link) abort(err error) error {
	l.logger.Warn().Err(err).Str("state", l.state.String()).Msg("transmission aborted")
	l.retry.reset()
	l.setState(StateAborted)
	return err
}

func (l *Link) setState(next State) {
	if next == l.state {
		return
	}
	prev := l.state
	l.state = next
	if l.observer != nil {
		l.observer.StateChanged(prev, next)
	}
}
