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

// Package sim provides a simulated pairlink receiver that implements
// pairlink.Port. It decodes clocked symbols, validates packets with the
// cumulative checksum and drives the response line the way real receiver
// firmware does: a sustained level for ACK and a short pulse for NACK.
package sim

import (
	"sync"
	"time"

	pairlink "github.com/ZaparooProject/go-pairlink"
	"github.com/ZaparooProject/go-pairlink/internal/frame"
)

// Reply is the peer's answer to a complete package
type Reply int

const (
	// ReplyAuto acknowledges valid packets and rejects invalid ones
	ReplyAuto Reply = iota
	// ReplyAck acknowledges regardless of content
	ReplyAck
	// ReplyNack rejects regardless of content
	ReplyNack
	// ReplySilent leaves the response line low
	ReplySilent
)

// String returns the reply name
func (r Reply) String() string {
	switch r {
	case ReplyAck:
		return "ack"
	case ReplyNack:
		return "nack"
	case ReplySilent:
		return "silent"
	default:
		return "auto"
	}
}

// DefaultPulseWidth is how long the response line stays high for a NACK.
// It must be shorter than the sender's response settle delay.
const DefaultPulseWidth = 10 * time.Millisecond

// Corruptor may alter a symbol as it is sampled, to model line noise.
// group counts complete packages seen so far, index is 0..15 within the group.
type Corruptor func(group, index int, sym pairlink.Symbol) pairlink.Symbol

// Option configures a Peer
type Option func(*Peer)

// WithPins sets the wiring the peer listens on
func WithPins(pins pairlink.PinMap) Option {
	return func(p *Peer) {
		p.pins = pins
	}
}

// WithClock sets the time base used for NACK pulses. It must be the same
// clock the sending Link uses.
func WithClock(clock pairlink.Clock) Option {
	return func(p *Peer) {
		p.clock = clock
	}
}

// WithPulseWidth sets the NACK pulse width
func WithPulseWidth(width time.Duration) Option {
	return func(p *Peer) {
		p.pulseWidth = width
	}
}

// WithReplies scripts the answers to the next packages. Once the script is
// used up the peer falls back to ReplyAuto.
func WithReplies(replies ...Reply) Option {
	return func(p *Peer) {
		p.script = append(p.script, replies...)
	}
}

// WithCorruptor installs a line noise model
func WithCorruptor(fn Corruptor) Option {
	return func(p *Peer) {
		p.corrupt = fn
	}
}

// Peer is a simulated receiver wired to the sender's port
type Peer struct {
	clock      pairlink.Clock
	corrupt    Corruptor
	decoder    *frame.Decoder
	pulseEnd   time.Time
	script     []Reply
	received   []byte
	replies    []Reply
	pins       pairlink.PinMap
	pulseWidth time.Duration
	groups     int
	count      int
	pkg        frame.Package
	mu         sync.Mutex
	output     byte
	direction  byte
	response   bool
	pulse      bool
	closed     bool
}

// New creates a peer expecting a fresh session
func New(opts ...Option) *Peer {
	p := &Peer{
		clock:      pairlink.SystemClock{},
		decoder:    frame.NewDecoder(),
		pins:       pairlink.DefaultPinMap(),
		pulseWidth: DefaultPulseWidth,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ReadInput returns the response line as seen by the sender
func (p *Peer) ReadInput() (byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return 0, pairlink.ErrPortClosed
	}
	if p.response && (!p.pulse || p.clock.Now().Before(p.pulseEnd)) {
		return p.pins.ResponseMask, nil
	}
	return 0, nil
}

// ReadOutput returns the last value written by the sender
func (p *Peer) ReadOutput() (byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return 0, pairlink.ErrPortClosed
	}
	return p.output, nil
}

// WriteOutput latches the sender's lines and samples data on the falling
// clock edge
func (p *Peer) WriteOutput(value byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return pairlink.ErrPortClosed
	}

	prev := p.output
	p.output = value
	if prev&p.pins.ClockMask != 0 && value&p.pins.ClockMask == 0 {
		p.sample(value)
	}
	return nil
}

// ConfigureDirection records the direction mask
func (p *Peer) ConfigureDirection(mask byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return pairlink.ErrPortClosed
	}
	p.direction = mask
	return nil
}

// Close disconnects the peer
func (p *Peer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

// Type returns PortSim
func (*Peer) Type() pairlink.PortType {
	return pairlink.PortSim
}

// Received returns the payload bytes accepted so far
func (p *Peer) Received() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]byte(nil), p.received...)
}

// Replies returns the reply given to every complete package
func (p *Peer) Replies() []Reply {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Reply(nil), p.replies...)
}

// Groups returns how many complete packages were clocked in
func (p *Peer) Groups() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.groups
}

// Checksum returns the receiver's running checksum
func (p *Peer) Checksum() byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.decoder.Checksum()
}

// Direction returns the direction mask the sender configured
func (p *Peer) Direction() byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.direction
}

// sample takes one symbol off the data lines; callers hold p.mu
func (p *Peer) sample(reg byte) {
	if p.count == 0 {
		p.response = false
	}

	sym := p.pins.DecodeSymbol(reg)
	if p.corrupt != nil {
		sym = p.corrupt(p.groups, p.count, sym) & frame.SymbolMask
	}

	p.pkg = frame.PackSymbol(p.pkg, sym)
	p.count++
	if p.count < frame.SymbolsPerPackage {
		return
	}

	p.respond(p.nextReply())
	p.groups++
	p.count = 0
	p.pkg = 0
}

func (p *Peer) nextReply() Reply {
	if len(p.script) == 0 {
		return ReplyAuto
	}
	r := p.script[0]
	p.script = p.script[1:]
	return r
}

// respond drives the response line for the package in p.pkg
func (p *Peer) respond(reply Reply) {
	switch reply {
	case ReplyAuto, ReplyAck:
		payload, err := p.decoder.Decode(p.pkg)
		switch {
		case err == nil:
			p.received = append(p.received, payload)
			reply = ReplyAck
		case reply == ReplyAuto:
			reply = ReplyNack
		}
	}
	p.replies = append(p.replies, reply)

	switch reply {
	case ReplyAck:
		p.response = true
		p.pulse = false
	case ReplyNack:
		p.response = true
		p.pulse = true
		p.pulseEnd = p.clock.Now().Add(p.pulseWidth)
	default:
		p.response = false
	}
}

var _ pairlink.Port = (*Peer)(nil)
