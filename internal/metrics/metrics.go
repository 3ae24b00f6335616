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

// Package metrics exports link events as Prometheus metrics
package metrics

import (
	"net/http"

	pairlink "github.com/ZaparooProject/go-pairlink"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "pairlink"

// Metrics implements pairlink.Observer on top of Prometheus collectors
type Metrics struct {
	SymbolsSent      prometheus.Counter
	Responses        *prometheus.CounterVec
	PackagesAcked    prometheus.Counter
	Attempts         prometheus.Histogram
	StateTransitions *prometheus.CounterVec
	State            prometheus.Gauge

	gatherer prometheus.Gatherer
}

// New creates the link metrics and registers them with a fresh registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	return NewWithRegistry(reg, reg)
}

// NewWithRegistry registers the link metrics with reg and serves them from g
func NewWithRegistry(reg prometheus.Registerer, g prometheus.Gatherer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		SymbolsSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "symbols_sent_total",
			Help:      "Symbols clocked onto the data lines, replays included.",
		}),
		Responses: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "responses_total",
			Help:      "Receiver responses by kind.",
		}, []string{"response"}),
		PackagesAcked: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "packages_acked_total",
			Help:      "Packages acknowledged by the receiver.",
		}),
		Attempts: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "package_attempts",
			Help:      "Transmissions needed per acknowledged package.",
			Buckets:   []float64{1, 2, 3, 4},
		}),
		StateTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "state_transitions_total",
			Help:      "Link state machine transitions by target state.",
		}, []string{"state"}),
		State: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "state",
			Help:      "Current link state (0 sending, 1 retransmitting, 2 done, 3 aborted).",
		}),
		gatherer: g,
	}
}

// Handler serves the metrics in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// SymbolSent implements pairlink.Observer
func (m *Metrics) SymbolSent(pairlink.Symbol) {
	m.SymbolsSent.Inc()
}

// ResponseReceived implements pairlink.Observer
func (m *Metrics) ResponseReceived(resp pairlink.Response, _ int) {
	m.Responses.WithLabelValues(resp.String()).Inc()
}

// PackageAcknowledged implements pairlink.Observer
func (m *Metrics) PackageAcknowledged(_ pairlink.Package, attempts int) {
	m.PackagesAcked.Inc()
	m.Attempts.Observe(float64(attempts))
}

// StateChanged implements pairlink.Observer
func (m *Metrics) StateChanged(_, to pairlink.State) {
	m.StateTransitions.WithLabelValues(to.String()).Inc()
	m.State.Set(float64(to))
}

var _ pairlink.Observer = (*Metrics)(nil)
