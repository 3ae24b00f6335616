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

// Command pairsend is the sender stage of a pairlink pipeline. It reads raw
// bytes, or bit-pair text produced by pairpack with -bitpairs, from stdin and
// transmits them over a GPIO, serial bridge or simulated port. It exits with
// status 1 when the session aborts.
//
// Settings come from an optional TOML file (-config), overridden by flags.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	pairlink "github.com/ZaparooProject/go-pairlink"
	"github.com/ZaparooProject/go-pairlink/detection"
	_ "github.com/ZaparooProject/go-pairlink/detection/gpio"   // register gpio detector
	_ "github.com/ZaparooProject/go-pairlink/detection/serial" // register bridge detector
	"github.com/ZaparooProject/go-pairlink/internal/logging"
	"github.com/ZaparooProject/go-pairlink/internal/metrics"
	"github.com/ZaparooProject/go-pairlink/port/bridge"
	"github.com/ZaparooProject/go-pairlink/port/gpio"
	"github.com/ZaparooProject/go-pairlink/port/sim"
	"github.com/rs/zerolog"
)

// parseArgs resolves settings from defaults, the config file and flags, in
// that order of precedence
func parseArgs(args []string) (settings, bool, error) {
	s := defaultSettings()
	fs := flag.NewFlagSet("pairsend", flag.ContinueOnError)

	configPath := fs.String("config", "", "TOML config file")
	debug := fs.Bool("debug", false, "Enable debug output")
	port := fs.String("port", s.Port, "Port backend: auto, gpio, bridge or sim")
	device := fs.String("device", s.Device, "Serial device of the bridge (e.g. /dev/ttyACM0 or COM3)")
	baud := fs.Int("baud", s.BaudRate, "Bridge baud rate")
	bitPairs := fs.Bool("bitpairs", s.BitPairs, "Read bit-pair text from pairpack instead of raw bytes")
	symbolSettle := fs.Duration("symbol-settle", s.SymbolSettle, "How long each symbol is held with the clock high")
	responseSettle := fs.Duration("response-settle", s.ResponseSettle, "Delay between the two response samples")
	maxRetries := fs.Int("max-retries", s.MaxRetries, "Retransmissions allowed per package")
	checksum := fs.Uint("checksum", s.Checksum, "Initial running checksum (continue an earlier session)")
	metricsAddr := fs.String("metrics-addr", s.MetricsAddr, "Serve Prometheus metrics on this address")
	logLevel := fs.String("log-level", s.LogLevel, "Log level: trace, debug, info, warn, error")
	data0 := fs.String("pin-data0", s.Pins.Data0, "GPIO pin of the low data bit")
	data1 := fs.String("pin-data1", s.Pins.Data1, "GPIO pin of the high data bit")
	response := fs.String("pin-response", s.Pins.Response, "GPIO pin of the response line")
	clock := fs.String("pin-clock", s.Pins.Clock, "GPIO pin of the clock line")

	if err := fs.Parse(args); err != nil {
		return s, false, err
	}
	if *configPath != "" {
		if err := loadConfigFile(*configPath, &s); err != nil {
			return s, false, err
		}
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "port":
			s.Port = strings.ToLower(*port)
		case "device":
			s.Device = *device
		case "baud":
			s.BaudRate = *baud
		case "bitpairs":
			s.BitPairs = *bitPairs
		case "symbol-settle":
			s.SymbolSettle = *symbolSettle
		case "response-settle":
			s.ResponseSettle = *responseSettle
		case "max-retries":
			s.MaxRetries = *maxRetries
		case "checksum":
			s.Checksum = *checksum
		case "metrics-addr":
			s.MetricsAddr = *metricsAddr
		case "log-level":
			s.LogLevel = *logLevel
		case "pin-data0":
			s.Pins.Data0 = *data0
		case "pin-data1":
			s.Pins.Data1 = *data1
		case "pin-response":
			s.Pins.Response = *response
		case "pin-clock":
			s.Pins.Clock = *clock
		}
	})

	if err := s.validate(); err != nil {
		return s, false, err
	}
	return s, *debug, nil
}

func main() {
	s, debug, err := parseArgs(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "pairsend: %v\n", err)
		os.Exit(2)
	}

	profile := logging.ProfileRuntime
	if debug {
		profile = logging.ProfileDebug
	}
	logger := logging.Configure("pairsend", profile)
	if lvl, ok := logging.ParseLevel(s.LogLevel); ok {
		logger = logger.Level(lvl)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, s, os.Stdin, logger))
}

// run opens the port, transmits in and returns the process exit code
func run(ctx context.Context, s settings, in io.Reader, logger zerolog.Logger) int {
	port, err := openPort(ctx, s, logger)
	if err != nil {
		logger.Error().Err(err).Str("port", s.Port).Msg("failed to open port")
		return 1
	}
	defer func() {
		if err := port.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to close port")
		}
	}()

	opts := append(s.linkOptions(), pairlink.WithLogger(logger))
	if s.MetricsAddr != "" {
		m := metrics.New()
		opts = append(opts, pairlink.WithObserver(m))
		srv := serveMetrics(s.MetricsAddr, m, logger)
		defer shutdown(srv, logger)
	}

	link, err := pairlink.New(port, opts...)
	if err != nil {
		logger.Error().Err(err).Msg("invalid link settings")
		return 1
	}

	logger.Info().
		Str("port", string(port.Type())).
		Bool("bitpairs", s.BitPairs).
		Dur("symbol_settle", s.SymbolSettle).
		Int("max_retries", s.MaxRetries).
		Msg("starting transmission")

	var result *pairlink.Result
	if s.BitPairs {
		result, err = link.RunSymbols(ctx, pairlink.NewBitPairSource(in))
	} else {
		result, err = link.Run(ctx, pairlink.NewReaderSource(in))
	}

	event := logger.Info()
	if result.State == pairlink.StateAborted {
		event = logger.Error().Err(err)
	}
	event.
		Str("state", result.State.String()).
		Uint64("packets", result.PacketsAcked).
		Uint64("retransmissions", result.Retransmissions).
		Str("checksum", fmt.Sprintf("0x%02X", result.Checksum)).
		Msg("session finished")

	if result.State == pairlink.StateAborted {
		return 1
	}
	return 0
}

// openPort opens the configured backend, detecting one for "auto"
func openPort(ctx context.Context, s settings, logger zerolog.Logger) (pairlink.Port, error) {
	switch s.Port {
	case portGPIO:
		return openGPIO(s)
	case portBridge:
		return openBridge(s.Device, s)
	case portSim:
		logger.Warn().Msg("using simulated receiver, nothing leaves this process")
		return sim.New(), nil
	}

	opts := detection.DefaultOptions()
	opts.Mode = detection.Safe
	devices, err := detection.DetectAllContext(ctx, &opts)
	if err != nil {
		return nil, fmt.Errorf("auto-detection failed: %w", err)
	}
	device := devices[0]
	logger.Info().Str("device", device.String()).Msg("auto-detected port")

	switch device.Port {
	case portGPIO:
		return openGPIO(s)
	case portBridge:
		return openBridge(device.Path, s)
	default:
		return nil, fmt.Errorf("unsupported detected port %q", device.Port)
	}
}

func openGPIO(s settings) (pairlink.Port, error) {
	p, err := gpio.Open(s.Pins)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func openBridge(path string, s settings) (pairlink.Port, error) {
	cfg := bridge.DefaultConfig()
	cfg.BaudRate = s.BaudRate
	p, err := bridge.Open(path, cfg)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func serveMetrics(addr string, m *metrics.Metrics, logger zerolog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Str("addr", addr).Msg("metrics server failed")
		}
	}()
	logger.Info().Str("addr", addr).Msg("serving metrics")
	return srv
}

func shutdown(srv *http.Server, logger zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn().Err(err).Msg("failed to stop metrics server")
	}
}
