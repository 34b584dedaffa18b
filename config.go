// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package souk

import (
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/blinklabs-io/souk/ledger"
	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
)

type Config struct {
	promRegistry  prometheus.Registerer
	logger        *slog.Logger
	dataDir       string
	owner         string
	initialHolder string
	initialSupply *uint256.Int
	burnRate      uint64
	rewardRate    uint64
	marketFee     uint64
	// API listen address (empty = disabled)
	apiListenAddress string
	tracing          bool
	tracingStdout    bool
	shutdownTimeout  time.Duration
}

func (n *Node) configValidate() error {
	if n.config.owner == "" {
		return errors.New("no owner address configured")
	}
	if n.config.burnRate > ledger.MaxRateBps {
		return errors.New("burn rate above maximum")
	}
	if n.config.rewardRate > ledger.MaxRateBps {
		return errors.New("reward rate above maximum")
	}
	return nil
}

// ConfigOptionFunc is a type that represents functions that modify the node config
type ConfigOptionFunc func(*Config)

// NewConfig creates a new souk config with the specified options
func NewConfig(opts ...ConfigOptionFunc) Config {
	c := Config{
		// Default logger will throw away logs
		// We do this so we don't have to add guards around every log operation
		logger: slog.New(slog.NewJSONHandler(io.Discard, nil)),
	}
	// Apply options
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// WithLogger specifies the logger to use. This defaults to discarding log output
func WithLogger(logger *slog.Logger) ConfigOptionFunc {
	return func(c *Config) {
		c.logger = logger
	}
}

// WithDatabasePath specifies the persistent data directory to use. The default is to store everything in memory
func WithDatabasePath(dataDir string) ConfigOptionFunc {
	return func(c *Config) {
		c.dataDir = dataDir
	}
}

// WithOwner specifies the owner address for both ledgers. The owner controls
// the burn/reward rates and the marketplace fee
func WithOwner(owner string) ConfigOptionFunc {
	return func(c *Config) {
		c.owner = owner
	}
}

// WithInitialHolder specifies the address credited with the initial token
// supply. Defaults to the owner address
func WithInitialHolder(holder string) ConfigOptionFunc {
	return func(c *Config) {
		c.initialHolder = holder
	}
}

// WithInitialSupply specifies the token supply minted at genesis
func WithInitialSupply(supply *uint256.Int) ConfigOptionFunc {
	return func(c *Config) {
		c.initialSupply = supply
	}
}

// WithBurnRate specifies the initial per-transfer burn rate in basis points
func WithBurnRate(rate uint64) ConfigOptionFunc {
	return func(c *Config) {
		c.burnRate = rate
	}
}

// WithRewardRate specifies the initial staking reward rate in basis points
func WithRewardRate(rate uint64) ConfigOptionFunc {
	return func(c *Config) {
		c.rewardRate = rate
	}
}

// WithMarketplaceFee specifies the initial marketplace fee in basis points
func WithMarketplaceFee(feeBps uint64) ConfigOptionFunc {
	return func(c *Config) {
		c.marketFee = feeBps
	}
}

// WithApiListenAddress specifies the listen address for the REST API server.
// An empty string disables the server. The default is empty (disabled)
func WithApiListenAddress(addr string) ConfigOptionFunc {
	return func(c *Config) {
		c.apiListenAddress = addr
	}
}

// WithPrometheusRegistry specifies a prometheus.Registerer instance to add metrics to. In most cases, prometheus.DefaultRegistry would be
// a good choice to get metrics working
func WithPrometheusRegistry(registry prometheus.Registerer) ConfigOptionFunc {
	return func(c *Config) {
		c.promRegistry = registry
	}
}

// WithTracing enables tracing. By default, spans are submitted to a HTTP(s) endpoint using OTLP. This can be configured
// using the OTEL_EXPORTER_OTLP_* env vars documented in the README for [go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp]
func WithTracing(tracing bool) ConfigOptionFunc {
	return func(c *Config) {
		c.tracing = tracing
	}
}

// WithTracingStdout enables tracing output to stdout. This also requires tracing to enabled separately. This is mostly useful for debugging
func WithTracingStdout(stdout bool) ConfigOptionFunc {
	return func(c *Config) {
		c.tracingStdout = stdout
	}
}

// WithShutdownTimeout specifies the timeout for graceful shutdown. The default is 30 seconds
func WithShutdownTimeout(timeout time.Duration) ConfigOptionFunc {
	return func(c *Config) {
		c.shutdownTimeout = timeout
	}
}
