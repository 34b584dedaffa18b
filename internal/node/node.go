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

package node

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	_ "net/http/pprof" // #nosec G108
	"os"
	"os/signal"
	"syscall"
	"time"

	souk "github.com/blinklabs-io/souk"
	"github.com/blinklabs-io/souk/internal/config"
	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func Run(cfg *config.Config, logger *slog.Logger) error {
	logger.Debug(fmt.Sprintf("config: %+v", cfg), "component", "node")

	// Parse shutdown timeout
	shutdownTimeout := 30 * time.Second // Default timeout
	if cfg.ShutdownTimeout != "" {
		var err error
		shutdownTimeout, err = time.ParseDuration(cfg.ShutdownTimeout)
		if err != nil {
			return fmt.Errorf("invalid shutdown timeout: %w", err)
		}
	}
	initialSupply := uint256.NewInt(0)
	if cfg.InitialSupply != "" {
		var err error
		initialSupply, err = uint256.FromDecimal(cfg.InitialSupply)
		if err != nil {
			return fmt.Errorf("invalid initial supply: %w", err)
		}
	}
	apiListenAddress := ""
	if cfg.ApiPort > 0 {
		apiListenAddress = fmt.Sprintf("%s:%d", cfg.BindAddr, cfg.ApiPort)
	}

	s, err := souk.New(
		souk.NewConfig(
			souk.WithLogger(logger),
			souk.WithDatabasePath(cfg.DatabasePath),
			souk.WithOwner(cfg.Owner),
			souk.WithInitialHolder(cfg.InitialHolder),
			souk.WithInitialSupply(initialSupply),
			souk.WithBurnRate(cfg.BurnRate),
			souk.WithRewardRate(cfg.RewardRate),
			souk.WithMarketplaceFee(cfg.MarketplaceFee),
			souk.WithApiListenAddress(apiListenAddress),
			souk.WithShutdownTimeout(shutdownTimeout),
			souk.WithTracing(cfg.Tracing),
			souk.WithTracingStdout(cfg.TracingStdout),
			// Enable metrics with default prometheus registry
			souk.WithPrometheusRegistry(prometheus.DefaultRegisterer),
		),
	)
	if err != nil {
		return err
	}
	// Metrics and debug listener
	http.Handle("/metrics", promhttp.Handler())
	logger.Info(
		"serving prometheus metrics on "+fmt.Sprintf(
			"%s:%d",
			cfg.BindAddr,
			cfg.MetricsPort,
		),
		"component",
		"node",
	)
	metricsServer := &http.Server{
		Addr: fmt.Sprintf(
			"%s:%d",
			cfg.BindAddr,
			cfg.MetricsPort,
		),
		ReadHeaderTimeout: 60 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil &&
			!errors.Is(err, http.ErrServerClosed) {
			logger.Error(
				fmt.Sprintf("failed to start metrics listener: %s", err),
				"component", "node",
			)
			os.Exit(1)
		}
	}()
	// Wait for interrupt/termination signal
	signalCtx, signalCtxStop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer signalCtxStop()

	// Run node in goroutine
	errChan := make(chan error, 1)
	go func() {
		err := s.Run()
		select {
		case errChan <- err:
		case <-signalCtx.Done():
		}
	}()

	shutdownMetrics := func() {
		shutdownCtx, cancel := context.WithTimeout(
			context.Background(),
			shutdownTimeout,
		)
		defer cancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics server shutdown error", "error", err)
		}
	}

	// Wait for signal or error
	select {
	case <-signalCtx.Done():
		logger.Info("signal received, initiating graceful shutdown")
		shutdownMetrics()
		if err := s.Stop(); err != nil {
			logger.Error("shutdown errors occurred", "error", err)
			return err
		}
		logger.Info("shutdown complete")
		return nil

	case err := <-errChan:
		shutdownMetrics()
		if err != nil {
			if stopErr := s.Stop(); stopErr != nil {
				logger.Error(
					"shutdown errors occurred",
					"error", stopErr,
				)
			}
			return err
		}
		logger.Info("node stopped")
		if err := s.Stop(); err != nil {
			logger.Error("shutdown errors occurred", "error", err)
			return err
		}
		return nil
	}
}
