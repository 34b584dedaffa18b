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

// Package api implements the REST API server exposing the token and
// marketplace ledgers. Mutating endpoints carry the caller address and an
// optional transaction timestamp in the request body; when the timestamp is
// omitted the server's wall clock is used.
package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"
)

// Api is the REST API server.
type Api struct {
	config     ApiConfig
	logger     *slog.Logger
	node       ApiNode
	httpServer *http.Server
	mu         sync.Mutex
}

type ApiConfig struct {
	ListenAddress string
}

// New creates a new API server instance.
func New(
	cfg ApiConfig,
	node ApiNode,
	logger *slog.Logger,
) *Api {
	if logger == nil {
		logger = slog.New(
			slog.NewJSONHandler(io.Discard, nil),
		)
	}
	logger = logger.With("component", "api")
	if cfg.ListenAddress == "" {
		cfg.ListenAddress = ":3000"
	}
	return &Api{
		config: cfg,
		logger: logger,
		node:   node,
	}
}

// Start starts the HTTP server in a background goroutine.
func (a *Api) Start(ctx context.Context) error {
	a.mu.Lock()
	if a.httpServer != nil {
		a.mu.Unlock()
		return errors.New("server already started")
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /", a.handleRoot)
	mux.HandleFunc("GET /health", a.handleHealth)
	// Token ledger
	mux.HandleFunc("GET /api/v1/token", a.handleTokenInfo)
	mux.HandleFunc(
		"GET /api/v1/token/accounts/{address}",
		a.handleTokenAccount,
	)
	mux.HandleFunc("POST /api/v1/token/transfer", a.handleTransfer)
	mux.HandleFunc("POST /api/v1/token/stake", a.handleStake)
	mux.HandleFunc("POST /api/v1/token/unstake", a.handleUnstake)
	mux.HandleFunc("POST /api/v1/token/burn-rate", a.handleSetBurnRate)
	mux.HandleFunc("POST /api/v1/token/reward-rate", a.handleSetRewardRate)
	// Marketplace ledger
	mux.HandleFunc("GET /api/v1/market", a.handleMarketInfo)
	mux.HandleFunc("GET /api/v1/market/assets/{id}", a.handleMarketAsset)
	mux.HandleFunc("POST /api/v1/market/mint", a.handleMint)
	mux.HandleFunc("POST /api/v1/market/assets/{id}/list", a.handleList)
	mux.HandleFunc("POST /api/v1/market/assets/{id}/delist", a.handleDelist)
	mux.HandleFunc("POST /api/v1/market/assets/{id}/buy", a.handleBuy)
	mux.HandleFunc(
		"POST /api/v1/market/assets/{id}/auction",
		a.handleStartAuction,
	)
	mux.HandleFunc("POST /api/v1/market/assets/{id}/bid", a.handlePlaceBid)
	mux.HandleFunc(
		"POST /api/v1/market/assets/{id}/settle",
		a.handleEndAuction,
	)
	mux.HandleFunc(
		"POST /api/v1/market/assets/{id}/royalty",
		a.handleSetRoyalty,
	)
	mux.HandleFunc(
		"POST /api/v1/market/assets/{id}/royalty/withdraw",
		a.handleWithdrawRoyalties,
	)
	mux.HandleFunc("POST /api/v1/market/fee", a.handleUpdateFee)
	// Event log
	mux.HandleFunc("GET /api/v1/events", a.handleEvents)

	server := &http.Server{
		Addr:              a.config.ListenAddress,
		Handler:           mux,
		ReadHeaderTimeout: 60 * time.Second,
	}
	a.httpServer = server
	a.mu.Unlock()

	// Start the server with deterministic error detection
	if err := a.startServer(server); err != nil {
		a.mu.Lock()
		a.httpServer = nil
		a.mu.Unlock()
		return err
	}

	a.logger.Info(
		"API listener started on " + a.config.ListenAddress,
	)

	// Monitor context for cancellation
	go func() {
		<-ctx.Done()
		a.mu.Lock()
		srv := a.httpServer
		a.httpServer = nil
		a.mu.Unlock()

		if srv != nil {
			a.logger.Debug(
				"context cancelled, shutting down API server",
			)
			//nolint:contextcheck
			shutdownCtx, cancel := context.WithTimeout(
				context.Background(),
				30*time.Second,
			)
			defer cancel()
			//nolint:contextcheck
			if err := srv.Shutdown(shutdownCtx); err != nil {
				a.logger.Error(
					"failed to shutdown API server on context cancellation",
					"error", err,
				)
			}
		}
	}()

	return nil
}

// Stop gracefully shuts down the HTTP server.
func (a *Api) Stop(ctx context.Context) error {
	a.mu.Lock()
	srv := a.httpServer
	a.httpServer = nil
	a.mu.Unlock()

	if srv != nil {
		a.logger.Debug("shutting down API server")
		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf(
				"failed to shutdown API server: %w",
				err,
			)
		}
	}
	return nil
}

// startServer starts the HTTP server with deterministic error detection. It
// binds the listening socket first so port conflicts are detected
// immediately, then serves in a background goroutine.
func (a *Api) startServer(server *http.Server) error {
	ln, err := net.Listen("tcp", server.Addr)
	if err != nil {
		return fmt.Errorf(
			"failed to listen for API server: %w",
			err,
		)
	}
	go func() {
		if err := server.Serve(ln); err != nil &&
			!errors.Is(err, http.ErrServerClosed) {
			a.logger.Error(
				"API server error",
				"error", err,
			)
		}
	}()
	return nil
}
