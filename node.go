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

// Package souk assembles the token and marketplace ledgers, their shared
// persistence, the event log, and the REST API into a runnable node.
package souk

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/blinklabs-io/souk/api"
	"github.com/blinklabs-io/souk/database"
	"github.com/blinklabs-io/souk/event"
	"github.com/blinklabs-io/souk/ledger"
	"github.com/blinklabs-io/souk/marketplace"
	"github.com/blinklabs-io/souk/token"
	"github.com/holiman/uint256"
)

type Node struct {
	eventBus      *event.EventBus
	db            *database.Database
	tokenLedger   *token.Ledger
	marketLedger  *marketplace.Ledger
	api           *api.Api
	apiCancel     context.CancelFunc
	shutdownFuncs []func(context.Context) error
	config        Config
	done          chan struct{}
	shutdownOnce  sync.Once
}

func New(cfg Config) (*Node, error) {
	eventBus := event.NewEventBus(cfg.promRegistry, cfg.logger)
	n := &Node{
		config:   cfg,
		eventBus: eventBus,
		done:     make(chan struct{}),
	}
	if err := n.configValidate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return n, nil
}

// TokenLedger returns the fungible token ledger
func (n *Node) TokenLedger() *token.Ledger {
	return n.tokenLedger
}

// MarketLedger returns the marketplace ledger
func (n *Node) MarketLedger() *marketplace.Ledger {
	return n.marketLedger
}

// EventBus returns the node's event bus
func (n *Node) EventBus() *event.EventBus {
	return n.eventBus
}

// Events returns entries from the durable event log
func (n *Node) Events(startSeq, limit uint64) ([]database.EventLogEntry, error) {
	return n.db.Events(startSeq, limit)
}

func (n *Node) Run() error {
	// Configure tracing
	if n.config.tracing {
		if err := n.setupTracing(); err != nil {
			return err
		}
	}
	// Load database
	db, err := database.New(database.Config{
		DataDir:      n.config.dataDir,
		Logger:       n.config.logger,
		PromRegistry: n.config.promRegistry,
	})
	if db == nil {
		n.config.logger.Error(
			"failed to create database",
			"error",
			"empty database returned",
		)
		return errors.New("empty database returned")
	}
	n.db = db
	if err != nil {
		var dbErr database.CommitTimestampError
		if !errors.As(err, &dbErr) {
			return fmt.Errorf("failed to open database: %w", err)
		}
		n.config.logger.Warn(
			"commit timestamp mismatch, event log may lag ledger state",
			"error",
			err,
		)
	}
	// Persist ledger events as they are published
	n.subscribeEventLog()
	// Load token ledger
	initialHolder := n.config.initialHolder
	if initialHolder == "" {
		initialHolder = n.config.owner
	}
	initialSupply := n.config.initialSupply
	if initialSupply == nil {
		initialSupply = uint256.NewInt(0)
	}
	tokenLedger, err := token.NewLedger(token.LedgerConfig{
		Owner:         ledger.Address(n.config.owner),
		InitialHolder: ledger.Address(initialHolder),
		InitialSupply: initialSupply,
		BurnRate:      n.config.burnRate,
		RewardRate:    n.config.rewardRate,
		EventBus:      n.eventBus,
		Logger:        n.config.logger,
		PromRegistry:  n.config.promRegistry,
		Store:         n.db,
	})
	if err != nil {
		return fmt.Errorf("failed to load token ledger: %w", err)
	}
	n.tokenLedger = tokenLedger
	// Load marketplace ledger
	marketLedger, err := marketplace.NewLedger(marketplace.LedgerConfig{
		Owner:        ledger.Address(n.config.owner),
		FeeBps:       n.config.marketFee,
		EventBus:     n.eventBus,
		Logger:       n.config.logger,
		PromRegistry: n.config.promRegistry,
		Store:        n.db,
	})
	if err != nil {
		return fmt.Errorf("failed to load marketplace ledger: %w", err)
	}
	n.marketLedger = marketLedger
	// Record that both stores were opened together
	if err := n.db.SetCommitTimestamp(time.Now().Unix()); err != nil {
		return fmt.Errorf("failed to set commit timestamp: %w", err)
	}
	// Start API listener
	if n.config.apiListenAddress != "" {
		n.api = api.New(
			api.ApiConfig{
				ListenAddress: n.config.apiListenAddress,
			},
			n,
			n.config.logger,
		)
		apiCtx, apiCancel := context.WithCancel(context.Background())
		n.apiCancel = apiCancel
		if err := n.api.Start(apiCtx); err != nil {
			apiCancel()
			return err
		}
	}

	// Wait for shutdown signal
	<-n.done
	return nil
}

// subscribeEventLog appends every published ledger event to the durable
// event log
func (n *Node) subscribeEventLog() {
	eventTypes := []event.EventType{
		token.BurnEventType,
		token.StakeEventType,
		token.UnstakeEventType,
		marketplace.NFTListedEventType,
		marketplace.NFTPurchasedEventType,
		marketplace.AuctionStartedEventType,
		marketplace.NewBidEventType,
		marketplace.AuctionEndedEventType,
	}
	for _, eventType := range eventTypes {
		n.eventBus.SubscribeFunc(eventType, n.handleLedgerEvent)
	}
}

func (n *Node) handleLedgerEvent(evt event.Event) {
	if err := n.db.AppendEvent(
		string(evt.Type),
		evt.Timestamp,
		evt.Data,
	); err != nil {
		n.config.logger.Error(
			"failed to append event to log",
			"component", "node",
			"type", string(evt.Type),
			"error", err,
		)
	}
}

func (n *Node) Stop() error {
	var err error
	n.shutdownOnce.Do(func() {
		err = n.shutdown()
	})
	return err
}

func (n *Node) shutdown() error {
	// Create shutdown context with timeout (default 30s if not configured)
	shutdownTimeout := 30 * time.Second
	if n.config.shutdownTimeout > 0 {
		shutdownTimeout = n.config.shutdownTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var err error

	n.config.logger.Debug("starting graceful shutdown")

	// Phase 1: Stop accepting new work
	n.config.logger.Debug("shutdown phase 1: stopping new work")

	if n.api != nil {
		if stopErr := n.api.Stop(ctx); stopErr != nil {
			err = errors.Join(err, fmt.Errorf("api shutdown: %w", stopErr))
		}
	}
	if n.apiCancel != nil {
		n.apiCancel()
	}

	// Phase 2: Stop event delivery so the event log sees no new entries
	n.config.logger.Debug("shutdown phase 2: stopping event delivery")

	if n.eventBus != nil {
		n.eventBus.Stop()
	}

	// Phase 3: Flush state and close database
	n.config.logger.Debug("shutdown phase 3: flushing state")

	if n.db != nil {
		if setErr := n.db.SetCommitTimestamp(time.Now().Unix()); setErr != nil {
			err = errors.Join(
				err,
				fmt.Errorf("commit timestamp update: %w", setErr),
			)
		}
		if closeErr := n.db.Close(); closeErr != nil {
			err = errors.Join(
				err,
				fmt.Errorf("database close: %w", closeErr),
			)
		}
	}

	// Phase 4: Cleanup resources
	n.config.logger.Debug("shutdown phase 4: cleanup resources")

	// Call registered shutdown functions
	for _, fn := range n.shutdownFuncs {
		if fnErr := fn(ctx); fnErr != nil {
			err = errors.Join(err, fmt.Errorf("shutdown function: %w", fnErr))
		}
	}
	n.shutdownFuncs = nil

	n.config.logger.Debug("graceful shutdown complete")
	close(n.done)
	return err
}
