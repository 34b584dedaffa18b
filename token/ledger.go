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

// Package token implements the fungible token ledger: a balance ledger with a
// per-transfer burn and a staking sub-ledger that accrues time-proportional
// rewards. Each public operation executes atomically under the ledger mutex
// and either fully applies or leaves all state unchanged.
package token

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/blinklabs-io/souk/event"
	"github.com/blinklabs-io/souk/ledger"
	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
)

// StakePosition records a single active stake. An account has at most one
// position; it is created by Stake and fully consumed by Unstake.
type StakePosition struct {
	Amount   *uint256.Int
	StakedAt uint64
}

// Params holds the ledger-wide mutable configuration and supply counters.
type Params struct {
	Owner       ledger.Address
	BurnRate    uint64
	RewardRate  uint64
	TotalSupply *uint256.Int
	TotalBurned *uint256.Int
}

// State is a full snapshot of the ledger, used for persistence.
type State struct {
	Params   Params
	Balances map[ledger.Address]*uint256.Int
	Stakes   map[ledger.Address]StakePosition
}

// Store is the persistence interface for the token ledger. Writes happen
// inside the operation's critical section; the in-memory state remains
// authoritative and a failed write is surfaced via the logger only.
type Store interface {
	SaveTokenAccount(addr ledger.Address, balance *uint256.Int) error
	SaveTokenStake(addr ledger.Address, pos StakePosition) error
	DeleteTokenStake(addr ledger.Address) error
	SaveTokenParams(params Params) error
	LoadTokenState() (*State, error)
}

type LedgerConfig struct {
	Owner         ledger.Address
	InitialHolder ledger.Address
	InitialSupply *uint256.Int
	BurnRate      uint64
	RewardRate    uint64
	EventBus      *event.EventBus
	Logger        *slog.Logger
	PromRegistry  prometheus.Registerer
	Store         Store
}

type Ledger struct {
	config      LedgerConfig
	metrics     ledgerMetrics
	logger      *slog.Logger
	eventBus    *event.EventBus
	store       Store
	owner       ledger.Address
	burnRate    uint64
	rewardRate  uint64
	totalSupply *uint256.Int
	totalBurned *uint256.Int
	balances    map[ledger.Address]*uint256.Int
	stakes      map[ledger.Address]StakePosition
	sync.Mutex
}

// NewLedger creates a token ledger. When a Store is configured and holds a
// previously persisted state, that state is restored; otherwise the initial
// supply is minted to the configured holder. Minting only happens here: the
// supply is fixed afterwards except for staking rewards.
func NewLedger(config LedgerConfig) (*Ledger, error) {
	if config.Owner == ledger.ZeroAddress {
		return nil, fmt.Errorf("token ledger requires an owner address")
	}
	if config.BurnRate > ledger.MaxRateBps {
		return nil, &ledger.RateTooHighError{Rate: config.BurnRate}
	}
	if config.RewardRate > ledger.MaxRateBps {
		return nil, &ledger.RateTooHighError{Rate: config.RewardRate}
	}
	l := &Ledger{
		config:      config,
		eventBus:    config.EventBus,
		store:       config.Store,
		owner:       config.Owner,
		burnRate:    config.BurnRate,
		rewardRate:  config.RewardRate,
		totalSupply: uint256.NewInt(0),
		totalBurned: uint256.NewInt(0),
		balances:    make(map[ledger.Address]*uint256.Int),
		stakes:      make(map[ledger.Address]StakePosition),
	}
	if config.Logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		l.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	} else {
		l.logger = config.Logger
	}
	l.metrics.init(config.PromRegistry)
	if l.store != nil {
		state, err := l.store.LoadTokenState()
		if err != nil {
			return nil, fmt.Errorf("failed to load token state: %w", err)
		}
		if state != nil {
			l.restore(state)
			return l, nil
		}
	}
	// Genesis mint
	if config.InitialSupply != nil && !config.InitialSupply.IsZero() {
		holder := config.InitialHolder
		if holder == ledger.ZeroAddress {
			holder = config.Owner
		}
		l.balances[holder] = config.InitialSupply.Clone()
		l.totalSupply = config.InitialSupply.Clone()
		l.metrics.accounts.Set(float64(len(l.balances)))
		l.persistAccount(holder)
		l.persistParams()
		l.logger.Info(
			"minted initial supply",
			"component", "token",
			"holder", string(holder),
			"amount", config.InitialSupply.Dec(),
		)
	}
	return l, nil
}

func (l *Ledger) restore(state *State) {
	l.owner = state.Params.Owner
	l.burnRate = state.Params.BurnRate
	l.rewardRate = state.Params.RewardRate
	l.totalSupply = state.Params.TotalSupply.Clone()
	l.totalBurned = state.Params.TotalBurned.Clone()
	for addr, balance := range state.Balances {
		l.balances[addr] = balance.Clone()
	}
	for addr, pos := range state.Stakes {
		l.stakes[addr] = StakePosition{
			Amount:   pos.Amount.Clone(),
			StakedAt: pos.StakedAt,
		}
	}
	l.metrics.accounts.Set(float64(len(l.balances)))
	l.metrics.activeStakes.Set(float64(len(l.stakes)))
	l.logger.Info(
		"restored token ledger state",
		"component", "token",
		"accounts", len(l.balances),
		"stakes", len(l.stakes),
	)
}

// Transfer moves amount from the caller to the recipient. A burn share of
// floor(amount * burnRate / 10000) is destroyed, so the recipient is credited
// strictly less than the nominal amount whenever the burn rate is non-zero.
func (l *Ledger) Transfer(
	txCtx ledger.TxContext,
	to ledger.Address,
	amount *uint256.Int,
) error {
	l.Lock()
	defer l.Unlock()
	if amount == nil {
		return &InvalidAmountError{Operation: "transfer"}
	}
	balance := l.balanceFor(txCtx.Caller)
	if balance.Lt(amount) {
		return &InsufficientBalanceError{
			Address: txCtx.Caller,
			Have:    balance.Clone(),
			Need:    amount.Clone(),
		}
	}
	burnAmount, err := ledger.BpsShare(amount, l.burnRate)
	if err != nil {
		return err
	}
	credit := new(uint256.Int).Sub(amount, burnAmount)
	newSender := new(uint256.Int).Sub(balance, amount)
	// Credit against the post-debit balance so a self-transfer nets out to
	// just the burn
	recipientBase := l.balanceFor(to)
	if to == txCtx.Caller {
		recipientBase = newSender
	}
	newRecipient, err := ledger.SafeAdd(recipientBase, credit)
	if err != nil {
		return err
	}
	// All checks passed, commit
	l.balances[txCtx.Caller] = newSender
	l.balances[to] = newRecipient
	if !burnAmount.IsZero() {
		l.totalSupply.Sub(l.totalSupply, burnAmount)
		l.totalBurned.Add(l.totalBurned, burnAmount)
		l.metrics.burnsTotal.Inc()
	}
	l.metrics.transfersTotal.Inc()
	l.metrics.accounts.Set(float64(len(l.balances)))
	l.persistAccount(txCtx.Caller)
	l.persistAccount(to)
	l.persistParams()
	l.logger.Debug(
		"transfer",
		"component", "token",
		"from", string(txCtx.Caller),
		"to", string(to),
		"amount", amount.Dec(),
		"burned", burnAmount.Dec(),
	)
	if !burnAmount.IsZero() {
		l.publish(BurnEventType, BurnEvent{
			From:   txCtx.Caller,
			Amount: burnAmount.Clone(),
		})
	}
	return nil
}

// Stake debits amount from the caller's balance and records a stake position
// at the supplied timestamp. The staked tokens leave the circulating supply;
// they are not held in an escrow pool. A second stake while a position is
// active is rejected with ExistingStakeError.
func (l *Ledger) Stake(txCtx ledger.TxContext, amount *uint256.Int) error {
	l.Lock()
	defer l.Unlock()
	if amount == nil || amount.IsZero() {
		return &InvalidAmountError{Operation: "stake"}
	}
	if pos, ok := l.stakes[txCtx.Caller]; ok {
		return &ExistingStakeError{
			Address:  txCtx.Caller,
			StakedAt: pos.StakedAt,
		}
	}
	balance := l.balanceFor(txCtx.Caller)
	if balance.Lt(amount) {
		return &InsufficientBalanceError{
			Address: txCtx.Caller,
			Have:    balance.Clone(),
			Need:    amount.Clone(),
		}
	}
	l.balances[txCtx.Caller] = new(uint256.Int).Sub(balance, amount)
	l.totalSupply.Sub(l.totalSupply, amount)
	l.stakes[txCtx.Caller] = StakePosition{
		Amount:   amount.Clone(),
		StakedAt: txCtx.Timestamp,
	}
	l.metrics.stakesTotal.Inc()
	l.metrics.activeStakes.Set(float64(len(l.stakes)))
	l.persistAccount(txCtx.Caller)
	l.persistStake(txCtx.Caller)
	l.persistParams()
	l.logger.Debug(
		"stake",
		"component", "token",
		"staker", string(txCtx.Caller),
		"amount", amount.Dec(),
	)
	l.publish(StakeEventType, StakeEvent{
		Staker: txCtx.Caller,
		Amount: amount.Clone(),
	})
	return nil
}

// Unstake consumes the caller's stake position, minting the principal plus a
// reward of floor(amount * rewardRate * duration / (10000 * secondsPerYear))
// back into the caller's balance. Both principal and reward are newly minted,
// so the total supply grows beyond the amount removed at stake time. Returns
// the principal and reward amounts.
func (l *Ledger) Unstake(
	txCtx ledger.TxContext,
) (*uint256.Int, *uint256.Int, error) {
	l.Lock()
	defer l.Unlock()
	pos, ok := l.stakes[txCtx.Caller]
	if !ok {
		return nil, nil, &NoActiveStakeError{Address: txCtx.Caller}
	}
	var duration uint64
	if txCtx.Timestamp > pos.StakedAt {
		duration = txCtx.Timestamp - pos.StakedAt
	}
	reward, err := ledger.StakeReward(pos.Amount, l.rewardRate, duration)
	if err != nil {
		return nil, nil, err
	}
	returned, err := ledger.SafeAdd(pos.Amount, reward)
	if err != nil {
		return nil, nil, err
	}
	newBalance, err := ledger.SafeAdd(l.balanceFor(txCtx.Caller), returned)
	if err != nil {
		return nil, nil, err
	}
	newSupply, err := ledger.SafeAdd(l.totalSupply, returned)
	if err != nil {
		return nil, nil, err
	}
	// All checks passed, commit
	delete(l.stakes, txCtx.Caller)
	l.balances[txCtx.Caller] = newBalance
	l.totalSupply = newSupply
	l.metrics.unstakesTotal.Inc()
	l.metrics.activeStakes.Set(float64(len(l.stakes)))
	l.metrics.accounts.Set(float64(len(l.balances)))
	l.persistAccount(txCtx.Caller)
	l.persistStakeDelete(txCtx.Caller)
	l.persistParams()
	l.logger.Debug(
		"unstake",
		"component", "token",
		"staker", string(txCtx.Caller),
		"principal", pos.Amount.Dec(),
		"reward", reward.Dec(),
	)
	l.publish(UnstakeEventType, UnstakeEvent{
		Staker:  txCtx.Caller,
		Amount:  pos.Amount.Clone(),
		Rewards: reward.Clone(),
	})
	return pos.Amount.Clone(), reward, nil
}

// SetBurnRate updates the per-transfer burn rate. Owner only.
func (l *Ledger) SetBurnRate(txCtx ledger.TxContext, rate uint64) error {
	l.Lock()
	defer l.Unlock()
	if txCtx.Caller != l.owner {
		return &ledger.UnauthorizedError{
			Caller:    txCtx.Caller,
			Operation: "setBurnRate",
		}
	}
	if rate > ledger.MaxRateBps {
		return &ledger.RateTooHighError{Rate: rate}
	}
	l.burnRate = rate
	l.persistParams()
	return nil
}

// SetRewardRate updates the staking reward rate. Owner only.
func (l *Ledger) SetRewardRate(txCtx ledger.TxContext, rate uint64) error {
	l.Lock()
	defer l.Unlock()
	if txCtx.Caller != l.owner {
		return &ledger.UnauthorizedError{
			Caller:    txCtx.Caller,
			Operation: "setRewardRate",
		}
	}
	if rate > ledger.MaxRateBps {
		return &ledger.RateTooHighError{Rate: rate}
	}
	l.rewardRate = rate
	l.persistParams()
	return nil
}

// BalanceOf returns the balance for an address. Accounts are created
// implicitly on first credit, so unknown addresses report zero.
func (l *Ledger) BalanceOf(addr ledger.Address) *uint256.Int {
	l.Lock()
	defer l.Unlock()
	return l.balanceFor(addr).Clone()
}

// StakeOf returns the active stake position for an address, if any.
func (l *Ledger) StakeOf(addr ledger.Address) (StakePosition, bool) {
	l.Lock()
	defer l.Unlock()
	pos, ok := l.stakes[addr]
	if !ok {
		return StakePosition{}, false
	}
	return StakePosition{
		Amount:   pos.Amount.Clone(),
		StakedAt: pos.StakedAt,
	}, true
}

// TotalSupply returns the current circulating supply. Staked tokens are not
// part of the circulating supply.
func (l *Ledger) TotalSupply() *uint256.Int {
	l.Lock()
	defer l.Unlock()
	return l.totalSupply.Clone()
}

// TotalBurned returns the cumulative amount destroyed by transfer burns.
func (l *Ledger) TotalBurned() *uint256.Int {
	l.Lock()
	defer l.Unlock()
	return l.totalBurned.Clone()
}

// BurnRate returns the current burn rate in basis points.
func (l *Ledger) BurnRate() uint64 {
	l.Lock()
	defer l.Unlock()
	return l.burnRate
}

// RewardRate returns the current staking reward rate in basis points.
func (l *Ledger) RewardRate() uint64 {
	l.Lock()
	defer l.Unlock()
	return l.rewardRate
}

// Owner returns the ledger owner address.
func (l *Ledger) Owner() ledger.Address {
	return l.owner
}

func (l *Ledger) balanceFor(addr ledger.Address) *uint256.Int {
	if balance, ok := l.balances[addr]; ok {
		return balance
	}
	return uint256.NewInt(0)
}

func (l *Ledger) publish(eventType event.EventType, data any) {
	if l.eventBus == nil {
		return
	}
	l.eventBus.Publish(eventType, event.NewEvent(eventType, data))
}

func (l *Ledger) persistAccount(addr ledger.Address) {
	if l.store == nil {
		return
	}
	if err := l.store.SaveTokenAccount(addr, l.balanceFor(addr)); err != nil {
		l.logger.Error(
			"failed to persist token account",
			"component", "token",
			"address", string(addr),
			"error", err,
		)
	}
}

func (l *Ledger) persistStake(addr ledger.Address) {
	if l.store == nil {
		return
	}
	if err := l.store.SaveTokenStake(addr, l.stakes[addr]); err != nil {
		l.logger.Error(
			"failed to persist stake position",
			"component", "token",
			"address", string(addr),
			"error", err,
		)
	}
}

func (l *Ledger) persistStakeDelete(addr ledger.Address) {
	if l.store == nil {
		return
	}
	if err := l.store.DeleteTokenStake(addr); err != nil {
		l.logger.Error(
			"failed to delete persisted stake position",
			"component", "token",
			"address", string(addr),
			"error", err,
		)
	}
}

func (l *Ledger) persistParams() {
	if l.store == nil {
		return
	}
	params := Params{
		Owner:       l.owner,
		BurnRate:    l.burnRate,
		RewardRate:  l.rewardRate,
		TotalSupply: l.totalSupply.Clone(),
		TotalBurned: l.totalBurned.Clone(),
	}
	if err := l.store.SaveTokenParams(params); err != nil {
		l.logger.Error(
			"failed to persist token params",
			"component", "token",
			"error", err,
		)
	}
}
