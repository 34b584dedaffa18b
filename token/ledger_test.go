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

package token_test

import (
	"testing"
	"time"

	"github.com/blinklabs-io/souk/event"
	"github.com/blinklabs-io/souk/ledger"
	"github.com/blinklabs-io/souk/token"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

const (
	testOwner ledger.Address = "owner"
	testAlice ledger.Address = "alice"
	testBob   ledger.Address = "bob"
)

func testLedger(t *testing.T, config token.LedgerConfig) *token.Ledger {
	t.Helper()
	if config.Owner == ledger.ZeroAddress {
		config.Owner = testOwner
	}
	if config.InitialSupply == nil {
		config.InitialSupply = uint256.NewInt(1_000_000)
	}
	l, err := token.NewLedger(config)
	require.NoError(t, err)
	return l
}

func txAt(caller ledger.Address, timestamp uint64) ledger.TxContext {
	return ledger.TxContext{Caller: caller, Timestamp: timestamp}
}

func TestNewLedgerGenesisMint(t *testing.T) {
	l := testLedger(t, token.LedgerConfig{
		InitialHolder: testAlice,
		InitialSupply: uint256.NewInt(5000),
	})
	require.True(t, l.BalanceOf(testAlice).Eq(uint256.NewInt(5000)))
	require.True(t, l.TotalSupply().Eq(uint256.NewInt(5000)))
	require.True(t, l.BalanceOf(testOwner).IsZero())
}

func TestNewLedgerDefaultsHolderToOwner(t *testing.T) {
	l := testLedger(t, token.LedgerConfig{
		InitialSupply: uint256.NewInt(5000),
	})
	require.True(t, l.BalanceOf(testOwner).Eq(uint256.NewInt(5000)))
}

func TestNewLedgerRequiresOwner(t *testing.T) {
	_, err := token.NewLedger(token.LedgerConfig{})
	require.Error(t, err)
}

func TestNewLedgerRejectsExcessiveRates(t *testing.T) {
	var rateErr *ledger.RateTooHighError
	_, err := token.NewLedger(token.LedgerConfig{
		Owner:    testOwner,
		BurnRate: ledger.MaxRateBps + 1,
	})
	require.ErrorAs(t, err, &rateErr)
	_, err = token.NewLedger(token.LedgerConfig{
		Owner:      testOwner,
		RewardRate: ledger.MaxRateBps + 1,
	})
	require.ErrorAs(t, err, &rateErr)
}

func TestTransfer(t *testing.T) {
	l := testLedger(t, token.LedgerConfig{
		InitialHolder: testAlice,
	})
	err := l.Transfer(txAt(testAlice, 100), testBob, uint256.NewInt(1000))
	require.NoError(t, err)
	require.True(t, l.BalanceOf(testAlice).Eq(uint256.NewInt(999_000)))
	require.True(t, l.BalanceOf(testBob).Eq(uint256.NewInt(1000)))
	require.True(t, l.TotalBurned().IsZero())
}

func TestTransferBurn(t *testing.T) {
	// 2% burn: sender debited 1000, recipient credited 980, 20 destroyed
	l := testLedger(t, token.LedgerConfig{
		InitialHolder: testAlice,
		BurnRate:      200,
	})
	err := l.Transfer(txAt(testAlice, 100), testBob, uint256.NewInt(1000))
	require.NoError(t, err)
	require.True(t, l.BalanceOf(testAlice).Eq(uint256.NewInt(999_000)))
	require.True(t, l.BalanceOf(testBob).Eq(uint256.NewInt(980)))
	require.True(t, l.TotalBurned().Eq(uint256.NewInt(20)))
	require.True(t, l.TotalSupply().Eq(uint256.NewInt(999_980)))
}

func TestTransferBurnEvent(t *testing.T) {
	eb := event.NewEventBus(nil, nil)
	defer eb.Stop()
	_, evtCh := eb.Subscribe(token.BurnEventType)
	l := testLedger(t, token.LedgerConfig{
		InitialHolder: testAlice,
		BurnRate:      200,
		EventBus:      eb,
	})
	err := l.Transfer(txAt(testAlice, 100), testBob, uint256.NewInt(1000))
	require.NoError(t, err)
	select {
	case evt := <-evtCh:
		burnEvt, ok := evt.Data.(token.BurnEvent)
		require.True(t, ok, "unexpected event payload type %T", evt.Data)
		require.Equal(t, testAlice, burnEvt.From)
		require.True(t, burnEvt.Amount.Eq(uint256.NewInt(20)))
	case <-time.After(1 * time.Second):
		t.Fatalf("timeout waiting for burn event")
	}
}

func TestTransferInsufficientBalance(t *testing.T) {
	l := testLedger(t, token.LedgerConfig{
		InitialHolder: testAlice,
	})
	var balErr *token.InsufficientBalanceError
	err := l.Transfer(txAt(testBob, 100), testAlice, uint256.NewInt(1))
	require.ErrorAs(t, err, &balErr)
	// Failed transfer leaves all balances untouched
	require.True(t, l.BalanceOf(testAlice).Eq(uint256.NewInt(1_000_000)))
	require.True(t, l.BalanceOf(testBob).IsZero())
}

func TestTransferZeroAmount(t *testing.T) {
	l := testLedger(t, token.LedgerConfig{
		InitialHolder: testAlice,
		BurnRate:      200,
	})
	// A zero-amount transfer is a no-op, not an error
	err := l.Transfer(txAt(testAlice, 100), testBob, uint256.NewInt(0))
	require.NoError(t, err)
	require.True(t, l.BalanceOf(testBob).IsZero())
}

func TestTransferToSelf(t *testing.T) {
	l := testLedger(t, token.LedgerConfig{
		InitialHolder: testAlice,
		BurnRate:      200,
	})
	err := l.Transfer(txAt(testAlice, 100), testAlice, uint256.NewInt(1000))
	require.NoError(t, err)
	// Only the burn share leaves the account
	require.True(t, l.BalanceOf(testAlice).Eq(uint256.NewInt(999_980)))
	require.True(t, l.TotalBurned().Eq(uint256.NewInt(20)))
}

func TestConservationAcrossOperations(t *testing.T) {
	// 100,000,000 tokens at 18 decimals, well past uint64 range
	initialSupply := uint256.MustFromDecimal("100000000000000000000000000")
	l := testLedger(t, token.LedgerConfig{
		InitialHolder: testAlice,
		InitialSupply: initialSupply,
		BurnRate:      200,
		RewardRate:    500,
	})
	addrs := []ledger.Address{testOwner, testAlice, testBob}
	minted := initialSupply.Clone()
	// Balances plus active stakes plus burned must always equal everything
	// minted so far
	checkConservation := func() {
		t.Helper()
		held := uint256.NewInt(0)
		for _, addr := range addrs {
			held.Add(held, l.BalanceOf(addr))
		}
		require.True(t, l.TotalSupply().Eq(held))
		for _, addr := range addrs {
			if pos, ok := l.StakeOf(addr); ok {
				held.Add(held, pos.Amount)
			}
		}
		held.Add(held, l.TotalBurned())
		require.True(t, held.Eq(minted))
	}
	checkConservation()

	// 1,000,000 tokens
	chunk := uint256.MustFromDecimal("1000000000000000000000000")
	require.NoError(t, l.Transfer(txAt(testAlice, 100), testBob, chunk))
	checkConservation()
	// Self-transfer only destroys the burn share
	require.NoError(t, l.Transfer(txAt(testAlice, 110), testAlice, chunk))
	checkConservation()
	require.NoError(
		t,
		l.Transfer(txAt(testBob, 120), testOwner, uint256.NewInt(12345)),
	)
	checkConservation()

	stakeAmount := uint256.MustFromDecimal("500000000000000000000000")
	stakedAt := uint64(1_000_000)
	require.NoError(t, l.Stake(txAt(testBob, stakedAt), stakeAmount))
	checkConservation()

	_, reward, err := l.Unstake(
		txAt(testBob, stakedAt+ledger.SecondsPerYear/2),
	)
	require.NoError(t, err)
	// 5% annual rate for half a year on the staked amount
	require.True(
		t,
		reward.Eq(uint256.MustFromDecimal("12500000000000000000000")),
	)
	// Rewards are newly minted
	minted.Add(minted, reward)
	checkConservation()
}

func TestStakeAndUnstake(t *testing.T) {
	// 5% reward for a full year on 100000 staked
	l := testLedger(t, token.LedgerConfig{
		InitialHolder: testAlice,
		RewardRate:    500,
	})
	stakedAt := uint64(1_000_000)
	err := l.Stake(txAt(testAlice, stakedAt), uint256.NewInt(100_000))
	require.NoError(t, err)
	require.True(t, l.BalanceOf(testAlice).Eq(uint256.NewInt(900_000)))
	// Staked tokens leave the circulating supply
	require.True(t, l.TotalSupply().Eq(uint256.NewInt(900_000)))
	pos, ok := l.StakeOf(testAlice)
	require.True(t, ok)
	require.Equal(t, stakedAt, pos.StakedAt)
	require.True(t, pos.Amount.Eq(uint256.NewInt(100_000)))

	principal, reward, err := l.Unstake(
		txAt(testAlice, stakedAt+ledger.SecondsPerYear),
	)
	require.NoError(t, err)
	require.True(t, principal.Eq(uint256.NewInt(100_000)))
	require.True(t, reward.Eq(uint256.NewInt(5000)))
	require.True(t, l.BalanceOf(testAlice).Eq(uint256.NewInt(1_005_000)))
	require.True(t, l.TotalSupply().Eq(uint256.NewInt(1_005_000)))
	_, ok = l.StakeOf(testAlice)
	require.False(t, ok)
}

func TestStakeZeroAmount(t *testing.T) {
	l := testLedger(t, token.LedgerConfig{
		InitialHolder: testAlice,
	})
	var amtErr *token.InvalidAmountError
	err := l.Stake(txAt(testAlice, 100), uint256.NewInt(0))
	require.ErrorAs(t, err, &amtErr)
}

func TestStakeInsufficientBalance(t *testing.T) {
	l := testLedger(t, token.LedgerConfig{
		InitialHolder: testAlice,
	})
	var balErr *token.InsufficientBalanceError
	err := l.Stake(txAt(testBob, 100), uint256.NewInt(1))
	require.ErrorAs(t, err, &balErr)
}

func TestSecondStakeRejected(t *testing.T) {
	l := testLedger(t, token.LedgerConfig{
		InitialHolder: testAlice,
	})
	err := l.Stake(txAt(testAlice, 100), uint256.NewInt(1000))
	require.NoError(t, err)
	var stakeErr *token.ExistingStakeError
	err = l.Stake(txAt(testAlice, 200), uint256.NewInt(1000))
	require.ErrorAs(t, err, &stakeErr)
	require.Equal(t, uint64(100), stakeErr.StakedAt)
	// The original position is untouched
	pos, ok := l.StakeOf(testAlice)
	require.True(t, ok)
	require.Equal(t, uint64(100), pos.StakedAt)
	require.True(t, l.BalanceOf(testAlice).Eq(uint256.NewInt(999_000)))
}

func TestUnstakeWithoutStake(t *testing.T) {
	l := testLedger(t, token.LedgerConfig{
		InitialHolder: testAlice,
	})
	var stakeErr *token.NoActiveStakeError
	_, _, err := l.Unstake(txAt(testAlice, 100))
	require.ErrorAs(t, err, &stakeErr)
}

func TestUnstakeBeforeStakeTimestamp(t *testing.T) {
	// A clock that moves backwards yields zero duration, not an underflow
	l := testLedger(t, token.LedgerConfig{
		InitialHolder: testAlice,
		RewardRate:    500,
	})
	err := l.Stake(txAt(testAlice, 1000), uint256.NewInt(100_000))
	require.NoError(t, err)
	principal, reward, err := l.Unstake(txAt(testAlice, 500))
	require.NoError(t, err)
	require.True(t, principal.Eq(uint256.NewInt(100_000)))
	require.True(t, reward.IsZero())
}

func TestUnstakeRewardUsesCurrentRate(t *testing.T) {
	// The reward rate at unstake time applies to the full duration
	l := testLedger(t, token.LedgerConfig{
		InitialHolder: testAlice,
		RewardRate:    100,
	})
	stakedAt := uint64(1_000_000)
	err := l.Stake(txAt(testAlice, stakedAt), uint256.NewInt(100_000))
	require.NoError(t, err)
	err = l.SetRewardRate(txAt(testOwner, 0), 500)
	require.NoError(t, err)
	_, reward, err := l.Unstake(txAt(testAlice, stakedAt+ledger.SecondsPerYear))
	require.NoError(t, err)
	require.True(t, reward.Eq(uint256.NewInt(5000)))
}

func TestSetBurnRate(t *testing.T) {
	l := testLedger(t, token.LedgerConfig{})
	err := l.SetBurnRate(txAt(testOwner, 0), 300)
	require.NoError(t, err)
	require.Equal(t, uint64(300), l.BurnRate())

	var authErr *ledger.UnauthorizedError
	err = l.SetBurnRate(txAt(testAlice, 0), 100)
	require.ErrorAs(t, err, &authErr)

	var rateErr *ledger.RateTooHighError
	err = l.SetBurnRate(txAt(testOwner, 0), ledger.MaxRateBps+1)
	require.ErrorAs(t, err, &rateErr)
	require.Equal(t, uint64(300), l.BurnRate())
}

func TestSetRewardRate(t *testing.T) {
	l := testLedger(t, token.LedgerConfig{})
	err := l.SetRewardRate(txAt(testOwner, 0), ledger.MaxRateBps)
	require.NoError(t, err)
	require.Equal(t, uint64(ledger.MaxRateBps), l.RewardRate())

	var authErr *ledger.UnauthorizedError
	err = l.SetRewardRate(txAt(testAlice, 0), 100)
	require.ErrorAs(t, err, &authErr)
}

func TestStakeUnstakeEvents(t *testing.T) {
	eb := event.NewEventBus(nil, nil)
	defer eb.Stop()
	_, stakeCh := eb.Subscribe(token.StakeEventType)
	_, unstakeCh := eb.Subscribe(token.UnstakeEventType)
	l := testLedger(t, token.LedgerConfig{
		InitialHolder: testAlice,
		RewardRate:    500,
		EventBus:      eb,
	})
	err := l.Stake(txAt(testAlice, 0), uint256.NewInt(100_000))
	require.NoError(t, err)
	select {
	case evt := <-stakeCh:
		stakeEvt, ok := evt.Data.(token.StakeEvent)
		require.True(t, ok, "unexpected event payload type %T", evt.Data)
		require.Equal(t, testAlice, stakeEvt.Staker)
		require.True(t, stakeEvt.Amount.Eq(uint256.NewInt(100_000)))
	case <-time.After(1 * time.Second):
		t.Fatalf("timeout waiting for stake event")
	}
	_, _, err = l.Unstake(txAt(testAlice, ledger.SecondsPerYear))
	require.NoError(t, err)
	select {
	case evt := <-unstakeCh:
		unstakeEvt, ok := evt.Data.(token.UnstakeEvent)
		require.True(t, ok, "unexpected event payload type %T", evt.Data)
		require.Equal(t, testAlice, unstakeEvt.Staker)
		require.True(t, unstakeEvt.Amount.Eq(uint256.NewInt(100_000)))
		require.True(t, unstakeEvt.Rewards.Eq(uint256.NewInt(5000)))
	case <-time.After(1 * time.Second):
		t.Fatalf("timeout waiting for unstake event")
	}
}
