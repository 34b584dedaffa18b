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

package token

import (
	"fmt"

	"github.com/blinklabs-io/souk/ledger"
	"github.com/holiman/uint256"
)

// InsufficientBalanceError is returned when an account's balance does not
// cover the requested amount.
type InsufficientBalanceError struct {
	Address ledger.Address
	Have    *uint256.Int
	Need    *uint256.Int
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf(
		"insufficient balance: %s has %s, needs %s",
		e.Address,
		e.Have.Dec(),
		e.Need.Dec(),
	)
}

// InvalidAmountError is returned when an operation is given a zero amount.
type InvalidAmountError struct {
	Operation string
}

func (e *InvalidAmountError) Error() string {
	return fmt.Sprintf("invalid amount: %s requires a non-zero amount", e.Operation)
}

// NoActiveStakeError is returned by Unstake when the caller has no stake
// position.
type NoActiveStakeError struct {
	Address ledger.Address
}

func (e *NoActiveStakeError) Error() string {
	return fmt.Sprintf("no active stake for %s", e.Address)
}

// ExistingStakeError is returned by Stake while the caller already has an
// active position. Overwriting the position would silently discard the prior
// principal, so a second stake is rejected instead.
type ExistingStakeError struct {
	Address  ledger.Address
	StakedAt uint64
}

func (e *ExistingStakeError) Error() string {
	return fmt.Sprintf(
		"existing stake for %s (staked at %d) must be unstaked first",
		e.Address,
		e.StakedAt,
	)
}
