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
	"github.com/blinklabs-io/souk/event"
	"github.com/blinklabs-io/souk/ledger"
	"github.com/holiman/uint256"
)

const (
	BurnEventType    event.EventType = "token.burn"
	StakeEventType   event.EventType = "token.stake"
	UnstakeEventType event.EventType = "token.unstake"
)

// BurnEvent is emitted when a transfer destroys tokens via the burn rate.
type BurnEvent struct {
	From   ledger.Address
	Amount *uint256.Int
}

// StakeEvent is emitted when an account stakes tokens.
type StakeEvent struct {
	Staker ledger.Address
	Amount *uint256.Int
}

// UnstakeEvent is emitted when a stake position is consumed. Amount is the
// original principal and Rewards the newly minted reward on top of it.
type UnstakeEvent struct {
	Staker  ledger.Address
	Amount  *uint256.Int
	Rewards *uint256.Int
}
