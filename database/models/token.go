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

package models

// Amounts are stored as decimal strings since 256-bit values do not fit any
// native SQL integer type.

type TokenAccount struct {
	ID      uint   `gorm:"primarykey"`
	Address string `gorm:"uniqueIndex"`
	Balance string
}

func (TokenAccount) TableName() string {
	return "token_account"
}

type TokenStake struct {
	ID       uint   `gorm:"primarykey"`
	Address  string `gorm:"uniqueIndex"`
	Amount   string
	StakedAt uint64
}

func (TokenStake) TableName() string {
	return "token_stake"
}

// TokenParams is a single-row table holding the token ledger configuration
// and supply counters.
type TokenParams struct {
	ID          uint `gorm:"primarykey"`
	Owner       string
	BurnRate    uint64
	RewardRate  uint64
	TotalSupply string
	TotalBurned string
}

func (TokenParams) TableName() string {
	return "token_params"
}
