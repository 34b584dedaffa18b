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

package database

import (
	"errors"
	"fmt"

	"github.com/blinklabs-io/souk/database/models"
	"github.com/blinklabs-io/souk/ledger"
	"github.com/blinklabs-io/souk/token"
	"github.com/holiman/uint256"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// decodeAmount parses a stored decimal amount string.
func decodeAmount(s string) (*uint256.Int, error) {
	if s == "" {
		return uint256.NewInt(0), nil
	}
	amount, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, fmt.Errorf("invalid stored amount %q: %w", s, err)
	}
	return amount, nil
}

func encodeAmount(amount *uint256.Int) string {
	if amount == nil {
		return "0"
	}
	return amount.Dec()
}

// SaveTokenAccount upserts the balance row for an address.
func (d *Database) SaveTokenAccount(
	addr ledger.Address,
	balance *uint256.Int,
) error {
	row := models.TokenAccount{
		Address: string(addr),
		Balance: encodeAmount(balance),
	}
	result := d.metadata.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "address"}},
		DoUpdates: clause.AssignmentColumns([]string{"balance"}),
	}).Create(&row)
	return result.Error
}

// SaveTokenStake upserts the stake position row for an address.
func (d *Database) SaveTokenStake(
	addr ledger.Address,
	pos token.StakePosition,
) error {
	row := models.TokenStake{
		Address:  string(addr),
		Amount:   encodeAmount(pos.Amount),
		StakedAt: pos.StakedAt,
	}
	result := d.metadata.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "address"}},
		DoUpdates: clause.AssignmentColumns([]string{"amount", "staked_at"}),
	}).Create(&row)
	return result.Error
}

// DeleteTokenStake removes the stake position row for an address, if any.
func (d *Database) DeleteTokenStake(addr ledger.Address) error {
	result := d.metadata.
		Where("address = ?", string(addr)).
		Delete(&models.TokenStake{})
	return result.Error
}

// SaveTokenParams upserts the single token params row.
func (d *Database) SaveTokenParams(params token.Params) error {
	row := models.TokenParams{
		ID:          1,
		Owner:       string(params.Owner),
		BurnRate:    params.BurnRate,
		RewardRate:  params.RewardRate,
		TotalSupply: encodeAmount(params.TotalSupply),
		TotalBurned: encodeAmount(params.TotalBurned),
	}
	result := d.metadata.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns(
			[]string{
				"owner",
				"burn_rate",
				"reward_rate",
				"total_supply",
				"total_burned",
			},
		),
	}).Create(&row)
	return result.Error
}

// LoadTokenState loads the full persisted token ledger state. Returns nil
// with no error when nothing has been persisted yet.
func (d *Database) LoadTokenState() (*token.State, error) {
	var paramsRow models.TokenParams
	if result := d.metadata.First(&paramsRow); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	totalSupply, err := decodeAmount(paramsRow.TotalSupply)
	if err != nil {
		return nil, err
	}
	totalBurned, err := decodeAmount(paramsRow.TotalBurned)
	if err != nil {
		return nil, err
	}
	state := &token.State{
		Params: token.Params{
			Owner:       ledger.Address(paramsRow.Owner),
			BurnRate:    paramsRow.BurnRate,
			RewardRate:  paramsRow.RewardRate,
			TotalSupply: totalSupply,
			TotalBurned: totalBurned,
		},
		Balances: make(map[ledger.Address]*uint256.Int),
		Stakes:   make(map[ledger.Address]token.StakePosition),
	}
	var accountRows []models.TokenAccount
	if result := d.metadata.Find(&accountRows); result.Error != nil {
		return nil, result.Error
	}
	for _, row := range accountRows {
		balance, err := decodeAmount(row.Balance)
		if err != nil {
			return nil, err
		}
		state.Balances[ledger.Address(row.Address)] = balance
	}
	var stakeRows []models.TokenStake
	if result := d.metadata.Find(&stakeRows); result.Error != nil {
		return nil, result.Error
	}
	for _, row := range stakeRows {
		amount, err := decodeAmount(row.Amount)
		if err != nil {
			return nil, err
		}
		state.Stakes[ledger.Address(row.Address)] = token.StakePosition{
			Amount:   amount,
			StakedAt: row.StakedAt,
		}
	}
	return state, nil
}
