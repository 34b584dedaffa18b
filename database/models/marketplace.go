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

type MarketAsset struct {
	ID      uint   `gorm:"primarykey"`
	AssetID uint64 `gorm:"uniqueIndex"`
	Owner   string `gorm:"index"`
	URI     string
	Royalty uint64
}

func (MarketAsset) TableName() string {
	return "market_asset"
}

type MarketListing struct {
	ID      uint   `gorm:"primarykey"`
	AssetID uint64 `gorm:"uniqueIndex"`
	Seller  string `gorm:"index"`
	Price   string
}

func (MarketListing) TableName() string {
	return "market_listing"
}

type MarketAuction struct {
	ID            uint   `gorm:"primarykey"`
	AssetID       uint64 `gorm:"uniqueIndex"`
	Seller        string `gorm:"index"`
	StartPrice    string
	EndTime       uint64
	HighestBid    string
	HighestBidder string
	Active        bool
}

func (MarketAuction) TableName() string {
	return "market_auction"
}

// MarketEscrow tracks the amount currently held for an address's open bids.
type MarketEscrow struct {
	ID      uint   `gorm:"primarykey"`
	Address string `gorm:"uniqueIndex"`
	Amount  string
}

func (MarketEscrow) TableName() string {
	return "market_escrow"
}

// MarketPayout tracks the cumulative amount paid out to an address.
type MarketPayout struct {
	ID      uint   `gorm:"primarykey"`
	Address string `gorm:"uniqueIndex"`
	Amount  string
}

func (MarketPayout) TableName() string {
	return "market_payout"
}

// MarketParams is a single-row table holding the marketplace configuration
// and counters.
type MarketParams struct {
	ID          uint `gorm:"primarykey"`
	Owner       string
	FeeBps      uint64
	NextAssetID uint64
	AccruedFees string
}

func (MarketParams) TableName() string {
	return "market_params"
}
