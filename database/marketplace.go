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

	"github.com/blinklabs-io/souk/database/models"
	"github.com/blinklabs-io/souk/ledger"
	"github.com/blinklabs-io/souk/marketplace"
	"github.com/holiman/uint256"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SaveAsset upserts the row for a minted asset.
func (d *Database) SaveAsset(asset marketplace.Asset) error {
	row := models.MarketAsset{
		AssetID: asset.ID,
		Owner:   string(asset.Owner),
		URI:     asset.URI,
		Royalty: asset.Royalty,
	}
	result := d.metadata.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "asset_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"owner", "uri", "royalty"}),
	}).Create(&row)
	return result.Error
}

// SaveListing upserts the fixed-price listing row for an asset.
func (d *Database) SaveListing(
	assetID uint64,
	listing marketplace.Listing,
) error {
	row := models.MarketListing{
		AssetID: assetID,
		Seller:  string(listing.Seller),
		Price:   encodeAmount(listing.Price),
	}
	result := d.metadata.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "asset_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"seller", "price"}),
	}).Create(&row)
	return result.Error
}

// DeleteListing removes the listing row for an asset, if any.
func (d *Database) DeleteListing(assetID uint64) error {
	result := d.metadata.
		Where("asset_id = ?", assetID).
		Delete(&models.MarketListing{})
	return result.Error
}

// SaveAuction upserts the auction row for an asset.
func (d *Database) SaveAuction(
	assetID uint64,
	auction marketplace.Auction,
) error {
	row := models.MarketAuction{
		AssetID:       assetID,
		Seller:        string(auction.Seller),
		StartPrice:    encodeAmount(auction.StartPrice),
		EndTime:       auction.EndTime,
		HighestBid:    encodeAmount(auction.HighestBid),
		HighestBidder: string(auction.HighestBidder),
		Active:        auction.Active,
	}
	result := d.metadata.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "asset_id"}},
		DoUpdates: clause.AssignmentColumns(
			[]string{
				"seller",
				"start_price",
				"end_time",
				"highest_bid",
				"highest_bidder",
				"active",
			},
		),
	}).Create(&row)
	return result.Error
}

// SaveEscrow upserts the held-bid total for an address.
func (d *Database) SaveEscrow(
	addr ledger.Address,
	amount *uint256.Int,
) error {
	row := models.MarketEscrow{
		Address: string(addr),
		Amount:  encodeAmount(amount),
	}
	result := d.metadata.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "address"}},
		DoUpdates: clause.AssignmentColumns([]string{"amount"}),
	}).Create(&row)
	return result.Error
}

// SavePayout upserts the cumulative payout total for an address.
func (d *Database) SavePayout(
	addr ledger.Address,
	amount *uint256.Int,
) error {
	row := models.MarketPayout{
		Address: string(addr),
		Amount:  encodeAmount(amount),
	}
	result := d.metadata.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "address"}},
		DoUpdates: clause.AssignmentColumns([]string{"amount"}),
	}).Create(&row)
	return result.Error
}

// SaveMarketParams upserts the single marketplace params row.
func (d *Database) SaveMarketParams(params marketplace.Params) error {
	row := models.MarketParams{
		ID:          1,
		Owner:       string(params.Owner),
		FeeBps:      params.FeeBps,
		NextAssetID: params.NextAssetID,
		AccruedFees: encodeAmount(params.AccruedFees),
	}
	result := d.metadata.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns(
			[]string{"owner", "fee_bps", "next_asset_id", "accrued_fees"},
		),
	}).Create(&row)
	return result.Error
}

// LoadMarketState loads the full persisted marketplace state. Returns nil
// with no error when nothing has been persisted yet.
func (d *Database) LoadMarketState() (*marketplace.State, error) {
	var paramsRow models.MarketParams
	if result := d.metadata.First(&paramsRow); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	accruedFees, err := decodeAmount(paramsRow.AccruedFees)
	if err != nil {
		return nil, err
	}
	state := &marketplace.State{
		Params: marketplace.Params{
			Owner:       ledger.Address(paramsRow.Owner),
			FeeBps:      paramsRow.FeeBps,
			NextAssetID: paramsRow.NextAssetID,
			AccruedFees: accruedFees,
		},
		Assets:   make(map[uint64]marketplace.Asset),
		Listings: make(map[uint64]marketplace.Listing),
		Auctions: make(map[uint64]marketplace.Auction),
		Escrow:   make(map[ledger.Address]*uint256.Int),
		Payouts:  make(map[ledger.Address]*uint256.Int),
	}
	var assetRows []models.MarketAsset
	if result := d.metadata.Find(&assetRows); result.Error != nil {
		return nil, result.Error
	}
	for _, row := range assetRows {
		state.Assets[row.AssetID] = marketplace.Asset{
			ID:      row.AssetID,
			Owner:   ledger.Address(row.Owner),
			URI:     row.URI,
			Royalty: row.Royalty,
		}
	}
	var listingRows []models.MarketListing
	if result := d.metadata.Find(&listingRows); result.Error != nil {
		return nil, result.Error
	}
	for _, row := range listingRows {
		price, err := decodeAmount(row.Price)
		if err != nil {
			return nil, err
		}
		state.Listings[row.AssetID] = marketplace.Listing{
			Seller: ledger.Address(row.Seller),
			Price:  price,
		}
	}
	var auctionRows []models.MarketAuction
	if result := d.metadata.Find(&auctionRows); result.Error != nil {
		return nil, result.Error
	}
	for _, row := range auctionRows {
		startPrice, err := decodeAmount(row.StartPrice)
		if err != nil {
			return nil, err
		}
		highestBid, err := decodeAmount(row.HighestBid)
		if err != nil {
			return nil, err
		}
		state.Auctions[row.AssetID] = marketplace.Auction{
			Seller:        ledger.Address(row.Seller),
			StartPrice:    startPrice,
			EndTime:       row.EndTime,
			HighestBid:    highestBid,
			HighestBidder: ledger.Address(row.HighestBidder),
			Active:        row.Active,
		}
	}
	var escrowRows []models.MarketEscrow
	if result := d.metadata.Find(&escrowRows); result.Error != nil {
		return nil, result.Error
	}
	for _, row := range escrowRows {
		amount, err := decodeAmount(row.Amount)
		if err != nil {
			return nil, err
		}
		state.Escrow[ledger.Address(row.Address)] = amount
	}
	var payoutRows []models.MarketPayout
	if result := d.metadata.Find(&payoutRows); result.Error != nil {
		return nil, result.Error
	}
	for _, row := range payoutRows {
		amount, err := decodeAmount(row.Amount)
		if err != nil {
			return nil, err
		}
		state.Payouts[ledger.Address(row.Address)] = amount
	}
	return state, nil
}
