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

package api

// Amounts are carried as decimal strings in both directions since ledger
// values are 256-bit.

// RootResponse is returned by GET /.
type RootResponse struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	IsHealthy bool `json:"is_healthy"`
}

// ErrorResponse is the error body returned by all endpoints.
type ErrorResponse struct {
	StatusCode int    `json:"status_code"`
	Error      string `json:"error"`
	Message    string `json:"message"`
}

// TxRequest is the common part of every mutating request. Timestamp is in
// Unix seconds; zero means "now".
type TxRequest struct {
	Caller    string `json:"caller"`
	Timestamp uint64 `json:"timestamp,omitempty"`
}

// TokenInfoResponse is returned by GET /api/v1/token.
type TokenInfoResponse struct {
	Owner       string `json:"owner"`
	BurnRate    uint64 `json:"burn_rate"`
	RewardRate  uint64 `json:"reward_rate"`
	TotalSupply string `json:"total_supply"`
	TotalBurned string `json:"total_burned"`
}

// TokenAccountResponse is returned by GET /api/v1/token/accounts/{address}.
type TokenAccountResponse struct {
	Address     string `json:"address"`
	Balance     string `json:"balance"`
	StakeAmount string `json:"stake_amount,omitempty"`
	StakedAt    uint64 `json:"staked_at,omitempty"`
}

// TransferRequest is the body for POST /api/v1/token/transfer.
type TransferRequest struct {
	TxRequest
	To     string `json:"to"`
	Amount string `json:"amount"`
}

// StakeRequest is the body for POST /api/v1/token/stake.
type StakeRequest struct {
	TxRequest
	Amount string `json:"amount"`
}

// UnstakeResponse is returned by POST /api/v1/token/unstake.
type UnstakeResponse struct {
	Principal string `json:"principal"`
	Reward    string `json:"reward"`
}

// RateRequest is the body for the burn-rate and reward-rate endpoints.
type RateRequest struct {
	TxRequest
	Rate uint64 `json:"rate"`
}

// MarketInfoResponse is returned by GET /api/v1/market.
type MarketInfoResponse struct {
	Owner       string `json:"owner"`
	FeeBps      uint64 `json:"fee_bps"`
	NextAssetID uint64 `json:"next_asset_id"`
	AccruedFees string `json:"accrued_fees"`
}

// ListingResponse is the listing part of an asset response.
type ListingResponse struct {
	Seller string `json:"seller"`
	Price  string `json:"price"`
}

// AuctionResponse is the auction part of an asset response.
type AuctionResponse struct {
	Seller        string `json:"seller"`
	StartPrice    string `json:"start_price"`
	EndTime       uint64 `json:"end_time"`
	HighestBid    string `json:"highest_bid"`
	HighestBidder string `json:"highest_bidder,omitempty"`
	Active        bool   `json:"active"`
}

// AssetResponse is returned by GET /api/v1/market/assets/{id}.
type AssetResponse struct {
	ID      uint64           `json:"id"`
	Owner   string           `json:"owner"`
	URI     string           `json:"uri"`
	Royalty uint64           `json:"royalty"`
	Listing *ListingResponse `json:"listing,omitempty"`
	Auction *AuctionResponse `json:"auction,omitempty"`
}

// MintRequest is the body for POST /api/v1/market/mint.
type MintRequest struct {
	TxRequest
	URI   string `json:"uri"`
	Price string `json:"price"`
}

// MintResponse is returned by POST /api/v1/market/mint.
type MintResponse struct {
	AssetID uint64 `json:"asset_id"`
}

// ListRequest is the body for POST /api/v1/market/assets/{id}/list.
type ListRequest struct {
	TxRequest
	Price string `json:"price"`
}

// BuyRequest is the body for POST /api/v1/market/assets/{id}/buy.
type BuyRequest struct {
	TxRequest
	Payment string `json:"payment"`
}

// StartAuctionRequest is the body for POST /api/v1/market/assets/{id}/auction.
type StartAuctionRequest struct {
	TxRequest
	StartPrice string `json:"start_price"`
	Duration   uint64 `json:"duration"`
}

// BidRequest is the body for POST /api/v1/market/assets/{id}/bid.
type BidRequest struct {
	TxRequest
	Amount string `json:"amount"`
}

// RoyaltyRequest is the body for POST /api/v1/market/assets/{id}/royalty.
type RoyaltyRequest struct {
	TxRequest
	Royalty uint64 `json:"royalty"`
}

// FeeRequest is the body for POST /api/v1/market/fee.
type FeeRequest struct {
	TxRequest
	FeeBps uint64 `json:"fee_bps"`
}
