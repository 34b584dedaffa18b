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

package marketplace

import (
	"fmt"

	"github.com/blinklabs-io/souk/ledger"
	"github.com/holiman/uint256"
)

// NotOwnerError is returned when the caller does not own the asset required
// by the operation. An unknown asset id reports a zero owner.
type NotOwnerError struct {
	AssetID uint64
	Caller  ledger.Address
	Owner   ledger.Address
}

func (e *NotOwnerError) Error() string {
	return fmt.Sprintf(
		"not owner: %s does not own asset %d (owner %s)",
		e.Caller,
		e.AssetID,
		e.Owner,
	)
}

// NotListedError is returned by Buy when the asset has no fixed-price listing.
type NotListedError struct {
	AssetID uint64
}

func (e *NotListedError) Error() string {
	return fmt.Sprintf("asset %d is not listed", e.AssetID)
}

// InsufficientPaymentError is returned when the payment does not cover the
// listed price.
type InsufficientPaymentError struct {
	AssetID uint64
	Price   *uint256.Int
	Payment *uint256.Int
}

func (e *InsufficientPaymentError) Error() string {
	return fmt.Sprintf(
		"insufficient payment for asset %d: price %s, payment %s",
		e.AssetID,
		e.Price.Dec(),
		e.Payment.Dec(),
	)
}

// AuctionNotActiveError is returned when an asset has no active auction.
type AuctionNotActiveError struct {
	AssetID uint64
}

func (e *AuctionNotActiveError) Error() string {
	return fmt.Sprintf("no active auction for asset %d", e.AssetID)
}

// AuctionEndedError is returned by PlaceBid once the auction end time has
// been reached.
type AuctionEndedError struct {
	AssetID uint64
	EndTime uint64
}

func (e *AuctionEndedError) Error() string {
	return fmt.Sprintf(
		"auction for asset %d ended at %d",
		e.AssetID,
		e.EndTime,
	)
}

// AuctionNotEndedError is returned by EndAuction before the end time.
type AuctionNotEndedError struct {
	AssetID uint64
	EndTime uint64
}

func (e *AuctionNotEndedError) Error() string {
	return fmt.Sprintf(
		"auction for asset %d does not end until %d",
		e.AssetID,
		e.EndTime,
	)
}

// BidTooLowError is returned when a bid does not strictly exceed the current
// highest bid.
type BidTooLowError struct {
	AssetID    uint64
	Bid        *uint256.Int
	HighestBid *uint256.Int
}

func (e *BidTooLowError) Error() string {
	return fmt.Sprintf(
		"bid of %s on asset %d does not exceed highest bid %s",
		e.Bid.Dec(),
		e.AssetID,
		e.HighestBid.Dec(),
	)
}

// RoyaltyTooHighError is returned when a royalty exceeds 1000 basis points.
type RoyaltyTooHighError struct {
	Royalty uint64
}

func (e *RoyaltyTooHighError) Error() string {
	return fmt.Sprintf(
		"royalty of %d bps exceeds maximum of %d bps",
		e.Royalty,
		ledger.MaxRateBps,
	)
}

// NoRoyaltySetError is returned by WithdrawRoyalties when the asset royalty
// is zero.
type NoRoyaltySetError struct {
	AssetID uint64
}

func (e *NoRoyaltySetError) Error() string {
	return fmt.Sprintf("no royalty set for asset %d", e.AssetID)
}
