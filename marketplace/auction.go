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
	"github.com/blinklabs-io/souk/ledger"
	"github.com/holiman/uint256"
)

// StartAuction opens an English auction for an asset ending at
// now + duration. Only the current owner may start one. Any fixed-price
// listing for the asset is left in place; the two sale paths run
// independently until one of them transfers ownership.
func (l *Ledger) StartAuction(
	txCtx ledger.TxContext,
	assetID uint64,
	startPrice *uint256.Int,
	duration uint64,
) error {
	l.Lock()
	defer l.Unlock()
	if err := l.requireOwner(txCtx.Caller, assetID); err != nil {
		return err
	}
	if startPrice == nil {
		startPrice = uint256.NewInt(0)
	}
	endTime, err := ledger.SafeAddUint64(txCtx.Timestamp, duration)
	if err != nil {
		return err
	}
	l.auctions[assetID] = &Auction{
		Seller:     txCtx.Caller,
		StartPrice: startPrice.Clone(),
		EndTime:    endTime,
		HighestBid: uint256.NewInt(0),
		Active:     true,
	}
	l.metrics.auctionsStarted.Inc()
	l.metrics.activeAuctions.Set(float64(l.countActiveAuctions()))
	l.persistAuction(assetID)
	l.logger.Debug(
		"auction started",
		"component", "marketplace",
		"asset_id", assetID,
		"seller", string(txCtx.Caller),
		"start_price", startPrice.Dec(),
		"end_time", endTime,
	)
	l.publish(AuctionStartedEventType, AuctionStartedEvent{
		TokenID:    assetID,
		StartPrice: startPrice.Clone(),
		Duration:   duration,
	})
	return nil
}

// PlaceBid places a bid on an active auction. The bid must strictly exceed
// the current highest bid; the start price is recorded but not enforced as a
// floor, so the first bid need only exceed zero. The previous highest
// bidder's escrow is released before the new bid is accepted.
func (l *Ledger) PlaceBid(
	txCtx ledger.TxContext,
	assetID uint64,
	amount *uint256.Int,
) error {
	l.Lock()
	defer l.Unlock()
	auction, ok := l.auctions[assetID]
	if !ok || !auction.Active {
		return &AuctionNotActiveError{AssetID: assetID}
	}
	if txCtx.Timestamp >= auction.EndTime {
		return &AuctionEndedError{
			AssetID: assetID,
			EndTime: auction.EndTime,
		}
	}
	if amount == nil {
		amount = uint256.NewInt(0)
	}
	if !amount.Gt(auction.HighestBid) {
		return &BidTooLowError{
			AssetID:    assetID,
			Bid:        amount.Clone(),
			HighestBid: auction.HighestBid.Clone(),
		}
	}
	// Refund the outgoing highest bidder before recording the new bid
	if auction.HighestBidder != ledger.ZeroAddress {
		l.releaseEscrow(auction.HighestBidder, auction.HighestBid)
		l.creditPayout(auction.HighestBidder, auction.HighestBid)
		l.persistEscrow(auction.HighestBidder)
		l.persistPayout(auction.HighestBidder)
	}
	l.holdEscrow(txCtx.Caller, amount)
	auction.HighestBid = amount.Clone()
	auction.HighestBidder = txCtx.Caller
	l.metrics.bidsTotal.Inc()
	l.persistEscrow(txCtx.Caller)
	l.persistAuction(assetID)
	l.logger.Debug(
		"bid placed",
		"component", "marketplace",
		"asset_id", assetID,
		"bidder", string(txCtx.Caller),
		"amount", amount.Dec(),
	)
	l.publish(NewBidEventType, NewBidEvent{
		TokenID: assetID,
		Bidder:  txCtx.Caller,
		Amount:  amount.Clone(),
	})
	return nil
}

// EndAuction settles an auction after its end time. Anyone may call it. The
// winning bid is consumed from escrow and split between seller and fee as in
// Buy; with no bids the asset simply stays with the seller. The auction
// record is retained with Active cleared.
func (l *Ledger) EndAuction(txCtx ledger.TxContext, assetID uint64) error {
	l.Lock()
	defer l.Unlock()
	auction, ok := l.auctions[assetID]
	if !ok || !auction.Active {
		return &AuctionNotActiveError{AssetID: assetID}
	}
	if txCtx.Timestamp < auction.EndTime {
		return &AuctionNotEndedError{
			AssetID: assetID,
			EndTime: auction.EndTime,
		}
	}
	winner := auction.HighestBidder
	winningBid := auction.HighestBid.Clone()
	if winner != ledger.ZeroAddress {
		fee, err := ledger.BpsShare(winningBid, l.feeBps)
		if err != nil {
			return err
		}
		if fee.Gt(winningBid) {
			return ledger.ErrArithmeticOverflow
		}
		sellerAmount := new(uint256.Int).Sub(winningBid, fee)
		// All checks passed, commit
		l.releaseEscrow(winner, winningBid)
		l.creditPayout(auction.Seller, sellerAmount)
		l.accruedFees.Add(l.accruedFees, fee)
		l.assets[assetID].Owner = winner
		l.persistEscrow(winner)
		l.persistPayout(auction.Seller)
		l.persistAsset(assetID)
	}
	auction.Active = false
	l.metrics.auctionsSettled.Inc()
	l.metrics.activeAuctions.Set(float64(l.countActiveAuctions()))
	l.persistAuction(assetID)
	l.persistParams()
	l.logger.Debug(
		"auction settled",
		"component", "marketplace",
		"asset_id", assetID,
		"winner", string(winner),
		"winning_bid", winningBid.Dec(),
	)
	l.publish(AuctionEndedEventType, AuctionEndedEvent{
		TokenID:    assetID,
		Winner:     winner,
		WinningBid: winningBid,
	})
	return nil
}

func (l *Ledger) holdEscrow(addr ledger.Address, amount *uint256.Int) {
	if existing, ok := l.escrow[addr]; ok {
		existing.Add(existing, amount)
		return
	}
	l.escrow[addr] = amount.Clone()
}

func (l *Ledger) releaseEscrow(addr ledger.Address, amount *uint256.Int) {
	if existing, ok := l.escrow[addr]; ok {
		existing.Sub(existing, amount)
		if existing.IsZero() {
			delete(l.escrow, addr)
		}
	}
}
