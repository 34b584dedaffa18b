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
	"github.com/blinklabs-io/souk/event"
	"github.com/blinklabs-io/souk/ledger"
	"github.com/holiman/uint256"
)

const (
	NFTListedEventType      event.EventType = "marketplace.listed"
	NFTPurchasedEventType   event.EventType = "marketplace.purchased"
	AuctionStartedEventType event.EventType = "marketplace.auction_started"
	NewBidEventType         event.EventType = "marketplace.new_bid"
	AuctionEndedEventType   event.EventType = "marketplace.auction_ended"
)

// NFTListedEvent is emitted when an asset is listed at a fixed price,
// including the implicit listing created at mint.
type NFTListedEvent struct {
	TokenID uint64
	Seller  ledger.Address
	Price   *uint256.Int
}

// NFTPurchasedEvent is emitted on a fixed-price sale. Price is the payment
// actually sent, which may exceed the listed price.
type NFTPurchasedEvent struct {
	TokenID uint64
	Buyer   ledger.Address
	Price   *uint256.Int
}

// AuctionStartedEvent is emitted when an auction opens.
type AuctionStartedEvent struct {
	TokenID    uint64
	StartPrice *uint256.Int
	Duration   uint64
}

// NewBidEvent is emitted when a bid is accepted.
type NewBidEvent struct {
	TokenID uint64
	Bidder  ledger.Address
	Amount  *uint256.Int
}

// AuctionEndedEvent is emitted when an auction settles. Winner is the zero
// address when the auction received no bids.
type AuctionEndedEvent struct {
	TokenID    uint64
	Winner     ledger.Address
	WinningBid *uint256.Int
}
