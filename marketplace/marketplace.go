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

// Package marketplace implements the non-fungible asset ledger: mint,
// fixed-price listings, English auctions with escrowed bids, and royalty
// bookkeeping. A fixed-price listing and an auction for the same asset may
// coexist; neither path excludes the other.
package marketplace

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/blinklabs-io/souk/event"
	"github.com/blinklabs-io/souk/ledger"
	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
)

// Asset is a minted non-fungible asset. The metadata URI is immutable after
// mint; the royalty may be set by the current owner up to once at a time and
// is zeroed by WithdrawRoyalties.
type Asset struct {
	ID      uint64
	Owner   ledger.Address
	URI     string
	Royalty uint64
}

// Listing is a fixed-price offer. It exists only while the asset is for sale
// and is deleted on purchase or delist.
type Listing struct {
	Seller ledger.Address
	Price  *uint256.Int
}

// Auction is the auction state for an asset. The record is retained after
// settlement with Active set to false.
type Auction struct {
	Seller        ledger.Address
	StartPrice    *uint256.Int
	EndTime       uint64
	HighestBid    *uint256.Int
	HighestBidder ledger.Address
	Active        bool
}

// Params holds the ledger-wide mutable configuration and counters.
type Params struct {
	Owner       ledger.Address
	FeeBps      uint64
	NextAssetID uint64
	AccruedFees *uint256.Int
}

// State is a full snapshot of the ledger, used for persistence.
type State struct {
	Params   Params
	Assets   map[uint64]Asset
	Listings map[uint64]Listing
	Auctions map[uint64]Auction
	Escrow   map[ledger.Address]*uint256.Int
	Payouts  map[ledger.Address]*uint256.Int
}

// Store is the persistence interface for the marketplace ledger. Writes
// happen inside the operation's critical section; the in-memory state remains
// authoritative and a failed write is surfaced via the logger only.
type Store interface {
	SaveAsset(asset Asset) error
	SaveListing(assetID uint64, listing Listing) error
	DeleteListing(assetID uint64) error
	SaveAuction(assetID uint64, auction Auction) error
	SaveEscrow(addr ledger.Address, amount *uint256.Int) error
	SavePayout(addr ledger.Address, amount *uint256.Int) error
	SaveMarketParams(params Params) error
	LoadMarketState() (*State, error)
}

type LedgerConfig struct {
	Owner        ledger.Address
	FeeBps       uint64
	EventBus     *event.EventBus
	Logger       *slog.Logger
	PromRegistry prometheus.Registerer
	Store        Store
}

type Ledger struct {
	config      LedgerConfig
	metrics     ledgerMetrics
	logger      *slog.Logger
	eventBus    *event.EventBus
	store       Store
	owner       ledger.Address
	feeBps      uint64
	nextAssetID uint64
	accruedFees *uint256.Int
	assets      map[uint64]*Asset
	listings    map[uint64]*Listing
	auctions    map[uint64]*Auction
	escrow      map[ledger.Address]*uint256.Int
	payouts     map[ledger.Address]*uint256.Int
	sync.Mutex
}

// NewLedger creates a marketplace ledger. When a Store is configured and
// holds a previously persisted state, that state is restored.
func NewLedger(config LedgerConfig) (*Ledger, error) {
	if config.Owner == ledger.ZeroAddress {
		return nil, fmt.Errorf("marketplace ledger requires an owner address")
	}
	l := &Ledger{
		config:      config,
		eventBus:    config.EventBus,
		store:       config.Store,
		owner:       config.Owner,
		feeBps:      config.FeeBps,
		nextAssetID: 1,
		accruedFees: uint256.NewInt(0),
		assets:      make(map[uint64]*Asset),
		listings:    make(map[uint64]*Listing),
		auctions:    make(map[uint64]*Auction),
		escrow:      make(map[ledger.Address]*uint256.Int),
		payouts:     make(map[ledger.Address]*uint256.Int),
	}
	if config.Logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		l.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	} else {
		l.logger = config.Logger
	}
	l.metrics.init(config.PromRegistry)
	if l.store != nil {
		state, err := l.store.LoadMarketState()
		if err != nil {
			return nil, fmt.Errorf("failed to load marketplace state: %w", err)
		}
		if state != nil {
			l.restore(state)
		}
	}
	return l, nil
}

func (l *Ledger) restore(state *State) {
	l.owner = state.Params.Owner
	l.feeBps = state.Params.FeeBps
	l.nextAssetID = state.Params.NextAssetID
	l.accruedFees = state.Params.AccruedFees.Clone()
	for id, asset := range state.Assets {
		tmpAsset := asset
		l.assets[id] = &tmpAsset
	}
	for id, listing := range state.Listings {
		l.listings[id] = &Listing{
			Seller: listing.Seller,
			Price:  listing.Price.Clone(),
		}
	}
	for id, auction := range state.Auctions {
		tmpAuction := auction
		tmpAuction.StartPrice = auction.StartPrice.Clone()
		tmpAuction.HighestBid = auction.HighestBid.Clone()
		l.auctions[id] = &tmpAuction
	}
	for addr, amount := range state.Escrow {
		l.escrow[addr] = amount.Clone()
	}
	for addr, amount := range state.Payouts {
		l.payouts[addr] = amount.Clone()
	}
	l.metrics.activeListings.Set(float64(len(l.listings)))
	l.metrics.activeAuctions.Set(float64(l.countActiveAuctions()))
	l.logger.Info(
		"restored marketplace state",
		"component", "marketplace",
		"assets", len(l.assets),
		"listings", len(l.listings),
	)
}

// Mint allocates a fresh asset id, assigns ownership to the caller and lists
// the asset at the given price immediately.
func (l *Ledger) Mint(
	txCtx ledger.TxContext,
	uri string,
	price *uint256.Int,
) (uint64, error) {
	l.Lock()
	defer l.Unlock()
	if price == nil {
		price = uint256.NewInt(0)
	}
	assetID := l.nextAssetID
	l.nextAssetID++
	asset := &Asset{
		ID:    assetID,
		Owner: txCtx.Caller,
		URI:   uri,
	}
	l.assets[assetID] = asset
	listing := &Listing{
		Seller: txCtx.Caller,
		Price:  price.Clone(),
	}
	l.listings[assetID] = listing
	l.metrics.mintsTotal.Inc()
	l.metrics.activeListings.Set(float64(len(l.listings)))
	l.persistAsset(assetID)
	l.persistListing(assetID)
	l.persistParams()
	l.logger.Debug(
		"minted asset",
		"component", "marketplace",
		"asset_id", assetID,
		"owner", string(txCtx.Caller),
		"price", price.Dec(),
	)
	l.publish(NFTListedEventType, NFTListedEvent{
		TokenID: assetID,
		Seller:  txCtx.Caller,
		Price:   price.Clone(),
	})
	return assetID, nil
}

// List creates or replaces the fixed-price listing for an asset. Only the
// current owner may list.
func (l *Ledger) List(
	txCtx ledger.TxContext,
	assetID uint64,
	price *uint256.Int,
) error {
	l.Lock()
	defer l.Unlock()
	if err := l.requireOwner(txCtx.Caller, assetID); err != nil {
		return err
	}
	if price == nil {
		price = uint256.NewInt(0)
	}
	l.listings[assetID] = &Listing{
		Seller: txCtx.Caller,
		Price:  price.Clone(),
	}
	l.metrics.activeListings.Set(float64(len(l.listings)))
	l.persistListing(assetID)
	l.publish(NFTListedEventType, NFTListedEvent{
		TokenID: assetID,
		Seller:  txCtx.Caller,
		Price:   price.Clone(),
	})
	return nil
}

// Delist removes the fixed-price listing for an asset. Removing an absent
// listing succeeds, mirroring the permissive delete of a mapping entry.
func (l *Ledger) Delist(txCtx ledger.TxContext, assetID uint64) error {
	l.Lock()
	defer l.Unlock()
	if err := l.requireOwner(txCtx.Caller, assetID); err != nil {
		return err
	}
	delete(l.listings, assetID)
	l.metrics.activeListings.Set(float64(len(l.listings)))
	l.persistListingDelete(assetID)
	return nil
}

// Buy purchases a listed asset. The fee is computed on the payment actually
// sent rather than the listed price; any overpayment is split between seller
// and fee rather than refunded. Payment credit and ownership transfer commit
// together or not at all.
func (l *Ledger) Buy(
	txCtx ledger.TxContext,
	assetID uint64,
	payment *uint256.Int,
) error {
	l.Lock()
	defer l.Unlock()
	listing, ok := l.listings[assetID]
	if !ok {
		return &NotListedError{AssetID: assetID}
	}
	if payment == nil {
		payment = uint256.NewInt(0)
	}
	if payment.Lt(listing.Price) {
		return &InsufficientPaymentError{
			AssetID: assetID,
			Price:   listing.Price.Clone(),
			Payment: payment.Clone(),
		}
	}
	fee, err := ledger.BpsShare(payment, l.feeBps)
	if err != nil {
		return err
	}
	// The fee is unbounded, so it can exceed the payment itself. The host
	// environment traps the resulting underflow; we do the same.
	if fee.Gt(payment) {
		return ledger.ErrArithmeticOverflow
	}
	sellerAmount := new(uint256.Int).Sub(payment, fee)
	asset := l.assets[assetID]
	seller := listing.Seller
	// All checks passed, commit
	asset.Owner = txCtx.Caller
	delete(l.listings, assetID)
	l.creditPayout(seller, sellerAmount)
	l.accruedFees.Add(l.accruedFees, fee)
	l.metrics.salesTotal.Inc()
	l.metrics.activeListings.Set(float64(len(l.listings)))
	l.persistAsset(assetID)
	l.persistListingDelete(assetID)
	l.persistPayout(seller)
	l.persistParams()
	l.logger.Debug(
		"asset purchased",
		"component", "marketplace",
		"asset_id", assetID,
		"buyer", string(txCtx.Caller),
		"payment", payment.Dec(),
		"fee", fee.Dec(),
	)
	l.publish(NFTPurchasedEventType, NFTPurchasedEvent{
		TokenID: assetID,
		Buyer:   txCtx.Caller,
		Price:   payment.Clone(),
	})
	return nil
}

// UpdateMarketplaceFee sets the marketplace fee in basis points. Owner only.
// No upper bound is enforced; a fee above 10000 bps makes every sale fail
// with an arithmetic overflow.
func (l *Ledger) UpdateMarketplaceFee(
	txCtx ledger.TxContext,
	feeBps uint64,
) error {
	l.Lock()
	defer l.Unlock()
	if txCtx.Caller != l.owner {
		return &ledger.UnauthorizedError{
			Caller:    txCtx.Caller,
			Operation: "updateMarketplaceFee",
		}
	}
	l.feeBps = feeBps
	l.persistParams()
	return nil
}

// SetRoyalty sets the royalty in basis points for an asset. Only the current
// owner may set it.
func (l *Ledger) SetRoyalty(
	txCtx ledger.TxContext,
	assetID uint64,
	royaltyBps uint64,
) error {
	l.Lock()
	defer l.Unlock()
	if err := l.requireOwner(txCtx.Caller, assetID); err != nil {
		return err
	}
	if royaltyBps > ledger.MaxRateBps {
		return &RoyaltyTooHighError{Royalty: royaltyBps}
	}
	l.assets[assetID].Royalty = royaltyBps
	l.persistAsset(assetID)
	return nil
}

// WithdrawRoyalties pays floor(royalty * currentListingPrice / 10000) to the
// caller and zeroes the asset royalty. The payout is computed against the
// current listing price rather than any historical sale; an unlisted asset
// pays zero but still clears the royalty.
func (l *Ledger) WithdrawRoyalties(
	txCtx ledger.TxContext,
	assetID uint64,
) error {
	l.Lock()
	defer l.Unlock()
	asset, ok := l.assets[assetID]
	if !ok || asset.Royalty == 0 {
		return &NoRoyaltySetError{AssetID: assetID}
	}
	price := uint256.NewInt(0)
	if listing, ok := l.listings[assetID]; ok {
		price = listing.Price
	}
	royaltyAmount, err := ledger.BpsShare(price, asset.Royalty)
	if err != nil {
		return err
	}
	asset.Royalty = 0
	l.creditPayout(txCtx.Caller, royaltyAmount)
	l.persistAsset(assetID)
	l.persistPayout(txCtx.Caller)
	l.logger.Debug(
		"royalties withdrawn",
		"component", "marketplace",
		"asset_id", assetID,
		"recipient", string(txCtx.Caller),
		"amount", royaltyAmount.Dec(),
	)
	return nil
}

// OwnerOf returns the owner of an asset, or false if the asset does not
// exist.
func (l *Ledger) OwnerOf(assetID uint64) (ledger.Address, bool) {
	l.Lock()
	defer l.Unlock()
	asset, ok := l.assets[assetID]
	if !ok {
		return ledger.ZeroAddress, false
	}
	return asset.Owner, true
}

// AssetURI returns the immutable metadata URI of an asset.
func (l *Ledger) AssetURI(assetID uint64) (string, bool) {
	l.Lock()
	defer l.Unlock()
	asset, ok := l.assets[assetID]
	if !ok {
		return "", false
	}
	return asset.URI, true
}

// RoyaltyOf returns the royalty in basis points currently set on an asset.
func (l *Ledger) RoyaltyOf(assetID uint64) (uint64, bool) {
	l.Lock()
	defer l.Unlock()
	asset, ok := l.assets[assetID]
	if !ok {
		return 0, false
	}
	return asset.Royalty, true
}

// GetAsset returns a copy of an asset record.
func (l *Ledger) GetAsset(assetID uint64) (Asset, bool) {
	l.Lock()
	defer l.Unlock()
	asset, ok := l.assets[assetID]
	if !ok {
		return Asset{}, false
	}
	return *asset, true
}

// GetListing returns a copy of the fixed-price listing for an asset, if any.
func (l *Ledger) GetListing(assetID uint64) (Listing, bool) {
	l.Lock()
	defer l.Unlock()
	listing, ok := l.listings[assetID]
	if !ok {
		return Listing{}, false
	}
	return Listing{
		Seller: listing.Seller,
		Price:  listing.Price.Clone(),
	}, true
}

// GetAuction returns a copy of the auction record for an asset, if any. The
// record is retained after settlement with Active set to false.
func (l *Ledger) GetAuction(assetID uint64) (Auction, bool) {
	l.Lock()
	defer l.Unlock()
	auction, ok := l.auctions[assetID]
	if !ok {
		return Auction{}, false
	}
	ret := *auction
	ret.StartPrice = auction.StartPrice.Clone()
	ret.HighestBid = auction.HighestBid.Clone()
	return ret, true
}

// EscrowOf returns the amount currently held in escrow for an address.
func (l *Ledger) EscrowOf(addr ledger.Address) *uint256.Int {
	l.Lock()
	defer l.Unlock()
	if amount, ok := l.escrow[addr]; ok {
		return amount.Clone()
	}
	return uint256.NewInt(0)
}

// PayoutsOf returns the cumulative amount paid out to an address by the
// ledger: sale proceeds, bid refunds and royalty withdrawals.
func (l *Ledger) PayoutsOf(addr ledger.Address) *uint256.Int {
	l.Lock()
	defer l.Unlock()
	if amount, ok := l.payouts[addr]; ok {
		return amount.Clone()
	}
	return uint256.NewInt(0)
}

// AccruedFees returns the cumulative marketplace fees accrued to the owner.
func (l *Ledger) AccruedFees() *uint256.Int {
	l.Lock()
	defer l.Unlock()
	return l.accruedFees.Clone()
}

// Fee returns the current marketplace fee in basis points.
func (l *Ledger) Fee() uint64 {
	l.Lock()
	defer l.Unlock()
	return l.feeBps
}

// NextAssetID returns the id the next Mint will allocate.
func (l *Ledger) NextAssetID() uint64 {
	l.Lock()
	defer l.Unlock()
	return l.nextAssetID
}

// Owner returns the marketplace owner address.
func (l *Ledger) Owner() ledger.Address {
	return l.owner
}

func (l *Ledger) requireOwner(caller ledger.Address, assetID uint64) error {
	var owner ledger.Address
	if asset, ok := l.assets[assetID]; ok {
		owner = asset.Owner
	}
	if caller != owner {
		return &NotOwnerError{
			AssetID: assetID,
			Caller:  caller,
			Owner:   owner,
		}
	}
	return nil
}

func (l *Ledger) creditPayout(addr ledger.Address, amount *uint256.Int) {
	if existing, ok := l.payouts[addr]; ok {
		existing.Add(existing, amount)
		return
	}
	l.payouts[addr] = amount.Clone()
}

func (l *Ledger) countActiveAuctions() int {
	count := 0
	for _, auction := range l.auctions {
		if auction.Active {
			count++
		}
	}
	return count
}

func (l *Ledger) publish(eventType event.EventType, data any) {
	if l.eventBus == nil {
		return
	}
	l.eventBus.Publish(eventType, event.NewEvent(eventType, data))
}

func (l *Ledger) persistAsset(assetID uint64) {
	if l.store == nil {
		return
	}
	if err := l.store.SaveAsset(*l.assets[assetID]); err != nil {
		l.logger.Error(
			"failed to persist asset",
			"component", "marketplace",
			"asset_id", assetID,
			"error", err,
		)
	}
}

func (l *Ledger) persistListing(assetID uint64) {
	if l.store == nil {
		return
	}
	listing := l.listings[assetID]
	if err := l.store.SaveListing(assetID, *listing); err != nil {
		l.logger.Error(
			"failed to persist listing",
			"component", "marketplace",
			"asset_id", assetID,
			"error", err,
		)
	}
}

func (l *Ledger) persistListingDelete(assetID uint64) {
	if l.store == nil {
		return
	}
	if err := l.store.DeleteListing(assetID); err != nil {
		l.logger.Error(
			"failed to delete persisted listing",
			"component", "marketplace",
			"asset_id", assetID,
			"error", err,
		)
	}
}

func (l *Ledger) persistAuction(assetID uint64) {
	if l.store == nil {
		return
	}
	if err := l.store.SaveAuction(assetID, *l.auctions[assetID]); err != nil {
		l.logger.Error(
			"failed to persist auction",
			"component", "marketplace",
			"asset_id", assetID,
			"error", err,
		)
	}
}

func (l *Ledger) persistEscrow(addr ledger.Address) {
	if l.store == nil {
		return
	}
	amount, ok := l.escrow[addr]
	if !ok {
		amount = uint256.NewInt(0)
	}
	if err := l.store.SaveEscrow(addr, amount); err != nil {
		l.logger.Error(
			"failed to persist escrow",
			"component", "marketplace",
			"address", string(addr),
			"error", err,
		)
	}
}

func (l *Ledger) persistPayout(addr ledger.Address) {
	if l.store == nil {
		return
	}
	amount, ok := l.payouts[addr]
	if !ok {
		amount = uint256.NewInt(0)
	}
	if err := l.store.SavePayout(addr, amount); err != nil {
		l.logger.Error(
			"failed to persist payout",
			"component", "marketplace",
			"address", string(addr),
			"error", err,
		)
	}
}

func (l *Ledger) persistParams() {
	if l.store == nil {
		return
	}
	params := Params{
		Owner:       l.owner,
		FeeBps:      l.feeBps,
		NextAssetID: l.nextAssetID,
		AccruedFees: l.accruedFees.Clone(),
	}
	if err := l.store.SaveMarketParams(params); err != nil {
		l.logger.Error(
			"failed to persist marketplace params",
			"component", "marketplace",
			"error", err,
		)
	}
}
