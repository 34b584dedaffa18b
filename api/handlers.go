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

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/blinklabs-io/souk/database"
	"github.com/blinklabs-io/souk/internal/version"
	"github.com/blinklabs-io/souk/ledger"
	"github.com/blinklabs-io/souk/marketplace"
	"github.com/blinklabs-io/souk/token"
	"github.com/holiman/uint256"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck,errchkjson
	json.NewEncoder(w).Encode(v)
}

// writeError writes an error response.
func writeError(
	w http.ResponseWriter,
	status int,
	errStr string,
	message string,
) {
	writeJSON(w, status, ErrorResponse{
		StatusCode: status,
		Error:      errStr,
		Message:    message,
	})
}

// writeLedgerError maps a ledger error onto an HTTP status code.
func writeLedgerError(w http.ResponseWriter, err error) {
	var status int
	switch {
	case errors.As(err, new(*ledger.UnauthorizedError)),
		errors.As(err, new(*marketplace.NotOwnerError)):
		status = http.StatusForbidden
	case errors.As(err, new(*marketplace.NotListedError)),
		errors.As(err, new(*token.NoActiveStakeError)),
		errors.As(err, new(*marketplace.NoRoyaltySetError)):
		status = http.StatusNotFound
	case errors.As(err, new(*token.ExistingStakeError)),
		errors.As(err, new(*marketplace.AuctionNotActiveError)),
		errors.As(err, new(*marketplace.AuctionEndedError)),
		errors.As(err, new(*marketplace.AuctionNotEndedError)):
		status = http.StatusConflict
	case errors.As(err, new(*token.InsufficientBalanceError)),
		errors.As(err, new(*token.InvalidAmountError)),
		errors.As(err, new(*ledger.RateTooHighError)),
		errors.As(err, new(*marketplace.InsufficientPaymentError)),
		errors.As(err, new(*marketplace.BidTooLowError)),
		errors.As(err, new(*marketplace.RoyaltyTooHighError)),
		errors.Is(err, ledger.ErrArithmeticOverflow):
		status = http.StatusUnprocessableEntity
	default:
		status = http.StatusInternalServerError
	}
	writeError(w, status, http.StatusText(status), err.Error())
}

// decodeBody parses a JSON request body.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(
			w,
			http.StatusBadRequest,
			"Bad Request",
			"invalid request body: "+err.Error(),
		)
		return false
	}
	return true
}

// parseAmount parses a decimal amount string from a request.
func parseAmount(w http.ResponseWriter, s string) (*uint256.Int, bool) {
	if s == "" {
		return uint256.NewInt(0), true
	}
	amount, err := uint256.FromDecimal(s)
	if err != nil {
		writeError(
			w,
			http.StatusBadRequest,
			"Bad Request",
			"invalid amount: "+err.Error(),
		)
		return nil, false
	}
	return amount, true
}

// parseAssetID parses the {id} path value.
func parseAssetID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(
			w,
			http.StatusBadRequest,
			"Bad Request",
			"invalid asset id",
		)
		return 0, false
	}
	return id, true
}

// txContext builds the transaction context for a request. A zero timestamp
// means the caller did not supply one, so the server clock is used.
func txContext(req TxRequest) ledger.TxContext {
	timestamp := req.Timestamp
	if timestamp == 0 {
		timestamp = uint64(time.Now().Unix()) //nolint:gosec
	}
	return ledger.TxContext{
		Caller:    ledger.Address(req.Caller),
		Timestamp: timestamp,
	}
}

// handleRoot handles GET / and returns API metadata.
func (a *Api) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, RootResponse{
		Name:    "souk",
		Version: version.GetVersionString(),
	})
}

// handleHealth handles GET /health.
func (a *Api) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		IsHealthy: true,
	})
}

// handleTokenInfo handles GET /api/v1/token.
func (a *Api) handleTokenInfo(w http.ResponseWriter, _ *http.Request) {
	l := a.node.TokenLedger()
	writeJSON(w, http.StatusOK, TokenInfoResponse{
		Owner:       string(l.Owner()),
		BurnRate:    l.BurnRate(),
		RewardRate:  l.RewardRate(),
		TotalSupply: l.TotalSupply().Dec(),
		TotalBurned: l.TotalBurned().Dec(),
	})
}

// handleTokenAccount handles GET /api/v1/token/accounts/{address}.
func (a *Api) handleTokenAccount(w http.ResponseWriter, r *http.Request) {
	l := a.node.TokenLedger()
	addr := ledger.Address(r.PathValue("address"))
	resp := TokenAccountResponse{
		Address: string(addr),
		Balance: l.BalanceOf(addr).Dec(),
	}
	if pos, ok := l.StakeOf(addr); ok {
		resp.StakeAmount = pos.Amount.Dec()
		resp.StakedAt = pos.StakedAt
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleTransfer handles POST /api/v1/token/transfer.
func (a *Api) handleTransfer(w http.ResponseWriter, r *http.Request) {
	var req TransferRequest
	if !decodeBody(w, r, &req) {
		return
	}
	amount, ok := parseAmount(w, req.Amount)
	if !ok {
		return
	}
	err := a.node.TokenLedger().Transfer(
		txContext(req.TxRequest),
		ledger.Address(req.To),
		amount,
	)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct{}{})
}

// handleStake handles POST /api/v1/token/stake.
func (a *Api) handleStake(w http.ResponseWriter, r *http.Request) {
	var req StakeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	amount, ok := parseAmount(w, req.Amount)
	if !ok {
		return
	}
	err := a.node.TokenLedger().Stake(txContext(req.TxRequest), amount)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct{}{})
}

// handleUnstake handles POST /api/v1/token/unstake.
func (a *Api) handleUnstake(w http.ResponseWriter, r *http.Request) {
	var req TxRequest
	if !decodeBody(w, r, &req) {
		return
	}
	principal, reward, err := a.node.TokenLedger().Unstake(txContext(req))
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, UnstakeResponse{
		Principal: principal.Dec(),
		Reward:    reward.Dec(),
	})
}

// handleSetBurnRate handles POST /api/v1/token/burn-rate.
func (a *Api) handleSetBurnRate(w http.ResponseWriter, r *http.Request) {
	var req RateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	err := a.node.TokenLedger().SetBurnRate(txContext(req.TxRequest), req.Rate)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct{}{})
}

// handleSetRewardRate handles POST /api/v1/token/reward-rate.
func (a *Api) handleSetRewardRate(w http.ResponseWriter, r *http.Request) {
	var req RateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	err := a.node.TokenLedger().
		SetRewardRate(txContext(req.TxRequest), req.Rate)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct{}{})
}

// handleMarketInfo handles GET /api/v1/market.
func (a *Api) handleMarketInfo(w http.ResponseWriter, _ *http.Request) {
	l := a.node.MarketLedger()
	writeJSON(w, http.StatusOK, MarketInfoResponse{
		Owner:       string(l.Owner()),
		FeeBps:      l.Fee(),
		NextAssetID: l.NextAssetID(),
		AccruedFees: l.AccruedFees().Dec(),
	})
}

// handleMarketAsset handles GET /api/v1/market/assets/{id}.
func (a *Api) handleMarketAsset(w http.ResponseWriter, r *http.Request) {
	assetID, ok := parseAssetID(w, r)
	if !ok {
		return
	}
	l := a.node.MarketLedger()
	asset, ok := l.GetAsset(assetID)
	if !ok {
		writeError(
			w,
			http.StatusNotFound,
			"Not Found",
			"asset not found",
		)
		return
	}
	resp := AssetResponse{
		ID:      asset.ID,
		Owner:   string(asset.Owner),
		URI:     asset.URI,
		Royalty: asset.Royalty,
	}
	if listing, ok := l.GetListing(assetID); ok {
		resp.Listing = &ListingResponse{
			Seller: string(listing.Seller),
			Price:  listing.Price.Dec(),
		}
	}
	if auction, ok := l.GetAuction(assetID); ok {
		resp.Auction = &AuctionResponse{
			Seller:        string(auction.Seller),
			StartPrice:    auction.StartPrice.Dec(),
			EndTime:       auction.EndTime,
			HighestBid:    auction.HighestBid.Dec(),
			HighestBidder: string(auction.HighestBidder),
			Active:        auction.Active,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleMint handles POST /api/v1/market/mint.
func (a *Api) handleMint(w http.ResponseWriter, r *http.Request) {
	var req MintRequest
	if !decodeBody(w, r, &req) {
		return
	}
	price, ok := parseAmount(w, req.Price)
	if !ok {
		return
	}
	assetID, err := a.node.MarketLedger().Mint(
		txContext(req.TxRequest),
		req.URI,
		price,
	)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MintResponse{AssetID: assetID})
}

// handleList handles POST /api/v1/market/assets/{id}/list.
func (a *Api) handleList(w http.ResponseWriter, r *http.Request) {
	assetID, ok := parseAssetID(w, r)
	if !ok {
		return
	}
	var req ListRequest
	if !decodeBody(w, r, &req) {
		return
	}
	price, ok := parseAmount(w, req.Price)
	if !ok {
		return
	}
	err := a.node.MarketLedger().List(
		txContext(req.TxRequest),
		assetID,
		price,
	)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct{}{})
}

// handleDelist handles POST /api/v1/market/assets/{id}/delist.
func (a *Api) handleDelist(w http.ResponseWriter, r *http.Request) {
	assetID, ok := parseAssetID(w, r)
	if !ok {
		return
	}
	var req TxRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := a.node.MarketLedger().Delist(txContext(req), assetID); err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct{}{})
}

// handleBuy handles POST /api/v1/market/assets/{id}/buy.
func (a *Api) handleBuy(w http.ResponseWriter, r *http.Request) {
	assetID, ok := parseAssetID(w, r)
	if !ok {
		return
	}
	var req BuyRequest
	if !decodeBody(w, r, &req) {
		return
	}
	payment, ok := parseAmount(w, req.Payment)
	if !ok {
		return
	}
	err := a.node.MarketLedger().Buy(
		txContext(req.TxRequest),
		assetID,
		payment,
	)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct{}{})
}

// handleStartAuction handles POST /api/v1/market/assets/{id}/auction.
func (a *Api) handleStartAuction(w http.ResponseWriter, r *http.Request) {
	assetID, ok := parseAssetID(w, r)
	if !ok {
		return
	}
	var req StartAuctionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	startPrice, ok := parseAmount(w, req.StartPrice)
	if !ok {
		return
	}
	err := a.node.MarketLedger().StartAuction(
		txContext(req.TxRequest),
		assetID,
		startPrice,
		req.Duration,
	)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct{}{})
}

// handlePlaceBid handles POST /api/v1/market/assets/{id}/bid.
func (a *Api) handlePlaceBid(w http.ResponseWriter, r *http.Request) {
	assetID, ok := parseAssetID(w, r)
	if !ok {
		return
	}
	var req BidRequest
	if !decodeBody(w, r, &req) {
		return
	}
	amount, ok := parseAmount(w, req.Amount)
	if !ok {
		return
	}
	err := a.node.MarketLedger().PlaceBid(
		txContext(req.TxRequest),
		assetID,
		amount,
	)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct{}{})
}

// handleEndAuction handles POST /api/v1/market/assets/{id}/settle.
func (a *Api) handleEndAuction(w http.ResponseWriter, r *http.Request) {
	assetID, ok := parseAssetID(w, r)
	if !ok {
		return
	}
	var req TxRequest
	if !decodeBody(w, r, &req) {
		return
	}
	err := a.node.MarketLedger().EndAuction(txContext(req), assetID)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct{}{})
}

// handleSetRoyalty handles POST /api/v1/market/assets/{id}/royalty.
func (a *Api) handleSetRoyalty(w http.ResponseWriter, r *http.Request) {
	assetID, ok := parseAssetID(w, r)
	if !ok {
		return
	}
	var req RoyaltyRequest
	if !decodeBody(w, r, &req) {
		return
	}
	err := a.node.MarketLedger().SetRoyalty(
		txContext(req.TxRequest),
		assetID,
		req.Royalty,
	)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct{}{})
}

// handleWithdrawRoyalties handles POST /api/v1/market/assets/{id}/royalty/withdraw.
func (a *Api) handleWithdrawRoyalties(w http.ResponseWriter, r *http.Request) {
	assetID, ok := parseAssetID(w, r)
	if !ok {
		return
	}
	var req TxRequest
	if !decodeBody(w, r, &req) {
		return
	}
	err := a.node.MarketLedger().WithdrawRoyalties(txContext(req), assetID)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct{}{})
}

// handleUpdateFee handles POST /api/v1/market/fee.
func (a *Api) handleUpdateFee(w http.ResponseWriter, r *http.Request) {
	var req FeeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	err := a.node.MarketLedger().UpdateMarketplaceFee(
		txContext(req.TxRequest),
		req.FeeBps,
	)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct{}{})
}

// handleEvents handles GET /api/v1/events.
func (a *Api) handleEvents(w http.ResponseWriter, r *http.Request) {
	var startSeq, limit uint64
	var err error
	if s := r.URL.Query().Get("start"); s != "" {
		startSeq, err = strconv.ParseUint(s, 10, 64)
		if err != nil {
			writeError(
				w,
				http.StatusBadRequest,
				"Bad Request",
				"invalid start parameter",
			)
			return
		}
	}
	if s := r.URL.Query().Get("limit"); s != "" {
		limit, err = strconv.ParseUint(s, 10, 64)
		if err != nil {
			writeError(
				w,
				http.StatusBadRequest,
				"Bad Request",
				"invalid limit parameter",
			)
			return
		}
	}
	entries, err := a.node.Events(startSeq, limit)
	if err != nil {
		a.logger.Error(
			"failed to read event log",
			"error", err,
		)
		writeError(
			w,
			http.StatusInternalServerError,
			"Internal Server Error",
			"failed to read event log",
		)
		return
	}
	if entries == nil {
		entries = []database.EventLogEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}
