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
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/blinklabs-io/souk/database"
	"github.com/blinklabs-io/souk/ledger"
	"github.com/blinklabs-io/souk/marketplace"
	"github.com/blinklabs-io/souk/token"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockNode implements ApiNode for testing, backed by real in-memory ledgers.
type mockNode struct {
	tokenLedger  *token.Ledger
	marketLedger *marketplace.Ledger
	events       []database.EventLogEntry
	eventsErr    error
}

func (m *mockNode) TokenLedger() *token.Ledger {
	return m.tokenLedger
}

func (m *mockNode) MarketLedger() *marketplace.Ledger {
	return m.marketLedger
}

func (m *mockNode) Events(
	startSeq uint64,
	limit uint64,
) ([]database.EventLogEntry, error) {
	if m.eventsErr != nil {
		return nil, m.eventsErr
	}
	var ret []database.EventLogEntry
	for _, entry := range m.events {
		if entry.Seq < startSeq {
			continue
		}
		if limit > 0 && uint64(len(ret)) >= limit {
			break
		}
		ret = append(ret, entry)
	}
	return ret, nil
}

func newMockNode(t *testing.T) *mockNode {
	t.Helper()
	tokenLedger, err := token.NewLedger(token.LedgerConfig{
		Owner:         "owner",
		InitialHolder: "alice",
		InitialSupply: uint256.NewInt(1_000_000),
		BurnRate:      200,
		RewardRate:    500,
	})
	require.NoError(t, err)
	marketLedger, err := marketplace.NewLedger(marketplace.LedgerConfig{
		Owner:  "owner",
		FeeBps: 250,
	})
	require.NoError(t, err)
	return &mockNode{
		tokenLedger:  tokenLedger,
		marketLedger: marketLedger,
	}
}

func newTestApi(node ApiNode) *Api {
	return New(
		ApiConfig{
			ListenAddress: ":0",
		},
		node,
		nil,
	)
}

func postRequest(t *testing.T, path string, body any) *http.Request {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	return httptest.NewRequest(
		http.MethodPost,
		path,
		bytes.NewReader(payload),
	)
}

func TestStartStop(t *testing.T) {
	a := newTestApi(newMockNode(t))

	err := a.Start(t.Context())
	require.NoError(t, err)

	a.mu.Lock()
	assert.NotNil(t, a.httpServer)
	a.mu.Unlock()

	stopCtx, stopCancel := context.WithTimeout(
		context.Background(),
		5*time.Second,
	)
	defer stopCancel()
	err = a.Stop(stopCtx)
	require.NoError(t, err)

	a.mu.Lock()
	assert.Nil(t, a.httpServer)
	a.mu.Unlock()
}

func TestStartAlreadyStarted(t *testing.T) {
	a := newTestApi(newMockNode(t))

	ctx := t.Context()
	err := a.Start(ctx)
	require.NoError(t, err)
	defer func() {
		stopCtx, stopCancel := context.WithTimeout(
			context.Background(),
			5*time.Second,
		)
		defer stopCancel()
		_ = a.Stop(stopCtx)
	}()

	err = a.Start(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already started")
}

func TestHandleHealth(t *testing.T) {
	a := newTestApi(newMockNode(t))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	a.handleHealth(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(
		t,
		"application/json",
		w.Header().Get("Content-Type"),
	)

	var resp HealthResponse
	err := json.NewDecoder(w.Body).Decode(&resp)
	require.NoError(t, err)
	assert.True(t, resp.IsHealthy)
}

func TestHandleTokenInfo(t *testing.T) {
	a := newTestApi(newMockNode(t))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/token", nil)
	w := httptest.NewRecorder()
	a.handleTokenInfo(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp TokenInfoResponse
	err := json.NewDecoder(w.Body).Decode(&resp)
	require.NoError(t, err)
	assert.Equal(t, "owner", resp.Owner)
	assert.Equal(t, uint64(200), resp.BurnRate)
	assert.Equal(t, uint64(500), resp.RewardRate)
	assert.Equal(t, "1000000", resp.TotalSupply)
	assert.Equal(t, "0", resp.TotalBurned)
}

func TestHandleTokenAccount(t *testing.T) {
	a := newTestApi(newMockNode(t))

	req := httptest.NewRequest(
		http.MethodGet,
		"/api/v1/token/accounts/alice",
		nil,
	)
	req.SetPathValue("address", "alice")
	w := httptest.NewRecorder()
	a.handleTokenAccount(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp TokenAccountResponse
	err := json.NewDecoder(w.Body).Decode(&resp)
	require.NoError(t, err)
	assert.Equal(t, "alice", resp.Address)
	assert.Equal(t, "1000000", resp.Balance)
	assert.Empty(t, resp.StakeAmount)
}

func TestHandleTransfer(t *testing.T) {
	mock := newMockNode(t)
	a := newTestApi(mock)

	req := postRequest(t, "/api/v1/token/transfer", TransferRequest{
		TxRequest: TxRequest{Caller: "alice", Timestamp: 100},
		To:        "bob",
		Amount:    "1000",
	})
	w := httptest.NewRecorder()
	a.handleTransfer(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	// 2% of the transfer is burned
	assert.True(
		t,
		mock.tokenLedger.BalanceOf("bob").Eq(uint256.NewInt(980)),
	)
}

func TestHandleTransferInsufficientBalance(t *testing.T) {
	a := newTestApi(newMockNode(t))

	req := postRequest(t, "/api/v1/token/transfer", TransferRequest{
		TxRequest: TxRequest{Caller: "bob", Timestamp: 100},
		To:        "alice",
		Amount:    "1000",
	})
	w := httptest.NewRecorder()
	a.handleTransfer(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var resp ErrorResponse
	err := json.NewDecoder(w.Body).Decode(&resp)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, resp.Message, "insufficient balance")
}

func TestHandleTransferInvalidAmount(t *testing.T) {
	a := newTestApi(newMockNode(t))

	req := postRequest(t, "/api/v1/token/transfer", TransferRequest{
		TxRequest: TxRequest{Caller: "alice", Timestamp: 100},
		To:        "bob",
		Amount:    "not-a-number",
	})
	w := httptest.NewRecorder()
	a.handleTransfer(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleTransferInvalidBody(t *testing.T) {
	a := newTestApi(newMockNode(t))

	req := httptest.NewRequest(
		http.MethodPost,
		"/api/v1/token/transfer",
		bytes.NewReader([]byte("{not json")),
	)
	w := httptest.NewRecorder()
	a.handleTransfer(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleStakeUnstake(t *testing.T) {
	mock := newMockNode(t)
	a := newTestApi(mock)

	req := postRequest(t, "/api/v1/token/stake", StakeRequest{
		TxRequest: TxRequest{Caller: "alice", Timestamp: 1000},
		Amount:    "100000",
	})
	w := httptest.NewRecorder()
	a.handleStake(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req = postRequest(t, "/api/v1/token/unstake", TxRequest{
		Caller:    "alice",
		Timestamp: 1000 + ledger.SecondsPerYear,
	})
	w = httptest.NewRecorder()
	a.handleUnstake(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp UnstakeResponse
	err := json.NewDecoder(w.Body).Decode(&resp)
	require.NoError(t, err)
	assert.Equal(t, "100000", resp.Principal)
	assert.Equal(t, "5000", resp.Reward)
}

func TestHandleUnstakeNoStake(t *testing.T) {
	a := newTestApi(newMockNode(t))

	req := postRequest(t, "/api/v1/token/unstake", TxRequest{
		Caller:    "alice",
		Timestamp: 100,
	})
	w := httptest.NewRecorder()
	a.handleUnstake(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleSetBurnRate(t *testing.T) {
	mock := newMockNode(t)
	a := newTestApi(mock)

	req := postRequest(t, "/api/v1/token/burn-rate", RateRequest{
		TxRequest: TxRequest{Caller: "owner"},
		Rate:      300,
	})
	w := httptest.NewRecorder()
	a.handleSetBurnRate(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, uint64(300), mock.tokenLedger.BurnRate())

	// Non-owner is rejected
	req = postRequest(t, "/api/v1/token/burn-rate", RateRequest{
		TxRequest: TxRequest{Caller: "alice"},
		Rate:      100,
	})
	w = httptest.NewRecorder()
	a.handleSetBurnRate(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestHandleMarketInfo(t *testing.T) {
	a := newTestApi(newMockNode(t))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/market", nil)
	w := httptest.NewRecorder()
	a.handleMarketInfo(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp MarketInfoResponse
	err := json.NewDecoder(w.Body).Decode(&resp)
	require.NoError(t, err)
	assert.Equal(t, "owner", resp.Owner)
	assert.Equal(t, uint64(250), resp.FeeBps)
	assert.Equal(t, uint64(1), resp.NextAssetID)
	assert.Equal(t, "0", resp.AccruedFees)
}

func TestHandleMintAndAsset(t *testing.T) {
	mock := newMockNode(t)
	a := newTestApi(mock)

	req := postRequest(t, "/api/v1/market/mint", MintRequest{
		TxRequest: TxRequest{Caller: "seller", Timestamp: 100},
		URI:       "ipfs://meta/1",
		Price:     "5000",
	})
	w := httptest.NewRecorder()
	a.handleMint(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var mintResp MintResponse
	err := json.NewDecoder(w.Body).Decode(&mintResp)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), mintResp.AssetID)

	req = httptest.NewRequest(
		http.MethodGet,
		"/api/v1/market/assets/1",
		nil,
	)
	req.SetPathValue("id", "1")
	w = httptest.NewRecorder()
	a.handleMarketAsset(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp AssetResponse
	err = json.NewDecoder(w.Body).Decode(&resp)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), resp.ID)
	assert.Equal(t, "seller", resp.Owner)
	assert.Equal(t, "ipfs://meta/1", resp.URI)
	require.NotNil(t, resp.Listing)
	assert.Equal(t, "5000", resp.Listing.Price)
	assert.Nil(t, resp.Auction)
}

func TestHandleMarketAssetNotFound(t *testing.T) {
	a := newTestApi(newMockNode(t))

	req := httptest.NewRequest(
		http.MethodGet,
		"/api/v1/market/assets/42",
		nil,
	)
	req.SetPathValue("id", "42")
	w := httptest.NewRecorder()
	a.handleMarketAsset(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleMarketAssetInvalidId(t *testing.T) {
	a := newTestApi(newMockNode(t))

	req := httptest.NewRequest(
		http.MethodGet,
		"/api/v1/market/assets/abc",
		nil,
	)
	req.SetPathValue("id", "abc")
	w := httptest.NewRecorder()
	a.handleMarketAsset(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleBuy(t *testing.T) {
	mock := newMockNode(t)
	a := newTestApi(mock)

	_, err := mock.marketLedger.Mint(
		ledger.TxContext{Caller: "seller", Timestamp: 100},
		"ipfs://meta/1",
		uint256.NewInt(10_000),
	)
	require.NoError(t, err)

	req := postRequest(t, "/api/v1/market/assets/1/buy", BuyRequest{
		TxRequest: TxRequest{Caller: "buyer", Timestamp: 200},
		Payment:   "10000",
	})
	req.SetPathValue("id", "1")
	w := httptest.NewRecorder()
	a.handleBuy(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	owner, ok := mock.marketLedger.OwnerOf(1)
	require.True(t, ok)
	assert.Equal(t, ledger.Address("buyer"), owner)

	// The listing is gone now
	req = postRequest(t, "/api/v1/market/assets/1/buy", BuyRequest{
		TxRequest: TxRequest{Caller: "other", Timestamp: 300},
		Payment:   "10000",
	})
	req.SetPathValue("id", "1")
	w = httptest.NewRecorder()
	a.handleBuy(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleAuctionFlow(t *testing.T) {
	mock := newMockNode(t)
	a := newTestApi(mock)

	_, err := mock.marketLedger.Mint(
		ledger.TxContext{Caller: "seller", Timestamp: 100},
		"ipfs://meta/1",
		uint256.NewInt(10_000),
	)
	require.NoError(t, err)

	req := postRequest(
		t,
		"/api/v1/market/assets/1/auction",
		StartAuctionRequest{
			TxRequest:  TxRequest{Caller: "seller", Timestamp: 1000},
			StartPrice: "1000",
			Duration:   3600,
		},
	)
	req.SetPathValue("id", "1")
	w := httptest.NewRecorder()
	a.handleStartAuction(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req = postRequest(t, "/api/v1/market/assets/1/bid", BidRequest{
		TxRequest: TxRequest{Caller: "bidder", Timestamp: 1100},
		Amount:    "2000",
	})
	req.SetPathValue("id", "1")
	w = httptest.NewRecorder()
	a.handlePlaceBid(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	// Settling early conflicts
	req = postRequest(t, "/api/v1/market/assets/1/settle", TxRequest{
		Caller:    "anyone",
		Timestamp: 1200,
	})
	req.SetPathValue("id", "1")
	w = httptest.NewRecorder()
	a.handleEndAuction(w, req)
	assert.Equal(t, http.StatusConflict, w.Code)

	req = postRequest(t, "/api/v1/market/assets/1/settle", TxRequest{
		Caller:    "anyone",
		Timestamp: 4600,
	})
	req.SetPathValue("id", "1")
	w = httptest.NewRecorder()
	a.handleEndAuction(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	owner, ok := mock.marketLedger.OwnerOf(1)
	require.True(t, ok)
	assert.Equal(t, ledger.Address("bidder"), owner)
}

func TestHandleUpdateFee(t *testing.T) {
	mock := newMockNode(t)
	a := newTestApi(mock)

	req := postRequest(t, "/api/v1/market/fee", FeeRequest{
		TxRequest: TxRequest{Caller: "owner"},
		FeeBps:    500,
	})
	w := httptest.NewRecorder()
	a.handleUpdateFee(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, uint64(500), mock.marketLedger.Fee())

	req = postRequest(t, "/api/v1/market/fee", FeeRequest{
		TxRequest: TxRequest{Caller: "other"},
		FeeBps:    100,
	})
	w = httptest.NewRecorder()
	a.handleUpdateFee(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestHandleEvents(t *testing.T) {
	mock := newMockNode(t)
	mock.events = []database.EventLogEntry{
		{Seq: 0, Type: "token.burn", Data: json.RawMessage(`{}`)},
		{Seq: 1, Type: "marketplace.listed", Data: json.RawMessage(`{}`)},
		{Seq: 2, Type: "marketplace.purchased", Data: json.RawMessage(`{}`)},
	}
	a := newTestApi(mock)

	req := httptest.NewRequest(
		http.MethodGet,
		"/api/v1/events?start=1&limit=1",
		nil,
	)
	w := httptest.NewRecorder()
	a.handleEvents(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var entries []database.EventLogEntry
	err := json.NewDecoder(w.Body).Decode(&entries)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, uint64(1), entries[0].Seq)
	assert.Equal(t, "marketplace.listed", entries[0].Type)
}

func TestHandleEventsEmpty(t *testing.T) {
	a := newTestApi(newMockNode(t))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/events", nil)
	w := httptest.NewRecorder()
	a.handleEvents(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	// An empty log serializes as an empty array, not null
	assert.Equal(t, "[]\n", w.Body.String())
}

func TestHandleEventsInvalidParams(t *testing.T) {
	a := newTestApi(newMockNode(t))

	req := httptest.NewRequest(
		http.MethodGet,
		"/api/v1/events?start=abc",
		nil,
	)
	w := httptest.NewRecorder()
	a.handleEvents(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
