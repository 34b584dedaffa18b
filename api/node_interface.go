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
	"github.com/blinklabs-io/souk/database"
	"github.com/blinklabs-io/souk/marketplace"
	"github.com/blinklabs-io/souk/token"
)

// ApiNode is the interface that the API server uses to reach the ledgers.
// This decouples the HTTP server from the concrete Node struct and enables
// testing with mock implementations.
type ApiNode interface {
	// TokenLedger returns the fungible token ledger.
	TokenLedger() *token.Ledger

	// MarketLedger returns the marketplace ledger.
	MarketLedger() *marketplace.Ledger

	// Events returns entries from the durable event log starting at the
	// given sequence number.
	Events(startSeq, limit uint64) ([]database.EventLogEntry, error)
}
