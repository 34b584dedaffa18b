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

// Package ledger provides the primitives shared by the token and marketplace
// ledgers: caller identities, the per-operation transaction context, and
// overflow-checked basis-point arithmetic on 256-bit amounts.
package ledger

// Address is an opaque comparable caller identity. The host execution
// environment is responsible for authentication; by the time an operation
// reaches a ledger the address is trusted.
type Address string

// ZeroAddress is the empty identity. No balance or asset may be assigned to it.
const ZeroAddress Address = ""

// TxContext carries the host-supplied context for a single ledger operation.
// Timestamp is the host's block timestamp in seconds. Ledgers never sample
// wall-clock time themselves, which keeps every operation reproducible.
type TxContext struct {
	Caller    Address
	Timestamp uint64
}
