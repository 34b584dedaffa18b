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

package ledger

import (
	"errors"
	"fmt"
)

// ErrArithmeticOverflow is returned when an amount computation does not fit
// in 256 bits. The host blockchain provides this check implicitly; here it
// must be explicit.
var ErrArithmeticOverflow = errors.New("arithmetic overflow")

// UnauthorizedError is returned when a non-owner identity calls an
// owner-only operation.
type UnauthorizedError struct {
	Caller    Address
	Operation string
}

func (e *UnauthorizedError) Error() string {
	return fmt.Sprintf(
		"unauthorized: %s may not call %s",
		e.Caller,
		e.Operation,
	)
}

// RateTooHighError is returned when a basis-point rate exceeds MaxRateBps.
type RateTooHighError struct {
	Rate uint64
}

func (e *RateTooHighError) Error() string {
	return fmt.Sprintf(
		"rate too high: %d bps exceeds maximum of %d bps",
		e.Rate,
		MaxRateBps,
	)
}
