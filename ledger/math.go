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
	"github.com/holiman/uint256"
)

const (
	// BpsDenominator is the basis-point divisor: 10000 bps = 100%.
	BpsDenominator = 10000
	// MaxRateBps is the upper bound for the token burn/reward rates and
	// per-asset royalties (10%). The marketplace fee is deliberately
	// excluded from this bound.
	MaxRateBps = 1000
	// SecondsPerYear is the fixed year length used for reward accrual.
	SecondsPerYear = 365 * 24 * 3600
)

// BpsShare returns floor(amount * bps / 10000). Returns ErrArithmeticOverflow
// if the intermediate product does not fit in 256 bits.
func BpsShare(amount *uint256.Int, bps uint64) (*uint256.Int, error) {
	product, overflow := new(uint256.Int).MulOverflow(
		amount,
		uint256.NewInt(bps),
	)
	if overflow {
		return nil, ErrArithmeticOverflow
	}
	// Div truncates, giving us the explicit floor semantics
	return product.Div(product, uint256.NewInt(BpsDenominator)), nil
}

// StakeReward returns floor(principal * rateBps * duration / (10000 * SecondsPerYear)),
// the time-proportional reward for a stake held for duration seconds.
func StakeReward(
	principal *uint256.Int,
	rateBps uint64,
	duration uint64,
) (*uint256.Int, error) {
	product, overflow := new(uint256.Int).MulOverflow(
		principal,
		uint256.NewInt(rateBps),
	)
	if overflow {
		return nil, ErrArithmeticOverflow
	}
	product, overflow = product.MulOverflow(
		product,
		uint256.NewInt(duration),
	)
	if overflow {
		return nil, ErrArithmeticOverflow
	}
	return product.Div(
		product,
		uint256.NewInt(BpsDenominator*SecondsPerYear),
	), nil
}

// SafeAdd returns x + y or ErrArithmeticOverflow. The inputs are not modified.
func SafeAdd(x, y *uint256.Int) (*uint256.Int, error) {
	sum, overflow := new(uint256.Int).AddOverflow(x, y)
	if overflow {
		return nil, ErrArithmeticOverflow
	}
	return sum, nil
}

// SafeAddUint64 returns x + y or ErrArithmeticOverflow. Used for timestamp
// arithmetic, which stays in uint64.
func SafeAddUint64(x, y uint64) (uint64, error) {
	sum := x + y
	if sum < x {
		return 0, ErrArithmeticOverflow
	}
	return sum, nil
}
