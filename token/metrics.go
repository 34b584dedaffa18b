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

package token

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type ledgerMetrics struct {
	transfersTotal prometheus.Counter
	burnsTotal     prometheus.Counter
	stakesTotal    prometheus.Counter
	unstakesTotal  prometheus.Counter
	activeStakes   prometheus.Gauge
	accounts       prometheus.Gauge
}

func (m *ledgerMetrics) init(promRegistry prometheus.Registerer) {
	promautoFactory := promauto.With(promRegistry)
	m.transfersTotal = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "souk_token_transfers_total",
		Help: "total successful token transfers",
	})
	m.burnsTotal = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "souk_token_burns_total",
		Help: "total transfers that destroyed tokens via the burn rate",
	})
	m.stakesTotal = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "souk_token_stakes_total",
		Help: "total stake operations",
	})
	m.unstakesTotal = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "souk_token_unstakes_total",
		Help: "total unstake operations",
	})
	m.activeStakes = promautoFactory.NewGauge(prometheus.GaugeOpts{
		Name: "souk_token_active_stakes",
		Help: "current count of active stake positions",
	})
	m.accounts = promautoFactory.NewGauge(prometheus.GaugeOpts{
		Name: "souk_token_accounts",
		Help: "current count of token accounts",
	})
}
