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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type ledgerMetrics struct {
	mintsTotal      prometheus.Counter
	salesTotal      prometheus.Counter
	auctionsStarted prometheus.Counter
	auctionsSettled prometheus.Counter
	bidsTotal       prometheus.Counter
	activeListings  prometheus.Gauge
	activeAuctions  prometheus.Gauge
}

func (m *ledgerMetrics) init(promRegistry prometheus.Registerer) {
	promautoFactory := promauto.With(promRegistry)
	m.mintsTotal = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "souk_marketplace_mints_total",
		Help: "total assets minted",
	})
	m.salesTotal = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "souk_marketplace_sales_total",
		Help: "total fixed-price sales",
	})
	m.auctionsStarted = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "souk_marketplace_auctions_started_total",
		Help: "total auctions started",
	})
	m.auctionsSettled = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "souk_marketplace_auctions_settled_total",
		Help: "total auctions settled",
	})
	m.bidsTotal = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "souk_marketplace_bids_total",
		Help: "total accepted auction bids",
	})
	m.activeListings = promautoFactory.NewGauge(prometheus.GaugeOpts{
		Name: "souk_marketplace_active_listings",
		Help: "current count of fixed-price listings",
	})
	m.activeAuctions = promautoFactory.NewGauge(prometheus.GaugeOpts{
		Name: "souk_marketplace_active_auctions",
		Help: "current count of active auctions",
	})
}
