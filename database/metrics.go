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

package database

import "github.com/prometheus/client_golang/prometheus"

const blobMetricNamePrefix = "souk_database_blob_"

func (d *Database) registerBlobMetrics() {
	lsmSize := prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: blobMetricNamePrefix + "lsm_size_bytes",
			Help: "Current size of the blob store LSM tree",
		},
		func() float64 {
			lsm, _ := d.blob.Size()
			return float64(lsm)
		},
	)
	vlogSize := prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: blobMetricNamePrefix + "vlog_size_bytes",
			Help: "Current size of the blob store value log",
		},
		func() float64 {
			_, vlog := d.blob.Size()
			return float64(vlog)
		},
	)
	d.promRegistry.MustRegister(lsmSize, vlogSize)
}
