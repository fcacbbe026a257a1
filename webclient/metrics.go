// Copyright 2025 The packetd Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package webclient

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/edgeworker/webworker/common"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: common.App,
			Name:      "requests_total",
			Help:      "requests handled, by access mode and status code",
		},
		[]string{"mode", "status"},
	)

	bytesSentTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: common.App,
			Name:      "bytes_sent_total",
			Help:      "response bytes written to client sockets",
		},
	)

	bytesReceivedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: common.App,
			Name:      "bytes_received_total",
			Help:      "request bytes read from client sockets",
		},
	)

	clientsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: common.App,
			Name:      "clients_active",
			Help:      "clients currently allocated from the pool",
		},
	)

	slowClientsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: common.App,
			Name:      "slow_clients_total",
			Help:      "requests abandoned for exceeding the header-fetch retry bound",
		},
	)

	compressionRatioSum = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: common.App,
			Name:      "compression_ratio",
			Help:      "observed output/input byte ratio for gzip-chunked responses",
			Buckets:   prometheus.LinearBuckets(0.1, 0.1, 10),
		},
	)
)
