/*
Copyright 2023 Alexander Bartolomey (github@alexanderbartolomey.de)

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package v1v5

import "github.com/prometheus/client_golang/prometheus"

// Metric names are namespaced v1v5_decoder_* to stay distinct from
// internal/wire's decoder_* series and internal/v9's v9_decoder_* series,
// so all three decoders can register against the same Prometheus registry.
var (
	PacketsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "collector",
		Name:      "v1v5_decoder_packets_total",
		Help:      "Total number of decoded NetFlow v1/v5 packets",
	}, []string{"version"})
	ErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "collector",
		Name:      "v1v5_decoder_errors_total",
		Help:      "Total number of errors while decoding NetFlow v1/v5 packets",
	}, []string{"version"})
	DurationMicroseconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "collector",
		Name:      "v1v5_decoder_duration_microseconds",
		Help:      "Duration of NetFlow v1/v5 packet decoding in microseconds",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
	}, []string{"version"})
	DecodedRecords = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "collector",
		Name:      "v1v5_decoder_decoded_records_total",
		Help:      "Total number of decoded NetFlow v1/v5 records",
	}, []string{"version"})
)
