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

package v9

import "github.com/prometheus/client_golang/prometheus"

// Metric names are kept distinct from internal/wire's decoder_* series
// (v9_decoder_* here vs decoder_* there) so that both can be registered
// against the same Prometheus registry without a name collision, even
// though the two decoders otherwise share most of their machinery.
var (
	PacketsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "collector",
		Name:      "v9_decoder_packets_total",
		Help:      "Total number of decoded NetFlow v9 packets",
	})
	ErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "collector",
		Name:      "v9_decoder_errors_total",
		Help:      "Total number of errors while decoding NetFlow v9 packets",
	})
	DurationMicroseconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "collector",
		Name:      "v9_decoder_duration_microseconds",
		Help:      "Duration of NetFlow v9 packet decoding in microseconds",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
	})
	DecodedSets = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "collector",
		Name:      "v9_decoder_decoded_sets_total",
		Help:      "Total number of decoded NetFlow v9 flowsets per type",
	}, []string{"type"})
	DecodedRecords = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "collector",
		Name:      "v9_decoder_decoded_records_total",
		Help:      "Total number of decoded NetFlow v9 records per type",
	}, []string{"type"})
)
