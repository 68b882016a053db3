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

package reconcile

import "github.com/prometheus/client_golang/prometheus"

var (
	ForwardedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "collector",
		Name:      "reconcile_forwarded_total",
		Help:      "Total number of packets successfully decoded and forwarded to the sink",
	})
	DroppedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "collector",
		Name:      "reconcile_dropped_total",
		Help:      "Total number of packets dropped by the reconciliation engine, by reason",
	}, []string{"reason"})
	PendingTotal = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "collector",
		Name:      "reconcile_pending_packets",
		Help:      "Current number of packets deferred in the pending-packet buffer",
	})
)

func (e *Engine) initMetrics() {
	ForwardedTotal.Add(0)
	for _, reason := range []string{"aged_out", "buffer_full", "malformed"} {
		DroppedTotal.WithLabelValues(reason).Add(0)
	}
	PendingTotal.Set(0)
}

type engineMetrics struct {
	Forwarded int64
	Dropped   int64
}
