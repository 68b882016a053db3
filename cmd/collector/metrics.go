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

package main

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/flowforge/netflow-collector/internal/ingest"
	"github.com/flowforge/netflow-collector/internal/reconcile"
	"github.com/flowforge/netflow-collector/internal/sink"
	"github.com/flowforge/netflow-collector/internal/v1v5"
	"github.com/flowforge/netflow-collector/internal/v9"
	"github.com/flowforge/netflow-collector/internal/wire"
)

// registerMetrics registers every component's Prometheus collectors
// against the default registry. None of the library packages call
// MustRegister themselves — registration is the binary's job, not the
// library's, so it only happens here.
func registerMetrics() {
	prometheus.MustRegister(
		wire.PacketsTotal, wire.ErrorsTotal, wire.DurationMicroseconds,
		wire.DecodedSets, wire.DecodedRecords, wire.DroppedRecords,

		v9.PacketsTotal, v9.ErrorsTotal, v9.DurationMicroseconds,
		v9.DecodedSets, v9.DecodedRecords,

		v1v5.PacketsTotal, v1v5.ErrorsTotal, v1v5.DurationMicroseconds,
		v1v5.DecodedRecords,

		ingest.UDPPacketsTotal, ingest.UDPErrorsTotal, ingest.UDPPacketBytes,

		reconcile.ForwardedTotal, reconcile.DroppedTotal, reconcile.PendingTotal,

		sink.EntriesWritten, sink.WriteErrorsTotal, sink.BytesWritten,
	)
}
