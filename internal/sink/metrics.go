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

package sink

import "github.com/prometheus/client_golang/prometheus"

var (
	EntriesWritten = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "collector",
		Name:      "sink_entries_written_total",
		Help:      "Total number of NDJSON entries appended to the output sink",
	})
	WriteErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "collector",
		Name:      "sink_write_errors_total",
		Help:      "Total number of failures writing or marshalling a sink entry",
	})
	BytesWritten = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "collector",
		Name:      "sink_bytes_written_total",
		Help:      "Total uncompressed NDJSON bytes handed to the output sink's gzip writer",
	})
)
