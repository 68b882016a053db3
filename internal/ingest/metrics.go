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

package ingest

import "github.com/prometheus/client_golang/prometheus"

var (
	UDPPacketsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "collector",
		Name:      "udp_listener_packets_total",
		Help:      "Total number of packets received via UDP listener",
	})
	UDPErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "collector",
		Name:      "udp_listener_errors_total",
		Help:      "Total number of errors encountered in the UDP listener",
	})
	UDPPacketBytes = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "collector",
		Name:      "udp_listener_packet_bytes",
		Help:      "Total number of bytes read in the UDP listener",
	})
)
