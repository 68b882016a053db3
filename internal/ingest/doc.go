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

// Package ingest owns the UDP front door: binding the listening socket,
// reading datagrams off it, and handing them to the rest of the collector
// as RawPacket values on a channel. It knows nothing about NetFlow/IPFIX
// wire formats; that starts one layer up, once a packet's sender address
// is used to derive its exporter key.
package ingest
