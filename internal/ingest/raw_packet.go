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

import (
	"net"
	"time"
)

// RawPacket is a single UDP datagram as received off the wire, still
// completely unparsed. It carries the sender address and the time it was
// pulled off the socket, both of which the decode/reconcile layers need to
// derive an exporter key and to age entries out of the pending-packet
// buffer, respectively.
type RawPacket struct {
	ReceivedAt time.Time
	Client     *net.UDPAddr
	Data       []byte
}
