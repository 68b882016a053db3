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

import (
	"bytes"
	"fmt"
	"time"
)

// Decoder decodes NetFlow v1 and v5 export packets. Unlike v9 and IPFIX,
// neither version carries templates, so there is no cache to thread
// through, no out-of-order reconciliation, and decoding a packet never
// fails because of an unresolved reference: a malformed packet is the only
// failure mode.
type Decoder struct{}

// NewDecoder creates a v1/v5 Decoder. It holds no state: every record's
// shape is fixed at compile time.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// DecodeV1 decodes a full NetFlow v1 export packet.
func (d *Decoder) DecodeV1(payload *bytes.Buffer) (msg *V1Message, err error) {
	start := time.Now()
	defer func() {
		DurationMicroseconds.WithLabelValues("v1").Observe(float64(time.Since(start).Nanoseconds()) / 1000)
		PacketsTotal.WithLabelValues("v1").Inc()
		if err != nil {
			ErrorsTotal.WithLabelValues("v1").Inc()
		}
	}()

	msg = &V1Message{}
	if _, err = msg.Decode(payload); err != nil {
		return nil, fmt.Errorf("failed to decode NetFlow v1 packet, %w", err)
	}
	DecodedRecords.WithLabelValues("v1").Add(float64(len(msg.Records)))
	return msg, nil
}

// DecodeV5 decodes a full NetFlow v5 export packet.
func (d *Decoder) DecodeV5(payload *bytes.Buffer) (msg *V5Message, err error) {
	start := time.Now()
	defer func() {
		DurationMicroseconds.WithLabelValues("v5").Observe(float64(time.Since(start).Nanoseconds()) / 1000)
		PacketsTotal.WithLabelValues("v5").Inc()
		if err != nil {
			ErrorsTotal.WithLabelValues("v5").Inc()
		}
	}()

	msg = &V5Message{}
	if _, err = msg.Decode(payload); err != nil {
		return nil, fmt.Errorf("failed to decode NetFlow v5 packet, %w", err)
	}
	DecodedRecords.WithLabelValues("v5").Add(float64(len(msg.Records)))
	return msg, nil
}
