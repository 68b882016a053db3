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
	"fmt"
	"io"

	"github.com/flowforge/netflow-collector/internal/wire"
)

// decodeFixedRecord reads one record of cols columns, in order, discarding
// padBytes after the ports (v1 has 2, v5 has 1) and padBytesAtEnd at the end
// of the record (v1 has 7, v5 has 2), matching the exact byte layouts in
// v1.py/v5.py's struct.unpack format strings.
func decodeFixedRecord(r io.Reader, cols []column, padAfterPorts, padAtEnd int) (*wire.DataRecord, int, error) {
	fields := make([]wire.Field, 0, len(cols))
	n := 0
	for idx, c := range cols {
		f := c.field()
		m, err := f.Decode(r)
		n += m
		if err != nil {
			return nil, n, fmt.Errorf("failed to decode field %d (%s), %w", idx, c.name, err)
		}
		fields = append(fields, f)

		if c.name == "L4_DST_PORT" && padAfterPorts > 0 {
			pad := make([]byte, padAfterPorts)
			pn, err := io.ReadFull(r, pad)
			n += pn
			if err != nil {
				return nil, n, fmt.Errorf("failed to read padding after ports, %w", err)
			}
		}
	}

	if padAtEnd > 0 {
		pad := make([]byte, padAtEnd)
		pn, err := io.ReadFull(r, pad)
		n += pn
		if err != nil {
			return nil, n, fmt.Errorf("failed to read trailing padding, %w", err)
		}
	}

	return &wire.DataRecord{
		FieldCount: uint16(len(fields)),
		Fields:     fields,
	}, n, nil
}

func decodeV1Record(r io.Reader) (*wire.DataRecord, int, error) {
	return decodeFixedRecord(r, v1Columns, v1PadAfterPorts, v1PadAtEnd)
}

func decodeV5Record(r io.Reader) (*wire.DataRecord, int, error) {
	return decodeFixedRecord(r, v5Columns, v5PadAfterPorts, v5PadAtEnd)
}
