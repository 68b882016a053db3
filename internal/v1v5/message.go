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
	"encoding/binary"
	"fmt"
	"io"

	"github.com/flowforge/netflow-collector/internal/wire"
)

const (
	v1HeaderSize = 16
	v1RecordSize = 48
	v5HeaderSize = 24
	v5RecordSize = 48
)

// lenReader is satisfied by *bytes.Buffer, which is what every caller of
// V1Message.Decode/V5Message.Decode passes: it lets us read off the
// datagram's total size before consuming it, to check the length-consistency
// invariant below.
type lenReader interface {
	Len() int
}

// V1Message is a decoded NetFlow v1 export packet: a 16-byte header
// (version, count, sysUpTime, unixSecs, unixNsecs) followed by Count
// fixed-layout 48-byte records, grounded on v1.py's V1Header/V1ExportPacket.
type V1Message struct {
	Version   uint16            `json:"version,omitempty" yaml:"version,omitempty"`
	Count     uint16            `json:"count,omitempty" yaml:"count,omitempty"`
	SysUpTime uint32            `json:"sys_up_time,omitempty" yaml:"sysUpTime,omitempty"`
	UnixSecs  uint32            `json:"unix_secs,omitempty" yaml:"unixSecs,omitempty"`
	UnixNsecs uint32            `json:"unix_nsecs,omitempty" yaml:"unixNsecs,omitempty"`
	Records   []wire.DataRecord `json:"records,omitempty" yaml:"records,omitempty"`
}

func (m *V1Message) Decode(r io.Reader) (int, error) {
	n, err := decodeHeader16(r, &m.Version, &m.Count, &m.SysUpTime, &m.UnixSecs, &m.UnixNsecs)
	if err != nil {
		return n, err
	}
	if m.Version != 1 {
		return n, fmt.Errorf("not a NetFlow v1 packet, got version %d", m.Version)
	}

	if lr, ok := r.(lenReader); ok {
		datagramLength := n + lr.Len()
		expected := v1HeaderSize + int(m.Count)*v1RecordSize
		if expected != datagramLength {
			return n, wire.MalformedPacket(fmt.Sprintf(
				"v1 packet: count=%d implies %d bytes (%d header + %d*%d records), datagram is %d bytes",
				m.Count, expected, v1HeaderSize, m.Count, v1RecordSize, datagramLength))
		}
	}

	m.Records = make([]wire.DataRecord, 0, m.Count)
	for i := uint16(0); i < m.Count; i++ {
		rec, rn, err := decodeV1Record(r)
		n += rn
		if err != nil {
			return n, fmt.Errorf("failed to decode v1 record %d/%d, %w", i+1, m.Count, err)
		}
		m.Records = append(m.Records, *rec)
	}
	return n, nil
}

func (m *V1Message) String() string {
	return fmt.Sprintf("{version:%d count:%d sysUpTime:%d unixSecs:%d unixNsecs:%d records:%d}",
		m.Version, m.Count, m.SysUpTime, m.UnixSecs, m.UnixNsecs, len(m.Records))
}

// V5Message is a decoded NetFlow v5 export packet: a 24-byte header
// (version, count, sysUpTime, unixSecs, unixNsecs, sequenceNumber,
// engineType, engineId, samplingInterval) followed by Count fixed-layout
// 48-byte records, grounded on v5.py's V5Header/V5ExportPacket.
type V5Message struct {
	Version           uint16            `json:"version,omitempty" yaml:"version,omitempty"`
	Count             uint16            `json:"count,omitempty" yaml:"count,omitempty"`
	SysUpTime         uint32            `json:"sys_up_time,omitempty" yaml:"sysUpTime,omitempty"`
	UnixSecs          uint32            `json:"unix_secs,omitempty" yaml:"unixSecs,omitempty"`
	UnixNsecs         uint32            `json:"unix_nsecs,omitempty" yaml:"unixNsecs,omitempty"`
	SequenceNumber    uint32            `json:"sequence_number,omitempty" yaml:"sequenceNumber,omitempty"`
	EngineType        uint8             `json:"engine_type,omitempty" yaml:"engineType,omitempty"`
	EngineId          uint8             `json:"engine_id,omitempty" yaml:"engineId,omitempty"`
	SamplingInterval  uint16            `json:"sampling_interval,omitempty" yaml:"samplingInterval,omitempty"`
	Records           []wire.DataRecord `json:"records,omitempty" yaml:"records,omitempty"`
}

func (m *V5Message) Decode(r io.Reader) (int, error) {
	var carry int
	short := make([]byte, 2)
	long := make([]byte, 4)

	n, err := io.ReadFull(r, short)
	carry += n
	if err != nil {
		return carry, err
	}
	m.Version = binary.BigEndian.Uint16(short)
	if m.Version != 5 {
		return carry, fmt.Errorf("not a NetFlow v5 packet, got version %d", m.Version)
	}

	n, err = io.ReadFull(r, short)
	carry += n
	if err != nil {
		return carry, err
	}
	m.Count = binary.BigEndian.Uint16(short)

	for _, dst := range []*uint32{&m.SysUpTime, &m.UnixSecs, &m.UnixNsecs, &m.SequenceNumber} {
		n, err = io.ReadFull(r, long)
		carry += n
		if err != nil {
			return carry, err
		}
		*dst = binary.BigEndian.Uint32(long)
	}

	eng := make([]byte, 2)
	n, err = io.ReadFull(r, eng)
	carry += n
	if err != nil {
		return carry, err
	}
	m.EngineType = eng[0]
	m.EngineId = eng[1]

	n, err = io.ReadFull(r, short)
	carry += n
	if err != nil {
		return carry, err
	}
	m.SamplingInterval = binary.BigEndian.Uint16(short)

	if lr, ok := r.(lenReader); ok {
		datagramLength := carry + lr.Len()
		expected := v5HeaderSize + int(m.Count)*v5RecordSize
		if expected != datagramLength {
			return carry, wire.MalformedPacket(fmt.Sprintf(
				"v5 packet: count=%d implies %d bytes (%d header + %d*%d records), datagram is %d bytes",
				m.Count, expected, v5HeaderSize, m.Count, v5RecordSize, datagramLength))
		}
	}

	m.Records = make([]wire.DataRecord, 0, m.Count)
	for i := uint16(0); i < m.Count; i++ {
		rec, rn, err := decodeV5Record(r)
		carry += rn
		if err != nil {
			return carry, fmt.Errorf("failed to decode v5 record %d/%d, %w", i+1, m.Count, err)
		}
		m.Records = append(m.Records, *rec)
	}
	return carry, nil
}

func (m *V5Message) String() string {
	return fmt.Sprintf("{version:%d count:%d sysUpTime:%d unixSecs:%d unixNsecs:%d sequenceNumber:%d engineType:%d engineId:%d samplingInterval:%d records:%d}",
		m.Version, m.Count, m.SysUpTime, m.UnixSecs, m.UnixNsecs, m.SequenceNumber, m.EngineType, m.EngineId, m.SamplingInterval, len(m.Records))
}

// decodeHeader16 reads the 16-byte NetFlow v1 header: version, count,
// sysUpTime, unixSecs, unixNsecs.
func decodeHeader16(r io.Reader, version, count *uint16, sysUpTime, unixSecs, unixNsecs *uint32) (int, error) {
	var carry int
	short := make([]byte, 2)
	long := make([]byte, 4)

	n, err := io.ReadFull(r, short)
	carry += n
	if err != nil {
		return carry, err
	}
	*version = binary.BigEndian.Uint16(short)

	n, err = io.ReadFull(r, short)
	carry += n
	if err != nil {
		return carry, err
	}
	*count = binary.BigEndian.Uint16(short)

	for _, dst := range []*uint32{sysUpTime, unixSecs, unixNsecs} {
		n, err = io.ReadFull(r, long)
		carry += n
		if err != nil {
			return carry, err
		}
		*dst = binary.BigEndian.Uint32(long)
	}

	return carry, nil
}
