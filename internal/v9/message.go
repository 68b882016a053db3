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

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/flowforge/netflow-collector/internal/wire"
)

// Message is a decoded NetFlow v9 export packet (RFC 3954 section 5). Unlike
// IPFIX, the header carries no packet length; instead Count gives the total
// number of flowset records (template, options template, and data combined)
// carried in the packet, and SourceId takes the role IPFIX gives the
// Observation Domain ID.
type Message struct {
	Version        uint16     `json:"version,omitempty" yaml:"version,omitempty"`
	Count          uint16     `json:"count,omitempty" yaml:"count,omitempty"`
	SysUpTime      uint32     `json:"sys_up_time,omitempty" yaml:"sysUpTime,omitempty"`
	UnixSecs       uint32     `json:"unix_secs,omitempty" yaml:"unixSecs,omitempty"`
	SequenceNumber uint32     `json:"sequence_number,omitempty" yaml:"sequenceNumber,omitempty"`
	SourceId       uint32     `json:"source_id,omitempty" yaml:"sourceId,omitempty"`
	Sets           []wire.Set `json:"sets,omitempty" yaml:"sets,omitempty"`
}

func (m *Message) String() string {
	s := make([]string, 0, len(m.Sets))
	for _, set := range m.Sets {
		s = append(s, set.String())
	}
	return fmt.Sprintf("{version:%d count:%d sysUpTime:%d unixSecs:%d sequenceNumber:%d sourceId:%d sets:%v}",
		m.Version, m.Count, m.SysUpTime, m.UnixSecs, m.SequenceNumber, m.SourceId, s,
	)
}

func (m *Message) Encode(w io.Writer) (int, error) {
	b := make([]byte, 0, 20)
	b = binary.BigEndian.AppendUint16(b, m.Version)
	b = binary.BigEndian.AppendUint16(b, m.Count)
	b = binary.BigEndian.AppendUint32(b, m.SysUpTime)
	b = binary.BigEndian.AppendUint32(b, m.UnixSecs)
	b = binary.BigEndian.AppendUint32(b, m.SequenceNumber)
	b = binary.BigEndian.AppendUint32(b, m.SourceId)

	nh, err := w.Write(b)
	if err != nil {
		return nh, err
	}

	var nb int
	for _, fs := range m.Sets {
		nfs, err := fs.Encode(w)
		nb += nfs
		if err != nil {
			return nh + nb, err
		}
	}
	return nh + nb, nil
}

// Decode reads the 20-byte NetFlow v9 packet header: version, count,
// sysUpTime, unixSecs, sequenceNumber, sourceId, each as documented above.
func (m *Message) Decode(r io.Reader) (int, error) {
	var carry int
	short := make([]byte, 2)
	long := make([]byte, 4)

	n, err := r.Read(short)
	carry += n
	if err != nil {
		return carry, err
	}
	m.Version = binary.BigEndian.Uint16(short)
	if m.Version != 9 {
		return carry, fmt.Errorf("not a NetFlow v9 packet, got version %d", m.Version)
	}

	n, err = r.Read(short)
	carry += n
	if err != nil {
		return carry, err
	}
	m.Count = binary.BigEndian.Uint16(short)

	n, err = r.Read(long)
	carry += n
	if err != nil {
		return carry, err
	}
	m.SysUpTime = binary.BigEndian.Uint32(long)

	n, err = r.Read(long)
	carry += n
	if err != nil {
		return carry, err
	}
	m.UnixSecs = binary.BigEndian.Uint32(long)

	n, err = r.Read(long)
	carry += n
	if err != nil {
		return carry, err
	}
	m.SequenceNumber = binary.BigEndian.Uint32(long)

	n, err = r.Read(long)
	carry += n
	if err != nil {
		return carry, err
	}
	m.SourceId = binary.BigEndian.Uint32(long)

	return carry, nil
}
