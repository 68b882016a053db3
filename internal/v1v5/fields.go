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

// Package v1v5 decodes the fixed-layout NetFlow v1 and v5 export formats
// (grounded on original_source/netflow/v1.py and v5.py). Unlike v9 and
// IPFIX, neither version has a template concept: every record on the wire
// has the same 48-byte shape, known at compile time. Columns are still
// represented as internal/wire Fields, built once per record from a static
// column table below, so that v1/v5 records flow into the same
// internal/wire.DataRecord shape the reconciliation and sink layers already
// consume for v9/IPFIX.
//
// Column ids reuse the numbering NetFlow v9 and IPFIX assign to the same
// measurement (IN_BYTES=1, IN_PKTS=2, PROTOCOL=4, ... IPV4_SRC_ADDR=8, ...)
// so a downstream consumer sees the same field id/name across all four
// protocol versions for the columns they share.
package v1v5

import (
	"github.com/flowforge/netflow-collector/internal/iana/semantics"
	"github.com/flowforge/netflow-collector/internal/iana/status"
	"github.com/flowforge/netflow-collector/internal/wire"
)

// column describes one fixed-width field in a v1 or v5 data record.
type column struct {
	id          uint16
	name        string
	length      uint16
	constructor wire.DataTypeConstructor
}

func (c column) field() wire.Field {
	return wire.NewFieldBuilder(&wire.InformationElement{
		Name:        c.name,
		Id:          c.id,
		Constructor: c.constructor,
		Semantics:   semantics.Undefined,
		Status:      status.Undefined,
	}).SetLength(c.length).Complete()
}

// v1Columns is the 48-byte NetFlow v1 record, grounded on v1.py's
// struct.unpack('!IIIHHIIIIHHxxBBBxxxxxxx', ...): source/dest/next-hop
// address, input/output interface, packet/octet counters, first/last
// switched, src/dst port, 2 pad bytes, protocol, tos, tcp flags, 7 pad
// bytes.
var v1Columns = []column{
	{8, "IPV4_SRC_ADDR", 4, wire.NewIPv4Address},
	{12, "IPV4_DST_ADDR", 4, wire.NewIPv4Address},
	{15, "IPV4_NEXT_HOP", 4, wire.NewIPv4Address},
	{10, "INPUT_SNMP", 2, wire.NewUnsigned16},
	{14, "OUTPUT_SNMP", 2, wire.NewUnsigned16},
	{2, "IN_PKTS", 4, wire.NewUnsigned32},
	{1, "IN_BYTES", 4, wire.NewUnsigned32},
	{22, "FIRST_SWITCHED", 4, wire.NewUnsigned32},
	{21, "LAST_SWITCHED", 4, wire.NewUnsigned32},
	{7, "L4_SRC_PORT", 2, wire.NewUnsigned16},
	{11, "L4_DST_PORT", 2, wire.NewUnsigned16},
	// 2 pad bytes, not modeled as a field
	{4, "PROTOCOL", 1, wire.NewUnsigned8},
	{5, "SRC_TOS", 1, wire.NewUnsigned8},
	{6, "TCP_FLAGS", 1, wire.NewUnsigned8},
	// 7 pad bytes, not modeled as a field
}

const v1PadAfterPorts = 2
const v1PadAtEnd = 7

// v5Columns is the 48-byte NetFlow v5 record, grounded on v5.py's
// struct.unpack("!IIIHHIIIIHHxBBBHHBBxx", ...): source/dest/next-hop
// address, input/output interface, packet/octet counters, first/last
// switched, src/dst port, 1 pad byte, tcp flags, protocol, tos, src/dst AS,
// src/dst mask, 2 pad bytes.
var v5Columns = []column{
	{8, "IPV4_SRC_ADDR", 4, wire.NewIPv4Address},
	{12, "IPV4_DST_ADDR", 4, wire.NewIPv4Address},
	{15, "IPV4_NEXT_HOP", 4, wire.NewIPv4Address},
	{10, "INPUT_SNMP", 2, wire.NewUnsigned16},
	{14, "OUTPUT_SNMP", 2, wire.NewUnsigned16},
	{2, "IN_PKTS", 4, wire.NewUnsigned32},
	{1, "IN_BYTES", 4, wire.NewUnsigned32},
	{22, "FIRST_SWITCHED", 4, wire.NewUnsigned32},
	{21, "LAST_SWITCHED", 4, wire.NewUnsigned32},
	{7, "L4_SRC_PORT", 2, wire.NewUnsigned16},
	{11, "L4_DST_PORT", 2, wire.NewUnsigned16},
	// 1 pad byte, not modeled as a field
	{6, "TCP_FLAGS", 1, wire.NewUnsigned8},
	{4, "PROTOCOL", 1, wire.NewUnsigned8},
	{5, "SRC_TOS", 1, wire.NewUnsigned8},
	{16, "SRC_AS", 2, wire.NewUnsigned16},
	{17, "DST_AS", 2, wire.NewUnsigned16},
	{9, "SRC_MASK", 1, wire.NewUnsigned8},
	{13, "DST_MASK", 1, wire.NewUnsigned8},
	// 2 pad bytes, not modeled as a field
}

const v5PadAfterPorts = 1
const v5PadAtEnd = 2
