package wire

import (
	"bytes"
	"context"
	"encoding/hex"
	"net"
	"testing"
)

func ianaElement(id uint16) *InformationElement {
	v := IANA()[id]
	return &v
}

func newTestDecoder() *Decoder {
	templates := NewDefaultEphemeralCache()
	fields := NewEphemeralFieldCache(templates)
	for id, f := range IANA() {
		if f.Id == 0 {
			f.Id = id
		}
		if err := fields.Add(context.Background(), f); err != nil {
			panic(err)
		}
	}
	return NewDecoder(templates, fields)
}

// v4TemplateFields returns a minimal IPv4 5-tuple-plus-protocol template
// field set, reused across several templates in TestDecoder below.
func v4TemplateFields() []Field {
	return []Field{
		NewFieldBuilder(ianaElement(4)).SetLength(1).Complete(),  // protocolIdentifier
		NewFieldBuilder(ianaElement(8)).SetLength(4).Complete(),  // sourceIPv4Address
		NewFieldBuilder(ianaElement(12)).SetLength(4).Complete(), // destinationIPv4Address
		NewFieldBuilder(ianaElement(7)).SetLength(2).Complete(),  // sourceTransportPort
		NewFieldBuilder(ianaElement(11)).SetLength(2).Complete(), // destinationTransportPort
		NewFieldBuilder(ianaElement(6)).SetLength(2).Complete(),  // tcpControlBits
	}
}

func v4Record(fields []Field, proto int, src, dst string, sport, dport, flags int) DataRecord {
	values := []any{proto, src, dst, sport, dport, flags}
	return DataRecord{Fields: cloneWithValues(fields, values)}
}

func cloneWithValues(fields []Field, values []any) []Field {
	out := make([]Field, len(fields))
	for i, f := range fields {
		out[i] = f.Clone().SetValue(values[i])
	}
	return out
}

func buildTemplateSet(records ...TemplateRecord) Set {
	ts := &TemplateSet{Records: records}
	var scratch bytes.Buffer
	if _, err := ts.Encode(&scratch); err != nil {
		panic(err)
	}
	return Set{SetHeader: SetHeader{Id: IPFIX, Length: uint16(4 + scratch.Len())}, Kind: KindTemplateSet, Set: ts}
}

func buildOptionsTemplateSet(records ...OptionsTemplateRecord) Set {
	ots := &OptionsTemplateSet{Records: records}
	var scratch bytes.Buffer
	if _, err := ots.Encode(&scratch); err != nil {
		panic(err)
	}
	return Set{SetHeader: SetHeader{Id: IPFIXOptions, Length: uint16(4 + scratch.Len())}, Kind: KindOptionsTemplateSet, Set: ots}
}

func buildDataSet(templateId uint16, records ...DataRecord) Set {
	ds := &DataSet{Records: records}
	var scratch bytes.Buffer
	if _, err := ds.Encode(&scratch); err != nil {
		panic(err)
	}
	return Set{SetHeader: SetHeader{Id: templateId, Length: uint16(4 + scratch.Len())}, Kind: KindDataSet, Set: ds}
}

func encodeMessage(t *testing.T, msg *Message) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	if _, err := msg.Encode(&buf); err != nil {
		t.Fatalf("failed to encode fixture message: %v", err)
	}
	return &buf
}

// TestDecoder_TemplateDatagramWithOptionsAndIPv6 reconstructs the shape of
// the IPFIX template corpus from original_source/tests/test_ipfix.py's
// test_recv_ipfix_packet and test_ipfix_contents: a datagram introducing
// four data templates plus one options template, carrying 1+2+2+9+1+2+1+2=20
// flows across 8 data sets, followed by a second datagram that reuses an
// already-known template for 3 more flows. One flow's sourceIPv6Address
// matches the Docker ULA address asserted in test_ipfix_contents.
func TestDecoder_TemplateDatagramWithOptionsAndIPv6(t *testing.T) {
	const exporterKey = "192.0.2.1:4739"
	const (
		tplA       uint16 = 400 // IPv4 5-tuple, reused across several sets
		tplB       uint16 = 401 // IPv4 5-tuple, distinct id
		tplIPv6    uint16 = 402 // protocolIdentifier + sourceIPv6Address
		tplOptions uint16 = 500 // options template
		tplC       uint16 = 403 // IPv4 5-tuple, distinct id
	)

	v4Fields := v4TemplateFields()
	v6Fields := []Field{
		NewFieldBuilder(ianaElement(4)).SetLength(1).Complete(),   // protocolIdentifier
		NewFieldBuilder(ianaElement(27)).SetLength(16).Complete(), // sourceIPv6Address
	}
	optionScopes := []Field{
		NewFieldBuilder(ianaElement(143)).SetLength(4).Complete(), // meteringProcessId
	}
	optionOptions := []Field{
		NewFieldBuilder(ianaElement(304)).SetLength(2).Complete(), // selectorAlgorithm
		NewFieldBuilder(ianaElement(302)).SetLength(8).Complete(), // selectorId
	}

	templateSet := buildTemplateSet(
		TemplateRecord{TemplateId: tplA, FieldCount: uint16(len(v4Fields)), Fields: v4Fields},
		TemplateRecord{TemplateId: tplB, FieldCount: uint16(len(v4Fields)), Fields: v4Fields},
		TemplateRecord{TemplateId: tplIPv6, FieldCount: uint16(len(v6Fields)), Fields: v6Fields},
		TemplateRecord{TemplateId: tplC, FieldCount: uint16(len(v4Fields)), Fields: v4Fields},
	)
	optionsSet := buildOptionsTemplateSet(
		OptionsTemplateRecord{
			TemplateId:      tplOptions,
			FieldCount:      uint16(len(optionScopes) + len(optionOptions)),
			ScopeFieldCount: uint16(len(optionScopes)),
			Scopes:          optionScopes,
			Options:         optionOptions,
		},
	)

	ipv6Record := DataRecord{Fields: cloneWithValues(v6Fields, []any{17, "fde6:6f14:e0f1:9609:0:affe:affe:affe"})}
	optionsRecord := func(n int) DataRecord {
		return DataRecord{Fields: cloneWithValues(append(append([]Field{}, optionScopes...), optionOptions...),
			[]any{2649 + n, 1, 1234})}
	}

	sets := []Set{
		templateSet,
		buildDataSet(tplA, v4Record(v4Fields, 6, "10.0.0.1", "172.17.0.2", 443, 57766, 0x1b)), // 1
		buildDataSet(tplC,
			v4Record(v4Fields, 6, "10.0.0.3", "10.0.0.4", 80, 1024, 0x18),
			v4Record(v4Fields, 6, "10.0.0.4", "10.0.0.3", 1024, 80, 0x10),
		), // 2
		buildDataSet(tplB,
			v4Record(v4Fields, 17, "10.0.1.1", "10.0.1.2", 5353, 5353, 0),
			v4Record(v4Fields, 17, "10.0.1.2", "10.0.1.1", 5353, 5353, 0),
		), // 2
		optionsSet,
		buildDataSet(tplOptions, optionsRecord(0), optionsRecord(1), optionsRecord(2), optionsRecord(3), optionsRecord(4),
			optionsRecord(5), optionsRecord(6), optionsRecord(7), optionsRecord(8)), // 9
		buildDataSet(tplIPv6, ipv6Record), // 1
		buildDataSet(tplA,
			v4Record(v4Fields, 6, "172.17.0.2", "10.0.0.1", 57766, 443, 0x11),
			v4Record(v4Fields, 6, "172.17.0.1", "172.17.0.2", 22, 33000, 0x18),
		), // 2
		buildDataSet(tplC, v4Record(v4Fields, 1, "172.17.0.1", "172.17.0.2", 0, 0, 0)), // 1
		buildDataSet(tplIPv6, ipv6Record, ipv6Record), // 2
	}

	first := &Message{Version: 10, ExportTime: 1700000000, SequenceNumber: 1, ObservationDomainId: 0, Sets: sets}
	firstBuf := encodeMessage(t, first)

	d := newTestDecoder()
	decoded, err := d.Decode(context.Background(), exporterKey, firstBuf)
	if err != nil {
		t.Fatalf("unexpected error decoding the template datagram: %v", err)
	}

	totalFlows := 0
	templatesSeen := 0
	dataSets := 0
	var ipv6Hex string
	for _, set := range decoded.Sets {
		switch set.Kind {
		case KindTemplateSet:
			templatesSeen += set.Set.Length()
		case KindOptionsTemplateSet:
			templatesSeen += set.Set.Length()
		case KindDataSet:
			dataSets++
			ds := set.Set.(*DataSet)
			totalFlows += len(ds.Records)
			for _, rec := range ds.Records {
				for _, f := range rec.Fields {
					if f.Name() == "sourceIPv6Address" {
						if ip, ok := f.Value().Value().(net.IP); ok {
							ipv6Hex = hex.EncodeToString(ip.To16())
						}
					}
				}
			}
		}
	}

	if templatesSeen != 5 {
		t.Fatalf("expected 5 registered templates (4 data + 1 options), got %d", templatesSeen)
	}
	if dataSets != 8 {
		t.Fatalf("expected 8 data sets, got %d", dataSets)
	}
	if totalFlows != 1+2+2+9+1+2+1+2 {
		t.Fatalf("expected 20 flows (1+2+2+9+1+2+1+2), got %d", totalFlows)
	}
	if ipv6Hex != "fde66f14e0f196090000affeaffeaffe" {
		t.Fatalf("expected sourceIPv6Address fde66f14e0f196090000affeaffeaffe, got %s", ipv6Hex)
	}

	// Second datagram reuses template tplA, already known from the first
	// datagram, and carries no template sets of its own.
	second := &Message{
		Version: 10, ExportTime: 1700000001, SequenceNumber: 2, ObservationDomainId: 0,
		Sets: []Set{
			buildDataSet(tplA,
				v4Record(v4Fields, 6, "172.17.0.1", "172.17.0.2", 1111, 2222, 0x18),
				v4Record(v4Fields, 6, "172.17.0.2", "172.17.0.1", 2222, 1111, 0x11),
				v4Record(v4Fields, 6, "172.17.0.1", "172.17.0.2", 3333, 4444, 0x10),
			),
		},
	}
	secondBuf := encodeMessage(t, second)

	decodedSecond, err := d.Decode(context.Background(), exporterKey, secondBuf)
	if err != nil {
		t.Fatalf("unexpected error decoding the second datagram: %v", err)
	}

	secondFlows := 0
	for _, set := range decodedSecond.Sets {
		if set.Kind == KindDataSet {
			secondFlows += len(set.Set.(*DataSet).Records)
		}
	}
	if secondFlows != 3 {
		t.Fatalf("expected 3 flows in the second datagram, got %d", secondFlows)
	}
}
