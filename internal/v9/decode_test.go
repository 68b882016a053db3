package v9

import (
	"bytes"
	"context"
	"encoding/binary"
	"testing"

	"github.com/flowforge/netflow-collector/internal/wire"
)

func newTestDecoder() *Decoder {
	templates := wire.NewDefaultEphemeralCache()
	fields := NewFieldManager(templates)
	return NewDecoder(templates, fields)
}

// appendV9Header writes the 20-byte v9 packet header.
func appendV9Header(b []byte, count uint16, sourceId uint32) []byte {
	b = binary.BigEndian.AppendUint16(b, 9) // version
	b = binary.BigEndian.AppendUint16(b, count)
	b = binary.BigEndian.AppendUint32(b, 1000) // sysUpTime
	b = binary.BigEndian.AppendUint32(b, 1700000000)
	b = binary.BigEndian.AppendUint32(b, 1) // sequenceNumber
	b = binary.BigEndian.AppendUint32(b, sourceId)
	return b
}

func TestDecoder_TemplateThenData(t *testing.T) {
	d := newTestDecoder()

	// Template FlowSet: flowset id 0, one record for template id 256 with
	// two fields, IN_BYTES (id 1, 4 bytes) and IPV4_SRC_ADDR (id 8, 4 bytes).
	templateRecordBody := make([]byte, 0)
	templateRecordBody = binary.BigEndian.AppendUint16(templateRecordBody, 256) // template id
	templateRecordBody = binary.BigEndian.AppendUint16(templateRecordBody, 2)   // field count
	templateRecordBody = binary.BigEndian.AppendUint16(templateRecordBody, 1)   // IN_BYTES
	templateRecordBody = binary.BigEndian.AppendUint16(templateRecordBody, 4)
	templateRecordBody = binary.BigEndian.AppendUint16(templateRecordBody, 8) // IPV4_SRC_ADDR
	templateRecordBody = binary.BigEndian.AppendUint16(templateRecordBody, 4)

	templateFlowSet := make([]byte, 0)
	templateFlowSet = binary.BigEndian.AppendUint16(templateFlowSet, wire.NFv9)
	templateFlowSet = binary.BigEndian.AppendUint16(templateFlowSet, uint16(4+len(templateRecordBody)))
	templateFlowSet = append(templateFlowSet, templateRecordBody...)

	packet := appendV9Header(nil, 1, 42)
	packet = append(packet, templateFlowSet...)

	msg, err := d.Decode(context.Background(), "10.0.0.1:2055", bytes.NewBuffer(packet))
	if err != nil {
		t.Fatalf("unexpected error decoding template packet: %v", err)
	}
	if len(msg.Sets) != 1 {
		t.Fatalf("expected 1 set, got %d", len(msg.Sets))
	}
	if msg.Sets[0].Kind != wire.KindTemplateSet {
		t.Fatalf("expected template set, got %s", msg.Sets[0].Kind)
	}

	// Data FlowSet referencing template id 256: 4-byte IN_BYTES + 4-byte
	// IPV4_SRC_ADDR.
	dataRecordBody := make([]byte, 0)
	dataRecordBody = binary.BigEndian.AppendUint32(dataRecordBody, 1500)
	dataRecordBody = append(dataRecordBody, 10, 0, 0, 1)

	dataFlowSet := make([]byte, 0)
	dataFlowSet = binary.BigEndian.AppendUint16(dataFlowSet, 256)
	dataFlowSet = binary.BigEndian.AppendUint16(dataFlowSet, uint16(4+len(dataRecordBody)))
	dataFlowSet = append(dataFlowSet, dataRecordBody...)

	packet2 := appendV9Header(nil, 1, 42)
	packet2 = append(packet2, dataFlowSet...)

	msg2, err := d.Decode(context.Background(), "10.0.0.1:2055", bytes.NewBuffer(packet2))
	if err != nil {
		t.Fatalf("unexpected error decoding data packet: %v", err)
	}
	if len(msg2.Sets) != 1 {
		t.Fatalf("expected 1 set, got %d", len(msg2.Sets))
	}
	ds, ok := msg2.Sets[0].Set.(*wire.DataSet)
	if !ok {
		t.Fatalf("expected *wire.DataSet, got %T", msg2.Sets[0].Set)
	}
	if len(ds.Records) != 1 {
		t.Fatalf("expected 1 data record, got %d", len(ds.Records))
	}
	if len(ds.Records[0].Fields) != 2 {
		t.Fatalf("expected 2 fields in decoded record, got %d", len(ds.Records[0].Fields))
	}
}

func TestDecoder_DataBeforeTemplateDefersWithinPacket(t *testing.T) {
	d := newTestDecoder()

	templateRecordBody := make([]byte, 0)
	templateRecordBody = binary.BigEndian.AppendUint16(templateRecordBody, 257)
	templateRecordBody = binary.BigEndian.AppendUint16(templateRecordBody, 1)
	templateRecordBody = binary.BigEndian.AppendUint16(templateRecordBody, 2) // IN_PKTS
	templateRecordBody = binary.BigEndian.AppendUint16(templateRecordBody, 4)

	templateFlowSet := make([]byte, 0)
	templateFlowSet = binary.BigEndian.AppendUint16(templateFlowSet, wire.NFv9)
	templateFlowSet = binary.BigEndian.AppendUint16(templateFlowSet, uint16(4+len(templateRecordBody)))
	templateFlowSet = append(templateFlowSet, templateRecordBody...)

	dataRecordBody := make([]byte, 0)
	dataRecordBody = binary.BigEndian.AppendUint32(dataRecordBody, 12)

	dataFlowSet := make([]byte, 0)
	dataFlowSet = binary.BigEndian.AppendUint16(dataFlowSet, 257)
	dataFlowSet = binary.BigEndian.AppendUint16(dataFlowSet, uint16(4+len(dataRecordBody)))
	dataFlowSet = append(dataFlowSet, dataRecordBody...)

	// Data flowset appears before its template within the same datagram;
	// the decoder must still resolve it in the second pass.
	packet := appendV9Header(nil, 2, 7)
	packet = append(packet, dataFlowSet...)
	packet = append(packet, templateFlowSet...)

	msg, err := d.Decode(context.Background(), "10.0.0.2:2055", bytes.NewBuffer(packet))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(msg.Sets) != 2 {
		t.Fatalf("expected 2 sets, got %d", len(msg.Sets))
	}

	var sawData bool
	for _, s := range msg.Sets {
		if s.Kind == wire.KindDataSet {
			sawData = true
			ds := s.Set.(*wire.DataSet)
			if len(ds.Records) != 1 {
				t.Fatalf("expected 1 record, got %d", len(ds.Records))
			}
		}
	}
	if !sawData {
		t.Fatalf("expected a decoded data set among %v", msg.Sets)
	}
}

func TestDecoder_UnknownTemplateReturnsError(t *testing.T) {
	d := newTestDecoder()

	dataRecordBody := make([]byte, 0)
	dataRecordBody = binary.BigEndian.AppendUint32(dataRecordBody, 99)

	dataFlowSet := make([]byte, 0)
	dataFlowSet = binary.BigEndian.AppendUint16(dataFlowSet, 999)
	dataFlowSet = binary.BigEndian.AppendUint16(dataFlowSet, uint16(4+len(dataRecordBody)))
	dataFlowSet = append(dataFlowSet, dataRecordBody...)

	packet := appendV9Header(nil, 1, 1)
	packet = append(packet, dataFlowSet...)

	_, err := d.Decode(context.Background(), "10.0.0.3:2055", bytes.NewBuffer(packet))
	if err == nil {
		t.Fatalf("expected an error for an unresolvable template reference")
	}
}

func TestDecoder_OptionsTemplateThenData(t *testing.T) {
	d := newTestDecoder()

	// Options Template FlowSet: template id 512, scope "System" (type 1,
	// 4 bytes), option SAMPLING_INTERVAL (id 34, 4 bytes).
	otr := make([]byte, 0)
	otr = binary.BigEndian.AppendUint16(otr, 512) // template id
	otr = binary.BigEndian.AppendUint16(otr, 4)   // option scope length
	otr = binary.BigEndian.AppendUint16(otr, 4)   // option length
	otr = binary.BigEndian.AppendUint16(otr, 1)   // scope type: System
	otr = binary.BigEndian.AppendUint16(otr, 4)
	otr = binary.BigEndian.AppendUint16(otr, 34) // SAMPLING_INTERVAL
	otr = binary.BigEndian.AppendUint16(otr, 4)

	otFlowSet := make([]byte, 0)
	otFlowSet = binary.BigEndian.AppendUint16(otFlowSet, wire.NFv9Options)
	otFlowSet = binary.BigEndian.AppendUint16(otFlowSet, uint16(4+len(otr)))
	otFlowSet = append(otFlowSet, otr...)

	packet := appendV9Header(nil, 1, 9)
	packet = append(packet, otFlowSet...)

	msg, err := d.Decode(context.Background(), "10.0.0.4:2055", bytes.NewBuffer(packet))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg.Sets[0].Kind != wire.KindOptionsTemplateSet {
		t.Fatalf("expected options template set, got %s", msg.Sets[0].Kind)
	}
	ots := msg.Sets[0].Set.(*wire.OptionsTemplateSet)
	if len(ots.Records) != 1 {
		t.Fatalf("expected 1 options template record, got %d", len(ots.Records))
	}
	if len(ots.Records[0].Scopes) != 1 || len(ots.Records[0].Options) != 1 {
		t.Fatalf("expected 1 scope and 1 option field, got %d/%d", len(ots.Records[0].Scopes), len(ots.Records[0].Options))
	}

	// Data FlowSet for template 512: 4-byte scope value, 4-byte option value.
	dataRecordBody := make([]byte, 0)
	dataRecordBody = binary.BigEndian.AppendUint32(dataRecordBody, 1)
	dataRecordBody = binary.BigEndian.AppendUint32(dataRecordBody, 100)

	dataFlowSet := make([]byte, 0)
	dataFlowSet = binary.BigEndian.AppendUint16(dataFlowSet, 512)
	dataFlowSet = binary.BigEndian.AppendUint16(dataFlowSet, uint16(4+len(dataRecordBody)))
	dataFlowSet = append(dataFlowSet, dataRecordBody...)

	packet2 := appendV9Header(nil, 1, 9)
	packet2 = append(packet2, dataFlowSet...)

	msg2, err := d.Decode(context.Background(), "10.0.0.4:2055", bytes.NewBuffer(packet2))
	if err != nil {
		t.Fatalf("unexpected error decoding options data packet: %v", err)
	}
	ds := msg2.Sets[0].Set.(*wire.DataSet)
	if len(ds.Records) != 1 || len(ds.Records[0].Fields) != 2 {
		t.Fatalf("expected 1 record with 2 fields, got %d records", len(ds.Records))
	}
}

func TestScopeName(t *testing.T) {
	if got := ScopeName(1); got != "System" {
		t.Errorf("expected System, got %s", got)
	}
	if got := ScopeName(999); got != "unknown" {
		t.Errorf("expected unknown, got %s", got)
	}
}
