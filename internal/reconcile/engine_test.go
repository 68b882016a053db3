package reconcile

import (
	"context"
	"encoding/binary"
	"sync"
	"testing"
	"time"

	"github.com/flowforge/netflow-collector/internal/wire"
)

type recordingSink struct {
	mu      sync.Mutex
	entries []ParsedPacket
}

func (s *recordingSink) Write(ctx context.Context, p ParsedPacket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, p)
	return nil
}

func (s *recordingSink) snapshot() []ParsedPacket {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ParsedPacket, len(s.entries))
	copy(out, s.entries)
	return out
}

func newTestEngine(sink Sink) *Engine {
	return NewEngine(wire.NewDefaultEphemeralCache(), wire.NewDefaultEphemeralCache(), sink, time.Hour, 100)
}

func v9Header(count uint16, sourceId uint32) []byte {
	b := make([]byte, 0, 20)
	b = binary.BigEndian.AppendUint16(b, 9)
	b = binary.BigEndian.AppendUint16(b, count)
	b = binary.BigEndian.AppendUint32(b, 1000)
	b = binary.BigEndian.AppendUint32(b, 1700000000)
	b = binary.BigEndian.AppendUint32(b, 1)
	b = binary.BigEndian.AppendUint32(b, sourceId)
	return b
}

// v9TemplateFlowSet builds a flowset id 0 carrying one template record for
// templateId with fieldCount fields, each 4 bytes wide of id 1 (IN_BYTES).
func v9TemplateFlowSet(templateId uint16, fieldCount uint16) []byte {
	body := make([]byte, 0)
	body = binary.BigEndian.AppendUint16(body, templateId)
	body = binary.BigEndian.AppendUint16(body, fieldCount)
	for i := uint16(0); i < fieldCount; i++ {
		body = binary.BigEndian.AppendUint16(body, 1)
		body = binary.BigEndian.AppendUint16(body, 4)
	}
	fs := make([]byte, 0)
	fs = binary.BigEndian.AppendUint16(fs, wire.NFv9)
	fs = binary.BigEndian.AppendUint16(fs, uint16(4+len(body)))
	fs = append(fs, body...)
	return fs
}

// v9DataFlowSet builds a data flowset referencing templateId, with
// recordCount records, each fieldCount 4-byte fields.
func v9DataFlowSet(templateId uint16, recordCount int, fieldCount uint16) []byte {
	body := make([]byte, 0)
	for r := 0; r < recordCount; r++ {
		for f := uint16(0); f < fieldCount; f++ {
			body = binary.BigEndian.AppendUint32(body, uint32(r*10+int(f)))
		}
	}
	fs := make([]byte, 0)
	fs = binary.BigEndian.AppendUint16(fs, templateId)
	fs = binary.BigEndian.AppendUint16(fs, uint16(4+len(body)))
	fs = append(fs, body...)
	return fs
}

// TestEngine_TemplateThenData covers S3: a template packet introducing two
// templates (and carrying 4 data records for each), followed by three data
// packets against them; no deferrals.
func TestEngine_TemplateThenData(t *testing.T) {
	sink := &recordingSink{}
	e := newTestEngine(sink)
	ctx := context.Background()

	templatePacket := append(v9Header(2, 1), append(v9TemplateFlowSet(1024, 4), v9TemplateFlowSet(2048, 4)...)...)
	templatePacket = append(templatePacket, v9DataFlowSet(1024, 4, 4)...)
	templatePacket = append(templatePacket, v9DataFlowSet(2048, 4, 4)...)
	e.Ingest(ctx, RawPacket{ReceiveTimestamp: time.Now(), ExporterKey: "10.0.0.1:2055", Data: templatePacket})

	for i := 0; i < 3; i++ {
		dataPacket := append(v9Header(1, 1), v9DataFlowSet(1024, 12, 4)...)
		e.Ingest(ctx, RawPacket{ReceiveTimestamp: time.Now(), ExporterKey: "10.0.0.1:2055", Data: dataPacket})
	}

	entries := sink.snapshot()
	if len(entries) != 4 {
		t.Fatalf("expected 4 parsed packets, got %d", len(entries))
	}
	if len(entries[0].Export.Flows) != 8 {
		t.Fatalf("expected 8 flows in the template packet (4+4 data records alongside the templates), got %d", len(entries[0].Export.Flows))
	}
	total := 0
	for _, e := range entries[1:] {
		total += len(e.Export.Flows)
	}
	if total != 36 {
		t.Fatalf("expected 36 flows across the 3 data packets, got %d", total)
	}
	if e.pending.Len() != 0 {
		t.Fatalf("expected no deferrals, got %d pending", e.pending.Len())
	}
}

// TestEngine_DataBeforeTemplateSamePacket covers S4: a single datagram with
// data flowsets preceding their defining templates.
func TestEngine_DataBeforeTemplateSamePacket(t *testing.T) {
	sink := &recordingSink{}
	e := newTestEngine(sink)
	ctx := context.Background()

	packet := v9Header(4, 2)
	packet = append(packet, v9DataFlowSet(1024, 4, 4)...)
	packet = append(packet, v9DataFlowSet(2048, 4, 4)...)
	packet = append(packet, v9TemplateFlowSet(1024, 4)...)
	packet = append(packet, v9TemplateFlowSet(2048, 4)...)

	e.Ingest(ctx, RawPacket{ReceiveTimestamp: time.Now(), ExporterKey: "10.0.0.2:2055", Data: packet})

	entries := sink.snapshot()
	if len(entries) != 1 {
		t.Fatalf("expected 1 parsed packet, got %d", len(entries))
	}
	if len(entries[0].Export.Flows) != 8 {
		t.Fatalf("expected 8 flows, got %d", len(entries[0].Export.Flows))
	}
	if !entries[0].Export.ContainsNewTemplates {
		t.Fatalf("expected contains_new_templates=true")
	}
}

// TestEngine_DataBeforeTemplateAcrossPackets covers S5: the data packet
// arrives first and is deferred; after the template packet arrives, both
// the template packet and the replayed data packet are forwarded, in that
// order.
func TestEngine_DataBeforeTemplateAcrossPackets(t *testing.T) {
	sink := &recordingSink{}
	e := newTestEngine(sink)
	ctx := context.Background()

	dataPacket := append(v9Header(1, 3), v9DataFlowSet(4096, 12, 4)...)
	e.Ingest(ctx, RawPacket{ReceiveTimestamp: time.Now(), ExporterKey: "10.0.0.3:2055", Data: dataPacket})

	if len(sink.snapshot()) != 0 {
		t.Fatalf("expected zero outputs before the template arrives")
	}
	if e.pending.Len() != 1 {
		t.Fatalf("expected 1 deferred packet, got %d", e.pending.Len())
	}

	templatePacket := append(v9Header(1, 3), v9TemplateFlowSet(4096, 4)...)
	templatePacket = append(templatePacket, v9DataFlowSet(4096, 8, 4)...)
	e.Ingest(ctx, RawPacket{ReceiveTimestamp: time.Now(), ExporterKey: "10.0.0.3:2055", Data: templatePacket})

	entries := sink.snapshot()
	if len(entries) != 2 {
		t.Fatalf("expected 2 outputs after the template arrives, got %d", len(entries))
	}
	if len(entries[0].Export.Flows) != 8 {
		t.Fatalf("expected the template packet (8 flows) first, got %d flows", len(entries[0].Export.Flows))
	}
	if len(entries[1].Export.Flows) != 12 {
		t.Fatalf("expected the replayed data packet (12 flows) second, got %d flows", len(entries[1].Export.Flows))
	}
	if e.pending.Len() != 0 {
		t.Fatalf("expected the pending buffer to be drained, got %d", e.pending.Len())
	}
}

// TestEngine_InvalidPacketIsolation covers S7: malformed packets
// interspersed with valid ones don't affect the valid ones' delivery.
func TestEngine_InvalidPacketIsolation(t *testing.T) {
	sink := &recordingSink{}
	e := newTestEngine(sink)
	ctx := context.Background()

	invalid := []byte{0x00} // shorter than a version field

	templateAndData := append(v9Header(2, 5), append(v9TemplateFlowSet(256, 2), v9DataFlowSet(256, 1, 2)...)...)
	moreData := append(v9Header(1, 5), v9DataFlowSet(256, 1, 2)...)

	e.Ingest(ctx, RawPacket{ReceiveTimestamp: time.Now(), ExporterKey: "x", Data: invalid})
	e.Ingest(ctx, RawPacket{ReceiveTimestamp: time.Now(), ExporterKey: "x", Data: templateAndData})
	e.Ingest(ctx, RawPacket{ReceiveTimestamp: time.Now(), ExporterKey: "x", Data: invalid})
	e.Ingest(ctx, RawPacket{ReceiveTimestamp: time.Now(), ExporterKey: "x", Data: moreData})
	e.Ingest(ctx, RawPacket{ReceiveTimestamp: time.Now(), ExporterKey: "x", Data: invalid})

	entries := sink.snapshot()
	if len(entries) != 2 {
		t.Fatalf("expected 2 forwarded packets, got %d", len(entries))
	}
}

func TestPendingBuffer_EvictsOldestWhenFull(t *testing.T) {
	b := NewPendingBuffer(time.Hour, 2)
	b.Add(RawPacket{ExporterKey: "a", ReceiveTimestamp: time.Now()})
	b.Add(RawPacket{ExporterKey: "b", ReceiveTimestamp: time.Now()})
	evicted := b.Add(RawPacket{ExporterKey: "c", ReceiveTimestamp: time.Now()})
	if evicted == nil || evicted.ExporterKey != "a" {
		t.Fatalf("expected the oldest entry (a) to be evicted, got %+v", evicted)
	}
	if b.Len() != 2 {
		t.Fatalf("expected buffer to stay at capacity 2, got %d", b.Len())
	}
}

func TestPendingBuffer_DrainExpired(t *testing.T) {
	b := NewPendingBuffer(time.Minute, 10)
	old := time.Now().Add(-2 * time.Minute)
	fresh := time.Now()
	b.Add(RawPacket{ExporterKey: "old", ReceiveTimestamp: old})
	b.Add(RawPacket{ExporterKey: "fresh", ReceiveTimestamp: fresh})

	expired := b.DrainExpired(time.Now())
	if len(expired) != 1 || expired[0].ExporterKey != "old" {
		t.Fatalf("expected only the old entry to expire, got %+v", expired)
	}
	if b.Len() != 1 {
		t.Fatalf("expected 1 surviving entry, got %d", b.Len())
	}
}
