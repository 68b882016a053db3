package v1v5

import (
	"bytes"
	"encoding/binary"
	"net"
	"reflect"
	"testing"

	"github.com/flowforge/netflow-collector/internal/wire"
)

func appendV1Record(b []byte, src, dst, nextHop [4]byte, input, output uint16, pkts, octets, first, last uint32, srcPort, dstPort uint16, proto, tos, flags uint8) []byte {
	b = append(b, src[:]...)
	b = append(b, dst[:]...)
	b = append(b, nextHop[:]...)
	b = binary.BigEndian.AppendUint16(b, input)
	b = binary.BigEndian.AppendUint16(b, output)
	b = binary.BigEndian.AppendUint32(b, pkts)
	b = binary.BigEndian.AppendUint32(b, octets)
	b = binary.BigEndian.AppendUint32(b, first)
	b = binary.BigEndian.AppendUint32(b, last)
	b = binary.BigEndian.AppendUint16(b, srcPort)
	b = binary.BigEndian.AppendUint16(b, dstPort)
	b = append(b, 0, 0) // pad
	b = append(b, proto, tos, flags)
	b = append(b, make([]byte, 7)...) // pad
	return b
}

func TestV1Message_Decode(t *testing.T) {
	d := NewDecoder()

	packet := make([]byte, 0)
	packet = binary.BigEndian.AppendUint16(packet, 1) // version
	packet = binary.BigEndian.AppendUint16(packet, 1) // count
	packet = binary.BigEndian.AppendUint32(packet, 1000)
	packet = binary.BigEndian.AppendUint32(packet, 1700000000)
	packet = binary.BigEndian.AppendUint32(packet, 0)

	packet = appendV1Record(packet,
		[4]byte{10, 0, 0, 1}, [4]byte{10, 0, 0, 2}, [4]byte{10, 0, 0, 254},
		1, 2, 5, 1500, 100, 200, 1234, 80, 6, 0, 0x18)

	msg, err := d.DecodeV1(bytes.NewBuffer(packet))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg.Count != 1 || len(msg.Records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(msg.Records))
	}
	rec := msg.Records[0]
	if len(rec.Fields) != len(v1Columns) {
		t.Fatalf("expected %d fields, got %d", len(v1Columns), len(rec.Fields))
	}
	if got := rec.Fields[0].Value().String(); got != "10.0.0.1" {
		t.Errorf("expected src addr 10.0.0.1, got %s", got)
	}
	if got := rec.Fields[5].Value().String(); got != "5" {
		t.Errorf("expected IN_PKTS 5, got %s", got)
	}
}

func appendV5Record(b []byte, src, dst, nextHop [4]byte, input, output uint16, pkts, octets, first, last uint32, srcPort, dstPort uint16, flags, proto, tos uint8, srcAs, dstAs uint16, srcMask, dstMask uint8) []byte {
	b = append(b, src[:]...)
	b = append(b, dst[:]...)
	b = append(b, nextHop[:]...)
	b = binary.BigEndian.AppendUint16(b, input)
	b = binary.BigEndian.AppendUint16(b, output)
	b = binary.BigEndian.AppendUint32(b, pkts)
	b = binary.BigEndian.AppendUint32(b, octets)
	b = binary.BigEndian.AppendUint32(b, first)
	b = binary.BigEndian.AppendUint32(b, last)
	b = binary.BigEndian.AppendUint16(b, srcPort)
	b = binary.BigEndian.AppendUint16(b, dstPort)
	b = append(b, 0) // pad
	b = append(b, flags, proto, tos)
	b = binary.BigEndian.AppendUint16(b, srcAs)
	b = binary.BigEndian.AppendUint16(b, dstAs)
	b = append(b, srcMask, dstMask)
	b = append(b, 0, 0) // pad
	return b
}

func TestV5Message_Decode(t *testing.T) {
	d := NewDecoder()

	packet := make([]byte, 0)
	packet = binary.BigEndian.AppendUint16(packet, 5) // version
	packet = binary.BigEndian.AppendUint16(packet, 2) // count
	packet = binary.BigEndian.AppendUint32(packet, 1000)
	packet = binary.BigEndian.AppendUint32(packet, 1700000000)
	packet = binary.BigEndian.AppendUint32(packet, 0)
	packet = binary.BigEndian.AppendUint32(packet, 42) // sequence number
	packet = append(packet, 1, 0)                      // engine type, engine id
	packet = binary.BigEndian.AppendUint16(packet, 100) // sampling interval

	packet = appendV5Record(packet,
		[4]byte{192, 168, 0, 1}, [4]byte{192, 168, 0, 2}, [4]byte{192, 168, 0, 254},
		1, 2, 5, 1500, 100, 200, 1234, 80, 0x18, 6, 0, 65001, 65002, 24, 24)
	packet = appendV5Record(packet,
		[4]byte{172, 16, 0, 1}, [4]byte{172, 16, 0, 2}, [4]byte{172, 16, 0, 254},
		3, 4, 7, 2000, 300, 400, 5678, 443, 0x10, 17, 0, 65003, 65004, 16, 16)

	msg, err := d.DecodeV5(bytes.NewBuffer(packet))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg.SequenceNumber != 42 || msg.EngineType != 1 || msg.SamplingInterval != 100 {
		t.Fatalf("unexpected header fields: %+v", msg)
	}
	if len(msg.Records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(msg.Records))
	}
	for _, rec := range msg.Records {
		if len(rec.Fields) != len(v5Columns) {
			t.Fatalf("expected %d fields, got %d", len(v5Columns), len(rec.Fields))
		}
	}
	if got := msg.Records[1].Fields[0].Value().String(); got != "172.16.0.1" {
		t.Errorf("expected src addr 172.16.0.1, got %s", got)
	}
}

func fieldByName(rec *wire.DataRecord, name string) wire.Field {
	for _, f := range rec.Fields {
		if f.Name() == name {
			return f
		}
	}
	return nil
}

// TestV1Message_ICMPPair decodes a 112-octet v1 datagram carrying two ICMP
// records between 172.17.0.1 and 172.17.0.2.
func TestV1Message_ICMPPair(t *testing.T) {
	d := NewDecoder()

	packet := make([]byte, 0)
	packet = binary.BigEndian.AppendUint16(packet, 1) // version
	packet = binary.BigEndian.AppendUint16(packet, 2) // count
	packet = binary.BigEndian.AppendUint32(packet, 1000)
	packet = binary.BigEndian.AppendUint32(packet, 1700000000)
	packet = binary.BigEndian.AppendUint32(packet, 0)

	packet = appendV1Record(packet,
		[4]byte{172, 17, 0, 1}, [4]byte{172, 17, 0, 2}, [4]byte{172, 17, 0, 254},
		1, 2, 1, 84, 100, 200, 1234, 0, 1, 0, 0)
	packet = appendV1Record(packet,
		[4]byte{172, 17, 0, 2}, [4]byte{172, 17, 0, 1}, [4]byte{172, 17, 0, 254},
		2, 1, 1, 84, 201, 301, 0, 1234, 1, 0, 0)

	msg, err := d.DecodeV1(bytes.NewBuffer(packet))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg.Version != 1 {
		t.Fatalf("expected version 1, got %d", msg.Version)
	}
	if len(msg.Records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(msg.Records))
	}

	gotSrc := map[uint32]bool{}
	for i := range msg.Records {
		rec := &msg.Records[i]
		src := fieldByName(rec, "IPV4_SRC_ADDR")
		if src == nil {
			t.Fatalf("record missing IPV4_SRC_ADDR field")
		}
		s := src.Value().String()
		ip := net.ParseIP(s)
		if ip == nil || ip.To4() == nil {
			t.Fatalf("expected a dotted IPv4 string, got %q", s)
		}
		gotSrc[binary.BigEndian.Uint32(ip.To4())] = true

		proto := fieldByName(rec, "PROTOCOL")
		if proto == nil || proto.Value().String() != "1" {
			t.Fatalf("expected PROTOCOL 1 (ICMP), got %v", proto)
		}
	}
	want := map[uint32]bool{0xAC110001: true, 0xAC110002: true}
	if !reflect.DeepEqual(gotSrc, want) {
		t.Fatalf("expected src addrs %v, got %v", want, gotSrc)
	}
}

// TestV5Message_ThreeRecords decodes a v5 datagram carrying three records:
// two ICMP and one UDP record destined to the 224.0.0.251 multicast group.
func TestV5Message_ThreeRecords(t *testing.T) {
	d := NewDecoder()

	packet := make([]byte, 0)
	packet = binary.BigEndian.AppendUint16(packet, 5) // version
	packet = binary.BigEndian.AppendUint16(packet, 3) // count
	packet = binary.BigEndian.AppendUint32(packet, 1000)
	packet = binary.BigEndian.AppendUint32(packet, 1700000000)
	packet = binary.BigEndian.AppendUint32(packet, 0)
	packet = binary.BigEndian.AppendUint32(packet, 7) // sequence number
	packet = append(packet, 0, 0)                     // engine type, engine id
	packet = binary.BigEndian.AppendUint16(packet, 0) // sampling interval

	packet = appendV5Record(packet,
		[4]byte{172, 17, 0, 1}, [4]byte{172, 17, 0, 2}, [4]byte{172, 17, 0, 254},
		1, 2, 1, 84, 100, 200, 1234, 0, 0x18, 1, 0, 0, 0, 0, 0)
	packet = appendV5Record(packet,
		[4]byte{172, 17, 0, 2}, [4]byte{172, 17, 0, 1}, [4]byte{172, 17, 0, 254},
		2, 1, 1, 84, 201, 301, 0, 1234, 0x10, 1, 0, 0, 0, 0, 0)
	packet = appendV5Record(packet,
		[4]byte{172, 17, 0, 1}, [4]byte{224, 0, 0, 251}, [4]byte{172, 17, 0, 254},
		1, 2, 1, 60, 400, 400, 5353, 5353, 0x10, 17, 0, 0, 0, 0, 0)

	msg, err := d.DecodeV5(bytes.NewBuffer(packet))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(msg.Records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(msg.Records))
	}

	sawMulticastDst := false
	for i := range msg.Records {
		rec := &msg.Records[i]
		dst := fieldByName(rec, "IPV4_DST_ADDR")
		if dst == nil {
			t.Fatalf("record missing IPV4_DST_ADDR field")
		}
		s := dst.Value().String()
		ip := net.ParseIP(s)
		if ip == nil || ip.To4() == nil {
			t.Fatalf("expected a dotted IPv4 string, got %q", s)
		}
		if binary.BigEndian.Uint32(ip.To4()) == 0xE00000FB {
			sawMulticastDst = true
		}

		proto := fieldByName(rec, "PROTOCOL")
		if proto == nil {
			t.Fatalf("record missing PROTOCOL field")
		}
		switch proto.Value().String() {
		case "1", "17":
		default:
			t.Fatalf("expected PROTOCOL in {1, 17}, got %s", proto.Value().String())
		}
	}
	if !sawMulticastDst {
		t.Fatalf("expected one record with IPV4_DST_ADDR 224.0.0.251 (0xE00000FB)")
	}
}

func TestV1Message_WrongVersionRejected(t *testing.T) {
	d := NewDecoder()
	packet := make([]byte, 0)
	packet = binary.BigEndian.AppendUint16(packet, 5)
	packet = binary.BigEndian.AppendUint16(packet, 0)
	packet = binary.BigEndian.AppendUint32(packet, 0)
	packet = binary.BigEndian.AppendUint32(packet, 0)
	packet = binary.BigEndian.AppendUint32(packet, 0)

	if _, err := d.DecodeV1(bytes.NewBuffer(packet)); err == nil {
		t.Fatalf("expected an error decoding a v5 packet as v1")
	}
}
