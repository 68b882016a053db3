package sink

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/flowforge/netflow-collector/internal/reconcile"
)

func TestGzipNDJSONFileSink_WriteAppendsConcatenatedMembers(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.gz")
	s := NewGzipNDJSONFileSink(path)
	ctx := context.Background()

	packets := []reconcile.ParsedPacket{
		{
			ReceiveTimestamp: time.Unix(1700000000, 0),
			ExporterKey:      "10.0.0.1:2055",
			Export: reconcile.Export{
				Header: map[string]interface{}{"version": 9},
				Flows:  []map[string]interface{}{{"IN_BYTES": "100"}},
			},
		},
		{
			ReceiveTimestamp: time.Unix(1700000001, 0),
			ExporterKey:      "10.0.0.2:2055",
			Export: reconcile.Export{
				Header: map[string]interface{}{"version": 10},
				Flows:  []map[string]interface{}{{"IN_BYTES": "200"}, {"IN_BYTES": "300"}},
			},
		},
	}

	for _, p := range packets {
		if err := s.Write(ctx, p); err != nil {
			t.Fatalf("unexpected write error: %v", err)
		}
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read sink output file: %v", err)
	}

	gr, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("failed to open gzip reader over concatenated members: %v", err)
	}
	scanner := bufio.NewScanner(gr)

	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil && err != io.EOF {
		t.Fatalf("scan error: %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("expected 2 NDJSON lines across the concatenated gzip members, got %d", len(lines))
	}

	var first map[string]entry
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("failed to unmarshal first entry: %v", err)
	}
	got, ok := first["1700000000"]
	if !ok {
		t.Fatalf("expected key \"1700000000\", got keys %v", mapKeys(first))
	}
	if got.Client != "10.0.0.1:2055" {
		t.Fatalf("expected client 10.0.0.1:2055, got %s", got.Client)
	}
	if len(got.Flows) != 1 {
		t.Fatalf("expected 1 flow, got %d", len(got.Flows))
	}

	var second map[string]entry
	if err := json.Unmarshal([]byte(lines[1]), &second); err != nil {
		t.Fatalf("failed to unmarshal second entry: %v", err)
	}
	got2, ok := second["1700000001"]
	if !ok {
		t.Fatalf("expected key \"1700000001\", got keys %v", mapKeys(second))
	}
	if len(got2.Flows) != 2 {
		t.Fatalf("expected 2 flows, got %d", len(got2.Flows))
	}
}

func mapKeys(m map[string]entry) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
