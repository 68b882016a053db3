package main

import "testing"

func TestShardIndex_Deterministic(t *testing.T) {
	a := shardIndex("10.0.0.1:2055", 4)
	b := shardIndex("10.0.0.1:2055", 4)
	if a != b {
		t.Fatalf("expected shardIndex to be deterministic for the same key, got %d and %d", a, b)
	}
	if a < 0 || a >= 4 {
		t.Fatalf("expected shard index in [0,4), got %d", a)
	}
}

func TestShardIndex_SpreadsAcrossShards(t *testing.T) {
	seen := make(map[int]bool)
	for i := 0; i < 100; i++ {
		key := "10.0.0." + string(rune('a'+i%26)) + ":2055"
		seen[shardIndex(key, 8)] = true
	}
	if len(seen) < 2 {
		t.Fatalf("expected exporter keys to spread across more than one shard, got %d distinct shards", len(seen))
	}
}
