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

package reconcile

import (
	"sync"
	"time"
)

// RawPacket is a datagram as received off the wire, before any decoding is
// attempted, named after original_source/netflow/collector.py's
// RawPacket(ts, client, data) namedtuple.
type RawPacket struct {
	ReceiveTimestamp time.Time
	ExporterKey      string
	Data             []byte
}

// PendingBuffer is the Reconciliation Engine's pending-packet buffer: an
// ordered, bounded list of raw packets deferred on TemplateNotRecognized,
// replayed in FIFO order once their exporter learns a new template.
//
// collector.py's to_retry is an unbounded Python list with only an age
// check applied on retry; this buffer additionally bounds entry count
// (maxEntries), the count-bound production improvement the original's
// design notes call out as a known gap, dropping the oldest entry to make
// room for a newly-deferred one rather than growing without limit.
type PendingBuffer struct {
	mu      sync.Mutex
	entries []RawPacket

	timeout    time.Duration
	maxEntries int

	dropped int64
}

// NewPendingBuffer creates a PendingBuffer with the given age timeout and
// maximum entry count. A non-positive maxEntries disables the count bound.
func NewPendingBuffer(timeout time.Duration, maxEntries int) *PendingBuffer {
	return &PendingBuffer{
		entries:    make([]RawPacket, 0),
		timeout:    timeout,
		maxEntries: maxEntries,
	}
}

// Add appends p to the buffer. If the buffer is already at capacity, the
// oldest entry is dropped to make room and Add reports it via evicted.
func (b *PendingBuffer) Add(p RawPacket) (evicted *RawPacket) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.maxEntries > 0 && len(b.entries) >= b.maxEntries {
		old := b.entries[0]
		b.entries = b.entries[1:]
		b.dropped++
		evicted = &old
	}
	b.entries = append(b.entries, p)
	return evicted
}

// DrainExpired removes and returns every entry older than the configured
// timeout, measured against now, preserving FIFO order among the survivors.
func (b *PendingBuffer) DrainExpired(now time.Time) []RawPacket {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.timeout <= 0 {
		return nil
	}

	survivors := b.entries[:0:0]
	var expired []RawPacket
	for _, p := range b.entries {
		if now.Sub(p.ReceiveTimestamp) > b.timeout {
			expired = append(expired, p)
		} else {
			survivors = append(survivors, p)
		}
	}
	b.entries = survivors
	return expired
}

// DrainAll removes and returns every entry currently buffered, in FIFO
// order, for replay against an updated template store. The buffer is left
// empty; entries the decoder still can't resolve are expected to be
// re-appended by the caller via Add.
func (b *PendingBuffer) DrainAll() []RawPacket {
	b.mu.Lock()
	defer b.mu.Unlock()

	all := b.entries
	b.entries = make([]RawPacket, 0)
	return all
}

// Len returns the number of entries currently buffered.
func (b *PendingBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}

// Dropped returns the number of entries evicted for capacity since
// creation.
func (b *PendingBuffer) Dropped() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}
