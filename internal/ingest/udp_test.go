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

package ingest

import (
	"bytes"
	"context"
	"net"
	"testing"
	"time"
)

func TestListenerRoundTrip(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := NewListener("127.0.0.1:0")

	started := make(chan struct{})
	errCh := make(chan error, 1)
	go func() {
		go func() {
			// Listen resolves and binds synchronously before spawning its
			// reader goroutine, but there is no public "bound" signal, so
			// poll LocalAddr briefly instead of sleeping a fixed amount.
			for i := 0; i < 100; i++ {
				if l.LocalAddr() != nil {
					close(started)
					return
				}
				time.Sleep(time.Millisecond)
			}
		}()
		errCh <- l.Listen(ctx)
	}()

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("listener never bound")
	}

	conn, err := net.Dial("udp", l.LocalAddr().String())
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	payload := []byte{0x00, 0x0a, 0xde, 0xad, 0xbe, 0xef}
	if _, err := conn.Write(payload); err != nil {
		t.Fatal(err)
	}

	select {
	case pkt := <-l.Packets():
		if !bytes.Equal(pkt.Data, payload) {
			t.Errorf("expected payload %x, found %x", payload, pkt.Data)
		}
		if pkt.Client == nil {
			t.Error("expected non-nil client address")
		}
		if pkt.ReceivedAt.IsZero() {
			t.Error("expected non-zero ReceivedAt")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for packet")
	}

	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("expected clean shutdown, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("listener did not shut down")
	}

	// Packets() must be closed once Listen returns
	if _, ok := <-l.Packets(); ok {
		t.Error("expected Packets() channel to be closed after shutdown")
	}
}

func TestPacketBufferSizeDefaults(t *testing.T) {
	if PacketBufferSize <= 0 {
		t.Error("expected a positive default packet buffer size")
	}
	if ChannelBufferSize <= 0 {
		t.Error("expected a positive default channel buffer size")
	}
}
