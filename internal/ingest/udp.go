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
	"context"
	"errors"
	"net"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

var (
	// UDP packet size is globally limited by the packet header length field of
	// 2^16-1. IP path MTU can fragment UDP packets larger than the MTU, and a
	// lost fragment takes the whole datagram with it, so in practice exporters
	// stay well under that. 1500 covers everything this collector has been
	// pointed at so far; raise it if an exporter needs jumbo frames.
	PacketBufferSize int = 1500

	// ChannelBufferSize is the depth of the channel packets are handed off on.
	// This moves buffering from the UDP socket to user space, which
	// alleviates most packet loss at the cost of holding more packets in
	// memory at once.
	ChannelBufferSize int = 50
)

// Listener binds a single UDP socket and publishes every datagram it reads
// as a RawPacket on its Packets channel. SO_REUSEADDR/SO_REUSEPORT are set
// on the socket so multiple listener instances can share one bind address,
// should the collector ever be scaled out to multiple processes on one
// host.
type Listener struct {
	bindAddr string
	packetCh chan RawPacket

	addr     *net.UDPAddr
	listener net.PacketConn
}

// NewListener returns a Listener bound to bindAddr once Listen is called.
func NewListener(bindAddr string) *Listener {
	return &Listener{
		bindAddr: bindAddr,
		packetCh: make(chan RawPacket, ChannelBufferSize),
	}
}

// Listen binds the UDP socket and blocks, reading packets until ctx is
// canceled. It closes Packets() on return, so callers ranging over it will
// see the channel drain and close rather than stall forever.
func (l *Listener) Listen(ctx context.Context) (err error) {
	logger := FromContext(ctx)
	defer close(l.packetCh)

	resolved, err := net.ResolveUDPAddr("udp", l.bindAddr)
	if err != nil {
		logger.Error(err, "failed to resolve UDP address", "addr", l.bindAddr)
		return err
	}

	listenConfig := net.ListenConfig{
		Control: func(network, address string, c syscall.RawConn) error {
			var serr error
			controlErr := c.Control(func(fd uintptr) {
				serr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
				if serr != nil {
					return
				}
				serr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEPORT, 1)
			})
			if controlErr != nil {
				serr = controlErr
			}
			return serr
		},
	}
	l.listener, err = listenConfig.ListenPacket(ctx, "udp", l.bindAddr)
	if err != nil {
		logger.Error(err, "failed to bind udp listener", "addr", resolved)
		return err
	}
	defer l.listener.Close()
	l.addr, _ = l.listener.LocalAddr().(*net.UDPAddr)

	var rerr error
	done := make(chan struct{})
	go func() {
		defer close(done)
		// allocate this buffer once and re-use it for each read
		buffer := make([]byte, PacketBufferSize)
		for {
			n, addr, err := l.listener.ReadFrom(buffer)
			if err != nil {
				if errors.Is(err, net.ErrClosed) {
					return
				}
				UDPErrorsTotal.Inc()
				rerr = err
				logger.Error(err, "failed to read from UDP socket")
				return
			}
			UDPPacketsTotal.Inc()
			UDPPacketBytes.Add(float64(n))

			// trim to the actual packet size so we don't hold the full
			// PacketBufferSize allocation alive for every in-flight packet
			data := make([]byte, n)
			copy(data, buffer[:n])

			udpAddr, _ := addr.(*net.UDPAddr)

			// block rather than drop: the reconciliation engine's ingress
			// channel is the one place in this pipeline we never want to
			// silently discard a packet. If this blocks, the OS kernel UDP
			// receive buffer is where drops happen instead, and those are
			// already counted by the kernel, visible via UDPErrorsTotal only
			// indirectly (a full receive buffer surfaces here as ENOBUFS).
			select {
			case l.packetCh <- RawPacket{ReceivedAt: time.Now(), Client: udpAddr, Data: data}:
			case <-ctx.Done():
				return
			}
		}
	}()

	logger.Info("started UDP listener", "addr", l.bindAddr)

	select {
	case <-ctx.Done():
	case <-done:
	}
	logger.Info("shutting down UDP listener", "addr", l.bindAddr)

	return rerr
}

// Packets returns the channel RawPackets are published on. It is closed
// once Listen returns.
func (l *Listener) Packets() <-chan RawPacket {
	return l.packetCh
}

// LocalAddr returns the address the listener is bound to, or nil if Listen
// has not yet bound the socket.
func (l *Listener) LocalAddr() *net.UDPAddr {
	return l.addr
}
