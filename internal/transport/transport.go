package transport

import "errors"

var (
	// ErrClosed is returned by Send after Close.
	ErrClosed = errors.New("transport closed")
	// ErrNoLink is returned by Send before the ring link is connected.
	ErrNoLink = errors.New("ring link not connected")
)

// Transport is a node's view of the ring: one outbound link and one inbox.
type Transport interface {
	// Send transmits a frame to the ring link without waiting for delivery.
	Send(frame []byte) error
	// Incoming returns the inbound frame channel. It is closed on Close.
	Incoming() <-chan []byte
	// Close releases the transport.
	Close() error
}

// inboxSize bounds buffered inbound frames; a full inbox drops like a
// congested datagram socket.
const inboxSize = 64
