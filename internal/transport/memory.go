package transport

import (
	"fmt"
	"sync"
)

// Filter inspects a frame in transit and returns false to drop it.
type Filter func(from, to string, frame []byte) bool

// Network is an in-process registry of inboxes for memory transports.
type Network struct {
	mu      sync.RWMutex
	inboxes map[string]chan []byte
	filter  Filter
}

// NewNetwork creates an empty network.
func NewNetwork() *Network {
	return &Network{
		inboxes: make(map[string]chan []byte),
	}
}

// SetFilter installs a frame filter; nil delivers everything.
func (n *Network) SetFilter(f Filter) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.filter = f
}

// Join registers a node and returns its transport.
func (n *Network) Join(id string) *Memory {
	n.mu.Lock()
	defer n.mu.Unlock()

	inbox := make(chan []byte, inboxSize)
	n.inboxes[id] = inbox
	return &Memory{
		id:      id,
		network: n,
		inbox:   inbox,
	}
}

func (n *Network) deliver(from, to string, frame []byte) error {
	n.mu.RLock()
	defer n.mu.RUnlock()

	inbox, exists := n.inboxes[to]
	if !exists {
		return fmt.Errorf("unknown node %s", to)
	}
	if n.filter != nil && !n.filter(from, to, frame) {
		return nil
	}
	select {
	case inbox <- append([]byte(nil), frame...):
	default:
		// Full inbox: the frame is lost, as on a real datagram link.
	}
	return nil
}

func (n *Network) leave(id string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if inbox, exists := n.inboxes[id]; exists {
		delete(n.inboxes, id)
		close(inbox)
	}
}

// Memory is a Transport backed by a Network.
type Memory struct {
	id      string
	network *Network
	inbox   chan []byte

	mu     sync.RWMutex
	next   string
	closed bool
}

// Link sets the ring link to the node registered as nextID.
func (m *Memory) Link(nextID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next = nextID
}

// Send implements Transport.
func (m *Memory) Send(frame []byte) error {
	m.mu.RLock()
	next, closed := m.next, m.closed
	m.mu.RUnlock()

	if closed {
		return ErrClosed
	}
	if next == "" {
		return ErrNoLink
	}
	return m.network.deliver(m.id, next, frame)
}

// Incoming implements Transport.
func (m *Memory) Incoming() <-chan []byte {
	return m.inbox
}

// Close implements Transport.
func (m *Memory) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.mu.Unlock()

	m.network.leave(m.id)
	return nil
}
