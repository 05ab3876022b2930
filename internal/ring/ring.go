package ring

import (
	"fmt"
	"sync"
)

// Node represents a peer on the ring.
type Node struct {
	ID   string
	Addr string
}

// Ring is an ordered cycle of nodes. The successor of the last node is the
// first node.
type Ring struct {
	mu    sync.RWMutex
	nodes []Node
	index map[string]int // nodeID -> position
}

// NewRing creates an empty ring.
func NewRing() *Ring {
	return &Ring{
		nodes: make([]Node, 0),
		index: make(map[string]int),
	}
}

// SetNodes replaces the ring with nodes in the given order.
// Duplicate IDs are rejected and leave the ring unchanged.
func (r *Ring) SetNodes(nodes []Node) error {
	index := make(map[string]int, len(nodes))
	for i, node := range nodes {
		if _, exists := index[node.ID]; exists {
			return fmt.Errorf("duplicate node ID in ring: %s", node.ID)
		}
		index[node.ID] = i
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.nodes = append([]Node(nil), nodes...)
	r.index = index
	return nil
}

// Successor returns the next hop after nodeID.
// Returns (Node{}, false) if nodeID is not on the ring.
func (r *Ring) Successor(nodeID string) (Node, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	pos, exists := r.index[nodeID]
	if !exists {
		return Node{}, false
	}
	return r.nodes[(pos+1)%len(r.nodes)], true
}

// Predecessor returns the node whose ring link points at nodeID.
func (r *Ring) Predecessor(nodeID string) (Node, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	pos, exists := r.index[nodeID]
	if !exists {
		return Node{}, false
	}
	return r.nodes[(pos-1+len(r.nodes))%len(r.nodes)], true
}

// Get returns the node with the given ID.
func (r *Ring) Get(nodeID string) (Node, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	pos, exists := r.index[nodeID]
	if !exists {
		return Node{}, false
	}
	return r.nodes[pos], true
}

// Size returns the number of nodes on the ring.
func (r *Ring) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.nodes)
}

// GetNodes returns the nodes in ring order.
func (r *Ring) GetNodes() []Node {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Node(nil), r.nodes...)
}
