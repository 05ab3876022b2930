package it

import (
	"context"
	"fmt"
	"sync"
	"time"

	"tokenring/internal/config"
	"tokenring/internal/control"
	"tokenring/internal/node"
	"tokenring/internal/tokenring"
)

// Cluster represents an in-process test ring of nodes over loopback UDP.
type Cluster struct {
	nodes []*Node
	mu    sync.Mutex
}

// Node represents a single node in the test cluster
type Node struct {
	ID     string
	proc   *node.Node
	client *control.Client

	deliveriesMu sync.Mutex
	deliveries   []tokenring.Delivery
}

// Options tune a cluster. Zero values give a fast, fault-free ring.
type Options struct {
	HoldTime       time.Duration
	CorruptionRate map[string]float64
	TokenDropRate  map[string]float64
	Seed           int64
}

// NewCluster creates a new test cluster harness
func NewCluster() *Cluster {
	return &Cluster{}
}

// StartRing binds every node, links them in the given order, then starts
// them. The first ID is the generator.
func (c *Cluster) StartRing(ctx context.Context, ids []string, opts Options) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if opts.HoldTime == 0 {
		opts.HoldTime = 20 * time.Millisecond
	}

	for i, id := range ids {
		cfg := &config.Config{
			NodeID:             id,
			ListenAddr:         "127.0.0.1:0",
			ControlAddr:        "127.0.0.1:0",
			HoldTime:           opts.HoldTime,
			Generator:          i == 0,
			WatchdogMultiplier: len(ids) * 4,
			CorruptionRate:     opts.CorruptionRate[id],
			TokenDropRate:      opts.TokenDropRate[id],
			Seed:               opts.Seed + int64(i),
		}
		proc, err := node.New(cfg)
		if err != nil {
			c.stopLocked()
			return fmt.Errorf("failed to create node %s: %w", id, err)
		}

		n := &Node{ID: id, proc: proc}
		proc.Ring().SetOnDeliver(n.record)
		c.nodes = append(c.nodes, n)
	}

	for i, n := range c.nodes {
		next := c.nodes[(i+1)%len(c.nodes)]
		if err := n.proc.Connect(next.proc.RingAddr()); err != nil {
			c.stopLocked()
			return err
		}
	}

	// Relays first so the generator's first token has somewhere to go.
	for i := len(c.nodes) - 1; i >= 0; i-- {
		n := c.nodes[i]
		if err := n.proc.Start(); err != nil {
			c.stopLocked()
			return fmt.Errorf("failed to start node %s: %w", n.ID, err)
		}

		client, err := control.Dial(n.proc.ControlAddr())
		if err != nil {
			c.stopLocked()
			return err
		}
		n.client = client

		readyCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		err = client.WaitReady(readyCtx)
		cancel()
		if err != nil {
			c.stopLocked()
			return fmt.Errorf("node %s failed to become ready: %w", n.ID, err)
		}
	}
	return nil
}

// Stop stops all nodes in the cluster
func (c *Cluster) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
}

func (c *Cluster) stopLocked() {
	for _, n := range c.nodes {
		n.Stop()
	}
	c.nodes = nil
}

// GetNode returns a node by ID
func (c *Cluster) GetNode(nodeID string) *Node {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, n := range c.nodes {
		if n.ID == nodeID {
			return n
		}
	}
	return nil
}

// Stop stops a single node
func (n *Node) Stop() {
	if n.client != nil {
		n.client.Close()
	}
	n.proc.Stop()
}

// GetClient returns the control client for a node
func (n *Node) GetClient() *control.Client {
	return n.client
}

// Deliveries returns the messages this node accepted as recipient.
func (n *Node) Deliveries() []tokenring.Delivery {
	n.deliveriesMu.Lock()
	defer n.deliveriesMu.Unlock()
	return append([]tokenring.Delivery(nil), n.deliveries...)
}

func (n *Node) record(d tokenring.Delivery) {
	n.deliveriesMu.Lock()
	defer n.deliveriesMu.Unlock()
	n.deliveries = append(n.deliveries, d)
}
