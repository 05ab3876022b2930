package node

import (
	"fmt"
	"log"
	"sync"

	"tokenring/internal/config"
	"tokenring/internal/control"
	"tokenring/internal/fault"
	"tokenring/internal/tokenring"
	"tokenring/internal/transport"
)

// Node represents a single ring member process: its datagram socket, the
// token ring state machine, and the optional control endpoint.
type Node struct {
	nodeID    string
	transport *transport.UDP
	ring      *tokenring.Node
	endpoint  *control.Endpoint

	mu      sync.Mutex
	started bool
}

// New binds the ring socket and assembles the node from cfg. The ring link is
// set separately with Connect so that a whole ring can be bound first.
func New(cfg *config.Config) (*Node, error) {
	nodeCfg, err := cfg.NodeConfig()
	if err != nil {
		return nil, err
	}

	tr, err := transport.NewUDP(cfg.ListenAddr)
	if err != nil {
		return nil, err
	}

	rn := tokenring.NewNode(nodeCfg, tr)
	if cfg.CorruptionRate > 0 {
		rn.SetCorrupter(fault.NewInjector(cfg.CorruptionRate, cfg.Seed))
		log.Printf("[%s] Corrupting outbound payloads with probability %.2f", cfg.NodeID, cfg.CorruptionRate)
	}
	if cfg.TokenDropRate > 0 {
		rn.SetTokenDropper(fault.NewTokenDropper(cfg.TokenDropRate, cfg.Seed+1))
		log.Printf("[%s] Dropping inbound tokens with probability %.2f", cfg.NodeID, cfg.TokenDropRate)
	}

	n := &Node{
		nodeID:    cfg.NodeID,
		transport: tr,
		ring:      rn,
	}
	if cfg.ControlAddr != "" {
		n.endpoint = control.NewEndpoint(rn, cfg.ControlAddr)
	}
	return n, nil
}

// Connect sets the ring link to the next hop's datagram address.
func (n *Node) Connect(nextAddr string) error {
	if err := n.transport.Connect(nextAddr); err != nil {
		return err
	}
	log.Printf("[%s] Ring link %s -> %s", n.nodeID, n.transport.LocalAddr(), nextAddr)
	return nil
}

// Start starts the control endpoint, then the ring protocol.
func (n *Node) Start() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.started {
		return fmt.Errorf("node %s already started", n.nodeID)
	}
	if n.endpoint != nil {
		if err := n.endpoint.Start(); err != nil {
			return err
		}
	}
	if err := n.ring.Start(); err != nil {
		if n.endpoint != nil {
			n.endpoint.Stop()
		}
		return err
	}
	n.started = true
	log.Printf("[%s] Starting node on %s", n.nodeID, n.transport.LocalAddr())
	return nil
}

// Stop gracefully stops the node and releases its socket.
func (n *Node) Stop() {
	n.mu.Lock()
	defer n.mu.Unlock()

	log.Printf("[%s] Stopping node", n.nodeID)
	if n.endpoint != nil && n.started {
		n.endpoint.Stop()
	}
	n.ring.Stop()
	n.transport.Close()
	n.started = false
}

// ID returns the ring identity.
func (n *Node) ID() string {
	return n.nodeID
}

// Ring returns the protocol state machine for local submission and status.
func (n *Node) Ring() *tokenring.Node {
	return n.ring
}

// RingAddr returns the bound datagram address.
func (n *Node) RingAddr() string {
	return n.transport.LocalAddr()
}

// ControlAddr returns the bound control address, or "" when disabled.
func (n *Node) ControlAddr() string {
	if n.endpoint == nil {
		return ""
	}
	return n.endpoint.Addr()
}
