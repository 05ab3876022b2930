package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"tokenring/internal/frame"
	"tokenring/internal/queue"
	"tokenring/internal/ring"
	"tokenring/internal/tokenring"
)

// Peer represents a peer node in the ring.
type Peer struct {
	ID   string
	Addr string
}

// Config holds the node configuration.
type Config struct {
	NodeID      string
	ListenAddr  string
	ControlAddr string
	// Peers lists the whole ring in ring order, self included.
	Peers []Peer
	// NextAddr, when set, is the ring link and Peers is not consulted for it.
	NextAddr string

	HoldTime           time.Duration
	Generator          bool
	WatchdogMultiplier int
	AckTimeout         time.Duration
	QueueCapacity      int
	Overflow           string

	TokenDropRate  float64
	CorruptionRate float64
	Seed           int64
}

// ParsePeers parses a comma-separated list of peers in the format:
// "id1=addr1,id2=addr2,id3=addr3"
// The order of the list is the ring order.
func ParsePeers(peersStr string) ([]Peer, error) {
	if peersStr == "" {
		return []Peer{}, nil
	}

	parts := strings.Split(peersStr, ",")
	peers := make([]Peer, 0, len(parts))

	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		id, addr, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("invalid peer format: %s (expected id=addr)", part)
		}
		id = strings.TrimSpace(id)
		addr = strings.TrimSpace(addr)

		if id == "" || addr == "" {
			return nil, fmt.Errorf("peer ID and address cannot be empty: %s", part)
		}
		if err := frame.ValidIdentity(id); err != nil {
			return nil, fmt.Errorf("peer %q: %w", id, err)
		}

		peers = append(peers, Peer{ID: id, Addr: addr})
	}

	return peers, nil
}

// LoadFile reads the four-line node file: next hop "ip:port", node identity,
// idle hold in seconds, and "true"/"false" for the generator role. The node
// listens on the next hop's port, one node per host.
func LoadFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	cfg, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse reads the four-line node file format from r.
func Parse(r io.Reader) (*Config, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lines = append(lines, strings.TrimSpace(scanner.Text()))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(lines) < 4 {
		return nil, fmt.Errorf("expected 4 lines, got %d", len(lines))
	}

	_, port, err := net.SplitHostPort(lines[0])
	if err != nil {
		return nil, fmt.Errorf("line 1: invalid next hop %q: %w", lines[0], err)
	}
	secs, err := strconv.Atoi(lines[2])
	if err != nil || secs <= 0 {
		return nil, fmt.Errorf("line 3: invalid token time %q", lines[2])
	}
	generator, err := strconv.ParseBool(lines[3])
	if err != nil {
		return nil, fmt.Errorf("line 4: invalid generator flag %q", lines[3])
	}

	return &Config{
		NodeID:     lines[1],
		ListenAddr: ":" + port,
		NextAddr:   lines[0],
		HoldTime:   time.Duration(secs) * time.Second,
		Generator:  generator,
	}, nil
}

// Validate checks that the configuration describes a usable ring position.
func (c *Config) Validate() error {
	if err := frame.ValidIdentity(c.NodeID); err != nil {
		return fmt.Errorf("node id: %w", err)
	}
	if c.ListenAddr == "" {
		return errors.New("listen address is required")
	}
	if c.HoldTime <= 0 {
		return errors.New("hold time must be positive")
	}
	if c.WatchdogMultiplier < 0 {
		return errors.New("watchdog multiplier cannot be negative")
	}
	if c.QueueCapacity < 0 {
		return errors.New("queue capacity cannot be negative")
	}
	if _, err := queue.ParsePolicy(c.Overflow); err != nil {
		return err
	}
	if c.TokenDropRate < 0 || c.TokenDropRate > 1 {
		return fmt.Errorf("token drop rate %v outside [0,1]", c.TokenDropRate)
	}
	if c.CorruptionRate < 0 || c.CorruptionRate > 1 {
		return fmt.Errorf("corruption rate %v outside [0,1]", c.CorruptionRate)
	}
	if _, err := c.NextHop(); err != nil {
		return err
	}
	return nil
}

// BuildRing converts the configured peers into a ring.
func (c *Config) BuildRing() (*ring.Ring, error) {
	nodes := make([]ring.Node, 0, len(c.Peers))
	for _, peer := range c.Peers {
		nodes = append(nodes, ring.Node{ID: peer.ID, Addr: peer.Addr})
	}

	r := ring.NewRing()
	if err := r.SetNodes(nodes); err != nil {
		return nil, err
	}
	return r, nil
}

// NextHop returns the address of the ring link.
func (c *Config) NextHop() (string, error) {
	if c.NextAddr != "" {
		return c.NextAddr, nil
	}
	if len(c.Peers) == 0 {
		return "", errors.New("either a next hop or a peer list is required")
	}

	r, err := c.BuildRing()
	if err != nil {
		return "", err
	}
	next, ok := r.Successor(c.NodeID)
	if !ok {
		return "", fmt.Errorf("node %s is not in the peer list", c.NodeID)
	}
	return next.Addr, nil
}

// RingSize is the number of nodes in the ring, or 0 when only the next hop
// is known.
func (c *Config) RingSize() int {
	return len(c.Peers)
}

// WatchdogPeriod is the token-loss bound: hold time times the multiplier,
// which defaults to the ring size.
func (c *Config) WatchdogPeriod() time.Duration {
	m := c.WatchdogMultiplier
	if m == 0 {
		m = c.RingSize()
	}
	if m == 0 {
		m = tokenring.DefaultWatchdogMultiplier
	}
	return c.HoldTime * time.Duration(m)
}

// NodeConfig derives the protocol parameters for tokenring.NewNode.
func (c *Config) NodeConfig() (tokenring.Config, error) {
	policy, err := queue.ParsePolicy(c.Overflow)
	if err != nil {
		return tokenring.Config{}, err
	}

	role := tokenring.Relay
	if c.Generator {
		role = tokenring.Generator
	}
	return tokenring.Config{
		ID:             c.NodeID,
		Role:           role,
		HoldTime:       c.HoldTime,
		WatchdogPeriod: c.WatchdogPeriod(),
		AckTimeout:     c.AckTimeout,
		QueueCapacity:  c.QueueCapacity,
		Overflow:       policy,
	}, nil
}
