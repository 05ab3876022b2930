package tokenring

import "time"

// State is the node's token-possession state.
type State int

const (
	WithoutToken State = iota
	HoldingIdle
	HoldingAwaitingAck
)

// String returns the string representation of State.
func (s State) String() string {
	switch s {
	case WithoutToken:
		return "WITHOUT_TOKEN"
	case HoldingIdle:
		return "HOLDING_IDLE"
	case HoldingAwaitingAck:
		return "HOLDING_AWAITING_ACK"
	default:
		return "UNKNOWN"
	}
}

// Role is the node's part in token management.
type Role int

const (
	// Relay only passes the token on.
	Relay Role = iota
	// Generator creates the initial token and regenerates lost ones.
	Generator
)

// String returns the string representation of Role.
func (r Role) String() string {
	switch r {
	case Relay:
		return "RELAY"
	case Generator:
		return "GENERATOR"
	default:
		return "UNKNOWN"
	}
}

// Stats counts protocol events since start.
type Stats struct {
	TokensReceived    uint64
	TokensSent        uint64
	TokensDropped     uint64 // discarded by the fault-injection hook
	TokensRegenerated uint64
	DuplicateTokens   uint64
	PacketsSent       uint64
	PacketsRelayed    uint64
	Delivered         uint64 // addressed to us, checksum matched
	Corrupted         uint64 // addressed to us, answered with NACK
	Acked             uint64
	Nacked            uint64
	AckTimeouts       uint64
	StaleEchoes       uint64
	MalformedFrames   uint64
	Submitted         uint64
	Rejected          uint64
	Evicted           uint64
}

// Status is a point-in-time view of a node.
type Status struct {
	NodeID        string
	Role          Role
	State         State
	HoldsToken    bool
	AwaitingAck   bool
	LastTokenSeen time.Time
	QueueLen      int
	QueueCapacity int
	Stats         Stats
}

// Delivery is a message accepted by this node as its recipient.
type Delivery struct {
	From    string
	Payload []byte
}
