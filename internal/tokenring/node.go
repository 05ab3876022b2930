package tokenring

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"tokenring/internal/fault"
	"tokenring/internal/frame"
	"tokenring/internal/queue"
	"tokenring/internal/transport"
)

const (
	// DefaultHoldTime is the idle-hold duration when none is configured.
	DefaultHoldTime = 1 * time.Second
	// DefaultWatchdogMultiplier sizes the watchdog when no period is given.
	DefaultWatchdogMultiplier = 3
)

// Config holds the protocol parameters of one node.
type Config struct {
	ID   string
	Role Role
	// HoldTime is how long an idle node keeps the token before passing it on.
	HoldTime time.Duration
	// WatchdogPeriod is both the generator's check interval and the silence
	// bound after which the token is presumed lost. Usually HoldTime times
	// the ring size.
	WatchdogPeriod time.Duration
	// AckTimeout bounds the wait for our own echo. Zero selects
	// WatchdogPeriod, negative disables it.
	AckTimeout    time.Duration
	QueueCapacity int
	Overflow      queue.Policy
}

type submitRequest struct {
	entry queue.Entry
	reply chan error
}

// Node is a token ring participant.
type Node struct {
	id        string
	cfg       Config
	transport transport.Transport
	queue     *queue.Queue

	// Hooks, set before Start.
	corrupter fault.Corrupter
	dropper   fault.Dropper
	onDeliver func(Delivery)

	submitCh chan submitRequest
	statusCh chan chan Status
	done     chan struct{}

	// Owned by the run loop.
	state         State
	lastTokenSeen time.Time
	timer         *time.Timer
	stats         Stats

	// Control
	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewNode creates a node that talks to its ring link through t.
func NewNode(cfg Config, t transport.Transport) *Node {
	if cfg.HoldTime <= 0 {
		cfg.HoldTime = DefaultHoldTime
	}
	if cfg.WatchdogPeriod <= 0 {
		cfg.WatchdogPeriod = cfg.HoldTime * DefaultWatchdogMultiplier
	}
	if cfg.AckTimeout == 0 {
		cfg.AckTimeout = cfg.WatchdogPeriod
	}

	n := &Node{
		id:        cfg.ID,
		cfg:       cfg,
		transport: t,
		queue:     queue.New(cfg.QueueCapacity, cfg.Overflow),
		submitCh:  make(chan submitRequest),
		statusCh:  make(chan chan Status),
		done:      make(chan struct{}),
		state:     WithoutToken,
	}
	n.onDeliver = n.logDelivery
	return n
}

// SetCorrupter installs a payload corrupter for outbound data packets.
func (n *Node) SetCorrupter(c fault.Corrupter) {
	n.corrupter = c
}

// SetTokenDropper installs a hook that may discard inbound token frames.
func (n *Node) SetTokenDropper(d fault.Dropper) {
	n.dropper = d
}

// SetOnDeliver sets the callback for messages addressed to this node. It runs
// on the run loop and must not block.
func (n *Node) SetOnDeliver(fn func(Delivery)) {
	if fn == nil {
		fn = n.logDelivery
	}
	n.onDeliver = fn
}

// ID returns the node identity.
func (n *Node) ID() string {
	return n.id
}

// Start launches the run loop.
func (n *Node) Start() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.cancel != nil {
		return errors.New("node already started")
	}
	ctx, cancel := context.WithCancel(context.Background())
	n.cancel = cancel

	n.wg.Add(1)
	go n.run(ctx)
	return nil
}

// Stop ends the run loop and waits for it. The transport is left open.
func (n *Node) Stop() {
	n.mu.Lock()
	cancel := n.cancel
	n.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	n.wg.Wait()
}

// Submit queues a message for destination. If the node is idling on the
// token the message is sent at once.
func (n *Node) Submit(ctx context.Context, destination string, payload []byte) error {
	if err := frame.ValidIdentity(destination); err != nil {
		return fmt.Errorf("%w: destination: %v", ErrInvalidSubmission, err)
	}

	req := submitRequest{
		entry: queue.Entry{Destination: destination, Payload: payload},
		reply: make(chan error, 1),
	}
	select {
	case n.submitCh <- req:
	case <-n.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-req.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Status returns a snapshot taken on the run loop.
func (n *Node) Status(ctx context.Context) (Status, error) {
	reply := make(chan Status, 1)
	select {
	case n.statusCh <- reply:
	case <-n.done:
		return Status{}, ErrStopped
	case <-ctx.Done():
		return Status{}, ctx.Err()
	}

	select {
	case s := <-reply:
		return s, nil
	case <-ctx.Done():
		return Status{}, ctx.Err()
	}
}

func (n *Node) run(ctx context.Context) {
	defer n.wg.Done()
	defer close(n.done)
	defer n.stopTimer()

	var watchdog <-chan time.Time
	if n.cfg.Role == Generator {
		ticker := time.NewTicker(n.cfg.WatchdogPeriod)
		defer ticker.Stop()
		watchdog = ticker.C

		log.Printf("[%s] Generator starting with the token (hold=%v, watchdog=%v)",
			n.id, n.cfg.HoldTime, n.cfg.WatchdogPeriod)
		n.takeToken()
	}

	incoming := n.transport.Incoming()
	for {
		// The timer is only ever stopped or replaced on this goroutine, so a
		// cancelled timer can no longer be selected.
		var timeout <-chan time.Time
		if n.timer != nil {
			timeout = n.timer.C
		}

		select {
		case <-ctx.Done():
			return
		case b, ok := <-incoming:
			if !ok {
				log.Printf("[%s] Transport closed, stopping", n.id)
				return
			}
			n.handleFrame(b)
		case req := <-n.submitCh:
			req.reply <- n.handleSubmit(req.entry)
		case reply := <-n.statusCh:
			reply <- n.snapshot()
		case <-timeout:
			n.timer = nil
			n.handleTimeout()
		case <-watchdog:
			n.checkToken()
		}
	}
}

func (n *Node) armTimer(d time.Duration) {
	n.stopTimer()
	n.timer = time.NewTimer(d)
}

func (n *Node) stopTimer() {
	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}
}

func (n *Node) send(b []byte) {
	if err := n.transport.Send(b); err != nil {
		log.Printf("[%s] Send failed: %v", n.id, err)
	}
}

func (n *Node) snapshot() Status {
	return Status{
		NodeID:        n.id,
		Role:          n.cfg.Role,
		State:         n.state,
		HoldsToken:    n.state != WithoutToken,
		AwaitingAck:   n.state == HoldingAwaitingAck,
		LastTokenSeen: n.lastTokenSeen,
		QueueLen:      n.queue.Len(),
		QueueCapacity: n.queue.Capacity(),
		Stats:         n.stats,
	}
}

func (n *Node) logDelivery(d Delivery) {
	log.Printf("[%s] Message from %s: %s", n.id, d.From, d.Payload)
}
