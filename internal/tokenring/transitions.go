package tokenring

import (
	"log"
	"time"

	"tokenring/internal/checksum"
	"tokenring/internal/frame"
	"tokenring/internal/queue"
)

func (n *Node) handleFrame(b []byte) {
	kind, pkt, err := frame.Decode(b)
	if err != nil {
		n.stats.MalformedFrames++
		log.Printf("[%s] Dropping frame: %v", n.id, err)
		return
	}

	switch kind {
	case frame.KindToken:
		n.handleToken()
	case frame.KindData:
		n.handlePacket(pkt, b)
	}
}

func (n *Node) handleToken() {
	if n.dropper != nil && n.dropper.DropToken() {
		n.stats.TokensDropped++
		log.Printf("[%s] Fault injection dropped an incoming token", n.id)
		return
	}
	n.stats.TokensReceived++

	if n.state != WithoutToken {
		n.stats.DuplicateTokens++
		log.Printf("[%s] %v discarded (state=%s)", n.id, ErrDuplicateToken, n.state)
		return
	}
	n.takeToken()
}

// takeToken starts a possession: send the queue head or idle on the token.
func (n *Node) takeToken() {
	n.lastTokenSeen = time.Now()
	if n.queue.IsEmpty() {
		n.state = HoldingIdle
		n.armTimer(n.cfg.HoldTime)
		return
	}
	n.transmitHead()
}

func (n *Node) transmitHead() {
	n.stopTimer()

	entry, err := n.queue.PeekFront()
	if err != nil {
		n.state = HoldingIdle
		n.armTimer(n.cfg.HoldTime)
		return
	}

	payload := entry.Payload
	if n.corrupter != nil {
		payload = n.corrupter.MaybeCorrupt(payload)
	}
	b, err := frame.Encode(frame.Packet{
		Control:     frame.New,
		Origin:      n.id,
		Destination: entry.Destination,
		Checksum:    checksum.Sum(entry.Payload),
		Payload:     payload,
	})
	if err != nil {
		// Submit validates destinations, so this entry can never be sent.
		log.Printf("[%s] Discarding unsendable message to %q: %v", n.id, entry.Destination, err)
		n.queue.ConfirmDelivery()
		n.releaseToken()
		return
	}

	n.state = HoldingAwaitingAck
	n.stats.PacketsSent++
	log.Printf("[%s] Sending message to %s (attempt %d)", n.id, entry.Destination, entry.Attempts)
	n.send(b)

	if n.cfg.AckTimeout > 0 {
		n.armTimer(n.cfg.AckTimeout)
	}
}

func (n *Node) releaseToken() {
	n.stopTimer()
	n.state = WithoutToken
	n.stats.TokensSent++
	n.send(frame.Token())
}

func (n *Node) handleSubmit(entry queue.Entry) error {
	evicted, err := n.queue.Enqueue(entry)
	if err != nil {
		n.stats.Rejected++
		log.Printf("[%s] Rejected message to %s: %v", n.id, entry.Destination, err)
		return err
	}
	n.stats.Submitted++
	if evicted != nil {
		n.stats.Evicted++
		log.Printf("[%s] Queue full, evicted oldest message to %s", n.id, evicted.Destination)
	}

	if n.state == HoldingIdle {
		log.Printf("[%s] Token held idle, sending message to %s immediately", n.id, entry.Destination)
		n.transmitHead()
	}
	return nil
}

func (n *Node) handleTimeout() {
	switch n.state {
	case HoldingIdle:
		n.releaseToken()
	case HoldingAwaitingAck:
		n.stats.AckTimeouts++
		log.Printf("[%s] No echo within %v, message requeued for retry", n.id, n.cfg.AckTimeout)
		n.queue.Requeue()
		n.releaseToken()
	}
}

func (n *Node) handlePacket(pkt frame.Packet, raw []byte) {
	switch {
	case pkt.Origin == n.id:
		n.handleEcho(pkt)
	case pkt.Destination == n.id:
		n.handleAddressed(pkt, raw)
	default:
		n.stats.PacketsRelayed++
		n.send(raw)
	}
}

// handleEcho settles our in-flight message and passes the token on.
func (n *Node) handleEcho(pkt frame.Packet) {
	if n.state != HoldingAwaitingAck {
		n.stats.StaleEchoes++
		log.Printf("[%s] Discarding stale echo (%s) of message to %s", n.id, pkt.Control, pkt.Destination)
		return
	}

	switch pkt.Control {
	case frame.Ack:
		n.stats.Acked++
		n.queue.ConfirmDelivery()
		log.Printf("[%s] Message to %s acknowledged", n.id, pkt.Destination)
	case frame.New:
		n.stats.Acked++
		n.queue.ConfirmDelivery()
		log.Printf("[%s] Message to %s returned unjudged, %s is not on the ring", n.id, pkt.Destination, pkt.Destination)
	case frame.Nack:
		n.stats.Nacked++
		n.queue.Requeue()
		log.Printf("[%s] Message to %s returned NACK, requeued for retry", n.id, pkt.Destination)
	}
	n.releaseToken()
}

// handleAddressed judges a packet sent to us and echoes the verdict onward.
func (n *Node) handleAddressed(pkt frame.Packet, raw []byte) {
	if pkt.Control != frame.New {
		n.stats.PacketsRelayed++
		n.send(raw)
		return
	}

	if checksum.Verify(pkt.Payload, pkt.Checksum) {
		pkt.Control = frame.Ack
		n.stats.Delivered++
		n.onDeliver(Delivery{From: pkt.Origin, Payload: pkt.Payload})
	} else {
		pkt.Control = frame.Nack
		n.stats.Corrupted++
		log.Printf("[%s] %v from %s, replying NACK", n.id, ErrCorruptedPayload, pkt.Origin)
	}

	b, err := frame.Encode(pkt)
	if err != nil {
		log.Printf("[%s] Failed to encode verdict for %s: %v", n.id, pkt.Origin, err)
		return
	}
	n.send(b)
}

// checkToken is the generator's watchdog tick.
func (n *Node) checkToken() {
	if n.state != WithoutToken {
		return
	}
	elapsed := time.Since(n.lastTokenSeen)
	if elapsed <= n.cfg.WatchdogPeriod {
		return
	}

	n.stats.TokensRegenerated++
	log.Printf("[%s] %v: none seen for %v, generating a new one", n.id, ErrLostToken, elapsed.Round(time.Millisecond))
	n.lastTokenSeen = time.Now()
	n.stats.TokensSent++
	n.send(frame.Token())
}
