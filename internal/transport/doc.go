// Package transport moves whole frames to a node's ring link and delivers
// inbound frames to its run loop. Delivery is best effort: frames may be
// lost, and Send never waits for the peer.
package transport
