// Package tokenring implements a single-token ring node: the token life-cycle
// state machine and the one-hop reliable relay built on top of it.
//
// Every node state transition runs on one goroutine that drains inbound
// frames, submissions, status queries, the node's state timer and, on the
// generator, the token-loss watchdog. Nothing else touches node state, so
// transitions never interleave.
//
// Limitations (best-effort self-healing, not consensus):
//   - A watchdog that fires while the token is only delayed puts a second
//     token on the ring until the next duplicate collision discards one.
//   - A token lost while no generator is watching leaves the ring idle until
//     the generator's watchdog bound elapses.
//   - Delivery is at-least-once: a message whose echo is lost is retried and
//     may reach its recipient twice.
package tokenring
