// Package queue provides the bounded outbound message queue of a ring node.
// Entries leave the queue only when their delivery is confirmed; a negative
// acknowledgment keeps the entry at the front so it is retried before any
// newer message.
package queue
