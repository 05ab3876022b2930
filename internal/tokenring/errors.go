package tokenring

import (
	"errors"

	"tokenring/internal/frame"
	"tokenring/internal/queue"
)

// Protocol faults. All of them are handled inside the node and logged; none
// stops the run loop.
var (
	// ErrCorruptedPayload is a checksum mismatch at the recipient.
	ErrCorruptedPayload = errors.New("corrupted payload")
	// ErrLostToken is a watchdog timeout on the generator.
	ErrLostToken = errors.New("token lost")
	// ErrDuplicateToken is a token received while one is already held.
	ErrDuplicateToken = errors.New("duplicate token")
	// ErrMalformedFrame is a datagram that failed to parse.
	ErrMalformedFrame = frame.ErrMalformed
)

var (
	// ErrQueueFull is returned by Submit when the outbound queue rejects the
	// message.
	ErrQueueFull = queue.ErrFull
	// ErrInvalidSubmission is a message that cannot be addressed.
	ErrInvalidSubmission = errors.New("invalid submission")
	// ErrStopped is returned by Submit and Status once the node has stopped.
	ErrStopped = errors.New("node stopped")
)
