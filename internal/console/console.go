// Package console is the interactive front end of a node: each input line is
// either a "destination:message" submission or a command.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"tokenring/internal/tokenring"
)

const requestTimeout = 5 * time.Second

// Node is what the console drives: a local node or a control client.
type Node interface {
	Submit(ctx context.Context, destination string, payload []byte) error
	Status(ctx context.Context) (tokenring.Status, error)
}

// Console reads lines from in and reports on out.
// It does not own the node's lifecycle.
type Console struct {
	node Node
	in   io.Reader
	out  io.Writer
	quit func()
}

// New constructs a console over node. quit is invoked on "exit".
func New(node Node, in io.Reader, out io.Writer, quit func()) *Console {
	if quit == nil {
		quit = func() {}
	}
	return &Console{node: node, in: in, out: out, quit: quit}
}

// RunLine executes a single line:
//
//	<dest>:<message>   queue message for dest
//	status             print the node state and counters
//	exit               call quit() and return io.EOF
//
// On error it prints a line starting with "ERR" and returns the error.
func (c *Console) RunLine(ctx context.Context, line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}

	switch strings.ToLower(line) {
	case "exit", "quit":
		c.quit()
		return io.EOF
	case "status":
		return c.printStatus(ctx)
	case "help":
		fmt.Fprintln(c.out, "<dest>:<message> | status | exit")
		return nil
	}

	dest, payload, err := tokenring.ParseSubmission(line)
	if err != nil {
		fmt.Fprintln(c.out, "ERR expected <dest>:<message>")
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	if err := c.node.Submit(ctx, dest, payload); err != nil {
		if errors.Is(err, tokenring.ErrQueueFull) {
			fmt.Fprintln(c.out, "ERR queue full, message not sent")
		} else {
			fmt.Fprintf(c.out, "ERR %v\n", err)
		}
		return err
	}
	fmt.Fprintf(c.out, "queued for %s\n", dest)
	return nil
}

func (c *Console) printStatus(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	st, err := c.node.Status(ctx)
	if err != nil {
		fmt.Fprintf(c.out, "ERR %v\n", err)
		return err
	}
	fmt.Fprintf(c.out, "%s %s %s queue=%d/%d\n", st.NodeID, st.Role, st.State, st.QueueLen, st.QueueCapacity)
	fmt.Fprintf(c.out, "tokens: received=%d sent=%d regenerated=%d duplicate=%d dropped=%d\n",
		st.Stats.TokensReceived, st.Stats.TokensSent, st.Stats.TokensRegenerated,
		st.Stats.DuplicateTokens, st.Stats.TokensDropped)
	fmt.Fprintf(c.out, "packets: sent=%d relayed=%d delivered=%d acked=%d nacked=%d corrupted=%d timeouts=%d\n",
		st.Stats.PacketsSent, st.Stats.PacketsRelayed, st.Stats.Delivered,
		st.Stats.Acked, st.Stats.Nacked, st.Stats.Corrupted, st.Stats.AckTimeouts)
	return nil
}

// Run reads lines until EOF, "exit", or ctx is done. Errors from individual
// lines are already reported on out and do not stop the loop.
func (c *Console) Run(ctx context.Context) error {
	sc := bufio.NewScanner(c.in)
	for sc.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		if err := c.RunLine(ctx, sc.Text()); err == io.EOF {
			return nil
		}
	}
	return sc.Err()
}
