package console

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tokenring/internal/tokenring"
)

type fakeNode struct {
	submitted []string
	submitErr error
	status    tokenring.Status
}

func (f *fakeNode) Submit(_ context.Context, dest string, payload []byte) error {
	if f.submitErr != nil {
		return f.submitErr
	}
	f.submitted = append(f.submitted, dest+"|"+string(payload))
	return nil
}

func (f *fakeNode) Status(context.Context) (tokenring.Status, error) {
	return f.status, nil
}

func TestRunLine_Submit(t *testing.T) {
	node := &fakeNode{}
	var out bytes.Buffer
	c := New(node, nil, &out, nil)
	ctx := context.Background()

	require.NoError(t, c.RunLine(ctx, "Bob:hello there"))
	require.NoError(t, c.RunLine(ctx, "  Alice:a:b:c  "))
	require.NoError(t, c.RunLine(ctx, ""))

	assert.Equal(t, []string{"Bob|hello there", "Alice|a:b:c"}, node.submitted)
	assert.Contains(t, out.String(), "queued for Bob")
}

func TestRunLine_Errors(t *testing.T) {
	node := &fakeNode{}
	var out bytes.Buffer
	c := New(node, nil, &out, nil)
	ctx := context.Background()

	err := c.RunLine(ctx, "just words")
	assert.ErrorIs(t, err, tokenring.ErrInvalidSubmission)
	assert.Contains(t, out.String(), "ERR expected <dest>:<message>")

	out.Reset()
	node.submitErr = tokenring.ErrQueueFull
	err = c.RunLine(ctx, "Bob:x")
	assert.ErrorIs(t, err, tokenring.ErrQueueFull)
	assert.Contains(t, out.String(), "ERR queue full")

	out.Reset()
	node.submitErr = errors.New("boom")
	assert.Error(t, c.RunLine(ctx, "Bob:x"))
	assert.Contains(t, out.String(), "ERR boom")
}

func TestRunLine_Status(t *testing.T) {
	node := &fakeNode{status: tokenring.Status{
		NodeID:        "Bob",
		Role:          tokenring.Generator,
		State:         tokenring.HoldingIdle,
		QueueLen:      2,
		QueueCapacity: 10,
		Stats:         tokenring.Stats{TokensRegenerated: 4},
	}}
	var out bytes.Buffer
	c := New(node, nil, &out, nil)

	require.NoError(t, c.RunLine(context.Background(), "STATUS"))
	assert.Contains(t, out.String(), "Bob GENERATOR HOLDING_IDLE queue=2/10")
	assert.Contains(t, out.String(), "regenerated=4")
}

func TestRun_StopsOnExit(t *testing.T) {
	node := &fakeNode{}
	quit := false
	in := strings.NewReader("Bob:one\nexit\nBob:two\n")
	c := New(node, in, io.Discard, func() { quit = true })

	require.NoError(t, c.Run(context.Background()))
	assert.True(t, quit)
	assert.Equal(t, []string{"Bob|one"}, node.submitted)
}

func TestRun_ContinuesAfterBadLine(t *testing.T) {
	node := &fakeNode{}
	in := strings.NewReader("garbage\nBob:ok\n")
	c := New(node, in, io.Discard, nil)

	require.NoError(t, c.Run(context.Background()))
	assert.Equal(t, []string{"Bob|ok"}, node.submitted)
}
