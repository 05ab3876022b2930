package control

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"tokenring/internal/tokenring"
)

const readyPollInterval = 100 * time.Millisecond

// Client talks to a node's control endpoint.
type Client struct {
	addr   string
	conn   *grpc.ClientConn
	health healthpb.HealthClient
}

// Dial creates a client for the endpoint at addr. The connection is
// established lazily on the first call.
func Dial(addr string) (*Client, error) {
	conn, err := grpc.NewClient(addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", addr, err)
	}
	return &Client{
		addr:   addr,
		conn:   conn,
		health: healthpb.NewHealthClient(conn),
	}, nil
}

// ID returns the endpoint address the client is attached to.
func (c *Client) ID() string {
	return c.addr
}

// Submit queues payload for destination on the remote node.
func (c *Client) Submit(ctx context.Context, destination string, payload []byte) error {
	return c.SubmitLine(ctx, destination+":"+string(payload))
}

// SubmitLine sends a raw "destination:message" line.
func (c *Client) SubmitLine(ctx context.Context, line string) error {
	err := c.conn.Invoke(ctx, submitMethod, wrapperspb.String(line), new(emptypb.Empty))
	if err != nil {
		return fromStatusError(err)
	}
	return nil
}

// Status fetches the remote node's snapshot.
func (c *Client) Status(ctx context.Context) (tokenring.Status, error) {
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, statusMethod, new(emptypb.Empty), out); err != nil {
		return tokenring.Status{}, fromStatusError(err)
	}
	return protoToStatus(out)
}

// WaitReady polls the health service until the control service reports
// SERVING or ctx is done.
func (c *Client) WaitReady(ctx context.Context) error {
	ticker := time.NewTicker(readyPollInterval)
	defer ticker.Stop()

	for {
		checkCtx, cancel := context.WithTimeout(ctx, time.Second)
		resp, err := c.health.Check(checkCtx, &healthpb.HealthCheckRequest{Service: ServiceName})
		cancel()
		if err == nil && resp.GetStatus() == healthpb.HealthCheckResponse_SERVING {
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for %s to be ready: %w", c.addr, ctx.Err())
		case <-ticker.C:
		}
	}
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}
