package control

import (
	"context"
	"fmt"
	"log"
	"net"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"tokenring/internal/tokenring"
)

// Node is the part of a token ring node the control service drives.
type Node interface {
	ID() string
	Submit(ctx context.Context, destination string, payload []byte) error
	Status(ctx context.Context) (tokenring.Status, error)
}

// Server implements the Control gRPC service.
type Server struct {
	node   Node
	nodeID string
}

// NewServer creates a new gRPC server instance.
func NewServer(node Node) *Server {
	return &Server{
		node:   node,
		nodeID: node.ID(),
	}
}

// Submit handles Submit requests.
func (s *Server) Submit(ctx context.Context, req *wrapperspb.StringValue) (*emptypb.Empty, error) {
	dest, payload, err := tokenring.ParseSubmission(req.GetValue())
	if err != nil {
		return nil, toStatusError(err)
	}
	log.Printf("[%s] Submit request: destination=%s, bytes=%d", s.nodeID, dest, len(payload))

	if err := s.node.Submit(ctx, dest, payload); err != nil {
		return nil, toStatusError(err)
	}
	return &emptypb.Empty{}, nil
}

// Status handles Status requests.
func (s *Server) Status(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	st, err := s.node.Status(ctx)
	if err != nil {
		return nil, toStatusError(err)
	}
	pb, err := statusToProto(st)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode status: %v", err)
	}
	return pb, nil
}

// Endpoint serves the control service, health checks and reflection for one
// node.
type Endpoint struct {
	nodeID     string
	listenAddr string
	grpcServer *grpc.Server
	health     *health.Server
	lis        net.Listener
	wg         sync.WaitGroup
}

// NewEndpoint creates an endpoint for node on listenAddr.
func NewEndpoint(node Node, listenAddr string) *Endpoint {
	e := &Endpoint{
		nodeID:     node.ID(),
		listenAddr: listenAddr,
		grpcServer: grpc.NewServer(),
		health:     health.NewServer(),
	}

	RegisterControlServer(e.grpcServer, NewServer(node))
	healthpb.RegisterHealthServer(e.grpcServer, e.health)
	// Enable gRPC reflection for grpcurl
	reflection.Register(e.grpcServer)
	return e
}

// Start listens and serves in the background.
func (e *Endpoint) Start() error {
	lis, err := net.Listen("tcp", e.listenAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", e.listenAddr, err)
	}
	e.lis = lis

	e.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	e.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	log.Printf("[%s] Control service listening on %s", e.nodeID, lis.Addr())

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		if err := e.grpcServer.Serve(lis); err != nil {
			log.Printf("[%s] Control service stopped: %v", e.nodeID, err)
		}
	}()
	return nil
}

// Addr returns the bound address, useful when listening on port 0.
func (e *Endpoint) Addr() string {
	if e.lis == nil {
		return e.listenAddr
	}
	return e.lis.Addr().String()
}

// Stop gracefully stops the endpoint.
func (e *Endpoint) Stop() {
	e.health.Shutdown()
	log.Printf("[%s] Stopping control service", e.nodeID)
	e.grpcServer.GracefulStop()
	e.wg.Wait()
}
