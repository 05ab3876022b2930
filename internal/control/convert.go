package control

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"tokenring/internal/tokenring"
)

// statsFields names every counter for the wire form of Status.
func statsFields(s *tokenring.Stats) map[string]*uint64 {
	return map[string]*uint64{
		"tokens_received":    &s.TokensReceived,
		"tokens_sent":        &s.TokensSent,
		"tokens_dropped":     &s.TokensDropped,
		"tokens_regenerated": &s.TokensRegenerated,
		"duplicate_tokens":   &s.DuplicateTokens,
		"packets_sent":       &s.PacketsSent,
		"packets_relayed":    &s.PacketsRelayed,
		"delivered":          &s.Delivered,
		"corrupted":          &s.Corrupted,
		"acked":              &s.Acked,
		"nacked":             &s.Nacked,
		"ack_timeouts":       &s.AckTimeouts,
		"stale_echoes":       &s.StaleEchoes,
		"malformed_frames":   &s.MalformedFrames,
		"submitted":          &s.Submitted,
		"rejected":           &s.Rejected,
		"evicted":            &s.Evicted,
	}
}

func statusToProto(s tokenring.Status) (*structpb.Struct, error) {
	stats := make(map[string]any)
	for name, v := range statsFields(&s.Stats) {
		stats[name] = *v
	}

	lastSeen := ""
	if !s.LastTokenSeen.IsZero() {
		lastSeen = s.LastTokenSeen.UTC().Format(time.RFC3339Nano)
	}

	return structpb.NewStruct(map[string]any{
		"node_id":         s.NodeID,
		"role":            s.Role.String(),
		"state":           s.State.String(),
		"holds_token":     s.HoldsToken,
		"awaiting_ack":    s.AwaitingAck,
		"last_token_seen": lastSeen,
		"queue_len":       s.QueueLen,
		"queue_capacity":  s.QueueCapacity,
		"stats":           stats,
	})
}

func protoToStatus(pb *structpb.Struct) (tokenring.Status, error) {
	fields := pb.GetFields()
	s := tokenring.Status{
		NodeID:        fields["node_id"].GetStringValue(),
		HoldsToken:    fields["holds_token"].GetBoolValue(),
		AwaitingAck:   fields["awaiting_ack"].GetBoolValue(),
		QueueLen:      int(fields["queue_len"].GetNumberValue()),
		QueueCapacity: int(fields["queue_capacity"].GetNumberValue()),
	}

	switch role := fields["role"].GetStringValue(); role {
	case tokenring.Relay.String():
		s.Role = tokenring.Relay
	case tokenring.Generator.String():
		s.Role = tokenring.Generator
	default:
		return tokenring.Status{}, fmt.Errorf("unknown role %q", role)
	}

	switch state := fields["state"].GetStringValue(); state {
	case tokenring.WithoutToken.String():
		s.State = tokenring.WithoutToken
	case tokenring.HoldingIdle.String():
		s.State = tokenring.HoldingIdle
	case tokenring.HoldingAwaitingAck.String():
		s.State = tokenring.HoldingAwaitingAck
	default:
		return tokenring.Status{}, fmt.Errorf("unknown state %q", state)
	}

	if v := fields["last_token_seen"].GetStringValue(); v != "" {
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return tokenring.Status{}, fmt.Errorf("last_token_seen: %w", err)
		}
		s.LastTokenSeen = t
	}

	stats := fields["stats"].GetStructValue().GetFields()
	for name, v := range statsFields(&s.Stats) {
		*v = uint64(stats[name].GetNumberValue())
	}
	return s, nil
}

// toStatusError maps node errors onto gRPC codes.
func toStatusError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, tokenring.ErrInvalidSubmission):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, tokenring.ErrQueueFull):
		return status.Error(codes.ResourceExhausted, err.Error())
	case errors.Is(err, tokenring.ErrStopped):
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return status.FromContextError(err).Err()
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

// fromStatusError restores the node sentinels on the client side.
func fromStatusError(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	switch st.Code() {
	case codes.OK:
		return nil
	case codes.InvalidArgument:
		return fmt.Errorf("%w: %s", tokenring.ErrInvalidSubmission, st.Message())
	case codes.ResourceExhausted:
		return fmt.Errorf("%w: %s", tokenring.ErrQueueFull, st.Message())
	case codes.Unavailable:
		return fmt.Errorf("%w: %s", tokenring.ErrStopped, st.Message())
	default:
		return err
	}
}
