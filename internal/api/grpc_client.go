package api

import (
	"context"
	"fmt"
	"time"

	"github.com/heysubinoy/minidis/internal/protocol"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

const defaultClientTimeout = 5 * time.Second

// GRPCClient calls a remote minidis.v1.KV service.
type GRPCClient struct {
	conn    grpc.ClientConnInterface
	timeout time.Duration
}

// Compile-time check to ensure GRPCClient implements protocol.Executor.
var _ protocol.Executor = (*GRPCClient)(nil)

// NewGRPCClient wraps conn. timeout bounds each Execute call; zero means
// five seconds.
func NewGRPCClient(conn grpc.ClientConnInterface, timeout time.Duration) *GRPCClient {
	if timeout <= 0 {
		timeout = defaultClientTimeout
	}
	return &GRPCClient{conn: conn, timeout: timeout}
}

// Do sends cmd and decodes the reply. A command rejected by the server as
// malformed comes back as a Failure response, not an error.
func (c *GRPCClient) Do(ctx context.Context, cmd protocol.Command) (protocol.Response, error) {
	req, err := commandToStruct(cmd)
	if err != nil {
		return nil, fmt.Errorf("encode command: %w", err)
	}

	out := new(structpb.Value)
	if err := c.conn.Invoke(ctx, executeFullName, req, out); err != nil {
		if isInvalidArgument(err) {
			return protocol.Failure{Message: status.Convert(err).Message()}, nil
		}
		return nil, fmt.Errorf("execute %s: %w", cmd.Name(), err)
	}

	data, err := protojson.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("encode reply: %w", err)
	}
	return protocol.DecodeResponse(cmd, data)
}

// Execute implements protocol.Executor. Transport errors become Failure.
func (c *GRPCClient) Execute(cmd protocol.Command) protocol.Response {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	resp, err := c.Do(ctx, cmd)
	if err != nil {
		return protocol.FailureFrom(err)
	}
	return resp
}
