package api

import (
	"context"

	"github.com/hashicorp/go-hclog"
	"github.com/heysubinoy/minidis/internal/protocol"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	kvServiceName   = "minidis.v1.KV"
	executeFullName = "/" + kvServiceName + "/Execute"
)

// KVServer is the server API of the minidis.v1.KV service. Requests carry the
// structured command as a google.protobuf.Struct and replies carry the
// response JSON as a google.protobuf.Value, so no generated code is needed.
type KVServer interface {
	Execute(ctx context.Context, req *structpb.Struct) (*structpb.Value, error)
}

var kvServiceDesc = grpc.ServiceDesc{
	ServiceName: kvServiceName,
	HandlerType: (*KVServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Execute",
			Handler:    executeHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "minidis/v1/kv.proto",
}

// RegisterKVServer registers srv on s.
func RegisterKVServer(s grpc.ServiceRegistrar, srv KVServer) {
	s.RegisterService(&kvServiceDesc, srv)
}

func executeHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(KVServer).Execute(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: executeFullName,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(KVServer).Execute(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// GRPCServer implements KVServer on top of an executor.
type GRPCServer struct {
	exec   protocol.Executor
	logger hclog.Logger
}

// Compile-time check to ensure GRPCServer implements KVServer.
var _ KVServer = (*GRPCServer)(nil)

// NewGRPCServer creates a new gRPC server with the given executor.
func NewGRPCServer(exec protocol.Executor, logger hclog.Logger) *GRPCServer {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &GRPCServer{
		exec:   exec,
		logger: logger,
	}
}

// Execute decodes the structured command in req, runs it and returns the
// response JSON. Malformed commands are rejected with InvalidArgument.
func (s *GRPCServer) Execute(ctx context.Context, req *structpb.Struct) (*structpb.Value, error) {
	data, err := protojson.Marshal(req)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "encode request: %v", err)
	}

	cmd, err := protocol.DecodeCommand(data)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	resp := s.exec.Execute(cmd)
	if f, ok := resp.(protocol.Failure); ok {
		s.logger.Error("command failed", "command", cmd.Name(), "error", f.Message)
	}

	out, err := responseToValue(resp)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return out, nil
}

func responseToValue(resp protocol.Response) (*structpb.Value, error) {
	data, err := protocol.EncodeResponse(resp)
	if err != nil {
		return nil, err
	}
	v := new(structpb.Value)
	if err := protojson.Unmarshal(data, v); err != nil {
		return nil, err
	}
	return v, nil
}

func commandToStruct(cmd protocol.Command) (*structpb.Struct, error) {
	data, err := protocol.EncodeCommand(cmd)
	if err != nil {
		return nil, err
	}
	s := new(structpb.Struct)
	if err := protojson.Unmarshal(data, s); err != nil {
		return nil, err
	}
	return s, nil
}

// isInvalidArgument reports whether err is a gRPC InvalidArgument status.
func isInvalidArgument(err error) bool {
	return status.Code(err) == codes.InvalidArgument
}
