package api

import (
	"context"
	"net"
	"reflect"
	"testing"
	"time"

	"github.com/heysubinoy/minidis/internal/protocol"
	"github.com/heysubinoy/minidis/internal/store"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
)

func newTestGRPC(t *testing.T, exec protocol.Executor) *grpc.ClientConn {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	RegisterKVServer(srv, NewGRPCServer(exec, nil))
	go srv.Serve(lis)
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("grpc.NewClient: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestGRPCClientRoundTrip(t *testing.T) {
	conn := newTestGRPC(t, protocol.NewDispatcher(store.NewMemStore()))
	client := NewGRPCClient(conn, 5*time.Second)

	steps := []struct {
		cmd  protocol.Command
		want protocol.Response
	}{
		{protocol.Set{Key: "nome", Value: "Lucas Silva"}, protocol.Acknowledged{}},
		{protocol.Get{Key: "nome"}, protocol.OptionalText{Value: "Lucas Silva", Found: true}},
		{protocol.Exists{Key: "nome"}, protocol.Flag{Value: true}},
		{protocol.Keys{}, protocol.TextList{Values: []string{"nome"}}},
		{protocol.Size{}, protocol.Count{Value: 1}},
		{protocol.Del{Key: "nome"}, protocol.Flag{Value: true}},
		{protocol.Get{Key: "nome"}, protocol.OptionalText{}},
		{protocol.Keys{}, protocol.TextList{Values: []string{}}},
		{protocol.Flush{}, protocol.Acknowledged{}},
		{protocol.Ping{}, protocol.TextValue{Value: "PONG"}},
	}

	for _, step := range steps {
		got := client.Execute(step.cmd)
		if !reflect.DeepEqual(got, step.want) {
			t.Fatalf("%s = %#v, want %#v", step.cmd.Name(), got, step.want)
		}
	}
}

func TestGRPCStoreFailure(t *testing.T) {
	conn := newTestGRPC(t, protocol.NewDispatcher(lockedStore{}))
	client := NewGRPCClient(conn, 0)

	if _, ok := client.Execute(protocol.Size{}).(protocol.Failure); !ok {
		t.Fatal("expected Failure from locked store")
	}
}

func TestGRPCMalformedCommand(t *testing.T) {
	conn := newTestGRPC(t, protocol.NewDispatcher(store.NewMemStore()))

	req, err := structpb.NewStruct(map[string]any{"command": "HGET"})
	if err != nil {
		t.Fatalf("NewStruct: %v", err)
	}

	out := new(structpb.Value)
	err = conn.Invoke(context.Background(), executeFullName, req, out)
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("err = %v, want InvalidArgument", err)
	}
}

func TestGRPCClientTransportError(t *testing.T) {
	conn := newTestGRPC(t, protocol.NewDispatcher(store.NewMemStore()))
	client := NewGRPCClient(conn, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := client.Do(ctx, protocol.Ping{}); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
