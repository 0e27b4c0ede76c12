package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/heysubinoy/minidis/internal/api"
	"github.com/heysubinoy/minidis/internal/protocol"
	"github.com/heysubinoy/minidis/internal/repl"
	"github.com/heysubinoy/minidis/internal/store"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("kv-cli", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { printUsage(stderr) }
	grpcAddr := fs.String("grpc", "", "address of a running minidis gRPC server")
	timeout := fs.Duration("timeout", 5*time.Second, "per-command timeout in remote mode")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	var exec protocol.Executor
	if *grpcAddr != "" {
		// Connect to gRPC server using passthrough resolver for direct address connection
		conn, err := grpc.NewClient("passthrough:///"+*grpcAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
		if err != nil {
			fmt.Fprintf(stderr, "Failed to connect: %v\n", err)
			return 1
		}
		defer conn.Close()
		exec = api.NewGRPCClient(conn, *timeout)
	} else {
		exec = protocol.NewDispatcher(store.NewMemStore())
	}

	if fs.NArg() == 0 {
		if err := repl.Run(exec, stdin, stdout); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}

	cmd, err := protocol.ParseArgs(fs.Args())
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n\n", err)
		printUsage(stderr)
		return 1
	}

	fmt.Fprintln(stdout, protocol.Render(exec.Execute(cmd)))
	return 0
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  kv-cli [-grpc addr]                  start an interactive session")
	fmt.Fprintln(w, "  kv-cli [-grpc addr] get <key>")
	fmt.Fprintln(w, "  kv-cli [-grpc addr] set <key> <value>")
	fmt.Fprintln(w, "  kv-cli [-grpc addr] del <key>")
	fmt.Fprintln(w, "  kv-cli [-grpc addr] exists <key>")
	fmt.Fprintln(w, "  kv-cli [-grpc addr] keys | flush | size | ping")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Without -grpc the commands run against a fresh in-process store.")
}
