package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/go-hclog"
	"github.com/heysubinoy/minidis/internal/api"
	"github.com/heysubinoy/minidis/internal/protocol"
	"github.com/heysubinoy/minidis/internal/store"
	"github.com/heysubinoy/minidis/pkg/config"
	"github.com/heysubinoy/minidis/pkg/kv"
	"google.golang.org/grpc"
)

const shutdownTimeout = 5 * time.Second

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := cfg.NewLogger("minidis")
	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger hclog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, closeBackend, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeBackend()

	instrumented := store.NewInstrumentedStore(backend)
	dispatcher := protocol.NewDispatcher(instrumented)

	logger.Info("starting node", "node_id", cfg.NodeID, "backend", cfg.Backend)

	errCh := make(chan error, 3)
	var shutdown []func(context.Context)
	// Stop whatever was started, also when a later listener fails.
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		for _, fn := range shutdown {
			fn(shutdownCtx)
		}
	}()

	if cfg.HTTPAddr != "" {
		gin.SetMode(gin.ReleaseMode)

		httpLog := logger.Named("http")
		lis, err := net.Listen("tcp", cfg.HTTPAddr)
		if err != nil {
			return fmt.Errorf("failed to listen on %s: %w", cfg.HTTPAddr, err)
		}
		srv := &http.Server{
			Handler: api.NewServer(dispatcher, instrumented, httpLog).Handler(),
		}
		go func() {
			httpLog.Info("HTTP server listening", "addr", cfg.HTTPAddr)
			if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("http: %w", err)
			}
		}()
		shutdown = append(shutdown, func(ctx context.Context) {
			if err := srv.Shutdown(ctx); err != nil {
				httpLog.Warn("shutdown failed", "error", err)
			}
			// Serve may not have picked the listener up yet.
			lis.Close()
		})
	}

	if cfg.GRPCAddr != "" {
		grpcLog := logger.Named("grpc")
		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			return fmt.Errorf("failed to listen on %s: %w", cfg.GRPCAddr, err)
		}
		grpcServer := grpc.NewServer()
		api.RegisterKVServer(grpcServer, api.NewGRPCServer(dispatcher, grpcLog))
		go func() {
			grpcLog.Info("gRPC server listening", "addr", cfg.GRPCAddr)
			if err := grpcServer.Serve(lis); err != nil {
				errCh <- fmt.Errorf("grpc: %w", err)
			}
		}()
		shutdown = append(shutdown, func(ctx context.Context) {
			done := make(chan struct{})
			go func() {
				grpcServer.GracefulStop()
				close(done)
			}()
			select {
			case <-done:
			case <-ctx.Done():
				grpcServer.Stop()
			}
			lis.Close()
		})
	}

	if cfg.RESPAddr != "" {
		respLog := logger.Named("resp")
		lis, err := net.Listen("tcp", cfg.RESPAddr)
		if err != nil {
			return fmt.Errorf("failed to listen on %s: %w", cfg.RESPAddr, err)
		}
		respServer := api.NewRESPServer(dispatcher, respLog)
		go func() {
			respLog.Info("RESP server listening", "addr", cfg.RESPAddr)
			if err := respServer.Serve(lis); err != nil {
				errCh <- fmt.Errorf("resp: %w", err)
			}
		}()
		shutdown = append(shutdown, func(context.Context) {
			if err := respServer.Close(); err != nil {
				respLog.Warn("shutdown failed", "error", err)
			}
			lis.Close()
		})
	}

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case runErr = <-errCh:
	}

	return runErr
}

// openStore builds the configured backend and returns a function releasing it.
func openStore(ctx context.Context, cfg *config.Config, logger hclog.Logger) (kv.Store, func(), error) {
	switch cfg.Backend {
	case config.BackendRaft:
		rs, err := store.NewRaftStore(ctx, store.RaftConfig{
			NodeID:       cfg.NodeID,
			ApplyTimeout: cfg.ApplyTimeout,
			Logger:       logger.Named("raft"),
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to start raft store: %w", err)
		}
		return rs, func() {
			if err := rs.Close(); err != nil {
				logger.Warn("raft shutdown failed", "error", err)
			}
		}, nil
	default:
		return store.NewMemStore(), func() {}, nil
	}
}
