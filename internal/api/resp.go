package api

import (
	"bufio"
	"errors"
	"io"
	"net"
	"strings"
	"sync"

	"github.com/hashicorp/go-hclog"
	"github.com/heysubinoy/minidis/internal/protocol"
	"github.com/heysubinoy/minidis/pkg/resp"
)

// RESPServer accepts redis clients. Each connection is served by its own
// goroutine; commands go through the line-form parser and the executor.
type RESPServer struct {
	exec   protocol.Executor
	logger hclog.Logger

	mu       sync.Mutex
	listener net.Listener
	conns    map[net.Conn]struct{}
	closed   bool
	wg       sync.WaitGroup
}

// NewRESPServer creates a RESP server backed by exec.
func NewRESPServer(exec protocol.Executor, logger hclog.Logger) *RESPServer {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &RESPServer{
		exec:   exec,
		logger: logger,
		conns:  make(map[net.Conn]struct{}),
	}
}

// Serve accepts connections on l until Close is called. It returns nil after
// Close and the accept error otherwise.
func (s *RESPServer) Serve(l net.Listener) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		l.Close()
		return nil
	}
	s.listener = l
	s.mu.Unlock()

	for {
		conn, err := l.Accept()
		if err != nil {
			if s.isClosed() {
				return nil
			}
			return err
		}

		if !s.track(conn) {
			conn.Close()
			return nil
		}
		go s.handleClient(conn)
	}
}

// Close stops accepting, closes open connections and waits for their
// goroutines to finish.
func (s *RESPServer) Close() error {
	s.mu.Lock()
	s.closed = true
	var err error
	if s.listener != nil {
		err = s.listener.Close()
	}
	for conn := range s.conns {
		conn.Close()
	}
	s.mu.Unlock()

	s.wg.Wait()
	return err
}

func (s *RESPServer) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *RESPServer) track(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.conns[conn] = struct{}{}
	s.wg.Add(1)
	return true
}

func (s *RESPServer) untrack(conn net.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
	s.wg.Done()
}

func (s *RESPServer) handleClient(conn net.Conn) {
	defer s.untrack(conn)
	defer conn.Close()

	log := s.logger.With("remote", conn.RemoteAddr().String())
	log.Debug("client connected")

	reader := bufio.NewReader(conn)
	writer := bufio.NewWriter(conn)

	for {
		parts, err := resp.ReadCommand(reader)
		if err != nil {
			switch {
			case errors.Is(err, resp.ErrProtocol):
				writer.WriteString(resp.Error(err.Error()))
				writer.Flush()
				log.Warn("protocol error", "error", err)
			case errors.Is(err, io.EOF) || s.isClosed():
				log.Debug("client disconnected")
			default:
				log.Warn("read failed", "error", err)
			}
			return
		}
		if len(parts) == 0 {
			continue
		}

		if strings.EqualFold(parts[0], "QUIT") {
			writer.WriteString(resp.SimpleString("OK"))
			writer.Flush()
			return
		}

		var reply string
		cmd, err := protocol.ParseArgs(parts)
		if err != nil {
			reply = resp.Error(err.Error())
		} else {
			reply = encodeRESP(s.exec.Execute(cmd))
		}

		if _, err := writer.WriteString(reply); err != nil {
			log.Warn("write failed", "error", err)
			return
		}
		// Flush once the pipelined input is drained.
		if reader.Buffered() == 0 {
			if err := writer.Flush(); err != nil {
				log.Warn("write failed", "error", err)
				return
			}
		}
	}
}

// encodeRESP maps a Response onto the closest RESP reply type.
func encodeRESP(r protocol.Response) string {
	switch r := r.(type) {
	case protocol.TextValue:
		if strings.ContainsAny(r.Value, "\r\n") {
			return resp.BulkString(r.Value)
		}
		return resp.SimpleString(r.Value)
	case protocol.OptionalText:
		if !r.Found {
			return resp.Null()
		}
		return resp.BulkString(r.Value)
	case protocol.Flag:
		if r.Value {
			return resp.Integer(1)
		}
		return resp.Integer(0)
	case protocol.Count:
		return resp.Integer(int64(r.Value))
	case protocol.TextList:
		return resp.Array(r.Values)
	case protocol.Acknowledged:
		return resp.SimpleString("OK")
	case protocol.Failure:
		return resp.Error(r.Message)
	default:
		return resp.Error("unsupported response")
	}
}
