package ipc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kapu/interview-teleprompter-go/internal/domain"
)

const ioTimeout = 5 * time.Second

// ControlMessage is one newline-delimited JSON request on the control socket.
type ControlMessage struct {
	Cmd    string         `json:"cmd"`
	Params map[string]any `json:"params,omitempty"`
}

// Handler answers a control message. Errors are reported to the client as
// {ok:false, message}.
type Handler func(ctx context.Context, msg ControlMessage) (*domain.CommandResult, error)

// Server accepts control connections on a unix socket, one request per connection.
type Server struct {
	path    string
	handler Handler
	logger  *zap.Logger

	mu     sync.Mutex
	ln     net.Listener
	conns  sync.WaitGroup
	closed bool
}

func NewServer(path string, handler Handler, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{path: path, handler: handler, logger: logger}
}

// Listen binds the socket, replacing a stale one left by a previous run.
func (s *Server) Listen() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove stale socket: %w", err)
	}

	ln, err := net.Listen("unix", s.path)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	if err := os.Chmod(s.path, 0o600); err != nil {
		ln.Close()
		return fmt.Errorf("chmod socket: %w", err)
	}

	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()

	s.logger.Info("Control socket listening", zap.String("path", s.path))
	return nil
}

// Serve accepts connections until ctx is cancelled or Close is called.
func (s *Server) Serve(ctx context.Context) error {
	s.mu.Lock()
	ln := s.ln
	s.mu.Unlock()
	if ln == nil {
		return errors.New("control socket is not listening")
	}

	go func() {
		<-ctx.Done()
		s.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if s.isClosed() {
				return nil
			}
			s.logger.Warn("Control accept failed", zap.Error(err))
			continue
		}
		s.conns.Add(1)
		go func() {
			defer s.conns.Done()
			s.handleConn(ctx, conn)
		}()
	}
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(ioTimeout))

	var msg ControlMessage
	if err := json.NewDecoder(conn).Decode(&msg); err != nil {
		s.reply(conn, &domain.CommandResult{OK: false, Message: "invalid request: " + err.Error()})
		return
	}

	res, err := s.handler(ctx, msg)
	if err != nil {
		s.logger.Warn("Control command failed", zap.String("cmd", msg.Cmd), zap.Error(err))
		res = &domain.CommandResult{OK: false, Message: err.Error()}
	}
	s.reply(conn, res)
}

func (s *Server) reply(conn net.Conn, res *domain.CommandResult) {
	if err := json.NewEncoder(conn).Encode(res); err != nil {
		s.logger.Debug("Control reply failed", zap.Error(err))
	}
}

func (s *Server) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close stops accepting, waits for in-flight requests and removes the socket file.
func (s *Server) Close() error {
	s.mu.Lock()
	if s.closed || s.ln == nil {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	ln := s.ln
	s.mu.Unlock()

	err := ln.Close()
	s.conns.Wait()
	_ = os.Remove(s.path)
	return err
}

// Send dials the control socket and returns the daemon's reply.
func Send(ctx context.Context, path string, msg ControlMessage) (*domain.CommandResult, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", path)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", path, err)
	}
	defer conn.Close()

	deadline := time.Now().Add(ioTimeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(deadline) {
		deadline = dl
	}
	_ = conn.SetDeadline(deadline)

	if err := json.NewEncoder(conn).Encode(msg); err != nil {
		return nil, fmt.Errorf("send: %w", err)
	}

	var res domain.CommandResult
	if err := json.NewDecoder(conn).Decode(&res); err != nil {
		return nil, fmt.Errorf("read reply: %w", err)
	}
	return &res, nil
}
