package ipc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/blwfish/freecad-mcp-sub000/internal/framing"
)

// Handler routes one request. It must always return an envelope.
type Handler func(ctx context.Context, req *Request) Envelope

// DefaultReadTimeout bounds how long a client may take to send its request.
const DefaultReadTimeout = 30 * time.Second

// Server accepts one framed request per connection and answers it with one
// framed envelope. Each connection is served on its own goroutine.
type Server struct {
	network     string
	address     string
	handler     Handler
	readTimeout time.Duration
	peerCheck   bool
	logger      *slog.Logger

	listener net.Listener
	wg       sync.WaitGroup
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithReadTimeout bounds the time allowed to read a request frame.
func WithReadTimeout(d time.Duration) ServerOption {
	return func(s *Server) {
		if d > 0 {
			s.readTimeout = d
		}
	}
}

// WithPeerCheck rejects Unix socket peers owned by another user.
func WithPeerCheck(enabled bool) ServerOption {
	return func(s *Server) { s.peerCheck = enabled }
}

// WithLogger sets the server logger.
func WithLogger(l *slog.Logger) ServerOption {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates a server for network "unix" or "tcp".
func NewServer(network, address string, handler Handler, opts ...ServerOption) *Server {
	s := &Server{
		network:     network,
		address:     address,
		handler:     handler,
		readTimeout: DefaultReadTimeout,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start begins listening for connections. For Unix sockets it removes any
// stale socket file first and restricts the new one to the current user.
func (s *Server) Start() error {
	if s.network == "unix" {
		os.Remove(s.address)
	}

	ln, err := net.Listen(s.network, s.address)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.address, err)
	}
	if s.network == "unix" {
		if err := os.Chmod(s.address, 0600); err != nil {
			ln.Close()
			os.Remove(s.address)
			return fmt.Errorf("setting socket permissions: %w", err)
		}
	}
	s.listener = ln
	s.logger.Info("socket server listening", "network", s.network, "address", ln.Addr().String())

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.acceptLoop()
	}()
	return nil
}

// Addr returns the bound address, or nil before Start.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stop closes the listener and waits for in-flight connections.
func (s *Server) Stop() {
	if s.listener != nil {
		s.listener.Close()
	}
	s.wg.Wait()
	if s.network == "unix" {
		os.Remove(s.address)
	}
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return // listener closed
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer conn.Close()
			s.handleConn(conn)
		}()
	}
}

func (s *Server) handleConn(conn net.Conn) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("connection handler panicked", "panic", r)
			writeEnvelope(conn, Errorf("Internal error: %v", r))
		}
	}()

	if s.peerCheck && s.network == "unix" {
		ok, err := peerUIDMatchesCurrentUserFn(conn)
		if err != nil {
			writeEnvelope(conn, Error("peer uid check failed"))
			return
		}
		if !ok {
			writeEnvelope(conn, Error("peer uid mismatch"))
			return
		}
	}

	if s.readTimeout > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(s.readTimeout))
	}
	body, err := framing.Decode(conn)
	if err != nil {
		var tooLarge *framing.TooLargeError
		if errors.As(err, &tooLarge) {
			writeEnvelope(conn, Errorf("Message too large: %d bytes (limit %d)", tooLarge.Size, framing.MaxMessageSize))
			return
		}
		s.logger.Debug("dropping connection", "error", err)
		return
	}
	_ = conn.SetReadDeadline(time.Time{})

	req, errEnv, ok := parseRequest(body)
	if !ok {
		writeEnvelope(conn, errEnv)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// A client that hangs up before the answer abandons its call.
	done := make(chan struct{})
	go func() {
		defer close(done)
		var buf [1]byte
		_, _ = conn.Read(buf[:])
		cancel()
	}()

	env := s.handler(ctx, req)
	_ = conn.SetReadDeadline(time.Now())
	<-done
	_ = conn.SetReadDeadline(time.Time{})
	writeEnvelope(conn, env)
}

func parseRequest(body []byte) (*Request, Envelope, bool) {
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil, Error(MsgEmptyCommand), false
	}
	if !utf8.Valid(body) {
		return nil, Error("Invalid JSON: body is not valid UTF-8"), false
	}
	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, InvalidJSON(err), false
	}
	if strings.TrimSpace(req.Tool) == "" {
		return nil, Error(MsgNoTool), false
	}
	if req.Args == nil {
		req.Args = map[string]any{}
	}
	return &req, Envelope{}, true
}

func writeEnvelope(conn net.Conn, env Envelope) {
	data, err := json.Marshal(env)
	if err != nil {
		data, _ = json.Marshal(Errorf("Failed to encode response: %v", err))
	}
	if err := framing.Write(conn, data); err != nil {
		var tooLarge *framing.TooLargeError
		if errors.As(err, &tooLarge) {
			data, _ = json.Marshal(Errorf("Response too large: %d bytes (limit %d)", tooLarge.Size, framing.MaxMessageSize))
			framing.Write(conn, data) //nolint: errcheck
		}
	}
}
