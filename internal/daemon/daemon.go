// Package daemon runs the headless FreeCAD host: the socket listener, the
// GUI pump, the selection manager and the operation registry, wired into one
// Server.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/blwfish/freecad-mcp-sub000/internal/cad"
	"github.com/blwfish/freecad-mcp-sub000/internal/config"
	"github.com/blwfish/freecad-mcp-sub000/internal/dispatch"
	"github.com/blwfish/freecad-mcp-sub000/internal/ipc"
	"github.com/blwfish/freecad-mcp-sub000/internal/paths"
	"github.com/blwfish/freecad-mcp-sub000/internal/registry"
	"github.com/blwfish/freecad-mcp-sub000/internal/router"
	"github.com/blwfish/freecad-mcp-sub000/internal/selection"
	"github.com/blwfish/freecad-mcp-sub000/internal/tracing"
)

// ErrIdle is returned by Run when the keepalive shut the host down.
var ErrIdle = errors.New("host idle timeout")

var notifySignals = func(ch chan<- os.Signal) func() {
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	return func() { signal.Stop(ch) }
}

// Server owns every component of a running host. It replaces the
// module-level singletons a GUI addon would otherwise keep.
type Server struct {
	cfg     *config.Config
	logger  *slog.Logger
	tracing *tracing.Provider

	queue      *dispatch.Queue
	selections *selection.Manager
	registry   *registry.Registry
	host       *cad.Host
	router     *router.Router
	listener   *ipc.Server
	keepalive  *Keepalive

	idle       chan struct{}
	idleOnce   sync.Once
	cancelPump context.CancelFunc
	pumpDone   chan struct{}
	stopOnce   sync.Once
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithTracing routes request spans to p.
func WithTracing(p *tracing.Provider) Option {
	return func(s *Server) {
		if p != nil {
			s.tracing = p
		}
	}
}

// New validates cfg and wires a host. Nothing listens until Start.
func New(cfg *config.Config, opts ...Option) (*Server, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	s := &Server{
		cfg:     cfg,
		logger:  slog.Default(),
		tracing: tracing.Noop(),
		idle:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	submitTimeout := cfg.Server.SubmitTimeoutDuration()
	s.queue = dispatch.New(
		dispatch.WithDefaultTimeout(submitTimeout),
		dispatch.WithLogger(s.logger.With("component", "dispatch")),
	)
	s.selections = selection.NewManager(
		selection.WithTTL(cfg.Selection.TTLDuration()),
		selection.WithCleanupInterval(cfg.Selection.CleanupIntervalDuration()),
		selection.WithLogger(s.logger.With("component", "selection")),
	)
	s.host = cad.NewHost(s.selections, s.logger.With("component", "cad"))
	s.selections.SetPicker(s.host.Picker(s.queue, submitTimeout))

	s.registry = registry.New()
	s.host.Register(s.registry)

	s.router = router.New(s.registry, s.queue, s.selections,
		router.WithTimeout(submitTimeout),
		router.WithTracer(s.tracing.Tracer()),
		router.WithLogger(s.logger.With("component", "router")),
	)

	network, address := s.Endpoint()
	s.listener = ipc.NewServer(network, address, s.handle,
		ipc.WithReadTimeout(cfg.Server.ReadTimeoutDuration()),
		ipc.WithPeerCheck(cfg.Server.PeerCheck),
		ipc.WithLogger(s.logger.With("component", "ipc")),
	)
	return s, nil
}

// Endpoint returns the network and address the server listens on.
func (s *Server) Endpoint() (network, address string) {
	if s.cfg.Server.IsTCP() {
		return "tcp", s.cfg.Server.TCPAddr
	}
	return "unix", s.cfg.Server.SocketPath
}

// Registry returns the operation table, for callers that add operations
// before Start.
func (s *Server) Registry() *registry.Registry {
	return s.registry
}

// Selections returns the selection manager. GUI picking callbacks record
// human choices through it.
func (s *Server) Selections() *selection.Manager {
	return s.selections
}

// Queue returns the GUI dispatch queue.
func (s *Server) Queue() *dispatch.Queue {
	return s.queue
}

// Addr returns the bound listener address once started.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Start runs the GUI pump and begins accepting connections.
func (s *Server) Start() error {
	network, address := s.Endpoint()
	if network == "unix" {
		if err := paths.EnsureDir(filepath.Dir(address)); err != nil {
			return fmt.Errorf("creating socket dir: %w", err)
		}
	}

	pumpCtx, cancel := context.WithCancel(context.Background())
	s.cancelPump = cancel
	s.pumpDone = make(chan struct{})
	go func() {
		defer close(s.pumpDone)
		_ = s.queue.Pump().Run(pumpCtx, s.cfg.Server.PumpIntervalDuration())
	}()

	s.keepalive = NewKeepalive(s.cfg.Server.IdleTimeoutDuration(), func() {
		s.idleOnce.Do(func() { close(s.idle) })
	})

	if err := s.listener.Start(); err != nil {
		s.keepalive.Stop()
		cancel()
		<-s.pumpDone
		return err
	}
	s.logger.Info("listening", "network", network, "address", address)
	return nil
}

// Stop closes the listener, waits for open connections, then stops the pump.
// Pending GUI calls fail with dispatch.ErrClosed.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		s.listener.Stop()
		if s.keepalive != nil {
			s.keepalive.Stop()
		}
		if s.cancelPump != nil {
			s.cancelPump()
			<-s.pumpDone
		}
		s.queue.Close()
		if err := s.tracing.Shutdown(context.Background()); err != nil {
			s.logger.Warn("tracing shutdown", "error", err)
		}
		s.logger.Info("stopped")
	})
}

// Run starts the server and blocks until ctx is done, SIGINT or SIGTERM
// arrives, or the idle timeout fires.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Start(); err != nil {
		return err
	}
	defer s.Stop()

	sigCh := make(chan os.Signal, 1)
	stopSignals := notifySignals(sigCh)
	defer stopSignals()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down", "reason", "context done")
		return nil
	case sig := <-sigCh:
		s.logger.Info("shutting down", "signal", sig.String())
		return nil
	case <-s.idle:
		s.logger.Info("shutting down", "reason", "idle")
		return ErrIdle
	}
}

func (s *Server) handle(ctx context.Context, req *ipc.Request) ipc.Envelope {
	if s.keepalive != nil {
		s.keepalive.Begin()
		defer s.keepalive.End()
	}
	return s.router.Route(ctx, req)
}
