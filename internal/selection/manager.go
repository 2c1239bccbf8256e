// Package selection suspends operations that need a human to pick geometry
// in the GUI and resumes them under an operation id.
package selection

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
)

const (
	DefaultTTL             = 5 * time.Minute
	DefaultCleanupInterval = time.Minute
)

// Picker reads the live GUI selection for req. It is consulted when an
// operation completes without a recorded pick.
type Picker func(ctx context.Context, req Request) (Pick, error)

type entry struct {
	req      Request
	pick     *Pick
	consumed atomic.Bool
}

// Manager stores pending selection requests. It is safe for use from the
// GUI thread and socket goroutines alike.
type Manager struct {
	// mu makes lookup-and-delete atomic so an id is consumed once.
	mu     sync.Mutex
	items  *gocache.Cache
	ttl    time.Duration
	picker Picker
	logger *slog.Logger
}

// Option configures a Manager.
type Option func(*managerOptions)

type managerOptions struct {
	ttl             time.Duration
	cleanupInterval time.Duration
	picker          Picker
	logger          *slog.Logger
}

// WithTTL sets how long a request stays pending.
func WithTTL(d time.Duration) Option {
	return func(o *managerOptions) { o.ttl = d }
}

// WithCleanupInterval sets how often expired requests are reaped.
func WithCleanupInterval(d time.Duration) Option {
	return func(o *managerOptions) { o.cleanupInterval = d }
}

// WithPicker installs the live GUI selection reader.
func WithPicker(p Picker) Option {
	return func(o *managerOptions) { o.picker = p }
}

// WithLogger sets the manager logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *managerOptions) { o.logger = l }
}

// NewManager creates a manager whose expired requests are reaped in the
// background.
func NewManager(opts ...Option) *Manager {
	o := managerOptions{
		ttl:             DefaultTTL,
		cleanupInterval: DefaultCleanupInterval,
		logger:          slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.ttl <= 0 {
		o.ttl = DefaultTTL
	}
	if o.cleanupInterval <= 0 {
		o.cleanupInterval = DefaultCleanupInterval
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	m := &Manager{
		items:  gocache.New(o.ttl, o.cleanupInterval),
		ttl:    o.ttl,
		picker: o.picker,
		logger: o.logger,
	}
	m.items.OnEvicted(m.onEvicted)
	return m
}

// SetPicker replaces the live GUI selection reader.
func (m *Manager) SetPicker(p Picker) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.picker = p
}

// RequestSelection stores a new pending request and returns it. The caller
// answers the client with req.Payload() and stops; the operation resumes
// through CompleteSelection.
func (m *Manager) RequestSelection(spec Spec) Request {
	now := time.Now()
	msg := spec.Message
	if spec.Hints != "" {
		msg += "\nTip: " + spec.Hints
	}
	req := Request{
		OperationID: fmt.Sprintf("%s_%s", spec.ToolName, uuid.NewString()),
		ToolName:    spec.ToolName,
		Type:        spec.Type,
		ObjectName:  spec.ObjectName,
		Message:     msg,
		Hints:       spec.Hints,
		Extra:       cloneMap(spec.Extra),
		CreatedAt:   now,
		ExpiresAt:   now.Add(m.ttl),
	}

	m.mu.Lock()
	m.items.Set(req.OperationID, &entry{req: req}, m.ttl)
	m.mu.Unlock()

	m.logger.Info("selection requested",
		"operation_id", req.OperationID,
		"tool", req.ToolName,
		"type", req.Type,
		"object", req.ObjectName,
	)
	return req
}

// Pending returns the request stored under id without consuming it.
func (m *Manager) Pending(id string) (Request, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.lookupLocked(id)
	if !ok {
		return Request{}, false
	}
	return e.req, true
}

// Record stores the human's pick for id. A later Record replaces it.
func (m *Manager) Record(id string, pick Pick) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.lookupLocked(id)
	if !ok {
		return ErrNotFound
	}
	p := Pick{
		Elements: append([]int(nil), pick.Elements...),
		Objects:  append([]string(nil), pick.Objects...),
	}
	e.pick = &p
	m.logger.Debug("selection recorded", "operation_id", id, "elements", len(p.Elements))
	return nil
}

// CompleteSelection consumes the request stored under id. A second call for
// the same id, or a call after expiry, returns ErrNotFound.
func (m *Manager) CompleteSelection(ctx context.Context, id string) (Result, error) {
	m.mu.Lock()
	e, ok := m.lookupLocked(id)
	if ok {
		e.consumed.Store(true)
		m.items.Delete(id)
	}
	picker := m.picker
	m.mu.Unlock()

	if !ok {
		return Result{}, ErrNotFound
	}

	var pick Pick
	switch {
	case e.pick != nil:
		pick = *e.pick
	case picker != nil:
		p, err := picker(ctx, e.req)
		if err != nil {
			return Result{}, fmt.Errorf("could not access GUI selection: %w", err)
		}
		pick = p
	}

	m.logger.Info("selection completed",
		"operation_id", id,
		"tool", e.req.ToolName,
		"elements", len(pick.Elements),
	)
	return Result{
		OperationID: id,
		ToolName:    e.req.ToolName,
		Type:        e.req.Type,
		ObjectName:  e.req.ObjectName,
		Elements:    pick.Elements,
		Objects:     pick.Objects,
		Extra:       cloneMap(e.req.Extra),
	}, nil
}

// Cleanup reaps expired requests now and returns how many were removed.
func (m *Manager) Cleanup() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	before := m.items.ItemCount()
	m.items.DeleteExpired()
	return before - m.items.ItemCount()
}

// Len returns the number of live pending requests.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items.Items())
}

func (m *Manager) lookupLocked(id string) (*entry, bool) {
	v, found := m.items.Get(id)
	if !found {
		return nil, false
	}
	e, ok := v.(*entry)
	if !ok {
		m.logger.Error("wrong type in selection registry", "operation_id", id)
		return nil, false
	}
	return e, true
}

func (m *Manager) onEvicted(id string, v any) {
	if e, ok := v.(*entry); ok && !e.consumed.Load() {
		m.logger.Info("selection expired", "operation_id", id, "tool", e.req.ToolName)
	}
}

func cloneMap(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
