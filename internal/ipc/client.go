package ipc

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/blwfish/freecad-mcp-sub000/internal/framing"
)

// DefaultCallTimeout bounds a whole Call when ctx has no deadline.
const DefaultCallTimeout = 30 * time.Second

// Client sends one framed request per connection to the host.
type Client struct {
	network string
	address string
	timeout time.Duration
}

// NewClient creates a client for network "unix" or "tcp".
func NewClient(network, address string) *Client {
	return &Client{network: network, address: address, timeout: DefaultCallTimeout}
}

// WithTimeout returns a copy of c using d when ctx has no deadline.
func (c *Client) WithTimeout(d time.Duration) *Client {
	cp := *c
	if d > 0 {
		cp.timeout = d
	}
	return &cp
}

// Address returns the dial address.
func (c *Client) Address() string {
	return c.address
}

// Call sends req and returns the host's envelope.
func (c *Client) Call(ctx context.Context, req *Request) (Envelope, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	conn, err := c.dial(ctx)
	if err != nil {
		return Envelope{}, err
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	stop := context.AfterFunc(ctx, func() { _ = conn.SetDeadline(time.Now()) })
	defer stop()

	if err := framing.WriteMessage(conn, req); err != nil {
		return Envelope{}, fmt.Errorf("sending request: %w", err)
	}
	var env Envelope
	if err := framing.ReadMessage(conn, &env); err != nil {
		return Envelope{}, fmt.Errorf("reading response: %w", err)
	}
	return env, nil
}

// Ping checks that something accepts connections at the host address.
func (c *Client) Ping(ctx context.Context) error {
	conn, err := c.dial(ctx)
	if err != nil {
		return err
	}
	return conn.Close()
}

func (c *Client) dial(ctx context.Context) (net.Conn, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, c.network, c.address)
	if err != nil {
		return nil, fmt.Errorf("connecting to FreeCAD at %s: %w", c.address, err)
	}
	return conn, nil
}
