package relay

import (
	"context"
	"errors"
	"fmt"
	"net"

	"matrixchat/internal/domain"
	"matrixchat/internal/protocol/wire"
)

// ErrNameTaken is returned when the relay rejects a name.
var ErrNameTaken = errors.New("name already in use")

// Dialer opens connections to the relay. *net.Dialer satisfies it.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Client is a participant's chat connection to a relay.
type Client struct {
	Addr string
	conn net.Conn
	r    *wire.Reader
	w    *wire.Writer
}

// Dial connects to addr and announces a chat connection.
func Dial(ctx context.Context, d Dialer, addr string) (*Client, error) {
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	c := &Client{Addr: addr, conn: conn, r: wire.NewReader(conn), w: wire.NewWriter(conn)}
	if err := c.w.WriteLines(wire.RoleJoin); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("join %s: %w", addr, err)
	}
	return c, nil
}

// Register offers name to the relay. It returns ErrNameTaken when the relay
// answers NO; the connection stays open for another attempt.
func (c *Client) Register(ctx context.Context, name domain.Username) error {
	stop := context.AfterFunc(ctx, func() { _ = c.conn.Close() })
	defer stop()

	if err := c.w.WriteLines(name.String()); err != nil {
		return fmt.Errorf("send name: %w", err)
	}
	tok, err := c.r.ReadToken(wire.OK, wire.No)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("name reply: %w", err)
	}
	if tok == wire.No {
		return fmt.Errorf("%w: %q", ErrNameTaken, name)
	}
	return nil
}

// ReadLine blocks for the next line from the relay.
func (c *Client) ReadLine() (string, error) { return c.r.ReadLine() }

// Send writes lines to the relay.
func (c *Client) Send(lines ...string) error { return c.w.WriteLines(lines...) }

// Close closes the chat connection.
func (c *Client) Close() error { return c.conn.Close() }

// DialExchange opens the exchange socket for one matrix cell and sends its
// hello.
func DialExchange(ctx context.Context, d Dialer, addr string, name domain.Username, cell int) (net.Conn, error) {
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial exchange %d: %w", cell, err)
	}
	if err := wire.NewWriter(conn).WriteLines(wire.ExchangeHello(name, cell)...); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("exchange hello %d: %w", cell, err)
	}
	return conn, nil
}
