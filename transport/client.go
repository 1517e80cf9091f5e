// Package transport adapts a raw net.Conn (or, for tests, a synthetic
// stand-in) into the byte source/sink the connection driver feeds.
package transport

import (
	"net"
	"time"

	"github.com/nthm-io/httpcore/internal/unreader"
)

// Client is the driver's view of a connection: pull bytes, optionally push
// some of them back for re-delivery, push bytes out, and learn who's on the
// other end.
type Client interface {
	Read() ([]byte, error)
	Unread([]byte)
	Write([]byte) error
	Remote() net.Addr
	Close() error

	// SetReadTimeout changes the per-read deadline used starting with the
	// next Read call. The driver tightens it to the request-timeout while a
	// request is pending and restores the idle timeout once a response
	// starts, so a single blocking Read doubles as both timers.
	SetReadTimeout(time.Duration)
}

type client struct {
	unreader *unreader.Unreader
	buff     []byte
	conn     net.Conn
	timeout  time.Duration
}

// NewClient wraps conn with an idle read deadline of timeout, reusing buff
// as the read scratch space for the connection's whole lifetime.
func NewClient(conn net.Conn, timeout time.Duration, buff []byte) Client {
	return &client{
		unreader: new(unreader.Unreader),
		buff:     buff,
		conn:     conn,
		timeout:  timeout,
	}
}

func (c *client) Read() ([]byte, error) {
	return c.unreader.PendingOr(func() ([]byte, error) {
		if err := c.conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
			return nil, err
		}

		n, err := c.conn.Read(c.buff)

		return c.buff[:n], err
	})
}

func (c *client) Unread(b []byte) {
	c.unreader.Unread(b)
}

func (c *client) Write(b []byte) error {
	_, err := c.conn.Write(b)

	return err
}

func (c *client) Remote() net.Addr {
	return c.conn.RemoteAddr()
}

func (c *client) Close() error {
	return c.conn.Close()
}

func (c *client) SetReadTimeout(d time.Duration) {
	c.timeout = d
}
