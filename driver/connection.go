// Package driver implements the connection driver described in §4.3: the
// per-connection actor that installs the framing parser, feeds it bytes off
// the transport, and pairs pipelined requests with whatever the embedding
// application answers them with.
package driver

import (
	"errors"
	"io"
	"net"
	"sync"

	"github.com/dchest/uniuri"
	"github.com/nthm-io/httpcore/config"
	"github.com/nthm-io/httpcore/internal/pool"
	"github.com/nthm-io/httpcore/pipeline"
	"github.com/nthm-io/httpcore/transport"
)

// Handler is supplied by the embedding application. It is invoked once per
// upward event, alongside the identifier of the request the event belongs to
// (empty for connection-level events such as Closed), and issues commands by
// calling send - the same CommandFunc on every call, good for the lifetime
// of the connection.
type Handler func(requestID string, evt pipeline.Event, send pipeline.CommandFunc)

// Connection drives exactly one accepted socket from exactly one goroutine,
// per §5's actor model: Serve must not be called concurrently with itself,
// and nothing about a Connection is safe to touch from a second goroutine
// except by going through the commands a Handler is given.
type Connection struct {
	id      string
	client  transport.Client
	cfg     *config.Config
	handler Handler

	framing *pipeline.FramingStage
	timeout *pipeline.TimeoutStage

	// commands is the pipeline's outermost command entry point, the one a
	// Handler is handed on every call.
	commands pipeline.CommandFunc
	// statsUp is the event entry point one layer inward of the timeout
	// stage, passed to timeout.Tick so a driver-detected deadline still
	// travels through statistics before reaching the application.
	statsUp pipeline.EventFunc

	// requestIDs is the FIFO named in §4.3: appended on RequestStart,
	// popped on the matching ResponseStarted command. Its length doubles as
	// the pending-request count the request-timeout arming logic consults.
	requestIDs []string

	requestDeadlineArmed bool
	readingStopped       bool
	resumeCh             chan struct{}
	closed               bool
	closeReason          pipeline.CloseReason
}

// New wires a framing/timeout/statistics pipeline around client and returns
// a Connection ready for Serve. stats is process-wide, shared by every
// connection a Listener drives.
func New(id string, client transport.Client, cfg *config.Config, stats *pipeline.StatisticsStage, handler Handler) *Connection {
	c := &Connection{
		id:       id,
		client:   client,
		cfg:      cfg,
		handler:  handler,
		framing:  pipeline.NewFramingStage(cfg),
		timeout:  pipeline.NewTimeoutStage(cfg.Pipeline.RequestTimeout),
		resumeCh: make(chan struct{}, 1),
	}

	ctx := &pipeline.Context{ConnectionID: id}
	appUp := pipeline.EventFunc(c.dispatchEvent)

	statsDown, statsUp := stats.Build(ctx, pipeline.CommandFunc(c.sendToTransport), appUp)
	timeoutDown, timeoutUp := c.timeout.Build(ctx, statsDown, statsUp)
	// FramingStage.Build returns its command function unmodified (it never
	// handles commands) and installs timeoutUp as the target of its own
	// Feed-driven emissions; its returned event function is unused.
	c.commands, _ = c.framing.Build(ctx, timeoutDown, timeoutUp)
	c.statsUp = statsUp

	return c
}

// Serve drains the socket until the connection closes for any reason. It
// blocks the calling goroutine for the connection's whole lifetime.
func (c *Connection) Serve() {
	defer c.finalize()

	for {
		if c.closed {
			return
		}

		if c.readingStopped {
			<-c.resumeCh
			continue
		}

		data, err := c.client.Read()
		if err != nil {
			if c.handleReadError(err) {
				return
			}

			continue
		}

		if err := c.framing.Feed(data); err != nil {
			// FramingStage already emitted Event{Err: err} up the chain; a
			// well-behaved Handler responds and issues a Close command,
			// which runs synchronously inside Feed and sets c.closed. If it
			// didn't, close defensively rather than spin on the same bytes.
			if !c.closed {
				c.terminate(pipeline.IoError)
			}

			return
		}
	}
}

// handleReadError classifies a failed Read and reacts to it, reporting
// whether the connection is now finished and Serve should stop looping.
func (c *Connection) handleReadError(err error) bool {
	if errors.Is(err, io.EOF) {
		c.framing.Closed()
		c.emitClosed(pipeline.PeerClosed)
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		if c.requestDeadlineArmed {
			c.requestDeadlineArmed = false
			c.client.SetReadTimeout(c.cfg.Pipeline.IdleTimeout)
			c.timeout.Tick(c.statsUp)

			return c.closed
		}

		c.emitClosed(pipeline.IdleTimeout)
		return true
	}

	c.emitClosed(pipeline.IoError)
	return true
}

// dispatchEvent is the pipeline's "application": it maintains the in-flight
// request FIFO and hands every event to the embedding Handler together with
// the identifier of the request it belongs to.
func (c *Connection) dispatchEvent(evt pipeline.Event) {
	var reqID string

	switch {
	case evt.RequestStart != nil:
		reqID = uniuri.New()
		c.requestIDs = append(c.requestIDs, reqID)
		c.armRequestTimeout()
	case evt.Closed:
		c.closed = true
	default:
		if len(c.requestIDs) > 0 {
			reqID = c.requestIDs[len(c.requestIDs)-1]
		}
	}

	c.handler(reqID, evt, c.commands)
}

// sendToTransport is the pipeline's innermost command function: whatever
// reaches here has already been observed by the statistics and timeout
// stages and is ready to act on the socket.
func (c *Connection) sendToTransport(cmd pipeline.Command) {
	if cmd.ResponseStarted {
		c.popRequestID()
	}

	if len(cmd.Send) > 0 {
		if err := c.client.Write(cmd.Send); err != nil {
			c.terminate(pipeline.IoError)
			return
		}
	}

	if cmd.StopReading {
		c.readingStopped = true
	}

	if cmd.ResumeReading {
		c.readingStopped = false
		select {
		case c.resumeCh <- struct{}{}:
		default:
		}
	}

	// Writes are synchronous, so by the time we reach a Close command any
	// bytes it carried have already been flushed - ConfirmedClose's "flush
	// then close" and every other reason's "close immediately" collapse to
	// the same action here.
	if cmd.Close {
		c.terminate(cmd.Reason)
	}
}

func (c *Connection) emitClosed(reason pipeline.CloseReason) {
	// terminate runs first: dispatching the Closed event marks the
	// connection closed, after which terminate would no longer record reason.
	c.terminate(reason)
	c.statsUp(pipeline.Event{Closed: true, Reason: reason})
}

// terminate closes the socket at most once, satisfying §5's idempotent-close
// requirement regardless of how many paths call it.
func (c *Connection) terminate(reason pipeline.CloseReason) {
	if c.closed {
		return
	}

	c.closed = true
	c.closeReason = reason
	_ = c.client.Close()
}

// CloseReason reports why the connection ended, valid once Serve returns.
func (c *Connection) CloseReason() pipeline.CloseReason {
	return c.closeReason
}

func (c *Connection) finalize() {
	_ = c.client.Close()
}

// armRequestTimeout tightens the read deadline to the request-timeout
// (whichever of it and the idle-timeout is shorter) so the same blocking
// Read doubles as both timers. With deep pipelining this restarts the
// countdown on every new request head rather than tracking one deadline per
// in-flight request - a deliberate simplification over a full per-request
// timer wheel.
func (c *Connection) armRequestTimeout() {
	rt := c.cfg.Pipeline.RequestTimeout
	if rt <= 0 {
		return
	}

	effective := rt
	if idle := c.cfg.Pipeline.IdleTimeout; idle > 0 && idle < effective {
		effective = idle
	}

	c.client.SetReadTimeout(effective)
	c.requestDeadlineArmed = true
}

func (c *Connection) popRequestID() {
	if len(c.requestIDs) == 0 {
		return
	}

	c.requestIDs = c.requestIDs[1:]

	if len(c.requestIDs) == 0 && c.requestDeadlineArmed {
		c.requestDeadlineArmed = false
		c.client.SetReadTimeout(c.cfg.Pipeline.IdleTimeout)
	}
}

// Listener accepts raw connections and drives each as a Connection on its
// own goroutine (wired by the caller via transport.NewServer's onConn hook).
// Read buffers are pooled across connections since they are the one
// per-connection allocation that outlives a single request.
type Listener struct {
	cfg     *config.Config
	stats   *pipeline.StatisticsStage
	handler Handler

	// buffersMu guards buffers: ObjectPool is not itself safe for concurrent
	// use, and every accepted connection acquires/releases on its own
	// goroutine.
	buffersMu sync.Mutex
	buffers   pool.ObjectPool[[]byte]
}

func NewListener(cfg *config.Config, stats *pipeline.StatisticsStage, handler Handler) *Listener {
	return &Listener{
		cfg:     cfg,
		stats:   stats,
		handler: handler,
		buffers: pool.NewObjectPool[[]byte](64),
	}
}

// Serve wraps conn as a Connection and drives it to completion. It has the
// shape transport.NewServer expects for its onConn callback.
func (l *Listener) Serve(conn net.Conn) {
	buff := l.acquireBuffer()

	client := transport.NewClient(conn, l.cfg.Pipeline.IdleTimeout, buff)
	New(uniuri.New(), client, l.cfg, l.stats, l.handler).Serve()

	l.releaseBuffer(buff)
}

func (l *Listener) acquireBuffer() []byte {
	l.buffersMu.Lock()
	buff := l.buffers.Acquire()
	l.buffersMu.Unlock()

	if cap(buff) < l.cfg.Pipeline.ReadBufferSize {
		buff = make([]byte, l.cfg.Pipeline.ReadBufferSize)
	}

	return buff[:l.cfg.Pipeline.ReadBufferSize]
}

func (l *Listener) releaseBuffer(buff []byte) {
	l.buffersMu.Lock()
	l.buffers.Release(buff)
	l.buffersMu.Unlock()
}
