package driver

import (
	"io"
	"net"
	"testing"
	"time"

	"github.com/nthm-io/httpcore/config"
	"github.com/nthm-io/httpcore/message"
	"github.com/nthm-io/httpcore/pipeline"
	"github.com/stretchr/testify/require"
)

// scriptedStep is one value a fakeClient.Read call returns, in order.
type scriptedStep struct {
	data []byte
	err  error
}

// fakeClient is a transport.Client stand-in driven by a fixed script of
// reads, recording every write and close for assertions.
type fakeClient struct {
	steps   []scriptedStep
	pos     int
	pending []byte
	written [][]byte
	closed  bool
}

func newFakeClient(steps ...scriptedStep) *fakeClient {
	return &fakeClient{steps: steps}
}

func (f *fakeClient) Read() ([]byte, error) {
	if len(f.pending) > 0 {
		data := f.pending
		f.pending = nil

		return data, nil
	}

	if f.pos >= len(f.steps) {
		return nil, io.EOF
	}

	step := f.steps[f.pos]
	f.pos++

	return step.data, step.err
}

func (f *fakeClient) Unread(b []byte) { f.pending = b }

func (f *fakeClient) Write(b []byte) error {
	f.written = append(f.written, append([]byte(nil), b...))
	return nil
}

func (f *fakeClient) Remote() net.Addr          { return &net.TCPAddr{} }
func (f *fakeClient) Close() error              { f.closed = true; return nil }
func (f *fakeClient) SetReadTimeout(time.Duration) {}

// fakeTimeoutErr satisfies net.Error and always reports a timeout, standing
// in for a deadline-exceeded Read.
type fakeTimeoutErr struct{}

func (fakeTimeoutErr) Error() string   { return "i/o timeout" }
func (fakeTimeoutErr) Timeout() bool   { return true }
func (fakeTimeoutErr) Temporary() bool { return true }

func TestConnectionSimpleGetRoundTrip(t *testing.T) {
	cfg := config.Default()
	stats := pipeline.NewStatisticsStage()

	raw := []byte("GET / HTTP/1.1\r\nHost: example.com\r\n\r\n")
	client := newFakeClient(scriptedStep{data: raw})

	var gotStart *message.RequestStart
	var gotComplete bool

	handler := func(_ string, evt pipeline.Event, send pipeline.CommandFunc) {
		switch {
		case evt.RequestStart != nil:
			gotStart = evt.RequestStart
		case evt.Complete != nil:
			gotComplete = true
			send(pipeline.Command{
				ResponseStarted: true,
				Send:            []byte("HTTP/1.1 200 OK\r\nContent-Length: 0\r\n\r\n"),
			})
		}
	}

	conn := New("conn-1", client, cfg, stats, handler)
	conn.Serve()

	require.NotNil(t, gotStart)
	require.Equal(t, message.GET, gotStart.Method)
	require.Equal(t, "/", gotStart.Target)
	require.True(t, gotComplete)
	require.Len(t, client.written, 1)
	require.True(t, client.closed)
	require.Equal(t, pipeline.PeerClosed, conn.CloseReason())
}

func TestConnectionParserErrorClosesOnHandlerCommand(t *testing.T) {
	cfg := config.Default()
	stats := pipeline.NewStatisticsStage()

	raw := []byte("FROBNICATE / HTTP/1.1\r\n\r\n")
	client := newFakeClient(scriptedStep{data: raw})

	var gotErr error

	handler := func(_ string, evt pipeline.Event, send pipeline.CommandFunc) {
		if evt.Err != nil {
			gotErr = evt.Err
			send(pipeline.Command{
				Send:   []byte("HTTP/1.1 501 Not Implemented\r\nContent-Length: 0\r\n\r\n"),
				Close:  true,
				Reason: pipeline.ConfirmedClose,
			})
		}
	}

	conn := New("conn-2", client, cfg, stats, handler)
	conn.Serve()

	require.Error(t, gotErr)
	require.Len(t, client.written, 1)
	require.True(t, client.closed)
	require.Equal(t, pipeline.ConfirmedClose, conn.CloseReason())
}

func TestConnectionIdleTimeoutClosesConnection(t *testing.T) {
	cfg := config.Default()
	stats := pipeline.NewStatisticsStage()
	client := newFakeClient(scriptedStep{err: fakeTimeoutErr{}})

	var gotClosed bool
	var gotReason pipeline.CloseReason

	handler := func(_ string, evt pipeline.Event, _ pipeline.CommandFunc) {
		if evt.Closed {
			gotClosed = true
			gotReason = evt.Reason
		}
	}

	conn := New("conn-3", client, cfg, stats, handler)
	conn.Serve()

	require.True(t, gotClosed)
	require.Equal(t, pipeline.IdleTimeout, gotReason)
	require.True(t, client.closed)
}

func TestConnectionRequestTimeoutFiresWithoutClosing(t *testing.T) {
	cfg := config.Default()
	cfg.Pipeline.RequestTimeout = time.Nanosecond
	stats := pipeline.NewStatisticsStage()

	raw := []byte("GET / HTTP/1.1\r\nHost: example.com\r\n\r\n")
	client := newFakeClient(
		scriptedStep{data: raw},
		scriptedStep{err: fakeTimeoutErr{}},
		scriptedStep{err: io.EOF},
	)

	var gotTimedOut bool

	handler := func(_ string, evt pipeline.Event, _ pipeline.CommandFunc) {
		if evt.RequestTimedOut {
			gotTimedOut = true
		}
	}

	conn := New("conn-4", client, cfg, stats, handler)
	conn.Serve()

	require.True(t, gotTimedOut)
	require.Equal(t, pipeline.PeerClosed, conn.CloseReason())
}

func TestListenerPoolsReadBuffers(t *testing.T) {
	cfg := config.Default()
	stats := pipeline.NewStatisticsStage()

	l := NewListener(cfg, stats, func(string, pipeline.Event, pipeline.CommandFunc) {})

	first := l.acquireBuffer()
	require.Len(t, first, cfg.Pipeline.ReadBufferSize)
	l.releaseBuffer(first)

	second := l.acquireBuffer()
	require.Len(t, second, cfg.Pipeline.ReadBufferSize)
}
