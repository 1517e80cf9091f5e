// Package pipeline implements the per-connection command/event pipeline
// that sits between the transport and the parser: a downward command
// stream (what the connection should do) and an upward event stream (what
// happened on the wire), each transformed by an ordered chain of stages.
package pipeline

import "github.com/nthm-io/httpcore/message"

// CloseReason names why a connection is going away, per §4.3.
type CloseReason uint8

const (
	PeerClosed CloseReason = iota + 1
	IdleTimeout
	RequestTimeout
	ConfirmedClose
	IoError
)

func (r CloseReason) String() string {
	switch r {
	case PeerClosed:
		return "peer closed"
	case IdleTimeout:
		return "idle timeout"
	case RequestTimeout:
		return "request timeout"
	case ConfirmedClose:
		return "confirmed close"
	case IoError:
		return "io error"
	default:
		return "unknown"
	}
}

// Event flows upward: transport -> framing -> timeout -> statistics -> app.
type Event struct {
	// RequestStart/ResponseStart/Chunk/ChunkedEnd/Complete: at most one is
	// set, naming which part this event carries.
	RequestStart  *message.RequestStart
	ResponseStart *message.ResponseStart
	Chunk         *message.Chunk
	ChunkedEnd    *message.ChunkedEnd
	Complete      *message.Complete

	// Err is set when the parser reached a terminal error state.
	Err error

	// Closed is set when the connection's socket went away.
	Closed bool
	Reason CloseReason

	// RequestTimedOut is set by the request-timeout stage when a pending
	// exchange exceeded its deadline with no response dispatched.
	RequestTimedOut bool
}

// Command flows downward: app -> framing -> timeout -> statistics -> transport.
type Command struct {
	// Send carries outbound bytes already rendered by the (external)
	// response renderer.
	Send []byte

	// SendCompleted acknowledges that a previously queued Send finished
	// writing. No stage and not the driver act on it: the driver writes
	// synchronously, so every Send has finished before its command returns.
	SendCompleted bool

	// StopReading/ResumeReading translate to socket read-interest changes,
	// the backpressure mechanism named in §5.
	StopReading   bool
	ResumeReading bool

	// Tell names a message for out-of-band delivery (e.g. a RequestTimeout
	// notification for a receiver other than the response path). No stage
	// and not the driver deliver or count it; the field passes through unread.
	Tell string

	// Close requests the connection be torn down for Reason.
	Close  bool
	Reason CloseReason

	// ResponseStarted is set by the application layer immediately before
	// handing a response's first bytes to Send, so the request-timeout
	// stage can cancel the matching timer.
	ResponseStarted bool
}
