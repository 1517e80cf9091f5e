// Package config holds the immutable limits and pipeline options consulted
// by the parser and the pipeline stages. A Config is built once via Default()
// or a caller-provided override and is never mutated afterwards, so it may be
// freely shared across connections without synchronization.
package config

import "time"

type (
	// URI controls request-target parsing limits.
	URI struct {
		// MaxLen is the maximal length of a request-target, in octets.
		MaxLen int
	}

	// Reason controls response reason-phrase parsing limits.
	Reason struct {
		// MaxLen is the maximal length of a reason phrase, in octets.
		MaxLen int
	}

	// Headers controls header-section parsing limits.
	Headers struct {
		// MaxNameLen is the maximal length of a single header name.
		MaxNameLen int
		// MaxValueLen is the maximal length of a single header value, after
		// line-folding has been collapsed.
		MaxValueLen int
		// MaxCount is the maximal number of headers a single message may carry.
		MaxCount int
	}

	// Body controls entity-body parsing limits.
	Body struct {
		// MaxContentLength is the maximal number of octets accepted inline
		// via a fixed Content-Length framing.
		MaxContentLength uint64
		// MaxChunkExtLen is the maximal total length of a chunk's extension
		// field (the part following the chunk-size, before CRLF).
		MaxChunkExtLen int
		// MaxChunkSize is the maximal octet count of a single chunk.
		MaxChunkSize uint64
	}

	// Pipeline controls the timing and backpressure behavior of the
	// connection driver and its stages.
	Pipeline struct {
		// RequestTimeout is the maximal time a request may remain
		// unanswered before the request-timeout stage fires. Zero disables
		// the timer.
		RequestTimeout time.Duration `test:"nullable"`
		// IdleTimeout is the maximal time a connection may sit with no
		// inbound bytes before it is closed.
		IdleTimeout time.Duration
		// ConfirmSends names whether a Close(ConfirmedClose) waits for an
		// explicit SendCompleted acknowledgement. The connection driver
		// does not read it: its writes are synchronous, and a Close command
		// closes the socket as soon as the driver handles it.
		ConfirmSends bool `test:"nullable"`
		// ReadBufferSize is the size, in bytes, of the buffer used to read
		// from the socket.
		ReadBufferSize int
	}
)

// Config holds all limits and options consulted while parsing a message and
// driving a connection. Build one with Default() and adjust fields on the
// returned value; never construct a Config literal from zero values, as some
// fields (e.g. MaxChunkSize) are meaningless at zero and will make parsing
// reject all bodies.
type Config struct {
	URI      URI
	Reason   Reason
	Headers  Headers
	Body     Body
	Pipeline Pipeline
}

// Default returns a Config with the limits named in spec §3 and §6.3.
func Default() *Config {
	return &Config{
		URI: URI{
			MaxLen: 2048,
		},
		Reason: Reason{
			MaxLen: 64,
		},
		Headers: Headers{
			MaxNameLen:  64,
			MaxValueLen: 8192,
			MaxCount:    64,
		},
		Body: Body{
			MaxContentLength: 8 * 1024 * 1024,
			MaxChunkExtLen:   256,
			MaxChunkSize:     1024 * 1024,
		},
		Pipeline: Pipeline{
			RequestTimeout: 0,
			IdleTimeout:    90 * time.Second,
			ConfirmSends:   false,
			ReadBufferSize: 4 * 1024,
		},
	}
}
