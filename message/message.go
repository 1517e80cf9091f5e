// Package message holds the immutable value types the parser produces:
// start-lines, headers, chunks and the framing decision that ties them
// together. None of these types are mutated once handed to a pipeline stage.
package message

import "github.com/nthm-io/httpcore/kv"

// Header is a single (name, value) pair as captured off the wire. Names are
// lowercased by the parser; values are folded (internal LWS collapsed to a
// single space, trailing whitespace trimmed) but otherwise verbatim.
type Header = kv.Pair

// Headers preserves wire order while allowing case-insensitive lookup,
// satisfying spec invariant 9 (compared case-insensitively, exposed in
// original wire order).
type Headers = *kv.Storage

// Framing names how a message's entity body is delimited, decided once at
// end-of-headers per spec §4.1.1's priority table.
type Framing uint8

const (
	// FramingEmpty means the message carries no body at all: either the
	// headers alone decided so (1xx/204/304 responses, or the absence of
	// framing headers on a request) or Content-Length was present and zero.
	FramingEmpty Framing = iota
	// FramingFixed means the body is exactly ContentLength octets.
	FramingFixed
	// FramingChunked means the body arrives as a chunked transfer-coding.
	FramingChunked
	// FramingToClose means the body runs until the connection closes
	// (responses only, per spec invariant 7).
	FramingToClose
)

// RequestStart is the value produced once a request's start-line and header
// section have been fully parsed.
type RequestStart struct {
	Method   Method
	Target   string
	Protocol Protocol
	Headers  Headers

	Framing       Framing
	ContentLength uint64
	// TransferCodings holds any coding named by Transfer-Encoding other than
	// the final one (which decided Framing). Never auto-applied by the
	// parser - decoding is an external collaborator's job.
	TransferCodings []string
}

// ResponseStart is the value produced once a response's status-line and
// header section have been fully parsed.
type ResponseStart struct {
	Protocol Protocol
	Status   int
	Reason   string
	Headers  Headers

	Framing         Framing
	ContentLength   uint64
	TransferCodings []string
}

// ChunkExtension is a single `;name` or `;name=value` chunk extension.
type ChunkExtension struct {
	Name, Value string
}

// Chunk is one non-empty chunk-body payload, as delivered by a chunked
// message's framing. The parser never emits a Chunk with an empty Data -
// a zero-size chunk always terminates the stream as ChunkedEnd instead.
type Chunk struct {
	Data       []byte
	Extensions []ChunkExtension
}

// ChunkedEnd is the terminal part of a chunked message: the last-chunk's
// extensions (almost always absent in practice) plus trailer headers, which
// are only populated when the message's Trailer header announced them
// (otherwise they are parsed, to keep the stream framing correct, but
// discarded - see spec §6.1).
type ChunkedEnd struct {
	Extensions []ChunkExtension
	Trailers   Headers
}

// Complete is emitted for a message whose entire body (possibly empty)
// arrived inline: FramingEmpty, FramingFixed, or FramingToClose.
type Complete struct {
	Body []byte
}
