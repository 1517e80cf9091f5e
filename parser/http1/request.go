// Package http1 implements the incremental HTTP/1.x message parser: a
// byte-driven state machine that accepts arbitrarily fragmented TCP reads
// and produces start-lines, headers and body parts without ever blocking or
// looking behind more than the buffers it owns.
package http1

import (
	"bytes"

	"github.com/nthm-io/httpcore/config"
	"github.com/nthm-io/httpcore/kv"
	"github.com/nthm-io/httpcore/message"
	"github.com/nthm-io/httpcore/status"
	"github.com/indigo-web/utils/buffer"
	"github.com/indigo-web/utils/uf"
)

type requestState uint8

const (
	rMethod requestState = iota + 1
	rTarget
	rProto
	rHeaders
)

// RequestParser parses the request-line and header section of an HTTP/1.x
// request. A connection's framing stage owns one instance, which parses one
// message at a time; once a message's body is finished the stage calls Reset
// and feeds the same instance the next pipelined request.
type RequestParser struct {
	state     requestState
	lineBuff  *buffer.Buffer
	uriMaxLen int
	method    message.Method
	target    string
	protocol  message.Protocol
	headers   *headerScanner
	storage   *kv.Storage
	cfg       *config.Config
}

// NewRequestParser builds a parser for a single request, backed by the
// given limits and scratch buffers. Buffers may be recycled across requests
// by a caller-managed pool (see internal/pool) once Reset is called.
func NewRequestParser(cfg *config.Config, lineBuff, nameBuff, valueBuff *buffer.Buffer) *RequestParser {
	storage := kv.NewPrealloc(cfg.Headers.MaxCount)

	return &RequestParser{
		state:     rMethod,
		lineBuff:  lineBuff,
		uriMaxLen: cfg.URI.MaxLen,
		headers:   newHeaderScanner(cfg.Headers, nameBuff, valueBuff, storage),
		storage:   storage,
		cfg:       cfg,
	}
}

// Reset prepares the parser to be reused for another request, recycling its
// buffers instead of allocating fresh ones.
func (p *RequestParser) Reset() {
	p.state = rMethod
	p.lineBuff.Clear()
	p.method = message.Unknown
	p.target = ""
	p.protocol = message.UnknownProtocol
	p.storage = kv.NewPrealloc(p.cfg.Headers.MaxCount)
	p.headers.storage = p.storage
	p.headers.reset()
}

// Parse feeds data into the parser. It returns the completed RequestStart
// once the header section has finished (rest holds whatever bytes followed
// it, to be handed to the body reader selected by start.Framing), or a nil
// start and no error while more data is required.
func (p *RequestParser) Parse(data []byte) (start *message.RequestStart, rest []byte, err error) {
	for len(data) > 0 {
		switch p.state {
		case rMethod:
			sp := bytes.IndexByte(data, ' ')
			if sp == -1 {
				if !p.lineBuff.Append(data) {
					return nil, nil, status.ErrBadRequest
				}

				return nil, nil, nil
			}

			var tok []byte
			if p.lineBuff.SegmentLength() == 0 {
				tok = data[:sp]
			} else {
				if !p.lineBuff.Append(data[:sp]) {
					return nil, nil, status.ErrBadRequest
				}

				tok = p.lineBuff.Finish()
			}

			if len(tok) == 0 {
				return nil, nil, status.ErrBadRequest
			}

			p.method = message.ParseMethod(uf.B2S(tok))
			if p.method == message.Unknown {
				return nil, nil, status.ErrMethodNotImplemented
			}

			data = data[sp+1:]
			p.state = rTarget

		case rTarget:
			sp := bytes.IndexByte(data, ' ')
			if sp == -1 {
				if !p.lineBuff.Append(data) {
					return nil, nil, status.ErrURITooLong
				}

				if p.lineBuff.SegmentLength() > p.uriMaxLen {
					return nil, nil, status.ErrURITooLong
				}

				return nil, nil, nil
			}

			if !p.lineBuff.Append(data[:sp]) {
				return nil, nil, status.ErrURITooLong
			}

			if p.lineBuff.SegmentLength() > p.uriMaxLen {
				return nil, nil, status.ErrURITooLong
			}

			p.target = string(p.lineBuff.Finish())
			if len(p.target) == 0 {
				return nil, nil, status.ErrBadRequest
			}

			data = data[sp+1:]
			p.state = rProto

		case rProto:
			lf := bytes.IndexByte(data, '\n')
			if lf == -1 {
				if !p.lineBuff.Append(data) {
					return nil, nil, status.ErrBadRequest
				}

				return nil, nil, nil
			}

			if !p.lineBuff.Append(data[:lf]) {
				return nil, nil, status.ErrBadRequest
			}

			protoTok := rstripCR(p.lineBuff.Finish())
			protocol := message.ParseProtocol(protoTok)
			if protocol == message.UnknownProtocol {
				return nil, nil, status.ErrHTTPVersionNotSupported
			}

			p.protocol = protocol
			data = data[lf+1:]
			p.state = rHeaders

		case rHeaders:
			var done bool
			rest, done, err = p.headers.feed(data)
			if err != nil {
				return nil, nil, err
			}

			if !done {
				return nil, nil, nil
			}

			start, err = p.finish()

			return start, rest, err
		}
	}

	return nil, nil, nil
}

func (p *RequestParser) finish() (*message.RequestStart, error) {
	framing, contentLength, transferCodings, err := decideFraming(p.storage, false, 0, p.protocol)
	if err != nil {
		return nil, err
	}

	if err := requireSingleHost(p.storage, p.protocol); err != nil {
		return nil, err
	}

	return &message.RequestStart{
		Method:          p.method,
		Target:          p.target,
		Protocol:        p.protocol,
		Headers:         p.storage,
		Framing:         framing,
		ContentLength:   contentLength,
		TransferCodings: transferCodings,
	}, nil
}

func rstripCR(b []byte) []byte {
	if len(b) > 0 && b[len(b)-1] == '\r' {
		return b[:len(b)-1]
	}

	return b
}
