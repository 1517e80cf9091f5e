package http1

import (
	"github.com/nthm-io/httpcore/config"
	"github.com/nthm-io/httpcore/message"
	"github.com/nthm-io/httpcore/status"
)

// FixedBodyReader accumulates exactly N octets (as announced by
// Content-Length) and reports Complete once they have all arrived. It never
// allocates more than config.Body.MaxContentLength bytes.
type FixedBodyReader struct {
	remaining uint64
	maxLen    uint64
	buf       []byte
}

func NewFixedBodyReader(contentLength uint64, cfg config.Body) (*FixedBodyReader, error) {
	if contentLength > cfg.MaxContentLength {
		return nil, status.ErrBodyTooLarge
	}

	return &FixedBodyReader{
		remaining: contentLength,
		maxLen:    cfg.MaxContentLength,
		buf:       make([]byte, 0, contentLength),
	}, nil
}

// Feed consumes data until the announced length is reached. complete is
// non-nil exactly once, on the call that satisfies the count; rest holds
// whatever followed the body in that same fragment.
func (r *FixedBodyReader) Feed(data []byte) (complete *message.Complete, rest []byte, err error) {
	n := uint64(len(data))
	if n >= r.remaining {
		body := data[:r.remaining]
		r.buf = append(r.buf, body...)

		return &message.Complete{Body: r.buf}, data[r.remaining:], nil
	}

	r.buf = append(r.buf, data...)
	r.remaining -= n

	return nil, nil, nil
}

// ToCloseBodyReader accumulates every fed octet; the caller (the connection
// driver) calls Close once the peer's socket half-close arrives, at which
// point the accumulated bytes become the message's Complete body.
type ToCloseBodyReader struct {
	maxLen uint64
	buf    []byte
}

func NewToCloseBodyReader(cfg config.Body) *ToCloseBodyReader {
	return &ToCloseBodyReader{maxLen: cfg.MaxContentLength}
}

func (r *ToCloseBodyReader) Feed(data []byte) error {
	if uint64(len(r.buf)+len(data)) > r.maxLen {
		return status.ErrBodyTooLarge
	}

	r.buf = append(r.buf, data...)

	return nil
}

func (r *ToCloseBodyReader) Close() *message.Complete {
	return &message.Complete{Body: r.buf}
}
