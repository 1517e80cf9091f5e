package http1

import (
	"github.com/nthm-io/httpcore/config"
	"github.com/nthm-io/httpcore/kv"
	"github.com/nthm-io/httpcore/status"
	"github.com/indigo-web/utils/buffer"
	"github.com/indigo-web/utils/uf"
)

// headerState tags where inside the header section the shared scanner
// currently sits. It is embedded by both the request and the response
// parser, which otherwise differ only in their start-line handling.
type headerState uint8

const (
	hName headerState = iota + 1
	hColonLWS
	hValue
	hValueLF
)

// headerScanner parses the header section of a message: zero or more
// "name: value" lines, each possibly folded across several physical lines,
// terminated by an empty line. It is fed arbitrarily-sized fragments and
// reports done once the terminating CRLF (or bare LF) has been consumed.
//
// A bare CR is dropped wherever it occurs; only LF ends a line, per the
// wire-protocol tolerance named in §6.1.
type headerScanner struct {
	state     headerState
	cfg       config.Headers
	nameBuff  *buffer.Buffer
	valueBuff *buffer.Buffer
	headerKey string
	count     int
	storage   *kv.Storage
}

func newHeaderScanner(cfg config.Headers, nameBuff, valueBuff *buffer.Buffer, storage *kv.Storage) *headerScanner {
	return &headerScanner{
		state:     hName,
		cfg:       cfg,
		nameBuff:  nameBuff,
		valueBuff: valueBuff,
		storage:   storage,
	}
}

func (h *headerScanner) reset() {
	h.state = hName
	h.nameBuff.Clear()
	h.valueBuff.Clear()
	h.headerKey = ""
	h.count = 0
}

// feed consumes data until either the header section is finished (done=true,
// rest holds whatever followed the terminating blank line) or data runs out
// (done=false, err=nil).
func (h *headerScanner) feed(data []byte) (rest []byte, done bool, err error) {
	for len(data) > 0 {
		c := data[0]

		switch h.state {
		case hName:
			switch c {
			case '\r':
				data = data[1:]
				continue
			case '\n':
				if h.nameBuff.SegmentLength() != 0 {
					return nil, false, status.ErrBadRequest
				}

				return data[1:], true, nil
			case ':':
				name := h.nameBuff.Finish()
				if len(name) == 0 {
					return nil, false, status.ErrBadRequest
				}

				if err := h.commitName(name); err != nil {
					return nil, false, err
				}

				data = data[1:]
				h.state = hColonLWS
				continue
			}

			if !isToken(c) {
				return nil, false, status.Errorf(status.ErrBadRequest.Code,
					"invalid character '%c', expected TOKEN CHAR, LWS or COLON", c)
			}

			if !h.nameBuff.Append([]byte{lower(c)}) {
				return nil, false, truncatedNameError(h.nameBuff.Finish())
			}

			data = data[1:]

		case hColonLWS:
			switch c {
			case ' ', '\t':
				data = data[1:]
				continue
			case '\r':
				data = data[1:]
				continue
			case '\n':
				data = data[1:]
				h.state = hValueLF
				continue
			}

			h.state = hValue

		case hValue:
			switch c {
			case '\r':
				data = data[1:]
				continue
			case '\n':
				data = data[1:]
				h.state = hValueLF
				continue
			}

			if isCTL(c) {
				return nil, false, status.Errorf(status.ErrBadRequest.Code,
					"invalid character %#x in header value", c)
			}

			if !h.valueBuff.Append([]byte{c}) {
				return nil, false, valueTooLongError(h.headerKey, h.cfg.MaxValueLen)
			}

			if h.valueBuff.SegmentLength() > h.cfg.MaxValueLen {
				return nil, false, valueTooLongError(h.headerKey, h.cfg.MaxValueLen)
			}

			data = data[1:]

		case hValueLF:
			if c == ' ' || c == '\t' {
				// fold: collapse the continuation's leading LWS into one SP
				if !h.valueBuff.Append([]byte{' '}) {
					return nil, false, valueTooLongError(h.headerKey, h.cfg.MaxValueLen)
				}

				if h.valueBuff.SegmentLength() > h.cfg.MaxValueLen {
					return nil, false, valueTooLongError(h.headerKey, h.cfg.MaxValueLen)
				}

				data = data[1:]
				h.state = hColonLWS
				continue
			}

			h.commitValue()
			h.state = hName
			// c is not consumed: it belongs to the next header-name (or the
			// blank line ending the section).
		}
	}

	return nil, false, nil
}

func (h *headerScanner) commitName(name []byte) error {
	if len(name) > h.cfg.MaxNameLen {
		return truncatedNameError(name)
	}

	if h.count++; h.count > h.cfg.MaxCount {
		return status.ErrTooManyHeaders
	}

	h.headerKey = string(name)

	return nil
}

func (h *headerScanner) commitValue() {
	// Buffers are arenas for the whole message: Finish only closes the
	// current segment, it does not reclaim space, so earlier headers'
	// strings (aliased via uf.B2S) stay valid until reset() runs at the
	// next message boundary.
	value := uf.B2S(trimTrailingLWS(h.valueBuff.Finish()))
	h.storage.Add(h.headerKey, value)
	h.headerKey = ""
}

func trimTrailingLWS(b []byte) []byte {
	end := len(b)
	for end > 0 && (b[end-1] == ' ' || b[end-1] == '\t') {
		end--
	}

	return b[:end]
}

func truncatedNameError(name []byte) error {
	const maxShown = 50

	shown := string(name)
	suffix := ""
	if len(shown) > maxShown {
		shown = shown[:maxShown]
		suffix = "..."
	}

	return status.Errorf(status.ErrBadRequest.Code,
		"header name exceeds the configured limit (got '%s%s')", shown, suffix)
}

func valueTooLongError(name string, limit int) error {
	return status.Errorf(status.ErrHeaderFieldsTooLarge.Code,
		"HTTP header value exceeds the configured limit of %d characters (header '%s')", limit, name)
}
