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

type responseState uint8

const (
	spProto responseState = iota + 1
	spCode
	spReason
	spHeaders
)

// ResponseParser parses the status-line and header section of an HTTP/1.x
// response. As with RequestParser, one instance parses one message at a
// time and is reused for the next one after Reset.
type ResponseParser struct {
	state       responseState
	lineBuff    *buffer.Buffer
	reasonBuff  *buffer.Buffer
	reasonMax   int
	protocol    message.Protocol
	status      int
	digits      int
	headers     *headerScanner
	storage     *kv.Storage
	cfg         *config.Config
}

func NewResponseParser(cfg *config.Config, lineBuff, reasonBuff, nameBuff, valueBuff *buffer.Buffer) *ResponseParser {
	storage := kv.NewPrealloc(cfg.Headers.MaxCount)

	return &ResponseParser{
		state:      spProto,
		lineBuff:   lineBuff,
		reasonBuff: reasonBuff,
		reasonMax:  cfg.Reason.MaxLen,
		headers:    newHeaderScanner(cfg.Headers, nameBuff, valueBuff, storage),
		storage:    storage,
		cfg:        cfg,
	}
}

func (p *ResponseParser) Reset() {
	p.state = spProto
	p.lineBuff.Clear()
	p.reasonBuff.Clear()
	p.protocol = message.UnknownProtocol
	p.status = 0
	p.digits = 0
	p.storage = kv.NewPrealloc(p.cfg.Headers.MaxCount)
	p.headers.storage = p.storage
	p.headers.reset()
}

func (p *ResponseParser) Parse(data []byte) (start *message.ResponseStart, rest []byte, err error) {
	for len(data) > 0 {
		switch p.state {
		case spProto:
			sp := bytes.IndexByte(data, ' ')
			if sp == -1 {
				if !p.lineBuff.Append(data) {
					return nil, nil, status.ErrBadRequest
				}

				return nil, nil, nil
			}

			if !p.lineBuff.Append(data[:sp]) {
				return nil, nil, status.ErrBadRequest
			}

			protocol := message.ParseProtocol(p.lineBuff.Finish())
			if protocol == message.UnknownProtocol {
				return nil, nil, status.ErrHTTPVersionNotSupported
			}

			p.protocol = protocol
			data = data[sp+1:]
			p.state = spCode

		case spCode:
			i := 0
			for ; i < len(data); i++ {
				c := data[i]
				if c == ' ' || c == '\r' || c == '\n' {
					break
				}

				if c < '0' || c > '9' {
					return nil, nil, status.ErrIllegalStatusCode
				}

				p.digits++
				if p.digits > 3 {
					return nil, nil, status.ErrIllegalStatusCode
				}

				p.status = p.status*10 + int(c-'0')
			}

			if i == len(data) {
				return nil, nil, nil
			}

			if p.digits != 3 || p.status < 100 || p.status > 599 {
				return nil, nil, status.ErrIllegalStatusCode
			}

			if data[i] == ' ' {
				data = data[i+1:]
			} else {
				data = data[i:]
			}

			p.state = spReason

		case spReason:
			lf := bytes.IndexByte(data, '\n')
			if lf == -1 {
				if !p.reasonBuff.Append(stripCRBytes(data)) {
					return nil, nil, status.Errorf(status.ErrBadRequest.Code,
						"response reason phrase exceeds the configured limit of %d characters", p.reasonMax)
				}

				if p.reasonBuff.SegmentLength() > p.reasonMax {
					return nil, nil, status.Errorf(status.ErrBadRequest.Code,
						"response reason phrase exceeds the configured limit of %d characters", p.reasonMax)
				}

				return nil, nil, nil
			}

			if !p.reasonBuff.Append(stripCRBytes(data[:lf])) {
				return nil, nil, status.Errorf(status.ErrBadRequest.Code,
					"response reason phrase exceeds the configured limit of %d characters", p.reasonMax)
			}

			if p.reasonBuff.SegmentLength() > p.reasonMax {
				return nil, nil, status.Errorf(status.ErrBadRequest.Code,
					"response reason phrase exceeds the configured limit of %d characters", p.reasonMax)
			}

			data = data[lf+1:]
			p.state = spHeaders

		case spHeaders:
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

func (p *ResponseParser) finish() (*message.ResponseStart, error) {
	framing, contentLength, transferCodings, err := decideFraming(p.storage, true, p.status, p.protocol)
	if err != nil {
		return nil, err
	}

	return &message.ResponseStart{
		Protocol:        p.protocol,
		Status:          p.status,
		Reason:          uf.B2S(p.reasonBuff.Finish()),
		Headers:         p.storage,
		Framing:         framing,
		ContentLength:   contentLength,
		TransferCodings: transferCodings,
	}, nil
}

// stripCRBytes drops every CR from a fed reason-phrase fragment, so the
// reason phrase ignores CR wherever it appears, not only the one ending the
// status line. A fragment without CR is returned as is, without copying.
func stripCRBytes(b []byte) []byte {
	if bytes.IndexByte(b, '\r') == -1 {
		return b
	}

	return bytes.ReplaceAll(b, []byte{'\r'}, nil)
}
