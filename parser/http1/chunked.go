package http1

import (
	"github.com/nthm-io/httpcore/config"
	"github.com/nthm-io/httpcore/kv"
	"github.com/nthm-io/httpcore/message"
	"github.com/nthm-io/httpcore/status"
	"github.com/indigo-web/utils/buffer"
)

type chunkedState uint8

const (
	cSize chunkedState = iota + 1
	cSizeCR
	cExtName
	cExtValue
	cExtValueQuoted
	cExtValueQuotedEscape
	cExtNameCR
	cExtValueCR
	cData
	cDataCR
	cTrailerHeaders
)

// ChunkedBodyReader implements the chunked sub-states of §4.1 state 8:
// chunk-size, optional chunk-extensions, chunk-data, repeated until a
// zero-size chunk, then optional trailer headers.
//
// Trailer headers are always parsed (to keep the stream framing correct)
// but only surfaced on the ChunkedEnd part when the caller says the
// enclosing message announced a Trailer header (see spec §6.1); otherwise
// they are discarded after parsing.
type ChunkedBodyReader struct {
	state         chunkedState
	size          uint64
	digits        int
	extName       string
	extBuff       *buffer.Buffer
	extensions    []message.ChunkExtension
	admitTrailers bool
	trailers      *headerScanner
	cfg           config.Body
}

func NewChunkedBodyReader(
	cfg config.Body, extBuff *buffer.Buffer,
	trailerCfg config.Headers, trailerNameBuff, trailerValueBuff *buffer.Buffer,
	admitTrailers bool,
) *ChunkedBodyReader {
	// The scratch buffers are shared by every chunked message on a
	// connection; each message starts with them empty.
	extBuff.Clear()
	trailerNameBuff.Clear()
	trailerValueBuff.Clear()

	return &ChunkedBodyReader{
		state:         cSize,
		extBuff:       extBuff,
		admitTrailers: admitTrailers,
		trailers:      newHeaderScanner(trailerCfg, trailerNameBuff, trailerValueBuff, kv.NewPrealloc(trailerCfg.MaxCount)),
		cfg:           cfg,
	}
}

// Feed advances the chunked state machine. Exactly one of chunk/end is
// non-nil when an event completes; rest holds whatever bytes in this
// fragment followed that event.
func (c *ChunkedBodyReader) Feed(data []byte) (chunk *message.Chunk, end *message.ChunkedEnd, rest []byte, err error) {
	var chunkData []byte

	for len(data) > 0 {
		b := data[0]

		switch c.state {
		case cSize:
			switch {
			case isHex(b):
				c.digits++
				if c.digits > 8 {
					return nil, nil, nil, status.ErrMalformedChunk
				}

				c.size = c.size<<4 | uint64(unhex(b))
				if c.size > c.cfg.MaxChunkSize {
					return nil, nil, nil, status.ErrChunkTooLarge
				}

				data = data[1:]
			case b == ';':
				if c.digits == 0 {
					return nil, nil, nil, status.ErrMalformedChunk
				}

				data = data[1:]
				c.state = cExtName
			case b == '\r':
				data = data[1:]
				c.state = cSizeCR
			case b == '\n':
				if c.digits == 0 {
					return nil, nil, nil, status.ErrMalformedChunk
				}

				data = data[1:]
				c.afterSizeLine()
			default:
				return nil, nil, nil, status.ErrMalformedChunk
			}

		case cSizeCR:
			if b != '\n' {
				return nil, nil, nil, status.ErrMalformedChunk
			}

			data = data[1:]
			c.afterSizeLine()

		case cExtName:
			switch b {
			case '=':
				c.extName = string(c.extBuff.Finish())
				data = data[1:]
				c.state = cExtValue
			case ';':
				c.extensions = append(c.extensions, message.ChunkExtension{Name: string(c.extBuff.Finish())})
				data = data[1:]
				c.state = cExtName
			case '\r':
				data = data[1:]
				c.state = cExtNameCR
			case '\n':
				c.extensions = append(c.extensions, message.ChunkExtension{Name: string(c.extBuff.Finish())})
				data = data[1:]
				c.afterSizeLine()
			default:
				if !c.extBuff.Append([]byte{b}) {
					return nil, nil, nil, status.ErrChunkExtensionTooLarge
				}

				data = data[1:]
			}

		case cExtValue:
			switch b {
			case '"':
				data = data[1:]
				c.state = cExtValueQuoted
			case ';':
				c.extensions = append(c.extensions, message.ChunkExtension{Name: c.extName, Value: string(c.extBuff.Finish())})
				data = data[1:]
				c.state = cExtName
			case '\r':
				data = data[1:]
				c.state = cExtValueCR
			case '\n':
				c.extensions = append(c.extensions, message.ChunkExtension{Name: c.extName, Value: string(c.extBuff.Finish())})
				data = data[1:]
				c.afterSizeLine()
			default:
				if !c.extBuff.Append([]byte{b}) {
					return nil, nil, nil, status.ErrChunkExtensionTooLarge
				}

				data = data[1:]
			}

		case cExtValueQuoted:
			switch b {
			case '"':
				c.state = cExtValue
				data = data[1:]
				continue
			case '\\':
				data = data[1:]
				c.state = cExtValueQuotedEscape
				continue
			}

			if !c.extBuff.Append([]byte{b}) {
				return nil, nil, nil, status.ErrChunkExtensionTooLarge
			}

			data = data[1:]

		case cExtValueQuotedEscape:
			// quoted-pair: the octet following a backslash is taken
			// literally, even if it would otherwise end the quoted string.
			if !c.extBuff.Append([]byte{b}) {
				return nil, nil, nil, status.ErrChunkExtensionTooLarge
			}

			data = data[1:]
			c.state = cExtValueQuoted

		case cExtNameCR:
			if b != '\n' {
				return nil, nil, nil, status.ErrMalformedChunk
			}

			c.extensions = append(c.extensions, message.ChunkExtension{Name: string(c.extBuff.Finish())})
			data = data[1:]
			c.afterSizeLine()

		case cExtValueCR:
			if b != '\n' {
				return nil, nil, nil, status.ErrMalformedChunk
			}

			c.extensions = append(c.extensions, message.ChunkExtension{Name: c.extName, Value: string(c.extBuff.Finish())})
			data = data[1:]
			c.afterSizeLine()

		case cData:
			n := uint64(len(data))
			if n >= c.size {
				chunkData = append(chunkData, data[:c.size]...)
				data = data[c.size:]
				c.size = 0
				c.state = cDataCR
			} else {
				chunkData = append(chunkData, data...)
				c.size -= n
				data = nil
			}

		case cDataCR:
			if b != '\r' && b != '\n' {
				return nil, nil, nil, status.ErrMalformedChunk
			}

			if b == '\r' {
				data = data[1:]
				continue
			}

			data = data[1:]
			c.resetForNextChunk()

			if chunkData == nil {
				continue
			}

			return &message.Chunk{Data: chunkData, Extensions: c.takeExtensions()}, nil, data, nil

		case cTrailerHeaders:
			var trailerRest []byte
			var done bool
			trailerRest, done, err = c.trailers.feed(data)
			if err != nil {
				return nil, nil, nil, err
			}

			if !done {
				return nil, nil, nil, nil
			}

			e := &message.ChunkedEnd{Extensions: c.takeExtensions()}
			if c.admitTrailers {
				e.Trailers = c.trailers.storage
			}

			return nil, e, trailerRest, nil
		}
	}

	if chunkData != nil {
		return &message.Chunk{Data: chunkData, Extensions: c.takeExtensions()}, nil, nil, nil
	}

	return nil, nil, nil, nil
}

// afterSizeLine is invoked right after the CRLF ending the chunk-size (and
// optional extensions) line. A size of zero starts the trailer section;
// any other size begins chunk-data accumulation.
func (c *ChunkedBodyReader) afterSizeLine() {
	if c.size == 0 {
		c.state = cTrailerHeaders

		return
	}

	c.state = cData
}

func (c *ChunkedBodyReader) takeExtensions() []message.ChunkExtension {
	ext := c.extensions
	c.extensions = nil

	return ext
}

func (c *ChunkedBodyReader) resetForNextChunk() {
	c.state = cSize
	c.digits = 0
	c.size = 0
	// extensions were copied out as strings, so the limit applies per chunk
	c.extBuff.Clear()
}

func isHex(b byte) bool {
	return (b >= '0' && b <= '9') || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}

func unhex(b byte) byte {
	switch {
	case b >= '0' && b <= '9':
		return b - '0'
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10
	default:
		return b - 'A' + 10
	}
}
