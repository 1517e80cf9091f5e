package http1

import (
	"testing"

	"github.com/nthm-io/httpcore/config"
	"github.com/nthm-io/httpcore/message"
	"github.com/nthm-io/httpcore/status"
	"github.com/indigo-web/utils/buffer"
	"github.com/stretchr/testify/require"
)

func newResponseParser(cfg *config.Config) *ResponseParser {
	line := buffer.New(cfg.URI.MaxLen, cfg.URI.MaxLen)
	reason := buffer.New(cfg.Reason.MaxLen, cfg.Reason.MaxLen)
	name := buffer.New(cfg.Headers.MaxNameLen*8, cfg.Headers.MaxNameLen*cfg.Headers.MaxCount)
	value := buffer.New(cfg.Headers.MaxValueLen, cfg.Headers.MaxValueLen*cfg.Headers.MaxCount)

	return NewResponseParser(cfg, line, reason, name, value)
}

func TestResponseParserSimpleOK(t *testing.T) {
	p := newResponseParser(config.Default())

	start, rest, err := p.Parse([]byte("HTTP/1.1 200 OK\r\nContent-Length: 0\r\n\r\n"))
	require.NoError(t, err)
	require.NotNil(t, start)
	require.Empty(t, rest)

	require.Equal(t, message.HTTP11, start.Protocol)
	require.Equal(t, 200, start.Status)
	require.Equal(t, "OK", start.Reason)
	require.Equal(t, message.FramingEmpty, start.Framing)
}

func Test10ResponseWithoutFramingHeadersIsToClose(t *testing.T) {
	p := newResponseParser(config.Default())

	start, _, err := p.Parse([]byte("HTTP/1.0 200 OK\r\n\r\n"))
	require.NoError(t, err)
	require.NotNil(t, start)
	require.Equal(t, message.FramingToClose, start.Framing)
}

func TestResponseParser11WithoutFramingHeadersIsLengthRequired(t *testing.T) {
	p := newResponseParser(config.Default())

	_, _, err := p.Parse([]byte("HTTP/1.1 200 OK\r\n\r\n"))
	require.ErrorIs(t, err, status.ErrLengthRequired)
}

func TestResponseParserConnectionCloseIsToClose(t *testing.T) {
	p := newResponseParser(config.Default())

	start, _, err := p.Parse([]byte("HTTP/1.1 200 OK\r\nConnection: close\r\n\r\n"))
	require.NoError(t, err)
	require.NotNil(t, start)
	require.Equal(t, message.FramingToClose, start.Framing)
}

func TestResponseParserConnectionCloseAmongMultipleTokensIsToClose(t *testing.T) {
	p := newResponseParser(config.Default())

	start, _, err := p.Parse([]byte("HTTP/1.1 200 OK\r\nConnection: keep-alive, close\r\n\r\n"))
	require.NoError(t, err)
	require.NotNil(t, start)
	require.Equal(t, message.FramingToClose, start.Framing)
}

func TestResponseParserChunkedTransferEncodingStartsChunkedFraming(t *testing.T) {
	p := newResponseParser(config.Default())

	start, rest, err := p.Parse([]byte("HTTP/1.1 200 OK\r\nTransfer-Encoding: chunked\r\n\r\n5\r\nhello\r\n0\r\n\r\n"))
	require.NoError(t, err)
	require.NotNil(t, start)
	require.Equal(t, message.FramingChunked, start.Framing)
	require.Equal(t, []byte("5\r\nhello\r\n0\r\n\r\n"), rest)
}

func TestResponseParserNoContentIsAlwaysEmptyFraming(t *testing.T) {
	p := newResponseParser(config.Default())

	start, _, err := p.Parse([]byte("HTTP/1.1 204 No Content\r\n\r\n"))
	require.NoError(t, err)
	require.NotNil(t, start)
	require.Equal(t, message.FramingEmpty, start.Framing)
}

func TestResponseParserIllegalStatusCodeOutOfRange(t *testing.T) {
	p := newResponseParser(config.Default())

	_, _, err := p.Parse([]byte("HTTP/1.1 999 Bogus\r\n\r\n"))
	require.ErrorIs(t, err, status.ErrIllegalStatusCode)
}

func TestResponseParserIllegalStatusCodeNonDigit(t *testing.T) {
	p := newResponseParser(config.Default())

	_, _, err := p.Parse([]byte("HTTP/1.1 2a0 Bogus\r\n\r\n"))
	require.ErrorIs(t, err, status.ErrIllegalStatusCode)
}

func TestResponseParserDuplicateContentLengthIs400(t *testing.T) {
	p := newResponseParser(config.Default())

	_, _, err := p.Parse([]byte("HTTP/1.1 200 OK\r\nContent-Length: 1\r\nContent-Length: 1\r\n\r\nx"))
	require.ErrorIs(t, err, status.ErrDuplicateContentLength)
}

func TestResponseParserFedFragmented(t *testing.T) {
	p := newResponseParser(config.Default())
	raw := []byte("HTTP/1.1 200 OK\r\nContent-Length: 0\r\n\r\n")

	var start *message.ResponseStart
	var err error

	for i := 0; i < len(raw); i += 3 {
		end := i + 3
		if end > len(raw) {
			end = len(raw)
		}

		start, _, err = p.Parse(raw[i:end])
		require.NoError(t, err)
	}

	require.NotNil(t, start)
	require.Equal(t, 200, start.Status)
}
