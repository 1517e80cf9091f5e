package pipeline

import (
	"testing"

	"github.com/nthm-io/httpcore/config"
	"github.com/stretchr/testify/require"
)

func newTestFramingStage(t *testing.T) (*FramingStage, *[]Event) {
	t.Helper()

	cfg := config.Default()
	events := &[]Event{}
	f := NewFramingStage(cfg)
	f.eventPL = func(evt Event) { *events = append(*events, evt) }

	return f, events
}

func TestFramingStageEmptyBodyRequestCompletesImmediately(t *testing.T) {
	f, events := newTestFramingStage(t)

	err := f.Feed([]byte("GET / HTTP/1.1\r\nHost: a\r\n\r\n"))
	require.NoError(t, err)

	require.Len(t, *events, 2)
	require.NotNil(t, (*events)[0].RequestStart)
	require.NotNil(t, (*events)[1].Complete)
}

func TestFramingStageZeroContentLengthCompletesWithoutFurtherBytes(t *testing.T) {
	f, events := newTestFramingStage(t)

	err := f.Feed([]byte("POST / HTTP/1.1\r\nHost: a\r\nContent-Length: 0\r\n\r\n"))
	require.NoError(t, err)

	require.Len(t, *events, 2)
	require.NotNil(t, (*events)[0].RequestStart)
	require.NotNil(t, (*events)[1].Complete)
}

func TestFramingStageFixedBodySpansTwoFeeds(t *testing.T) {
	f, events := newTestFramingStage(t)

	err := f.Feed([]byte("POST / HTTP/1.1\r\nHost: a\r\nContent-Length: 5\r\n\r\nhel"))
	require.NoError(t, err)
	require.Len(t, *events, 1)

	err = f.Feed([]byte("lo"))
	require.NoError(t, err)
	require.Len(t, *events, 2)
	require.Equal(t, []byte("hello"), (*events)[1].Complete.Body)
}

func TestFramingStageSecondRequestAfterResetForNextMessage(t *testing.T) {
	f, events := newTestFramingStage(t)

	err := f.Feed([]byte("GET /first HTTP/1.1\r\nHost: a\r\n\r\nGET /second HTTP/1.1\r\nHost: a\r\n\r\n"))
	require.NoError(t, err)

	require.Len(t, *events, 4)
	require.Equal(t, "/first", (*events)[0].RequestStart.Target)
	require.Equal(t, "/second", (*events)[2].RequestStart.Target)
}

func TestFramingStageChunkedBodyEmitsChunkThenEnd(t *testing.T) {
	f, events := newTestFramingStage(t)

	raw := "POST / HTTP/1.1\r\nHost: a\r\nTransfer-Encoding: chunked\r\n\r\n5\r\nhello\r\n0\r\n\r\n"
	err := f.Feed([]byte(raw))
	require.NoError(t, err)

	require.Len(t, *events, 3)
	require.NotNil(t, (*events)[0].RequestStart)
	require.NotNil(t, (*events)[1].Chunk)
	require.Equal(t, []byte("hello"), (*events)[1].Chunk.Data)
	require.NotNil(t, (*events)[2].ChunkedEnd)
}

func TestFramingStageParserErrorIsReportedAsEvent(t *testing.T) {
	f, events := newTestFramingStage(t)

	err := f.Feed([]byte("FROBNICATE / HTTP/1.1\r\n\r\n"))
	require.Error(t, err)

	require.Len(t, *events, 1)
	require.Error(t, (*events)[0].Err)
}

