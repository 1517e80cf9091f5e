package message

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseMethod(t *testing.T) {
	require.Equal(t, GET, ParseMethod("GET"))
	require.Equal(t, POST, ParseMethod("POST"))
	require.Equal(t, Unknown, ParseMethod("PROPFIND"))
	require.Equal(t, Unknown, ParseMethod(""))
	require.Equal(t, Unknown, ParseMethod("G"))
}

func TestParseProtocol(t *testing.T) {
	require.Equal(t, HTTP11, ParseProtocol([]byte("HTTP/1.1")))
	require.Equal(t, HTTP10, ParseProtocol([]byte("HTTP/1.0")))
	require.Equal(t, UnknownProtocol, ParseProtocol([]byte("HTTP/2.0")))
	require.Equal(t, UnknownProtocol, ParseProtocol([]byte("http/1.1")))
	require.Equal(t, UnknownProtocol, ParseProtocol([]byte("HTTP/1.11")))
}

func TestProtocolString(t *testing.T) {
	require.Equal(t, "HTTP/1.1", HTTP11.String())
	require.Equal(t, "HTTP/1.0", HTTP10.String())
	require.Equal(t, "", UnknownProtocol.String())
}
