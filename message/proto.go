package message

// Protocol is the HTTP protocol version. Only 1.0 and 1.1 are accepted by
// this parser (spec §4.1); anything else resolves to UnknownProtocol and the
// parser raises status.ErrHTTPVersionNotSupported.
type Protocol uint8

const (
	UnknownProtocol Protocol = 0
	HTTP10          Protocol = 1
	HTTP11          Protocol = 2
)

func (p Protocol) String() string {
	switch p {
	case HTTP10:
		return "HTTP/1.0"
	case HTTP11:
		return "HTTP/1.1"
	default:
		return ""
	}
}

var majorMinorLUT = [10][10]Protocol{
	1: {0: HTTP10, 1: HTTP11},
}

// ParseProtocol resolves a "HTTP/x.y" token, as produced by the start-line
// state of the parser.
func ParseProtocol(raw []byte) Protocol {
	const (
		tokenLen    = len("HTTP/x.x")
		majorOffset = len("HTTP/x") - 1
		minorOffset = len("HTTP/x.x") - 1
		scheme      = "HTTP/"
	)

	if len(raw) != tokenLen || string(raw[:majorOffset]) != scheme {
		return UnknownProtocol
	}

	major, minor := raw[majorOffset]-'0', raw[minorOffset]-'0'
	if major > 9 || minor > 9 {
		return UnknownProtocol
	}

	return majorMinorLUT[major][minor]
}
