package http1

import (
	"strconv"
	"strings"

	"github.com/nthm-io/httpcore/kv"
	"github.com/nthm-io/httpcore/message"
	"github.com/nthm-io/httpcore/status"
)

// decideFraming implements the header-complete decision of §4.1.1: once the
// full header section of a message is known, it is examined exactly once to
// pick how the entity body (if any) is delimited.
func decideFraming(
	headers *kv.Storage, isResponse bool, statusCode int, protocol message.Protocol,
) (framing message.Framing, contentLength uint64, transferCodings []string, err error) {
	if isResponse && (statusCode/100 == 1 || statusCode == 204 || statusCode == 304) {
		return message.FramingEmpty, 0, nil, nil
	}

	clValues := headers.Values("content-length")
	if len(clValues) > 1 {
		return 0, 0, nil, status.ErrDuplicateContentLength
	}

	codings, finalCoding := splitTransferCoding(headers.Values("transfer-encoding"))
	if finalCoding != "" && finalCoding != "identity" {
		return message.FramingChunked, 0, codings[:len(codings)-1], nil
	}

	if len(clValues) == 1 {
		n, perr := parseContentLength(clValues[0])
		if perr != nil {
			return 0, 0, nil, perr
		}

		if n == 0 {
			return message.FramingEmpty, 0, nil, nil
		}

		return message.FramingFixed, n, nil, nil
	}

	if !isResponse {
		return message.FramingEmpty, 0, nil, nil
	}

	if hasConnectionToken(headers.Value("connection"), "close") ||
		(headers.Value("connection") == "" && protocol == message.HTTP10) {
		return message.FramingToClose, 0, nil, nil
	}

	return 0, 0, nil, status.ErrLengthRequired
}

// hasConnectionToken reports whether token (case-insensitive) appears among
// the comma-separated values of a Connection header, e.g. "keep-alive,
// close" naming both keep-alive and close rather than one combined token.
func hasConnectionToken(value, token string) bool {
	for _, tok := range strings.Split(value, ",") {
		if strings.EqualFold(strings.TrimSpace(tok), token) {
			return true
		}
	}

	return false
}

// splitTransferCoding merges every Transfer-Encoding occurrence into a
// single, order-preserved list of lowercased coding tokens, then reports the
// final one - the coding that actually decides framing per invariant 4.
func splitTransferCoding(values []string) (codings []string, final string) {
	if len(values) == 0 {
		return nil, ""
	}

	for _, v := range values {
		for _, tok := range strings.Split(v, ",") {
			tok = strings.TrimSpace(tok)
			if tok == "" {
				continue
			}

			codings = append(codings, strings.ToLower(tok))
		}
	}

	if len(codings) == 0 {
		return nil, ""
	}

	return codings, codings[len(codings)-1]
}

func parseContentLength(value string) (uint64, error) {
	if value == "" {
		return 0, status.Errorf(status.ErrBadRequest.Code,
			"invalid Content-Length header value: %q", value)
	}

	n, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, status.Errorf(status.ErrBadRequest.Code,
			"invalid Content-Length header value: %q", value)
	}

	return n, nil
}

// requireSingleHost enforces invariant 1 (exactly one Host header on an
// HTTP/1.1 request) and the general "duplicate Host" rule named in §4.1.1
// for any request regardless of version.
func requireSingleHost(headers *kv.Storage, protocol message.Protocol) error {
	n := len(headers.Values("host"))

	switch {
	case n > 1:
		return status.ErrDuplicateHost
	case n == 0 && protocol == message.HTTP11:
		return status.ErrMissingHost
	}

	return nil
}
