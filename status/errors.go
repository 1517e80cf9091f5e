package status

import "fmt"

// HTTPError is the terminal-state error carried by the parser and pipeline:
// a human-readable reason plus the status a server should render for it.
// It is never used for control flow via panic - only as a normal returned
// or carried value, per spec.
type HTTPError struct {
	Message string
	Code    Code
}

func NewError(code Code, message string) HTTPError {
	return HTTPError{Code: code, Message: message}
}

func (h HTTPError) Error() string {
	return h.Message
}

// Errorf builds an HTTPError with a formatted message, for the handful of
// parser errors that must name the offending header or limit.
func Errorf(code Code, format string, args ...any) HTTPError {
	return HTTPError{Code: code, Message: fmt.Sprintf(format, args...)}
}

var (
	ErrCloseConnection = NewError(CloseConnection, "actively closing the connection")

	ErrBadRequest              = NewError(BadRequest, "bad request")
	ErrMethodNotImplemented    = NewError(NotImplemented, "request method is not supported")
	ErrURITooLong              = NewError(RequestURITooLong, "request URI too long")
	ErrHeaderFieldsTooLarge    = NewError(HeaderFieldsTooLarge, "too large headers section")
	ErrTooManyHeaders          = NewError(HeaderFieldsTooLarge, "too many headers")
	ErrHTTPVersionNotSupported = NewError(HTTPVersionNotSupported, "HTTP Version not supported")
	ErrIllegalStatusCode       = NewError(BadRequest, "Illegal response status code")
	ErrBodyTooLarge            = NewError(RequestEntityTooLarge, "request body is too large")
	ErrLengthRequired          = NewError(LengthRequired, "Content-Length header or chunked transfer encoding required")
	ErrMissingHost             = NewError(BadRequest, "missing required Host header")
	ErrDuplicateHost           = NewError(BadRequest, "duplicate Host header")
	ErrDuplicateContentLength  = NewError(BadRequest, "duplicate Content-Length header")
	ErrMalformedChunk          = NewError(BadRequest, "malformed chunk-encoded data")
	ErrChunkExtensionTooLarge  = NewError(BadRequest, "chunk extension too large")
	ErrChunkTooLarge           = NewError(RequestEntityTooLarge, "chunk size exceeds the configured limit")
)
