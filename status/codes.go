package status

// Code is an HTTP status code.
type Code uint16

// Reason is a status reason phrase, as it is normally rendered on the wire.
type Reason string

// Status codes actually produced or consumed by this module. Not an exhaustive
// IANA registry copy - only what the parser and pipeline stages need to name.
const (
	Continue           Code = 100
	SwitchingProtocols Code = 101

	OK            Code = 200
	NoContent     Code = 204
	ResetContent  Code = 205
	PartialContent Code = 206

	NotModified Code = 304

	BadRequest            Code = 400
	Forbidden             Code = 403
	NotFound              Code = 404
	MethodNotAllowed      Code = 405
	RequestTimeout        Code = 408
	LengthRequired        Code = 411
	RequestEntityTooLarge Code = 413
	RequestURITooLong     Code = 414
	HeaderFieldsTooLarge  Code = 431

	InternalServerError    Code = 500
	NotImplemented         Code = 501
	HTTPVersionNotSupported Code = 505

	// CloseConnection is not a wire status: it marks an error that must not
	// be rendered as a response at all, only cause the connection to close.
	CloseConnection Code = 0
)

var reasons = map[Code]Reason{
	Continue:                "Continue",
	SwitchingProtocols:      "Switching Protocols",
	OK:                      "OK",
	NoContent:               "No Content",
	ResetContent:            "Reset Content",
	PartialContent:          "Partial Content",
	NotModified:             "Not Modified",
	BadRequest:              "Bad Request",
	Forbidden:               "Forbidden",
	NotFound:                "Not Found",
	MethodNotAllowed:        "Method Not Allowed",
	RequestTimeout:          "Request Timeout",
	LengthRequired:          "Length Required",
	RequestEntityTooLarge:   "Request Entity Too Large",
	RequestURITooLong:       "Request URI Too Long",
	HeaderFieldsTooLarge:    "Request Header Fields Too Large",
	InternalServerError:     "Internal Server Error",
	NotImplemented:          "Not Implemented",
	HTTPVersionNotSupported: "HTTP Version Not Supported",
}

// Text returns the canonical reason phrase for a code, or "" if unknown.
func (c Code) Text() Reason {
	return reasons[c]
}

// IsInformational reports whether the status is in the 1xx class.
func (c Code) IsInformational() bool {
	return c >= 100 && c < 200
}
