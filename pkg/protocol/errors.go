package protocol

import "errors"

// Codec-level failures. Callers match them with errors.Is; the reader
// functions wrap them with the offending detail.
var (
	// ErrMalformedVarint is returned when a variable-length integer has no
	// terminating byte within its maximum width or overflows its type.
	ErrMalformedVarint = errors.New("malformed varint")

	// ErrInvalidEncoding is returned for malformed UTF-8 or an impossible
	// length prefix.
	ErrInvalidEncoding = errors.New("invalid encoding")

	// ErrUnknownTag is returned when a structured-data blob carries a tag byte
	// this codec does not know.
	ErrUnknownTag = errors.New("unknown tag")

	// ErrUnsupportedVersion is returned when no layout matches the negotiated
	// protocol version.
	ErrUnsupportedVersion = errors.New("unsupported protocol version")

	// ErrFrameTooLarge is returned for frames whose length prefix exceeds
	// MaxFrameLength.
	ErrFrameTooLarge = errors.New("frame too large")
)
