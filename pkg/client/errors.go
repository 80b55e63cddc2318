package client

import "errors"

var (
	// ErrUnexpectedDisconnect is returned when the stream ends or breaks
	// without a kick.
	ErrUnexpectedDisconnect = errors.New("unexpected disconnect")

	// ErrEncryptionRequired is returned when the server asks for encryption,
	// which only online-mode servers do.
	ErrEncryptionRequired = errors.New("server requires encryption")

	// ErrNotConnected is returned by commands issued before Play or after the
	// session ended.
	ErrNotConnected = errors.New("not connected")
)
