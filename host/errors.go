package host

import "errors"

var (
	// ErrNoSource indicates an open request without a script or path.
	ErrNoSource = errors.New("no source specified")

	// ErrUnknownHandle indicates a handle that is not registered, or no longer is.
	ErrUnknownHandle = errors.New("unknown session handle")

	// ErrUnsupportedEncoding indicates a text encoding name that cannot be decoded.
	ErrUnsupportedEncoding = errors.New("unsupported text encoding")

	// ErrHostClosed indicates a request after Shutdown.
	ErrHostClosed = errors.New("host is shut down")
)
