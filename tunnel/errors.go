package tunnel

import "errors"

var (
	// ErrNotConnected is returned by Send when the tunnel has no active
	// connection to send over.
	ErrNotConnected = errors.New("tunnel: not connected")

	// ErrResponseTimeout is returned by the request/response runner
	// when no matching response arrives within the retry budget.
	ErrResponseTimeout = errors.New("tunnel: response timeout")

	// ErrAlreadyStarted is returned by Start on a tunnel that has
	// already been started.
	ErrAlreadyStarted = errors.New("tunnel: already started")
)
