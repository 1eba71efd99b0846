package router

import "errors"

// ErrAlreadyStarted is returned by Start on a router that has already
// been started.
var ErrAlreadyStarted = errors.New("router: already started")
