package gateway

import "errors"

// ErrNoInterfaces is returned when a scan is requested but no usable
// IPv4 interface is available to send discovery requests from.
var ErrNoInterfaces = errors.New("gateway: no usable IPv4 interface")
