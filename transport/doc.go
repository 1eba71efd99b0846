// Package transport implements the byte-pipe abstractions KNXnet/IP
// runs over: unicast/multicast UDP, length-prefixed TCP, and
// USB-HID with KNX USB Transfer Protocol framing. All three share the
// Transport contract: deliver received byte-buffers to a callback,
// accept buffers for sending, expose a local bind endpoint, and a
// start/stop lifecycle.
package transport
