// Package tunnel drives the KNXnet/IP tunnel state machine: connect,
// heartbeat and reconnect handshakes, sequence-counter bookkeeping for
// outbound/inbound TunnellingRequest frames, and acknowledgement
// tracking (UDP only), over UDP, TCP and USB-HID transports.
package tunnel
