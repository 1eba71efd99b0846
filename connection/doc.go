// Package connection tracks the library's overall connection state —
// disconnected, connecting or connected — independent of which
// transport backs it, and owns a registry of named background tasks
// that restart when the connection comes back up.
package connection
