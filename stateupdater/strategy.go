package stateupdater

import "time"

// Strategy selects how a tracked value's state group address is kept
// fresh.
type Strategy int

const (
	// Off never issues a read for this value.
	Off Strategy = iota
	// Init issues a single read shortly after Track registers the value.
	Init
	// Every issues a read on a fixed interval, regardless of inbound
	// traffic.
	Every
	// Expire issues a read only after Interval has elapsed without an
	// inbound update for this value.
	Expire
)

func (s Strategy) String() string {
	switch s {
	case Off:
		return "off"
	case Init:
		return "init"
	case Every:
		return "every"
	case Expire:
		return "expire"
	default:
		return "unknown"
	}
}

// maxStartupJitter bounds the random delay applied before a value's
// first scheduled read, so a large installation's values don't all
// read back at once on startup.
const maxStartupJitter = 2 * time.Second
