package gateway

import "strings"

// ScanFilter narrows a Scan's results. The transport-method fields are
// OR'd together — a gateway matches if it supports any enabled method —
// and the result is AND'd with NameMatch. A filter
// with every method left false matches every gateway regardless of the
// methods it supports.
type ScanFilter struct {
	NameMatch string

	Tunnelling       bool
	TunnellingTCP    bool
	Routing          bool
	SecureTunnelling bool
	SecureRouting    bool
}

// anyMethodSet reports whether the filter restricts by transport
// method at all.
func (f ScanFilter) anyMethodSet() bool {
	return f.Tunnelling || f.TunnellingTCP || f.Routing || f.SecureTunnelling || f.SecureRouting
}

// Matches reports whether g satisfies the filter.
func (f ScanFilter) Matches(g Gateway) bool {
	if f.NameMatch != "" && !strings.Contains(strings.ToLower(g.FriendlyName), strings.ToLower(f.NameMatch)) {
		return false
	}
	if !f.anyMethodSet() {
		return true
	}
	return (f.Tunnelling && g.SupportsTunnelling) ||
		(f.TunnellingTCP && g.SupportsTunnellingTCP) ||
		(f.Routing && g.SupportsRouting) ||
		(f.SecureTunnelling && g.SupportsSecureTunnelling) ||
		(f.SecureRouting && g.SupportsSecureRouting)
}
