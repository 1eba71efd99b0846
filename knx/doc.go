// Package knx is the lifecycle orchestrator: given a config.Config it
// picks a transport (declared tunnel endpoint, multicast routing, or
// AUTOMATIC discovery with TCP-tunnel > UDP-tunnel > routing
// precedence), brings it up, and wires the telegram queue, state
// updater and connection-state observable around it. It is the single
// public facade this module's packages are assembled behind; the
// lower-level packages (tunnel, router, telegram, ...) remain usable
// directly by a caller that wants to build its own wiring.
package knx
