// Package router implements KNXnet/IP multicast routing: sending and
// receiving RoutingIndication frames over the routing multicast group,
// honouring RoutingBusy backoff, and counting RoutingLostMessage
// events.
package router
