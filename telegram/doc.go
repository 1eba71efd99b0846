// Package telegram models the unit of communication on the KNX bus —
// a source address, a destination, a payload kind and data — and the
// bounded inbound/outbound queues that carry telegrams between the
// transport layer and application subscribers.
package telegram
