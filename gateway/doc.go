// Package gateway discovers KNXnet/IP gateways on the local IPv4
// network segment by sending SearchRequest and SearchRequestExtended
// frames to the KNX discovery multicast group and collecting the
// responses.
package gateway
