// Package knxip implements the KNXnet/IP frame codec: the fixed 6-byte
// header, HPAI/DIB/SRP structures, and the service-type bodies used for
// discovery, tunnelling, routing, and (as an undecrypted envelope only)
// KNX/IP Secure sessions.
package knxip
