// Package cemi implements the Common External Message Interface frame
// format: parsing and serialization of L_Data.req/con/ind frames carried
// inside KNXnet/IP tunnelling and routing bodies.
package cemi
