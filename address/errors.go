package address

import "errors"

// Domain errors for address parsing.
var (
	// ErrInvalidIndividualAddress is returned when an individual address
	// string cannot be parsed.
	ErrInvalidIndividualAddress = errors.New("address: invalid individual address")

	// ErrInvalidGroupAddress is returned when a group address string or
	// raw value cannot be parsed.
	ErrInvalidGroupAddress = errors.New("address: invalid group address")

	// ErrInvalidFilter is returned when an address filter pattern cannot
	// be compiled.
	ErrInvalidFilter = errors.New("address: invalid filter pattern")
)
