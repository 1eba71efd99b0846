package config

import "errors"

var (
	// ErrValidation is wrapped by Config.Validate for every accumulated
	// field error.
	ErrValidation = errors.New("invalid configuration")
)
