package dpt

import "fmt"

// ID identifies a concrete datapoint type in "major.minor" form, e.g.
// "1.001" or "9.001".
type ID string

// Codec converts between an application value and the KNX octet encoding
// of a single datapoint type. Encode/Decode use `any` because the
// registry holds heterogeneous types (bool, float64, string, time.Time,
// RGB, …); concrete callers that know the DPT ahead of time should use
// the typed Encode/Decode helpers next to each codec instead of going
// through the registry.
type Codec interface {
	// ID returns the datapoint type identifier this codec implements.
	ID() ID

	// Unit returns the physical unit of the value, or "" if unitless.
	Unit() string

	// Encode converts an application value to its KNX octet form.
	Encode(value any) ([]byte, error)

	// Decode converts KNX octets to an application value.
	Decode(data []byte) (any, error)
}

var registry = make(map[ID]Codec)

// Register adds a codec to the global registry. It is called from each
// codec file's init function and panics on a duplicate ID, which would
// indicate a programming error rather than a runtime condition.
func Register(c Codec) {
	if _, exists := registry[c.ID()]; exists {
		panic(fmt.Sprintf("dpt: duplicate registration for %s", c.ID()))
	}
	registry[c.ID()] = c
}

// Lookup returns the codec registered for id.
func Lookup(id ID) (Codec, error) {
	c, ok := registry[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDPT, id)
	}
	return c, nil
}

// MustLookup is like Lookup but panics on failure; intended for
// call sites that reference a compile-time-constant DPT identifier.
func MustLookup(id ID) Codec {
	c, err := Lookup(id)
	if err != nil {
		panic(err)
	}
	return c
}

// Registered returns the identifiers of every codec currently
// registered, primarily useful for diagnostics and tests.
func Registered() []ID {
	ids := make([]ID, 0, len(registry))
	for id := range registry {
		ids = append(ids, id)
	}
	return ids
}
