package decoder

import (
	"github.com/pkg/errors"

	"github.com/flowshed/nf9/pkg/store"
)

// Error kinds surfaced at the library boundary. Wrapped errors carry
// context; compare with errors.Is or errors.Cause.
var (
	// ErrMalformed is returned when wire content violates the protocol or
	// the packet is truncated.
	ErrMalformed = errors.New("malformed packet")

	// ErrInvalidArgument is returned for out-of-range indices and bad
	// control values.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound is returned when a requested field, option or sampling
	// rate does not exist in the current state.
	ErrNotFound = store.ErrNotFound

	// ErrOutOfMemory is returned when the memory ceiling was hit and
	// expiry freed nothing.
	ErrOutOfMemory = store.ErrOutOfMemory

	// ErrOutdated is returned when a template was located but had aged
	// past its expiry.
	ErrOutdated = store.ErrOutdated
)
