package preset

import (
	"fmt"

	"stemline/internal/services"
)

var (
	// ErrDuplicateName marks a create or rename that collides with an
	// existing preset name.
	ErrDuplicateName = fmt.Errorf("%w: duplicate preset name", services.ErrValidation)

	// ErrNotFound marks operations on a preset ID that does not exist.
	ErrNotFound = fmt.Errorf("%w: preset", services.ErrNotFound)
)
