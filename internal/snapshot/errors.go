package snapshot

import (
	"fmt"

	"stemline/internal/services"
)

var (
	// ErrDuplicateName is returned when a create or rename collides with an
	// existing snapshot name (case-insensitive).
	ErrDuplicateName = fmt.Errorf("%w: duplicate snapshot name", services.ErrValidation)

	// ErrNotFound is returned when an update targets an unknown snapshot id.
	ErrNotFound = fmt.Errorf("%w: snapshot", services.ErrNotFound)
)
