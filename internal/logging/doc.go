// Package logging centralizes slog construction for the CLI and engines.
//
// It provides a console handler tuned for interactive use, a JSON handler for
// machine-readable logs, attribute helpers shared across components, and the
// component-scoped logger constructor used to tag every record with its
// originating subsystem.
package logging
