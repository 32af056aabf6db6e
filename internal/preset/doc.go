// Package preset manages reusable export-parameter presets: creation,
// rename-safe updates, pagination for the UI, and interchange import/export
// as a portable JSON document.
package preset
