// Package export drives the export task lifecycle: client-side validation,
// task submission to the session service, the status polling loop, and
// cooperative cancellation. The session service is authoritative for task
// state; the orchestrator mirrors it locally.
package export
