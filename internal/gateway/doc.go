// Package gateway is the client for the external session service that
// controls the live workstation session. Everything the rest of the system
// knows about the session (connection state, tracks, export tasks) comes
// through here.
package gateway
