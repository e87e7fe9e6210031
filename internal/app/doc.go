// Package app wires application dependencies for the CLI and the relay.
//
// It loads Config from YAML over built-in defaults, builds the logger, and
// exposes constructors for the relay server and for participants through
// the Wire struct.
package app
