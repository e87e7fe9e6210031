// Package commands defines the matrixchat CLI.
//
// Commands
//
//   - join       Register a name on a relay and chat on stdin/stdout
//   - profile    Print the stored relay and name
//
// # Implementation
//
// The root command loads the YAML config, applies flag overrides and builds
// the app context (logger, profile store, dialer) before any subcommand
// runs. Lines typed before the first key agreement completes are refused,
// not queued.
package commands
