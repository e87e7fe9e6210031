// Package store provides file-based persistence for participant settings.
//
// ProfileFileStore remembers, per relay address, the name last used there,
// so the CLI can rejoin without asking again. Data is serialised as JSON
// under the user's configured home directory and written atomically via a
// temp file and rename. All methods are concurrency-safe via internal
// locking.
//
// Keys are never written to disk.
package store
