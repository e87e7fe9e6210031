// Package message encrypts outgoing and decrypts incoming chat lines.
//
// It holds the participant's current key matrix together with its inverse
// and replaces both atomically when a new key agreement completes.
package message
