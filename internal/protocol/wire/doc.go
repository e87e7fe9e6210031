// Package wire implements the line-oriented framing shared by the relay and
// its participants.
//
// Every message is one or more newline-terminated lines. A value pair is two
// base-10 integer lines (value, then modulus) and is followed on the
// relay-to-participant direction by CONTINUE or KEYDONE. The first line of
// each connection names its role: JOIN for a chat connection, EXCHANGE for
// a per-cell key agreement socket.
//
// # Notes
//
// Control tokens travel on the same line stream as ciphertext. Ciphertext
// lengths are multiples of three runes, so only three- and six-rune tokens
// (END, CLOSED) can collide with an enciphered line.
package wire
