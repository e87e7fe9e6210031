// Package groupdh implements the tree-distributed group Diffie-Hellman run
// that produces one cell of the shared key matrix.
//
// # Overview
//
// The relay holds one Session per participant. Build splits the sessions in
// half recursively (first half floor(n/2)) into an arena of index ranges.
// Run then enters finish at the root with the cell's public base:
//
//   - chain(v, leaf) sends v with CONTINUE and returns the participant's
//     exponentiated reply; chain(v, internal) threads v through the left
//     subtree, then the right.
//   - finish(v, leaf) sends v with KEYDONE. finish(v, internal) chains v
//     through each child independently, then finishes each child with the
//     other child's result.
//
// A participant always exponentiates what it receives, including the
// KEYDONE value, so every participant ends with base^(x1*x2*...*xn) mod p.
// The relay only ever sees values missing at least one exponent.
//
// Agent is the participant's private exponent. Respond drives an Agent over
// a connection using the wire framing.
//
// # Notes
//
// Within a run the order is strictly left before right and is part of the
// protocol; runs for different cells are independent.
package groupdh
