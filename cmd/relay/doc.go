// Package main runs the matrixchat relay.
//
// The relay accepts TCP connections on one port. A connection's first line
// names its role:
//
//	JOIN
//	    A chat connection. The client offers names until the relay answers
//	    OK; every later line is forwarded to the other registered clients
//	    unchanged, except END (leave) and KEYEXCHANGE (request a new key).
//
//	EXCHANGE <name> <cell>
//	    One of a participant's nine exchange connections for the current
//	    key agreement run, one per key matrix cell.
//
// Behaviour
//
//   - Each successful join starts a new key agreement with every registered
//     participant; other participants are told with KEYEXCHANGE.
//   - The relay only ever sees blinded running values and ciphertext.
//   - SIGINT or SIGTERM sends CLOSED to every participant and exits.
package main
