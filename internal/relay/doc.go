// Package relay implements the chat relay and the participant's connection
// to it.
//
// # Overview
//
// Server accepts two kinds of TCP connection, told apart by their first
// line. A JOIN connection negotiates a unique name (NO until accepted, then
// OK) and afterwards carries chat: every line is forwarded unchanged to the
// other participants, END leaves. An EXCHANGE connection names a participant
// and a matrix cell and is wrapped as an ExchangeSession for the agreement
// run in progress.
//
// Every join triggers a run: the relay generates fresh parameters for the
// nine cells, tells the existing participants KEYEXCHANGE, waits for one
// exchange socket per participant per cell and drives the nine trees
// concurrently. Failed runs are retried from scratch with KEYEXCHANGE to
// everyone. Joins are serialized; chat keeps flowing during a run.
//
// Client and DialExchange are the participant's side of those connections.
//
// # Notes
//
// The relay only forwards ciphertext and intermediate agreement values. It
// never holds a key matrix.
package relay
