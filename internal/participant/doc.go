// Package participant runs one chat member: it keeps the relay connection,
// re-runs the key agreement whenever the relay asks, and encrypts and
// decrypts chat lines with the latest key.
//
// # States
//
//	Unkeyed -> AgreementInProgress -> Keyed
//
// KEYEXCHANGE from the relay cancels any agreement in flight and starts a
// new one. Sending is only allowed in Keyed. Lines that arrive while a new
// agreement runs are still decrypted with the previous key.
package participant
