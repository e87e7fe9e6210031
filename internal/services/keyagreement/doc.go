// Package keyagreement runs a participant's half of the group key agreement
// and assembles the nine cell results into a 3x3 key matrix.
//
// A matrix that is not invertible mod 97 is reported as ErrDegenerateKey
// and never handed out.
package keyagreement
