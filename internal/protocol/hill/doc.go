// Package hill implements a Hill-family block cipher over integers mod 97.
//
// Plaintext runes are offset by 32 so that printable ASCII maps to [0, 94].
// Each group of three values is a column vector b and enciphers to K*b mod
// 97. Decryption multiplies by the modular inverse of K, computed exactly as
// adjugate(K) scaled by the inverse of det(K) mod 97.
//
// # Notes
//
// Ciphertext values range over [0, 96], so ciphertext may contain the runes
// U+007F and U+0080. Callers must carry ciphertext as UTF-8 strings, not
// bytes. A message whose length is not a multiple of three decrypts with
// trailing spaces from the zero padding; they are not trimmed.
package hill
