// Package crypto holds the number theory behind the group key agreement.
//
// Contents
//
//   - Primality by trial division and prime enumeration (IsPrime,
//     PrimesInRange)
//   - Coprimality, Euler's totient and multiplicative order by direct
//     iteration (GCD, Coprime, Totient, MultiplicativeOrder)
//   - Primitive-root search (PrimitiveRoots, IsPrimitiveRoot)
//   - Modular exponentiation by square-and-multiply (ModPow)
//   - Per-cell public parameter generation (Generator)
//   - Short key-matrix fingerprints for display (KeyFingerprint)
//   - Best-effort wiping of secrets (WipeMatrix, WipeInt)
//
// # Notes
//
// Totient and order are computed by counting, not by factoring. Primitive
// root search is therefore quadratic in the modulus, which keeps moduli in
// the low thousands. Generator samples moduli from [500, 1500).
package crypto
