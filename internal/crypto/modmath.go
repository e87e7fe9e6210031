package crypto

import (
	"errors"
	"fmt"
)

// ErrModulus is returned when a modulus is outside the supported range.
var ErrModulus = errors.New("modulus out of range")

// maxModulus keeps every intermediate product of ModPow inside an int64.
const maxModulus int64 = 1 << 31

// IsPrime reports whether n is prime, by trial division up to n/2.
func IsPrime(n int64) bool {
	if n < 2 {
		return false
	}
	for d := int64(2); d <= n/2; d++ {
		if n%d == 0 {
			return false
		}
	}
	return true
}

// PrimesInRange returns every prime p with lo <= p < hi, in ascending order.
func PrimesInRange(lo, hi int64) []int64 {
	var out []int64
	for i := lo; i < hi; i++ {
		if IsPrime(i) {
			out = append(out, i)
		}
	}
	return out
}

// GCD returns the greatest common divisor of |a| and |b|.
func GCD(a, b int64) int64 {
	if a < 0 {
		a = -a
	}
	if b < 0 {
		b = -b
	}
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// Coprime reports whether a and b share no factor greater than one.
func Coprime(a, b int64) bool { return GCD(a, b) == 1 }

// Totient returns Euler's totient of n, counting coprime residues directly.
func Totient(n int64) int64 {
	if n < 1 {
		return 0
	}
	if n == 1 {
		return 1
	}
	var count int64
	for k := int64(1); k < n; k++ {
		if Coprime(k, n) {
			count++
		}
	}
	return count
}

// MultiplicativeOrder returns the least k >= 1 with r^k = 1 (mod n). It
// returns 0 when no such k exists, i.e. when r and n are not coprime.
func MultiplicativeOrder(r, n int64) int64 {
	if n < 2 || !Coprime(r, n) {
		return 0
	}
	r %= n
	if r < 0 {
		r += n
	}
	acc := r
	for k := int64(1); k <= n; k++ {
		if acc == 1 {
			return k
		}
		acc = acc * r % n
	}
	return 0
}

// IsPrimitiveRoot reports whether r generates the multiplicative group mod n.
func IsPrimitiveRoot(r, n int64) bool {
	if r < 2 || r >= n {
		return false
	}
	return MultiplicativeOrder(r, n) == Totient(n)
}

// PrimitiveRoots returns every primitive root r of n with 2 <= r < n.
func PrimitiveRoots(n int64) []int64 {
	phi := Totient(n)
	var out []int64
	for r := int64(2); r < n; r++ {
		if MultiplicativeOrder(r, n) == phi {
			out = append(out, r)
		}
	}
	return out
}

// ModPow computes base^exp mod mod by square-and-multiply.
func ModPow(base, exp, mod int64) (int64, error) {
	if mod < 2 || mod >= maxModulus {
		return 0, fmt.Errorf("%w: %d", ErrModulus, mod)
	}
	if exp < 0 {
		return 0, fmt.Errorf("negative exponent %d", exp)
	}
	base %= mod
	if base < 0 {
		base += mod
	}
	result := int64(1)
	for exp > 0 {
		if exp&1 == 1 {
			result = result * base % mod
		}
		base = base * base % mod
		exp >>= 1
	}
	return result, nil
}
