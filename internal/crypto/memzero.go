package crypto

import (
	"runtime"

	"matrixchat/internal/domain"
)

// WipeMatrix zeroes a key matrix in place. This is best-effort and aims to
// reduce the chance of the compiler eliding the write.
//
//go:noinline
func WipeMatrix(k *domain.KeyMatrix) {
	if k == nil {
		return
	}
	for i := range k {
		for j := range k[i] {
			k[i][j] = 0
		}
	}
	runtime.KeepAlive(k)
}

// WipeInt zeroes a single secret integer in place.
//
//go:noinline
func WipeInt(v *int64) {
	if v == nil {
		return
	}
	*v = 0
	runtime.KeepAlive(v)
}
