package hill

import (
	"fmt"

	"matrixchat/internal/domain"
)

// Cipher holds a key matrix together with its inverse mod 97. It is
// immutable once built, so one value can be shared between goroutines.
type Cipher struct {
	key     Matrix
	inverse Matrix
}

// FromKeyMatrix converts a domain key into a Matrix.
func FromKeyMatrix(k domain.KeyMatrix) Matrix {
	m := NewMatrix(domain.KeyDim, domain.KeyDim)
	for i := range k {
		copy(m[i], k[i][:])
	}
	return m
}

// NewCipher derives the inverse of k. It fails with ErrSingular when k is
// not invertible mod 97.
func NewCipher(k domain.KeyMatrix) (*Cipher, error) {
	key := ExtendedMod(FromKeyMatrix(k), domain.KeyModulus)
	inv, err := ModularInverse(key, domain.KeyModulus)
	if err != nil {
		return nil, err
	}
	return &Cipher{key: key, inverse: inv}, nil
}

// Encrypt enciphers s block by block with the key matrix. A final partial
// block is padded, so the result is always a multiple of BlockSize runes.
func (c *Cipher) Encrypt(s string) (string, error) {
	return transform(c.key, s)
}

// Decrypt reverses Encrypt. Padding decodes to trailing spaces, which are
// kept.
func (c *Cipher) Decrypt(s string) (string, error) {
	return transform(c.inverse, s)
}

func transform(k Matrix, s string) (string, error) {
	blocks, err := TextToBlocks(s, domain.KeyModulus)
	if err != nil {
		return "", err
	}
	out := make([]Block, len(blocks))
	for i, b := range blocks {
		prod, err := Multiply(k, b.Column())
		if err != nil {
			return "", fmt.Errorf("block %d: %w", i, err)
		}
		prod = ExtendedMod(prod, domain.KeyModulus)
		for j := range out[i] {
			out[i][j] = prod[j][0]
		}
	}
	return BlocksToText(out, domain.KeyModulus), nil
}
