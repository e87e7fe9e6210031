package hill

import (
	"errors"
	"fmt"
)

const (
	// BlockSize is the number of characters per cipher block.
	BlockSize = 3

	// Offset maps the space character to zero.
	Offset = 32
)

// ErrOutOfAlphabet is returned for characters the cipher cannot encode.
var ErrOutOfAlphabet = errors.New("character outside cipher alphabet")

// Block is one column vector of offset-encoded characters.
type Block [BlockSize]int64

// Column returns b as a BlockSize x 1 matrix.
func (b Block) Column() Matrix {
	m := NewMatrix(BlockSize, 1)
	for i, v := range b {
		m[i][0] = v
	}
	return m
}

// TextToBlocks splits s into blocks of BlockSize, right-padding the last one
// with zeros. Every rune must map into [0, m).
func TextToBlocks(s string, m int64) ([]Block, error) {
	runes := []rune(s)
	out := make([]Block, (len(runes)+BlockSize-1)/BlockSize)
	for i, r := range runes {
		v := int64(r) - Offset
		if v < 0 || v >= m {
			return nil, fmt.Errorf("%w: %q at %d", ErrOutOfAlphabet, r, i)
		}
		out[i/BlockSize][i%BlockSize] = v
	}
	return out, nil
}

// BlocksToText maps every value v to the rune (v mod m) + Offset.
func BlocksToText(blocks []Block, m int64) string {
	out := make([]rune, 0, len(blocks)*BlockSize)
	for _, b := range blocks {
		for _, v := range b {
			v %= m
			if v < 0 {
				v += m
			}
			out = append(out, rune(v+Offset))
		}
	}
	return string(out)
}
