package crypto

import (
	"encoding/binary"
	"encoding/hex"

	"golang.org/x/crypto/blake2b"

	"matrixchat/internal/domain"
)

// KeyFingerprint returns a short hex fingerprint of a key matrix.
//
// It hashes the nine cells with BLAKE2b-256 and truncates to 10 bytes
// (20 hex chars), so participants can compare keys out of band.
func KeyFingerprint(k domain.KeyMatrix) domain.Fingerprint {
	var buf [domain.CellCount * 8]byte
	for i := 0; i < domain.CellCount; i++ {
		r, c := domain.Cell(i)
		binary.BigEndian.PutUint64(buf[i*8:], uint64(k[r][c]))
	}
	sum := blake2b.Sum256(buf[:])
	return domain.Fingerprint(hex.EncodeToString(sum[:10]))
}
