package keyagreement

import (
	"errors"
	"fmt"
	"sync"

	"matrixchat/internal/domain"
	"matrixchat/internal/protocol/hill"
)

var (
	// ErrIncomplete is returned when a cell was never filled.
	ErrIncomplete = errors.New("key matrix incomplete")
	// ErrDegenerateKey is returned for a key matrix with no inverse mod 97.
	ErrDegenerateKey = errors.New("key matrix is not invertible mod 97")
)

// Assembler collects the nine cell scalars into a key matrix. Cells may be
// set from different goroutines.
type Assembler struct {
	mu     sync.Mutex
	matrix domain.KeyMatrix
	filled [domain.CellCount]bool
}

// Set records the scalar of cell.
func (a *Assembler) Set(cell int, scalar int64) error {
	if cell < 0 || cell >= domain.CellCount {
		return fmt.Errorf("cell %d out of range", cell)
	}
	scalar %= domain.KeyModulus
	if scalar < 0 {
		scalar += domain.KeyModulus
	}
	row, col := domain.Cell(cell)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.matrix[row][col] = scalar
	a.filled[cell] = true
	return nil
}

// Matrix returns the assembled key. It fails with ErrIncomplete if a cell
// is missing and with ErrDegenerateKey if the matrix cannot be inverted.
func (a *Assembler) Matrix() (domain.KeyMatrix, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for i, ok := range a.filled {
		if !ok {
			return domain.KeyMatrix{}, fmt.Errorf("%w: cell %d", ErrIncomplete, i)
		}
	}
	if _, err := hill.NewCipher(a.matrix); err != nil {
		if errors.Is(err, hill.ErrSingular) {
			return domain.KeyMatrix{}, ErrDegenerateKey
		}
		return domain.KeyMatrix{}, err
	}
	return a.matrix, nil
}
