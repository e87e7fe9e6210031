package types

import "fmt"

const (
	// KeyModulus is the modulus every key matrix entry is reduced by.
	KeyModulus int64 = 97

	// KeyDim is the side length of the key matrix.
	KeyDim = 3

	// CellCount is the number of independent agreement runs per key.
	CellCount = KeyDim * KeyDim
)

// PublicParameters is the (base, modulus) pair of one matrix cell.
type PublicParameters struct {
	Base    int64
	Modulus int64
}

// RunningValue is the quantity threaded through the tree during a run.
type RunningValue struct {
	Value   int64
	Modulus int64
}

// Start returns the running value a run is entered with.
func (p PublicParameters) Start() RunningValue {
	return RunningValue{Value: p.Base, Modulus: p.Modulus}
}

// KeyMatrix is the shared 3x3 cipher key, entries reduced mod KeyModulus.
type KeyMatrix [KeyDim][KeyDim]int64

// Cell returns the matrix coordinates of cell index i.
func Cell(i int) (row, col int) { return i / KeyDim, i % KeyDim }

// AgreementState tracks where a participant is in the key lifecycle.
type AgreementState int32

const (
	StateUnkeyed AgreementState = iota
	StateAgreementInProgress
	StateKeyed
	StateClosed
)

func (s AgreementState) String() string {
	switch s {
	case StateUnkeyed:
		return "unkeyed"
	case StateAgreementInProgress:
		return "agreement-in-progress"
	case StateKeyed:
		return "keyed"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}
