package domain

import (
	interfaces "matrixchat/internal/domain/interfaces"
	types "matrixchat/internal/domain/types"
)

// Type aliases expose domain types from the types subpackage for compact imports.
type (
	Username         = types.Username
	Fingerprint      = types.Fingerprint
	RunID            = types.RunID
	PublicParameters = types.PublicParameters
	RunningValue     = types.RunningValue
	KeyMatrix        = types.KeyMatrix
	AgreementState   = types.AgreementState
	Profile          = types.Profile
)

// Interface aliases expose domain interfaces from the interfaces subpackage.
type (
	ProfileStore        = interfaces.ProfileStore
	ParameterSource     = interfaces.ParameterSource
	KeyAgreementService = interfaces.KeyAgreementService
	MessageService      = interfaces.MessageService
)

const (
	KeyModulus = types.KeyModulus
	KeyDim     = types.KeyDim
	CellCount  = types.CellCount

	StateUnkeyed             = types.StateUnkeyed
	StateAgreementInProgress = types.StateAgreementInProgress
	StateKeyed               = types.StateKeyed
	StateClosed              = types.StateClosed
)

// Cell returns the matrix coordinates of cell index i.
func Cell(i int) (row, col int) { return types.Cell(i) }
