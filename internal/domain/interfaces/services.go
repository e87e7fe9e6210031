package interfaces

import (
	"context"

	domaintypes "matrixchat/internal/domain/types"
)

// ParameterSource produces fresh public parameters for every matrix cell.
type ParameterSource interface {
	GenerateCells(ctx context.Context) ([domaintypes.CellCount]domaintypes.PublicParameters, error)
}

// KeyAgreementService runs the participant side of one full agreement and
// returns the assembled key matrix.
type KeyAgreementService interface {
	Agree(ctx context.Context, name domaintypes.Username) (domaintypes.KeyMatrix, error)
}

// MessageService encrypts outgoing and decrypts incoming chat lines with the
// current key.
type MessageService interface {
	Rekey(key domaintypes.KeyMatrix) (domaintypes.Fingerprint, error)
	Forget()
	Seal(from domaintypes.Username, text string) (string, error)
	SealRaw(text string) (string, error)
	Open(line string) (string, error)
}
