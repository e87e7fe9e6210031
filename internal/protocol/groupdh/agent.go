package groupdh

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"matrixchat/internal/crypto"
	"matrixchat/internal/domain"
)

// Private exponents are drawn from [ExponentMin, ExponentMax).
const (
	ExponentMin int64 = 10
	ExponentMax int64 = 1010
)

var (
	// ErrFinalized is returned when an agent is used after Finalize.
	ErrFinalized = errors.New("exponent agent already finalized")
	// ErrNoValue is returned by Finalize before any exponentiation.
	ErrNoValue = errors.New("exponent agent has no value")
	// ErrBadValue is returned for running values outside [0, modulus).
	ErrBadValue = errors.New("running value out of range")
)

// Agent holds one participant's private exponent for one matrix cell. The
// exponent is never exposed; it is wiped by Finalize.
type Agent struct {
	mu        sync.Mutex
	exponent  int64
	last      domain.RunningValue
	hasValue  bool
	finalized bool
}

// NewAgent returns an Agent with a fresh random exponent.
func NewAgent() (*Agent, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(ExponentMax-ExponentMin))
	if err != nil {
		return nil, fmt.Errorf("draw exponent: %w", err)
	}
	return &Agent{exponent: ExponentMin + n.Int64()}, nil
}

// NewAgentWithExponent returns an Agent with a fixed exponent.
func NewAgentWithExponent(exponent int64) *Agent {
	return &Agent{exponent: exponent}
}

// Exponentiate raises in.Value to the private exponent mod in.Modulus.
func (a *Agent) Exponentiate(in domain.RunningValue) (domain.RunningValue, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.finalized {
		return domain.RunningValue{}, ErrFinalized
	}
	if in.Value < 0 || in.Value >= in.Modulus {
		return domain.RunningValue{}, fmt.Errorf("%w: %d mod %d", ErrBadValue, in.Value, in.Modulus)
	}
	v, err := crypto.ModPow(in.Value, a.exponent, in.Modulus)
	if err != nil {
		return domain.RunningValue{}, err
	}
	a.last = domain.RunningValue{Value: v, Modulus: in.Modulus}
	a.hasValue = true
	return a.last, nil
}

// Finalize reduces the last exponentiated value mod 97 and wipes the
// exponent. The agent cannot be used afterwards.
func (a *Agent) Finalize() (int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.finalized {
		return 0, ErrFinalized
	}
	if !a.hasValue {
		return 0, ErrNoValue
	}
	a.finalized = true
	crypto.WipeInt(&a.exponent)
	scalar := a.last.Value % domain.KeyModulus
	a.last = domain.RunningValue{}
	return scalar, nil
}
