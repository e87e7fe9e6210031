package groupdh

import (
	"context"
	"errors"
	"fmt"

	"matrixchat/internal/domain"
)

var (
	// ErrSessionIO is returned when a session fails during a run.
	ErrSessionIO = errors.New("exchange session failure")
	// ErrNoSessions is returned when a run has nobody to agree with.
	ErrNoSessions = errors.New("no exchange sessions")
)

// Session is the relay's endpoint to one participant for one cell run.
type Session interface {
	// ContinueWith sends v followed by CONTINUE.
	ContinueWith(ctx context.Context, v domain.RunningValue) error
	// FinishWith sends v followed by KEYDONE and releases the session.
	FinishWith(ctx context.Context, v domain.RunningValue) error
	// Receive blocks for the participant's next value pair.
	Receive(ctx context.Context) (domain.RunningValue, error)
}

// Run executes one agreement run over the tree. Every participant ends
// holding params.Base raised to the product of all exponents. The first
// session error aborts the run.
func (t *Tree) Run(ctx context.Context, params domain.PublicParameters) error {
	if len(t.nodes) == 0 {
		return ErrNoSessions
	}
	return t.finish(ctx, params.Start(), 0)
}

// chain threads v through every session under node i, left subtree first,
// and returns the last reply.
func (t *Tree) chain(ctx context.Context, v domain.RunningValue, i int) (domain.RunningValue, error) {
	n := t.nodes[i]
	if n.leaf() {
		s := t.sessions[n.lo]
		if err := s.ContinueWith(ctx, v); err != nil {
			return domain.RunningValue{}, t.fail(n.lo, err)
		}
		out, err := s.Receive(ctx)
		if err != nil {
			return domain.RunningValue{}, t.fail(n.lo, err)
		}
		return out, nil
	}
	mid, err := t.chain(ctx, v, n.left)
	if err != nil {
		return domain.RunningValue{}, err
	}
	return t.chain(ctx, mid, n.right)
}

// finish delivers v as the final answer to node i. Internal nodes chain v
// through each child independently and hand each child the other's result,
// so no subtree ever receives its own aggregate.
func (t *Tree) finish(ctx context.Context, v domain.RunningValue, i int) error {
	n := t.nodes[i]
	if n.leaf() {
		if err := t.sessions[n.lo].FinishWith(ctx, v); err != nil {
			return t.fail(n.lo, err)
		}
		return nil
	}
	l, err := t.chain(ctx, v, n.left)
	if err != nil {
		return err
	}
	r, err := t.chain(ctx, v, n.right)
	if err != nil {
		return err
	}
	if err := t.finish(ctx, r, n.left); err != nil {
		return err
	}
	return t.finish(ctx, l, n.right)
}

func (t *Tree) fail(idx int, err error) error {
	if errors.Is(err, ErrSessionIO) {
		return err
	}
	return fmt.Errorf("%w: session %d: %w", ErrSessionIO, idx, err)
}
