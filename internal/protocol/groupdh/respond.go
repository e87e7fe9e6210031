package groupdh

import (
	"context"
	"fmt"
	"io"

	"matrixchat/internal/protocol/wire"
)

// Respond runs the participant side of one cell run over conn: every value
// received is exponentiated; on CONTINUE the result is sent back, on
// KEYDONE the agent is finalized and its scalar returned.
//
// conn is closed when ctx is cancelled so that blocked reads return.
func Respond(ctx context.Context, conn io.ReadWriteCloser, agent *Agent) (int64, error) {
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	r := wire.NewReader(conn)
	w := wire.NewWriter(conn)
	for {
		in, err := r.ReadPair()
		if err != nil {
			return 0, respondErr(ctx, "read value", err)
		}
		out, err := agent.Exponentiate(in)
		if err != nil {
			return 0, err
		}
		tok, err := r.ReadToken(wire.Continue, wire.KeyDone)
		if err != nil {
			return 0, respondErr(ctx, "read token", err)
		}
		if tok == wire.KeyDone {
			return agent.Finalize()
		}
		if err := w.WritePair(out); err != nil {
			return 0, respondErr(ctx, "write value", err)
		}
	}
}

func respondErr(ctx context.Context, op string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%s: %w", op, ctxErr)
	}
	return fmt.Errorf("%w: %s: %w", ErrSessionIO, op, err)
}
