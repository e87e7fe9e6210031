package keyagreement

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"matrixchat/internal/domain"
	"matrixchat/internal/protocol/groupdh"
	"matrixchat/internal/relay"
)

// Service runs the participant side of a full key agreement: one exchange
// socket and one fresh exponent per matrix cell, all cells concurrently.
type Service struct {
	addr     string
	dialer   relay.Dialer
	log      *zap.Logger
	newAgent func() (*groupdh.Agent, error)
}

// New returns a Service that dials addr.
func New(addr string, dialer relay.Dialer, log *zap.Logger) *Service {
	return &Service{addr: addr, dialer: dialer, log: log, newAgent: groupdh.NewAgent}
}

// WithAgents replaces the exponent source; tests use fixed exponents.
func (s *Service) WithAgents(newAgent func() (*groupdh.Agent, error)) *Service {
	s.newAgent = newAgent
	return s
}

// Agree dials one exchange socket per cell, answers the relay's rounds and
// returns the assembled key. Any cell failure cancels the others.
func (s *Service) Agree(ctx context.Context, name domain.Username) (domain.KeyMatrix, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		asm  Assembler
		wg   sync.WaitGroup
		once sync.Once
		ferr error
	)
	fail := func(err error) {
		once.Do(func() {
			ferr = err
			cancel()
		})
	}

	for cell := 0; cell < domain.CellCount; cell++ {
		wg.Add(1)
		go func(cell int) {
			defer wg.Done()
			scalar, err := s.agreeCell(ctx, name, cell)
			if err != nil {
				fail(fmt.Errorf("cell %d: %w", cell, err))
				return
			}
			if err := asm.Set(cell, scalar); err != nil {
				fail(err)
			}
		}(cell)
	}
	wg.Wait()

	if ferr != nil {
		return domain.KeyMatrix{}, ferr
	}
	return asm.Matrix()
}

func (s *Service) agreeCell(ctx context.Context, name domain.Username, cell int) (int64, error) {
	agent, err := s.newAgent()
	if err != nil {
		return 0, err
	}
	conn, err := relay.DialExchange(ctx, s.dialer, s.addr, name, cell)
	if err != nil {
		return 0, err
	}
	defer conn.Close()

	scalar, err := groupdh.Respond(ctx, conn, agent)
	if err != nil {
		return 0, err
	}
	s.log.Debug("cell agreed", zap.Int("cell", cell))
	return scalar, nil
}

// Compile-time assertion that Service implements domain.KeyAgreementService.
var _ domain.KeyAgreementService = (*Service)(nil)
