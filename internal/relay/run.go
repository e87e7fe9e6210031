package relay

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gofrs/uuid"
	"go.uber.org/zap"

	"matrixchat/internal/domain"
	"matrixchat/internal/protocol/groupdh"
)

// ErrRunClosed is returned when waiting on a run that was torn down.
var ErrRunClosed = errors.New("agreement run closed")

// run collects the exchange sockets of one agreement attempt: one per
// expected participant per matrix cell.
type run struct {
	id    domain.RunID
	names []domain.Username

	mu       sync.Mutex
	expect   map[domain.Username]struct{}
	sessions [domain.CellCount]map[domain.Username]*ExchangeSession
	count    int
	closed   bool
	ready    chan struct{}
	done     chan struct{}

	lost     chan struct{}
	lostOnce sync.Once
	lostBy   *ExchangeSession
}

func newRun(names []domain.Username) *run {
	r := &run{
		id:     domain.RunID(uuid.Must(uuid.NewV4()).String()),
		names:  names,
		expect: make(map[domain.Username]struct{}, len(names)),
		ready:  make(chan struct{}),
		done:   make(chan struct{}),
		lost:   make(chan struct{}),
	}
	for _, n := range names {
		r.expect[n] = struct{}{}
	}
	for i := range r.sessions {
		r.sessions[i] = make(map[domain.Username]*ExchangeSession, len(names))
	}
	return r
}

func (r *run) want() int { return len(r.names) * domain.CellCount }

// add files s under its cell. A second socket for the same participant and
// cell replaces the first. It reports false when s does not belong here.
func (r *run) add(s *ExchangeSession) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return false
	}
	if _, ok := r.expect[s.Name()]; !ok {
		return false
	}
	cell := r.sessions[s.Cell()]
	if old, dup := cell[s.Name()]; dup {
		old.Close()
	} else {
		r.count++
	}
	cell[s.Name()] = s
	if r.count == r.want() {
		close(r.ready)
	}
	go r.watch(s)
	return true
}

// watch marks the run lost when s hangs up while it is still the socket
// filed for its participant and cell.
func (r *run) watch(s *ExchangeSession) {
	select {
	case <-s.Done():
	case <-r.done:
		return
	}
	r.mu.Lock()
	current := !r.closed && r.sessions[s.Cell()][s.Name()] == s
	r.mu.Unlock()
	if current {
		r.lostOnce.Do(func() {
			r.lostBy = s
			close(r.lost)
		})
	}
}

// wait blocks until every expected socket has arrived. It fails early when
// a socket already collected hangs up.
func (r *run) wait(ctx context.Context) error {
	select {
	case <-r.ready:
		return nil
	case <-r.lost:
		return fmt.Errorf("%w: %s dropped cell %d before the run started",
			groupdh.ErrSessionIO, r.lostBy.Name(), r.lostBy.Cell())
	case <-r.done:
		return ErrRunClosed
	case <-ctx.Done():
		r.mu.Lock()
		got := r.count
		r.mu.Unlock()
		return fmt.Errorf("collected %d of %d exchange sockets: %w", got, r.want(), ctx.Err())
	}
}

// cellSessions returns the sessions of cell in join order.
func (r *run) cellSessions(cell int) []groupdh.Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]groupdh.Session, 0, len(r.names))
	for _, n := range r.names {
		if s, ok := r.sessions[cell][n]; ok {
			out = append(out, s)
		}
	}
	return out
}

// execute runs all cells concurrently and returns the first failure.
func (r *run) execute(ctx context.Context, params [domain.CellCount]domain.PublicParameters, log *zap.Logger) error {
	var (
		wg   sync.WaitGroup
		errs [domain.CellCount]error
	)
	for cell := 0; cell < domain.CellCount; cell++ {
		sessions := r.cellSessions(cell)
		if len(sessions) != len(r.names) {
			return fmt.Errorf("cell %d: have %d of %d sessions", cell, len(sessions), len(r.names))
		}
		tree := groupdh.Build(sessions)
		if cell == 0 {
			log.Debug("exchange tree built",
				zap.Int("depth", tree.Depth()), zap.Any("leaves", tree.Leaves()))
		}
		wg.Add(1)
		go func(cell int, tree *groupdh.Tree) {
			defer wg.Done()
			if err := tree.Run(ctx, params[cell]); err != nil {
				errs[cell] = fmt.Errorf("cell %d: %w", cell, err)
			}
		}(cell, tree)
	}
	wg.Wait()
	return errors.Join(errs[:]...)
}

// close tears the run down. Sessions that already finished are left to
// their grace period unless force is set.
func (r *run) close(force bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}
	r.closed = true
	close(r.done)
	for _, cell := range r.sessions {
		for _, s := range cell {
			if force || !s.Released() {
				s.Close()
			}
		}
	}
}
