package relay

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"go.uber.org/atomic"
	"go.uber.org/zap"

	"matrixchat/internal/domain"
	"matrixchat/internal/protocol/groupdh"
	"matrixchat/internal/protocol/wire"
)

// ErrReleased is returned when a session is used after FinishWith.
var ErrReleased = errors.New("exchange session released")

// ExchangeSession is the relay's endpoint to one participant for one cell
// run. It owns its connection: keep-alive is switched off when the session
// is created and the lifetime ends exactly once, at FinishWith or Close.
type ExchangeSession struct {
	name  domain.Username
	cell  int
	conn  net.Conn
	w     *wire.Writer
	grace time.Duration
	log   *zap.Logger

	replies  chan domain.RunningValue
	readDone chan struct{}
	readErr  error
	closed   chan struct{}

	released  atomic.Bool
	closeOnce sync.Once
}

// NewExchangeSession takes ownership of conn. r must be the reader the
// exchange hello was read from, so buffered bytes are not lost.
func NewExchangeSession(
	conn net.Conn,
	r *wire.Reader,
	name domain.Username,
	cell int,
	grace time.Duration,
	log *zap.Logger,
) *ExchangeSession {
	s := &ExchangeSession{
		name:     name,
		cell:     cell,
		conn:     conn,
		w:        wire.NewWriter(conn),
		grace:    grace,
		log:      log.With(zap.String("participant", name.String()), zap.Int("cell", cell)),
		replies:  make(chan domain.RunningValue, 1),
		readDone: make(chan struct{}),
		closed:   make(chan struct{}),
	}
	if tc, ok := conn.(*net.TCPConn); ok {
		_ = tc.SetKeepAlive(false)
	}
	go s.readLoop(r)
	return s
}

// Name returns the participant this session belongs to.
func (s *ExchangeSession) Name() domain.Username { return s.name }

// Cell returns the matrix cell this session serves.
func (s *ExchangeSession) Cell() int { return s.cell }

// Done is closed once the participant hangs up or the connection fails.
func (s *ExchangeSession) Done() <-chan struct{} { return s.readDone }

// Released reports whether the session's lifetime has ended.
func (s *ExchangeSession) Released() bool { return s.released.Load() }

func (s *ExchangeSession) readLoop(r *wire.Reader) {
	defer close(s.readDone)
	for {
		v, err := r.ReadPair()
		if err != nil {
			s.readErr = err
			return
		}
		select {
		case s.replies <- v:
		case <-s.closed:
			s.readErr = net.ErrClosed
			return
		}
	}
}

// ContinueWith sends v followed by CONTINUE.
func (s *ExchangeSession) ContinueWith(ctx context.Context, v domain.RunningValue) error {
	return s.send(ctx, v, wire.Continue)
}

// FinishWith sends v followed by KEYDONE and ends the session's lifetime.
// The connection is closed once the participant hangs up or the grace
// period elapses.
func (s *ExchangeSession) FinishWith(ctx context.Context, v domain.RunningValue) error {
	if err := s.send(ctx, v, wire.KeyDone); err != nil {
		return err
	}
	s.release()
	return nil
}

// Receive blocks for the participant's next value pair.
func (s *ExchangeSession) Receive(ctx context.Context) (domain.RunningValue, error) {
	select {
	case v := <-s.replies:
		return v, nil
	case <-s.readDone:
		select {
		case v := <-s.replies:
			return v, nil
		default:
		}
		return domain.RunningValue{}, fmt.Errorf("receive: %w", s.readErr)
	case <-ctx.Done():
		return domain.RunningValue{}, ctx.Err()
	}
}

func (s *ExchangeSession) send(ctx context.Context, v domain.RunningValue, token string) error {
	if s.released.Load() {
		return ErrReleased
	}
	if dl, ok := ctx.Deadline(); ok {
		_ = s.conn.SetWriteDeadline(dl)
	}
	if err := s.w.WritePairToken(v, token); err != nil {
		return fmt.Errorf("send %s: %w", token, err)
	}
	return nil
}

func (s *ExchangeSession) release() {
	if !s.released.CAS(false, true) {
		return
	}
	go func() {
		t := time.NewTimer(s.grace)
		defer t.Stop()
		select {
		case <-s.readDone:
		case <-t.C:
			s.log.Debug("grace period elapsed before participant hung up")
		case <-s.closed:
		}
		s.Close()
	}()
}

// Close ends the session immediately. It is safe to call more than once.
func (s *ExchangeSession) Close() {
	s.closeOnce.Do(func() {
		s.released.Store(true)
		close(s.closed)
		_ = s.conn.Close()
	})
}

// Compile-time assertion that ExchangeSession implements groupdh.Session.
var _ groupdh.Session = (*ExchangeSession)(nil)
