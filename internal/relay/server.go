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

	"matrixchat/internal/crypto"
	"matrixchat/internal/domain"
	"matrixchat/internal/protocol/wire"
)

// Config controls the relay's network and agreement behaviour.
type Config struct {
	Listen            string        `yaml:"listen"`
	AgreementAttempts int           `yaml:"agreement_attempts"`
	ParameterAttempts int           `yaml:"parameter_attempts"`
	ExchangeTimeout   time.Duration `yaml:"exchange_timeout"`
	RunTimeout        time.Duration `yaml:"run_timeout"`
	GracePeriod       time.Duration `yaml:"grace_period"`
	HelloTimeout      time.Duration `yaml:"hello_timeout"`
	WriteTimeout      time.Duration `yaml:"write_timeout"`
}

// DefaultConfig returns the relay defaults.
func DefaultConfig() Config {
	return Config{
		Listen:            ":4567",
		AgreementAttempts: 3,
		ParameterAttempts: crypto.DefaultAttempts,
		ExchangeTimeout:   15 * time.Second,
		RunTimeout:        30 * time.Second,
		GracePeriod:       2 * time.Second,
		HelloTimeout:      30 * time.Second,
		WriteTimeout:      5 * time.Second,
	}
}

// Stats counts agreement outcomes since the server started.
type Stats struct {
	RunsCompleted int64
	RunsFailed    int64
	Participants  int
	Members       []domain.Username // in join order
}

// Server accepts chat and exchange connections, fans chat lines out to the
// other participants and re-runs the key agreement on every join. It never
// sees a key.
type Server struct {
	cfg      Config
	params   domain.ParameterSource
	log      *zap.Logger
	registry *Registry

	joinMu sync.Mutex

	runMu   sync.Mutex
	current *run

	rekeyPending atomic.Bool
	completed    atomic.Int64
	failed       atomic.Int64

	wg        sync.WaitGroup
	quit      chan struct{}
	closeOnce sync.Once
}

// New returns a Server drawing cell parameters from params.
func New(cfg Config, params domain.ParameterSource, log *zap.Logger) *Server {
	if cfg.AgreementAttempts < 1 {
		cfg.AgreementAttempts = 1
	}
	return &Server{
		cfg:      cfg,
		params:   params,
		log:      log,
		registry: NewRegistry(cfg.WriteTimeout),
		quit:     make(chan struct{}),
	}
}

// Stats returns a snapshot of the server's counters.
func (s *Server) Stats() Stats {
	return Stats{
		RunsCompleted: s.completed.Load(),
		RunsFailed:    s.failed.Load(),
		Participants:  s.registry.Len(),
		Members:       s.registry.Names(),
	}
}

// ListenAndServe listens on cfg.Listen and serves until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Listen)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Listen, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done, then tells every
// participant CLOSED and waits for connection handlers to return.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.log.Info("relay listening", zap.String("addr", ln.Addr().String()))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	acceptErr := make(chan error, 1)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := ln.Accept()
			if err != nil {
				acceptErr <- err
				return
			}
			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				s.handleConn(ctx, conn)
			}()
		}
	}()

	var err error
	select {
	case <-ctx.Done():
	case err = <-acceptErr:
		if errors.Is(err, net.ErrClosed) {
			err = nil
		}
	}
	cancel()
	_ = ln.Close()
	s.shutdown()
	s.wg.Wait()
	return err
}

func (s *Server) shutdown() {
	s.closeOnce.Do(func() {
		s.runMu.Lock()
		if s.current != nil {
			s.current.close(true)
			s.current = nil
		}
		s.runMu.Unlock()
		s.registry.CloseAll(wire.Closed)
		close(s.quit)
		s.log.Info("relay closed")
	})
}

// closeOnQuit closes conn if the server shuts down before the returned
// function is called. It covers connections not yet in the registry.
func (s *Server) closeOnQuit(conn net.Conn) func() {
	done := make(chan struct{})
	go func() {
		select {
		case <-s.quit:
			_ = conn.Close()
		case <-done:
		}
	}()
	return func() { close(done) }
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	stop := s.closeOnQuit(conn)
	defer stop()

	r := wire.NewReader(conn)
	if s.cfg.HelloTimeout > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(s.cfg.HelloTimeout))
	}
	role, err := r.ReadToken(wire.RoleJoin, wire.RoleExchange)
	if err != nil {
		s.log.Debug("dropping connection", zap.String("remote", conn.RemoteAddr().String()), zap.Error(err))
		_ = conn.Close()
		return
	}
	switch role {
	case wire.RoleJoin:
		s.handleJoin(ctx, conn, r)
	case wire.RoleExchange:
		s.handleExchange(conn, r)
	}
}

func (s *Server) handleExchange(conn net.Conn, r *wire.Reader) {
	name, cell, err := r.ReadExchangeHello()
	if err != nil {
		s.log.Debug("bad exchange hello", zap.Error(err))
		_ = conn.Close()
		return
	}
	_ = conn.SetReadDeadline(time.Time{})

	sess := NewExchangeSession(conn, r, name, cell, s.cfg.GracePeriod, s.log)

	s.runMu.Lock()
	cur := s.current
	s.runMu.Unlock()
	if cur == nil || !cur.add(sess) {
		s.log.Debug("exchange socket outside a run",
			zap.String("participant", name.String()), zap.Int("cell", cell))
		sess.Close()
	}
}

func (s *Server) handleJoin(ctx context.Context, conn net.Conn, r *wire.Reader) {
	w := wire.NewWriter(conn)
	var m *Member
	for m == nil {
		name, err := r.ReadLine()
		if err != nil {
			_ = conn.Close()
			return
		}
		var ok bool
		if m, ok = s.registry.Reserve(domain.Username(name), conn, w); !ok {
			if err := w.WriteLines(wire.No); err != nil {
				_ = conn.Close()
				return
			}
		}
	}
	_ = conn.SetReadDeadline(time.Time{})
	log := s.log.With(zap.String("participant", m.Name().String()))
	log.Info("participant joined", zap.Int("participants", s.registry.Len()))

	s.joinMu.Lock()
	err := s.rekey(ctx, m)
	s.joinMu.Unlock()
	if err != nil {
		log.Error("key agreement failed", zap.Error(err))
	}
	if !m.Ready() {
		if err := m.Send(wire.OK); err != nil {
			s.leave(m, log)
			return
		}
		m.markReady()
	}

	s.chatLoop(ctx, m, r, log)
}

func (s *Server) chatLoop(ctx context.Context, m *Member, r *wire.Reader, log *zap.Logger) {
	defer s.leave(m, log)
	for {
		line, err := r.ReadLine()
		if err != nil {
			if ctx.Err() == nil {
				log.Debug("chat connection ended", zap.Error(err))
			}
			return
		}
		switch line {
		case wire.End:
			return
		case wire.KeyExchange:
			s.requestRekey(ctx)
		default:
			s.registry.Broadcast(m.Name(), line)
		}
	}
}

func (s *Server) leave(m *Member, log *zap.Logger) {
	if s.registry.Remove(m) {
		log.Info("participant left", zap.Int("participants", s.registry.Len()))
	}
	_ = m.conn.Close()
}

// requestRekey schedules one agreement for everyone, coalescing requests
// that arrive while one is already queued.
func (s *Server) requestRekey(ctx context.Context) {
	if !s.rekeyPending.CAS(false, true) {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.joinMu.Lock()
		defer s.joinMu.Unlock()
		s.rekeyPending.Store(false)
		if err := s.rekey(ctx, nil); err != nil {
			s.log.Error("requested key agreement failed", zap.Error(err))
		}
	}()
}

// Rekey runs a key agreement for every registered participant. Callers
// must not hold any join in progress.
func (s *Server) Rekey(ctx context.Context) error {
	s.joinMu.Lock()
	defer s.joinMu.Unlock()
	return s.rekey(ctx, nil)
}

// rekey runs agreement attempts until one succeeds. On the first attempt
// joiner is sent OK instead of KEYEXCHANGE; every retry restarts all
// participants with KEYEXCHANGE.
func (s *Server) rekey(ctx context.Context, joiner *Member) error {
	var err error
	for attempt := 1; attempt <= s.cfg.AgreementAttempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		err = s.attempt(ctx, attempt, joiner)
		if err == nil {
			s.completed.Inc()
			return nil
		}
		s.failed.Inc()
		s.log.Warn("key agreement attempt failed", zap.Int("attempt", attempt), zap.Error(err))
	}
	return fmt.Errorf("after %d attempts: %w", s.cfg.AgreementAttempts, err)
}

func (s *Server) attempt(ctx context.Context, attempt int, joiner *Member) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.RunTimeout)
	defer cancel()

	params, err := s.params.GenerateCells(ctx)
	if err != nil {
		return fmt.Errorf("generate parameters: %w", err)
	}

	var joinerName domain.Username
	if joiner != nil {
		joinerName = joiner.Name()
	}
	names := s.registry.Participants(joinerName)
	if len(names) == 0 {
		return nil
	}
	rn := newRun(names)
	log := s.log.With(zap.String("run", rn.id.String()), zap.Int("attempt", attempt))

	s.runMu.Lock()
	s.current = rn
	s.runMu.Unlock()
	defer func() {
		s.runMu.Lock()
		if s.current == rn {
			s.current = nil
		}
		s.runMu.Unlock()
	}()

	if joiner != nil && !joiner.Ready() {
		if err := joiner.Send(wire.OK); err != nil {
			rn.close(true)
			return fmt.Errorf("notify %s: %w", joiner.Name(), err)
		}
		joiner.markReady()
		s.registry.Broadcast(joiner.Name(), wire.KeyExchange)
	} else {
		s.registry.Broadcast("", wire.KeyExchange)
	}
	log.Info("key agreement started", zap.Int("participants", len(names)))

	waitCtx, waitCancel := context.WithTimeout(ctx, s.cfg.ExchangeTimeout)
	err = rn.wait(waitCtx)
	waitCancel()
	if err != nil {
		rn.close(true)
		return err
	}

	if err := rn.execute(ctx, params, log); err != nil {
		rn.close(true)
		return err
	}
	rn.close(false)
	log.Info("key agreement completed")
	return nil
}
