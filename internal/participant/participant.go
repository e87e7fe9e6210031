package participant

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/atomic"
	"go.uber.org/zap"

	"matrixchat/internal/domain"
	"matrixchat/internal/protocol/wire"
	"matrixchat/internal/relay"
	"matrixchat/internal/services/keyagreement"
)

var (
	// ErrNotKeyed is returned by Send outside the Keyed state.
	ErrNotKeyed = errors.New("no agreed key yet")
	// ErrClosed is returned after the relay or the caller closed the chat.
	ErrClosed = errors.New("chat closed")
	// ErrNameTaken is returned by registration when the relay answers NO.
	ErrNameTaken = relay.ErrNameTaken
)

// DefaultAnnounceDelay is how long a new key must stay current before the
// join announcement goes out.
const DefaultAnnounceDelay = 300 * time.Millisecond

// EventKind tells what an Event carries.
type EventKind int

const (
	// EventMessage is a decrypted chat line.
	EventMessage EventKind = iota
	// EventKeyed reports a completed key agreement.
	EventKeyed
	// EventKeyFailed reports a failed key agreement.
	EventKeyFailed
	// EventClosed reports that the relay shut down or the link dropped.
	EventClosed
)

// Event is delivered to the UI.
type Event struct {
	Kind        EventKind
	Text        string
	Fingerprint domain.Fingerprint
	Err         error
}

// Participant is one chat member. It moves Unkeyed -> AgreementInProgress
// -> Keyed, re-entering AgreementInProgress whenever the relay announces a
// new run.
type Participant struct {
	name   domain.Username
	client *relay.Client
	agree  domain.KeyAgreementService
	msgs   domain.MessageService
	log    *zap.Logger

	state         atomic.Int32
	announced     atomic.Bool
	announceDelay time.Duration
	events        chan Event

	mu       sync.Mutex
	gen      uint64
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	quit     chan struct{}
	quitOnce sync.Once
}

// New wires a Participant around a registered relay connection.
func New(
	name domain.Username,
	client *relay.Client,
	agree domain.KeyAgreementService,
	msgs domain.MessageService,
	log *zap.Logger,
) *Participant {
	return &Participant{
		name:   name,
		client: client,
		agree:  agree,
		msgs:   msgs,
		log:    log.With(zap.String("participant", name.String())),
		events: make(chan Event, 64),
		quit:   make(chan struct{}),

		announceDelay: DefaultAnnounceDelay,
	}
}

// WithAnnounceDelay sets how long a key must stay current before "<name>
// has joined" is sent. Call it before Run.
func (p *Participant) WithAnnounceDelay(d time.Duration) *Participant {
	p.announceDelay = d
	return p
}

// Name returns the registered name.
func (p *Participant) Name() domain.Username { return p.name }

// State returns the current agreement state.
func (p *Participant) State() domain.AgreementState {
	return domain.AgreementState(p.state.Load())
}

// Events returns the channel of UI events. It is closed when Run returns.
func (p *Participant) Events() <-chan Event { return p.events }

// Run starts the first agreement and reads the chat connection until ctx
// is done, the relay closes, or the link drops.
func (p *Participant) Run(ctx context.Context) error {
	defer func() {
		p.stopAgreement()
		p.shutdown()
		p.wg.Wait()
		close(p.events)
	}()
	stop := context.AfterFunc(ctx, func() { _ = p.client.Close() })
	defer stop()

	p.startAgreement(ctx)
	for {
		line, err := p.client.ReadLine()
		if err != nil {
			closedByUs := p.State() == domain.StateClosed
			p.state.Store(int32(domain.StateClosed))
			if ctx.Err() != nil || closedByUs {
				return nil
			}
			p.emit(Event{Kind: EventClosed, Err: err})
			return fmt.Errorf("%w: %w", ErrClosed, err)
		}
		switch line {
		case wire.KeyExchange:
			p.startAgreement(ctx)
		case wire.Closed:
			p.state.Store(int32(domain.StateClosed))
			p.emit(Event{Kind: EventClosed})
			return nil
		default:
			text, err := p.msgs.Open(line)
			if err != nil {
				p.log.Debug("dropping undecryptable line", zap.Error(err))
				continue
			}
			p.emit(Event{Kind: EventMessage, Text: text})
		}
	}
}

// Send encrypts text with the sender's name and sends it.
func (p *Participant) Send(text string) error {
	switch p.State() {
	case domain.StateKeyed:
	case domain.StateClosed:
		return ErrClosed
	default:
		return ErrNotKeyed
	}
	line, err := p.msgs.Seal(p.name, text)
	if err != nil {
		return err
	}
	return p.client.Send(line)
}

// Close announces the departure when keyed, sends END and closes the
// connection.
func (p *Participant) Close() error {
	if p.State() == domain.StateKeyed {
		if line, err := p.msgs.SealRaw(fmt.Sprintf("%s has left the chat", p.name)); err == nil {
			_ = p.client.Send(line)
		}
	}
	p.state.Store(int32(domain.StateClosed))
	p.stopAgreement()
	p.shutdown()
	_ = p.client.Send(wire.End)
	return p.client.Close()
}

func (p *Participant) startAgreement(parent context.Context) {
	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
	}
	ctx, cancel := context.WithCancel(parent)
	p.gen++
	gen := p.gen
	p.cancel = cancel
	if p.State() != domain.StateClosed {
		p.state.Store(int32(domain.StateAgreementInProgress))
	}
	p.mu.Unlock()

	p.log.Debug("key agreement started")
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer cancel()
		key, err := p.agree.Agree(ctx, p.name)
		p.finishAgreement(gen, key, err)
	}()
}

func (p *Participant) stopAgreement() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.gen++
}

func (p *Participant) finishAgreement(gen uint64, key domain.KeyMatrix, err error) {
	p.mu.Lock()
	if gen != p.gen || p.State() == domain.StateClosed {
		p.mu.Unlock()
		return
	}
	var fp domain.Fingerprint
	if err == nil {
		fp, err = p.msgs.Rekey(key)
	}
	if err != nil {
		p.msgs.Forget()
		p.state.Store(int32(domain.StateUnkeyed))
		p.mu.Unlock()

		p.log.Warn("key agreement failed", zap.Error(err))
		if errors.Is(err, keyagreement.ErrDegenerateKey) {
			// Everybody derived the same unusable matrix; ask for a new run.
			_ = p.client.Send(wire.KeyExchange)
		}
		p.emit(Event{Kind: EventKeyFailed, Err: err})
		return
	}
	p.state.Store(int32(domain.StateKeyed))
	p.mu.Unlock()

	p.log.Info("key agreed", zap.String("fingerprint", fp.String()))
	p.emit(Event{Kind: EventKeyed, Fingerprint: fp})
	if !p.announced.Load() {
		p.wg.Add(1)
		go p.announce(gen)
	}
}

// announce sends the join line once the key of run gen has stayed current
// for announceDelay. Other members may still be finishing the same run.
func (p *Participant) announce(gen uint64) {
	defer p.wg.Done()
	t := time.NewTimer(p.announceDelay)
	defer t.Stop()
	select {
	case <-t.C:
	case <-p.quit:
		return
	}

	p.mu.Lock()
	current := gen == p.gen && p.State() == domain.StateKeyed
	p.mu.Unlock()
	if !current || !p.announced.CAS(false, true) {
		return
	}
	line, err := p.msgs.SealRaw(fmt.Sprintf("%s has joined", p.name))
	if err != nil {
		p.announced.Store(false)
		return
	}
	_ = p.client.Send(line)
}

func (p *Participant) shutdown() {
	p.quitOnce.Do(func() { close(p.quit) })
}

func (p *Participant) emit(ev Event) {
	select {
	case p.events <- ev:
	default:
		p.log.Warn("event dropped, UI not keeping up")
	}
}
