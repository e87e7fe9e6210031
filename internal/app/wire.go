package app

import (
	"context"
	"net"
	"time"

	"go.uber.org/zap"

	"matrixchat/internal/crypto"
	"matrixchat/internal/domain"
	"matrixchat/internal/participant"
	"matrixchat/internal/relay"
	"matrixchat/internal/services/keyagreement"
	messagesvc "matrixchat/internal/services/message"
	"matrixchat/internal/store"
)

// Wire bundles the stores, clients and constructors used by the commands.
type Wire struct {
	Profiles *store.ProfileFileStore
	Dialer   relay.Dialer
	Log      *zap.Logger
	relayCfg relay.Config
}

// NewWire constructs the dependency graph from cfg around log.
func NewWire(cfg Config, log *zap.Logger) *Wire {
	return &Wire{
		Profiles: store.NewProfileFileStore(cfg.Home),
		Dialer:   &net.Dialer{Timeout: cfg.Participant.DialTimeout},
		Log:      log,
		relayCfg: cfg.Relay,
	}
}

// NewRelay builds a relay server with a time-seeded parameter generator.
func (w *Wire) NewRelay() *relay.Server {
	params := crypto.NewGenerator(time.Now().UnixNano()).WithAttempts(w.relayCfg.ParameterAttempts)
	return relay.New(w.relayCfg, params, w.Log.Named("relay"))
}

// Dial opens a chat connection to addr. The caller registers a name on it.
func (w *Wire) Dial(ctx context.Context, addr string) (*relay.Client, error) {
	return relay.Dial(ctx, w.Dialer, addr)
}

// NewParticipant wraps a registered connection with fresh key agreement
// and message services.
func (w *Wire) NewParticipant(c *relay.Client, name domain.Username) *participant.Participant {
	log := w.Log.Named("participant")
	agree := keyagreement.New(c.Addr, w.Dialer, log)
	return participant.New(name, c, agree, messagesvc.New(), log)
}
