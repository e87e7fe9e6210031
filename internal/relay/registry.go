package relay

import (
	"net"
	"sync"
	"time"

	"go.uber.org/atomic"

	"matrixchat/internal/domain"
	"matrixchat/internal/protocol/wire"
)

// Member is one registered chat connection.
type Member struct {
	name         domain.Username
	conn         net.Conn
	w            *wire.Writer
	writeTimeout time.Duration
	ready        atomic.Bool
}

// Name returns the member's registered name.
func (m *Member) Name() domain.Username { return m.name }

// Ready reports whether the member has been told OK and receives chat.
func (m *Member) Ready() bool { return m.ready.Load() }

// Send writes lines to the member's chat connection.
func (m *Member) Send(lines ...string) error {
	if m.writeTimeout > 0 {
		_ = m.conn.SetWriteDeadline(time.Now().Add(m.writeTimeout))
	}
	return m.w.WriteLines(lines...)
}

func (m *Member) markReady() { m.ready.Store(true) }

// Registry tracks connected participants by name. It is owned by one
// Server and safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	members map[domain.Username]*Member
	order   []domain.Username

	writeTimeout time.Duration
}

// NewRegistry returns an empty Registry.
func NewRegistry(writeTimeout time.Duration) *Registry {
	return &Registry{
		members:      make(map[domain.Username]*Member),
		writeTimeout: writeTimeout,
	}
}

// Reserve registers name for conn. It reports false when name is empty or
// already taken.
func (r *Registry) Reserve(name domain.Username, conn net.Conn, w *wire.Writer) (*Member, bool) {
	if name == "" {
		return nil, false
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.members[name]; taken {
		return nil, false
	}
	m := &Member{name: name, conn: conn, w: w, writeTimeout: r.writeTimeout}
	r.members[name] = m
	r.order = append(r.order, name)
	return m, true
}

// Remove unregisters m. A later member that reused the name is untouched.
func (r *Registry) Remove(m *Member) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.members[m.name]
	if !ok || cur != m {
		return false
	}
	delete(r.members, m.name)
	for i, n := range r.order {
		if n == m.name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// Len returns the number of registered members.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members)
}

// Names returns registered names in join order.
func (r *Registry) Names() []domain.Username {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.Username(nil), r.order...)
}

// Participants returns the names of ready members plus extra, in join
// order. Members still negotiating are left out.
func (r *Registry) Participants(extra domain.Username) []domain.Username {
	var out []domain.Username
	for _, m := range r.snapshot() {
		if m.Ready() || (extra != "" && m.name == extra) {
			out = append(out, m.name)
		}
	}
	return out
}

func (r *Registry) snapshot() []*Member {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Member, 0, len(r.order))
	for _, n := range r.order {
		out = append(out, r.members[n])
	}
	return out
}

// Broadcast sends lines to every ready member except from, and returns the
// number of members reached.
func (r *Registry) Broadcast(from domain.Username, lines ...string) int {
	sent := 0
	for _, m := range r.snapshot() {
		if m.name == from || !m.Ready() {
			continue
		}
		if err := m.Send(lines...); err != nil {
			continue
		}
		sent++
	}
	return sent
}

// CloseAll sends lines to every member, closes their connections and
// empties the registry.
func (r *Registry) CloseAll(lines ...string) {
	members := r.snapshot()

	r.mu.Lock()
	r.members = make(map[domain.Username]*Member)
	r.order = nil
	r.mu.Unlock()

	for _, m := range members {
		if len(lines) > 0 {
			_ = m.Send(lines...)
		}
		_ = m.conn.Close()
	}
}

